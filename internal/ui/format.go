package ui

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/term"
)

// Box drawing characters
const (
	BoxTopLeft     = "┌"
	BoxTopRight    = "┐"
	BoxBottomLeft  = "└"
	BoxBottomRight = "┘"
	BoxVertical    = "│"
	BoxHorizontal  = "─"
	BoxTeeLeft     = "├"
	BoxTeeRight    = "┤"
	BoxTeeTop      = "┬"
	BoxTeeBottom   = "┴"
	BoxCross       = "┼"

	BoxDoubleHorizontal = "═"
	BoxDoubleTopLeft    = "╔"
	BoxDoubleTopRight   = "╗"
	BoxDoubleBotLeft    = "╚"
	BoxDoubleBotRight   = "╝"

	BulletCircle  = "•"
	BulletArrow   = "▸"
	BulletDiamond = "◆"
)

// AnsiRegex is compiled once for performance.
var AnsiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

const termWidthCacheTTL = 500 * time.Millisecond

var (
	termWidthMu         sync.Mutex
	cachedTermWidth     = 80
	cachedTermWidthTime time.Time
)

// GetTermWidth returns the terminal width, defaulting to 80.
func GetTermWidth() int {
	termWidthMu.Lock()
	if time.Since(cachedTermWidthTime) <= termWidthCacheTTL && cachedTermWidth > 0 {
		width := cachedTermWidth
		termWidthMu.Unlock()
		return width
	}
	termWidthMu.Unlock()

	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width == 0 {
		width = 80
	}

	termWidthMu.Lock()
	cachedTermWidth = width
	cachedTermWidthTime = time.Now()
	termWidthMu.Unlock()

	return width
}

// StripAnsiCodes removes ANSI escape sequences from a string.
func StripAnsiCodes(s string) string {
	return AnsiRegex.ReplaceAllString(s, "")
}

// VisibleLength returns the visible length of a string (excluding ANSI codes).
func VisibleLength(s string) int {
	return utf8.RuneCountInString(StripAnsiCodes(s))
}

// TruncateWithEllipsis truncates a string to maxLen with ellipsis if needed.
func TruncateWithEllipsis(s string, maxLen int) string {
	if VisibleLength(s) <= maxLen {
		return s
	}
	stripped := StripAnsiCodes(s)
	runes := []rune(stripped)
	if maxLen <= 3 {
		if len(runes) <= maxLen {
			return stripped
		}
		return string(runes[:maxLen])
	}
	truncated := string(runes[:maxLen-3]) + "..."
	if codes := AnsiRegex.FindAllString(s, 1); len(codes) > 0 {
		return codes[0] + truncated + ColorReset
	}
	return truncated
}

// PadRight pads a string to the specified width using visible length.
func PadRight(s string, width int) string {
	visLen := VisibleLength(s)
	if visLen >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visLen)
}

// PadCenter centers a string in the specified width using visible length.
func PadCenter(s string, width int) string {
	visLen := VisibleLength(s)
	if visLen >= width {
		return s
	}
	padding := width - visLen
	leftPad := padding / 2
	return strings.Repeat(" ", leftPad) + s + strings.Repeat(" ", padding-leftPad)
}

// PrintHeader prints a styled header with box drawing.
func PrintHeader(title string) {
	width := GetTermWidth()
	if VisibleLength(title)+4 > width-4 {
		title = TruncateWithEllipsis(title, width-10)
	}
	lineLen := width - 2

	fmt.Printf("\n%s%s%s%s%s\n",
		ColorCyan, BoxDoubleTopLeft,
		strings.Repeat(BoxDoubleHorizontal, lineLen),
		BoxDoubleTopRight, ColorReset)

	fmt.Printf("%s%s%s %s %s%s%s\n",
		ColorCyan, BoxVertical, ColorReset,
		ColorBold+PadCenter(title, lineLen-2)+ColorReset,
		ColorCyan, BoxVertical, ColorReset)

	fmt.Printf("%s%s%s%s%s\n\n",
		ColorCyan, BoxDoubleBotLeft,
		strings.Repeat(BoxDoubleHorizontal, lineLen),
		BoxDoubleBotRight, ColorReset)
}

// PrintSection prints a section title with underline.
func PrintSection(title string) {
	fmt.Printf("\n%s%s %s%s\n", ColorBold, BulletDiamond, title, ColorReset)
	fmt.Printf("%s%s%s\n\n", ColorCyan, strings.Repeat(BoxHorizontal, len(title)+2), ColorReset)
}

// PrintList prints a styled bullet list.
func PrintList(items []string, color string) {
	for _, item := range items {
		fmt.Printf("  %s%s%s %s\n", color, BulletCircle, ColorReset, item)
	}
}

// PrintKeyValue prints a key-value pair with styling.
func PrintKeyValue(key, value, valueColor string) {
	width := GetTermWidth()
	maxValueWidth := width - len(key) - 10
	if len(value) > maxValueWidth {
		value = TruncateWithEllipsis(value, maxValueWidth)
	}
	fmt.Printf("  %s%-20s%s %s%s%s\n",
		ColorCyan, key+":", ColorReset,
		valueColor, value, ColorReset)
}

// PrintDivider prints a horizontal divider.
func PrintDivider() {
	width := GetTermWidth()
	fmt.Printf("%s%s%s\n", ColorCyan, strings.Repeat(BoxHorizontal, width-1), ColorReset)
}

// TableColumn represents a column in a table.
type TableColumn struct {
	Header string
	Width  int
	Align  string // "left", "right", "center"
}

// Table represents a formatted table.
type Table struct {
	Columns []TableColumn
	Rows    [][]string
}

// NewTable creates a new table.
func NewTable(columns []TableColumn) *Table {
	return &Table{Columns: columns}
}

// AddRow adds a row to the table. Short rows are padded with empty cells.
func (t *Table) AddRow(cells ...string) {
	if len(cells) != len(t.Columns) {
		row := make([]string, len(t.Columns))
		copy(row, cells)
		t.Rows = append(t.Rows, row)
		return
	}
	t.Rows = append(t.Rows, cells)
}

func (t *Table) fitColumns() []TableColumn {
	termWidth := GetTermWidth()
	available := termWidth - (len(t.Columns) + 1) - (len(t.Columns) * 2)

	requested := 0
	for _, col := range t.Columns {
		requested += col.Width
	}

	fitted := make([]TableColumn, len(t.Columns))
	copy(fitted, t.Columns)
	if requested > available {
		for i := range fitted {
			fitted[i].Width = (fitted[i].Width * available) / requested
		}
	}
	return fitted
}

func (t *Table) printBorder(cols []TableColumn, left, join, right string) {
	fmt.Print(ColorCyan + left)
	for i, col := range cols {
		fmt.Print(strings.Repeat(BoxHorizontal, col.Width+2))
		if i < len(cols)-1 {
			fmt.Print(join)
		}
	}
	fmt.Println(right + ColorReset)
}

// Print renders the table to stdout.
func (t *Table) Print() {
	if len(t.Columns) == 0 {
		return
	}
	cols := t.fitColumns()

	t.printBorder(cols, BoxTopLeft, BoxTeeTop, BoxTopRight)

	fmt.Print(ColorCyan + BoxVertical + ColorReset)
	for _, col := range cols {
		header := TruncateWithEllipsis(col.Header, col.Width)
		fmt.Printf(" %s%s%s ", ColorBold, PadCenter(header, col.Width), ColorReset)
		fmt.Print(ColorCyan + BoxVertical + ColorReset)
	}
	fmt.Println()

	t.printBorder(cols, BoxTeeLeft, BoxCross, BoxTeeRight)

	for _, row := range t.Rows {
		fmt.Print(ColorCyan + BoxVertical + ColorReset)
		for colIdx, cell := range row {
			if colIdx >= len(cols) {
				break
			}
			col := cols[colIdx]
			truncated := TruncateWithEllipsis(cell, col.Width)

			var formatted string
			switch col.Align {
			case "right":
				visLen := VisibleLength(truncated)
				formatted = truncated
				if visLen < col.Width {
					formatted = strings.Repeat(" ", col.Width-visLen) + truncated
				}
			case "center":
				formatted = PadCenter(truncated, col.Width)
			default:
				formatted = PadRight(truncated, col.Width)
			}

			fmt.Printf(" %s ", formatted)
			fmt.Print(ColorCyan + BoxVertical + ColorReset)
		}
		fmt.Println()
	}

	t.printBorder(cols, BoxBottomLeft, BoxTeeBottom, BoxBottomRight)
}

// RenderProgress displays a styled progress bar. The onUpdate callback is
// called with (label, percentage, speed, downloaded, total) for runtime
// status updates.
func RenderProgress(label string, percentage int, speed, downloaded, total string, onUpdate func(string, int, string, string, string)) {
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}

	const barWidth = 30
	filled := (percentage * barWidth) / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	fmt.Printf("\r%s%s%s %s[%s%s%s]%s %s%3d%%%s @ %s/s, %s/%s ",
		ColorBold, label, ColorReset,
		ColorCyan, ColorGreen, bar, ColorCyan, ColorReset,
		ColorBold, percentage, ColorReset,
		speed, downloaded, total)
	if onUpdate != nil {
		onUpdate(label, percentage, speed, downloaded, total)
	}
}
