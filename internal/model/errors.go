package model

import "errors"

// Sentinel errors shared across packages.
var (
	// ErrInvalidURL is returned when a URL is empty or not http(s).
	ErrInvalidURL = errors.New("please enter a valid URL")
	// ErrDownloadInProgress is returned when a second download is started
	// while one is already running.
	ErrDownloadInProgress = errors.New("a download is already in progress")
	// ErrNoFormats is returned when extraction yields no usable formats.
	ErrNoFormats = errors.New("no video formats available")
)
