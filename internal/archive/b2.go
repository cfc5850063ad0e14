// Package archive uploads finished downloads to a Backblaze B2 bucket.
// Archiving is optional and configured entirely through the B2 fields of
// the config.
package archive

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	blazer "github.com/Backblaze/blazer/b2"

	"vgrab/internal/model"
)

// Archiver copies local files into a B2 bucket.
type Archiver struct {
	bucket      *blazer.Bucket
	deleteLocal bool
}

// Enabled reports whether the config carries B2 credentials.
func Enabled(cfg *model.Config) bool {
	return cfg.B2KeyID != "" && cfg.B2AppKey != "" && cfg.B2Bucket != ""
}

// New authenticates against B2 and binds the configured bucket.
func New(ctx context.Context, cfg *model.Config) (*Archiver, error) {
	client, err := blazer.NewClient(ctx, cfg.B2KeyID, cfg.B2AppKey)
	if err != nil {
		return nil, fmt.Errorf("creating b2 client: %w", err)
	}
	bucket, err := client.Bucket(ctx, cfg.B2Bucket)
	if err != nil {
		return nil, fmt.Errorf("getting b2 bucket %q: %w", cfg.B2Bucket, err)
	}
	return &Archiver{bucket: bucket, deleteLocal: cfg.DeleteAfterUpload}, nil
}

func (a *Archiver) String() string {
	return fmt.Sprintf("b2 %q bucket", a.bucket.Name())
}

// Upload streams path into the bucket under its base name. When the
// archiver is configured to delete after upload, the local file is removed
// on success.
func (a *Archiver) Upload(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	name := filepath.Base(path)
	attrs := blazer.Attrs{}
	if mimeType := mime.TypeByExtension(filepath.Ext(name)); mimeType != "" {
		attrs.ContentType = mimeType
	}

	w := a.bucket.Object(name).NewWriter(ctx, blazer.WithAttrsOption(&attrs))
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return fmt.Errorf("uploading %s to b2: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalising b2 upload of %s: %w", name, err)
	}

	if a.deleteLocal {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("removing %s after upload: %w", path, err)
		}
	}
	return nil
}
