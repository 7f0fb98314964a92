// Package storage retains uploaded import files on disk so a problematic
// import can be audited later.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// FileInfo describes a retained upload.
type FileInfo struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// Storage is the interface for retained upload files.
type Storage interface {
	// Save stores an uploaded file under the user's directory.
	Save(ctx context.Context, userID uuid.UUID, filename string, r io.Reader) (*FileInfo, error)

	// Open returns a reader for a retained file.
	Open(ctx context.Context, userID uuid.UUID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error)

	// List returns every retained file for a user, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]*FileInfo, error)
}
