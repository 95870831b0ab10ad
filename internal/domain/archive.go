package domain

import "context"

// Archive browses and fetches files from the PGN archive.
type Archive interface {
	// List returns the entry names directly under path.
	List(ctx context.Context, path string) ([]string, error)

	// Fetch downloads the file at path.
	Fetch(ctx context.Context, path string) (RawBlob, error)
}
