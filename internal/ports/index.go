package ports

import (
	"context"

	"pkgsource/internal/types"
)

// IndexReaderPort loads an index from a file path or URL.
type IndexReaderPort interface {
	Read(ctx context.Context, location string) (types.IndexFile, error)
}

type IndexWriterPort interface {
	Write(path string, index types.IndexFile) error
}
