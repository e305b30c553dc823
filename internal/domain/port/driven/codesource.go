package driven

import (
	"context"
	"io"
)

// CodeSource defines the driven port for the external list of access codes.
// The loader parses the content; adapters only fetch it.
type CodeSource interface {
	// Name identifies the source in logs (a path, URL or repo path).
	Name() string

	// Signature returns an opaque value that changes whenever the content
	// changes, such as an mtime, ETag or blob SHA. Failures should wrap
	// model.ErrSourceUnavailable.
	Signature(ctx context.Context) (string, error)

	// Open returns the current content. The caller closes the reader.
	// Failures should wrap model.ErrSourceUnavailable.
	Open(ctx context.Context) (io.ReadCloser, error)
}
