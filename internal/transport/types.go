// internal/transport/types.go
package transport

import (
	"context"
	"io"
	"time"
)

// Chunk is the raw result of a single read on the backend stream.
type Chunk struct {
	At   time.Time
	Data []byte
	Err  error // non-nil ends the stream; io.EOF means the backend closed it
}

// Dialer opens one backend stream. One attempt per call, no retries.
type Dialer func(ctx context.Context) (io.ReadCloser, error)

// Params is the minimal runtime config a dialer needs.
type Params struct {
	URL        string
	ClientID   string
	ClientName string
	Channels   int
	Version    string

	ConnectTimeout time.Duration
}
