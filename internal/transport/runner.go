// internal/transport/runner.go
package transport

import (
	"context"
	"io"
	"time"
)

// Run reads r in chunks of at most size bytes and emits them on out.
// One goroutine per connection. The last chunk carries the read error;
// Run returns after sending it or when ctx is done. Closing r unblocks it.
func Run(ctx context.Context, r io.Reader, size int, out chan<- Chunk) {
	if size <= 0 {
		size = 100
	}
	buf := make([]byte, size)

	for {
		n, err := r.Read(buf)

		var c Chunk
		c.At = time.Now()
		if n > 0 {
			c.Data = append([]byte(nil), buf[:n]...)
		}
		c.Err = err

		if n == 0 && err == nil {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case out <- c:
		}

		if err != nil {
			return
		}
	}
}
