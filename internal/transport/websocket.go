// internal/transport/websocket.go
package transport

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// websocketDialer opens a websocket, sends the realtime query as the first
// text message and exposes the received messages as one byte stream.
func websocketDialer(p Params, u *url.URL) Dialer {
	target, user, pass, auth := credentials(u)

	d := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: p.ConnectTimeout,
	}

	query := Query(p)
	header := http.Header{}
	header.Set("User-Agent", UserAgent(p))
	if auth {
		header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(user+":"+pass)))
	}

	return func(ctx context.Context) (io.ReadCloser, error) {
		conn, resp, err := d.DialContext(ctx, target.String(), header)
		if err != nil {
			if resp != nil {
				return nil, fmt.Errorf("transport ws: dial: %w (status %s)", err, resp.Status)
			}
			return nil, fmt.Errorf("transport ws: dial: %w", err)
		}

		if err := conn.WriteMessage(websocket.TextMessage, []byte(query)); err != nil {
			conn.Close()
			return nil, fmt.Errorf("transport ws: query: %w", err)
		}
		return &wsStream{conn: conn}, nil
	}
}

const closeGrace = time.Second

// wsStream concatenates websocket messages into a byte stream.
type wsStream struct {
	conn *websocket.Conn
	r    io.Reader
}

func (s *wsStream) Read(p []byte) (int, error) {
	for {
		if s.r == nil {
			_, r, err := s.conn.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return 0, io.EOF
				}
				return 0, err
			}
			s.r = r
		}

		n, err := s.r.Read(p)
		if errors.Is(err, io.EOF) {
			s.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (s *wsStream) Close() error {
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(closeGrace))
	return s.conn.Close()
}
