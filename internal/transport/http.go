// internal/transport/http.go
package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// httpDialer POSTs the realtime query and streams the response body.
func httpDialer(p Params, u *url.URL) Dialer {
	target, user, pass, auth := credentials(u)

	dialer := &net.Dialer{Timeout: p.ConnectTimeout}
	client := &http.Client{
		// no overall timeout: the response is an endless stream
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   p.ConnectTimeout,
			ResponseHeaderTimeout: p.ConnectTimeout,
			DisableCompression:    true,
		},
	}

	query := Query(p)
	agent := UserAgent(p)

	return func(ctx context.Context) (io.ReadCloser, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), strings.NewReader(query))
		if err != nil {
			return nil, fmt.Errorf("transport http: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("User-Agent", agent)
		if auth {
			req.SetBasicAuth(user, pass)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("transport http: POST: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("transport http: POST: unexpected status %s", resp.Status)
		}
		return resp.Body, nil
	}
}
