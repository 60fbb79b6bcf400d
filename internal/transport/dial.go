// internal/transport/dial.go
package transport

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Build returns the dialer for the URL scheme: streaming POST for http(s),
// a websocket for ws(s).
func Build(p Params) (Dialer, error) {
	if p.ClientID == "" {
		return nil, errors.New("transport: client id required")
	}
	u, err := url.Parse(p.URL)
	if err != nil {
		return nil, fmt.Errorf("transport: url: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
		return httpDialer(p, u), nil
	case "ws", "wss":
		return websocketDialer(p, u), nil
	default:
		return nil, fmt.Errorf("transport: unsupported scheme %q", u.Scheme)
	}
}

// Query is the realtime request sent to the backend.
func Query(p Params) string {
	var b strings.Builder
	b.WriteString("cmd=realtime;ascii=1")
	b.WriteString(";client=" + p.ClientID)
	b.WriteString(";name=" + p.ClientName)
	b.WriteString(";version=" + p.Version)
	b.WriteString(";maxch=" + strconv.Itoa(p.Channels))
	return b.String()
}

// UserAgent identifies the lamp to the backend.
func UserAgent(p Params) string {
	return "tschenggins-laempli/" + p.Version + " (" + p.ClientID + ")"
}

// credentials strips the user info off u and returns it separately.
func credentials(u *url.URL) (clean *url.URL, user, pass string, ok bool) {
	c := *u
	if c.User == nil {
		return &c, "", "", false
	}
	user = c.User.Username()
	pass, _ = c.User.Password()
	c.User = nil
	return &c, user, pass, true
}
