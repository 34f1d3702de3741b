package transport

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultPort is the Archipelago server's default port, used whenever the
// caller's URL omits one.
const DefaultPort = 38281

// Candidates resolves a caller-provided address into the ordered list of
// fully-qualified WebSocket URLs that should be attempted in turn.
//
// If the address already names a scheme ("ws://" or "wss://"), there is
// exactly one candidate. Otherwise this tries "wss://" first and falls back
// to "ws://", matching the upstream client's "assume encrypted unless it
// fails" behavior. A missing port is filled in with DefaultPort.
func Candidates(addr string) ([]string, error) {
	if strings.Contains(addr, "://") {
		u, err := url.Parse(addr)
		if err != nil {
			return nil, fmt.Errorf("transport: parse url %q: %w", addr, err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return nil, fmt.Errorf("transport: unsupported scheme %q in %q", u.Scheme, addr)
		}
		withPort(u)
		return []string{u.String()}, nil
	}

	wss := &url.URL{Scheme: "wss", Host: addr}
	ws := &url.URL{Scheme: "ws", Host: addr}
	withPort(wss)
	withPort(ws)
	return []string{wss.String(), ws.String()}, nil
}

func withPort(u *url.URL) {
	if u.Port() != "" {
		return
	}
	host := u.Hostname()
	u.Host = fmt.Sprintf("%s:%d", host, DefaultPort)
}
