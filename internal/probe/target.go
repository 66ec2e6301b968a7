package probe

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Target is one probeable resource. Implementations must be safe for
// repeated calls; a nil error from Probe means the resource accepted a
// connection.
type Target interface {
	// Probe makes one connection attempt bounded by timeout.
	Probe(timeout time.Duration) error
	// Describe returns a human-readable description of the target.
	Describe() string
}

// UnixSocket probes a local socket special file. Readiness requires the
// file to exist and a connect to succeed; a present-but-dead socket left
// by an unclean shutdown is therefore not ready.
type UnixSocket struct{ Path string }

func (t UnixSocket) Probe(timeout time.Duration) error {
	if _, err := os.Stat(t.Path); err != nil {
		return err
	}
	conn, err := net.DialTimeout("unix", t.Path, timeout)
	if err != nil {
		return err
	}
	return conn.Close()
}

func (t UnixSocket) Describe() string { return "unix:" + t.Path }

// TCPPort probes a host:port listener.
type TCPPort struct{ Addr string }

func (t TCPPort) Probe(timeout time.Duration) error {
	conn, err := net.DialTimeout("tcp", t.Addr, timeout)
	if err != nil {
		return err
	}
	return conn.Close()
}

func (t TCPPort) Describe() string { return "tcp:" + t.Addr }

// HTTPEndpoint probes a URL; any 2xx response is ready.
type HTTPEndpoint struct{ URL string }

func (t HTTPEndpoint) Probe(timeout time.Duration) error {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(t.URL)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, t.URL)
	}
	return nil
}

func (t HTTPEndpoint) Describe() string { return "http:" + t.URL }

// Parse builds a Target from a descriptor string:
//
//	unix:///tmp/.X11-unix/X99
//	tcp://127.0.0.1:5900  (or bare "host:port")
//	http://127.0.0.1:8000/health (https likewise)
func Parse(s string) (Target, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty probe target")
	}
	switch {
	case strings.HasPrefix(s, "unix://"):
		p := strings.TrimPrefix(s, "unix://")
		if p == "" {
			return nil, fmt.Errorf("unix target missing path: %q", s)
		}
		return UnixSocket{Path: p}, nil
	case strings.HasPrefix(s, "tcp://"):
		addr := strings.TrimPrefix(s, "tcp://")
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return nil, fmt.Errorf("tcp target %q: %w", s, err)
		}
		return TCPPort{Addr: addr}, nil
	case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"):
		if _, err := url.Parse(s); err != nil {
			return nil, fmt.Errorf("http target %q: %w", s, err)
		}
		return HTTPEndpoint{URL: s}, nil
	}
	// Bare host:port is treated as TCP.
	if _, _, err := net.SplitHostPort(s); err == nil {
		return TCPPort{Addr: s}, nil
	}
	return nil, fmt.Errorf("unrecognized probe target %q", s)
}
