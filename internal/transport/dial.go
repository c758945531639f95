package transport

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"golang.org/x/net/proxy"
	"golang.org/x/sys/unix"
)

// DialOptions configures Dial.
type DialOptions struct {
	// ProxyURL is an optional socks5://[user:pass@]host:port endpoint.
	// An empty string dials directly.
	ProxyURL string
}

// Dial opens a TCP connection to addr, optionally through a SOCKS5 proxy,
// and tunes the socket for low-latency framed traffic (TCP_NODELAY)
// before returning.
func Dial(ctx context.Context, addr string, opts DialOptions) (net.Conn, error) {
	var conn net.Conn
	var err error

	if opts.ProxyURL == "" {
		d := &net.Dialer{}
		conn, err = d.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialViaSOCKS5(ctx, addr, opts.ProxyURL)
	}
	if err != nil {
		return nil, err
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if nerr := setNoDelay(tcpConn); nerr != nil {
			_ = conn.Close()
			return nil, nerr
		}
	}
	return conn, nil
}

func dialViaSOCKS5(ctx context.Context, addr, proxyURL string) (net.Conn, error) {
	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("transport: parse proxy url: %w", err)
	}
	if u.Scheme != "socks5" {
		return nil, fmt.Errorf("transport: unsupported proxy scheme %q", u.Scheme)
	}

	var auth *proxy.Auth
	if u.User != nil {
		pass, _ := u.User.Password()
		auth = &proxy.Auth{User: u.User.Username(), Password: pass}
	}

	dialer, err := proxy.SOCKS5("tcp", u.Host, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("transport: build socks5 dialer: %w", err)
	}
	type contextDialer interface {
		DialContext(ctx context.Context, network, addr string) (net.Conn, error)
	}
	if cd, ok := dialer.(contextDialer); ok {
		return cd.DialContext(ctx, "tcp", addr)
	}
	return dialer.Dial("tcp", addr)
}

// setNoDelay disables Nagle's algorithm via a raw socket option, mirroring
// the low-level socket tuning used elsewhere for latency-sensitive framed
// protocols, rather than relying on the higher-level (and functionally
// identical) net.TCPConn.SetNoDelay.
func setNoDelay(conn *net.TCPConn) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	ctrlErr := raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	})
	if ctrlErr != nil {
		return ctrlErr
	}
	return sockErr
}
