// internal/bind/address.go
// Package bind parses and namespaces the two endpoint grammars the framework
// accepts: a filesystem-path (unix socket) endpoint and a host:port endpoint.
// Namespacing derives the per-worker endpoint from the master's bind address
// deterministically, so the orchestrator, the forwarder and a restarted
// worker all agree on where worker_i lives without any coordination.
package bind

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
)

// Kind distinguishes the two supported endpoint grammars.
type Kind int

const (
	KindUnix Kind = iota
	KindTCP
)

// Address is a parsed bind endpoint. The zero value is not usable; construct
// via Parse.
type Address struct {
	Kind Kind
	Path string // set when Kind == KindUnix, e.g. "/tmp/rpc.socket"
	Host string // set when Kind == KindTCP
	Port int    // set when Kind == KindTCP
}

var unixSuffix = regexp.MustCompile(`\.(sock|socket)$`)

// Parse accepts the CLI grammar:
//
//	unix:/absolute/path/<name>.(sock|socket)
//	HOST:PORT
//
// and returns the parsed Address or a descriptive error.
func Parse(raw string) (Address, error) {
	if raw == "" {
		return Address{}, fmt.Errorf("bind: empty address")
	}

	if rest, ok := strings.CutPrefix(raw, "unix:"); ok {
		if !strings.HasPrefix(rest, "/") {
			return Address{}, fmt.Errorf("bind: unix path must be absolute: %q", rest)
		}
		if !unixSuffix.MatchString(rest) {
			return Address{}, fmt.Errorf("bind: unix path must end in .sock or .socket: %q", rest)
		}
		return Address{Kind: KindUnix, Path: rest}, nil
	}

	host, portStr, err := net.SplitHostPort(raw)
	if err != nil {
		return Address{}, fmt.Errorf("bind: invalid host:port %q: %w", raw, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return Address{}, fmt.Errorf("bind: invalid port in %q", raw)
	}
	return Address{Kind: KindTCP, Host: host, Port: port}, nil
}

// Network returns the net.Listen network name ("unix" or "tcp").
func (a Address) Network() string {
	if a.Kind == KindUnix {
		return "unix"
	}
	return "tcp"
}

// String renders the address back to its listen-able form.
func (a Address) String() string {
	if a.Kind == KindUnix {
		return a.Path
	}
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// Namespaced derives the address worker namespace ns (e.g. "worker_0") should
// bind. For unix paths, ns is spliced before the trailing .sock/.socket
// suffix (or appended if no such suffix matched, which Parse already
// forbids, so this branch is defensive only). For host:port, the port is
// shifted by the caller-supplied offset (conventionally index+1); Namespaced
// itself takes the already-computed offset so callers control the mapping
// from ns to offset.
//
// Namespacing is injective: distinct ns values ("worker_0" vs "worker_1")
// always produce distinct addresses, since the splice point for unix sockets
// is the literal ns string and the port shift for TCP is a literal integer
// offset.
func (a Address) Namespaced(ns string, portOffset int) Address {
	switch a.Kind {
	case KindUnix:
		loc := unixSuffix.FindStringIndex(a.Path)
		if loc == nil {
			return Address{Kind: KindUnix, Path: a.Path + ns}
		}
		return Address{Kind: KindUnix, Path: a.Path[:loc[0]] + ns + a.Path[loc[0]:]}
	default:
		return Address{Kind: KindTCP, Host: a.Host, Port: a.Port + portOffset}
	}
}
