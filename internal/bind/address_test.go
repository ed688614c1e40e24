package bind

import "testing"

func TestParseUnix(t *testing.T) {
	a, err := Parse("unix:/tmp/rpc.socket")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if a.Kind != KindUnix || a.Path != "/tmp/rpc.socket" {
		t.Fatalf("unexpected address: %+v", a)
	}
}

func TestParseTCP(t *testing.T) {
	a, err := Parse("127.0.0.1:9000")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if a.Kind != KindTCP || a.Host != "127.0.0.1" || a.Port != 9000 {
		t.Fatalf("unexpected address: %+v", a)
	}
}

func TestParseRejectsBadPort(t *testing.T) {
	if _, err := Parse("localhost:70000"); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}

func TestParseRejectsRelativeUnixPath(t *testing.T) {
	if _, err := Parse("unix:rpc.socket"); err == nil {
		t.Fatal("expected error for relative unix path")
	}
}

func TestNamespacedUnixSplicesBeforeSuffix(t *testing.T) {
	a, _ := Parse("unix:/tmp/rpc.socket")
	got := a.Namespaced("worker_0", 0)
	if got.Path != "/tmp/rpcworker_0.socket" {
		t.Fatalf("got %q", got.Path)
	}
}

func TestNamespacedTCPShiftsPort(t *testing.T) {
	a, _ := Parse("127.0.0.1:9000")
	got := a.Namespaced("worker_1", 2)
	if got.Port != 9002 {
		t.Fatalf("got port %d", got.Port)
	}
}

func TestNamespacedInjective(t *testing.T) {
	a, _ := Parse("unix:/tmp/rpc.socket")
	seen := map[string]bool{}
	names := []string{MasterNamespace, WorkerNamespace(0), WorkerNamespace(1), WorkerNamespace(2)}
	for i, n := range names {
		addr := ForNamespace(a, n, i-1)
		if seen[addr.String()] {
			t.Fatalf("namespace %q collided with a previous namespace at %q", n, addr.String())
		}
		seen[addr.String()] = true
	}
}
