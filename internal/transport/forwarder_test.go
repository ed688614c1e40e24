package transport

import (
	"context"
	"testing"
)

type staticLister struct{ ns []string }

func (s staticLister) Snapshot() []string { return s.ns }

func TestFanOutWithNoWorkersIsNoReachableWorkers(t *testing.T) {
	f := newForwarder(Config{Address: "unix:/tmp/groupcast-test.socket"}, staticLister{})
	if err := f.fanOut(context.Background(), "room", nil); err != errNoReachableWorkers {
		t.Fatalf("expected errNoReachableWorkers on empty worker list, got %v", err)
	}
}

func TestFanOutAgainstUnreachableWorkersDoesNotPanic(t *testing.T) {
	// grpc.NewClient dials lazily, so stubFor succeeds even though nothing
	// listens on these derived sockets; the actual SendMessage RPC is what
	// fails, and fanOut must still return without panicking, having marked
	// every stub unhealthy for the next attempt.
	f := newForwarder(Config{Address: "unix:/tmp/groupcast-test-unreachable.socket"}, staticLister{ns: []string{"worker_0", "worker_1"}})
	_ = f.fanOut(context.Background(), "room", nil)
}

func TestWorkerIndexOfParsesSuffix(t *testing.T) {
	cases := map[string]int{
		"worker_0":  0,
		"worker_7":  7,
		"master":    0,
		"bogus_abc": 0,
	}
	for ns, want := range cases {
		if got := workerIndexOf(ns); got != want {
			t.Errorf("workerIndexOf(%q) = %d, want %d", ns, got, want)
		}
	}
}
