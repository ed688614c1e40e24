package consumer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/groupcast/groupcast/internal/groupbackend"
	"github.com/groupcast/groupcast/internal/transport"
)

type fakeSocket struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (f *fakeSocket) ReadTimeout(d time.Duration) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		if f.closed {
			return nil, false, ErrConnectionClosed
		}
		return nil, false, nil
	}
	m := f.frames[0]
	f.frames = f.frames[1:]
	return m, true, nil
}

func (f *fakeSocket) WriteMessage(data []byte) error { return nil }

func (f *fakeSocket) Close(code int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSocket) closeAfter(d time.Duration) {
	time.Sleep(d)
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func TestMain(m *testing.M) {
	RegisterKind("test-echo", func(ctx context.Context, c *Consumer, data []byte) error {
		return nil
	})
	m.Run()
}

func TestConsumerRunReturnsOnSocketClose(t *testing.T) {
	backend := groupbackend.New(groupbackend.Config{})
	layer := transport.NewServer(transport.Config{}, backend)

	sock := &fakeSocket{}
	go sock.closeAfter(150 * time.Millisecond)

	c := New("c1", "test-echo", Scope{}, sock, layer)

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean return, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not exit after socket close")
	}

	if c.state != StateDone {
		t.Fatalf("expected state DONE, got %v", c.state)
	}
}

func TestConsumerRunRejectsUnregisteredKind(t *testing.T) {
	backend := groupbackend.New(groupbackend.Config{})
	layer := transport.NewServer(transport.Config{}, backend)
	sock := &fakeSocket{closed: true}

	c := New("c2", "no-such-kind", Scope{}, sock, layer)
	if err := c.Run(context.Background()); err == nil {
		t.Fatal("expected error for unregistered kind")
	}
}

func TestNewAssignsIDWhenEmpty(t *testing.T) {
	backend := groupbackend.New(groupbackend.Config{})
	layer := transport.NewServer(transport.Config{}, backend)
	sock := &fakeSocket{closed: true}

	c := New("", "test-echo", Scope{}, sock, layer)
	if c.ID == "" {
		t.Fatal("expected New to assign a non-empty ID when called with \"\"")
	}

	other := New("", "test-echo", Scope{}, sock, layer)
	if other.ID == c.ID {
		t.Fatalf("expected distinct auto-assigned IDs, got %q twice", c.ID)
	}
}

func TestSubscribeThenCloseUnwindsGroup(t *testing.T) {
	backend := groupbackend.New(groupbackend.Config{})
	layer := transport.NewServer(transport.Config{}, backend)
	sock := &fakeSocket{closed: true}

	c := New("c3", "test-echo", Scope{}, sock, layer)
	ok, err := c.Subscribe("room")
	if err != nil || !ok {
		t.Fatalf("expected subscribe to succeed, got ok=%v err=%v", ok, err)
	}

	c.Close()

	c.mu.Lock()
	remaining := len(c.groups)
	c.mu.Unlock()
	if remaining != 0 {
		t.Fatalf("expected no subscriptions to remain after Close, got %d", remaining)
	}
}
