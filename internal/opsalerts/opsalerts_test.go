package opsalerts

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingSink struct {
	mu    sync.Mutex
	calls []string
}

func (s *recordingSink) Notify(ruleName, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, ruleName)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func TestEngineFiresOnRisingEdgeOnly(t *testing.T) {
	val := 0.0
	var mu sync.Mutex
	source := func() map[string]float64 {
		mu.Lock()
		defer mu.Unlock()
		return map[string]float64{"live_workers": val}
	}

	sink := &recordingSink{}
	engine := NewEngine(source, sink)
	rule, err := NewRule("low-workers", "live_workers < 1")
	if err != nil {
		t.Fatalf("compile rule: %v", err)
	}
	engine.AddRule(rule)

	engine.evalOnce()
	if sink.count() != 1 {
		t.Fatalf("expected 1 notification after first breach, got %d", sink.count())
	}

	engine.evalOnce()
	if sink.count() != 1 {
		t.Fatalf("expected no repeat notification while still breached, got %d", sink.count())
	}

	mu.Lock()
	val = 5
	mu.Unlock()
	engine.evalOnce()
	if sink.count() != 1 {
		t.Fatalf("expected no notification once recovered, got %d", sink.count())
	}

	mu.Lock()
	val = 0
	mu.Unlock()
	engine.evalOnce()
	if sink.count() != 2 {
		t.Fatalf("expected a second notification on re-breach, got %d", sink.count())
	}
}

func TestEngineRunStopsOnContextCancel(t *testing.T) {
	sink := &recordingSink{}
	engine := NewEngine(func() map[string]float64 { return nil }, sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		engine.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
