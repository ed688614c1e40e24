package groupbackend

import (
	"testing"

	"github.com/groupcast/groupcast/internal/wsgrouppb"
)

type fakeSub struct {
	closing bool
	stopped []string
}

func (f *fakeSub) StartListening(group string, q *Queue, onStop func()) bool {
	if f.closing {
		return false
	}
	return true
}

func (f *fakeSub) StopListening(group string) {
	f.stopped = append(f.stopped, group)
}

func TestGroupAddThenDiscardLeavesNoQueue(t *testing.T) {
	b := New(Config{})
	sub := &fakeSub{}

	if ok := b.GroupAdd("room", sub); !ok {
		t.Fatal("expected GroupAdd to succeed")
	}
	if n := b.groupSize(b.key("room")); n != 1 {
		t.Fatalf("expected 1 subscriber, got %d", n)
	}

	b.GroupDiscard("room", sub)
	if n := b.groupSize(b.key("room")); n != 0 {
		t.Fatalf("expected 0 subscribers after discard, got %d", n)
	}
	if _, ok := b.groups[b.key("room")]; ok {
		t.Fatal("expected empty group to be removed from the map")
	}
}

func TestGroupAddIdempotent(t *testing.T) {
	b := New(Config{})
	sub := &fakeSub{}

	b.GroupAdd("room", sub)
	b.GroupAdd("room", sub)

	if n := b.groupSize(b.key("room")); n != 1 {
		t.Fatalf("expected exactly one queue for (room,sub), got %d", n)
	}
}

func TestGroupAddRefusedWhenClosing(t *testing.T) {
	b := New(Config{})
	sub := &fakeSub{closing: true}

	if ok := b.GroupAdd("room", sub); ok {
		t.Fatal("expected GroupAdd to fail for a closing subscriber")
	}
	if n := b.groupSize(b.key("room")); n != 0 {
		t.Fatalf("expected no queue to remain registered, got %d", n)
	}
}

func TestGroupMessageOnEmptyGroupIsNoop(t *testing.T) {
	b := New(Config{})
	// Should not panic and should return without delivering anywhere.
	b.GroupMessage("nosuchgroup", &wsgrouppb.WSMessage{Type: "chat"})
}

func TestGroupMessageDeliversToEverySubscriber(t *testing.T) {
	b := New(Config{})
	sub1, sub2 := &fakeSub{}, &fakeSub{}
	b.GroupAdd("room", sub1)
	b.GroupAdd("room", sub2)

	b.mu.Lock()
	set := b.groups[b.key("room")]
	q1, q2 := set[sub1], set[sub2]
	b.mu.Unlock()

	b.GroupMessage("room", &wsgrouppb.WSMessage{Type: "chat", Message: []byte("hi")})

	for _, q := range []*Queue{q1, q2} {
		m, ok := q.tryGet()
		if !ok || m.Type != "chat" {
			t.Fatalf("expected chat message delivered, got %+v ok=%v", m, ok)
		}
	}
}

func TestValidateNameRejectsBadNames(t *testing.T) {
	bad := []string{"", "has space", "toolong" + string(make([]byte, 100))}
	for _, n := range bad {
		if err := ValidateName(n); err == nil {
			t.Fatalf("expected %q to be rejected", n)
		}
	}
	if err := ValidateName("room.1-2_3"); err != nil {
		t.Fatalf("expected valid name to pass: %v", err)
	}
}
