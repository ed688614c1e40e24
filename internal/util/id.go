// internal/util/id.go
// ID generation for anything that needs a sortable, URL-safe identifier:
// auto-assigned consumer IDs (internal/consumer.New) and forwarder fan-out
// correlation IDs (internal/transport.forwarder.fanOut), both of which
// benefit from IDs that sort chronologically when they show up in logs.
package util

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	mrand "math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// entropy is a process-global monotonic source so a burst of same-millisecond
// IDs still sort in generation order instead of colliding or reordering.
var entropy *ulid.MonotonicEntropy

func init() {
	var seed int64
	_ = binaryReadInto(rand.Reader, &seed)
	entropy = ulid.Monotonic(mrand.New(mrand.NewSource(seed)), 0)
}

// New returns a new ULID string (26-char Crockford base32), or an error if
// the entropy source is exhausted.
func New() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// MustNew is New without the error return, for call sites where entropy
// exhaustion would be a fatal condition anyway.
func MustNew() string {
	s, err := New()
	if err != nil {
		panic(err)
	}
	return s
}

func binaryReadInto(r io.Reader, v any) error {
	return binary.Read(r, binary.BigEndian, v)
}
