// internal/consumer/registry.go
// Static dispatch table for per-Kind handlers: application code registers
// one receive handler and any number of named group-message handlers per
// consumer Kind at init() time, in a Register/ByKind pattern (duplicate
// registration panics to surface a programmer error at startup rather than
// at first message).
package consumer

import (
	"context"
	"sync"

	"github.com/groupcast/groupcast/internal/wsgrouppb"
)

// ReceiveFunc handles one inbound client-socket frame. Errors are logged,
// not fatal to the connection.
type ReceiveFunc func(ctx context.Context, c *Consumer, data []byte) error

// GroupHandlerFunc handles one GroupMessage dispatched by type name.
type GroupHandlerFunc func(ctx context.Context, c *Consumer, msg *wsgrouppb.WSMessage) error

type handlerSet struct {
	receive  ReceiveFunc
	byType   map[string]GroupHandlerFunc
}

var (
	regMu    sync.RWMutex
	registry = make(map[string]*handlerSet)
)

// RegisterKind declares a consumer Kind and its socket-frame receive
// handler. Must be called (typically from an init() func) before any
// Consumer of that kind is constructed. Duplicate registration panics.
func RegisterKind(kind string, receive ReceiveFunc) {
	regMu.Lock()
	defer regMu.Unlock()
	if _, exists := registry[kind]; exists {
		panic("consumer: duplicate kind registration " + kind)
	}
	registry[kind] = &handlerSet{receive: receive, byType: make(map[string]GroupHandlerFunc)}
}

// RegisterHandler binds fn as the handler for GroupMessages whose Type
// equals msgType, for consumers of kind. kind must already be registered via
// RegisterKind. Duplicate (kind, msgType) registration panics.
func RegisterHandler(kind, msgType string, fn GroupHandlerFunc) {
	regMu.Lock()
	defer regMu.Unlock()
	hs, ok := registry[kind]
	if !ok {
		panic("consumer: RegisterHandler for unknown kind " + kind)
	}
	if _, exists := hs.byType[msgType]; exists {
		panic("consumer: duplicate handler " + kind + "/" + msgType)
	}
	hs.byType[msgType] = fn
}

func lookupReceive(kind string) (ReceiveFunc, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	hs, ok := registry[kind]
	if !ok {
		return nil, false
	}
	return hs.receive, true
}

func lookupGroupHandler(kind, msgType string) (GroupHandlerFunc, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	hs, ok := registry[kind]
	if !ok {
		return nil, false
	}
	fn, ok := hs.byType[msgType]
	return fn, ok
}
