// internal/consumer/errors.go
// Sentinel errors the consumer runtime's state machine reacts to.
// StopConsumer ends the connection from inside handler code without an
// unhandled-error log; ErrConnectionClosed marks a clean socket close;
// HandlerError reports a consumer whose Kind has no registered handlers.
package consumer

import "errors"

// StopConsumer, returned by a receive or group handler, moves the consumer
// to CLOSING; Run then tears it down, which closes the socket with code 1000.
var StopConsumer = errors.New("consumer: stop")

// ErrConnectionClosed marks a socket read that ended because the peer (or
// the transport) closed the connection, as opposed to a handler error.
var ErrConnectionClosed = errors.New("consumer: connection closed")

// HandlerError is what Run returns when the consumer's Kind has no
// registered receive handler. Errors returned by the handlers themselves
// are not wrapped in it: socketPump/groupPump log them and keep the
// connection open (StopConsumer excepted).
type HandlerError struct {
	Handler string
	Err     error
}

func (e *HandlerError) Error() string {
	return "consumer: handler " + e.Handler + ": " + e.Err.Error()
}

func (e *HandlerError) Unwrap() error { return e.Err }
