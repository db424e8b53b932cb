package zwdriver

import (
	"errors"

	"github.com/OpenZWave/open-zwave-sub002/zwtxn"
)

// ErrorKind classifies a fault for the embedder per §7: not a type
// hierarchy, just enough structure to attach to a NotificationGeneric event
// so network health is observable without inspecting error strings.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTransportError
	KindFrameError
	KindProtocolError
	KindAckTimeout
	KindReplyTimeout
	KindCallbackTimeout
	KindNodeUnreachable
	KindSecurityFailure
	KindInvalidValue
	KindConfigError
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransportError:
		return "TransportError"
	case KindFrameError:
		return "FrameError"
	case KindProtocolError:
		return "ProtocolError"
	case KindAckTimeout:
		return "AckTimeout"
	case KindReplyTimeout:
		return "ReplyTimeout"
	case KindCallbackTimeout:
		return "CallbackTimeout"
	case KindNodeUnreachable:
		return "NodeUnreachable"
	case KindSecurityFailure:
		return "SecurityFailure"
	case KindInvalidValue:
		return "InvalidValue"
	case KindConfigError:
		return "ConfigError"
	default:
		return "Unknown"
	}
}

// ClassifiedError pairs an ErrorKind with the underlying error, the value
// zwdriver attaches to NotificationGeneric's Err field so a watcher can
// switch on Kind without string-matching.
type ClassifiedError struct {
	Kind ErrorKind
	Err  error
}

func (e *ClassifiedError) Error() string { return e.Kind.String() + ": " + e.Err.Error() }
func (e *ClassifiedError) Unwrap() error { return e.Err }

// classify maps a transaction engine failure onto one of §7's kinds. zwtxn
// doesn't currently report which wait stage (ack/response/callback) was
// outstanding when a single attempt failed, so ErrTimeout - one attempt's
// timeout, still inside the retry budget - is classified ReplyTimeout, the
// most common wait stage in practice; ErrRetries - the budget itself
// exhausted, §4.4's "mark node failed" case - is classified
// NodeUnreachable. ErrNak/ErrCan are transient framing-layer retries, not
// failures the embedder needs surfaced on their own.
func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, zwtxn.ErrRetries):
		return KindNodeUnreachable
	case errors.Is(err, zwtxn.ErrTimeout):
		return KindReplyTimeout
	case errors.Is(err, zwtxn.ErrCancelled), errors.Is(err, errCancelled):
		return KindProtocolError
	default:
		return KindNodeUnreachable
	}
}
