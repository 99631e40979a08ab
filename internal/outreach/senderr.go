package outreach

import "errors"

// SendErrorKind classifies why a send failed so callers can decide on
// retryability without matching error strings.
type SendErrorKind int

const (
	// KindTransient covers network blips and temporary blocks. Retryable in
	// principle, but only via an explicit requeue.
	KindTransient SendErrorKind = iota
	// KindPermanent covers data errors like a missing creator.
	KindPermanent
	// KindUnauthenticated means the portal session is gone and a re-login is
	// needed before any further sends can work.
	KindUnauthenticated
)

func (k SendErrorKind) String() string {
	switch k {
	case KindPermanent:
		return "permanent"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "transient"
	}
}

type SendError struct {
	Kind SendErrorKind
	Msg  string
	Err  error
}

func (e *SendError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *SendError) Unwrap() error { return e.Err }

func NewSendError(kind SendErrorKind, msg string, err error) *SendError {
	return &SendError{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind from err, defaulting to transient for errors that
// did not come through the sender boundary typed.
func KindOf(err error) SendErrorKind {
	var se *SendError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindTransient
}
