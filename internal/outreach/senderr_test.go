package outreach

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want SendErrorKind
	}{
		{"typed permanent", NewSendError(KindPermanent, "creator not found", nil), KindPermanent},
		{"typed unauthenticated", NewSendError(KindUnauthenticated, "session expired", nil), KindUnauthenticated},
		{"wrapped", fmt.Errorf("send: %w", NewSendError(KindUnauthenticated, "session expired", nil)), KindUnauthenticated},
		{"untyped", errors.New("boom"), KindTransient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Fatalf("KindOf = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSendErrorMessage(t *testing.T) {
	inner := errors.New("connection reset")
	err := NewSendError(KindTransient, "portal unreachable", inner)
	if err.Error() != "portal unreachable: connection reset" {
		t.Fatalf("Error() = %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Fatal("wrapped error lost")
	}
}
