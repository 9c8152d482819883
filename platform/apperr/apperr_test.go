package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{NotFound("x"), http.StatusNotFound},
		{Validation("x"), http.StatusBadRequest},
		{Conflict("x"), http.StatusConflict},
		{Unauthorized("x"), http.StatusUnauthorized},
		{Forbidden("x"), http.StatusForbidden},
		{Internal("x"), http.StatusInternalServerError},
		{Unavailable("x"), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		if got := tc.err.HTTPStatus(); got != tc.want {
			t.Fatalf("expected %d for kind %d, got %d", tc.want, tc.err.Kind, got)
		}
	}
}

func TestGetKindFollowsWrapChain(t *testing.T) {
	base := Conflict("stale version").WithOp("catalog.DebitStock")
	wrapped := fmt.Errorf("commit: %w", base)

	if !Is(wrapped, KindConflict) {
		t.Fatalf("expected conflict kind through wrap chain")
	}
	if GetKind(errors.New("plain")) != KindUnknown {
		t.Fatalf("expected unknown kind for plain error")
	}
	if base.Error() != "catalog.DebitStock: stale version" {
		t.Fatalf("unexpected message %q", base.Error())
	}
}
