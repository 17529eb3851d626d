package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

const codeBadInput Code = "TEST_BAD_INPUT"

func init() {
	Register(codeBadInput, Attributes{Message: "bad input", Severity: SeverityInfo, HTTPStatus: http.StatusBadRequest})
}

func TestRegisterAndLookup(t *testing.T) {
	const code Code = "TEST_REGISTERED"
	Register(code, Attributes{
		Message:    "registered",
		Severity:   SeverityWarning,
		HTTPStatus: http.StatusBadRequest,
	})

	err := New(code, "")
	if err.Message() != "registered" {
		t.Fatalf("expected default message, got %q", err.Message())
	}
	if err.HTTPStatus() != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", err.HTTPStatus())
	}
	if err.Severity() != SeverityWarning {
		t.Fatalf("unexpected severity %s", err.Severity())
	}
}

func TestUnknownCodeFallsBack(t *testing.T) {
	err := New("NEVER_REGISTERED", "boom")
	if err.HTTPStatus() != http.StatusInternalServerError {
		t.Fatalf("expected 500 for unregistered code, got %d", err.HTTPStatus())
	}
	if !err.ShouldAlert() {
		t.Fatalf("unregistered code should inherit alert flag of UNKNOWN")
	}
}

func TestWrapKeepsCauseAndCode(t *testing.T) {
	cause := stdErrors.New("dial tcp: refused")
	wrapped := fmt.Errorf("outer: %w", Wrap(CodeInitializationFailure, cause, "relay call"))

	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("cause should be reachable through errors.Is")
	}
	if CodeOf(wrapped) != CodeInitializationFailure {
		t.Fatalf("unexpected code %s", CodeOf(wrapped))
	}
	if !stdErrors.Is(wrapped, New(CodeInitializationFailure, "other message")) {
		t.Fatalf("errors with the same code should match")
	}
	e, ok := From(wrapped)
	if !ok || e.Message() != "relay call" {
		t.Fatalf("unexpected unwrap result: %v %v", e, ok)
	}
}

func TestPlainErrorsMapToInternal(t *testing.T) {
	err := stdErrors.New("plain")
	if CodeOf(err) != CodeUnknown {
		t.Fatalf("expected UNKNOWN code")
	}
	if HTTPStatusOf(err) != http.StatusInternalServerError {
		t.Fatalf("expected 500")
	}
	if HTTPStatusOf(New(codeBadInput, "bad")) != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid argument")
	}
}

func TestMetadataIsCopied(t *testing.T) {
	err := New(codeBadInput, "bad", WithMetadata("field", "amount"))
	meta := err.Metadata()
	meta["field"] = "mutated"
	if err.Metadata()["field"] != "amount" {
		t.Fatalf("metadata should be returned as a copy")
	}
	if New(codeBadInput, "bad").Metadata() != nil {
		t.Fatalf("expected nil metadata when none attached")
	}
}

func TestAlertFollowsRegistry(t *testing.T) {
	if New(codeBadInput, "bad").ShouldAlert() {
		t.Fatalf("bad input should not alert")
	}
	e := New(CodeInitializationFailure, "")
	if !e.ShouldAlert() || !e.Retryable() || e.HTTPStatus() != http.StatusServiceUnavailable {
		t.Fatalf("unexpected attributes for initialization failure: alert=%v retryable=%v status=%d", e.ShouldAlert(), e.Retryable(), e.HTTPStatus())
	}
	var nilErr *Error
	if nilErr.ShouldAlert() || nilErr.Severity() != SeverityInfo {
		t.Fatalf("nil error should not alert")
	}
}
