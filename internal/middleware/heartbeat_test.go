package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type recordingToucher struct {
	tokens []string
}

func (r *recordingToucher) Touch(token string) {
	r.tokens = append(r.tokens, token)
}

func TestHeartbeatTouchesToken(t *testing.T) {
	toucher := &recordingToucher{}
	var seen string
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = SessionTokenFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	req.Header.Set(HeaderSessionToken, "tok-123")
	Heartbeat(toucher)(next).ServeHTTP(httptest.NewRecorder(), req)

	if len(toucher.tokens) != 1 || toucher.tokens[0] != "tok-123" {
		t.Fatalf("expected one touch for tok-123, got %v", toucher.tokens)
	}
	if seen != "tok-123" {
		t.Fatalf("expected the token in the request context, got %q", seen)
	}
}

func TestHeartbeatMissingTokenIsNoOp(t *testing.T) {
	toucher := &recordingToucher{}
	rec := httptest.NewRecorder()
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	Heartbeat(toucher)(next).ServeHTTP(rec, req)

	if len(toucher.tokens) != 0 {
		t.Fatalf("expected no touch, got %v", toucher.tokens)
	}
	if rec.Code != http.StatusTeapot {
		t.Fatalf("middleware must not alter the response, got %d", rec.Code)
	}
}
