package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newTestFlow returns a Flow pointed at serverURL whose wait function records
// each requested pause instead of sleeping, so poll timing is observable and
// tests run instantly.
func newTestFlow(serverURL string) (*Flow, *[]time.Duration) {
	f := NewFlow("test_client_id", serverURL, serverURL)
	waits := &[]time.Duration{}
	f.wait = func(ctx context.Context, d time.Duration) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		*waits = append(*waits, d)
		return nil
	}
	return f, waits
}

func jsonHandler(t *testing.T, respond func(call int) map[string]string) (http.HandlerFunc, *int) {
	t.Helper()
	calls := new(int)
	return func(w http.ResponseWriter, r *http.Request) {
		*calls++
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != deviceGrantType {
			t.Errorf("grant_type: want %q, got %q", deviceGrantType, got)
		}
		if got := r.PostForm.Get("device_code"); got != "dev_abc" {
			t.Errorf("device_code: want 'dev_abc', got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(respond(*calls))
	}, calls
}

func TestPollToken_AlwaysPending_StopsAtAttemptBudget(t *testing.T) {
	handler, calls := jsonHandler(t, func(int) map[string]string {
		return map[string]string{"error": "authorization_pending"}
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	flow, waits := newTestFlow(server.URL)
	session := DeviceSession{DeviceCode: "dev_abc", UserCode: "ABCD-1234", VerificationURI: "https://github.com/login/device", ExpiresIn: 20, Interval: 5}

	outcome, err := flow.PollToken(context.Background(), session)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != StatusExpired {
		t.Errorf("status: want expired, got %s", outcome.Status)
	}
	// floor(20/5) = 4 polls, never more
	if *calls != 4 {
		t.Errorf("expected exactly 4 polls, got %d", *calls)
	}
	for i, d := range *waits {
		if d != 5*time.Second {
			t.Errorf("wait %d: want 5s, got %s", i, d)
		}
	}
}

func TestPollToken_PendingThenToken_ReturnsAuthorized(t *testing.T) {
	handler, calls := jsonHandler(t, func(call int) map[string]string {
		if call <= 2 {
			return map[string]string{"error": "authorization_pending"}
		}
		return map[string]string{"access_token": "abc123", "token_type": "bearer", "scope": "repo"}
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	flow, _ := newTestFlow(server.URL)
	session := DeviceSession{DeviceCode: "dev_abc", UserCode: "ABCD-1234", VerificationURI: "x", ExpiresIn: 900, Interval: 5}

	outcome, err := flow.PollToken(context.Background(), session)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != StatusAuthorized {
		t.Fatalf("status: want authorized, got %s", outcome.Status)
	}
	if outcome.Token != "abc123" {
		t.Errorf("token: want 'abc123' verbatim, got %q", outcome.Token)
	}
	if *calls != 3 {
		t.Errorf("expected exactly 3 polls, got %d", *calls)
	}
}

func TestPollToken_SlowDown_StretchesIntervalButNotDeadline(t *testing.T) {
	handler, calls := jsonHandler(t, func(call int) map[string]string {
		if call == 1 {
			return map[string]string{"error": "slow_down"}
		}
		return map[string]string{"error": "authorization_pending"}
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	flow, waits := newTestFlow(server.URL)
	session := DeviceSession{DeviceCode: "dev_abc", UserCode: "ABCD-1234", VerificationURI: "x", ExpiresIn: 20, Interval: 5}

	outcome, err := flow.PollToken(context.Background(), session)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != StatusExpired {
		t.Errorf("status: want expired, got %s", outcome.Status)
	}
	// The attempt budget stays floor(20/5)=4 even though the waits grew.
	if *calls != 4 {
		t.Errorf("expected exactly 4 polls, got %d", *calls)
	}
	want := []time.Duration{5 * time.Second, 10 * time.Second, 10 * time.Second, 10 * time.Second}
	if len(*waits) != len(want) {
		t.Fatalf("expected %d waits, got %d", len(want), len(*waits))
	}
	for i, d := range want {
		if (*waits)[i] != d {
			t.Errorf("wait %d: want %s, got %s", i, d, (*waits)[i])
		}
	}
}

func TestPollToken_RepeatedSlowDown_AccumulatesWithoutBound(t *testing.T) {
	handler, _ := jsonHandler(t, func(int) map[string]string {
		return map[string]string{"error": "slow_down"}
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	flow, waits := newTestFlow(server.URL)
	session := DeviceSession{DeviceCode: "dev_abc", UserCode: "ABCD-1234", VerificationURI: "x", ExpiresIn: 20, Interval: 5}

	if _, err := flow.PollToken(context.Background(), session); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []time.Duration{5 * time.Second, 10 * time.Second, 15 * time.Second, 20 * time.Second}
	if len(*waits) != len(want) {
		t.Fatalf("expected %d waits, got %d", len(want), len(*waits))
	}
	for i, d := range want {
		if (*waits)[i] != d {
			t.Errorf("wait %d: want %s, got %s", i, d, (*waits)[i])
		}
	}
}

func TestPollToken_AccessDenied_TerminatesImmediately(t *testing.T) {
	handler, calls := jsonHandler(t, func(int) map[string]string {
		return map[string]string{"error": "access_denied"}
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	flow, _ := newTestFlow(server.URL)
	session := DeviceSession{DeviceCode: "dev_abc", UserCode: "ABCD-1234", VerificationURI: "x", ExpiresIn: 900, Interval: 5}

	outcome, err := flow.PollToken(context.Background(), session)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != StatusDenied {
		t.Errorf("status: want denied, got %s", outcome.Status)
	}
	if *calls != 1 {
		t.Errorf("expected no polls after access_denied, got %d total", *calls)
	}
}

func TestPollToken_ExpiredToken_TerminatesImmediately(t *testing.T) {
	handler, calls := jsonHandler(t, func(int) map[string]string {
		return map[string]string{"error": "expired_token"}
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	flow, _ := newTestFlow(server.URL)
	session := DeviceSession{DeviceCode: "dev_abc", UserCode: "ABCD-1234", VerificationURI: "x", ExpiresIn: 900, Interval: 5}

	outcome, err := flow.PollToken(context.Background(), session)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != StatusExpired {
		t.Errorf("status: want expired, got %s", outcome.Status)
	}
	if *calls != 1 {
		t.Errorf("expected no polls after expired_token, got %d total", *calls)
	}
}

func TestPollToken_UnknownErrorCode_IsProtocolError(t *testing.T) {
	handler, _ := jsonHandler(t, func(int) map[string]string {
		return map[string]string{"error": "unsupported_grant_type", "error_description": "grant not enabled"}
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	flow, _ := newTestFlow(server.URL)
	session := DeviceSession{DeviceCode: "dev_abc", UserCode: "ABCD-1234", VerificationURI: "x", ExpiresIn: 900, Interval: 5}

	outcome, err := flow.PollToken(context.Background(), session)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != StatusProtocolError {
		t.Fatalf("status: want protocol error, got %s", outcome.Status)
	}
	if outcome.Err.Code != "unsupported_grant_type" {
		t.Errorf("code: want 'unsupported_grant_type', got %q", outcome.Err.Code)
	}
	if outcome.Err.Description != "grant not enabled" {
		t.Errorf("description: want 'grant not enabled', got %q", outcome.Err.Description)
	}
}

func TestPollToken_BodyMatchingNeitherShape_IsProtocolError(t *testing.T) {
	handler, calls := jsonHandler(t, func(int) map[string]string {
		return map[string]string{"token_type": "bearer"}
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	flow, _ := newTestFlow(server.URL)
	session := DeviceSession{DeviceCode: "dev_abc", UserCode: "ABCD-1234", VerificationURI: "x", ExpiresIn: 900, Interval: 5}

	outcome, err := flow.PollToken(context.Background(), session)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != StatusProtocolError {
		t.Errorf("status: want protocol error, got %s", outcome.Status)
	}
	if *calls != 1 {
		t.Errorf("ambiguous body must not be retried, got %d polls", *calls)
	}
}

func TestPollToken_TokenWinsOverErrorInSameBody(t *testing.T) {
	handler, _ := jsonHandler(t, func(int) map[string]string {
		return map[string]string{"access_token": "gho_both", "error": "authorization_pending"}
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	flow, _ := newTestFlow(server.URL)
	session := DeviceSession{DeviceCode: "dev_abc", UserCode: "ABCD-1234", VerificationURI: "x", ExpiresIn: 900, Interval: 5}

	outcome, err := flow.PollToken(context.Background(), session)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != StatusAuthorized || outcome.Token != "gho_both" {
		t.Errorf("success shape must win, got %s token %q", outcome.Status, outcome.Token)
	}
}

func TestPollToken_InvalidSession_RejectedBeforePolling(t *testing.T) {
	handler, calls := jsonHandler(t, func(int) map[string]string {
		return map[string]string{"error": "authorization_pending"}
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	flow, _ := newTestFlow(server.URL)
	for _, session := range []DeviceSession{
		{DeviceCode: "dev_abc", ExpiresIn: 0, Interval: 5},
		{DeviceCode: "dev_abc", ExpiresIn: 900, Interval: 0},
		{DeviceCode: "dev_abc", ExpiresIn: -1, Interval: -1},
	} {
		outcome, err := flow.PollToken(context.Background(), session)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Status != StatusProtocolError {
			t.Errorf("session %+v: want protocol error, got %s", session, outcome.Status)
		}
	}
	if *calls != 0 {
		t.Errorf("invalid sessions must not reach the network, got %d polls", *calls)
	}
}

func TestPollToken_MissingClientID_IsConfigurationError(t *testing.T) {
	flow := NewFlow("", "http://unused.invalid", "")
	session := DeviceSession{DeviceCode: "dev_abc", ExpiresIn: 900, Interval: 5}
	_, err := flow.PollToken(context.Background(), session)
	if !errors.Is(err, ErrMissingClientID) {
		t.Fatalf("want ErrMissingClientID, got %v", err)
	}
}

func TestPollToken_CancelledContext_ReturnsNoToken(t *testing.T) {
	handler, _ := jsonHandler(t, func(int) map[string]string {
		return map[string]string{"error": "authorization_pending"}
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	flow, _ := newTestFlow(server.URL)
	session := DeviceSession{DeviceCode: "dev_abc", UserCode: "ABCD-1234", VerificationURI: "x", ExpiresIn: 900, Interval: 5}

	outcome, err := flow.PollToken(ctx, session)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if outcome.Token != "" {
		t.Errorf("cancelled attempt must not expose a token, got %q", outcome.Token)
	}
}
