package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// defaultClientID is the OAuth App client ID registered at
// https://github.com/settings/developers. It is non-confidential (the device
// flow needs no secret) so it is safe to distribute with the binary. Users
// can override it via github.client_id in the config file.
const defaultClientID = "3f1c8e2ab94d0f7f21c6"

const (
	defaultBaseURL    = "https://github.com"
	defaultAPIBaseURL = "https://api.github.com"

	deviceCodePath = "/login/device/code"
	tokenPath      = "/login/oauth/access_token"
	userPath       = "/user"

	deviceGrantType = "urn:ietf:params:oauth:grant-type:device_code"

	// GitHub asks clients to add 5 seconds to the interval on slow_down.
	// The increase is cumulative and uncapped, matching the documented
	// server behavior.
	slowDownIncrement = 5 * time.Second
)

// deviceScopes is what repogen requests: repo creation needs "repo".
const deviceScopes = "repo"

// Flow implements the OAuth 2.0 Device Authorization Flow for GitHub.
// See https://docs.github.com/en/apps/oauth-apps/building-oauth-apps/authorizing-oauth-apps#device-flow
type Flow struct {
	clientID   string
	baseURL    string
	apiBaseURL string
	client     *http.Client

	// wait pauses between polls; tests replace it to run without sleeping.
	wait func(ctx context.Context, d time.Duration) error
}

// NewFlow creates a Flow for the given OAuth client ID.
// Pass empty URLs to use the real GitHub endpoints. Pass test server URLs in
// tests: baseURL serves the device code and token endpoints, apiBaseURL the
// /user identity endpoint.
func NewFlow(clientID string, baseURL string, apiBaseURL string) *Flow {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
	}
	return &Flow{
		clientID:   clientID,
		baseURL:    baseURL,
		apiBaseURL: apiBaseURL,
		client:     &http.Client{Timeout: 15 * time.Second},
		wait:       waitContext,
	}
}

// NewDefaultFlow creates a Flow using the embedded client ID.
func NewDefaultFlow(clientID string) *Flow {
	if clientID == "" {
		clientID = defaultClientID
	}
	return NewFlow(clientID, "", "")
}

// RequestCode requests a device code and user code from GitHub.
// The returned DeviceSession.UserCode must be shown to the user along with
// VerificationURI. A failed request is surfaced immediately; retrying is the
// caller's decision.
func (f *Flow) RequestCode(ctx context.Context) (DeviceSession, error) {
	if f.clientID == "" {
		return DeviceSession{}, ErrMissingClientID
	}

	data := url.Values{}
	data.Set("client_id", f.clientID)
	data.Set("scope", deviceScopes)

	endpoint, err := url.JoinPath(f.baseURL, deviceCodePath)
	if err != nil {
		return DeviceSession{}, fmt.Errorf("building URL: %w", err)
	}

	resp, err := f.postForm(ctx, endpoint, data)
	if err != nil {
		return DeviceSession{}, &ProtocolError{Description: "requesting device code", cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return DeviceSession{}, &ProtocolError{
			StatusCode:  resp.StatusCode,
			Description: "device code request failed: " + readBodySnippet(resp.Body),
		}
	}

	var raw struct {
		DeviceCode      string `json:"device_code"`
		UserCode        string `json:"user_code"`
		VerificationURI string `json:"verification_uri"`
		ExpiresIn       int    `json:"expires_in"`
		Interval        int    `json:"interval"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return DeviceSession{}, &ProtocolError{Description: "decoding device code response", cause: err}
	}

	session := DeviceSession{
		DeviceCode:      raw.DeviceCode,
		UserCode:        raw.UserCode,
		VerificationURI: raw.VerificationURI,
		ExpiresIn:       raw.ExpiresIn,
		Interval:        raw.Interval,
	}
	if session.DeviceCode == "" || session.UserCode == "" || session.VerificationURI == "" {
		return DeviceSession{}, &ProtocolError{Description: "device code response is missing required fields"}
	}
	if err := session.validate(); err != nil {
		return DeviceSession{}, &ProtocolError{Description: err.Error()}
	}
	return session, nil
}

// PollToken polls the GitHub token endpoint until the user authorizes the
// device, the code expires, the user denies access, or the server sends
// something the flow cannot act on. The attempt budget is fixed up front at
// expires_in/interval polls, so a stretched interval after slow_down does not
// extend the deadline.
//
// A non-nil error is returned only for cancellation via ctx; every protocol
// result, including failures, is reported through the Outcome.
func (f *Flow) PollToken(ctx context.Context, session DeviceSession) (Outcome, error) {
	if f.clientID == "" {
		return Outcome{}, ErrMissingClientID
	}
	if err := session.validate(); err != nil {
		return protocolOutcome(&ProtocolError{Description: err.Error()}), nil
	}

	endpoint, err := url.JoinPath(f.baseURL, tokenPath)
	if err != nil {
		return protocolOutcome(&ProtocolError{Description: "building URL", cause: err}), nil
	}

	maxAttempts := session.ExpiresIn / session.Interval
	interval := time.Duration(session.Interval) * time.Second

	for attempts := 0; attempts < maxAttempts; attempts++ {
		// Never poll faster than the server's advertised cadence,
		// including before the first attempt.
		if err := f.wait(ctx, interval); err != nil {
			return Outcome{}, err
		}

		data := url.Values{}
		data.Set("client_id", f.clientID)
		data.Set("device_code", session.DeviceCode)
		data.Set("grant_type", deviceGrantType)

		resp, err := f.postForm(ctx, endpoint, data)
		if err != nil {
			if ctx.Err() != nil {
				return Outcome{}, ctx.Err()
			}
			return protocolOutcome(&ProtocolError{Description: "polling token endpoint", cause: err}), nil
		}

		var raw struct {
			AccessToken      string `json:"access_token"`
			TokenType        string `json:"token_type"`
			Scope            string `json:"scope"`
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		decodeErr := json.NewDecoder(resp.Body).Decode(&raw)
		resp.Body.Close()
		if decodeErr != nil {
			return protocolOutcome(&ProtocolError{
				StatusCode:  resp.StatusCode,
				Description: "decoding token response",
				cause:       decodeErr,
			}), nil
		}

		// The success shape wins: a well-formed token is returned
		// verbatim no matter what else the body carries.
		if raw.AccessToken != "" {
			return Outcome{Status: StatusAuthorized, Token: raw.AccessToken}, nil
		}

		switch raw.Error {
		case "authorization_pending":
			// user has not finished the browser step yet
		case "slow_down":
			interval += slowDownIncrement
		case "expired_token":
			return Outcome{Status: StatusExpired}, nil
		case "access_denied":
			return Outcome{Status: StatusDenied}, nil
		case "":
			return protocolOutcome(&ProtocolError{
				StatusCode:  resp.StatusCode,
				Description: "unexpected response from token endpoint",
			}), nil
		default:
			return protocolOutcome(&ProtocolError{
				StatusCode:  resp.StatusCode,
				Code:        raw.Error,
				Description: raw.ErrorDescription,
			}), nil
		}
	}

	return Outcome{Status: StatusExpired}, nil
}

// Validate confirms the token is accepted by GitHub and returns the account
// it belongs to. It is used for tokens from both the device flow and the
// personal access token path.
func (f *Flow) Validate(ctx context.Context, token string) (Identity, error) {
	endpoint, err := url.JoinPath(f.apiBaseURL, userPath)
	if err != nil {
		return Identity{}, fmt.Errorf("building URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Identity{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := f.client.Do(req)
	if err != nil {
		return Identity{}, &ProtocolError{Description: "requesting user identity", cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Identity{}, &ProtocolError{
			StatusCode:  resp.StatusCode,
			Description: "token validation failed: " + readBodySnippet(resp.Body),
		}
	}

	var raw struct {
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Identity{}, &ProtocolError{Description: "decoding user response", cause: err}
	}
	if raw.Login == "" {
		return Identity{}, &ProtocolError{Description: "user response is missing login"}
	}
	return Identity{Login: raw.Login, Name: raw.Name, Email: raw.Email}, nil
}

// Complete drives an already-displayed session to a validated credential:
// it polls until a terminal outcome, maps Expired and Denied to their
// sentinel errors, and validates the token on success. It never persists
// anything.
func (f *Flow) Complete(ctx context.Context, session DeviceSession) (Identity, string, error) {
	outcome, err := f.PollToken(ctx, session)
	if err != nil {
		return Identity{}, "", err
	}
	switch outcome.Status {
	case StatusAuthorized:
		// fall through to validation
	case StatusExpired:
		return Identity{}, "", ErrExpired
	case StatusDenied:
		return Identity{}, "", ErrDenied
	default:
		return Identity{}, "", outcome.Err
	}

	identity, err := f.Validate(ctx, outcome.Token)
	if err != nil {
		return Identity{}, "", err
	}
	return identity, outcome.Token, nil
}

// Login runs the whole device flow: request a code, hand the session to
// display so the caller can show the user code and verification URI, then
// poll and validate. display may be nil.
func (f *Flow) Login(ctx context.Context, display func(DeviceSession)) (Identity, string, error) {
	session, err := f.RequestCode(ctx)
	if err != nil {
		return Identity{}, "", err
	}
	if display != nil {
		display(session)
	}
	return f.Complete(ctx, session)
}

func (f *Flow) postForm(ctx context.Context, endpoint string, data url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return f.client.Do(req)
}

// waitContext sleeps for d or until ctx is cancelled, whichever comes first.
func waitContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// readBodySnippet returns up to 200 bytes of the body for error messages.
func readBodySnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 200))
	return strings.TrimSpace(string(b))
}
