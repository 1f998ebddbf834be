package tui_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/waabox/repogen/internal/auth"
	"github.com/waabox/repogen/internal/tui"
)

func testSession() auth.DeviceSession {
	return auth.DeviceSession{
		DeviceCode:      "dev_abc",
		UserCode:        "ABCD-1234",
		VerificationURI: "https://github.com/login/device",
		ExpiresIn:       900,
		Interval:        5,
	}
}

func TestLogin_SessionMsg_ShowsUserCode(t *testing.T) {
	m := tui.NewLoginModel(context.Background(), nil, auth.NewDefaultFlow(""))

	updated, cmd := m.Update(tui.SessionMsg{Session: testSession()})
	view := updated.(tui.LoginModel).View()

	if !strings.Contains(view, "ABCD-1234") {
		t.Errorf("expected user code in view, got:\n%s", view)
	}
	if !strings.Contains(view, "https://github.com/login/device") {
		t.Errorf("expected verification URI in view, got:\n%s", view)
	}
	if cmd == nil {
		t.Error("expected a polling command after receiving the session")
	}
}

func TestLogin_SessionError_FailsAndQuits(t *testing.T) {
	m := tui.NewLoginModel(context.Background(), nil, auth.NewDefaultFlow(""))

	updated, cmd := m.Update(tui.SessionMsg{Err: auth.ErrMissingClientID})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, _, err := updated.(tui.LoginModel).Result(); !errors.Is(err, auth.ErrMissingClientID) {
		t.Errorf("want ErrMissingClientID from Result, got %v", err)
	}
}

func TestLogin_DoneMsg_ReportsIdentityAndToken(t *testing.T) {
	m := tui.NewLoginModel(context.Background(), nil, auth.NewDefaultFlow(""))

	updated, _ := m.Update(tui.SessionMsg{Session: testSession()})
	updated, _ = updated.(tui.LoginModel).Update(tui.LoginDoneMsg{
		Identity: auth.Identity{Login: "waabox"},
		Token:    "gho_final",
	})

	model := updated.(tui.LoginModel)
	if !strings.Contains(model.View(), "waabox") {
		t.Errorf("expected login in view, got:\n%s", model.View())
	}
	identity, token, err := model.Result()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if identity.Login != "waabox" || token != "gho_final" {
		t.Errorf("unexpected result: %+v %q", identity, token)
	}
}

func TestLogin_DeniedOutcome_SurfacesDistinctError(t *testing.T) {
	m := tui.NewLoginModel(context.Background(), nil, auth.NewDefaultFlow(""))

	updated, _ := m.Update(tui.SessionMsg{Session: testSession()})
	updated, _ = updated.(tui.LoginModel).Update(tui.LoginDoneMsg{Err: auth.ErrDenied})

	if _, _, err := updated.(tui.LoginModel).Result(); !errors.Is(err, auth.ErrDenied) {
		t.Errorf("want ErrDenied, got %v", err)
	}
}

func TestLogin_QuitKey_CancelsAttempt(t *testing.T) {
	cancelled := false
	m := tui.NewLoginModel(context.Background(), func() { cancelled = true }, auth.NewDefaultFlow(""))

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if !cancelled {
		t.Error("expected the cancel function to run")
	}
	if _, token, err := updated.(tui.LoginModel).Result(); err == nil || token != "" {
		t.Errorf("cancelled attempt must not expose a token, got %q err %v", token, err)
	}
}
