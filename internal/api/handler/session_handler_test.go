package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tablebook/reservation-client/internal/core/domain"
	"github.com/tablebook/reservation-client/internal/core/ports"
	"github.com/tablebook/reservation-client/internal/core/service"
)

type stubSessionService struct {
	state      domain.SessionState
	loginFn    func(ctx context.Context, email, password string, opts service.LoginOptions) domain.Result
	registerFn func(ctx context.Context, input ports.RegisterInput, opts service.LoginOptions) domain.Result
	logoutOpts *service.LogoutOptions
	patch      *domain.IdentityPatch
}

func (s *stubSessionService) State() domain.SessionState { return s.state }

func (s *stubSessionService) Login(ctx context.Context, email, password string, opts service.LoginOptions) domain.Result {
	return s.loginFn(ctx, email, password, opts)
}

func (s *stubSessionService) Register(ctx context.Context, input ports.RegisterInput, opts service.LoginOptions) domain.Result {
	return s.registerFn(ctx, input, opts)
}

func (s *stubSessionService) Logout(_ context.Context, opts service.LogoutOptions) domain.Result {
	s.logoutOpts = &opts
	return domain.Succeeded("")
}

func (s *stubSessionService) UpdateUser(_ context.Context, patch domain.IdentityPatch) domain.Result {
	s.patch = &patch
	return domain.Succeeded("")
}

func (s *stubSessionService) RefreshToken(context.Context) domain.Result {
	return domain.Succeeded("")
}

func (s *stubSessionService) RequestPasswordReset(_ context.Context, email string) domain.Result {
	if email == "ghost@example.com" {
		return domain.Failed("User not found")
	}
	return domain.Succeeded("OTP sent")
}

func (s *stubSessionService) ResetPassword(context.Context, string, string, string) domain.Result {
	return domain.Succeeded("Password updated")
}

func newJSONContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestSessionHandler_Login_PassesOptions(t *testing.T) {
	expires := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	stub := &stubSessionService{
		loginFn: func(_ context.Context, email, password string, opts service.LoginOptions) domain.Result {
			if email != "ana@example.com" || password != "secret" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			if !opts.RememberMe || !opts.ExpiresAt.Equal(expires) || opts.TTL != time.Hour {
				t.Fatalf("unexpected options: %+v", opts)
			}
			return domain.Succeeded("")
		},
		state: domain.SessionState{
			User:  &domain.Identity{ID: "1", Name: "Ana"},
			Token: "tok",
			Phase: domain.PhaseAuthenticated,
		},
	}
	c, rec := newJSONContext(http.MethodPost, "/session/login",
		`{"email":"ana@example.com","password":"secret","rememberMe":true,"expiresAt":"2030-01-02T03:04:05Z","ttlSeconds":3600}`)

	if err := NewSessionHandler(stub).Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["success"] != true {
		t.Fatalf("expected success, got %+v", resp)
	}
	session, ok := resp["session"].(map[string]any)
	if !ok || session["phase"] != "authenticated" {
		t.Fatalf("unexpected session payload: %+v", resp["session"])
	}
	if _, leaked := session["token"]; leaked {
		t.Fatalf("token must not be serialised")
	}
}

func TestSessionHandler_Login_FailureIsOK(t *testing.T) {
	stub := &stubSessionService{
		loginFn: func(context.Context, string, string, service.LoginOptions) domain.Result {
			return domain.Failed("Invalid credentials")
		},
		state: domain.SessionState{Phase: domain.PhaseAnonymous},
	}
	c, rec := newJSONContext(http.MethodPost, "/session/login", `{"email":"ana@example.com","password":"bad"}`)

	if err := NewSessionHandler(stub).Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error":"Invalid credentials"`) {
		t.Fatalf("expected error message in body, got %s", rec.Body.String())
	}
}

func TestSessionHandler_Login_InvalidPayload(t *testing.T) {
	stub := &stubSessionService{
		loginFn: func(context.Context, string, string, service.LoginOptions) domain.Result {
			t.Fatalf("should not be called")
			return domain.Result{}
		},
	}
	c, _ := newJSONContext(http.MethodPost, "/session/login", "not-json")

	err := NewSessionHandler(stub).Login(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestSessionHandler_Register_MapsFields(t *testing.T) {
	stub := &stubSessionService{
		registerFn: func(_ context.Context, input ports.RegisterInput, _ service.LoginOptions) domain.Result {
			if input.Name != "Ana" || input.Role != domain.RoleAdmin {
				t.Fatalf("unexpected input: %+v", input)
			}
			return domain.Succeeded("")
		},
	}
	c, rec := newJSONContext(http.MethodPost, "/session/register",
		`{"name":"Ana","email":"ana@example.com","password":"secret1","role":"admin"}`)

	if err := NewSessionHandler(stub).Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestSessionHandler_Logout_OptionalBody(t *testing.T) {
	stub := &stubSessionService{}
	c, rec := newJSONContext(http.MethodPost, "/session/logout", "")

	if err := NewSessionHandler(stub).Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || stub.logoutOpts == nil || stub.logoutOpts.PreserveRememberMe {
		t.Fatalf("unexpected logout: code=%d opts=%+v", rec.Code, stub.logoutOpts)
	}

	c, _ = newJSONContext(http.MethodPost, "/session/logout", `{"preserveRememberMe":true}`)
	if err := NewSessionHandler(stub).Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !stub.logoutOpts.PreserveRememberMe {
		t.Fatalf("expected rememberMe to be preserved")
	}
}

func TestSessionHandler_UpdateUser(t *testing.T) {
	stub := &stubSessionService{}
	c, rec := newJSONContext(http.MethodPatch, "/session/user", `{"name":"Ana B"}`)

	if err := NewSessionHandler(stub).UpdateUser(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.patch == nil || stub.patch.Name == nil || *stub.patch.Name != "Ana B" || stub.patch.Email != nil {
		t.Fatalf("unexpected patch: %+v", stub.patch)
	}
}

func TestSessionHandler_ForgotPassword(t *testing.T) {
	stub := &stubSessionService{}
	c, rec := newJSONContext(http.MethodPost, "/session/forgot-password", `{"email":"ghost@example.com"}`)

	if err := NewSessionHandler(stub).ForgotPassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var res domain.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if res.Success || res.Error != "User not found" {
		t.Fatalf("unexpected result: %+v", res)
	}
}
