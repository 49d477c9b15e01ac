package api

import (
	"net/http"
	"testing"

	"github.com/vetroai/vetro/internal/session"
)

func TestRegisterStripsPassword(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice",
		"password": "secret",
		"email":    "alice@example.com",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	got := decodeBody(t, w)
	if got["username"] != "alice" {
		t.Errorf("Expected username alice, got %v", got["username"])
	}
	if _, ok := got["password"]; ok {
		t.Error("Password must never appear in a response body")
	}
	if got["onboardingStep"] != float64(1) {
		t.Errorf("Expected onboarding step 1, got %v", got["onboardingStep"])
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	env.loginAs(t, "alice")

	w := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice",
		"password": "other",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	if got := decodeBody(t, w); got["message"] != "Username already exists" {
		t.Errorf("Unexpected message: %v", got["message"])
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	got := decodeBody(t, w)
	if got["message"] != "Invalid data" {
		t.Errorf("Expected Invalid data message, got %v", got["message"])
	}
	fields, ok := got["errors"].(map[string]any)
	if !ok || fields["password"] == nil {
		t.Errorf("Expected per-field error for password, got %v", got["errors"])
	}
}

func TestLoginSetsSessionCookie(t *testing.T) {
	env := newTestEnv(t)
	env.loginAs(t, "alice")

	w := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice",
		"password": "password123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("Expected session cookie on login")
	}
	if !cookie.HttpOnly {
		t.Error("Expected HttpOnly session cookie")
	}

	me := env.do(t, http.MethodGet, "/api/auth/me", cookie.Value, nil)
	if me.Code != http.StatusOK {
		t.Errorf("Expected cookie to authenticate /me, got %d", me.Code)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.loginAs(t, "alice")

	tests := []map[string]string{
		{"username": "alice", "password": "wrong"},
		{"username": "nobody", "password": "password123"},
	}
	for _, body := range tests {
		w := env.do(t, http.MethodPost, "/api/auth/login", "", body)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401 for %v, got %d", body, w.Code)
		}
		if got := decodeBody(t, w); got["message"] != "Invalid credentials" {
			t.Errorf("Unexpected message: %v", got["message"])
		}
	}
}

func TestLoginMissingFields(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "alice"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	if got := decodeBody(t, w); got["message"] != "Username and password are required" {
		t.Errorf("Unexpected message: %v", got["message"])
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.loginAs(t, "alice")

	w := env.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if got := decodeBody(t, w); got["message"] != "Logged out successfully" {
		t.Errorf("Unexpected message: %v", got["message"])
	}

	me := env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	if me.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 after logout, got %d", me.Code)
	}
}

func TestOnboardingAdvancesAndCompletes(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.loginAs(t, "alice")

	w := env.do(t, http.MethodPost, "/api/user/onboarding", token, map[string]any{
		"step": 1,
		"data": map[string]string{"fullName": "Alice Smith", "companyName": "Acme"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	got := decodeBody(t, w)
	if got["fullName"] != "Alice Smith" || got["companyName"] != "Acme" {
		t.Errorf("Profile data not merged: %v", got)
	}
	if got["onboardingStep"] != float64(2) {
		t.Errorf("Expected step to advance to 2, got %v", got["onboardingStep"])
	}
	if got["onboardingCompleted"] != false {
		t.Errorf("Expected onboarding not yet completed")
	}

	final := env.do(t, http.MethodPost, "/api/user/onboarding", token, map[string]any{
		"step": 4,
		"data": map[string]string{"aiExperienceLevel": "beginner"},
	})
	if final.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", final.Code)
	}
	done := decodeBody(t, final)
	if done["onboardingCompleted"] != true {
		t.Errorf("Expected onboarding completed after step 4, got %v", done["onboardingCompleted"])
	}
}

func TestOnboardingRejectsBadStep(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.loginAs(t, "alice")

	for _, step := range []int{0, 5} {
		w := env.do(t, http.MethodPost, "/api/user/onboarding", token, map[string]any{"step": step})
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for step %d, got %d", step, w.Code)
		}
	}
}
