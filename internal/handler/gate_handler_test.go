package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/johanandu/selfstoragejandu/internal/model"

	"github.com/labstack/echo/v4"
)

type fakeAuthorizer struct {
	decision *model.Decision
	err      error
	calls    int
	lastUser string
	lastUnit uint
}

func (f *fakeAuthorizer) Authorize(ctx context.Context, userID string, unitID uint) (*model.Decision, error) {
	f.calls++
	f.lastUser = userID
	f.lastUnit = unitID
	return f.decision, f.err
}

func gateRequest(t *testing.T, body string, userID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/gate/open", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set("user_id", userID)
	}
	return c, rec
}

func TestOpenGate_Granted(t *testing.T) {
	auth := &fakeAuthorizer{decision: &model.Decision{
		Granted:   true,
		Message:   "Brama otwarta. Zapraszamy!",
		Actuation: model.ActuationTriggered,
	}}
	h := NewGateHandler(auth)

	c, rec := gateRequest(t, `{"unit_id":7}`, "user-42")
	if err := h.OpenGate(c); err != nil {
		t.Fatalf("OpenGate returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if auth.lastUser != "user-42" || auth.lastUnit != 7 {
		t.Errorf("Authorize called with (%q, %d), want (user-42, 7)", auth.lastUser, auth.lastUnit)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["success"] != true {
		t.Errorf("body = %v, want success true", body)
	}
	if _, present := body["fallback_code"]; present {
		t.Errorf("fallback_code present for a clean open: %v", body)
	}
}

func TestOpenGate_GrantedWithFallback(t *testing.T) {
	auth := &fakeAuthorizer{decision: &model.Decision{
		Granted:      true,
		Message:      "Brama otwarta (sprawdź kod PIN w razie problemów)",
		FallbackHint: "Użyj kodu PIN z panelu klienta",
		Actuation:    model.ActuationFailed,
	}}
	h := NewGateHandler(auth)

	c, rec := gateRequest(t, `{"unit_id":7}`, "user-42")
	if err := h.OpenGate(c); err != nil {
		t.Fatalf("OpenGate returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 even when hardware failed", rec.Code)
	}

	var body map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["fallback_code"] != "Użyj kodu PIN z panelu klienta" {
		t.Errorf("fallback_code = %v", body["fallback_code"])
	}
}

func TestOpenGate_Denied(t *testing.T) {
	auth := &fakeAuthorizer{decision: &model.Decision{
		Granted: false,
		Reason:  model.DenialSubscriptionExpired,
		Message: "Subskrypcja wygasła. Prosimy o odnowienie.",
	}}
	h := NewGateHandler(auth)

	c, rec := gateRequest(t, `{"unit_id":7}`, "user-42")
	if err := h.OpenGate(c); err != nil {
		t.Fatalf("OpenGate returned error: %v", err)
	}
	if rec.Code != http.StatusPaymentRequired {
		t.Errorf("status = %d, want 402", rec.Code)
	}

	var body map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["reason"] != model.DenialSubscriptionExpired {
		t.Errorf("reason = %v, want %v", body["reason"], model.DenialSubscriptionExpired)
	}
}

func TestOpenGate_MissingUnitID(t *testing.T) {
	auth := &fakeAuthorizer{}
	h := NewGateHandler(auth)

	c, rec := gateRequest(t, `{}`, "user-42")
	if err := h.OpenGate(c); err != nil {
		t.Fatalf("OpenGate returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if auth.calls != 0 {
		t.Errorf("Authorize calls = %d, want 0", auth.calls)
	}
}

func TestOpenGate_NoPrincipal(t *testing.T) {
	auth := &fakeAuthorizer{}
	h := NewGateHandler(auth)

	c, rec := gateRequest(t, `{"unit_id":7}`, "")
	if err := h.OpenGate(c); err != nil {
		t.Fatalf("OpenGate returned error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if auth.calls != 0 {
		t.Errorf("Authorize calls = %d, want 0", auth.calls)
	}
}

func TestOpenGate_StoreFailure(t *testing.T) {
	auth := &fakeAuthorizer{err: errors.New("store down")}
	h := NewGateHandler(auth)

	c, rec := gateRequest(t, `{"unit_id":7}`, "user-42")
	if err := h.OpenGate(c); err != nil {
		t.Fatalf("OpenGate returned error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
