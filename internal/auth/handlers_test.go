package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pashagolub/pgxmock/v3"
)

func newAuthApp(svc *Service) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app.Group("/auth"), svc)
	return app
}

// post sends body (a string is sent raw) and returns the status and body.
func post(t *testing.T, app *fiber.App, path string, body any) (int, string) {
	t.Helper()
	raw, ok := body.(string)
	if !ok {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		raw = string(b)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(raw)))
	req.Header.Set("Content-Type", "application/json")
	return send(t, app, req)
}

func verify(t *testing.T, app *fiber.App, authorization string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/auth/jwt/verify", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	return send(t, app, req)
}

func send(t *testing.T, app *fiber.App, req *http.Request) (int, string) {
	t.Helper()
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

func TestRegisterLoginVerifyRoutes(t *testing.T) {
	mock := newMock(t)
	svc := NewService(testSecret, mock)
	app := newAuthApp(svc)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), "racer@pitstop.dev", "ecoracer", pgxmock.AnyArg(), "", "").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))
	expectRefreshSaved(mock, pgxmock.AnyArg())

	code, body := post(t, app, "/auth/register", RegisterRequest{Email: "racer@pitstop.dev", Username: "ecoracer", Password: "pedal-power"})
	if code != http.StatusCreated {
		t.Fatalf("register: %d %s", code, body)
	}
	var registered struct {
		User   User          `json:"user"`
		Tokens TokenResponse `json:"tokens"`
	}
	if err := json.Unmarshal([]byte(body), &registered); err != nil || registered.Tokens.AccessToken == "" {
		t.Fatalf("register body: %v %s", err, body)
	}
	if strings.Contains(body, "password_hash") || strings.Contains(body, "$2a$") {
		t.Fatalf("password hash leaked: %s", body)
	}

	expectUser(mock, "racer@pitstop.dev", "pedal-power")
	expectRefreshSaved(mock, "racer-1")
	code, body = post(t, app, "/auth/login", LoginRequest{Email: "racer@pitstop.dev", Password: "pedal-power"})
	if code != http.StatusOK {
		t.Fatalf("login: %d %s", code, body)
	}
	var tokens TokenResponse
	if err := json.Unmarshal([]byte(body), &tokens); err != nil {
		t.Fatalf("login body: %v", err)
	}

	code, body = verify(t, app, "Bearer "+tokens.AccessToken)
	if code != http.StatusOK || !strings.Contains(body, `"user_id":"racer-1"`) {
		t.Fatalf("verify: %d %s", code, body)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRegisterRouteErrors(t *testing.T) {
	t.Run("bad payload", func(t *testing.T) {
		if code, _ := post(t, newAuthApp(NewService(testSecret, nil)), "/auth/register", "{bad"); code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", code)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		code, body := post(t, newAuthApp(NewService(testSecret, nil)), "/auth/register", RegisterRequest{Email: "racer@pitstop.dev"})
		if code != http.StatusBadRequest || !strings.Contains(body, "required") {
			t.Fatalf("expected the validation message, got %d %s", code, body)
		}
	})

	t.Run("database error stays generic", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`INSERT INTO users`).WillReturnError(errDB)
		code, body := post(t, newAuthApp(NewService(testSecret, mock)), "/auth/register",
			RegisterRequest{Email: "racer@pitstop.dev", Username: "ecoracer", Password: "pedal-power"})
		if code != http.StatusBadRequest || body != "registration failed" {
			t.Fatalf("expected generic failure, got %d %s", code, body)
		}
		if strings.Contains(body, errDB.Error()) {
			t.Fatalf("database error leaked: %s", body)
		}
	})

	t.Run("no database", func(t *testing.T) {
		code, body := post(t, newAuthApp(NewService(testSecret, nil)), "/auth/register",
			RegisterRequest{Email: "racer@pitstop.dev", Username: "ecoracer", Password: "pedal-power"})
		if code != http.StatusBadRequest || body != "registration failed" {
			t.Fatalf("expected generic failure, got %d %s", code, body)
		}
	})
}

func TestLoginRouteErrors(t *testing.T) {
	app := newAuthApp(NewService(testSecret, nil))
	for _, body := range []string{"{bad", `{"email":""}`, `{"email":"racer@pitstop.dev"}`} {
		if code, _ := post(t, app, "/auth/login", body); code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, code)
		}
	}

	mock := newMock(t)
	expectUser(mock, "racer@pitstop.dev", "pedal-power")
	code, body := post(t, newAuthApp(NewService(testSecret, mock)), "/auth/login", LoginRequest{Email: "racer@pitstop.dev", Password: "wrong"})
	if code != http.StatusUnauthorized || body != ErrInvalidCredentials.Error() {
		t.Fatalf("expected invalid credentials, got %d %s", code, body)
	}
}

func TestRefreshRoute(t *testing.T) {
	mock := newMock(t)
	svc := NewService(testSecret, mock)
	app := newAuthApp(svc)

	expectRefreshSaved(mock, "racer-1")
	issued, err := svc.GenerateTokens(context.Background(), "racer-1")
	if err != nil {
		t.Fatalf("generate tokens: %v", err)
	}

	mock.ExpectQuery(`SELECT user_id, expires_at`).
		WithArgs(issued.RefreshToken).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "expires_at"}).AddRow("racer-1", time.Now().Add(time.Hour)))
	expectRefreshSaved(mock, "racer-1")
	if code, body := post(t, app, "/auth/refresh", RefreshRequest{RefreshToken: issued.RefreshToken}); code != http.StatusOK {
		t.Fatalf("refresh: %d %s", code, body)
	}

	mock.ExpectQuery(`SELECT user_id, expires_at`).
		WithArgs(issued.RefreshToken).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "expires_at"}).AddRow("racer-1", time.Now().Add(time.Hour)))
	mock.ExpectExec(`INSERT INTO refresh_tokens`).WillReturnError(errDB)
	if code, _ := post(t, app, "/auth/refresh", RefreshRequest{RefreshToken: issued.RefreshToken}); code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when the new token cannot be stored, got %d", code)
	}

	if code, _ := post(t, app, "/auth/refresh", `{}`); code != http.StatusBadRequest {
		t.Fatalf("expected 400 without a token, got %d", code)
	}
	if code, _ := post(t, app, "/auth/refresh", RefreshRequest{RefreshToken: "bad"}); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a malformed token, got %d", code)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestVerifyRouteRejects(t *testing.T) {
	app := newAuthApp(NewService(testSecret, nil))
	for name, header := range map[string]string{
		"missing":   "",
		"no scheme": signWith(t, jwt.SigningMethodHS256, []byte(testSecret), "racer-1", time.Hour),
		"garbage":   "Bearer bad",
		"hs512":     "Bearer " + signWith(t, jwt.SigningMethodHS512, []byte(testSecret), "racer-1", time.Hour),
		"alg none":  "Bearer " + signWith(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, "racer-1", time.Hour),
	} {
		if code, _ := verify(t, app, header); code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, code)
		}
	}
}

func TestBearerFromHeader(t *testing.T) {
	cases := map[string]string{
		"":               "",
		"token":          "",
		"Basic abc":      "",
		"Bearer abc":     "abc",
		"bearer abc":     "abc",
		"Bearer a b":     "a b",
		"Bearer":         "",
		"BEARER abc.def": "abc.def",
	}
	for header, want := range cases {
		if got := bearerFromHeader(header); got != want {
			t.Fatalf("bearerFromHeader(%q) = %q, want %q", header, got, want)
		}
	}
}
