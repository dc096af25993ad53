package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Temirlan00/league-system/models"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func adminClaims(userID int, role models.UserRole) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"iat":     now.Unix(),
		"exp":     now.Add(time.Hour).Unix(),
	}
}

func protectedHandler(t *testing.T, gotAdmin *models.AdminContext) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin, err := GetAdminFromContext(r.Context())
		if err != nil {
			t.Errorf("admin missing from context: %v", err)
		}
		*gotAdmin = admin
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	var admin models.AdminContext
	handler := NewAuthenticator(testSecret).Authenticate(protectedHandler(t, &admin))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, adminClaims(99, models.RoleAdmin)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if admin.ID != 99 || admin.Role != models.RoleAdmin {
		t.Errorf("admin = %+v, want id 99 role admin", admin)
	}
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	var admin models.AdminContext
	handler := NewAuthenticator(testSecret).Authenticate(protectedHandler(t, &admin))

	expired := adminClaims(99, models.RoleAdmin)
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer " + signToken(t, "other-secret", adminClaims(99, models.RoleAdmin))},
		{"expired", "Bearer " + signToken(t, testSecret, expired)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestAuthErrorBodyIsValidJSON(t *testing.T) {
	var admin models.AdminContext
	handler := NewAuthenticator(testSecret).Authenticate(protectedHandler(t, &admin))

	// Текст ошибки про неизвестную роль содержит кавычки: тело ответа
	// обязано оставаться валидным JSON-конвертом.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, adminClaims(99, "superadmin")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response body is not valid JSON: %v\nbody: %s", err, rec.Body.String())
	}
	if body.Success || body.Error.Code != "UNAUTHORIZED" || body.Error.Message == "" {
		t.Errorf("body = %+v", body)
	}
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireRole(models.RoleAdmin)(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithAdmin(req.Context(), models.AdminContext{ID: 20, Role: models.RolePlayer}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("player: status = %d, want 403", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithAdmin(req.Context(), models.AdminContext{ID: 99, Role: models.RoleAdmin}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("admin: status = %d, want 200", rec.Code)
	}
}
