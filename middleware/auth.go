package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Temirlan00/league-system/models"
)

type contextKey string

const adminContextKey contextKey = "admin"

var (
	errMissingToken = errors.New("missing or malformed authorization header")
	errInvalidToken = errors.New("invalid or expired token")
)

// Authenticator проверяет Bearer JWT и кладёт AdminContext в контекст запроса.
type Authenticator struct {
	jwtSecret []byte
}

func NewAuthenticator(jwtSecret string) *Authenticator {
	return &Authenticator{jwtSecret: []byte(jwtSecret)}
}

func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			unauthorized(w, errMissingToken)
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return a.jwtSecret, nil
		})
		if err != nil || !token.Valid {
			unauthorized(w, errInvalidToken)
			return
		}

		admin, err := adminFromClaims(claims)
		if err != nil {
			unauthorized(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), admin)))
	})
}

// RequireRole пропускает только перечисленные роли. Вешается после Authenticate.
func RequireRole(roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admin, err := GetAdminFromContext(r.Context())
			if err != nil {
				unauthorized(w, err)
				return
			}
			for _, role := range roles {
				if admin.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeAuthError(w, http.StatusForbidden, "FORBIDDEN", "admin role required")
		})
	}
}

func unauthorized(w http.ResponseWriter, err error) {
	writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
}

// writeAuthError собирает конверт через json.Marshal: текст ошибки может
// содержать кавычки, ручная конкатенация дала бы битый JSON.
func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	type apiError struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	body := struct {
		Success bool     `json:"success"`
		Error   apiError `json:"error"`
	}{
		Error: apiError{Code: code, Message: message},
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
