package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Temirlan00/league-system/models"
)

// Имена JWT claims
const (
	jwtClaimUserID = "user_id"
	jwtClaimRole   = "role"
)

// WithAdmin кладёт AdminContext в контекст запроса.
func WithAdmin(ctx context.Context, admin models.AdminContext) context.Context {
	return context.WithValue(ctx, adminContextKey, admin)
}

// GetAdminFromContext достаёт аутентифицированного админа, положенного
// Authenticate. Дальше AdminContext передаётся в сервисы явным параметром.
func GetAdminFromContext(ctx context.Context) (models.AdminContext, error) {
	admin, ok := ctx.Value(adminContextKey).(models.AdminContext)
	if !ok {
		return models.AdminContext{}, errors.New("admin identity not found in request context")
	}
	return admin, nil
}

func adminFromClaims(claims jwt.MapClaims) (models.AdminContext, error) {
	userIDClaim, ok := claims[jwtClaimUserID]
	if !ok {
		return models.AdminContext{}, fmt.Errorf("missing '%s' claim in token", jwtClaimUserID)
	}
	// JWT-числа декодируются как float64.
	userIDFloat, ok := userIDClaim.(float64)
	if !ok || userIDFloat != float64(int(userIDFloat)) {
		return models.AdminContext{}, fmt.Errorf("invalid '%s' claim in token", jwtClaimUserID)
	}
	userID := int(userIDFloat)
	if userID <= 0 {
		return models.AdminContext{}, fmt.Errorf("invalid user ID value in '%s' claim: %d", jwtClaimUserID, userID)
	}

	roleClaim, ok := claims[jwtClaimRole]
	if !ok {
		return models.AdminContext{}, fmt.Errorf("missing '%s' claim in token", jwtClaimRole)
	}
	roleStr, ok := roleClaim.(string)
	if !ok {
		return models.AdminContext{}, fmt.Errorf("invalid type for '%s' claim: expected string, got %T", jwtClaimRole, roleClaim)
	}

	role := models.UserRole(roleStr)
	switch role {
	case models.RoleAdmin, models.RolePlayer:
	default:
		return models.AdminContext{}, fmt.Errorf("invalid role value in claim: %q", roleStr)
	}

	return models.AdminContext{ID: userID, Role: role}, nil
}
