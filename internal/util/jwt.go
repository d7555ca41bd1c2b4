package util

import (
	"pathways_backend/internal/model"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID     uint           `json:"user_id"`
	Role       model.UserRole `json:"role"`
	CanPreview bool           `json:"can_preview"`
	jwt.RegisteredClaims
}

// GenerateJWT issues a token; production tokens come from the external sign-in service.
func GenerateJWT(userID uint, role model.UserRole, canPreview bool, secret string, expiration time.Duration) (string, error) {
	expirationTime := time.Now().Add(expiration)

	claims := &Claims{
		UserID:     userID,
		Role:       role,
		CanPreview: canPreview,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseJWT(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrTokenInvalidClaims
}

func GetUserFromContext(c *gin.Context) *Claims {
	user, exists := c.Get("user")
	if !exists {
		return nil
	}
	claims, ok := user.(*Claims)
	if !ok {
		return nil
	}
	return claims
}

// ViewerFromContext turns the authenticated claims into the explicit viewer passed to services.
func ViewerFromContext(c *gin.Context) (model.Viewer, bool) {
	claims := GetUserFromContext(c)
	if claims == nil {
		return model.Viewer{}, false
	}
	return model.Viewer{
		UserID:     claims.UserID,
		Role:       claims.Role,
		CanPreview: claims.CanPreview,
	}, true
}
