package middleware

import (
	"fmt"
	"net/http"

	"github.com/Sakhawat2/Datawarehouse/internal/access"
	"github.com/Sakhawat2/Datawarehouse/internal/errors"
	"github.com/Sakhawat2/Datawarehouse/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the token claims read by JWTMiddleware. The subject is the
// principal id.
type Claims struct {
	Name  string   `json:"name"`
	Admin bool     `json:"admin"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// JWTMiddleware authenticates HS256 bearer tokens signed with a shared secret
type JWTMiddleware struct {
	secret    []byte
	adminRole string
}

func NewJWTMiddleware(secret, adminRole string) (*JWTMiddleware, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &JWTMiddleware{secret: []byte(secret), adminRole: adminRole}, nil
}

// Authenticate validates the token and adds the principal to the context
func (m *JWTMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			handleError(w, errors.NewAuthError("no token provided", nil))
			return
		}

		principal, err := m.Parse(token)
		if err != nil {
			handleError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(access.WithPrincipal(r.Context(), principal)))
	})
}

// Parse verifies a token and returns its principal.
func (m *JWTMiddleware) Parse(tokenString string) (models.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return models.Principal{}, errors.NewAuthError("invalid token", err)
	}
	if claims.Subject == "" {
		return models.Principal{}, errors.NewAuthError("token has no subject", nil)
	}

	return models.Principal{
		ID:      claims.Subject,
		Name:    claims.Name,
		IsAdmin: claims.Admin || hasRole(claims.Roles, m.adminRole),
	}, nil
}
