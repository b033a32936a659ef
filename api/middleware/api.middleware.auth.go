package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Nerzal/gocloak/v13"
	"github.com/Sakhawat2/Datawarehouse/internal/access"
	"github.com/Sakhawat2/Datawarehouse/internal/config"
	"github.com/Sakhawat2/Datawarehouse/internal/errors"
	"github.com/Sakhawat2/Datawarehouse/internal/models"
	"github.com/goccy/go-json"
	nuts "github.com/vaudience/go-nuts"
)

// Authenticator resolves the bearer token of a request into a principal and
// stores it in the request context.
type Authenticator interface {
	Authenticate(next http.Handler) http.Handler
}

// New builds the authenticator selected in the configuration.
func New(cfg config.AuthConfig) (Authenticator, error) {
	switch cfg.Mode {
	case "keycloak":
		return NewKeycloakMiddleware(cfg.Keycloak, cfg.AdminRole), nil
	case "jwt":
		return NewJWTMiddleware(cfg.JWTSecret, cfg.AdminRole)
	}
	return nil, fmt.Errorf("unsupported auth mode %q", cfg.Mode)
}

type KeycloakMiddleware struct {
	client    *gocloak.GoCloak
	config    config.KeycloakConfig
	adminRole string
}

func NewKeycloakMiddleware(cfg config.KeycloakConfig, adminRole string) *KeycloakMiddleware {
	return &KeycloakMiddleware{
		client:    gocloak.NewClient(cfg.URL),
		config:    cfg,
		adminRole: adminRole,
	}
}

// Authenticate validates the token and adds the principal to the context
func (k *KeycloakMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			handleError(w, errors.NewAuthError("no token provided", nil))
			return
		}

		// Verify token
		result, err := k.client.RetrospectToken(r.Context(), token, k.config.ClientID, k.config.ClientSecret, k.config.Realm)
		if err != nil || result == nil || result.Active == nil || !*result.Active {
			handleError(w, errors.NewAuthError("invalid token", err))
			return
		}

		roles, err := k.client.GetRealmRoles(r.Context(), token, k.config.Realm, gocloak.GetRoleParams{})
		if err != nil {
			handleError(w, errors.NewAuthError("failed to get realm roles", err))
			return
		}
		userInfo, err := k.client.GetUserInfo(r.Context(), token, k.config.Realm)
		if err != nil {
			handleError(w, errors.NewAuthError("failed to get user info", err))
			return
		}

		principal, err := principalFromUserInfo(userInfo, extractRoles(roles), k.adminRole)
		if err != nil {
			handleError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(access.WithPrincipal(r.Context(), principal)))
	})
}

func principalFromUserInfo(userInfo *gocloak.UserInfo, roles []string, adminRole string) (models.Principal, error) {
	if userInfo == nil || userInfo.Sub == nil || *userInfo.Sub == "" {
		return models.Principal{}, errors.NewAuthError("token has no subject", nil)
	}
	p := models.Principal{
		ID:      *userInfo.Sub,
		IsAdmin: hasRole(roles, adminRole),
	}
	switch {
	case userInfo.PreferredUsername != nil:
		p.Name = *userInfo.PreferredUsername
	case userInfo.Email != nil:
		p.Name = *userInfo.Email
	}
	return p, nil
}

// RequireAdmin rejects requests whose principal is not an admin.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := access.PrincipalFrom(r.Context())
		if !ok {
			handleError(w, errors.NewAuthError("no principal found", nil))
			return
		}
		if !p.IsAdmin {
			handleError(w, errors.NewAuthorizationError("insufficient permissions", nil))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Helper functions

func extractToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func extractRoles(roles []*gocloak.Role) []string {
	var roleStrings []string
	for _, role := range roles {
		if role != nil && role.Name != nil {
			roleStrings = append(roleStrings, *role.Name)
		}
	}
	return roleStrings
}

func hasRole(roles []string, role string) bool {
	if role == "" {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func handleError(w http.ResponseWriter, err error) {
	apiErr, ok := errors.As(err)
	if !ok {
		apiErr = errors.NewInternalError("Internal Server Error", err)
	}
	apiErr.WithRequestID(nuts.NID("req", 12))
	nuts.L.Warnf("[Auth] %s", apiErr.Error())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Code)
	json.NewEncoder(w).Encode(apiErr)
}
