package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/techeasyserve/techeasyserve-api/config"
	"github.com/techeasyserve/techeasyserve-api/logger"
	"github.com/techeasyserve/techeasyserve-api/models"
	"go.uber.org/zap"
)

const principalKey = "principal"

// CustomClaims contains the application data carried by access tokens
type CustomClaims struct {
	Role     models.Role `json:"role"`
	Username string      `json:"username"`
}

// Validate rejects tokens whose role is not one the API knows about
func (c CustomClaims) Validate(ctx context.Context) error {
	if !c.Role.Valid() {
		return fmt.Errorf("unknown role %q", c.Role)
	}
	return nil
}

// Principal is the authenticated caller
type Principal struct {
	ID       uint
	Role     models.Role
	Username string
}

// IsAdmin reports whether the caller has the ADMIN role
func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// Is reports whether the caller is the given principal
func (p Principal) Is(role models.Role, id uint) bool {
	return p.Role == role && p.ID == id
}

// NewValidator builds the HS256 validator for tokens issued by this API
func NewValidator(cfg *config.Config) (*validator.Validator, error) {
	secret := []byte(cfg.JWTSecret)
	keyFunc := func(ctx context.Context) (interface{}, error) {
		return secret, nil
	}

	return validator.New(
		keyFunc,
		validator.HS256,
		cfg.JWTIssuer,
		[]string{cfg.JWTAudience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
}

// EnsureValidToken is a middleware that will check the validity of our JWT.
func EnsureValidToken(cfg *config.Config) gin.HandlerFunc {
	return tokenMiddleware(cfg, false)
}

// OptionalToken identifies the caller when a bearer token is present and lets
// anonymous requests through. Invalid tokens are still rejected.
func OptionalToken(cfg *config.Config) gin.HandlerFunc {
	return tokenMiddleware(cfg, true)
}

func tokenMiddleware(cfg *config.Config, optional bool) gin.HandlerFunc {
	jwtValidator, err := NewValidator(cfg)
	if err != nil {
		logger.L().Fatal("failed to set up the jwt validator", zap.Error(err))
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		code, message := "INVALID_TOKEN", "Failed to validate JWT."
		if errors.Is(err, jwtmiddleware.ErrJWTMissing) {
			code, message = "UNAUTHORIZED", "Authentication required"
		} else {
			logger.L().Debug("rejected JWT", zap.String("path", r.URL.Path), zap.Error(err))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		body := fmt.Sprintf(`{"success":false,"error":{"code":%q,"message":%q}}`, code, message)
		if _, writeErr := w.Write([]byte(body)); writeErr != nil {
			logger.L().Warn("failed to write error response", zap.Error(writeErr))
		}
	}

	middleware := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
		jwtmiddleware.WithCredentialsOptional(optional),
	)

	return func(c *gin.Context) {
		authenticated := false
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			claims, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
			if !ok {
				if optional {
					authenticated = true
					c.Request = r
					c.Next()
				}
				return
			}
			principal, err := principalFromClaims(claims)
			if err != nil {
				errorHandler(w, r, err)
				return
			}

			authenticated = true
			c.Request = r
			SetPrincipal(c, principal)
			c.Next()
		}

		middleware.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)
		if !authenticated {
			c.Abort()
		}
	}
}

func principalFromClaims(claims *validator.ValidatedClaims) (Principal, error) {
	id, err := strconv.ParseUint(claims.RegisteredClaims.Subject, 10, 64)
	if err != nil || id == 0 {
		return Principal{}, fmt.Errorf("invalid subject %q", claims.RegisteredClaims.Subject)
	}
	custom, ok := claims.CustomClaims.(*CustomClaims)
	if !ok {
		return Principal{}, fmt.Errorf("missing custom claims")
	}
	return Principal{ID: uint(id), Role: custom.Role, Username: custom.Username}, nil
}

// SetPrincipal stores the authenticated caller in the Gin context
func SetPrincipal(c *gin.Context, p Principal) {
	c.Set(principalKey, p)
}

// GetPrincipal extracts the authenticated caller from the Gin context
func GetPrincipal(c *gin.Context) (Principal, error) {
	value, exists := c.Get(principalKey)
	if !exists {
		return Principal{}, &AuthError{Code: "UNAUTHORIZED", Message: "Authentication required"}
	}

	principal, ok := value.(Principal)
	if !ok {
		return Principal{}, &AuthError{Code: "INVALID_PRINCIPAL", Message: "Principal is not in the expected format"}
	}

	return principal, nil
}

// RequireRole is a middleware that only lets callers with one of the roles through
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := GetPrincipal(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Authentication required",
				},
			})
			return
		}

		for _, role := range roles {
			if principal.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have permission to access this resource",
			},
		})
	}
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
