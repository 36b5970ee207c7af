package middleware

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"vjezbajmo/internal/model"
	"vjezbajmo/internal/webutil"

	"github.com/golang-jwt/jwt/v5"
)

const DeviceIDHeader = "X-Device-ID"

var deviceIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// IdentityMiddleware resolves who the request acts for. X-Device-ID names the
// anonymous device; a Bearer JWT (HS256, sub = user id) names the account.
// At least one of them is required. A present but invalid token is rejected
// rather than ignored.
func IdentityMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := GetLogger(r.Context())
			var identity model.Identity

			if device := strings.TrimSpace(r.Header.Get(DeviceIDHeader)); device != "" {
				if !deviceIDPattern.MatchString(device) {
					logger.Warn("Rejected malformed device id")
					webutil.HandleError(w, logger, model.NewAppError("INVALID_DEVICE_ID",
						"X-Device-ID must be 1-128 characters of letters, digits, '.', '_' or '-'.", "X-Device-ID", model.ErrInvalidInput))
					return
				}
				identity.DeviceID = device
			}

			if authHeader := r.Header.Get("Authorization"); authHeader != "" {
				userID, err := parseBearer(authHeader, jwtSecret)
				if err != nil {
					logger.Warn("JWT auth failed", "error", err)
					webutil.HandleError(w, logger, err)
					return
				}
				identity.UserID = userID
			}

			if identity.IsZero() {
				webutil.HandleError(w, logger, model.NewAppError("IDENTITY_REQUIRED",
					"Send an X-Device-ID header or a Bearer token.", "identity", model.ErrInvalidInput))
				return
			}

			ctx := WithLogger(r.Context(), logger.With("device_id", identity.DeviceID, "user_id", identity.UserID))
			ctx = context.WithValue(ctx, model.IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseBearer(authHeader, secret string) (string, error) {
	headerParts := strings.Split(authHeader, " ")
	if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
		return "", model.NewAppError("UNAUTHORIZED", "Authorization header must be 'Bearer <token>'.", "", model.ErrForbidden)
	}
	if secret == "" {
		return "", model.NewAppError("AUTH_DISABLED", "Account sign-in is not configured on this server.", "", model.ErrForbidden)
	}

	token, err := jwt.Parse(headerParts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", model.NewAppError("INVALID_TOKEN", "The token is invalid or expired.", "", errors.Join(model.ErrForbidden, err))
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", model.NewAppError("INVALID_TOKEN", "The token carries no user.", "", model.ErrForbidden)
	}
	return subject, nil
}

// RequireAuthenticated rejects requests without an account identity. It must
// run after IdentityMiddleware.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity, ok := GetIdentity(r.Context()); !ok || !identity.IsAuthenticated() {
			webutil.HandleError(w, GetLogger(r.Context()), model.NewAppError("UNAUTHORIZED",
				"This operation requires a signed-in user.", "", model.ErrForbidden))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetIdentity(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(model.IdentityKey).(model.Identity)
	return identity, ok
}

// NewUserToken signs an HS256 token for userID.
func NewUserToken(secret, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
