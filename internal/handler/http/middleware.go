package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/utafrali/TravelmateGo/internal/domain"
	"github.com/utafrali/TravelmateGo/internal/repository"
	"github.com/utafrali/TravelmateGo/internal/token"
	apperrors "github.com/utafrali/TravelmateGo/pkg/errors"
	"github.com/utafrali/TravelmateGo/pkg/httputil"
	"github.com/utafrali/TravelmateGo/pkg/logger"
)

type contextKey string

const (
	principalKey   contextKey = "principal"
	accessTokenKey contextKey = "access_token"
)

// authState is the authenticator's position in its decision sequence. Every
// request ends in exactly one terminal state.
type authState int

const (
	stateNoCredential authState = iota
	stateExtracted
	stateSignatureInvalid
	stateExpired
	stateRevoked
	stateAuthenticated
)

// decision is the authenticator's verdict for one request.
type decision struct {
	state     authState
	rawToken  string
	principal *domain.Member
	err       error
}

// Authenticator inspects the Authorization header and resolves the request
// principal. A request without a bearer credential passes through anonymous;
// rejection happens only when a credential is present and bad, or when a
// protected route later demands a principal via RequirePrincipal.
type Authenticator struct {
	tokens      *token.Manager
	revocations repository.RevocationStore
	members     repository.MemberRepository
	logger      *slog.Logger
	allowed     map[string]struct{}
}

// NewAuthenticator creates the authentication middleware. Paths in allowList
// bypass credential inspection entirely.
func NewAuthenticator(
	tokens *token.Manager,
	revocations repository.RevocationStore,
	members repository.MemberRepository,
	log *slog.Logger,
	allowList []string,
) *Authenticator {
	allowed := make(map[string]struct{}, len(allowList))
	for _, p := range allowList {
		allowed[p] = struct{}{}
	}
	return &Authenticator{
		tokens:      tokens,
		revocations: revocations,
		members:     members,
		logger:      log,
		allowed:     allowed,
	}
}

// Middleware returns the chi-compatible middleware function.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.isAllowed(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		d := a.authenticate(r)

		switch d.state {
		case stateNoCredential:
			next.ServeHTTP(w, r)

		case stateAuthenticated:
			ctx := context.WithValue(r.Context(), principalKey, d.principal)
			ctx = context.WithValue(ctx, accessTokenKey, d.rawToken)
			userID := strconv.Itoa(d.principal.UserNumber)
			ctx = logger.WithUserID(ctx, userID)
			ctx = logger.NewContext(ctx, logger.FromContext(ctx).With(slog.String("user_id", userID)))
			next.ServeHTTP(w, r.WithContext(ctx))

		case stateSignatureInvalid, stateExpired, stateRevoked:
			httputil.WriteError(w, r, d.err, a.logger)

		default:
			httputil.WriteError(w, r, d.err, a.logger)
		}
	})
}

// authenticate walks the credential through the decision sequence:
// NoCredential -> Extracted -> {SignatureInvalid | Expired | Revoked |
// Authenticated}.
func (a *Authenticator) authenticate(r *http.Request) decision {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return decision{state: stateNoCredential}
	}

	raw := strings.TrimPrefix(header, "Bearer ")
	d := decision{state: stateExtracted, rawToken: raw}

	claims, err := a.tokens.Verify(raw)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrExpired):
			d.state = stateExpired
			d.err = apperrors.Unauthorized("access token has expired")
		case errors.Is(err, token.ErrSignatureInvalid):
			d.state = stateSignatureInvalid
			d.err = apperrors.Unauthorized("access token signature is invalid")
		default:
			d.state = stateSignatureInvalid
			d.err = apperrors.Unauthorized("access token is malformed")
		}
		return d
	}

	revoked, err := a.revocations.IsRevoked(r.Context(), raw)
	if err != nil {
		a.logger.ErrorContext(r.Context(), "revocation store unavailable during authentication",
			slog.String("error", err.Error()),
		)
		d.err = apperrors.ServiceUnavailable("revocation store unavailable")
		return d
	}
	if revoked {
		d.state = stateRevoked
		d.err = apperrors.Unauthorized("access token has been revoked")
		return d
	}

	// The principal is loaded fresh so a deleted or deactivated member
	// stops authenticating immediately.
	member, err := a.members.GetByNumber(r.Context(), claims.UserNumber)
	if err != nil {
		if apperrors.HTTPStatus(err) == http.StatusNotFound {
			d.err = apperrors.Unauthorized("member no longer exists")
		} else {
			d.err = err
		}
		return d
	}
	if !member.IsActive {
		d.err = apperrors.Unauthorized("account is deactivated")
		return d
	}

	d.state = stateAuthenticated
	d.principal = member
	return d
}

func (a *Authenticator) isAllowed(path string) bool {
	if _, ok := a.allowed[path]; ok {
		return true
	}
	// OAuth redirect and callback paths carry provider suffixes.
	return strings.HasPrefix(path, "/api/v1/auth/oauth/")
}

// RequirePrincipal rejects requests that reached a protected route without
// an authenticated principal.
func RequirePrincipal(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if PrincipalFromContext(r.Context()) == nil {
				httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), log)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PrincipalFromContext returns the authenticated member, or nil for an
// anonymous request.
func PrincipalFromContext(ctx context.Context) *domain.Member {
	m, _ := ctx.Value(principalKey).(*domain.Member)
	return m
}

// AccessTokenFromContext returns the raw bearer credential the principal
// authenticated with.
func AccessTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(accessTokenKey).(string)
	return t
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 {
			ct := r.Header.Get("Content-Type")
			if !strings.HasPrefix(ct, "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json"}}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	AllowedOrigins []string
	Environment    string
}

// CORS returns a middleware that sets Cross-Origin Resource Sharing headers.
// In development mode (or when AllowedOrigins contains "*"), a wildcard
// origin is used. Otherwise only the explicitly listed origins are allowed.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	allowWildcard := cfg.Environment == "development"
	originSet := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowWildcard = true
		}
		originSet[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if allowWildcard {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else if origin != "" {
				if _, ok := originSet[origin]; ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Credentials", "true")
					w.Header().Set("Vary", "Origin")
				}
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Correlation-ID")
			w.Header().Set("Access-Control-Max-Age", "3600")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
