package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/TravelmateGo/internal/domain"
	redisrepo "github.com/utafrali/TravelmateGo/internal/repository/redis"
	"github.com/utafrali/TravelmateGo/internal/token"
	apperrors "github.com/utafrali/TravelmateGo/pkg/errors"
)

type authEnv struct {
	auth        *Authenticator
	memberRepo  *mockMemberRepo
	revocations *redisrepo.RevocationStore
	tokens      *token.Manager
	redis       *miniredis.Miniredis
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	tokens, err := token.NewManager(testSecret, 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)

	memberRepo := new(mockMemberRepo)
	revocations := redisrepo.NewRevocationStore(client)

	auth := NewAuthenticator(tokens, revocations, memberRepo, testLogger(), publicPaths())

	return &authEnv{
		auth:        auth,
		memberRepo:  memberRepo,
		revocations: revocations,
		tokens:      tokens,
		redis:       mr,
	}
}

// probe records what the downstream handler observed.
func probe(saw *struct {
	called    bool
	principal *domain.Member
	rawToken  string
}) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		saw.called = true
		saw.principal = PrincipalFromContext(r.Context())
		saw.rawToken = AccessTokenFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func serveAuth(t *testing.T, env *authEnv, mutate func(*http.Request)) (*httptest.ResponseRecorder, *struct {
	called    bool
	principal *domain.Member
	rawToken  string
}) {
	t.Helper()

	saw := &struct {
		called    bool
		principal *domain.Member
		rawToken  string
	}{}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/members/me", nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	env.auth.Middleware(probe(saw)).ServeHTTP(rec, req)
	return rec, saw
}

func TestAuthenticator_NoCredentialPassesThroughAnonymous(t *testing.T) {
	env := newAuthEnv(t)

	rec, saw := serveAuth(t, env, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, saw.called)
	assert.Nil(t, saw.principal)
}

func TestAuthenticator_NonBearerHeaderPassesThroughAnonymous(t *testing.T) {
	env := newAuthEnv(t)

	rec, saw := serveAuth(t, env, func(r *http.Request) {
		r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, saw.called)
	assert.Nil(t, saw.principal)
}

func TestAuthenticator_ValidTokenLoadsPrincipal(t *testing.T) {
	env := newAuthEnv(t)
	member := testMember()

	accessToken, err := env.tokens.IssueAccess(42, member.Email, member.Roles())
	require.NoError(t, err)

	env.memberRepo.On("GetByNumber", mock.Anything, 42).Return(member, nil)

	rec, saw := serveAuth(t, env, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+accessToken)
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, saw.principal)
	assert.Equal(t, 42, saw.principal.UserNumber)
	assert.Equal(t, accessToken, saw.rawToken)
}

func TestAuthenticator_TamperedTokenRejected(t *testing.T) {
	env := newAuthEnv(t)

	accessToken, err := env.tokens.IssueAccess(42, "jane@example.com", nil)
	require.NoError(t, err)

	// Swap the signature segment for a bogus one.
	parts := strings.Split(accessToken, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + ".AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

	rec, saw := serveAuth(t, env, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tampered)
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, saw.called)
}

func TestAuthenticator_ExpiredTokenRejected(t *testing.T) {
	env := newAuthEnv(t)

	expiredMgr, err := token.NewManager(testSecret, -time.Minute, -time.Minute)
	require.NoError(t, err)
	accessToken, err := expiredMgr.IssueAccess(42, "jane@example.com", nil)
	require.NoError(t, err)

	rec, saw := serveAuth(t, env, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+accessToken)
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, saw.called)
}

func TestAuthenticator_RevokedTokenRejected(t *testing.T) {
	env := newAuthEnv(t)

	accessToken, err := env.tokens.IssueAccess(42, "jane@example.com", nil)
	require.NoError(t, err)
	require.NoError(t, env.redis.Set("blacklist:"+accessToken, "revoked"))

	rec, saw := serveAuth(t, env, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+accessToken)
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, saw.called)
}

func TestAuthenticator_DeletedPrincipalRejected(t *testing.T) {
	env := newAuthEnv(t)

	accessToken, err := env.tokens.IssueAccess(42, "jane@example.com", nil)
	require.NoError(t, err)

	env.memberRepo.On("GetByNumber", mock.Anything, 42).Return(nil, apperrors.ErrNotFound)

	rec, saw := serveAuth(t, env, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+accessToken)
	})

	// A vanished principal reads as unauthenticated, not as missing.
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, saw.called)
}

func TestAuthenticator_RevocationStoreDownFailsClosed(t *testing.T) {
	env := newAuthEnv(t)

	accessToken, err := env.tokens.IssueAccess(42, "jane@example.com", nil)
	require.NoError(t, err)

	env.redis.Close()

	rec, saw := serveAuth(t, env, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+accessToken)
	})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, saw.called)
}

func TestAuthenticator_AllowListBypassesInspection(t *testing.T) {
	env := newAuthEnv(t)

	saw := &struct {
		called    bool
		principal *domain.Member
		rawToken  string
	}{}

	// A garbage credential on an allow-listed path is ignored.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	env.auth.Middleware(probe(saw)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, saw.called)
}

func TestAuthenticator_OAuthPathsAllowedByPrefix(t *testing.T) {
	env := newAuthEnv(t)

	saw := &struct {
		called    bool
		principal *domain.Member
		rawToken  string
	}{}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/oauth/kakao/callback", nil)
	rec := httptest.NewRecorder()
	env.auth.Middleware(probe(saw)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, saw.called)
}

func TestRequirePrincipal_RejectsAnonymous(t *testing.T) {
	handler := RequirePrincipal(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/members/me", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestContentTypeJSON_RejectsOtherTypes(t *testing.T) {
	handler := ContentTypeJSON(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}
