package lazada

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kelvintan1101/erp/internal/config"
	"github.com/kelvintan1101/erp/internal/domain"
	apperrors "github.com/kelvintan1101/erp/pkg/errors"
)

type memCredRepo struct {
	mu   sync.Mutex
	cred *domain.Credential
}

func (r *memCredRepo) Load(ctx context.Context) (*domain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cred == nil {
		return nil, nil
	}
	copied := *r.cred
	return &copied, nil
}

func (r *memCredRepo) Replace(ctx context.Context, cred *domain.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *cred
	r.cred = &copied
	return nil
}

func testLazadaConfig(authBaseURL string) config.LazadaConfig {
	return config.LazadaConfig{
		AppKey:      "100132",
		AppSecret:   "demo-secret",
		APIBaseURL:  "http://unused.invalid/rest",
		AuthBaseURL: authBaseURL,
		AuthURL:     "https://auth.lazada.com/oauth/authorize",
		CallbackURL: "https://example.com/lazada/callback",
		SignMethod:  SignMethodSHA256,
	}
}

func newTestTokenManager(t *testing.T, authBaseURL string, cred *domain.Credential) (*TokenManager, *memCredRepo) {
	t.Helper()
	repo := &memCredRepo{cred: cred}
	tm := NewTokenManager(testLazadaConfig(authBaseURL), repo, zap.NewNop())
	return tm, repo
}

func tokenJSON(code, accessToken, refreshToken string, expiresIn int64) map[string]interface{} {
	return map[string]interface{}{
		"code":          code,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    expiresIn,
	}
}

func TestValidTokenNoCredential(t *testing.T) {
	tm, _ := newTestTokenManager(t, "http://unused.invalid", nil)

	_, err := tm.ValidToken(context.Background())
	require.Error(t, err)
	var authRequired *apperrors.ErrAuthRequired
	assert.ErrorAs(t, err, &authRequired)
}

func TestValidTokenFreshCredentialNoNetwork(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode(tokenJSON("0", "new-token", "new-refresh", 3600))
	}))
	defer server.Close()

	cred := &domain.Credential{
		AccessToken:  "fresh-token",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	tm, _ := newTestTokenManager(t, server.URL, cred)

	for i := 0; i < 5; i++ {
		token, err := tm.ValidToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "fresh-token", token)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestValidTokenExpiredRefreshesOnce(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/auth/token/refresh", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "old-refresh", q.Get("refresh_token"))
		assert.Equal(t, "100132", q.Get("app_key"))
		assert.Equal(t, "sha256", q.Get("sign_method"))
		assert.NotEmpty(t, q.Get("timestamp"))

		params := map[string]string{
			"app_key":       q.Get("app_key"),
			"timestamp":     q.Get("timestamp"),
			"sign_method":   q.Get("sign_method"),
			"refresh_token": q.Get("refresh_token"),
		}
		assert.Equal(t, SignHMACSHA256("/auth/token/refresh", params, "demo-secret"), q.Get("sign"))

		json.NewEncoder(w).Encode(tokenJSON("0", "refreshed-token", "new-refresh", 3600))
	}))
	defer server.Close()

	cred := &domain.Credential{
		AccessToken:  "stale-token",
		RefreshToken: "old-refresh",
		ExpiresAt:    time.Now().Add(-time.Millisecond),
	}
	tm, repo := newTestTokenManager(t, server.URL, cred)

	token, err := tm.ValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refreshed-token", token)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	stored, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "refreshed-token", stored.AccessToken)
	assert.Equal(t, "new-refresh", stored.RefreshToken)
	assert.True(t, stored.ExpiresAt.After(time.Now()))

	// Follow-up calls use the stored fresh token without another refresh
	token, err = tm.ValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refreshed-token", token)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestValidTokenConcurrentRefreshDeduplicated(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(20 * time.Millisecond)
		json.NewEncoder(w).Encode(tokenJSON("0", "refreshed-token", "new-refresh", 3600))
	}))
	defer server.Close()

	cred := &domain.Credential{
		AccessToken:  "stale-token",
		RefreshToken: "old-refresh",
		ExpiresAt:    time.Now().Add(-time.Second),
	}
	tm, _ := newTestTokenManager(t, server.URL, cred)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := tm.ValidToken(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "refreshed-token", token)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestValidTokenRefreshRejectedKeepsStaleCredential(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code":    "IllegalRefreshToken",
			"message": "The specified refresh token is invalid",
		})
	}))
	defer server.Close()

	cred := &domain.Credential{
		AccessToken:  "stale-token",
		RefreshToken: "bad-refresh",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}
	tm, repo := newTestTokenManager(t, server.URL, cred)

	_, err := tm.ValidToken(context.Background())
	require.Error(t, err)
	var refreshFailed *apperrors.ErrRefreshFailed
	require.ErrorAs(t, err, &refreshFailed)
	assert.Contains(t, refreshFailed.Detail, "IllegalRefreshToken")

	// Stale credential stays in place so the next call can retry
	stored, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "stale-token", stored.AccessToken)
	assert.Equal(t, "bad-refresh", stored.RefreshToken)
}

func TestValidTokenRefreshTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	cred := &domain.Credential{
		AccessToken:  "stale-token",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}
	tm, _ := newTestTokenManager(t, server.URL, cred)

	_, err := tm.ValidToken(context.Background())
	var refreshFailed *apperrors.ErrRefreshFailed
	require.ErrorAs(t, err, &refreshFailed)
	assert.Contains(t, refreshFailed.Detail, "502")
}

func TestValidTokenRefreshKeepsOldRefreshTokenWhenOmitted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code":         "0",
			"access_token": "refreshed-token",
			"expires_in":   3600,
		})
	}))
	defer server.Close()

	cred := &domain.Credential{
		AccessToken:  "stale-token",
		RefreshToken: "keep-me",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}
	tm, repo := newTestTokenManager(t, server.URL, cred)

	_, err := tm.ValidToken(context.Background())
	require.NoError(t, err)

	stored, _ := repo.Load(context.Background())
	assert.Equal(t, "keep-me", stored.RefreshToken)
}

func TestExchangeAuthorizationCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/token/create", r.URL.Path)
		assert.Equal(t, "one-time-code", r.URL.Query().Get("code"))
		assert.NotEmpty(t, r.URL.Query().Get("sign"))
		json.NewEncoder(w).Encode(tokenJSON("0", "granted-token", "granted-refresh", 604800))
	}))
	defer server.Close()

	tm, repo := newTestTokenManager(t, server.URL, nil)

	err := tm.ExchangeAuthorizationCode(context.Background(), "one-time-code")
	require.NoError(t, err)

	stored, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "granted-token", stored.AccessToken)
	assert.Equal(t, "granted-refresh", stored.RefreshToken)
	assert.True(t, stored.ExpiresAt.After(time.Now().Add(time.Hour)))
}

func TestExchangeAuthorizationCodeRejectedStoresNothing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code":    "IncompleteSignature",
			"message": "The request signature does not conform to platform standards",
		})
	}))
	defer server.Close()

	tm, repo := newTestTokenManager(t, server.URL, nil)

	err := tm.ExchangeAuthorizationCode(context.Background(), "bad-code")
	var exchangeFailed *apperrors.ErrAuthExchangeFailed
	require.ErrorAs(t, err, &exchangeFailed)

	stored, _ := repo.Load(context.Background())
	assert.Nil(t, stored)
}

func TestAuthorized(t *testing.T) {
	tm, repo := newTestTokenManager(t, "http://unused.invalid", nil)

	authorized, err := tm.Authorized(context.Background())
	require.NoError(t, err)
	assert.False(t, authorized)

	repo.Replace(context.Background(), &domain.Credential{
		AccessToken:  "tok",
		RefreshToken: "ref",
		ExpiresAt:    time.Now().Add(time.Hour),
	})
	authorized, err = tm.Authorized(context.Background())
	require.NoError(t, err)
	assert.True(t, authorized)

	repo.Replace(context.Background(), &domain.Credential{
		AccessToken:  "tok",
		RefreshToken: "ref",
		ExpiresAt:    time.Now().Add(-time.Second),
	})
	authorized, err = tm.Authorized(context.Background())
	require.NoError(t, err)
	assert.False(t, authorized)
}

func TestAuthorizationURL(t *testing.T) {
	tm, _ := newTestTokenManager(t, "http://unused.invalid", nil)

	u := tm.AuthorizationURL("random-state")
	assert.Contains(t, u, "https://auth.lazada.com/oauth/authorize?")
	assert.Contains(t, u, "client_id=100132")
	assert.Contains(t, u, "response_type=code")
	assert.Contains(t, u, "state=random-state")
	assert.Contains(t, u, "redirect_uri=https%3A%2F%2Fexample.com%2Flazada%2Fcallback")
}
