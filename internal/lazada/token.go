package lazada

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kelvintan1101/erp/internal/config"
	"github.com/kelvintan1101/erp/internal/domain"
	"github.com/kelvintan1101/erp/internal/repository"
	apperrors "github.com/kelvintan1101/erp/pkg/errors"
)

const (
	authTokenCreatePath  = "/auth/token/create"
	authTokenRefreshPath = "/auth/token/refresh"
)

// TokenManager owns the Lazada OAuth credential lifecycle: the
// authorization-code exchange, refresh-before-expiry, and handing a valid
// access token to the API client. It is the one shared mutable resource
// across a sync batch; concurrent refreshes are collapsed into a single
// in-flight call.
type TokenManager struct {
	cfg        config.LazadaConfig
	creds      repository.CredentialRepository
	httpClient *http.Client
	logger     *zap.Logger
	group      singleflight.Group
	now        func() time.Time
}

// NewTokenManager creates a token manager backed by the credential store
func NewTokenManager(cfg config.LazadaConfig, creds repository.CredentialRepository, logger *zap.Logger) *TokenManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenManager{
		cfg:        cfg,
		creds:      creds,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		now:        time.Now,
	}
}

// ValidToken returns an access token that is valid at the time of the call.
// A non-expired stored token is returned as-is with no network traffic.
// An expired token triggers exactly one refresh, shared between concurrent
// callers; on rejection the stale credential stays in place so the next
// call retries.
func (m *TokenManager) ValidToken(ctx context.Context) (string, error) {
	cred, err := m.creds.Load(ctx)
	if err != nil {
		return "", err
	}
	if cred == nil {
		return "", &apperrors.ErrAuthRequired{}
	}
	if !cred.Expired(m.now()) {
		return cred.AccessToken, nil
	}

	token, err, _ := m.group.Do("refresh", func() (interface{}, error) {
		// Another caller may have finished a refresh while we waited for
		// Load; re-check before spending a refresh call.
		current, err := m.creds.Load(ctx)
		if err != nil {
			return "", err
		}
		if current == nil {
			return "", &apperrors.ErrAuthRequired{}
		}
		if !current.Expired(m.now()) {
			return current.AccessToken, nil
		}
		return m.refresh(ctx, current)
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

// ExchangeAuthorizationCode trades a one-time authorization code for a
// credential and stores it wholesale. Nothing is stored on failure.
func (m *TokenManager) ExchangeAuthorizationCode(ctx context.Context, code string) error {
	resp, err := m.callAuthEndpoint(ctx, authTokenCreatePath, map[string]string{"code": code})
	if err != nil {
		return &apperrors.ErrAuthExchangeFailed{Detail: err.Error()}
	}
	if resp.Code != "0" || resp.AccessToken == "" {
		return &apperrors.ErrAuthExchangeFailed{Detail: resp.failureDetail()}
	}

	cred := resp.toCredential(m.now(), "")
	if err := m.creds.Replace(ctx, cred); err != nil {
		return err
	}

	m.logger.Info("Lazada authorization completed",
		zap.Time("expires_at", cred.ExpiresAt),
	)
	return nil
}

// Authorized reports whether a non-expired credential is stored.
func (m *TokenManager) Authorized(ctx context.Context) (bool, error) {
	cred, err := m.creds.Load(ctx)
	if err != nil {
		return false, err
	}
	return cred != nil && !cred.Expired(m.now()), nil
}

// AuthorizationURL builds the Lazada authorization page URL with the given
// anti-forgery state token.
func (m *TokenManager) AuthorizationURL(state string) string {
	q := url.Values{}
	q.Set("client_id", m.cfg.AppKey)
	q.Set("response_type", "code")
	q.Set("redirect_uri", m.cfg.CallbackURL)
	q.Set("state", state)
	return m.cfg.AuthURL + "?" + q.Encode()
}

func (m *TokenManager) refresh(ctx context.Context, cred *domain.Credential) (string, error) {
	resp, err := m.callAuthEndpoint(ctx, authTokenRefreshPath, map[string]string{
		"refresh_token": cred.RefreshToken,
	})
	if err != nil {
		return "", &apperrors.ErrRefreshFailed{Detail: err.Error()}
	}
	if resp.Code != "0" || resp.AccessToken == "" {
		m.logger.Warn("Lazada rejected refresh token",
			zap.String("code", resp.Code),
			zap.String("message", resp.Message),
		)
		return "", &apperrors.ErrRefreshFailed{Detail: resp.failureDetail()}
	}

	newCred := resp.toCredential(m.now(), cred.RefreshToken)
	if err := m.creds.Replace(ctx, newCred); err != nil {
		return "", err
	}

	m.logger.Info("Lazada access token refreshed",
		zap.Time("expires_at", newCred.ExpiresAt),
	)
	return newCred.AccessToken, nil
}

// callAuthEndpoint issues a signed call to the auth-token endpoint family.
// That family always uses the HMAC-SHA256 convention with the API path
// prefixed to the base string, regardless of the configured general-API
// sign method.
func (m *TokenManager) callAuthEndpoint(ctx context.Context, apiPath string, extra map[string]string) (*tokenResponse, error) {
	params := map[string]string{
		"app_key":     m.cfg.AppKey,
		"timestamp":   strconv.FormatInt(m.now().UnixMilli(), 10),
		"sign_method": SignMethodSHA256,
	}
	for k, v := range extra {
		params[k] = v
	}
	params["sign"] = SignHMACSHA256(apiPath, params, m.cfg.AppSecret)

	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}

	endpoint := m.cfg.AuthBaseURL + apiPath + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(body))
	}

	return &tokenResp, nil
}

type tokenResponse struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	RequestID    string `json:"request_id"`
}

func (r *tokenResponse) failureDetail() string {
	if r.Message != "" {
		return fmt.Sprintf("code %s: %s", r.Code, r.Message)
	}
	return fmt.Sprintf("code %s: token missing from response", r.Code)
}

// toCredential builds the replacement credential triple. Lazada may omit a
// new refresh token on refresh; the previous one stays in force then.
func (r *tokenResponse) toCredential(now time.Time, previousRefreshToken string) *domain.Credential {
	refreshToken := r.RefreshToken
	if refreshToken == "" {
		refreshToken = previousRefreshToken
	}
	return &domain.Credential{
		AccessToken:  r.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(time.Duration(r.ExpiresIn) * time.Second),
	}
}
