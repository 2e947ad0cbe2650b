package whoop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/vitalsync/vitalsync/internal/config"
	"github.com/vitalsync/vitalsync/internal/credentials"
)

// ErrNotConnected indicates the user has no usable Whoop credential. The
// caller must prompt re-authorization; there is nothing to retry.
var ErrNotConnected = errors.New("whoop: not connected")

// refreshMargin treats tokens expiring within this window as already expired,
// so in-flight requests never race a hard expiry.
const refreshMargin = 5 * time.Minute

// TokenSource hands out valid access tokens, refreshing expired credentials
// through the token endpoint. A credential whose refresh fails is deleted:
// it is permanently invalid and only a new authorization flow can replace it.
type TokenSource struct {
	store      *credentials.Store
	cfg        config.WhoopConfig
	httpClient *http.Client
	now        func() time.Time
	group      singleflight.Group
}

// NewTokenSource constructs a TokenSource.
func NewTokenSource(store *credentials.Store, cfg config.WhoopConfig) *TokenSource {
	return &TokenSource{
		store:      store,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		now:        time.Now,
	}
}

// AccessToken returns a valid access token for the user, refreshing first
// when the stored token expires within the margin. Returns ErrNotConnected
// when no credential exists or the refresh failed.
func (s *TokenSource) AccessToken(ctx context.Context, userID uint64) (string, error) {
	if s == nil || s.store == nil {
		return "", fmt.Errorf("token source: not initialized")
	}

	cred, errGet := s.store.Get(ctx, userID)
	if errGet != nil {
		if errors.Is(errGet, credentials.ErrNotFound) {
			return "", ErrNotConnected
		}
		return "", errGet
	}

	if cred.ExpiresAt.Sub(s.now()) >= refreshMargin {
		return cred.AccessToken, nil
	}

	// Concurrent callers for the same user share one refresh; refresh tokens
	// rotate, so duplicate refreshes would invalidate each other.
	token, errRefresh, _ := s.group.Do(strconv.FormatUint(userID, 10), func() (any, error) {
		return s.refresh(ctx, userID, cred.RefreshToken, cred.WhoopUserID)
	})
	if errRefresh != nil {
		return "", errRefresh
	}
	return token.(string), nil
}

// tokenResponse mirrors the OAuth token endpoint response.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

func (s *TokenSource) refresh(ctx context.Context, userID uint64, refreshToken string, whoopUserID *int64) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", s.cfg.ClientID)
	form.Set("client_secret", s.cfg.ClientSecret)

	parsed, errCall := s.callTokenEndpoint(ctx, form)
	if errCall != nil {
		log.WithError(errCall).WithField("user_id", userID).Warn("whoop: token refresh failed, deleting credential")
		if errDelete := s.store.Delete(ctx, userID); errDelete != nil {
			return "", errDelete
		}
		return "", ErrNotConnected
	}

	if errPut := s.store.Put(ctx, userID, parsed.AccessToken, parsed.RefreshToken, parsed.ExpiresIn, whoopUserID); errPut != nil {
		return "", errPut
	}
	return parsed.AccessToken, nil
}

func (s *TokenSource) callTokenEndpoint(ctx context.Context, form url.Values) (*tokenResponse, error) {
	req, errBuild := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.TokenURL, strings.NewReader(form.Encode()))
	if errBuild != nil {
		return nil, fmt.Errorf("whoop: token endpoint: build request: %w", errBuild)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, errDo := s.httpClient.Do(req)
	if errDo != nil {
		return nil, fmt.Errorf("whoop: token endpoint: request failed: %w", errDo)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("whoop: token endpoint: unexpected status %d", resp.StatusCode)
	}

	body, errRead := io.ReadAll(resp.Body)
	if errRead != nil {
		return nil, fmt.Errorf("whoop: token endpoint: read response: %w", errRead)
	}

	var parsed tokenResponse
	if errUnmarshal := json.Unmarshal(body, &parsed); errUnmarshal != nil {
		return nil, fmt.Errorf("whoop: token endpoint: decode response: %w", errUnmarshal)
	}
	if parsed.AccessToken == "" || parsed.RefreshToken == "" {
		return nil, fmt.Errorf("whoop: token endpoint: incomplete token pair")
	}
	return &parsed, nil
}
