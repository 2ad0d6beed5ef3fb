package auth

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/syncx"

	"github.com/suleymanmyradov/ydb-go-driver/ydb/ydberr"
)

const (
	defaultJWTTTL         = time.Hour
	defaultTokenTTL       = 2 * time.Minute
	defaultRequestTimeout = 10 * time.Second
)

// TokenCache is the pluggable store behind the IAM credential's cached
// token. The in-process default is a plain mutex-guarded field; an optional
// Redis-backed implementation lets several driver processes share one IAM
// exchange (see RedisTokenCache).
type TokenCache interface {
	Load(ctx context.Context, key string) (token string, issuedAt time.Time, ok bool)
	Store(ctx context.Context, key, token string, issuedAt time.Time, ttl time.Duration) error
}

// memoryTokenCache is the zero-value-safe default TokenCache.
type memoryTokenCache struct {
	mu       sync.Mutex
	token    string
	issuedAt time.Time
}

func (c *memoryTokenCache) Load(_ context.Context, _ string) (string, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" {
		return "", time.Time{}, false
	}
	return c.token, c.issuedAt, true
}

func (c *memoryTokenCache) Store(_ context.Context, _ string, token string, issuedAt time.Time, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.issuedAt = issuedAt
	return nil
}

// IAMJWTConfig configures the service-account JWT exchange.
type IAMJWTConfig struct {
	ServiceAccountID string
	AccessKeyID      string
	PrivateKey       *rsa.PrivateKey
	IAMEndpoint      string
	Database         string

	JWTTTL         time.Duration
	TokenTTL       time.Duration
	RequestTimeout time.Duration

	Cache      TokenCache
	HTTPClient *http.Client
}

// IAMJWTCredentials signs a fresh service-account JWT and exchanges it for
// an IAM token whenever the cached one has expired, per §4.1. Concurrent
// callers during a refresh are collapsed onto a single IAM RPC via
// go-zero's single-flight dispatcher.
type IAMJWTCredentials struct {
	cfg IAMJWTConfig
	sf  syncx.SingleFlight
}

const iamCacheKey = "iam-token"

func NewIAMJWTCredentials(cfg IAMJWTConfig) *IAMJWTCredentials {
	if cfg.JWTTTL <= 0 {
		cfg.JWTTTL = defaultJWTTTL
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.Cache == nil {
		cfg.Cache = &memoryTokenCache{}
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	return &IAMJWTCredentials{cfg: cfg, sf: syncx.NewSingleFlight()}
}

func (c *IAMJWTCredentials) GetAuthMetadata(ctx context.Context) (map[string]string, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		AuthHeaderTicket:   token,
		AuthHeaderDatabase: c.cfg.Database,
	}, nil
}

func (c *IAMJWTCredentials) token(ctx context.Context) (string, error) {
	if cached, issuedAt, ok := c.cfg.Cache.Load(ctx, iamCacheKey); ok {
		if time.Since(issuedAt) <= c.cfg.TokenTTL {
			return cached, nil
		}
	}

	// Collapse concurrent refreshers onto one IAM RPC: DoEx reports whether
	// this call actually executed fn or rode along with an in-flight one.
	v, _, err := c.sf.DoEx(iamCacheKey, func() (any, error) {
		// Re-check under the single-flight key: another goroutine may have
		// refreshed the cache while we were waiting to be scheduled.
		if cached, issuedAt, ok := c.cfg.Cache.Load(ctx, iamCacheKey); ok {
			if time.Since(issuedAt) <= c.cfg.TokenTTL {
				return cached, nil
			}
		}
		return c.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *IAMJWTCredentials) refresh(ctx context.Context) (string, error) {
	assertion, err := c.signJWT()
	if err != nil {
		return "", fmt.Errorf("iam jwt: sign assertion: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	body, err := json.Marshal(map[string]string{"jwt": assertion})
	if err != nil {
		return "", fmt.Errorf("iam jwt: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.cfg.IAMEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("iam jwt: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", &ydberr.TransportError{Endpoint: c.cfg.IAMEndpoint, Cause: err}
	}
	defer resp.Body.Close()

	var out struct {
		IAMToken string `json:"iamToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("iam jwt: decode response: %w", err)
	}
	if out.IAMToken == "" {
		return "", &ydberr.EmptyPayloadError{Op: "iamJwt.exchange"}
	}

	now := time.Now()
	if err := c.cfg.Cache.Store(ctx, iamCacheKey, out.IAMToken, now, c.cfg.TokenTTL); err != nil {
		logx.WithContext(ctx).Errorf("iam jwt: cache store failed (continuing with in-memory token): %v", err)
	}
	return out.IAMToken, nil
}

func (c *IAMJWTCredentials) signJWT() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": c.cfg.ServiceAccountID,
		"aud": c.cfg.IAMEndpoint,
		"iat": now.Unix(),
		"exp": now.Add(c.cfg.JWTTTL).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodPS256, claims)
	tok.Header["kid"] = c.cfg.AccessKeyID
	return tok.SignedString(c.cfg.PrivateKey)
}
