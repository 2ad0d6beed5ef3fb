package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticCredentialsReturnsFixedToken(t *testing.T) {
	c := NewStaticCredentials("tok-123", "/local")
	md, err := c.GetAuthMetadata(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-123", md[AuthHeaderTicket])
	assert.Equal(t, "/local", md[AuthHeaderDatabase])
}

func TestMemoryTokenCacheRoundTrips(t *testing.T) {
	c := &memoryTokenCache{}
	_, _, ok := c.Load(context.Background(), "k")
	assert.False(t, ok)

	now := time.Now()
	require.NoError(t, c.Store(context.Background(), "k", "tok", now, time.Minute))

	token, issuedAt, ok := c.Load(context.Background(), "k")
	assert.True(t, ok)
	assert.Equal(t, "tok", token)
	assert.WithinDuration(t, now, issuedAt, time.Millisecond)
}

func newTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestIAMJWTCredentialsExchangesAndCachesToken(t *testing.T) {
	key := newTestKey(t)
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		var body struct {
			JWT string `json:"jwt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		parsed, err := jwt.Parse(body.JWT, func(tok *jwt.Token) (any, error) {
			return &key.PublicKey, nil
		})
		require.NoError(t, err)
		claims := parsed.Claims.(jwt.MapClaims)
		assert.Equal(t, "sa-1", claims["iss"])
		assert.Equal(t, "ak-1", parsed.Header["kid"])

		_ = json.NewEncoder(w).Encode(map[string]string{"iamToken": "iam-token-1"})
	}))
	defer server.Close()

	c := NewIAMJWTCredentials(IAMJWTConfig{
		ServiceAccountID: "sa-1",
		AccessKeyID:      "ak-1",
		PrivateKey:       key,
		IAMEndpoint:      server.URL,
		Database:         "/local",
		TokenTTL:         time.Minute,
	})

	md, err := c.GetAuthMetadata(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "iam-token-1", md[AuthHeaderTicket])
	assert.Equal(t, "/local", md[AuthHeaderDatabase])
	assert.Equal(t, 1, requests)

	// A second call within TokenTTL must reuse the cached token.
	_, err = c.GetAuthMetadata(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, requests)
}

func TestIAMJWTCredentialsRefreshesAfterExpiry(t *testing.T) {
	key := newTestKey(t)
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_ = json.NewEncoder(w).Encode(map[string]string{"iamToken": "iam-token"})
	}))
	defer server.Close()

	c := NewIAMJWTCredentials(IAMJWTConfig{
		ServiceAccountID: "sa-1",
		AccessKeyID:      "ak-1",
		PrivateKey:       key,
		IAMEndpoint:      server.URL,
		Database:         "/local",
		TokenTTL:         time.Millisecond,
	})

	_, err := c.GetAuthMetadata(context.Background())
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = c.GetAuthMetadata(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, requests)
}

func TestIAMJWTCredentialsCollapsesConcurrentRefreshesIntoOneRequest(t *testing.T) {
	key := newTestKey(t)
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		time.Sleep(50 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]string{"iamToken": "iam-token"})
	}))
	defer server.Close()

	c := NewIAMJWTCredentials(IAMJWTConfig{
		ServiceAccountID: "sa-1",
		AccessKeyID:      "ak-1",
		PrivateKey:       key,
		IAMEndpoint:      server.URL,
		Database:         "/local",
		TokenTTL:         2 * time.Second,
	})

	const callers = 100
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			md, err := c.GetAuthMetadata(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "iam-token", md[AuthHeaderTicket])
		}()
	}

	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&requests))
}

type fakeTokenService struct {
	tokens      []string
	initErr     error
	initialized bool
}

func (f *fakeTokenService) Initialize(ctx context.Context) error {
	f.initialized = true
	return f.initErr
}

func (f *fakeTokenService) GetToken(ctx context.Context) (string, error) {
	if len(f.tokens) == 0 {
		return "", assertErr("no token")
	}
	tok := f.tokens[0]
	f.tokens = f.tokens[1:]
	return tok, nil
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

func TestMetadataCredentialsInitializesOnFirstUse(t *testing.T) {
	svc := &fakeTokenService{tokens: []string{"meta-token"}}
	c := NewMetadataCredentials(svc, "/local")

	md, err := c.GetAuthMetadata(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "meta-token", md[AuthHeaderTicket])
	assert.True(t, svc.initialized)
}
