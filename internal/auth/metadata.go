package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
)

const (
	metadataMaxTries      = 5
	metadataTriesInterval = 2000 * time.Millisecond
)

// TokenService is the platform-provided collaborator the instance-metadata
// credential variant delegates to. Initialize is called once, before the
// first poll; implementations that need no warm-up return nil from it.
type TokenService interface {
	GetToken(ctx context.Context) (string, error)
	Initialize(ctx context.Context) error
}

// MetadataCredentials polls a platform token service until a token becomes
// available, per §4.1: invoke Initialize once if no token is cached yet,
// then poll up to MAX_TRIES at TRIES_INTERVAL.
type MetadataCredentials struct {
	service  TokenService
	database string

	mu          sync.Mutex
	initialized bool
	cachedToken string
}

func NewMetadataCredentials(service TokenService, database string) *MetadataCredentials {
	return &MetadataCredentials{service: service, database: database}
}

func (c *MetadataCredentials) GetAuthMetadata(ctx context.Context) (map[string]string, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		AuthHeaderTicket:   token,
		AuthHeaderDatabase: c.database,
	}, nil
}

func (c *MetadataCredentials) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cachedToken != "" {
		if token, err := c.service.GetToken(ctx); err == nil && token != "" {
			c.cachedToken = token
			return token, nil
		}
	}

	if !c.initialized {
		c.initialized = true
		if err := c.service.Initialize(ctx); err != nil {
			logx.WithContext(ctx).Errorf("metadata credentials: initialize failed (continuing to poll): %v", err)
		}
	}

	var lastErr error
	for try := 1; try <= metadataMaxTries; try++ {
		token, err := c.service.GetToken(ctx)
		if err == nil && token != "" {
			c.cachedToken = token
			return token, nil
		}
		lastErr = err
		if try == metadataMaxTries {
			break
		}

		timer := time.NewTimer(metadataTriesInterval)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		}
		timer.Stop()
	}

	return "", fmt.Errorf("metadata credentials: no token available after %d tries: %w", metadataMaxTries, lastErr)
}
