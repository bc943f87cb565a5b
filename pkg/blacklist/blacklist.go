package blacklist

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "revoked:temp:"

// TempTokenBlacklist tracks MFA-pending tokens that were superseded by
// a resend. Tokens are stateless otherwise; this is the one spot where
// an issued token is withdrawn before its own expiry.
type TempTokenBlacklist struct {
	redis *redis.Client
}

func NewTempTokenBlacklist(redisClient *redis.Client) *TempTokenBlacklist {
	return &TempTokenBlacklist{redis: redisClient}
}

// Revoke marks a temp token as superseded. The marker lives only until
// the token's own expiry; an already expired token needs no marker.
func (b *TempTokenBlacklist) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := b.redis.Set(ctx, keyPrefix+token, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke temp token: %w", err)
	}
	return nil
}

// IsRevoked reports whether a temp token has been superseded.
func (b *TempTokenBlacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	exists, err := b.redis.Exists(ctx, keyPrefix+token).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check temp token revocation: %w", err)
	}
	return exists > 0, nil
}
