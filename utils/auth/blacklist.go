package auth

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/utils/cache"
)

// Revocation reasons stored with each revoked token
const (
	ReasonLogout  = "logout"
	ReasonRotated = "refresh_rotated"
)

// BlacklistService handles JWT token revocation. Revoked token IDs are kept
// in the cache for fast lookups and in revoked_tokens so a cache restart
// does not resurrect them. RevokeAllUserTokens bumps the user's token
// version instead.
type BlacklistService struct {
	db    *gorm.DB
	cache cache.Store
}

// NewBlacklistService creates a new blacklist service
func NewBlacklistService(db *gorm.DB, store cache.Store) *BlacklistService {
	return &BlacklistService{db: db, cache: store}
}

// RevokeToken blacklists a token ID until expiresAt
func (s *BlacklistService) RevokeToken(ctx context.Context, jti string, userID uint, expiresAt time.Time, reason string) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	row := model.RevokedToken{TokenID: jti, UserID: userID, Reason: reason, ExpiresAt: expiresAt}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return err
	}
	return s.cache.Set(ctx, fmtKey(jti), "1", ttl)
}

// IsTokenRevoked checks the cache first and falls back to the table
func (s *BlacklistService) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	hit, err := s.cache.Exists(ctx, fmtKey(jti))
	if err == nil && hit {
		return true, nil
	}

	var row model.RevokedToken
	err = s.db.WithContext(ctx).
		Where("token_id = ? AND expires_at > ?", jti, time.Now()).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	// Repopulate the cache for the next lookup
	_ = s.cache.Set(ctx, fmtKey(jti), "1", time.Until(row.ExpiresAt))
	return true, nil
}

// RevokeAllUserTokens increments user's token version to invalidate all tokens
func (s *BlacklistService) RevokeAllUserTokens(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("token_version", gorm.Expr("token_version + ?", 1)).
		Error
}

func fmtKey(jti string) string {
	return "auth:revoked:" + jti
}
