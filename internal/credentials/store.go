// Package credentials persists per-user Whoop OAuth credentials. The store
// is the single owner of the whoop_credentials table: one live credential per
// user, upserted on user_id, deleted when a refresh irrecoverably fails.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vitalsync/vitalsync/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound indicates no credential is stored for the user.
var ErrNotFound = errors.New("credentials: not found")

// Store persists Whoop OAuth credentials via GORM.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore constructs a Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Get loads the credential for a user. Returns ErrNotFound when absent.
func (s *Store) Get(ctx context.Context, userID uint64) (*models.WhoopCredential, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("credential store: not initialized")
	}
	var row models.WhoopCredential
	if errFind := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("credential store: get: %w", errFind)
	}
	return &row, nil
}

// Put upserts the credential for a user, computing the expiry from
// expiresInSeconds. Passing a nil whoopUserID preserves any stored value.
func (s *Store) Put(ctx context.Context, userID uint64, accessToken, refreshToken string, expiresInSeconds int, whoopUserID *int64) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("credential store: not initialized")
	}
	if accessToken == "" || refreshToken == "" {
		return fmt.Errorf("credential store: empty token pair")
	}

	now := s.now().UTC()
	record := models.WhoopCredential{
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(time.Duration(expiresInSeconds) * time.Second),
		WhoopUserID:  whoopUserID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	assignments := []string{"access_token", "refresh_token", "expires_at", "updated_at"}
	if whoopUserID != nil {
		assignments = append(assignments, "whoop_user_id")
	}
	if errUpsert := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(assignments),
	}).Create(&record).Error; errUpsert != nil {
		return fmt.Errorf("credential store: upsert: %w", errUpsert)
	}
	return nil
}

// Delete removes the credential for a user. Deleting an absent credential is
// not an error.
func (s *Store) Delete(ctx context.Context, userID uint64) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("credential store: not initialized")
	}
	if errDelete := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.WhoopCredential{}).Error; errDelete != nil {
		return fmt.Errorf("credential store: delete: %w", errDelete)
	}
	return nil
}

// ConnectedUserIDs lists every user with a stored credential, in stable order.
func (s *Store) ConnectedUserIDs(ctx context.Context) ([]uint64, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("credential store: not initialized")
	}
	var ids []uint64
	if errFind := s.db.WithContext(ctx).
		Model(&models.WhoopCredential{}).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error; errFind != nil {
		return nil, fmt.Errorf("credential store: list users: %w", errFind)
	}
	return ids, nil
}
