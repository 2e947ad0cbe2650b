package models

import "time"

// WhoopCredential stores the OAuth credential for a user's Whoop connection.
// At most one live credential exists per user; refresh rotates the token pair
// in place and an unrefreshable credential is deleted outright.
type WhoopCredential struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;uniqueIndex"` // Owning user ID.

	AccessToken  string    `gorm:"type:text;not null"` // OAuth access token.
	RefreshToken string    `gorm:"type:text;not null"` // OAuth refresh token.
	ExpiresAt    time.Time `gorm:"not null"`           // Access token expiry.

	WhoopUserID *int64 `gorm:"type:bigint"` // Whoop-side user ID, when known.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName overrides the default table name.
func (WhoopCredential) TableName() string {
	return "whoop_credentials"
}
