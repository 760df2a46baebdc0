package model

import (
	"time"

	"github.com/google/uuid"
)

// Account is a registered identity. The ID is caller-supplied (an email
// address or a 10-digit phone number) and doubles as the login handle.
type Account struct {
	ID           string `gorm:"primaryKey;size:255"`
	PasswordHash string `gorm:"size:255;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Account) TableName() string { return "users" }

// Session is one live login. Deleting the row is the only revocation
// mechanism; rows carry no expiry of their own, freshness is enforced
// entirely by the token TTLs.
type Session struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID string    `gorm:"size:255;not null;index" json:"accountId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Session) TableName() string { return "sessions" }

// AccountView is the only shape of an Account that leaves the service.
// It has no hash field, so the password hash cannot leak through any
// serialization of it.
type AccountView struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

func (a Account) View() AccountView {
	return AccountView{ID: a.ID, CreatedAt: a.CreatedAt}
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	AccountID    string
	SessionID    uuid.UUID
}
