package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the login identity behind a customer.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"size:140;uniqueIndex;not null" json:"email"`
	FirstName string    `gorm:"size:140" json:"first_name"`
	LastName  string    `gorm:"size:140" json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
}

type Customer struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Phone     string    `gorm:"size:20" json:"phone,omitempty"`
	Address   string    `gorm:"size:255" json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Visitor identifies whoever is making a request. UserID is uuid.Nil for
// anonymous visitors, who are told apart by SessionKey.
type Visitor struct {
	UserID     uuid.UUID
	SessionKey string
}

func (v Visitor) Authenticated() bool { return v.UserID != uuid.Nil }
