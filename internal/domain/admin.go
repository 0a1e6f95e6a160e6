package domain

import (
	"time"

	"github.com/google/uuid"
)

// Admin is a back-office user. The password hash never leaves the server.
type Admin struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Name         string    `json:"name" db:"name"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// AdminSummary is the public view of an admin returned by auth endpoints.
type AdminSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (a *Admin) Summary() AdminSummary {
	return AdminSummary{ID: a.ID.String(), Email: a.Email, Name: a.Name}
}
