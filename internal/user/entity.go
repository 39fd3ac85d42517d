package user

import (
	"strings"
	"time"
)

type User struct {
	ID           string    `yaml:"id" json:"id"`
	Email        string    `yaml:"email" json:"email"`
	Name         string    `yaml:"name" json:"name"`
	PasswordHash string    `yaml:"password_hash" json:"-"`
	CreatedAt    time.Time `yaml:"created_at" json:"createdAt"`
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
