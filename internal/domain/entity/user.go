package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin     = "admin"
	RoleDeveloper = "developer"
)

// User representa un usuario del sistema. Los desarrolladores tienen una wallet Algorand.
type User struct {
	ID            string
	Email         string
	PasswordHash  string // bcrypt hash
	Name          string
	Role          string
	PublicAddress string
	Status        string // active, inactive
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
