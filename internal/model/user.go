package model

import "time"

// User represents an application user record as stored in the `users` table.
// PasswordHash is empty for OAuth-only accounts; those users can only sign in
// through their federated provider.  Role is either "user" or "admin".
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Email        – unique, lowercased email address.
//	PasswordHash – bcrypt hashed password ("" for OAuth-only accounts).
//	Name         – display name.
//	Role         – authorization role ("user" or "admin").
//	Provider     – auth provider tag ("local" or an OAuth provider name).
//	IsActive     – whether the account is active.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Provider     string    `json:"provider"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Roles recognised by the authorization layer.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// IsAdmin reports whether the user bypasses ownership checks.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// FederatedCredential links one external OAuth identity (provider plus the
// provider-assigned id, unique together) to exactly one user.  The provider
// access and refresh tokens are stored AES-GCM sealed, never in plaintext.
type FederatedCredential struct {
	ID              uint64    `json:"id"`
	UserID          uint64    `json:"userId"`
	Provider        string    `json:"provider"`
	ProviderUserID  string    `json:"providerUserId"`
	AccessTokenEnc  string    `json:"-"`
	RefreshTokenEnc string    `json:"-"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each refresh
// token belongs to a user; only its SHA-256 hash is persisted.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
