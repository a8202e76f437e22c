package model

import (
    "database/sql"
    "time"
)

// User represents an application user record as stored in the `users`
// table.  Username is the display name handed out with the session; the
// email is the login identifier and is unique.
type User struct {
    ID           uint64    `db:"id"`
    Email        string    `db:"email"`
    Username     string    `db:"username"`
    PasswordHash string    `db:"password_hash"`
    IsActive     bool      `db:"is_active"`
    CreatedAt    time.Time `db:"created_at"`
    UpdatedAt    time.Time `db:"updated_at"`
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is never stored; only its SHA‑256 hash.
type RefreshToken struct {
    ID        uint64       `db:"id"`
    UserID    uint64       `db:"user_id"`
    TokenHash string       `db:"token_hash"`
    ExpiresAt time.Time    `db:"expires_at"`
    RevokedAt sql.NullTime `db:"revoked_at"`
    CreatedAt time.Time    `db:"created_at"`
}
