package models

import "time"

// Credentials are submitted to POST /auth/login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User is the authenticated operator.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AuthResponse is the backend login response.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// StoredSession is what the session store persists between restarts.
type StoredSession struct {
	Token     string    `json:"token" bson:"token"`
	User      User      `json:"user" bson:"user"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
	SavedAt   time.Time `json:"saved_at" bson:"saved_at"`
}
