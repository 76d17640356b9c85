package domain

import "time"

// Admin is a back-office user able to manage quizzes and matches.
type Admin struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// AdminSession is the server-side record behind a session cookie. It is
// kept in a shared keyed store with TTL semantics so multiple instances
// see the same sessions.
type AdminSession struct {
	Token     string    `json:"token"`
	AdminID   string    `json:"admin_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginRequest carries admin credentials.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SetupRequest is the first-run installer payload.
type SetupRequest struct {
	AdminUsername  string `json:"admin_username"`
	AdminPassword  string `json:"admin_password"`
	LoadSampleData bool   `json:"load_sample_data"`
}
