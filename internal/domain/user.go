package domain

// User is the caller identity carried by the bearer token. Users are
// referenced by id, never stored.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
