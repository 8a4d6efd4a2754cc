package domain

import "time"

// User is a profile row keyed by the JWT subject. Token issuance happens
// outside this service; the profile only exists so tagged_user_email can
// resolve to an identity and so notification text can carry a display name.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
