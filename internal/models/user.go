package models

// User represents an account owned by the external identity provider.
//
// The ID is the provider's subject claim. Users are upserted on sync; nothing
// here stores credentials.
type User struct {
	// ID is the identity provider's subject identifier.
	ID string

	// Email is the user's email address as reported by the provider.
	Email string

	// Name is the display name.
	Name string

	// ImageURL is an optional avatar URL.
	ImageURL string

	// CreatedAt is the Unix timestamp of the first sync.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the latest sync or profile change.
	UpdatedAt int64
}
