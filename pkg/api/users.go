package api

// User is a synced identity-provider account.
type User struct {
	Id        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	ImageUrl  string `json:"image_url,omitempty"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// SyncUserRequest upserts the caller. Email and subject come from the token;
// Name and ImageUrl override the token claims when set.
type SyncUserRequest struct {
	Name     string `json:"name,omitempty"`
	ImageUrl string `json:"image_url,omitempty"`
}

type SyncUserResponse struct {
	User *User `json:"user"`
}

// GetProfileRequest looks up a user. An empty UserId means the caller.
type GetProfileRequest struct {
	UserId string `json:"user_id,omitempty"`
}

type GetProfileResponse struct {
	User *User `json:"user"`
}

// UpdateProfileRequest changes the caller's profile. Empty fields are left
// as they are.
type UpdateProfileRequest struct {
	Name     string `json:"name,omitempty"`
	ImageUrl string `json:"image_url,omitempty"`
}

type UpdateProfileResponse struct {
	User *User `json:"user"`
}

type GetUsersByIdsRequest struct {
	UserIds []string `json:"user_ids"`
}

// GetUsersByIdsResponse lists the users that exist, in request order.
type GetUsersByIdsResponse struct {
	Users []*User `json:"users"`
}
