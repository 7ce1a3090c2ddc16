package api

type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"created_at"`
}

type GetProfileRequest struct{}

type GetProfileResponse struct {
	User *User `json:"user"`
}

type DeleteProfileRequest struct{}

type DeleteProfileResponse struct{}
