package dto

import "github.com/projectcamp/ms-go-projects/app/entity"

// APIResponse is the envelope every endpoint returns, success and failure
// alike.
type APIResponse struct {
	Status  int    `json:"status"`
	Data    any    `json:"data"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

func NewResponse(status int, data any, message string) *APIResponse {
	return &APIResponse{
		Status:  status,
		Data:    data,
		Message: message,
		Success: status < 400,
	}
}

func NewError(status int, message string) *APIResponse {
	return NewResponse(status, nil, message)
}

// LoginResult is what a successful login or refresh produces. Tokens are
// also set as cookies by the controller; they are mirrored in the body for
// non-browser clients.
type LoginResult struct {
	User         *entity.PublicUser `json:"user,omitempty"`
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token"`
	ExpiresIn    int64              `json:"expires_in"`
}

// ProjectResponse is the wire shape of a project.
type ProjectResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedBy   string `json:"created_by"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// ProjectListItemResponse pairs a project with the caller's role and the
// member count.
type ProjectListItemResponse struct {
	Project     ProjectResponse `json:"project"`
	Role        string          `json:"role"`
	MemberCount int64           `json:"member_count"`
}

// MemberResponse is the wire shape of a project membership joined with the
// member's public user fields.
type MemberResponse struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FullName  string `json:"full_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}
