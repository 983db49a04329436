// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import "github.com/exlog/exlog/internal/model"

// CreateUserRequest is the JSON body of POST /api/users.
type CreateUserRequest struct {
	Username string `json:"username"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	Username string `json:"username"`
	ID       string `json:"_id"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToUserResponse converts a User model to UserResponse DTO.
func ToUserResponse(user *model.User) UserResponse {
	return UserResponse{
		Username: user.Username,
		ID:       user.ID,
	}
}

// ToUserListResponse converts users, always yielding a non-nil slice.
func ToUserListResponse(users []*model.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, ToUserResponse(u))
	}
	return out
}
