package domain

import "time"

// User represents a user as returned by /api/users/me and /api/users/profile
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	FullName      string     `json:"full_name"`
	AvatarURL     string     `json:"avatar_url,omitempty"`
	Bio           string     `json:"bio,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	EmailVerified bool       `json:"email_verified"`
	NotifyTime    string     `json:"notify_time,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}

// ProfileUpdate carries the editable profile fields
type ProfileUpdate struct {
	FullName *string `json:"full_name,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Birthday *string `json:"birthday,omitempty"`
}

// NotifyTimeRequest sets the daily reminder time, "HH:MM" in the user's zone
type NotifyTimeRequest struct {
	NotifyTime string `json:"notify_time"`
}

// UsersByIDsRequest is the bulk lookup body
type UsersByIDsRequest struct {
	IDs []string `json:"ids"`
}

// ActivityDay is one day of learning activity
type ActivityDay struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}
