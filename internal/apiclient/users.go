package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"pathlight-web/internal/domain"
)

func (c *Client) Profile(ctx context.Context) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: "/api/users/profile"})
}

func (c *Client) UpdateProfile(ctx context.Context, update domain.ProfileUpdate) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: "/api/users/profile", Body: update})
}

// Me returns the signed-in user record
func (c *Client) Me(ctx context.Context) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: "/api/users/me"})
}

func (c *Client) Dashboard(ctx context.Context) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: "/api/users/dashboard"})
}

// UploadAvatar sends the image as multipart form data
func (c *Client) UploadAvatar(ctx context.Context, file *File) *Envelope {
	if file.FieldName == "" {
		file.FieldName = "avatar"
	}
	return c.Do(ctx, Request{Method: http.MethodPost, Path: "/api/users/avatar", File: file})
}

// AvatarByID looks up another user's avatar
func (c *Client) AvatarByID(ctx context.Context, userID string) *Envelope {
	return c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   "/api/users/avatar",
		Query:  url.Values{"user_id": []string{userID}},
	})
}

func (c *Client) NotifyTime(ctx context.Context) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: "/api/users/notify-time"})
}

func (c *Client) SetNotifyTime(ctx context.Context, req domain.NotifyTimeRequest) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: "/api/users/notify-time", Body: req})
}

// Activity returns per-day activity counts for the heatmap
func (c *Client) Activity(ctx context.Context) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: "/api/users/activity"})
}

// UsersByIDs resolves a batch of user ids in one call
func (c *Client) UsersByIDs(ctx context.Context, ids []string) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: "/api/users/users-by-ids", Body: domain.UsersByIDsRequest{IDs: ids}})
}
