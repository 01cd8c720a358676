package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) ListCourses(ctx context.Context, query url.Values) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: "/courses", Query: query})
}

func (c *Client) GetCourse(ctx context.Context, id string) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: coursePath(id)})
}

func (c *Client) CreateCourse(ctx context.Context, course interface{}) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: "/courses", Body: course})
}

func (c *Client) UpdateCourse(ctx context.Context, id string, course interface{}) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: coursePath(id), Body: course})
}

func (c *Client) DeleteCourse(ctx context.Context, id string) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: coursePath(id)})
}

// Enroll adds the signed-in user to a course
func (c *Client) Enroll(ctx context.Context, id string) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: coursePath(id) + "/enroll"})
}

func coursePath(id string) string {
	return "/courses/" + url.PathEscape(id)
}
