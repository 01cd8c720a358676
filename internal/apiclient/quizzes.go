package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"pathlight-web/internal/domain"
)

func (c *Client) ListQuizzes(ctx context.Context, query url.Values) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: "/quizzes", Query: query})
}

func (c *Client) GetQuiz(ctx context.Context, id string) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: quizPath(id)})
}

func (c *Client) CreateQuiz(ctx context.Context, quiz interface{}) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: "/quizzes", Body: quiz})
}

func (c *Client) UpdateQuiz(ctx context.Context, id string, quiz interface{}) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: quizPath(id), Body: quiz})
}

func (c *Client) DeleteQuiz(ctx context.Context, id string) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: quizPath(id)})
}

func (c *Client) SubmitQuiz(ctx context.Context, id string, submission domain.QuizSubmission) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: quizPath(id) + "/submit", Body: submission})
}

func (c *Client) QuizResult(ctx context.Context, id string) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: quizPath(id) + "/result"})
}

// QuizHistory lists the signed-in user's past attempts
func (c *Client) QuizHistory(ctx context.Context) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: "/quizzes/history"})
}

func quizPath(id string) string {
	return "/quizzes/" + url.PathEscape(id)
}
