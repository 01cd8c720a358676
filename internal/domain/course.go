package domain

import "time"

// Course is the dashboard's view of a course
type Course struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Thumbnail   string  `json:"thumbnail,omitempty"`
	Progress    float64 `json:"progress"`
}

// QuizResult is one attempt summary
type QuizResult struct {
	QuizID      string     `json:"quiz_id"`
	QuizTitle   string     `json:"quiz_title,omitempty"`
	Score       float64    `json:"score"`
	Total       float64    `json:"total"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

// QuizAnswer pairs a question with the chosen option
type QuizAnswer struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

// QuizSubmission is the body of /quizzes/{id}/submit
type QuizSubmission struct {
	Answers []QuizAnswer `json:"answers"`
}
