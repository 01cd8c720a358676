package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pathlight-web/internal/apiclient"
	"pathlight-web/internal/container"
	"pathlight-web/internal/dashboard"
	"pathlight-web/internal/domain"
	"pathlight-web/internal/middleware"
	"pathlight-web/pkg/errors"
)

// CourseHandler proxies the course and quiz endpoints
type CourseHandler struct {
	responder
	api       *apiclient.Client
	dashboard *dashboard.Service
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(c *container.Container) *CourseHandler {
	return &CourseHandler{
		responder: responder{guard: c.Guard, logger: c.Logger},
		api:       c.API,
		dashboard: c.Dashboard,
	}
}

func (h *CourseHandler) client(r *http.Request) *apiclient.Client {
	return h.api.For(middleware.StoreFromContext(r.Context()))
}

// invalidate drops the cached dashboard after calls that change progress
func (h *CourseHandler) invalidate(r *http.Request, env *apiclient.Envelope) {
	if env.OK() {
		_, tok := storeAndToken(r)
		h.dashboard.Invalidate(r.Context(), tok)
	}
}

func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	h.envelope(w, r, apiclient.CallGeneric, h.client(r).ListCourses(r.Context(), r.URL.Query()))
}

func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	h.envelope(w, r, apiclient.CallGeneric, h.client(r).GetCourse(r.Context(), chi.URLParam(r, "id")))
}

func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	body, appErr := rawBody(w, r)
	if appErr != nil {
		h.error(w, r, appErr)
		return
	}
	h.envelope(w, r, apiclient.CallGeneric, h.client(r).CreateCourse(r.Context(), body))
}

func (h *CourseHandler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	body, appErr := rawBody(w, r)
	if appErr != nil {
		h.error(w, r, appErr)
		return
	}
	h.envelope(w, r, apiclient.CallGeneric, h.client(r).UpdateCourse(r.Context(), chi.URLParam(r, "id"), body))
}

func (h *CourseHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	env := h.client(r).DeleteCourse(r.Context(), chi.URLParam(r, "id"))
	h.invalidate(r, env)
	h.envelope(w, r, apiclient.CallGeneric, env)
}

// Enroll handles POST /api/courses/{id}/enroll
func (h *CourseHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	env := h.client(r).Enroll(r.Context(), chi.URLParam(r, "id"))
	h.invalidate(r, env)
	h.envelope(w, r, apiclient.CallGeneric, env)
}

func (h *CourseHandler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	h.envelope(w, r, apiclient.CallGeneric, h.client(r).ListQuizzes(r.Context(), r.URL.Query()))
}

func (h *CourseHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	h.envelope(w, r, apiclient.CallGeneric, h.client(r).GetQuiz(r.Context(), chi.URLParam(r, "id")))
}

func (h *CourseHandler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	body, appErr := rawBody(w, r)
	if appErr != nil {
		h.error(w, r, appErr)
		return
	}
	h.envelope(w, r, apiclient.CallGeneric, h.client(r).CreateQuiz(r.Context(), body))
}

func (h *CourseHandler) UpdateQuiz(w http.ResponseWriter, r *http.Request) {
	body, appErr := rawBody(w, r)
	if appErr != nil {
		h.error(w, r, appErr)
		return
	}
	h.envelope(w, r, apiclient.CallGeneric, h.client(r).UpdateQuiz(r.Context(), chi.URLParam(r, "id"), body))
}

func (h *CourseHandler) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	h.envelope(w, r, apiclient.CallGeneric, h.client(r).DeleteQuiz(r.Context(), chi.URLParam(r, "id")))
}

// SubmitQuiz handles POST /api/quizzes/{id}/submit
func (h *CourseHandler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	var submission domain.QuizSubmission
	if appErr := decodeJSON(w, r, &submission); appErr != nil {
		h.error(w, r, appErr)
		return
	}
	if len(submission.Answers) == 0 {
		h.error(w, r, errors.NewValidationError("Bài làm chưa có câu trả lời nào", nil))
		return
	}

	env := h.client(r).SubmitQuiz(r.Context(), chi.URLParam(r, "id"), submission)
	h.invalidate(r, env)
	h.envelope(w, r, apiclient.CallGeneric, env)
}

func (h *CourseHandler) QuizResult(w http.ResponseWriter, r *http.Request) {
	h.envelope(w, r, apiclient.CallGeneric, h.client(r).QuizResult(r.Context(), chi.URLParam(r, "id")))
}

func (h *CourseHandler) QuizHistory(w http.ResponseWriter, r *http.Request) {
	h.envelope(w, r, apiclient.CallGeneric, h.client(r).QuizHistory(r.Context()))
}
