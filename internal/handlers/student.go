package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"dailyq-backend/internal/middleware"
	"dailyq-backend/internal/models"
	"dailyq-backend/internal/repository"
	"dailyq-backend/internal/services"
)

type StudentHandler struct {
	sessionService  *services.SessionService
	questionService *services.QuestionService
	unlockService   *services.UnlockService
	questionRepo    *repository.QuestionRepo
}

func NewStudentHandler(
	sessionService *services.SessionService,
	questionService *services.QuestionService,
	unlockService *services.UnlockService,
	questionRepo *repository.QuestionRepo,
) *StudentHandler {
	return &StudentHandler{
		sessionService:  sessionService,
		questionService: questionService,
		unlockService:   unlockService,
		questionRepo:    questionRepo,
	}
}

// ListQuestions is the student poll. Each poll also nudges the unlock
// batcher, so a due batch is released even with no cron wired; the batcher's
// "too early" path keeps steady-state polls cheap.
func (h *StudentHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessionService.Active(r.Context())
	if err != nil {
		var notFound *services.NotFoundError
		if errors.As(err, &notFound) {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"session_id": nil,
				"questions":  []*models.Question{},
			})
			return
		}
		handleServiceError(w, r, err)
		return
	}

	result, err := h.unlockService.TryUnlock(r.Context(), time.Now().UTC())
	if err != nil {
		// Poll-triggered unlocks are best-effort; the listing below
		// still reflects a consistent committed state.
		result = services.UnlockResult{}
	}

	questions, err := h.questionRepo.ListBySession(r.Context(), sess.ID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id":       sess.ID,
		"started_at":       sess.StartedAt,
		"questions":        questions,
		"next_eligible_at": result.NextEligibleAt,
	})
}

func (h *StudentHandler) MarkViewed(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, h.questionService.MarkViewed)
}

func (h *StudentHandler) MarkCompleted(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, h.questionService.MarkCompleted)
}

func (h *StudentHandler) advance(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, studentID, questionID uuid.UUID) (*models.Question, error),
) {
	questionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid question ID", r))
		return
	}

	studentID := middleware.GetUserID(r.Context())
	question, err := fn(r.Context(), studentID, questionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"question": question})
}
