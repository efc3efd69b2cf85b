package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"dailyq-backend/internal/models"
	"dailyq-backend/internal/repository"
	"dailyq-backend/internal/services"
)

const maxImageBytes = 10 * 1024 * 1024 // 10MB

type AdminHandler struct {
	sessionService  *services.SessionService
	questionService *services.QuestionService
	unlockService   *services.UnlockService
	questionRepo    *repository.QuestionRepo
	activityRepo    *repository.ActivityRepo
}

func NewAdminHandler(
	sessionService *services.SessionService,
	questionService *services.QuestionService,
	unlockService *services.UnlockService,
	questionRepo *repository.QuestionRepo,
	activityRepo *repository.ActivityRepo,
) *AdminHandler {
	return &AdminHandler{
		sessionService:  sessionService,
		questionService: questionService,
		unlockService:   unlockService,
		questionRepo:    questionRepo,
		activityRepo:    activityRepo,
	}
}

func (h *AdminHandler) SetTarget(w http.ResponseWriter, r *http.Request) {
	var req models.SetTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	sess, err := h.sessionService.SetTarget(r.Context(), req.Target)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"session": sess})
}

func (h *AdminHandler) StartDay(w http.ResponseWriter, r *http.Request) {
	sess, result, err := h.sessionService.StartDay(r.Context(), time.Now().UTC())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": sess,
		"unlock":  result,
	})
}

func (h *AdminHandler) EndDay(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessionService.EndDay(r.Context(), time.Now().UTC())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"session": sess})
}

func (h *AdminHandler) UnlockNow(w http.ResponseWriter, r *http.Request) {
	result, err := h.unlockService.TryUnlock(r.Context(), time.Now().UTC())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if !result.Started {
		writeJSON(w, http.StatusConflict, errorResp("ILLEGAL_STATE", "Session has not started", r))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *AdminHandler) UploadQuestion(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > maxImageBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "Image exceeds 10MB limit", r))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)

	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "No file provided", r))
		return
	}
	defer file.Close()

	mimeType, err := sniffImage(file)
	if err != nil {
		if errors.Is(err, errUnsupportedImage) {
			writeJSON(w, http.StatusUnsupportedMediaType, errorResp("UNSUPPORTED_FORMAT", "Only image uploads are supported", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to read uploaded file", r))
		return
	}

	question, err := h.questionService.Upload(r.Context(), file, mimeType)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"question": question})
}

var errUnsupportedImage = errors.New("unsupported image format")

// sniffImage verifies the upload is an image by its magic bytes and rewinds
// the reader so the full content reaches storage. A failed rewind is an error:
// uploading from the current offset would store a truncated image.
func sniffImage(f io.ReadSeeker) (string, error) {
	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}

	mimeType := http.DetectContentType(buf[:n])
	if !strings.HasPrefix(mimeType, "image/") {
		return "", errUnsupportedImage
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return mimeType, nil
}

// Summary returns the active session, its questions by number and the latest
// activity feed for the admin dashboard.
func (h *AdminHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessionService.Active(r.Context())
	if err != nil {
		var notFound *services.NotFoundError
		if errors.As(err, &notFound) {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"session":   nil,
				"questions": []*models.Question{},
				"activity":  []*models.Activity{},
			})
			return
		}
		handleServiceError(w, r, err)
		return
	}

	questions, err := h.questionRepo.ListBySession(r.Context(), sess.ID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	activity, err := h.activityRepo.ListBySession(r.Context(), sess.ID, 50)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":   sess,
		"questions": questions,
		"activity":  activity,
	})
}
