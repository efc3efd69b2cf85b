package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"dailyq-backend/internal/services"
)

// UnlockHandler serves the external scheduled caller (a cron hitting
// POST /api/v1/unlock with a shared bearer secret).
type UnlockHandler struct {
	unlockService *services.UnlockService
	cronSecret    string
}

func NewUnlockHandler(unlockService *services.UnlockService, cronSecret string) *UnlockHandler {
	return &UnlockHandler{unlockService: unlockService, cronSecret: cronSecret}
}

func (h *UnlockHandler) CronUnlock(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	expected := "Bearer " + h.cronSecret
	if h.cronSecret == "" || subtle.ConstantTimeCompare([]byte(auth), []byte(expected)) != 1 {
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "Invalid cron secret", r))
		return
	}

	result, err := h.unlockService.TryUnlock(r.Context(), time.Now().UTC())
	if err != nil {
		var notFound *services.NotFoundError
		if errors.As(err, &notFound) {
			writeJSON(w, http.StatusOK, map[string]string{"message": "No active session"})
			return
		}
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "batch processed",
		"result":  result,
	})
}
