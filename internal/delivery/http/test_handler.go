package http

import (
	"net/http"
	"time"

	"prepump-screener/internal/repository"
	"prepump-screener/internal/usecase"
)

// TestHandler sends a test push to every registered device.
type TestHandler struct {
	push      usecase.PushSender
	tokenRepo *repository.TokenRepository
}

func NewTestHandler(push usecase.PushSender, tokenRepo *repository.TokenRepository) *TestHandler {
	return &TestHandler{
		push:      push,
		tokenRepo: tokenRepo,
	}
}

// SendTestNotification handles POST /api/test-notification
func (h *TestHandler) SendTestNotification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.push == nil || !h.push.IsEnabled() {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"message": "FCM not configured",
		})
		return
	}

	tokens := h.tokenRepo.GetAllTokens()
	if len(tokens) == 0 {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"message": "No registered devices",
			"count":   0,
		})
		return
	}

	data := map[string]string{
		"type":      "test",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	err := h.push.SendMulticast(r.Context(), tokens, "Test Notification",
		"Pre-pump alerts are working on this device.", data)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"message": "Failed to send notification: " + err.Error(),
			"count":   len(tokens),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Test notification sent successfully",
		"count":   len(tokens),
	})
}
