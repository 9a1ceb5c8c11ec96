package http

import (
	"net/http"
	"strconv"

	"agricoop-backend/internal/service"
)

type NotificationHandler struct {
	svc service.NotificationService
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, err)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	notes, total, err := h.svc.List(r.Context(), userID, int32(page), int32(pageSize))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notes, "total": total})
}

func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, err)
		return
	}
	notificationID, err := pathID(r, "notificationID")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.MarkAsRead(r.Context(), userID, notificationID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
