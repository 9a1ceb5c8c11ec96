package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"agricoop-backend/internal/service"
)

type AuditHandler struct {
	svc service.AuditService
}

// ListMemberHistory returns recent audit entries newest first. The "before"
// query parameter pages further back for the "show more" expansion.
func (h *AuditHandler) ListMemberHistory(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathID(r, "orgID")
	if err != nil {
		writeError(w, err)
		return
	}
	memberCode := mux.Vars(r)["memberCode"]
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	before, _ := strconv.ParseInt(r.URL.Query().Get("before"), 10, 64)

	entries, err := h.svc.ListMemberHistory(r.Context(), orgID, memberCode, int32(limit), before)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
