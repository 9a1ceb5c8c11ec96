package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"agricoop-backend/internal/domain"
	"agricoop-backend/internal/service"
)

type ApprovalHandler struct {
	svc service.ApprovalService
}

func (h *ApprovalHandler) CreateApplication(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathID(r, "orgID")
	if err != nil {
		writeError(w, err)
		return
	}
	var app domain.MemberApplication
	if err := json.NewDecoder(r.Body).Decode(&app); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", domain.ErrValidation))
		return
	}
	app.OrgID = orgID
	if err := h.svc.CreateApplication(r.Context(), actorFrom(r.Context()), &app); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

func (h *ApprovalHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathID(r, "orgID")
	if err != nil {
		writeError(w, err)
		return
	}
	status := domain.ApplicationStatus(r.URL.Query().Get("status"))
	apps, err := h.svc.ListApplications(r.Context(), orgID, status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *ApprovalHandler) ApproveApplication(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathID(r, "orgID")
	if err != nil {
		writeError(w, err)
		return
	}
	applicationID, err := pathID(r, "applicationID")
	if err != nil {
		writeError(w, err)
		return
	}
	member, err := h.svc.ApproveApplication(r.Context(), actorFrom(r.Context()), orgID, applicationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (h *ApprovalHandler) RejectApplication(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathID(r, "orgID")
	if err != nil {
		writeError(w, err)
		return
	}
	applicationID, err := pathID(r, "applicationID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req reasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", domain.ErrValidation))
		return
	}
	if err := h.svc.RejectApplication(r.Context(), actorFrom(r.Context()), orgID, applicationID, req.Reason); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createJoinCodeRequest struct {
	TTLDays int `json:"ttl_days"`
}

func (h *ApprovalHandler) CreateJoinCode(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathID(r, "orgID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req createJoinCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", domain.ErrValidation))
		return
	}
	code, err := h.svc.CreateJoinCode(r.Context(), actorFrom(r.Context()), orgID, time.Duration(req.TTLDays)*24*time.Hour)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, code)
}

func (h *ApprovalHandler) SubmitJoinRequest(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	var req domain.JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", domain.ErrValidation))
		return
	}
	if err := h.svc.SubmitJoinRequest(r.Context(), code, &req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *ApprovalHandler) ListJoinRequests(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathID(r, "orgID")
	if err != nil {
		writeError(w, err)
		return
	}
	status := domain.JoinRequestStatus(r.URL.Query().Get("status"))
	reqs, err := h.svc.ListJoinRequests(r.Context(), orgID, status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

func (h *ApprovalHandler) ApproveJoinRequest(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathID(r, "orgID")
	if err != nil {
		writeError(w, err)
		return
	}
	requestID, err := pathID(r, "requestID")
	if err != nil {
		writeError(w, err)
		return
	}
	member, err := h.svc.ApproveJoinRequest(r.Context(), actorFrom(r.Context()), orgID, requestID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (h *ApprovalHandler) RejectJoinRequest(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathID(r, "orgID")
	if err != nil {
		writeError(w, err)
		return
	}
	requestID, err := pathID(r, "requestID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req reasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", domain.ErrValidation))
		return
	}
	if err := h.svc.RejectJoinRequest(r.Context(), actorFrom(r.Context()), orgID, requestID, req.Reason); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
