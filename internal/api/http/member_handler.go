package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"agricoop-backend/internal/domain"
	"agricoop-backend/internal/service"
)

type MemberHandler struct {
	svc service.MemberService
}

func pathID(r *http.Request, name string) (int32, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", domain.ErrValidation, name)
	}
	return int32(id), nil
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathID(r, "orgID")
	if err != nil {
		writeError(w, err)
		return
	}
	var m domain.Member
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", domain.ErrValidation))
		return
	}
	m.OrgID = orgID
	created, err := h.svc.CreateDraft(r.Context(), actorFrom(r.Context()), &m)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathID(r, "orgID")
	if err != nil {
		writeError(w, err)
		return
	}
	memberID, err := pathID(r, "memberID")
	if err != nil {
		writeError(w, err)
		return
	}
	var m domain.Member
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", domain.ErrValidation))
		return
	}
	m.OrgID = orgID
	m.ID = memberID
	updated, err := h.svc.UpdateDraft(r.Context(), actorFrom(r.Context()), &m)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathID(r, "orgID")
	if err != nil {
		writeError(w, err)
		return
	}
	memberID, err := pathID(r, "memberID")
	if err != nil {
		writeError(w, err)
		return
	}
	m, err := h.svc.Get(r.Context(), orgID, memberID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathID(r, "orgID")
	if err != nil {
		writeError(w, err)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := domain.MemberStatus(r.URL.Query().Get("status"))

	members, total, err := h.svc.List(r.Context(), orgID, status, int32(page), int32(pageSize))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": members, "total": total})
}

func (h *MemberHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Submit)
}

func (h *MemberHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Approve)
}

func (h *MemberHandler) Suspend(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Suspend)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *MemberHandler) Reject(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathID(r, "orgID")
	if err != nil {
		writeError(w, err)
		return
	}
	memberID, err := pathID(r, "memberID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req reasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", domain.ErrValidation))
		return
	}
	m, err := h.svc.Reject(r.Context(), actorFrom(r.Context()), orgID, memberID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MemberHandler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, actor domain.Actor, orgID, memberID int32) (*domain.Member, error)) {
	orgID, err := pathID(r, "orgID")
	if err != nil {
		writeError(w, err)
		return
	}
	memberID, err := pathID(r, "memberID")
	if err != nil {
		writeError(w, err)
		return
	}
	m, err := op(r.Context(), actorFrom(r.Context()), orgID, memberID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
