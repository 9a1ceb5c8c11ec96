package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"agricoop-backend/internal/domain"
	"agricoop-backend/internal/service"
)

type SeatHandler struct {
	svc service.SeatService
}

type assignSeatRequest struct {
	SeatType domain.SeatType `json:"seat_type"`
}

func (h *SeatHandler) Assign(w http.ResponseWriter, r *http.Request) {
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
	var req assignSeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", domain.ErrValidation))
		return
	}
	if err := h.svc.AssignSeat(r.Context(), actorFrom(r.Context()), orgID, memberID, req.SeatType); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"seat_type": string(req.SeatType)})
}

func (h *SeatHandler) Remove(w http.ResponseWriter, r *http.Request) {
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
	if err := h.svc.RemoveSeat(r.Context(), actorFrom(r.Context()), orgID, memberID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type poolSeatRequest struct {
	PoolID int32 `json:"pool_id"`
}

func (h *SeatHandler) AssignFromPool(w http.ResponseWriter, r *http.Request) {
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
	var req poolSeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", domain.ErrValidation))
		return
	}
	if err := h.svc.AssignFromPool(r.Context(), actorFrom(r.Context()), orgID, memberID, req.PoolID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"seat_type": domain.SeatTypeSponsored, "pool_id": req.PoolID})
}

func (h *SeatHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathID(r, "orgID")
	if err != nil {
		writeError(w, err)
		return
	}
	ledger, err := h.svc.GetLedger(r.Context(), orgID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ledger)
}

func (h *SeatHandler) CreatePool(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathID(r, "orgID")
	if err != nil {
		writeError(w, err)
		return
	}
	var pool domain.SponsorPool
	if err := json.NewDecoder(r.Body).Decode(&pool); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", domain.ErrValidation))
		return
	}
	pool.OrgID = orgID
	if err := h.svc.CreatePool(r.Context(), actorFrom(r.Context()), &pool); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pool)
}

func (h *SeatHandler) ListPools(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathID(r, "orgID")
	if err != nil {
		writeError(w, err)
		return
	}
	pools, err := h.svc.ListPools(r.Context(), orgID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pools)
}
