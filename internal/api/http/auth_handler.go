package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"agricoop-backend/internal/config"
	"agricoop-backend/internal/domain"
	"agricoop-backend/internal/security"
)

// AuthHandler issues control-surface tokens for the admin accounts listed in
// configuration. Member-facing accounts live in the external user directory
// and never log in here.
type AuthHandler struct {
	tokens security.TokenManager
	cfg    *config.Config
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", domain.ErrValidation))
		return
	}
	for _, admin := range h.cfg.Admins {
		if !strings.EqualFold(admin.Email, req.Email) {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)) != nil {
			break
		}
		actor := domain.Actor{
			ID:    admin.ID,
			Email: admin.Email,
			Role:  domain.Role(admin.Role),
		}
		ttl := time.Duration(h.cfg.JWT.TokenExpiryMinute) * time.Minute
		token, err := h.tokens.Generate(actor, ttl)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, loginResponse{Token: token})
		return
	}
	writeError(w, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized))
}
