package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_shop/internal/auth"
	"github.com/fjod/go_shop/internal/domain"
)

type AuthService interface {
	Signup(ctx context.Context, name, email, password string) (int64, error)
	Login(ctx context.Context, userID int64, password string) (*domain.User, *domain.Session, error)
	Logout(ctx context.Context, sess domain.Session) error
}

type TokenIssuer interface {
	GenerateAccessToken(p auth.Principal) (string, error)
}

type AuthHandler struct {
	auth    AuthService
	tokens  TokenIssuer
	timeout time.Duration
}

func NewAuthHandler(svc AuthService, tokens TokenIssuer, timeout time.Duration) *AuthHandler {
	return &AuthHandler{auth: svc, tokens: tokens, timeout: timeout}
}

type SignupRequestDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequestDTO struct {
	UserID   int64  `json:"user_id"`
	Password string `json:"password"`
}

type LoginResponseDTO struct {
	Token     string      `json:"token"`
	UserID    int64       `json:"user_id"`
	Role      domain.Role `json:"role"`
	SessionNo int64       `json:"session_no,omitempty"`
}

// POST /api/v1/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SignupRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := h.auth.Signup(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]int64{"user_id": id})
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	user, sess, err := h.auth.Login(ctx, req.UserID, req.Password)
	if err != nil {
		handleError(w, r, err)
		return
	}

	p := auth.Principal{UserID: user.ID, Role: user.Role}
	if sess != nil {
		p.SessionNo = sess.SessionNo
	}

	token, err := h.tokens.GenerateAccessToken(p)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, LoginResponseDTO{
		Token:     token,
		UserID:    p.UserID,
		Role:      p.Role,
		SessionNo: p.SessionNo,
	})
}

// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.auth.Logout(ctx, sessionFrom(r.Context())); err != nil {
		handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
