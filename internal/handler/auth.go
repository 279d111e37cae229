package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/volunteerhub/volunteerhub/internal/auth"
	"github.com/volunteerhub/volunteerhub/internal/model"
	"github.com/volunteerhub/volunteerhub/internal/store"
)

type AuthHandler struct {
	volunteerStore *store.VolunteerStore
	promoterStore  *store.PromoterStore
	sessionStore   *store.SessionStore
	cookieName     string
	logger         *slog.Logger
}

func NewAuthHandler(vs *store.VolunteerStore, ps *store.PromoterStore, ss *store.SessionStore, cookieName string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		volunteerStore: vs,
		promoterStore:  ps,
		sessionStore:   ss,
		cookieName:     cookieName,
		logger:         logger,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterVolunteer creates a volunteer account with a zero balance.
func (h *AuthHandler) RegisterVolunteer(w http.ResponseWriter, r *http.Request) {
	req, hash, ok := h.decodeRegister(w, r)
	if !ok {
		return
	}

	v, err := h.volunteerStore.Create(req.Name, req.Email, hash)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "email already registered"})
			return
		}
		h.logger.Error("create volunteer", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to register"})
		return
	}

	writeJSON(w, http.StatusCreated, v)
}

// RegisterPromoter creates a promoter account.
func (h *AuthHandler) RegisterPromoter(w http.ResponseWriter, r *http.Request) {
	req, hash, ok := h.decodeRegister(w, r)
	if !ok {
		return
	}

	p, err := h.promoterStore.Create(req.Name, req.Email, hash)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "email already registered"})
			return
		}
		h.logger.Error("create promoter", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to register"})
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

func (h *AuthHandler) decodeRegister(w http.ResponseWriter, r *http.Request) (registerRequest, string, bool) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return req, "", false
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name, email, and password are required"})
		return req, "", false
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to register"})
		return req, "", false
	}
	return req, string(hash), true
}

// LoginVolunteer authenticates a volunteer and issues a session.
func (h *AuthHandler) LoginVolunteer(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeLogin(w, r)
	if !ok {
		return
	}

	v, err := h.volunteerStore.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("get volunteer by email", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "login failed"})
		return
	}
	if v == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	hash, err := h.volunteerStore.GetPasswordHash(v.ID)
	if err != nil || bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	h.issueSession(w, model.SubjectVolunteer, v.ID)
}

// LoginPromoter authenticates a promoter and issues a session.
func (h *AuthHandler) LoginPromoter(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeLogin(w, r)
	if !ok {
		return
	}

	p, err := h.promoterStore.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("get promoter by email", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "login failed"})
		return
	}
	if p == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	hash, err := h.promoterStore.GetPasswordHash(p.ID)
	if err != nil || bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	h.issueSession(w, model.SubjectPromoter, p.ID)
}

func decodeLogin(w http.ResponseWriter, r *http.Request) (loginRequest, bool) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return req, false
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email and password are required"})
		return req, false
	}
	return req, true
}

func (h *AuthHandler) issueSession(w http.ResponseWriter, subjectType string, subjectID int64) {
	sess, err := h.sessionStore.Create(subjectType, subjectID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "login failed"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"token":        sess.Token,
		"subject_type": subjectType,
		"subject_id":   subjectID,
		"expires_at":   sess.ExpiresAt,
	})
}

// Logout deletes the current session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if id, ok := auth.FromContext(r.Context()); ok {
		if err := h.sessionStore.Delete(id.SessionID); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
