package http

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"toolshub/internal/http/middleware"
	"toolshub/internal/logging"
	"toolshub/internal/users"
)

type AuthHandler struct {
	*Site
	Users        users.Store
	LoginLimiter *middleware.RateLimiter
}

func (h *AuthHandler) Routes(mux *http.ServeMux) {
	login := h.LoginLimiter.Limit(http.HandlerFunc(h.Login))
	mux.Handle("POST /login", login)
	mux.Handle("POST /api/v1/auth/login", login)
	mux.HandleFunc("POST /logout", h.Logout)
	mux.HandleFunc("POST /api/v1/auth/logout", h.Logout)
	mux.Handle("GET /api/v1/auth/me", middleware.RequireAuth(http.HandlerFunc(h.Me)))
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func isJSON(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "application/json"
}

// Login accepts either the home page form or a JSON body. Forms are answered
// with redirects, JSON with status codes.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	asJSON := isJSON(r)
	fail := func(status int, msg string) {
		if asJSON {
			http.Error(w, msg, status)
			return
		}
		http.Redirect(w, r, "/?login=failed", http.StatusSeeOther)
	}

	var req loginReq
	if asJSON {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			fail(http.StatusBadRequest, "bad form")
			return
		}
		req.Username = r.Form.Get("username")
		req.Password = r.Form.Get("password")
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		fail(http.StatusBadRequest, "missing credentials")
		return
	}

	u, err := h.Users.Authenticate(r.Context(), req.Username, req.Password)
	if errors.Is(err, users.ErrInvalidCredentials) {
		fail(http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		logging.From(r.Context()).Error("auth.login", "err", err)
		http.Error(w, "login error", http.StatusInternalServerError)
		return
	}

	if err := h.Sessions.SignIn(r.Context(), w, middleware.DeviceID(r), u); err != nil {
		logging.From(r.Context()).Error("auth.sign_in", "err", err)
		http.Error(w, "token error", http.StatusInternalServerError)
		return
	}
	logging.From(r.Context()).Info("auth.signed_in", "user", u.ID)

	if asJSON {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout goes through the header so that the session is ended the same way
// the header's Logout button does it.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	hd, release := h.newHeader(w, r, nil)
	defer release()
	if err := hd.Logout(r.Context()); err != nil {
		logging.From(r.Context()).Error("auth.logout", "err", err)
		http.Error(w, "logout error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Users.Lookup(r.Context(), middleware.UserID(r))
	if errors.Is(err, users.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.From(r.Context()).Error("auth.me", "err", err)
		http.Error(w, "lookup error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(u)
}
