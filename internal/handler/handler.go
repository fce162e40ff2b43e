// Package handler exposes the portal over HTTP: login and registration,
// report uploads, policy browsing and export, and user administration.
package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wrapborne/udaan1/internal/auth"
	"github.com/wrapborne/udaan1/internal/store"
)

const sessionCookie = "session_id"

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	store *store.Store
	auth  *auth.Service
	log   *zap.Logger
}

// NewHandler creates a Handler over the shared store and auth service.
func NewHandler(st *store.Store, as *auth.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: st, auth: as, log: logger}
}

// Routes wires every endpoint onto a router.
func (h *Handler) Routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
	r.HandleFunc("/register", h.Register).Methods(http.MethodPost)

	r.HandleFunc("/upload/register", h.UploadRegister).Methods(http.MethodPost)
	r.HandleFunc("/upload/premium", h.UploadPremium).Methods(http.MethodPost)

	r.HandleFunc("/policies", h.ListPolicies).Methods(http.MethodGet)
	r.HandleFunc("/policies/export", h.ExportPolicies).Methods(http.MethodGet)
	r.HandleFunc("/premium-summary", h.PremiumSummaryView).Methods(http.MethodGet)

	r.HandleFunc("/pending", h.ListPending).Methods(http.MethodGet)
	r.HandleFunc("/pending/{id:[0-9]+}/approve", h.ApprovePending).Methods(http.MethodPost)
	r.HandleFunc("/pending/{id:[0-9]+}", h.RejectPending).Methods(http.MethodDelete)

	r.HandleFunc("/users", h.ListUsers).Methods(http.MethodGet)
	r.HandleFunc("/users/{username}", h.UpdateUser).Methods(http.MethodPost)
	r.HandleFunc("/users/{username}", h.DeleteUser).Methods(http.MethodDelete)

	return r
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Warn("encoding response", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, msg string) {
	h.respondJSON(w, status, map[string]string{"error": msg})
}

// session resolves the caller's session from cookie or header.
// Writes a 401 and returns nil when there is none.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *auth.Session {
	id := r.Header.Get("X-Session-ID")
	if id == "" {
		if c, err := r.Cookie(sessionCookie); err == nil {
			id = c.Value
		}
	}
	if id != "" {
		if sess, ok := h.auth.Get(id); ok {
			return sess
		}
	}
	h.respondError(w, http.StatusUnauthorized, "login required")
	return nil
}

// adminSession is session plus an admin-or-superadmin role check.
func (h *Handler) adminSession(w http.ResponseWriter, r *http.Request) *auth.Session {
	sess := h.session(w, r)
	if sess == nil {
		return nil
	}
	if sess.Role != auth.RoleAdmin && sess.Role != auth.RoleSuperadmin {
		h.respondError(w, http.StatusForbidden, "admin access required")
		return nil
	}
	return sess
}

// tenantDB opens the tenant database the session is routed to.
func (h *Handler) tenantDB(w http.ResponseWriter, sess *auth.Session) *sql.DB {
	db, err := h.store.Tenant(sess.DOCode)
	if err != nil {
		h.log.Error("opening tenant database", zap.String("do_code", sess.DOCode), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "tenant database unavailable")
		return nil
	}
	return db
}

// Login authenticates and sets the session cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrLockedOut):
			h.respondError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, auth.ErrInvalidCredentials):
			h.respondError(w, http.StatusUnauthorized, err.Error())
		default:
			h.log.Error("login", zap.Error(err))
			h.respondError(w, http.StatusInternalServerError, "login failed")
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.respondJSON(w, http.StatusOK, map[string]string{
		"session_id":  sess.ID,
		"username":    sess.Username,
		"role":        sess.Role,
		"do_code":     sess.DOCode,
		"agency_code": sess.AgencyCode,
	})
}

// Logout drops the caller's session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}
	if err := h.auth.Logout(sess.ID); err != nil {
		h.respondError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Register queues a new account for approval.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username   string `json:"username"`
		Password   string `json:"password"`
		Role       string `json:"role"`
		Name       string `json:"name"`
		DOCode     string `json:"do_code"`
		AgencyCode string `json:"agency_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.auth.Register(auth.Registration{
		Username:   req.Username,
		Password:   req.Password,
		Role:       req.Role,
		Name:       req.Name,
		DOCode:     req.DOCode,
		AgencyCode: req.AgencyCode,
	})
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondJSON(w, http.StatusAccepted, map[string]string{
		"status": "registration submitted, awaiting approval",
	})
}
