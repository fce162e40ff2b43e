package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wrapborne/udaan1/internal/auth"
	"github.com/wrapborne/udaan1/internal/store"
)

func pendingMap(p store.PendingUser) map[string]any {
	return map[string]any{
		"id":          p.ID,
		"username":    p.Username,
		"role":        p.Role,
		"name":        p.Name,
		"do_code":     p.DOCode,
		"agency_code": p.AgencyCode,
	}
}

// ListPending returns registrations awaiting approval. Admins see only
// their own DO's agents; the superadmin sees everything.
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	sess := h.adminSession(w, r)
	if sess == nil {
		return
	}

	pending, err := h.store.ListPendingUsers()
	if err != nil {
		h.log.Error("listing pending users", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to load pending users")
		return
	}

	out := make([]map[string]any, 0, len(pending))
	for _, p := range pending {
		if sess.Role == auth.RoleAdmin && !strings.EqualFold(p.DOCode, sess.DOCode) {
			continue
		}
		out = append(out, pendingMap(p))
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"pending": out})
}

func (h *Handler) pendingByID(w http.ResponseWriter, r *http.Request, sess *auth.Session) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid pending id")
		return 0, false
	}
	if sess.Role == auth.RoleSuperadmin {
		return id, true
	}
	pending, err := h.store.ListPendingUsers()
	if err != nil {
		h.log.Error("listing pending users", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to load pending users")
		return 0, false
	}
	for _, p := range pending {
		if p.ID == id && strings.EqualFold(p.DOCode, sess.DOCode) {
			return id, true
		}
	}
	h.respondError(w, http.StatusNotFound, "pending registration not found")
	return 0, false
}

// ApprovePending promotes a queued registration to an active account.
func (h *Handler) ApprovePending(w http.ResponseWriter, r *http.Request) {
	sess := h.adminSession(w, r)
	if sess == nil {
		return
	}
	id, ok := h.pendingByID(w, r, sess)
	if !ok {
		return
	}

	u, err := h.store.ApprovePendingUser(id)
	if err != nil {
		h.log.Error("approving pending user", zap.Int64("id", id), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to approve registration")
		return
	}
	h.log.Info("registration approved",
		zap.String("username", u.Username),
		zap.String("role", u.Role),
		zap.String("approved_by", sess.Username))
	h.respondJSON(w, http.StatusOK, map[string]string{
		"status":   "approved",
		"username": u.Username,
	})
}

// RejectPending drops a queued registration without creating an account.
func (h *Handler) RejectPending(w http.ResponseWriter, r *http.Request) {
	sess := h.adminSession(w, r)
	if sess == nil {
		return
	}
	id, ok := h.pendingByID(w, r, sess)
	if !ok {
		return
	}

	if err := h.store.DeletePendingUser(id); err != nil {
		h.log.Error("rejecting pending user", zap.Int64("id", id), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to reject registration")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

// ListUsers returns the accounts the caller may manage. Admins see the
// agents of their own DO; the superadmin sees all accounts but itself.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	sess := h.adminSession(w, r)
	if sess == nil {
		return
	}

	users, err := h.store.ListUsers()
	if err != nil {
		h.log.Error("listing users", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to load users")
		return
	}

	out := make([]map[string]string, 0, len(users))
	for _, u := range users {
		if u.Username == sess.Username {
			continue
		}
		if sess.Role == auth.RoleAdmin {
			if u.Role != auth.RoleAgent || !strings.EqualFold(u.DOCode, sess.DOCode) {
				continue
			}
		} else if u.Role == auth.RoleSuperadmin {
			continue
		}
		out = append(out, map[string]string{
			"username":    u.Username,
			"role":        u.Role,
			"name":        u.Name,
			"start_date":  u.StartDate,
			"do_code":     u.DOCode,
			"agency_code": u.AgencyCode,
		})
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"users": out})
}

// manageableUser loads the named account and checks the caller may
// manage it: admins only their own DO's agents, nobody themselves.
func (h *Handler) manageableUser(w http.ResponseWriter, r *http.Request, sess *auth.Session) *store.User {
	username := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["username"]))
	u, err := h.store.GetUser(username)
	if err != nil {
		h.log.Error("loading user", zap.String("username", username), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to load user")
		return nil
	}
	if u == nil || u.Username == sess.Username {
		h.respondError(w, http.StatusNotFound, "user not found")
		return nil
	}
	if sess.Role == auth.RoleAdmin && (u.Role != auth.RoleAgent || !strings.EqualFold(u.DOCode, sess.DOCode)) {
		h.respondError(w, http.StatusForbidden, "cannot manage this user")
		return nil
	}
	if u.Role == auth.RoleSuperadmin {
		h.respondError(w, http.StatusForbidden, "cannot manage this user")
		return nil
	}
	return u
}

// UpdateUser changes an account's start date.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	sess := h.adminSession(w, r)
	if sess == nil {
		return
	}
	u := h.manageableUser(w, r, sess)
	if u == nil {
		return
	}

	var req struct {
		StartDate string `json:"start_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.StartDate) == "" {
		h.respondError(w, http.StatusBadRequest, "start_date is required")
		return
	}

	if err := h.store.UpdateUserStart(u.Username, strings.TrimSpace(req.StartDate)); err != nil {
		h.log.Error("updating user", zap.String("username", u.Username), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{
		"status":   "updated",
		"username": u.Username,
	})
}

// DeleteUser removes an account.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	sess := h.adminSession(w, r)
	if sess == nil {
		return
	}
	u := h.manageableUser(w, r, sess)
	if u == nil {
		return
	}

	if err := h.store.DeleteUser(u.Username); err != nil {
		h.log.Error("deleting user", zap.String("username", u.Username), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	h.log.Info("user deleted",
		zap.String("username", u.Username),
		zap.String("deleted_by", sess.Username))
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
