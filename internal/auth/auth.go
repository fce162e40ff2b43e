// Package auth manages portal sessions and the registration/approval flow.
// Sessions live in process memory keyed by random IDs; accounts and the
// pending queue live in the central store.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wrapborne/udaan1/internal/store"
)

// Role names as stored in the users table.
const (
	RoleSuperadmin = "superadmin"
	RoleAdmin      = "admin"
	RoleAgent      = "agent"
)

// maxFailedAttempts locks a username out of password login until an admin
// resets it.
const maxFailedAttempts = 5

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrLockedOut          = errors.New("account locked after too many failed attempts")
	ErrSessionNotFound    = errors.New("session not found")
)

// Session is one logged-in user.
type Session struct {
	ID         string
	Username   string
	Role       string
	Name       string
	DOCode     string
	AgencyCode string
	LoginTime  time.Time
}

// Service authenticates users against the central store and tracks sessions.
type Service struct {
	store *store.Store
	log   *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewService(st *store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    st,
		log:      logger,
		sessions: make(map[string]*Session),
	}
}

// Login verifies credentials, enforces the failed-attempt lockout, and
// returns a fresh session.
func (s *Service) Login(username, password string) (*Session, error) {
	username = strings.ToUpper(strings.TrimSpace(username))
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	attempts, err := s.store.FailedAttempts(username)
	if err != nil {
		return nil, err
	}
	if attempts >= maxFailedAttempts {
		return nil, ErrLockedOut
	}

	user, err := s.store.CheckCredentials(username, password)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Failures only count against accounts that exist.
		if exists, err := s.store.UserExists(username); err == nil && exists {
			if err := s.store.LogFailedAttempt(username); err != nil {
				s.log.Warn("recording failed attempt", zap.String("username", username), zap.Error(err))
			}
		}
		return nil, ErrInvalidCredentials
	}

	if err := s.store.ResetFailedAttempts(username); err != nil {
		s.log.Warn("resetting failed attempts", zap.String("username", username), zap.Error(err))
	}

	sess := &Session{
		ID:         uuid.New().String(),
		Username:   user.Username,
		Role:       user.Role,
		Name:       user.Name,
		DOCode:     strings.ToUpper(strings.TrimSpace(user.DOCode)),
		AgencyCode: strings.ToUpper(strings.TrimSpace(user.AgencyCode)),
		LoginTime:  time.Now(),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.log.Info("user logged in", zap.String("username", sess.Username), zap.String("role", sess.Role))
	return sess, nil
}

// Logout drops a session.
func (s *Service) Logout(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	s.log.Info("user logged out", zap.String("username", sess.Username))
	return nil
}

// Get returns the session for an ID, if still live.
func (s *Service) Get(sessionID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	return sess, ok
}

// Registration is a signup request from the login page.
type Registration struct {
	Username   string
	Password   string
	Role       string
	Name       string
	DOCode     string
	AgencyCode string
}

// Register validates a signup and queues it for admin approval. Agents must
// name an existing DO and an agency code already present in that DO's data;
// admins claim a new DO code.
func (s *Service) Register(reg Registration) error {
	username := strings.ToUpper(strings.TrimSpace(reg.Username))
	doCode := strings.ToUpper(strings.TrimSpace(reg.DOCode))
	agencyCode := strings.ToUpper(strings.TrimSpace(reg.AgencyCode))

	if username == "" {
		return errors.New("username is required")
	}
	if strings.TrimSpace(reg.Password) == "" {
		return errors.New("password is required")
	}
	if len(strings.TrimSpace(reg.Password)) < 4 {
		return errors.New("password must be at least 4 characters")
	}
	if doCode == "" {
		return errors.New("DO code is required")
	}
	if reg.Role != RoleAdmin && reg.Role != RoleAgent {
		return fmt.Errorf("invalid role %q", reg.Role)
	}
	if reg.Role == RoleAgent && agencyCode == "" {
		return errors.New("agency code is required for agents")
	}

	exists, err := s.store.UserExists(username)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("username %s already exists", username)
	}

	pending := store.PendingUser{
		Username:   username,
		Password:   reg.Password,
		Role:       reg.Role,
		Name:       reg.Name,
		DOCode:     doCode,
		AgencyCode: agencyCode,
		DBName:     store.TenantDBName(doCode),
	}

	switch reg.Role {
	case RoleAgent:
		admin, err := s.store.GetAdminByDOCode(doCode)
		if err != nil {
			return err
		}
		if admin == nil {
			return fmt.Errorf("no admin found for DO code %s", doCode)
		}
		db, err := s.store.Tenant(doCode)
		if err != nil {
			return err
		}
		codes, err := s.store.AgencyCodes(db)
		if err != nil {
			return err
		}
		known := false
		for _, c := range codes {
			if c == agencyCode {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("agency code %s not found under DO %s", agencyCode, doCode)
		}
		pending.AdminUsername = admin.Username

	case RoleAdmin:
		admin, err := s.store.GetAdminByDOCode(doCode)
		if err != nil {
			return err
		}
		if admin != nil {
			return fmt.Errorf("DO code %s is already registered to %s", doCode, admin.Username)
		}
	}

	if err := s.store.AddPendingUser(pending); err != nil {
		return err
	}
	s.log.Info("registration queued",
		zap.String("username", username),
		zap.String("role", reg.Role),
		zap.String("do_code", doCode))
	return nil
}
