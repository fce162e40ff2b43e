package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// User is one approved portal account.
type User struct {
	Username      string
	Password      string
	Role          string
	Name          string
	StartDate     string
	AdminUsername string
	DBName        string
	DOCode        string
	AgencyCode    string
}

// PendingUser is a registration awaiting approval.
type PendingUser struct {
	ID            int64
	Username      string
	Password      string
	Role          string
	Name          string
	AdminUsername string
	DBName        string
	DOCode        string
	AgencyCode    string
}

const userCols = `username, password, role, COALESCE(name, ''), COALESCE(start_date, ''),
	COALESCE(admin_username, ''), COALESCE(db_name, ''), COALESCE(do_code, ''), COALESCE(agency_code, '')`

func scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.Username, &u.Password, &u.Role, &u.Name, &u.StartDate,
		&u.AdminUsername, &u.DBName, &u.DOCode, &u.AgencyCode)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUser fetches a user by username (case-insensitive, stored upper).
func (s *Store) GetUser(username string) (*User, error) {
	row := s.Central.QueryRow("SELECT "+userCols+" FROM users WHERE username = ?",
		strings.ToUpper(strings.TrimSpace(username)))
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	return u, nil
}

// CheckCredentials returns the matching user, or nil when the pair is wrong.
func (s *Store) CheckCredentials(username, password string) (*User, error) {
	row := s.Central.QueryRow("SELECT "+userCols+" FROM users WHERE username = ? AND password = ?",
		strings.ToUpper(strings.TrimSpace(username)), password)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checking credentials: %w", err)
	}
	return u, nil
}

// UserExists reports whether a username is already taken.
func (s *Store) UserExists(username string) (bool, error) {
	var n int
	err := s.Central.QueryRow("SELECT COUNT(*) FROM users WHERE username = ?",
		strings.ToUpper(strings.TrimSpace(username))).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking username: %w", err)
	}
	return n > 0, nil
}

// AddUser inserts an approved account.
func (s *Store) AddUser(u User) error {
	_, err := s.Central.Exec(`
		INSERT INTO users (username, password, role, name, start_date, admin_username, db_name, do_code, agency_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.ToUpper(strings.TrimSpace(u.Username)), u.Password, u.Role, u.Name,
		u.StartDate, u.AdminUsername, u.DBName, u.DOCode, u.AgencyCode)
	if err != nil {
		return fmt.Errorf("adding user: %w", err)
	}
	return nil
}

// DeleteUser removes an account.
func (s *Store) DeleteUser(username string) error {
	_, err := s.Central.Exec("DELETE FROM users WHERE username = ?",
		strings.ToUpper(strings.TrimSpace(username)))
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}

// ListUsers returns every account, superadmin included.
func (s *Store) ListUsers() ([]User, error) {
	rows, err := s.Central.Query("SELECT " + userCols + " FROM users ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Username, &u.Password, &u.Role, &u.Name, &u.StartDate,
			&u.AdminUsername, &u.DBName, &u.DOCode, &u.AgencyCode); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetAdminByDOCode finds the admin owning a divisional office.
func (s *Store) GetAdminByDOCode(doCode string) (*User, error) {
	row := s.Central.QueryRow("SELECT "+userCols+" FROM users WHERE role = 'admin' AND do_code = ?",
		strings.ToUpper(strings.TrimSpace(doCode)))
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching admin by DO code: %w", err)
	}
	return u, nil
}

// UpdateUserStart changes an account's start date.
func (s *Store) UpdateUserStart(username, startDate string) error {
	_, err := s.Central.Exec("UPDATE users SET start_date = ? WHERE username = ?",
		startDate, strings.ToUpper(strings.TrimSpace(username)))
	if err != nil {
		return fmt.Errorf("updating user start date: %w", err)
	}
	return nil
}

// AddPendingUser queues a registration for approval.
func (s *Store) AddPendingUser(p PendingUser) error {
	_, err := s.Central.Exec(`
		INSERT INTO pending_users (username, password, role, name, admin_username, db_name, do_code, agency_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.ToUpper(strings.TrimSpace(p.Username)), p.Password, p.Role, p.Name,
		p.AdminUsername, p.DBName, p.DOCode, p.AgencyCode)
	if err != nil {
		return fmt.Errorf("adding pending user: %w", err)
	}
	return nil
}

// ListPendingUsers returns registrations awaiting approval, oldest first.
func (s *Store) ListPendingUsers() ([]PendingUser, error) {
	rows, err := s.Central.Query(`
		SELECT id, username, password, role, COALESCE(name, ''), COALESCE(admin_username, ''),
		       COALESCE(db_name, ''), COALESCE(do_code, ''), COALESCE(agency_code, '')
		FROM pending_users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing pending users: %w", err)
	}
	defer rows.Close()

	var pending []PendingUser
	for rows.Next() {
		var p PendingUser
		if err := rows.Scan(&p.ID, &p.Username, &p.Password, &p.Role, &p.Name,
			&p.AdminUsername, &p.DBName, &p.DOCode, &p.AgencyCode); err != nil {
			return nil, fmt.Errorf("scanning pending user: %w", err)
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// DeletePendingUser removes one queued registration.
func (s *Store) DeletePendingUser(id int64) error {
	_, err := s.Central.Exec("DELETE FROM pending_users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting pending user: %w", err)
	}
	return nil
}

// ApprovePendingUser promotes a queued registration into users, dating the
// account from today, and removes the queue entry in the same transaction.
func (s *Store) ApprovePendingUser(id int64) (*User, error) {
	tx, err := s.Central.Begin()
	if err != nil {
		return nil, fmt.Errorf("approving pending user: %w", err)
	}
	defer tx.Rollback()

	var p PendingUser
	err = tx.QueryRow(`
		SELECT id, username, password, role, COALESCE(name, ''), COALESCE(admin_username, ''),
		       COALESCE(db_name, ''), COALESCE(do_code, ''), COALESCE(agency_code, '')
		FROM pending_users WHERE id = ?`, id).
		Scan(&p.ID, &p.Username, &p.Password, &p.Role, &p.Name,
			&p.AdminUsername, &p.DBName, &p.DOCode, &p.AgencyCode)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("pending user %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching pending user: %w", err)
	}

	u := User{
		Username:      p.Username,
		Password:      p.Password,
		Role:          p.Role,
		Name:          p.Name,
		StartDate:     time.Now().Format("2006-01-02"),
		AdminUsername: p.AdminUsername,
		DBName:        p.DBName,
		DOCode:        p.DOCode,
		AgencyCode:    p.AgencyCode,
	}
	_, err = tx.Exec(`
		INSERT INTO users (username, password, role, name, start_date, admin_username, db_name, do_code, agency_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Password, u.Role, u.Name, u.StartDate,
		u.AdminUsername, u.DBName, u.DOCode, u.AgencyCode)
	if err != nil {
		return nil, fmt.Errorf("inserting approved user: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM pending_users WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("removing pending entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("approving pending user: %w", err)
	}
	return &u, nil
}

// LogFailedAttempt bumps the consecutive-failure count for a username.
func (s *Store) LogFailedAttempt(username string) error {
	_, err := s.Central.Exec(`
		INSERT INTO failed_attempts (username, attempts) VALUES (?, 1)
		ON CONFLICT(username) DO UPDATE SET attempts = attempts + 1`,
		strings.ToUpper(strings.TrimSpace(username)))
	if err != nil {
		return fmt.Errorf("logging failed attempt: %w", err)
	}
	return nil
}

// FailedAttempts returns the current count for a username.
func (s *Store) FailedAttempts(username string) (int, error) {
	var n int
	err := s.Central.QueryRow("SELECT COALESCE(MAX(attempts), 0) FROM failed_attempts WHERE username = ?",
		strings.ToUpper(strings.TrimSpace(username))).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("reading failed attempts: %w", err)
	}
	return n, nil
}

// ResetFailedAttempts clears the count after a successful login.
func (s *Store) ResetFailedAttempts(username string) error {
	_, err := s.Central.Exec("DELETE FROM failed_attempts WHERE username = ?",
		strings.ToUpper(strings.TrimSpace(username)))
	if err != nil {
		return fmt.Errorf("resetting failed attempts: %w", err)
	}
	return nil
}
