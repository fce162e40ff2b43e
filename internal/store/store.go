// Package store owns the sqlite databases behind the portal: one central
// registry (users, pending registrations, failed logins) and one tenant
// database per divisional office, named lic_<DOCODE>.db, holding that
// office's policy records and premium summaries.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Store wraps the central database and lazily opened tenant databases.
type Store struct {
	Central *sql.DB

	dataDir string
	log     *zap.Logger

	mu      sync.Mutex
	tenants map[string]*sql.DB
}

// Open opens (creating if needed) the central database and prepares the
// tenant directory. Schema creation is idempotent.
func Open(centralPath, dataDir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating tenant directory: %w", err)
	}
	db, err := sql.Open("sqlite", centralPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening central database: %w", err)
	}
	if _, err := db.Exec(centralSchemaSQL); err != nil {
		return nil, fmt.Errorf("applying central schema: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		Central: db,
		dataDir: dataDir,
		log:     logger,
		tenants: make(map[string]*sql.DB),
	}, nil
}

// Close closes the central database and every open tenant database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for code, db := range s.tenants {
		if err := db.Close(); err != nil {
			s.log.Warn("closing tenant database", zap.String("do_code", code), zap.Error(err))
		}
		delete(s.tenants, code)
	}
	return s.Central.Close()
}

// TenantDBName returns the database file name for a divisional office.
func TenantDBName(doCode string) string {
	return fmt.Sprintf("lic_%s.db", strings.ToUpper(strings.TrimSpace(doCode)))
}

// Tenant returns the database for a DO code, opening and migrating it on
// first use. Connections are cached per process.
func (s *Store) Tenant(doCode string) (*sql.DB, error) {
	code := strings.ToUpper(strings.TrimSpace(doCode))
	if code == "" {
		return nil, fmt.Errorf("tenant: empty DO code")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if db, ok := s.tenants[code]; ok {
		return db, nil
	}

	path := filepath.Join(s.dataDir, TenantDBName(code))
	db, err := sql.Open("sqlite", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening tenant database %s: %w", code, err)
	}
	if _, err := db.Exec(tenantSchemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying tenant schema %s: %w", code, err)
	}
	s.tenants[code] = db
	s.log.Info("tenant database opened", zap.String("do_code", code), zap.String("path", path))
	return db, nil
}

const centralSchemaSQL = `
-- users: approved portal accounts, routed to a tenant DB by DO code
CREATE TABLE IF NOT EXISTS users (
    username TEXT PRIMARY KEY,
    password TEXT NOT NULL,
    role TEXT NOT NULL CHECK (role IN ('superadmin', 'admin', 'agent')),
    name TEXT,
    start_date DATE,
    admin_username TEXT,
    db_name TEXT,
    do_code TEXT,
    agency_code TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- pending_users: registrations awaiting admin approval
CREATE TABLE IF NOT EXISTS pending_users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL,
    password TEXT NOT NULL,
    role TEXT NOT NULL,
    name TEXT,
    admin_username TEXT,
    db_name TEXT,
    do_code TEXT,
    agency_code TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- failed_attempts: per-username count of consecutive failed logins
CREATE TABLE IF NOT EXISTS failed_attempts (
    username TEXT PRIMARY KEY,
    attempts INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_users_do_code ON users(do_code);
`

const tenantSchemaSQL = `
-- lic_data: policy records extracted from proposal-register uploads.
-- policy_no is the dedup key; re-uploads keep the latest version of a row.
CREATE TABLE IF NOT EXISTS lic_data (
    policy_no TEXT PRIMARY KEY,
    agent_name TEXT,
    agency_code TEXT,
    proposal_date TEXT,
    proposal_no TEXT,
    short_name TEXT,
    date_of_completion TEXT,
    doc TEXT,
    doc_iso DATE,
    plan TEXT,
    term TEXT,
    mode TEXT,
    premium TEXT,
    remarks TEXT,
    ananda TEXT,
    enach_date TEXT,
    uploaded_by TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- premium_summary: per-agent monthly totals from summary uploads
CREATE TABLE IF NOT EXISTS premium_summary (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    agency_code TEXT NOT NULL,
    report_month TEXT NOT NULL,
    total_premium TEXT,
    fp_sch_prem TEXT,
    fy_sch_prem TEXT,
    uploaded_by TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_lic_data_agency ON lic_data(agency_code);
CREATE INDEX IF NOT EXISTS idx_lic_data_doc_iso ON lic_data(doc_iso);
CREATE INDEX IF NOT EXISTS idx_premium_summary_month ON premium_summary(report_month, uploaded_by);
`
