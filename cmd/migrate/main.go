package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"go.uber.org/zap"

	"github.com/wrapborne/udaan1/internal/auth"
	"github.com/wrapborne/udaan1/internal/config"
	"github.com/wrapborne/udaan1/internal/store"
)

// Bootstraps the central database and seeds an account directly,
// bypassing the pending-approval queue. Meant for the first superadmin
// and for standing up a new DO's admin together with its tenant
// database.
func main() {
	cfg := config.Load()

	dbPath := flag.String("db", cfg.CentralDBPath, "central SQLite database path")
	dataDir := flag.String("data-dir", cfg.DataDir, "directory for per-DO tenant databases")
	username := flag.String("username", "", "account username (required)")
	password := flag.String("password", "", "account password (required)")
	name := flag.String("name", "", "display name")
	role := flag.String("role", auth.RoleSuperadmin, "account role: superadmin or admin")
	doCode := flag.String("do-code", "", "DO code (required for admin role)")
	flag.Parse()

	if *username == "" || *password == "" {
		log.Fatal("both -username and -password are required")
	}
	if *role != auth.RoleSuperadmin && *role != auth.RoleAdmin {
		log.Fatalf("unsupported role %q: want superadmin or admin", *role)
	}
	if *role == auth.RoleAdmin && *doCode == "" {
		log.Fatal("-do-code is required for admin role")
	}

	st, err := store.Open(*dbPath, *dataDir, zap.NewNop())
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	exists, err := st.UserExists(*username)
	if err != nil {
		log.Fatal(err)
	}
	if exists {
		log.Fatalf("user %s already exists", strings.ToUpper(*username))
	}

	u := store.User{
		Username: *username,
		Password: *password,
		Role:     *role,
		Name:     *name,
		DOCode:   strings.ToUpper(strings.TrimSpace(*doCode)),
	}
	if u.DOCode != "" {
		u.DBName = store.TenantDBName(u.DOCode)
	}
	if err := st.AddUser(u); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Created %s user %s\n", u.Role, strings.ToUpper(strings.TrimSpace(u.Username)))

	// Admins get their tenant database created up front so agents can
	// register against its data.
	if u.DOCode != "" {
		if _, err := st.Tenant(u.DOCode); err != nil {
			log.Fatalf("Failed to initialize tenant database: %v", err)
		}
		fmt.Printf("Tenant database %s ready\n", store.TenantDBName(u.DOCode))
	}

	fmt.Println("Migration complete!")
}
