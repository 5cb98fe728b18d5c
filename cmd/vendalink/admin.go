package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"syscall"
	"text/tabwriter"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/vendalink/vendalink/internal/adapter/postgres"
	"github.com/vendalink/vendalink/internal/adapter/tenantdb"
	"github.com/vendalink/vendalink/internal/config"
	"github.com/vendalink/vendalink/internal/domain/session"
	"github.com/vendalink/vendalink/internal/domain/tenant"
	"github.com/vendalink/vendalink/internal/service"
)

// runAdmin dispatches admin subcommands (create-tenant, set-coordinates,
// list-tenants, hash-admin-key, migrate-down).
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "create-tenant":
		return runAdminCreateTenant(args[1:])
	case "set-coordinates":
		return runAdminSetCoordinates(args[1:])
	case "list-tenants":
		return runAdminListTenants(args[1:])
	case "hash-admin-key":
		return runAdminHashKey(args[1:])
	case "migrate-down":
		return runAdminMigrateDown(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: vendalink admin <command> [options]

Commands:
  create-tenant     Register a new tenant in the directory
  set-coordinates   Update a tenant's database coordinates
  list-tenants      List all tenants
  hash-admin-key    Hash an admin API key for the config file
  migrate-down      Roll back directory schema migrations
  help              Show this help message

Examples:
  vendalink admin create-tenant --tax-id 12.345.678/0001-90 --name "Acme Ltda" \
      --host db1.internal --database acme --user acme_app
  vendalink admin set-coordinates --id <tenant-id> --host db2.internal --database acme --user acme_app
  vendalink admin list-tenants
  vendalink admin hash-admin-key
  vendalink admin migrate-down --steps 1
`)
}

func loadAdminDeps() (*service.TenantService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Master)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	store := postgres.NewStore(pool)
	registry := service.NewRegistry(tenantdb.NewFactory(cfg.TenantPool, cfg.Breaker))
	directory := service.NewDirectory(store, nil, cfg.Cache.DirectoryTTL)
	admission := service.NewAdmissionController(store, session.SystemClock{}, cfg.Session)
	tenantSvc := service.NewTenantService(store, registry, directory, admission)

	cleanup := func() {
		registry.Close()
		pool.Close()
	}
	return tenantSvc, cleanup, nil
}

func runAdminCreateTenant(args []string) error {
	fs := flag.NewFlagSet("create-tenant", flag.ContinueOnError)
	taxID := fs.String("tax-id", "", "tenant tax identifier (required)")
	name := fs.String("name", "", "tenant display name (required)")
	host := fs.String("host", "", "tenant database host (required)")
	port := fs.Int("port", 5432, "tenant database port")
	database := fs.String("database", "", "tenant database name (required)")
	schema := fs.String("schema", "", "tenant schema (optional)")
	dbUser := fs.String("user", "", "tenant database user (required)")
	quota := fs.Int("quota", 0, "session quota (0 = configured default)")
	enforced := fs.Bool("enforce-quota", false, "enforce the session quota")
	if err := fs.Parse(args); err != nil {
		return err
	}

	password, err := promptPassword("Tenant database password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	req := tenant.CreateRequest{
		TaxID: *taxID,
		Name:  *name,
		Coords: tenant.Coordinates{
			Host:     *host,
			Port:     *port,
			Database: *database,
			Schema:   *schema,
			User:     *dbUser,
			Password: password,
		},
		SessionQuota:  *quota,
		QuotaEnforced: *enforced,
	}
	if err := req.Validate(); err != nil {
		return err
	}

	tenantSvc, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	t, err := tenantSvc.Create(context.Background(), req)
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Tenant created: %s (id=%s, tax_id=%s)\n", t.Name, t.ID, t.TaxID)
	return nil
}

func runAdminSetCoordinates(args []string) error {
	fs := flag.NewFlagSet("set-coordinates", flag.ContinueOnError)
	id := fs.String("id", "", "tenant id (required)")
	host := fs.String("host", "", "tenant database host (required)")
	port := fs.Int("port", 5432, "tenant database port")
	database := fs.String("database", "", "tenant database name (required)")
	schema := fs.String("schema", "", "tenant schema (optional)")
	dbUser := fs.String("user", "", "tenant database user (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *id == "" {
		return fmt.Errorf("--id is required")
	}

	password, err := promptPassword("Tenant database password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	coords := tenant.Coordinates{
		Host:     *host,
		Port:     *port,
		Database: *database,
		Schema:   *schema,
		User:     *dbUser,
		Password: password,
	}
	if err := coords.Validate(); err != nil {
		return err
	}

	tenantSvc, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	t, err := tenantSvc.Update(context.Background(), *id, tenant.UpdateRequest{Coords: &coords})
	if err != nil {
		return fmt.Errorf("update tenant: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Coordinates updated for %s (tax_id=%s)\n", t.Name, t.TaxID)
	return nil
}

func runAdminListTenants(args []string) error {
	fs := flag.NewFlagSet("list-tenants", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	tenantSvc, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	tenants, err := tenantSvc.List(context.Background())
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}

	if len(tenants) == 0 {
		fmt.Println("No tenants found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTAX_ID\tNAME\tSTATUS\tQUOTA\tENFORCED\tHOST")
	for i := range tenants {
		t := &tenants[i]
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%t\t%s\n",
			t.ID, t.TaxID, t.Name, t.Status, t.SessionQuota, t.QuotaEnforced, t.Coords.Host)
	}
	return w.Flush()
}

func runAdminHashKey(args []string) error {
	fs := flag.NewFlagSet("hash-admin-key", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	key, err := promptPassword("Admin API key: ")
	if err != nil {
		return fmt.Errorf("read key: %w", err)
	}
	confirm, err := promptPassword("Confirm key: ")
	if err != nil {
		return fmt.Errorf("read key: %w", err)
	}
	if key != confirm {
		return fmt.Errorf("keys do not match")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash key: %w", err)
	}

	fmt.Println(string(hash))
	return nil
}

func runAdminMigrateDown(args []string) error {
	fs := flag.NewFlagSet("migrate-down", flag.ContinueOnError)
	steps := fs.Int("steps", 1, "number of migrations to roll back")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *steps < 1 {
		return fmt.Errorf("--steps must be at least 1")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := postgres.RollbackMigrations(context.Background(), cfg.Master.DSN, *steps); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Rolled back %d migration(s)\n", *steps)
	return nil
}

// promptPassword reads a password from the terminal without echoing.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // int conversion needed on some platforms
	fmt.Fprintln(os.Stderr)                         // newline after password input
	if err != nil {
		return "", err
	}
	return string(b), nil
}
