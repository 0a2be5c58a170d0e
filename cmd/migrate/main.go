package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/erp/wholesale/internal/infrastructure/config"
	"github.com/erp/wholesale/internal/infrastructure/logger"
	"github.com/erp/wholesale/internal/infrastructure/migration"
	schema "github.com/erp/wholesale/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// errUsage marks a command invoked with missing or malformed arguments
var errUsage = errors.New("invalid arguments")

// dbCommand runs against a migrator connected to the configured database
type dbCommand func(m *migration.Migrator, log *zap.Logger, args []string) error

var dbCommands = map[string]dbCommand{
	"up":   func(m *migration.Migrator, _ *zap.Logger, _ []string) error { return m.Up() },
	"down": func(m *migration.Migrator, _ *zap.Logger, _ []string) error { return m.Down() },
	"step": func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		n, err := intArg(args, "step count")
		if err != nil {
			return err
		}
		return m.Steps(n)
	},
	"goto": func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		n, err := intArg(args, "version")
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("%w: version must not be negative", errUsage)
		}
		return m.GoTo(uint(n))
	},
	"version": func(m *migration.Migrator, log *zap.Logger, _ []string) error {
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if version == 0 {
			log.Info("No migrations applied")
			return nil
		}
		log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	},
	"force": func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		n, err := intArg(args, "version")
		if err != nil {
			return err
		}
		return m.Force(n)
	},
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		migrationsPath string
		logLevel       string
		timeout        time.Duration
	)
	flag.StringVar(&migrationsPath, "path", "", "Read migrations from this directory instead of the embedded schema")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "Database connect timeout")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		return 1
	}
	command, rest := args[0], args[1:]

	log, err := logger.New(logger.Config{Level: logLevel, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() {
		_ = log.Sync()
	}()

	if migrationsPath != "" {
		if migrationsPath, err = filepath.Abs(migrationsPath); err != nil {
			log.Error("Failed to resolve migrations path", zap.Error(err))
			return 1
		}
	}
	log.Info("Migration CLI started",
		zap.String("command", command),
		zap.String("migrations_path", sourceName(migrationsPath)),
	)

	switch command {
	case "create":
		err = create(log, migrationsPath, rest)
	case "list":
		err = list(log, migrationsPath)
	default:
		cmd, ok := dbCommands[command]
		if !ok {
			log.Error("Unknown command", zap.String("command", command))
			printUsage()
			return 1
		}
		err = withMigrator(log, migrationsPath, timeout, func(m *migration.Migrator) error {
			return cmd(m, log, rest)
		})
	}

	if err != nil {
		log.Error("Migration command failed", zap.String("command", command), zap.Error(err))
		if errors.Is(err, errUsage) {
			printUsage()
		}
		return 1
	}
	return 0
}

// withMigrator connects to the configured database and hands fn a
// migrator over it. The migrator closes the connection.
func withMigrator(log *zap.Logger, migrationsPath string, timeout time.Duration, fn func(*migration.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return errors.Join(fmt.Errorf("ping database: %w", err), db.Close())
	}

	var m *migration.Migrator
	if migrationsPath == "" {
		m, err = migration.New(db, log)
	} else {
		m, err = migration.NewFromPath(db, migrationsPath, log)
	}
	if err != nil {
		return errors.Join(err, db.Close())
	}
	return errors.Join(fn(m), m.Close())
}

func create(log *zap.Logger, migrationsPath string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: migration name required", errUsage)
	}
	description := ""
	if len(args) > 1 {
		description = args[1]
	}
	dir := migrationsPath
	if dir == "" {
		dir = "migrations"
	}

	mf, err := migration.CreateMigration(dir, args[0], description)
	if err != nil {
		return err
	}
	log.Info("Migration created",
		zap.String("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath),
	)
	return nil
}

func list(log *zap.Logger, migrationsPath string) error {
	var (
		names []string
		err   error
	)
	if migrationsPath == "" {
		names, err = migration.ListFS(schema.FS)
	} else {
		names, err = migration.ListMigrations(migrationsPath)
	}
	if err != nil {
		return err
	}

	log.Info("Available migrations", zap.Int("count", len(names)))
	for _, name := range names {
		fmt.Println("  -", name)
	}
	return nil
}

func intArg(args []string, what string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: %s required", errUsage, what)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", errUsage, what, args[0])
	}
	return n, nil
}

func sourceName(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}

func printUsage() {
	fmt.Println(`Wholesale Database Migration Tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (positive=up, negative=down)
  goto <version>        Migrate to a specific version
  version               Show current migration version
  force <version>       Set the version without running SQL, to clear a dirty state
  create <name> [desc]  Create a new migration file pair
  list                  List available migrations

Flags:
  -path string          Read migrations from a directory (default: embedded schema)
  -log-level string     Log level: debug, info, warn, error (default: info)
  -timeout duration     Database connect timeout (default: 10s)

Environment Variables:
  WHOLESALE_DATABASE_HOST, WHOLESALE_DATABASE_PORT, WHOLESALE_DATABASE_USER,
  WHOLESALE_DATABASE_PASSWORD, WHOLESALE_DATABASE_DBNAME, WHOLESALE_DATABASE_SSLMODE

Examples:
  migrate up
  migrate step -1
  migrate -path ./migrations create add_carrier_codes "Add carrier code lookup table"
  migrate version`)
}
