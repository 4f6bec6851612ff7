package healthsync

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/saadjs/healthsync/internal/app"
	"github.com/saadjs/healthsync/internal/config"
	"github.com/saadjs/healthsync/internal/db"
	"github.com/saadjs/healthsync/internal/health"
	"github.com/saadjs/healthsync/internal/identity"
	"github.com/saadjs/healthsync/internal/logging"
	"github.com/saadjs/healthsync/internal/model"
	"github.com/saadjs/healthsync/internal/provider/graphql"
	"github.com/saadjs/healthsync/internal/provider/openfoodfacts"
	"github.com/saadjs/healthsync/internal/provider/upcitemdb"
	"github.com/saadjs/healthsync/internal/provider/usda"
	"github.com/saadjs/healthsync/internal/service"
	"github.com/saadjs/healthsync/internal/state"
)

// flagKeys maps persistent flags onto config keys.
var flagKeys = map[string]string{
	"db":         config.KeyDB,
	"endpoint":   config.KeyEndpoint,
	"token":      config.KeyToken,
	"user-id":    config.KeyUserID,
	"log-level":  config.KeyLogLevel,
	"health-dir": config.KeyHealthDir,
}

func newViper(cmd *cobra.Command, bindFlags bool) (*viper.Viper, error) {
	v, err := config.New(configPath)
	if err != nil {
		return nil, err
	}
	if !bindFlags {
		return v, nil
	}
	for flag, key := range flagKeys {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("bind --%s: %w", flag, err)
		}
	}
	return v, nil
}

type cliEnv struct {
	cfg config.Config
	log *logrus.Logger
	db  *sql.DB
}

func withEnv(cmd *cobra.Command, run func(*cliEnv) error) error {
	v, err := newViper(cmd, true)
	if err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	path := cfg.DBPath
	if path == "" {
		if path, err = app.DefaultDBPath(); err != nil {
			return err
		}
	}
	if err := app.EnsureDir(path); err != nil {
		return err
	}
	sqldb, err := db.Open(path)
	if err != nil {
		return err
	}
	defer sqldb.Close()
	if err := db.ApplyMigrations(sqldb); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{"db": path, "config": cfg.File}).Debug("environment ready")
	return run(&cliEnv{cfg: cfg, log: logger, db: sqldb})
}

// healthReader is nil when no export directory is configured.
func (e *cliEnv) healthReader() health.Reader {
	if e.cfg.HealthDir == "" {
		return nil
	}
	return health.ExportDir{Path: e.cfg.HealthDir}
}

func (e *cliEnv) session() (*service.Session, error) {
	id, err := identity.Resolve(e.cfg.Token, e.cfg.UserID, time.Now())
	if err != nil {
		return nil, err
	}
	s := &service.Session{
		API: &graphql.Client{
			Endpoint:  e.cfg.Endpoint,
			Token:     id.Token,
			Timeout:   e.cfg.Timeout,
			UserAgent: "healthsync/" + version,
			Logger:    e.log,
		},
		Health: e.healthReader(),
		Store:  state.NewStore(),
		DB:     e.db,
		UserID: id.UserID,
		Logger: e.log,
	}
	if e.cfg.CatalogFallback {
		s.Fallback = e.fallbackCatalogs()
	}
	return s, nil
}

// fallbackCatalogs lists the secondary catalogs in lookup order. USDA is only
// included when an API key is configured.
func (e *cliEnv) fallbackCatalogs() service.Catalogs {
	catalogs := service.Catalogs{&openfoodfacts.Client{}}
	if e.cfg.USDAAPIKey != "" {
		catalogs = append(catalogs, &usda.Client{APIKey: e.cfg.USDAAPIKey})
	}
	return append(catalogs, &upcitemdb.Client{APIKey: e.cfg.UPCItemDBKey})
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func parseDateArg(value string) (string, error) {
	value = strings.TrimSpace(value)
	if _, err := time.ParseInLocation(model.DateLayout, value, time.Local); err != nil {
		return "", fmt.Errorf("invalid --date %q (expected YYYY-MM-DD)", value)
	}
	return value, nil
}

// newLocalSession serves commands that never reach the backend.
func newLocalSession(e *cliEnv, r health.Reader) *service.Session {
	return &service.Session{Health: r, Store: state.NewStore(), DB: e.db, Logger: e.log}
}
