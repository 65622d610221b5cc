// Package commands is the admin command line of the planner.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"flynesis-planner/internal/auth"
	"flynesis-planner/internal/backup"
	"flynesis-planner/internal/config"
	"flynesis-planner/internal/repository"
	"flynesis-planner/internal/storage"
)

// keepBackups is how many snapshots per account survive a prune.
const keepBackups = 10

type globalOptions struct {
	configPath string
	debug      bool
}

func New() *cobra.Command {
	g := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "planner",
		Short: "Flynesis planner: Telegram bot and account administration.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if g.configPath != "" {
				return os.Setenv("PLANNER_CONFIG", g.configPath)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML config file. Overrides PLANNER_CONFIG.")
	cmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "Log every SQL statement.")

	AddCommands(cmd, g)
	return cmd
}

func AddCommands(topLevel *cobra.Command, g *globalOptions) {
	addBot(topLevel, g)
	addLink(topLevel, g)
	addAccounts(topLevel, g)
	addExport(topLevel, g)
	addImport(topLevel, g)
	addReset(topLevel, g)
	addICS(topLevel, g)
	addAgenda(topLevel, g)
	addBackups(topLevel, g)
}

// runtime is what every command opens: config, database and the services on
// top of it.
type runtime struct {
	cfg     config.Config
	db      *gorm.DB
	store   *storage.Client
	auth    *auth.Bootstrapper
	backups *backup.Archive
}

// open loads the configuration and connects to the database. Admin commands
// never create account links implicitly; only the bot honours AUTO_LINK.
func open(g *globalOptions, autoLink bool) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	db, err := repository.NewDB(cfg.DatabaseURL, g.debug)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	return &runtime{
		cfg:     cfg,
		db:      db,
		store:   storage.NewClient(db),
		auth:    auth.NewBootstrapper(db, autoLink && cfg.AutoLink),
		backups: backup.Open(cfg.BackupDir),
	}, nil
}

func (r *runtime) Close() {
	if sqlDB, err := r.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// account resolves an identity such as "tg:123456" to its account id.
func (r *runtime) account(ctx context.Context, identity string) (string, error) {
	flyID, err := r.auth.Bootstrap(ctx, &auth.Session{UserID: identity})
	switch {
	case errors.Is(err, auth.ErrNoAccount):
		return "", fmt.Errorf("%s has no linked account, run `planner link %s` first", identity, identity)
	case errors.Is(err, auth.ErrNoSession):
		return "", errors.New("an identity is required")
	case err != nil:
		return "", err
	}
	return flyID, nil
}

// backupBefore archives the account's current data and prunes old snapshots.
// Nothing is archived when the data cannot be read.
func (r *runtime) backupBefore(ctx context.Context, flyID string) (string, error) {
	data, err := r.store.Backup(ctx, flyID)
	if err != nil {
		return "", err
	}
	key, err := r.backups.Save(flyID, data)
	if err != nil {
		return "", err
	}
	if _, err := r.backups.Prune(ctx, flyID, keepBackups); err != nil {
		return key, fmt.Errorf("prune backups: %w", err)
	}
	return key, nil
}
