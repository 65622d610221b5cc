package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PLANNER_CONFIG", "TELEGRAM_TOKEN", "DATABASE_URL", "DIGEST_TIME", "LOGIN_URL", "SIGNUP_URL",
		"BACKUP_DIR", "TIMEZONE", "AUTO_LINK", "FOCUS_WORK_MINUTES", "FOCUS_BREAK_MINUTES",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKUP_DIR", "/tmp/planner-backups")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseURL != "planner.db" || cfg.DigestTime != "08:00" || cfg.AutoLink {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if f := cfg.Focus(); f.Work != 25*time.Minute || f.Break != 5*time.Minute {
		t.Fatalf("unexpected focus config: %+v", f)
	}
	if err := cfg.RequireBot(); err == nil {
		t.Fatalf("bot should require a token")
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "planner.yaml")
	data := []byte("database_url: from-file.db\ndigest_time: \"07:30\"\ntimezone: Europe/Berlin\nauto_link: true\nfocus_work_minutes: 50\nbackup_dir: /srv/backups\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PLANNER_CONFIG", path)
	t.Setenv("DATABASE_URL", "from-env.db")
	t.Setenv("TELEGRAM_TOKEN", "token")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseURL != "from-env.db" || cfg.DigestTime != "07:30" || !cfg.AutoLink || cfg.BackupDir != "/srv/backups" {
		t.Fatalf("unexpected merge: %+v", cfg)
	}
	if cfg.FocusWorkMinutes != 50 || cfg.FocusBreakMinutes != 5 {
		t.Fatalf("unexpected focus minutes: %+v", cfg)
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "Europe/Berlin" {
		t.Fatalf("unexpected location %v, %v", loc, err)
	}
	if err := cfg.RequireBot(); err != nil {
		t.Fatalf("token set: %v", err)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"digest":   {"DIGEST_TIME", "8am"},
		"timezone": {"TIMEZONE", "Mars/Base"},
		"autolink": {"AUTO_LINK", "maybe"},
		"focus":    {"FOCUS_WORK_MINUTES", "ten"},
		"file":     {"PLANNER_CONFIG", "/nonexistent/planner.yaml"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("BACKUP_DIR", "/tmp/planner-backups")
			t.Setenv(kv[0], kv[1])
			if _, err := Load(); err == nil {
				t.Fatalf("%s=%q should fail", kv[0], kv[1])
			}
		})
	}
}
