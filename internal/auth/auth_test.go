package auth

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"gorm.io/gorm"

	"flynesis-planner/internal/model"
	"flynesis-planner/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "planner.db"), false)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		t.Cleanup(func() { sqlDB.Close() })
	}
	return db
}

func TestBootstrapWithoutSession(t *testing.T) {
	b := NewBootstrapper(newTestDB(t), true)
	for _, s := range []*Session{nil, {UserID: "  "}} {
		if _, err := b.Bootstrap(context.Background(), s); !errors.Is(err, ErrNoSession) {
			t.Fatalf("expected ErrNoSession, got %v", err)
		}
	}
}

func TestBootstrapWithoutAccount(t *testing.T) {
	b := NewBootstrapper(newTestDB(t), false)
	_, err := b.Bootstrap(context.Background(), &Session{UserID: "tg:1"})
	if !errors.Is(err, ErrNoAccount) {
		t.Fatalf("expected ErrNoAccount, got %v", err)
	}
	url, ok := RedirectFor(err, "/login", "/signup")
	if !ok || url != "/signup" {
		t.Fatalf("expected signup redirect, got %q %v", url, ok)
	}
}

func TestBootstrapCreatesProfileAndSettingsOnce(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	b := NewBootstrapper(db, false)

	linked, err := b.Link(ctx, "tg:7")
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	first, err := b.Bootstrap(ctx, &Session{UserID: "tg:7"})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	second, err := b.Bootstrap(ctx, &Session{UserID: "tg:7"})
	if err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	if first != linked || second != linked {
		t.Fatalf("expected flyid %s, got %s and %s", linked, first, second)
	}

	var profiles, settings int64
	db.Model(&model.Profile{}).Where("flyid = ?", linked).Count(&profiles)
	db.Model(&model.Settings{}).Where("flyid = ?", linked).Count(&settings)
	if profiles != 1 || settings != 1 {
		t.Fatalf("expected one profile and one settings row, got %d and %d", profiles, settings)
	}

	var row model.Settings
	if err := db.Where("flyid = ?", linked).First(&row).Error; err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if row.WeekStart != "Mon" || row.TimeFormat != "24h" || row.DefaultView != "Week" {
		t.Fatalf("unexpected defaults: %+v", row)
	}
}

func TestConcurrentEnsureToleratesDuplicates(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	b := NewBootstrapper(db, true)

	flyID, err := b.Resolve(ctx, &Session{UserID: "tg:9"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := b.Ensure(ctx, flyID); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("ensure: %v", err)
	}

	var profiles int64
	db.Model(&model.Profile{}).Where("flyid = ?", flyID).Count(&profiles)
	if profiles != 1 {
		t.Fatalf("expected exactly one profile, got %d", profiles)
	}
}

func TestRedirectFor(t *testing.T) {
	cases := []struct {
		err  error
		want string
		ok   bool
	}{
		{ErrNoSession, "/login", true},
		{fmt.Errorf("wrapped: %w", ErrNoAccount), "/signup", true},
		{errors.New("disk full"), "", false},
	}
	for _, tc := range cases {
		got, ok := RedirectFor(tc.err, "/login", "/signup")
		if got != tc.want || ok != tc.ok {
			t.Fatalf("RedirectFor(%v) = %q, %v", tc.err, got, ok)
		}
	}
}

func TestIdentitiesFiltersByPrefix(t *testing.T) {
	ctx := context.Background()
	b := NewBootstrapper(newTestDB(t), false)
	first, err := b.Link(ctx, "tg:1")
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if _, err := b.Link(ctx, "web:alice"); err != nil {
		t.Fatalf("link: %v", err)
	}

	ids, err := b.Identities(ctx, "tg:")
	if err != nil {
		t.Fatalf("identities: %v", err)
	}
	if len(ids) != 1 || ids[0].AuthUserID != "tg:1" || ids[0].FlyID != first {
		t.Fatalf("unexpected identities: %+v", ids)
	}
}
