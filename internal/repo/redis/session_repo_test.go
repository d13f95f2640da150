package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	authsvc "github.com/dmarchuk/assetmarket/internal/services/auth"
)

func newSessionRepoForTest(t *testing.T) *SessionRepo {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewSessionRepo(client)
}

func TestSessionRoundTrip(t *testing.T) {
	repo := newSessionRepoForTest(t)
	ctx := context.Background()

	session := authsvc.SessionRecord{
		SID:       "sid-1",
		UserID:    "user-1",
		Role:      "user",
		ExpiresAt: time.Now().Add(time.Hour).UTC(),
	}
	if err := repo.Create(ctx, session, "refresh-1"); err != nil {
		t.Fatalf("create session: %v", err)
	}

	got, err := repo.GetSession(ctx, "sid-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.UserID != "user-1" || got.Role != "user" {
		t.Fatalf("unexpected session: %+v", got)
	}

	byRefresh, err := repo.GetByRefreshToken(ctx, "refresh-1")
	if err != nil {
		t.Fatalf("get by refresh: %v", err)
	}
	if byRefresh.SID != "sid-1" {
		t.Fatalf("unexpected sid from refresh lookup: %q", byRefresh.SID)
	}
}

func TestRotateRefreshInvalidatesOldToken(t *testing.T) {
	repo := newSessionRepoForTest(t)
	ctx := context.Background()

	session := authsvc.SessionRecord{
		SID:       "sid-1",
		UserID:    "user-1",
		Role:      "user",
		ExpiresAt: time.Now().Add(time.Hour).UTC(),
	}
	if err := repo.Create(ctx, session, "refresh-old"); err != nil {
		t.Fatalf("create session: %v", err)
	}

	newExpiry := time.Now().Add(2 * time.Hour).UTC()
	if err := repo.RotateRefresh(ctx, "sid-1", "refresh-old", "refresh-new", newExpiry); err != nil {
		t.Fatalf("rotate refresh: %v", err)
	}

	if _, err := repo.GetByRefreshToken(ctx, "refresh-old"); !errors.Is(err, authsvc.ErrRefreshNotFound) {
		t.Fatalf("old token should be gone, got err=%v", err)
	}
	if _, err := repo.GetByRefreshToken(ctx, "refresh-new"); err != nil {
		t.Fatalf("new token lookup: %v", err)
	}
}

func TestDeleteAllForUserDropsEverySession(t *testing.T) {
	repo := newSessionRepoForTest(t)
	ctx := context.Background()

	expiresAt := time.Now().Add(time.Hour).UTC()
	for _, sid := range []string{"sid-1", "sid-2"} {
		session := authsvc.SessionRecord{SID: sid, UserID: "user-1", Role: "user", ExpiresAt: expiresAt}
		if err := repo.Create(ctx, session, "refresh-"+sid); err != nil {
			t.Fatalf("create session %s: %v", sid, err)
		}
	}

	if err := repo.DeleteAllForUser(ctx, "user-1"); err != nil {
		t.Fatalf("delete all: %v", err)
	}

	for _, sid := range []string{"sid-1", "sid-2"} {
		if _, err := repo.GetSession(ctx, sid); !errors.Is(err, authsvc.ErrSessionNotFound) {
			t.Fatalf("session %s should be gone, got err=%v", sid, err)
		}
	}
}
