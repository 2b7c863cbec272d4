package adapter

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap/zaptest"

	cacheadapter "github.com/chaan32/StudyPing/internal/infrastructure/cache/adapter"
	chat "github.com/chaan32/StudyPing/internal/pkg/chat/application/domain"
)

type countingMembers struct {
	members map[int64]chat.Member
	calls   int
}

func (c *countingMembers) FindByID(_ context.Context, id int64) (*chat.Member, error) {
	c.calls++
	m, ok := c.members[id]
	if !ok {
		return nil, chat.ErrMemberNotFound
	}
	return &m, nil
}

func (c *countingMembers) FindByEmail(_ context.Context, email string) (*chat.Member, error) {
	c.calls++
	for _, m := range c.members {
		if strings.EqualFold(m.Email, strings.TrimSpace(email)) {
			m := m
			return &m, nil
		}
	}
	return nil, chat.ErrMemberNotFound
}

func newCached(t *testing.T) (*CachedMemberRepository, *countingMembers, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	next := &countingMembers{members: map[int64]chat.Member{
		1: {ID: 1, Email: "kim@study.ping", Name: "kim", Role: "USER"},
	}}
	repo := NewCachedMemberRepository(next, cacheadapter.NewRedisCache(client, "test:"), time.Minute, zaptest.NewLogger(t))
	return repo, next, mr
}

func TestCachedMemberRepositoryReadsThrough(t *testing.T) {
	repo, next, _ := newCached(t)
	ctx := context.Background()

	m, err := repo.FindByEmail(ctx, "kim@study.ping")
	if err != nil || m.ID != 1 {
		t.Fatalf("FindByEmail = %+v, %v", m, err)
	}
	if next.calls != 1 {
		t.Fatalf("expected one backing lookup, got %d", next.calls)
	}

	// Both keys were populated by the first lookup.
	if m, err := repo.FindByID(ctx, 1); err != nil || m.Email != "kim@study.ping" {
		t.Fatalf("FindByID = %+v, %v", m, err)
	}
	if _, err := repo.FindByEmail(ctx, "KIM@study.ping "); err != nil {
		t.Fatalf("normalized email lookup: %v", err)
	}
	if next.calls != 1 {
		t.Fatalf("expected cache hits, backing calls = %d", next.calls)
	}
}

func TestCachedMemberRepositoryDoesNotCacheMisses(t *testing.T) {
	repo, next, _ := newCached(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := repo.FindByID(ctx, 99); !errors.Is(err, chat.ErrMemberNotFound) {
			t.Fatalf("expected ErrMemberNotFound, got %v", err)
		}
	}
	if next.calls != 2 {
		t.Fatalf("misses should hit the backing repository, calls = %d", next.calls)
	}
}

func TestCachedMemberRepositoryFallsBackWhenCacheIsDown(t *testing.T) {
	repo, next, mr := newCached(t)
	mr.Close()

	m, err := repo.FindByID(context.Background(), 1)
	if err != nil || m.ID != 1 {
		t.Fatalf("FindByID with cache down = %+v, %v", m, err)
	}
	if next.calls != 1 {
		t.Fatalf("calls = %d", next.calls)
	}
}

func TestCachedMemberRepositoryDiscardsCorruptEntries(t *testing.T) {
	repo, next, mr := newCached(t)
	if err := mr.Set("test:member:id:1", "{not json"); err != nil {
		t.Fatal(err)
	}
	m, err := repo.FindByID(context.Background(), 1)
	if err != nil || m.Name != "kim" {
		t.Fatalf("FindByID = %+v, %v", m, err)
	}
	if next.calls != 1 {
		t.Fatalf("corrupt entry should trigger a reload, calls = %d", next.calls)
	}
}
