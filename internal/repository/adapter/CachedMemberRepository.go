package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	cacheport "github.com/chaan32/StudyPing/internal/infrastructure/cache/port"
	chat "github.com/chaan32/StudyPing/internal/pkg/chat/application/domain"
	repository "github.com/chaan32/StudyPing/internal/repository/port"
)

// CachedMemberRepository is a read-through cache in front of another
// MemberRepository. Members change rarely and every realtime CONNECT and
// authenticated HTTP call resolves one, so lookups are cached by id and email.
// Cache failures fall back to the underlying repository.
type CachedMemberRepository struct {
	next  repository.MemberRepository
	cache cacheport.Cache
	ttl   time.Duration
	log   *zap.Logger
}

func NewCachedMemberRepository(next repository.MemberRepository, cache cacheport.Cache, ttl time.Duration, log *zap.Logger) *CachedMemberRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedMemberRepository{next: next, cache: cache, ttl: ttl, log: log.Named("member_cache")}
}

var _ repository.MemberRepository = (*CachedMemberRepository)(nil)

func memberIDKey(id int64) string { return "member:id:" + strconv.FormatInt(id, 10) }

func memberEmailKey(email string) string {
	return "member:email:" + strings.ToLower(strings.TrimSpace(email))
}

func (r *CachedMemberRepository) FindByID(ctx context.Context, id int64) (*chat.Member, error) {
	return r.lookup(ctx, memberIDKey(id), func() (*chat.Member, error) {
		return r.next.FindByID(ctx, id)
	})
}

func (r *CachedMemberRepository) FindByEmail(ctx context.Context, email string) (*chat.Member, error) {
	return r.lookup(ctx, memberEmailKey(email), func() (*chat.Member, error) {
		return r.next.FindByEmail(ctx, email)
	})
}

func (r *CachedMemberRepository) lookup(ctx context.Context, key string, load func() (*chat.Member, error)) (*chat.Member, error) {
	raw, err := r.cache.Get(ctx, key)
	switch {
	case err == nil:
		var m chat.Member
		if jerr := json.Unmarshal([]byte(raw), &m); jerr == nil {
			return &m, nil
		}
		r.log.Warn("discarding undecodable cache entry", zap.String("key", key))
	case !errors.Is(err, cacheport.ErrMiss):
		r.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}

	m, err := load()
	if err != nil {
		return nil, err
	}
	r.store(ctx, m)
	return m, nil
}

func (r *CachedMemberRepository) store(ctx context.Context, m *chat.Member) {
	b, err := json.Marshal(m)
	if err != nil {
		return
	}
	for _, key := range []string{memberIDKey(m.ID), memberEmailKey(m.Email)} {
		if err := r.cache.Set(ctx, key, string(b), r.ttl); err != nil {
			r.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
}
