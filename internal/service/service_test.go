package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"community_hub/internal/model"
	"community_hub/internal/pkg"
	"community_hub/internal/repository/mysql"
	"community_hub/internal/storage"

	qt "github.com/frankban/quicktest"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []pkg.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev pkg.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type memoryImageStore struct {
	saved []storage.Image
}

func (s *memoryImageStore) Save(_ context.Context, img storage.Image) (string, error) {
	s.saved = append(s.saved, img)
	return fmt.Sprintf("/assets/community-images/img-%d%s", len(s.saved), img.Ext), nil
}

type mapCache struct {
	mu          sync.Mutex
	items       map[string]*model.Community
	generations map[string]int64
	invalidated []string
}

func newMapCache() *mapCache {
	return &mapCache{items: map[string]*model.Community{}, generations: map[string]int64{}}
}

func (c *mapCache) Get(_ context.Context, id string) (*model.Community, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[id]
	return v, c.generations[id], ok
}

func (c *mapCache) Set(_ context.Context, community *model.Community, generation int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[community.ID] != generation {
		return
	}
	c.items[community.ID] = community
}

func (c *mapCache) Invalidate(_ context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
	c.generations[id]++
	c.invalidated = append(c.invalidated, id)
}

type fixture struct {
	db          *gorm.DB
	users       *UserService
	communities *CommunityService
	events      *recordingPublisher
	images      *memoryImageStore
	cache       *mapCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := mysql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := mysql.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = mysql.Close(db) })

	f := &fixture{
		db:     db,
		events: &recordingPublisher{},
		images: &memoryImageStore{},
		cache:  newMapCache(),
	}
	tokens := pkg.NewTokenManager("test-secret-0123456789", time.Hour)
	f.users = NewUserService(mysql.NewUserRepository(db), tokens, f.events, nil, nil)
	f.communities = f.communityServiceWithCache(f.cache)
	return f
}

func (f *fixture) communityServiceWithCache(cache CommunityCache) *CommunityService {
	return NewCommunityService(CommunityServiceDeps{
		Repo:    mysql.NewCommunityRepository(f.db),
		Members: mysql.NewCommunityMemberRepository(f.db),
		Users:   f.users,
		Cache:   cache,
		Images:  f.images,
		Events:  f.events,
	})
}

func (f *fixture) signup(t *testing.T, name string) *model.User {
	t.Helper()
	u, err := f.users.CreateUser(context.Background(), CreateUserInput{
		Name:     name,
		Email:    strings.ToLower(name) + "@x.com",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func rosterRoles(c *model.Community) map[string]string {
	out := map[string]string{}
	for _, m := range c.Members {
		out[m.UserID] = m.Role
	}
	return out
}

func assertKind(c *qt.C, err error, kind Kind) {
	c.Helper()
	c.Assert(err, qt.IsNotNil)
	c.Assert(KindOf(err), qt.Equals, kind, qt.Commentf("err: %v", err))
}

func strPtr(s string) *string { return &s }
