package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"Memoir_Community/internal/model"
	"Memoir_Community/internal/repository/mysql"

	"gorm.io/gorm"
)

// memStore 内存假仓储，同时实现服务层的全部store接口。
// 聚合真值直接从行里数出来，语义与mysql实现一致
type memStore struct {
	mu       sync.Mutex
	nextID   uint64
	profiles map[uint64]*model.Profile          // by user_id
	edges    map[[2]uint64]*model.FollowEdge    // (follower, following)
	entries  map[uint64]*model.Entry            // by entry id
	vis      map[[2]uint64]*model.VisibilityRecord // (entry, user)
	outbox   []model.SocialOutbox
	cache    map[uint64]model.ProfileCounts

	counterWrites int             // UpdateCounters 实际落库次数，幂等断言用
	failCounters  map[uint64]bool // 注入指定用户的对账写入失败
}

func newMemStore() *memStore {
	return &memStore{
		profiles:     map[uint64]*model.Profile{},
		edges:        map[[2]uint64]*model.FollowEdge{},
		entries:      map[uint64]*model.Entry{},
		vis:          map[[2]uint64]*model.VisibilityRecord{},
		cache:        map[uint64]model.ProfileCounts{},
		failCounters: map[uint64]bool{},
	}
}

func (m *memStore) id() uint64 {
	m.nextID++
	return m.nextID
}

// --- ProfileStore ---

func (m *memStore) Create(ctx context.Context, p *model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.UserID]; ok {
		return mysql.ErrDuplicateProfile
	}
	for _, other := range m.profiles {
		if other.Handle == p.Handle {
			return mysql.ErrDuplicateProfile
		}
	}
	p.ID = m.id()
	cp := *p
	m.profiles[p.UserID] = &cp
	return nil
}

func (m *memStore) FindByUserID(ctx context.Context, userID uint64) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) FindByHandle(ctx context.Context, handle string) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.Handle == handle {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memStore) ListByUserIDs(ctx context.Context, userIDs []uint64) ([]model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Profile
	for _, id := range userIDs {
		if p, ok := m.profiles[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) SetActive(ctx context.Context, userID uint64, active bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return false, nil
	}
	p.IsActive = active
	return true, nil
}

func (m *memStore) UpdateFlags(ctx context.Context, userID uint64, journeyPublic, allowSpecific bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return false, nil
	}
	p.IsJourneyPublic = journeyPublic
	p.AllowSpecificEntries = allowSpecific
	return true, nil
}

func (m *memStore) Delete(ctx context.Context, userID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[userID]; !ok {
		return false, nil
	}
	delete(m.profiles, userID)
	return true, nil
}

func (m *memStore) UpdateCounters(ctx context.Context, c model.ProfileCounts) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCounters[c.UserID] {
		return errors.New("injected counter write failure")
	}
	p, ok := m.profiles[c.UserID]
	if !ok {
		return nil
	}
	p.FollowersCount = c.FollowersCount
	p.FollowingCount = c.FollowingCount
	p.PublicEntriesCount = c.PublicEntriesCount
	m.counterWrites++
	return nil
}

func (m *memStore) ListBatch(ctx context.Context, lastID uint64, batchSize int) ([]model.Profile, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.Profile
	for _, p := range m.profiles {
		if p.ID > lastID {
			all = append(all, *p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if len(all) > batchSize {
		all = all[:batchSize]
	}
	if len(all) == 0 {
		return nil, lastID, nil
	}
	return all, all[len(all)-1].ID, nil
}

// --- EdgeStore ---

func (m *memStore) CreateEdge(ctx context.Context, followerID, followingID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]uint64{followerID, followingID}
	if _, ok := m.edges[key]; ok {
		return mysql.ErrEdgeExists
	}
	m.edges[key] = &model.FollowEdge{ID: m.id(), FollowerID: followerID, FollowingID: followingID}
	return nil
}

func (m *memStore) DeleteEdge(ctx context.Context, followerID, followingID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]uint64{followerID, followingID}
	if _, ok := m.edges[key]; !ok {
		return false, nil
	}
	delete(m.edges, key)
	return true, nil
}

func (m *memStore) EdgeExists(ctx context.Context, followerID, followingID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.edges[[2]uint64{followerID, followingID}]
	return ok, nil
}

func (m *memStore) ListFollowers(ctx context.Context, userID uint64, cursor uint64, limit int) ([]model.FollowEdge, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.FollowEdge
	for _, e := range m.edges {
		if e.FollowingID == userID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, 0, nil
}

func (m *memStore) ListFollowings(ctx context.Context, userID uint64, cursor uint64, limit int) ([]model.FollowEdge, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.FollowEdge
	for _, e := range m.edges {
		if e.FollowerID == userID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, 0, nil
}

func (m *memStore) NeighborIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[uint64]struct{}{}
	var out []uint64
	for key := range m.edges {
		var other uint64
		if key[0] == userID {
			other = key[1]
		} else if key[1] == userID {
			other = key[0]
		} else {
			continue
		}
		if _, ok := seen[other]; !ok {
			seen[other] = struct{}{}
			out = append(out, other)
		}
	}
	return out, nil
}

func (m *memStore) DeleteTouching(ctx context.Context, userID uint64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for key := range m.edges {
		if key[0] == userID || key[1] == userID {
			delete(m.edges, key)
			n++
		}
	}
	return n, nil
}

func (m *memStore) DeleteOrphans(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for key := range m.edges {
		_, okA := m.profiles[key[0]]
		_, okB := m.profiles[key[1]]
		if !okA || !okB {
			delete(m.edges, key)
			n++
		}
	}
	return n, nil
}

// --- VisibilityStore（通过包装结构暴露，见 visStore）---

type visStore struct{ m *memStore }

func (v visStore) Upsert(ctx context.Context, entryID, userID uint64, isPublic bool) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	key := [2]uint64{entryID, userID}
	rec, ok := v.m.vis[key]
	if !ok {
		rec = &model.VisibilityRecord{ID: v.m.id(), EntryID: entryID, UserID: userID}
		v.m.vis[key] = rec
	}
	rec.IsPublic = isPublic
	if isPublic {
		now := time.Now()
		rec.MadePublicAt = &now
	}
	return nil
}

func (v visStore) DeleteForEntry(ctx context.Context, entryID uint64) (int64, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	var n int64
	for key := range v.m.vis {
		if key[0] == entryID {
			delete(v.m.vis, key)
			n++
		}
	}
	return n, nil
}

func (v visStore) DeleteByOwner(ctx context.Context, userID uint64) (int64, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	var n int64
	for key := range v.m.vis {
		if key[1] == userID {
			delete(v.m.vis, key)
			n++
		}
	}
	return n, nil
}

func (v visStore) DeleteOrphans(ctx context.Context) (int64, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	var n int64
	for key := range v.m.vis {
		if _, ok := v.m.entries[key[0]]; !ok {
			delete(v.m.vis, key)
			n++
		}
	}
	return n, nil
}

// --- EntryStore ---

type entryStore struct{ m *memStore }

func (e entryStore) Create(ctx context.Context, entry *model.Entry) error {
	e.m.mu.Lock()
	defer e.m.mu.Unlock()
	entry.ID = e.m.id()
	cp := *entry
	e.m.entries[entry.ID] = &cp
	return nil
}

func (e entryStore) FindByID(ctx context.Context, id uint64) (*model.Entry, error) {
	e.m.mu.Lock()
	defer e.m.mu.Unlock()
	entry, ok := e.m.entries[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *entry
	return &cp, nil
}

func (e entryStore) ListByAuthor(ctx context.Context, authorID uint64, cursor uint64, limit int) ([]model.Entry, uint64, error) {
	e.m.mu.Lock()
	defer e.m.mu.Unlock()
	var out []model.Entry
	for _, entry := range e.m.entries {
		if entry.AuthorID == authorID {
			out = append(out, *entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, 0, nil
}

func (e entryStore) Delete(ctx context.Context, id, authorID uint64) (int64, error) {
	e.m.mu.Lock()
	defer e.m.mu.Unlock()
	entry, ok := e.m.entries[id]
	if !ok || entry.AuthorID != authorID {
		return 0, nil
	}
	delete(e.m.entries, id)
	return 1, nil
}

func (e entryStore) CountOwnedIn(ctx context.Context, authorID uint64, entryIDs []uint64) (int64, error) {
	e.m.mu.Lock()
	defer e.m.mu.Unlock()
	var n int64
	for _, id := range entryIDs {
		if entry, ok := e.m.entries[id]; ok && entry.AuthorID == authorID {
			n++
		}
	}
	return n, nil
}

// --- AggregateStore ---

type aggStore struct{ m *memStore }

// Counts 与mysql实现同语义：以传入Profile的当前journey flag分支
func (a aggStore) Counts(ctx context.Context, profiles []model.Profile) ([]model.ProfileCounts, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	out := make([]model.ProfileCounts, 0, len(profiles))
	for _, p := range profiles {
		c := model.ProfileCounts{UserID: p.UserID}
		for key := range a.m.edges {
			if key[1] == p.UserID {
				c.FollowersCount++
			}
			if key[0] == p.UserID {
				c.FollowingCount++
			}
		}
		if p.IsJourneyPublic {
			for _, entry := range a.m.entries {
				if entry.AuthorID == p.UserID {
					c.PublicEntriesCount++
				}
			}
		} else {
			for key, rec := range a.m.vis {
				if key[1] == p.UserID && rec.IsPublic {
					if _, ok := a.m.entries[key[0]]; ok {
						c.PublicEntriesCount++
					}
				}
			}
		}
		out = append(out, c)
	}
	return out, nil
}

// --- StatsCache ---

type cacheStore struct{ m *memStore }

func (c cacheStore) Get(ctx context.Context, userID uint64) (model.ProfileCounts, bool, error) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	v, ok := c.m.cache[userID]
	return v, ok, nil
}

func (c cacheStore) Set(ctx context.Context, v model.ProfileCounts) error {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	c.m.cache[v.UserID] = v
	return nil
}

func (c cacheStore) Invalidate(ctx context.Context, userIDs ...uint64) error {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	for _, id := range userIDs {
		delete(c.m.cache, id)
	}
	return nil
}

// --- OutboxStore ---

type outboxStore struct{ m *memStore }

func (o outboxStore) Insert(ctx context.Context, event string, follower, followee uint64) error {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	o.m.outbox = append(o.m.outbox, model.SocialOutbox{
		ID:        o.m.id(),
		EventType: event,
		Follower:  follower,
		Followee:  followee,
	})
	return nil
}

func (o outboxStore) List(ctx context.Context, batchSize int) ([]model.SocialOutbox, error) {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	var out []model.SocialOutbox
	for _, ob := range o.m.outbox {
		if ob.Status == 0 && len(out) < batchSize {
			out = append(out, ob)
		}
	}
	return out, nil
}

func (o outboxStore) RetryUpdate(ctx context.Context, id uint64) error {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	for i := range o.m.outbox {
		if o.m.outbox[i].ID == id {
			o.m.outbox[i].Status = 2
			o.m.outbox[i].Retry++
		}
	}
	return nil
}

func (o outboxStore) SuccessUpdate(ctx context.Context, id uint64) error {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	for i := range o.m.outbox {
		if o.m.outbox[i].ID == id {
			o.m.outbox[i].Status = 1
		}
	}
	return nil
}

// --- 组装 ---

type testEnv struct {
	store   *memStore
	rec     *ReconcileService
	follow  *FollowService
	profile *ProfileService
	vis     *VisibilityService
	entry   *EntryService
}

func newTestEnv() *testEnv {
	m := newMemStore()
	rec := NewReconcileService(m, aggStore{m}, m, visStore{m}, cacheStore{m})
	return &testEnv{
		store:   m,
		rec:     rec,
		follow:  NewFollowService(m, m, outboxStore{m}, cacheStore{m}, rec),
		profile: NewProfileService(m, m, visStore{m}, cacheStore{m}, rec),
		vis:     NewVisibilityService(entryStore{m}, visStore{m}, cacheStore{m}, rec),
		entry:   NewEntryService(entryStore{m}, visStore{m}, cacheStore{m}, rec),
	}
}

func (e *testEnv) mustProfile(userID uint64, handle string) *model.Profile {
	p := &model.Profile{UserID: userID, Handle: handle, DisplayName: handle, IsActive: true}
	if err := e.store.Create(context.Background(), p); err != nil {
		panic(err)
	}
	return p
}

func (e *testEnv) storedProfile(userID uint64) *model.Profile {
	p, err := e.store.FindByUserID(context.Background(), userID)
	if err != nil {
		panic(err)
	}
	return p
}
