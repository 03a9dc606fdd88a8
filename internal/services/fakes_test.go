package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lecturehub/apiserver/internal/store"
	"github.com/lecturehub/apiserver/types"
)

var errBoom = errors.New("boom")

type memLectures struct {
	mu        sync.Mutex
	nextID    int
	items     map[int]types.Lecture
	usernames map[int]string
	createErr error
	updateErr error
	deleteErr error
	listErr   error
}

func newMemLectures(users ...types.User) *memLectures {
	names := make(map[int]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return &memLectures{items: map[int]types.Lecture{}, usernames: names}
}

func (m *memLectures) List(_ context.Context) ([]types.Lecture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]types.Lecture, 0, len(m.items))
	for _, l := range m.items {
		out = append(out, m.withCreator(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memLectures) Get(_ context.Context, id int) (types.Lecture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.items[id]
	if !ok {
		return types.Lecture{}, store.ErrNotFound
	}
	return m.withCreator(l), nil
}

func (m *memLectures) Create(_ context.Context, l types.Lecture) (types.Lecture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return types.Lecture{}, m.createErr
	}
	m.nextID++
	l.ID = m.nextID
	l.CreatedAt = time.Now()
	l.UpdatedAt = l.CreatedAt
	l.CreatedBy = nil
	m.items[l.ID] = l
	return l, nil
}

func (m *memLectures) Update(_ context.Context, l types.Lecture) (types.Lecture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return types.Lecture{}, m.updateErr
	}
	if _, ok := m.items[l.ID]; !ok {
		return types.Lecture{}, store.ErrNotFound
	}
	l.UpdatedAt = time.Now()
	m.items[l.ID] = l
	return l, nil
}

func (m *memLectures) Delete(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memLectures) withCreator(l types.Lecture) types.Lecture {
	l.CreatedBy = &types.Creator{ID: l.CreatorID, Username: m.usernames[l.CreatorID]}
	return l
}

// memAssets owns every locator it handed out under its own prefix.
type memAssets struct {
	mu        sync.Mutex
	seq       int
	objects   map[string][]byte
	deleted   []string
	putErr    error
	deleteErr error
}

const memAssetPrefix = "https://bucket.example/lectures/"

func newMemAssets() *memAssets {
	return &memAssets{objects: map[string][]byte{}}
}

func (a *memAssets) Put(_ context.Context, data []byte, _ string, filename string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.putErr != nil {
		return "", a.putErr
	}
	a.seq++
	locator := memAssetPrefix + string(rune('a'+a.seq-1)) + "-" + filename
	a.objects[locator] = data
	return locator, nil
}

func (a *memAssets) Delete(_ context.Context, locator string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.deleted = append(a.deleted, locator)
	if a.deleteErr != nil {
		return a.deleteErr
	}
	delete(a.objects, locator)
	return nil
}

func (a *memAssets) Owns(locator string) bool {
	return strings.HasPrefix(locator, memAssetPrefix)
}

type recordedEvents struct {
	mu     sync.Mutex
	events []types.LectureEvent
	err    error
}

func (r *recordedEvents) PublishLectureEvent(_ context.Context, e types.LectureEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

type countingRecorder struct {
	ops      map[string]int
	failures map[string]int
	cleanups map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{ops: map[string]int{}, failures: map[string]int{}, cleanups: map[string]int{}}
}

func (c *countingRecorder) LectureOperation(op string, err error) {
	c.ops[op]++
	if err != nil {
		c.failures[op]++
	}
}

func (c *countingRecorder) AssetCleanupFailed(reason string) {
	c.cleanups[reason]++
}

type memUsers struct {
	mu        sync.Mutex
	nextID    int
	items     map[int]types.User
	createErr error
	updateErr error
}

func newMemUsers() *memUsers {
	return &memUsers{items: map[int]types.User{}}
}

func (m *memUsers) GetByID(_ context.Context, id int) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.items[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (types.User, error) {
	return m.find(func(u types.User) bool { return u.Username == username })
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (types.User, error) {
	return m.find(func(u types.User) bool { return u.Email == email })
}

func (m *memUsers) find(match func(types.User) bool) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.items {
		if match(u) {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUsers) ExistsOther(_ context.Context, excludeID int, username, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.items {
		if u.ID == excludeID {
			continue
		}
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) Create(_ context.Context, u types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return types.User{}, m.createErr
	}
	m.nextID++
	u.ID = m.nextID
	m.items[u.ID] = u
	return u, nil
}

func (m *memUsers) Update(_ context.Context, u types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return types.User{}, m.updateErr
	}
	if _, ok := m.items[u.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	m.items[u.ID] = u
	return u, nil
}

type stubTokens struct {
	err error
}

func (s stubTokens) Issue(user types.User) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "token-for-" + user.Username, nil
}
