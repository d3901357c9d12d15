package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/theater-booking/internal/model"
	"github.com/iliyamo/theater-booking/internal/queue"
	"github.com/iliyamo/theater-booking/internal/repository"
	"github.com/iliyamo/theater-booking/internal/utils"
)

// memDB backs all fake stores so that deleting a user can clear theater
// managers and memberships the way the MySQL schema does.
type memDB struct {
	mu       sync.Mutex
	users    map[int64]*model.User
	roles    map[string]int64
	members  map[int64]map[int64]bool
	theaters map[int64]*model.Theater
	nextID   int64
	policy   utils.PasswordPolicy
}

func newMemDB() *memDB {
	return &memDB{
		users:    map[int64]*model.User{},
		roles:    map[string]int64{},
		members:  map[int64]map[int64]bool{},
		theaters: map[int64]*model.Theater{},
		policy:   utils.DefaultPasswordPolicy(),
	}
}

func (db *memDB) id() int64 { db.nextID++; return db.nextID }

type memUsers struct{ db *memDB }

func (m memUsers) FindByUsername(_ context.Context, name string) (*model.User, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, u := range m.db.users {
		if u.NormalizedUsername == model.NormalizeUsername(name) {
			c := *u
			return &c, nil
		}
	}
	return nil, model.ErrNotFound
}

func (m memUsers) FindByID(_ context.Context, id int64) (*model.User, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	u, ok := m.db.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (m memUsers) List(_ context.Context) ([]*model.User, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := make([]*model.User, 0, len(m.db.users))
	for _, u := range m.db.users {
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memUsers) Create(ctx context.Context, username, password string, roles []model.Role) (*model.User, error) {
	if username == "" {
		return nil, utils.CheckUsername(username)
	}
	if _, err := m.FindByUsername(ctx, username); err == nil {
		return nil, model.ErrDuplicateUsername
	}
	if err := utils.CheckUsername(username); err != nil {
		return nil, err
	}
	if err := m.db.policy.Check(password); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	u := &model.User{ID: m.db.id(), Username: username, NormalizedUsername: model.NormalizeUsername(username), PasswordHash: hash}
	m.db.users[u.ID] = u
	m.db.members[u.ID] = map[int64]bool{}
	for _, r := range roles {
		m.db.members[u.ID][r.ID] = true
	}
	c := *u
	return &c, nil
}

func (m memUsers) Verify(u *model.User, password string) bool {
	return u != nil && utils.VerifyPassword(u.PasswordHash, password)
}

func (m memUsers) ChangePassword(_ context.Context, id int64, password string) error {
	if err := m.db.policy.Check(password); err != nil {
		return err
	}
	hash, err := utils.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		return err
	}
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	u, ok := m.db.users[id]
	if !ok {
		return model.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m memUsers) Delete(_ context.Context, id int64) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.users[id]; !ok {
		return false, nil
	}
	for _, t := range m.db.theaters {
		if t.ManagedBy(id) {
			t.ManagerID = nil
		}
	}
	delete(m.db.members, id)
	delete(m.db.users, id)
	return true, nil
}

func (m memUsers) Exists(_ context.Context, id int64) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	_, ok := m.db.users[id]
	return ok, nil
}

type memRoles struct{ db *memDB }

func (m memRoles) Exists(_ context.Context, name string) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	_, ok := m.db.roles[name]
	return ok, nil
}

func (m memRoles) Create(_ context.Context, name string) (*model.Role, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.roles[name]; ok {
		return nil, model.ErrDuplicateRole
	}
	id := m.db.id()
	m.db.roles[name] = id
	return &model.Role{ID: id, Name: name}, nil
}

func (m memRoles) Resolve(_ context.Context, names []string) ([]model.Role, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := []model.Role{}
	for _, n := range names {
		id, ok := m.db.roles[n]
		if !ok {
			return nil, &model.UnknownRoleError{Role: n}
		}
		out = append(out, model.Role{ID: id, Name: n})
	}
	return out, nil
}

func (m memRoles) Assign(ctx context.Context, userID int64, name string) error {
	roles, err := m.Resolve(ctx, []string{name})
	if err != nil {
		return err
	}
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if m.db.members[userID] == nil {
		m.db.members[userID] = map[int64]bool{}
	}
	m.db.members[userID][roles[0].ID] = true
	return nil
}

func (m memRoles) RevokeAll(_ context.Context, userID int64) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.members[userID] = map[int64]bool{}
	return nil
}

func (m memRoles) ReplaceAll(ctx context.Context, userID int64, names []string) error {
	roles, err := m.Resolve(ctx, names)
	if err != nil {
		return err
	}
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	set := map[int64]bool{}
	for _, r := range roles {
		set[r.ID] = true
	}
	m.db.members[userID] = set
	return nil
}

func (m memRoles) RolesOf(_ context.Context, userID int64) ([]string, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := []string{}
	for name, id := range m.db.roles {
		if m.db.members[userID][id] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

type memTheaters struct{ db *memDB }

func (m memTheaters) List(_ context.Context) ([]*model.Theater, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := []*model.Theater{}
	for _, t := range m.db.theaters {
		c := *t
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memTheaters) Get(_ context.Context, id int64) (*model.Theater, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	t, ok := m.db.theaters[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (m memTheaters) Count(_ context.Context) (int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	return len(m.db.theaters), nil
}

func (m memTheaters) checkManager(id *int64) error {
	if id == nil {
		return nil
	}
	if _, ok := m.db.users[*id]; !ok {
		return model.ErrInvalidManager
	}
	return nil
}

func (m memTheaters) Insert(_ context.Context, t model.Theater) (*model.Theater, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if err := m.checkManager(t.ManagerID); err != nil {
		return nil, err
	}
	t.ID = m.db.id()
	m.db.theaters[t.ID] = &t
	c := t
	return &c, nil
}

func (m memTheaters) Update(_ context.Context, id int64, fn repository.UpdateFunc) (*model.Theater, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	cur, ok := m.db.theaters[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	next, err := fn(*cur)
	if err != nil {
		return nil, err
	}
	next.ID = id
	if err := next.Validate(); err != nil {
		return nil, err
	}
	if err := m.checkManager(next.ManagerID); err != nil {
		return nil, err
	}
	m.db.theaters[id] = &next
	c := next
	return &c, nil
}

func (m memTheaters) Delete(_ context.Context, id int64) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.theaters[id]; !ok {
		return false, nil
	}
	delete(m.db.theaters, id)
	return true, nil
}

type memSession struct {
	userID  int64
	exp     time.Time
	revoked bool
}

type memSessions struct {
	mu   sync.Mutex
	byID map[string]*memSession
}

func newMemSessions() *memSessions { return &memSessions{byID: map[string]*memSession{}} }

func (m *memSessions) Create(_ context.Context, sid string, userID int64, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[sid] = &memSession{userID: userID, exp: exp}
	return nil
}

func (m *memSessions) Lookup(_ context.Context, sid string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[sid]
	if !ok || s.revoked || time.Now().After(s.exp) {
		return 0, model.ErrNotFound
	}
	return s.userID, nil
}

func (m *memSessions) Revoke(_ context.Context, sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.byID[sid]; ok {
		s.revoked = true
	}
	return nil
}

func (m *memSessions) RevokeAll(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.byID {
		if s.userID == userID {
			s.revoked = true
		}
	}
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.AuditEvent
}

func (r *recordingPublisher) Publish(_ context.Context, ev queue.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingPublisher) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Action)
	}
	return out
}
