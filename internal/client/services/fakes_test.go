package services

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/miarbol/internal/client/client"
	"github.com/dmitrijs2005/miarbol/internal/client/models"
)

// ---- metadata repository ----

type memRepo struct {
	mu      sync.Mutex
	data    map[string][]byte
	failSet error
	failGet error
}

func newMemRepo() *memRepo { return &memRepo{data: map[string][]byte{}} }

func (r *memRepo) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGet != nil {
		return nil, r.failGet
	}
	v, ok := r.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (r *memRepo) Set(ctx context.Context, key string, value []byte) error {
	return r.SetMany(ctx, map[string][]byte{key: value})
}

func (r *memRepo) SetMany(_ context.Context, values map[string][]byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSet != nil {
		return r.failSet
	}
	for k, v := range values {
		r.data[k] = append([]byte(nil), v...)
	}
	return nil
}

func (r *memRepo) Delete(_ context.Context, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range keys {
		delete(r.data, k)
	}
	return nil
}

func (r *memRepo) has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.data[key]
	return ok
}

// ---- auth backend ----

type fakeAuthAPI struct {
	mu       sync.Mutex
	tokens   client.Tokens
	listener client.SessionListener

	loginResp *models.AuthResponse
	loginErr  error
	loginN    int

	registerResp *models.AuthResponse
	registerErr  error

	logoutErr error
	logoutN   int

	me    *models.User
	meErr error
	meN   int

	addRoleErr error
	addedRoles []models.Role

	switchResp *models.AuthResponse
	switchErr  error

	updateErr error
	updates   []models.ProfileUpdate
}

func (f *fakeAuthAPI) Login(_ context.Context, _, _ string) (*models.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginN++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.tokens = client.Tokens{Access: f.loginResp.Token, Refresh: f.loginResp.RefreshToken}
	return f.loginResp, nil
}

func (f *fakeAuthAPI) Register(_ context.Context, _ models.RegisterInput) (*models.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	f.tokens = client.Tokens{Access: f.registerResp.Token, Refresh: f.registerResp.RefreshToken}
	return f.registerResp, nil
}

func (f *fakeAuthAPI) Logout(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutN++
	f.tokens = client.Tokens{}
	return f.logoutErr
}

func (f *fakeAuthAPI) Me(_ context.Context) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meN++
	if f.meErr != nil {
		return nil, f.meErr
	}
	return f.me.Clone(), nil
}

func (f *fakeAuthAPI) AddRole(_ context.Context, role models.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addRoleErr != nil {
		return f.addRoleErr
	}
	f.addedRoles = append(f.addedRoles, role)
	return nil
}

func (f *fakeAuthAPI) SwitchRole(_ context.Context, _ models.Role) (*models.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.switchErr != nil {
		return nil, f.switchErr
	}
	if f.switchResp.Token != "" {
		f.tokens.Access = f.switchResp.Token
	}
	return f.switchResp, nil
}

func (f *fakeAuthAPI) UpdateUser(_ context.Context, _ models.ID, in models.ProfileUpdate) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updates = append(f.updates, in)
	return f.me.Clone(), nil
}

func (f *fakeAuthAPI) SetTokens(t client.Tokens) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = t
}

func (f *fakeAuthAPI) Tokens() client.Tokens {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokens
}

func (f *fakeAuthAPI) SetSessionListener(l client.SessionListener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listener = l
}

// ---- tree backend ----

type fakeTreeAPI struct {
	mu sync.Mutex

	trees     []models.Tree
	listErr   error
	listN     int
	lastQuery models.TreeFilter
	// block, when set, makes ListTrees wait until it is closed; started
	// is closed when the first ListTrees call begins.
	block       chan struct{}
	started     chan struct{}
	startedOnce sync.Once

	markers    []models.TreeMarker
	markersErr error
	markersN   int

	getErr    error
	createErr error
	updateErr error
	deleteErr error
	nextID    int
}

func (f *fakeTreeAPI) ListTrees(_ context.Context, filter models.TreeFilter) ([]models.Tree, error) {
	f.mu.Lock()
	f.listN++
	f.lastQuery = filter
	block, started := f.block, f.started
	f.mu.Unlock()

	if started != nil {
		f.startedOnce.Do(func() { close(started) })
	}
	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.Tree(nil), f.trees...), nil
}

func (f *fakeTreeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listN
}

func (f *fakeTreeAPI) ListTreeMarkers(_ context.Context) ([]models.TreeMarker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markersN++
	if f.markersErr != nil {
		return nil, f.markersErr
	}
	return append([]models.TreeMarker(nil), f.markers...), nil
}

func (f *fakeTreeAPI) GetTree(_ context.Context, id models.ID) (*models.Tree, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, t := range f.trees {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, client.ErrNotFound
}

func (f *fakeTreeAPI) CreateTree(_ context.Context, in models.NewTreeInput) (*models.Tree, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	t := models.Tree{ID: models.ID("new-" + string(rune('0'+f.nextID))), Name: in.Name, Country: in.Country, Status: models.TreeStatusUnplanted}
	f.trees = append(f.trees, t)
	return &t, nil
}

func (f *fakeTreeAPI) UpdateTreeStatus(_ context.Context, id models.ID, status models.TreeStatus) (*models.Tree, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	for i := range f.trees {
		if f.trees[i].ID == id {
			f.trees[i].Status = status
			t := f.trees[i]
			return &t, nil
		}
	}
	return nil, client.ErrNotFound
}

func (f *fakeTreeAPI) DeleteTree(_ context.Context, id models.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i := range f.trees {
		if f.trees[i].ID == id {
			f.trees = append(f.trees[:i], f.trees[i+1:]...)
			return nil
		}
	}
	return client.ErrNotFound
}

var errBackendDown = errors.New("backend down")
