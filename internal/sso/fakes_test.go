package sso

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/greenmarket/sso/internal/domain/repository"
	"github.com/greenmarket/sso/internal/provider"
)

// memStore is an in-memory repository.Store for service-level tests.
type memStore struct {
	mu sync.Mutex

	users       map[int64]*repository.User
	accounts    map[int64]*repository.SocialAccount
	suspensions []*repository.UserSuspension

	nextUserID    int64
	nextAccountID int64

	// failUpdateTokens makes every UpdateTokens call fail, for exercising
	// best-effort paths.
	failUpdateTokens bool
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[int64]*repository.User),
		accounts: make(map[int64]*repository.SocialAccount),
	}
}

func (s *memStore) Repos() repository.Repos {
	return repository.Repos{
		Users:    (*memUsers)(s),
		Social:   (*memSocial)(s),
		Suspends: (*memSuspends)(s),
	}
}

// RunTx runs fn against the live maps. Rollback is not emulated; tests that
// exercise failure paths fail before any write happens.
func (s *memStore) RunTx(_ context.Context, fn func(r repository.Repos) error) error {
	return fn(s.Repos())
}

func (s *memStore) addUser(u repository.User) *repository.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUserID++
	u.ID = s.nextUserID
	if u.Status == "" {
		u.Status = repository.UserStatusActive
	}
	u.CreatedAt = time.Now().UTC()
	s.users[u.ID] = &u
	return &u
}

func (s *memStore) addAccount(a repository.SocialAccount) *repository.SocialAccount {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextAccountID++
	a.ID = s.nextAccountID
	a.CreatedAt = time.Now().UTC()
	s.accounts[a.ID] = &a
	return &a
}

func (s *memStore) addSuspension(su repository.UserSuspension) {
	s.mu.Lock()
	defer s.mu.Unlock()
	su.ID = int64(len(s.suspensions) + 1)
	if su.CreatedAt.IsZero() {
		su.CreatedAt = time.Now().UTC()
	}
	s.suspensions = append(s.suspensions, &su)
}

type memUsers memStore

func (m *memUsers) GetByID(_ context.Context, id int64) (*repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email && u.Status != repository.UserStatusWithdrawn {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByPhone(_ context.Context, phone string) (*repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Phone == phone && u.Status != repository.UserStatusWithdrawn {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) Create(_ context.Context, in repository.CreateUserInput) (*repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if in.Phone != "" && u.Phone == in.Phone && u.Status != repository.UserStatusWithdrawn {
			return nil, repository.ErrConflict
		}
	}
	m.nextUserID++
	u := &repository.User{
		ID:        m.nextUserID,
		Email:     in.Email,
		Phone:     in.Phone,
		Nickname:  in.Nickname,
		Status:    repository.UserStatusActive,
		CreatedAt: time.Now().UTC(),
	}
	m.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (m *memUsers) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.LastLoginAt = &at
	return nil
}

func (m *memUsers) Withdraw(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Status = repository.UserStatusWithdrawn
	u.DeletedAt = &at
	return nil
}

type memSocial memStore

func (m *memSocial) GetByProviderID(_ context.Context, prov, providerUserID string) (*repository.SocialAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Provider == prov && a.ProviderUserID == providerUserID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memSocial) GetByUser(_ context.Context, userID int64) ([]repository.SocialAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.SocialAccount
	for _, a := range m.accounts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memSocial) GetByUserAndProvider(_ context.Context, userID int64, prov string) (*repository.SocialAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.UserID == userID && a.Provider == prov {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memSocial) Create(_ context.Context, in repository.LinkInput) (*repository.SocialAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Provider == in.Provider && a.ProviderUserID == in.ProviderUserID {
			return nil, repository.ErrConflict
		}
	}
	m.nextAccountID++
	at, rt := in.AccessToken, in.RefreshToken
	a := &repository.SocialAccount{
		ID:             m.nextAccountID,
		UserID:         in.UserID,
		Provider:       in.Provider,
		ProviderUserID: in.ProviderUserID,
		AccessToken:    &at,
		RefreshToken:   &rt,
		CreatedAt:      time.Now().UTC(),
	}
	m.accounts[a.ID] = a
	cp := *a
	return &cp, nil
}

func (m *memSocial) UpdateTokens(_ context.Context, id int64, accessToken, refreshToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdateTokens {
		return repository.ErrInvalidInput
	}
	a, ok := m.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	at, rt := accessToken, refreshToken
	a.AccessToken = &at
	a.RefreshToken = &rt
	return nil
}

func (m *memSocial) ClearTokens(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.AccessToken = nil
	a.RefreshToken = nil
	return nil
}

func (m *memSocial) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.accounts, id)
	return nil
}

type memSuspends memStore

func (m *memSuspends) GetActive(_ context.Context, userID int64, now time.Time) (*repository.UserSuspension, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *repository.UserSuspension
	for _, s := range m.suspensions {
		if s.UserID != userID || s.LiftedAt != nil || !s.Deadline.After(now) {
			continue
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

// fakeClient is a programmable provider.Client.
type fakeClient struct {
	name string

	exchange func(ctx context.Context, code string) (*provider.TokenSet, error)
	fetch    func(ctx context.Context, accessToken string) (provider.RawProfile, error)
	norm     func(raw provider.RawProfile) (*provider.CanonicalProfile, error)
	refresh  func(ctx context.Context, refreshToken string) (string, error)
	revoke   func(ctx context.Context, grant provider.RevokeGrant) error

	mu          sync.Mutex
	revokeCalls []provider.RevokeGrant
}

func (f *fakeClient) Name() string { return f.name }

func (f *fakeClient) ExchangeCode(ctx context.Context, code string) (*provider.TokenSet, error) {
	if f.exchange != nil {
		return f.exchange(ctx, code)
	}
	return &provider.TokenSet{AccessToken: "at-" + code, RefreshToken: "rt-" + code}, nil
}

func (f *fakeClient) FetchProfile(ctx context.Context, accessToken string) (provider.RawProfile, error) {
	if f.fetch != nil {
		return f.fetch(ctx, accessToken)
	}
	return provider.RawProfile{}, nil
}

func (f *fakeClient) Normalize(raw provider.RawProfile) (*provider.CanonicalProfile, error) {
	if f.norm != nil {
		return f.norm(raw)
	}
	return &provider.CanonicalProfile{Provider: f.name, ExternalID: "ext-1"}, nil
}

func (f *fakeClient) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	if f.refresh != nil {
		return f.refresh(ctx, refreshToken)
	}
	return "refreshed-token", nil
}

func (f *fakeClient) RevokeLink(ctx context.Context, grant provider.RevokeGrant) error {
	f.mu.Lock()
	f.revokeCalls = append(f.revokeCalls, grant)
	f.mu.Unlock()
	if f.revoke != nil {
		return f.revoke(ctx, grant)
	}
	return nil
}

func (f *fakeClient) revokeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.revokeCalls)
}

func registryWith(clients ...*fakeClient) *provider.Registry {
	reg := provider.NewRegistry()
	for _, c := range clients {
		c := c
		reg.Register(c.name, provider.Config{}, func(provider.Config) (provider.Client, error) {
			return c, nil
		})
	}
	return reg
}

func strptr(s string) *string { return &s }
