package services

import (
	"context"
	"sync"
	"time"

	"nutrihelper/internal/amqp"
	"nutrihelper/internal/api"
	"nutrihelper/internal/core"
	"nutrihelper/internal/session"
)

type fakeBackend struct {
	mu sync.Mutex

	entries []core.FoodEntry
	recipes []core.Recipe
	info    core.FoodInfo
	err     error

	added      []core.FoodEntry
	listCalls  int
	filterFrom time.Time
	filterTo   time.Time
	creds      []api.Credential
}

func (f *fakeBackend) AddFoodEntry(_ context.Context, cred api.Credential, e core.FoodEntry) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creds = append(f.creds, cred)
	if f.err != nil {
		return "", f.err
	}
	f.added = append(f.added, e)
	f.entries = append(f.entries, e)
	return "Food entry added successfully", nil
}

func (f *fakeBackend) ListFoodEntries(ctx context.Context, cred api.Credential) ([]core.FoodEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creds = append(f.creds, cred)
	f.listCalls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return append([]core.FoodEntry(nil), f.entries...), nil
}

func (f *fakeBackend) FilterFoodEntries(_ context.Context, cred api.Credential, from, to time.Time) ([]core.FoodEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creds = append(f.creds, cred)
	f.filterFrom, f.filterTo = from, to
	if f.err != nil {
		return nil, f.err
	}
	return append([]core.FoodEntry(nil), f.entries...), nil
}

func (f *fakeBackend) LookupFood(_ context.Context, _ api.Credential, _ string) (core.FoodInfo, error) {
	return f.info, f.err
}

func (f *fakeBackend) RecommendRecipes(_ context.Context, _ api.Credential, _ core.MacroTargets) ([]core.Recipe, error) {
	return f.recipes, f.err
}

// blockingListBackend holds its first list call after reading entries
// until release is closed.
type blockingListBackend struct {
	*fakeBackend
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingListBackend() *blockingListBackend {
	return &blockingListBackend{
		fakeBackend: &fakeBackend{},
		started:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (b *blockingListBackend) ListFoodEntries(ctx context.Context, cred api.Credential) ([]core.FoodEntry, error) {
	entries, err := b.fakeBackend.ListFoodEntries(ctx, cred)
	b.once.Do(func() {
		close(b.started)
		<-b.release
	})
	return entries, err
}

type fakeSnapshots struct {
	days  []core.DailyTotals
	users []string
}

func (f *fakeSnapshots) Snapshot(_ context.Context, user string, _ time.Time) ([]core.DailyTotals, error) {
	f.users = append(f.users, user)
	return f.days, nil
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*amqp.EntryLoggedMessage
	err  error
}

func (p *fakePublisher) PublishEntryLogged(_ context.Context, msg *amqp.EntryLoggedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

type fakeInvalidator struct {
	users []string
}

func (f *fakeInvalidator) Invalidate(user string) {
	f.users = append(f.users, user)
}

type fakeAuth struct {
	token     api.Credential
	err       error
	logoutErr error
	loggedOut []api.Credential
}

func (a *fakeAuth) Signup(context.Context, api.SignupRequest) (string, error) {
	return "User created", a.err
}

func (a *fakeAuth) Login(context.Context, string, string) (api.Credential, error) {
	if a.err != nil {
		return "", a.err
	}
	return a.token, nil
}

func (a *fakeAuth) Logout(_ context.Context, cred api.Credential) error {
	a.loggedOut = append(a.loggedOut, cred)
	return a.logoutErr
}

func (a *fakeAuth) ForgotPassword(context.Context, api.PasswordReset) (string, error) {
	return "Password updated", a.err
}

type fakeSearcher struct {
	found []core.FoodCandidate
	terms string
}

func (s *fakeSearcher) Search(_ context.Context, terms string) ([]core.FoodCandidate, error) {
	s.terms = terms
	return s.found, nil
}

func testSession() session.Session {
	return session.Session{
		ID:        "sess-1",
		Token:     "tok-123",
		Email:     "Ada@Example.com",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
