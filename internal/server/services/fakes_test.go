package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/factfeed/internal/common"
	"github.com/dmitrijs2005/factfeed/internal/dbx"
	domain "github.com/dmitrijs2005/factfeed/internal/facts"
	"github.com/dmitrijs2005/factfeed/internal/server/models"
	"github.com/dmitrijs2005/factfeed/internal/server/repositories/facts"
	"github.com/dmitrijs2005/factfeed/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// --- users ---

type fakeUsersRepo struct {
	mu     sync.Mutex
	byID   map[string]*models.User
	getErr error

	createErr error
	lastCreated *models.User
}

func newFakeUsersRepo(list ...*models.User) *fakeUsersRepo {
	r := &fakeUsersRepo{byID: map[string]*models.User{}}
	for _, u := range list {
		r.byID[u.ID] = u
	}
	return r
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *u
	c.CreatedAt = time.Now()
	f.byID[u.ID] = &c
	f.lastCreated = &c
	return &c, nil
}

func (f *fakeUsersRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

// --- refresh tokens ---

type fakeTokens struct {
	mu     sync.Mutex
	tokens map[string]models.RefreshToken

	createErr  error
	consumeErr error
	revokedFor []string
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{tokens: map[string]models.RefreshToken{}}
}

func (f *fakeTokens) Create(ctx context.Context, t *models.RefreshToken, validity time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	c := *t
	c.ExpiresAt = time.Now().Add(validity)
	f.tokens[t.Token] = c
	return nil
}

func (f *fakeTokens) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (f *fakeTokens) Consume(ctx context.Context, token string) (*models.RefreshToken, error) {
	if f.consumeErr != nil {
		return nil, f.consumeErr
	}
	t, err := f.Find(ctx, token)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	delete(f.tokens, token)
	f.mu.Unlock()
	return t, nil
}

func (f *fakeTokens) Delete(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
	return nil
}

func (f *fakeTokens) DeleteAllForUser(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revokedFor = append(f.revokedFor, userID)
	for k, t := range f.tokens {
		if t.UserID == userID {
			delete(f.tokens, k)
		}
	}
	return nil
}

func (f *fakeTokens) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens)
}

// --- facts ---

type fakeFactsRepo struct {
	listOut []domain.Fact
	listErr error
	lastQ   facts.Query
	lists   int

	created   []domain.NewFact
	createErr error
	nextID    int64

	lastVotes map[domain.VoteColumn]int
	updateOut []domain.Fact

	deletedID int64
	deleteOut []domain.Fact
}

func (f *fakeFactsRepo) List(ctx context.Context, q facts.Query) ([]domain.Fact, error) {
	f.lists++
	f.lastQ = q
	return f.listOut, f.listErr
}

func (f *fakeFactsRepo) Create(ctx context.Context, nf domain.NewFact) (domain.Fact, error) {
	if f.createErr != nil {
		return domain.Fact{}, f.createErr
	}
	f.nextID++
	f.created = append(f.created, nf)
	return domain.Fact{ID: f.nextID, Text: nf.Text, Source: nf.Source, Category: nf.Category, AuthorID: nf.AuthorID}, nil
}

func (f *fakeFactsRepo) UpdateVotes(ctx context.Context, id int64, votes map[domain.VoteColumn]int) ([]domain.Fact, error) {
	f.lastVotes = votes
	return f.updateOut, nil
}

func (f *fakeFactsRepo) Delete(ctx context.Context, id int64) ([]domain.Fact, error) {
	f.deletedID = id
	return f.deleteOut, nil
}

// --- manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	f *fakeFactsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository          { return m.u }
func (m *fakeRepoManager) Facts(db dbx.DBTX) facts.Repository          { return m.f }
