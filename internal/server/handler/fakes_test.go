package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	domain "github.com/dmitrijs2005/factfeed/internal/facts"
	"github.com/dmitrijs2005/factfeed/internal/logging"
	"github.com/dmitrijs2005/factfeed/internal/server/auth"
	"github.com/dmitrijs2005/factfeed/internal/server/models"
	"github.com/dmitrijs2005/factfeed/internal/server/repositories/facts"
	"github.com/dmitrijs2005/factfeed/internal/server/services"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "secret"
	testAnonKey = "anon-key"
)

type fakeUsers struct {
	signupSession *services.Session
	signupErr     error
	loginErr      error
	refreshErr    error
	getErr        error

	loggedOut string
	lastEmail string
}

func testUser() *models.User {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return &models.User{ID: "u1", Email: "ann@example.com", ConfirmedAt: &now, CreatedAt: now}
}

func testSession() *services.Session {
	return &services.Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresIn:    3600,
		ExpiresAt:    time.Unix(1700000000, 0),
		User:         testUser(),
	}
}

func (f *fakeUsers) Signup(ctx context.Context, email, password string) (*models.User, *services.Session, error) {
	f.lastEmail = email
	if f.signupErr != nil {
		return nil, nil, f.signupErr
	}
	return testUser(), f.signupSession, nil
}

func (f *fakeUsers) Login(ctx context.Context, email, password string) (*services.Session, error) {
	f.lastEmail = email
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return testSession(), nil
}

func (f *fakeUsers) RefreshToken(ctx context.Context, token string) (*services.Session, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return testSession(), nil
}

func (f *fakeUsers) Logout(ctx context.Context, userID string) error {
	f.loggedOut = userID
	return nil
}

func (f *fakeUsers) GetUser(ctx context.Context, userID string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u := testUser()
	u.ID = userID
	return u, nil
}

type fakeFacts struct {
	listOut []domain.Fact
	listErr error
	lastQ   facts.Query

	createErr   error
	createdBy   string
	createdRows []domain.NewFact

	votesID  int64
	votes    map[domain.VoteColumn]int
	votesOut []domain.Fact

	deletedID int64
	deleteOut []domain.Fact
}

func (f *fakeFacts) List(ctx context.Context, q facts.Query) ([]domain.Fact, error) {
	f.lastQ = q
	return f.listOut, f.listErr
}

func (f *fakeFacts) Create(ctx context.Context, userID string, items []domain.NewFact) ([]domain.Fact, error) {
	f.createdBy = userID
	f.createdRows = items
	if f.createErr != nil {
		return nil, f.createErr
	}
	out := make([]domain.Fact, len(items))
	for i, nf := range items {
		out[i] = domain.Fact{ID: int64(i + 1), Text: nf.Text, Source: nf.Source, Category: nf.Category, AuthorID: userID}
	}
	return out, nil
}

func (f *fakeFacts) UpdateVotes(ctx context.Context, id int64, votes map[domain.VoteColumn]int) ([]domain.Fact, error) {
	f.votesID = id
	f.votes = votes
	return f.votesOut, nil
}

func (f *fakeFacts) Delete(ctx context.Context, id int64) ([]domain.Fact, error) {
	f.deletedID = id
	return f.deleteOut, nil
}

var errDown = errors.New("down")

func newTestRouter(users *fakeUsers, fs *fakeFacts) http.Handler {
	return NewRouter(&RouterDeps{
		Users:     users,
		Facts:     fs,
		Logger:    logging.Nop(),
		SecretKey: testSecret,
		AnonKey:   testAnonKey,
		Version:   "test",
	})
}

// do sends a request through h with the api key and the given bearer.
func do(t *testing.T, h http.Handler, method, target, bearer, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("apikey", testAnonKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Add(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func userToken(t *testing.T, userID string) string {
	t.Helper()
	tok, err := auth.GenerateToken(userID, "ann@example.com", []byte(testSecret), time.Minute)
	require.NoError(t, err)
	return tok
}

