package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lecturehub/apiserver/internal/auth"
	"github.com/lecturehub/apiserver/internal/services"
	"github.com/lecturehub/apiserver/internal/storage"
	"github.com/lecturehub/apiserver/internal/store"
	"github.com/lecturehub/apiserver/types"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type userRepo struct {
	mu     sync.Mutex
	nextID int
	items  map[int]types.User
}

func (r *userRepo) GetByID(_ context.Context, id int) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.items[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return u, nil
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (types.User, error) {
	return r.find(func(u types.User) bool { return u.Username == username })
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	return r.find(func(u types.User) bool { return u.Email == email })
}

func (r *userRepo) find(match func(types.User) bool) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.items {
		if match(u) {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *userRepo) ExistsOther(_ context.Context, excludeID int, username, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.items {
		if u.ID != excludeID && ((username != "" && u.Username == username) || (email != "" && u.Email == email)) {
			return true, nil
		}
	}
	return false, nil
}

func (r *userRepo) Create(_ context.Context, u types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.items[u.ID] = u
	return u, nil
}

func (r *userRepo) Update(_ context.Context, u types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[u.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	r.items[u.ID] = u
	return u, nil
}

type lectureRepo struct {
	mu      sync.Mutex
	users   *userRepo
	nextID  int
	items   map[int]types.Lecture
	listErr error
}

func (r *lectureRepo) creator(l types.Lecture) types.Lecture {
	u, _ := r.users.GetByID(context.Background(), l.CreatorID)
	l.CreatedBy = &types.Creator{ID: l.CreatorID, Username: u.Username}
	return l
}

func (r *lectureRepo) List(_ context.Context) ([]types.Lecture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]types.Lecture, 0, len(r.items))
	for _, l := range r.items {
		out = append(out, r.creator(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *lectureRepo) Get(_ context.Context, id int) (types.Lecture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.items[id]
	if !ok {
		return types.Lecture{}, store.ErrNotFound
	}
	return r.creator(l), nil
}

func (r *lectureRepo) Create(_ context.Context, l types.Lecture) (types.Lecture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	l.ID = r.nextID
	l.CreatedAt = time.Now()
	l.UpdatedAt = l.CreatedAt
	r.items[l.ID] = l
	return l, nil
}

func (r *lectureRepo) Update(_ context.Context, l types.Lecture) (types.Lecture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[l.ID]; !ok {
		return types.Lecture{}, store.ErrNotFound
	}
	r.items[l.ID] = l
	return l, nil
}

func (r *lectureRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type testAPI struct {
	router   http.Handler
	tokens   *auth.TokenIssuer
	users    *userRepo
	lectures *lectureRepo
}

func newTestAPI(t *testing.T, exposeErrors bool) *testAPI {
	t.Helper()

	users := &userRepo{items: map[int]types.User{}}
	lectures := &lectureRepo{users: users, items: map[int]types.Lecture{}}
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)

	userService := services.NewUserService(users, tokens)
	lectureService := services.NewLectureService(lectures, storage.NewPlaceholderAssets("http://localhost:5001"))
	authMiddleware := RequireAuth(tokens)

	r := chi.NewRouter()
	r.Get("/healthz", Healthz)
	r.Route("/api/auth", func(r chi.Router) {
		AuthRouter(r, userService, nil, exposeErrors)
	})
	r.Route("/api/lectures", func(r chi.Router) {
		LectureRouter(r, lectureService, authMiddleware, exposeErrors)
	})
	r.Route("/api/users", func(r chi.Router) {
		UserRouter(r, userService, authMiddleware, exposeErrors)
	})
	r.NotFound(NotFound(""))
	r.MethodNotAllowed(MethodNotAllowed)

	return &testAPI{router: r, tokens: tokens, users: users, lectures: lectures}
}

// seedUser stores a user with password "secret" and returns a session token.
func (a *testAPI) seedUser(t *testing.T, username, role string) (types.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	user, err := a.users.Create(context.Background(), types.User{
		Username:     username,
		Email:        username + "@example.com",
		Role:         role,
		PasswordHash: string(hash),
	})
	require.NoError(t, err)
	token, err := a.tokens.Issue(user)
	require.NoError(t, err)
	return user, token
}

func (a *testAPI) do(t *testing.T, req *http.Request, token string) *httptest.ResponseRecorder {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

type videoPart struct {
	filename    string
	contentType string
	data        []byte
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, video *videoPart) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, mw.WriteField(key, value))
	}
	if video != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="video"; filename="`+video.filename+`"`)
		header.Set("Content-Type", video.contentType)
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = io.Copy(part, bytes.NewReader(video.data))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

var errDatabaseDown = errors.New("database down")

func trimmedBody(rec *httptest.ResponseRecorder) string {
	return strings.TrimSpace(rec.Body.String())
}
