package service

import (
	"alcyxob/sports-academy/internal/assistant"
	"alcyxob/sports-academy/internal/config"
	"alcyxob/sports-academy/internal/domain"
	"alcyxob/sports-academy/internal/state"
	"alcyxob/sports-academy/internal/storage"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type memLocal map[string][]byte

func (m memLocal) Load(_ context.Context, key string, dst any) bool {
	raw, ok := m[key]
	return ok && json.Unmarshal(raw, dst) == nil
}

func (m memLocal) Save(_ context.Context, key string, data any) error {
	raw, err := json.Marshal(data)
	if err == nil {
		m[key] = raw
	}
	return err
}

func newStore(t *testing.T) *state.Store {
	t.Helper()
	return state.New(context.Background(), memLocal{}, zap.NewNop())
}

// fakeStorage records deletes and hands out fixed URLs.
type fakeStorage struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (f *fakeStorage) GeneratePresignedUploadURL(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://bucket.test/" + key + "?sig=1", nil
}

func (f *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://bucket.test/" + key, f.err
}

func (f *fakeStorage) DeleteObject(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return f.err
}

type stubResponder struct {
	reply string
	err   error
	got   assistant.Context
}

func (s *stubResponder) Reply(_ context.Context, ac assistant.Context, _ string) (string, error) {
	s.got = ac
	return s.reply, s.err
}

func TestAuthService_AdminLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	auth := NewAuthService(config.AdminConfig{Email: "admin@academy.test", PasswordHash: string(hash)}, newStore(t), "jwt-secret", time.Hour)

	token, user, err := auth.Login(context.Background(), "Admin@Academy.test", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)

	claims := &jwtClaims{}
	_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) { return []byte("jwt-secret"), nil })
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.Equal(t, "admin@academy.test", claims.UserID)

	_, _, err = auth.Login(context.Background(), "admin@academy.test", "wrong")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	_, _, err = auth.Login(context.Background(), "other@academy.test", "s3cret")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestAuthService_EmptySecretPanics(t *testing.T) {
	assert.Panics(t, func() { NewAuthService(config.AdminConfig{}, newStore(t), "", 0) })
}

func TestRosterAndParentLogin(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	roster := NewRosterService(store)
	auth := NewAuthService(config.AdminConfig{}, store, "jwt-secret", time.Hour)

	st, err := roster.CreateStudent(ctx, StudentInput{
		Student:        domain.Student{Name: "Ali", Sport: "Futbol", ParentName: "Ayse", ParentUsername: "ayse"},
		ParentPassword: "portal-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StudentActive, st.Status)
	assert.Equal(t, domain.FeePending, st.FeeStatus)
	require.NotEmpty(t, st.ParentPasswordHash)
	assert.NotEqual(t, "portal-pass", st.ParentPasswordHash)

	_, user, err := auth.ParentLogin(ctx, "AYSE", "portal-pass")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleParent, user.Role)
	assert.Equal(t, st.ID, user.StudentID)

	// An update without a password keeps the stored hash.
	updated, err := roster.UpdateStudent(ctx, st.ID, StudentInput{
		Student: domain.Student{Name: "Ali K.", Sport: "Futbol", ParentUsername: "ayse", FeeStatus: domain.FeePaid},
	})
	require.NoError(t, err)
	assert.Equal(t, st.ParentPasswordHash, updated.ParentPasswordHash)
	assert.Equal(t, domain.StudentActive, updated.Status)
	assert.Equal(t, st.ID, updated.ID)

	_, _, err = auth.ParentLogin(ctx, "ayse", "nope")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	_, _, err = auth.ParentLogin(ctx, "nobody", "portal-pass")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestRoster_Errors(t *testing.T) {
	ctx := context.Background()
	roster := NewRosterService(newStore(t))

	_, err := roster.CreateStudent(ctx, StudentInput{Student: domain.Student{Name: "A", Sport: "Basket", ParentUsername: "p"}})
	require.NoError(t, err)
	_, err = roster.CreateStudent(ctx, StudentInput{Student: domain.Student{Name: "B", Sport: "Basket", ParentUsername: "P"}})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = roster.CreateStudent(ctx, StudentInput{Student: domain.Student{Name: "C", Sport: "Basket"}, ParentPassword: "x"})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = roster.CreateStudent(ctx, StudentInput{Student: domain.Student{Name: "D"}})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = roster.GetStudent(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, roster.DeleteStudent(ctx, "missing"), ErrNotFound)
}

func TestMediaService_Workflow(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	files := &fakeStorage{}
	media := NewMediaService(store, files, zap.NewNop()).(*mediaService)
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	media.now = func() time.Time { return fixed }

	post, err := media.CreatePost(ctx, domain.MediaPost{Type: domain.MediaGallery, Status: domain.MediaPublished, ObjectKeys: []string{"media/a.jpg", "media/b.jpg"}})
	require.NoError(t, err)
	assert.Equal(t, domain.MediaPending, post.Status)

	published, err := media.Publish(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MediaPublished, published.Status)
	require.NotNil(t, published.PublishedAt)
	assert.True(t, fixed.Equal(*published.PublishedAt))

	_, err = media.Publish(ctx, post.ID)
	assert.ErrorIs(t, err, ErrAlreadyPublished)
	_, err = media.Publish(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, media.DeletePost(ctx, post.ID))
	assert.Equal(t, []string{"media/a.jpg", "media/b.jpg"}, files.deleted)
	assert.Equal(t, 0, store.Media().Len())
}

func TestMediaService_DeleteSurvivesStorageFailure(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	media := NewMediaService(store, &fakeStorage{err: errors.New("bucket down")}, zap.NewNop())

	post, err := media.CreatePost(ctx, domain.MediaPost{ObjectKeys: []string{"media/x.png"}})
	require.NoError(t, err)
	assert.NoError(t, media.DeletePost(ctx, post.ID))
	assert.Equal(t, 0, store.Media().Len())
}

func TestMediaService_RequestUploadURL(t *testing.T) {
	ctx := context.Background()
	media := NewMediaService(newStore(t), &fakeStorage{}, zap.NewNop())

	resp, err := media.RequestUploadURL(ctx, UploadTrainers, "image/jpeg")
	require.NoError(t, err)
	assert.Regexp(t, `^trainers/\d{4}/\d{2}/[0-9a-f-]{36}\.jpg$`, resp.ObjectKey)
	assert.Contains(t, resp.UploadURL, resp.ObjectKey)

	_, err = media.RequestUploadURL(ctx, UploadMedia, "video/mp4")
	assert.ErrorIs(t, err, ErrInvalidMediaType)
	_, err = media.RequestUploadURL(ctx, "elsewhere", "image/png")
	assert.ErrorIs(t, err, ErrValidationFailed)

	disabled := NewMediaService(newStore(t), storage.Disabled{}, zap.NewNop())
	_, err = disabled.RequestUploadURL(ctx, UploadMedia, "image/png")
	assert.ErrorIs(t, err, storage.ErrDisabled)
}

func TestFinanceService_Summary(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	for _, e := range []domain.FinanceEntry{
		{Type: domain.EntryIncome, Amount: 500, Date: "2026-03-02", Category: "fees"},
		{Type: domain.EntryIncome, Amount: 100, Date: "2026-04-01", Category: "fees"},
		{Type: domain.EntryExpense, Amount: 120.5, Date: "2026-03-10", Category: "equipment"},
		{Type: domain.EntryExpense, Amount: 30, Date: "2026-03-11"},
	} {
		_, err := store.Finance().Add(e)
		require.NoError(t, err)
	}
	finance := NewFinanceService(store)

	all := finance.Summary(ctx, "")
	assert.Equal(t, 600.0, all.Income)
	assert.Equal(t, 150.5, all.Expense)
	assert.Equal(t, 449.5, all.Balance)
	assert.Equal(t, 4, all.Entries)

	march := finance.Summary(ctx, "2026-03")
	assert.Equal(t, 500.0, march.Income)
	assert.Equal(t, 349.5, march.Balance)
	assert.Equal(t, map[string]float64{"fees": 500, "equipment": -120.5, "other": -30}, march.ByCategory)
}

func TestNoteService(t *testing.T) {
	ctx := context.Background()
	notes := NewNoteService(newStore(t))

	n, err := notes.CreateNote(ctx, domain.TrainerNote{Content: "U10 needs new balls", Status: domain.NoteRead})
	require.NoError(t, err)
	assert.Equal(t, domain.NoteNew, n.Status)
	assert.Equal(t, "normal", n.Priority)
	assert.Len(t, notes.Unread(ctx), 1)

	read, err := notes.MarkRead(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.NoteRead, read.Status)
	_, err = notes.MarkRead(ctx, n.ID)
	assert.NoError(t, err)
	assert.Empty(t, notes.Unread(ctx))

	_, err = notes.MarkRead(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssistantService_ContextIsRedacted(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	hash, _ := HashPassword("secret")
	_, err := store.Students().Add(domain.Student{Name: "Ali", Sport: "Futbol", Status: domain.StudentActive, FeeStatus: domain.FeeOverdue,
		ParentPhone: "+90 555 000 0000", ParentUsername: "ayse", ParentPasswordHash: hash})
	require.NoError(t, err)
	_, err = store.Students().Add(domain.Student{Name: "Can", Sport: "Futbol", Status: domain.StudentPassive, FeeStatus: domain.FeePaid})
	require.NoError(t, err)
	_, err = store.Media().Add(domain.MediaPost{Type: domain.MediaBulletin, Status: domain.MediaPending})
	require.NoError(t, err)

	svc := NewAssistantService(store, &stubResponder{}, zap.NewNop())
	ac := svc.Context(ctx)

	assert.Equal(t, 2, ac.Students)
	assert.Equal(t, []string{"Ali"}, ac.ActiveStudents)
	assert.Equal(t, map[string]int{"overdue": 1, "paid": 1}, ac.FeeStatus)
	assert.Equal(t, 1, ac.PendingMedia)

	raw, err := json.Marshal(ac)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "555")
	assert.NotContains(t, string(raw), "ayse")
	assert.NotContains(t, string(raw), hash)
}

func TestAssistantService_Chat(t *testing.T) {
	ctx := context.Background()
	responder := &stubResponder{reply: "Ali is overdue."}
	svc := NewAssistantService(newStore(t), responder, zap.NewNop())

	reply, err := svc.Chat(ctx, "who is overdue?")
	require.NoError(t, err)
	assert.Equal(t, ChatReply{Reply: "Ali is overdue."}, reply)

	responder.err = errors.New("quota exceeded")
	reply, err = svc.Chat(ctx, "who is overdue?")
	require.NoError(t, err)
	assert.True(t, reply.Fallback)
	assert.Equal(t, assistant.FallbackReply, reply.Reply)

	_, err = svc.Chat(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}
