package state

import (
	"alcyxob/sports-academy/internal/domain"
	"alcyxob/sports-academy/internal/repository/memory"
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapStore is a LocalStore over a plain map of JSON payloads.
type mapStore map[string][]byte

func (m mapStore) Load(_ context.Context, key string, dst any) bool {
	raw, ok := m[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func (m mapStore) Save(_ context.Context, key string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	m[key] = raw
	return nil
}

func newStudent(name string) domain.Student {
	return domain.Student{Name: name, Sport: "Futbol", Status: domain.StudentActive}
}

func TestNew_HydratesFromLocal(t *testing.T) {
	ctx := context.Background()
	local := mapStore{}
	require.NoError(t, local.Save(ctx, domain.CollectionTrainers, []domain.Trainer{{Meta: domain.Meta{ID: "t1"}, Name: "Hakan"}}))
	local[domain.CollectionNotes] = []byte("{not json")

	store := New(ctx, local, nil)

	trainers := store.Trainers().All()
	require.Len(t, trainers, 1)
	assert.Equal(t, "Hakan", trainers[0].Name)
	assert.Equal(t, 0, store.Notes().Len())
	assert.NotNil(t, store.Students().All())
	assert.Equal(t, 1, store.Snapshot().Len())
}

func TestCollection_AddAssignsIDAndNotifies(t *testing.T) {
	store := New(context.Background(), mapStore{}, nil)
	var changes atomic.Int32
	store.OnChange(func() { changes.Add(1) })

	before := store.Students().Len()
	added, err := store.Students().Add(newStudent("Ali"))
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)
	assert.False(t, domain.IsPendingLocal(added.ID))
	assert.Equal(t, before+1, store.Students().Len())
	assert.Equal(t, int32(1), changes.Load())

	_, err = store.Students().Add(added)
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, int32(1), changes.Load())
}

func TestCollection_AddKeepsCallerID(t *testing.T) {
	store := New(context.Background(), mapStore{}, nil)
	s := newStudent("Ali")
	s.ID = "1700000000000"

	added, err := store.Students().Add(s)
	require.NoError(t, err)
	assert.Equal(t, "1700000000000", added.ID)
}

func TestCollection_ValidationRejects(t *testing.T) {
	store := New(context.Background(), mapStore{}, nil)

	_, err := store.Students().Add(domain.Student{Name: "No sport", Status: domain.StudentActive})
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = store.Finance().Add(domain.FinanceEntry{Type: domain.EntryIncome, Amount: -5, Date: "2024-01-01"})
	assert.ErrorIs(t, err, ErrInvalidRecord)
	assert.Zero(t, store.Finance().Len())
}

func TestCollection_ReadersGetCopies(t *testing.T) {
	store := New(context.Background(), mapStore{}, nil)
	added, err := store.Drills().Add(domain.Drill{Title: "Rondo"})
	require.NoError(t, err)

	all := store.Drills().All()
	all[0].Title = "mutated"
	snap := store.Snapshot()

	got, err := store.Drills().Get(added.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rondo", got.Title)

	_, err = store.Drills().Update(domain.Drill{Meta: added.Meta, Title: "Rondo 5v2"})
	require.NoError(t, err)
	for _, c := range snap {
		if c.Name == domain.CollectionDrills {
			assert.Equal(t, "Rondo", c.Records[0].(domain.Drill).Title)
		}
	}
}

func TestCollection_UpdateAndModify(t *testing.T) {
	store := New(context.Background(), mapStore{}, nil)
	note, err := store.Notes().Add(domain.TrainerNote{Scope: "group", Status: domain.NoteNew, Content: "U12 needs more balls"})
	require.NoError(t, err)

	_, err = store.Notes().Update(domain.TrainerNote{Meta: domain.Meta{ID: "missing"}, Status: domain.NoteNew, Content: "x"})
	assert.ErrorIs(t, err, ErrRecordNotFound)

	read, err := store.Notes().Modify(note.ID, func(n *domain.TrainerNote) error {
		n.Status = domain.NoteRead
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, domain.NoteRead, read.Status)

	boom := errors.New("boom")
	_, err = store.Notes().Modify(note.ID, func(n *domain.TrainerNote) error {
		n.Content = "changed"
		return boom
	})
	assert.ErrorIs(t, err, boom)
	got, _ := store.Notes().Get(note.ID)
	assert.Equal(t, "U12 needs more balls", got.Content)

	_, err = store.Notes().Modify(note.ID, func(n *domain.TrainerNote) error {
		n.ID = "other"
		return nil
	})
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestCollection_RemoveRecordsTombstone(t *testing.T) {
	store := New(context.Background(), mapStore{}, nil)
	a, _ := store.Trainers().Add(domain.Trainer{Name: "A"})
	b, _ := store.Trainers().Add(domain.Trainer{Name: "B"})
	c, _ := store.Trainers().Add(domain.Trainer{Name: "C"})

	_, err := store.Trainers().Remove(b.ID)
	require.NoError(t, err)
	_, err = store.Trainers().Remove(b.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	all := store.Trainers().All()
	require.Len(t, all, 2)
	assert.Equal(t, []string{a.ID, c.ID}, []string{all[0].ID, all[1].ID})

	ts := store.TakeTombstones()
	assert.Equal(t, []Tombstone{{Collection: domain.CollectionTrainers, ID: b.ID}}, ts)
	assert.Empty(t, store.TakeTombstones())

	store.RequeueTombstones(ts)
	assert.Equal(t, ts, store.TakeTombstones())
}

func TestCollection_Replace(t *testing.T) {
	store := New(context.Background(), mapStore{}, nil)
	a, _ := store.Sessions().Add(domain.TrainingSession{Day: "Mon", Time: "17:00", Group: "U10"})
	b, _ := store.Sessions().Add(domain.TrainingSession{Day: "Wed", Time: "17:00", Group: "U10"})

	b.Location = "Field 2"
	err := store.Sessions().Replace([]domain.TrainingSession{b, {Day: "Fri", Time: "18:00", Group: "U12"}})
	require.NoError(t, err)

	all := store.Sessions().All()
	require.Len(t, all, 2)
	assert.Equal(t, "Field 2", all[0].Location)
	assert.NotEmpty(t, all[1].ID)
	assert.Equal(t, []Tombstone{{Collection: domain.CollectionSessions, ID: a.ID}}, store.TakeTombstones())

	err = store.Sessions().Replace([]domain.TrainingSession{b, b})
	assert.ErrorIs(t, err, ErrDuplicateID)
	err = store.Sessions().Replace([]domain.TrainingSession{{Day: "Sat"}})
	assert.ErrorIs(t, err, ErrInvalidRecord)
	assert.Len(t, store.Sessions().All(), 2)
}

func TestStore_PromoteID(t *testing.T) {
	store := New(context.Background(), mapStore{}, nil)
	post, err := store.Media().Add(domain.MediaPost{Meta: domain.Meta{ID: "temp-1"}, Type: domain.MediaGallery, Status: domain.MediaPending})
	require.NoError(t, err)
	other, err := store.Media().Add(domain.MediaPost{Type: domain.MediaBulletin, Status: domain.MediaPending})
	require.NoError(t, err)

	assert.False(t, store.PromoteID(domain.CollectionMedia, other.ID, "abc"), "cloud ids are never reassigned")
	assert.False(t, store.PromoteID(domain.CollectionMedia, post.ID, other.ID), "target id taken")
	assert.False(t, store.PromoteID("unknown", post.ID, "abc"))
	assert.True(t, store.PromoteID(domain.CollectionMedia, post.ID, "abc"))

	_, err = store.Media().Get("abc")
	assert.NoError(t, err)
	_, err = store.Media().Get("temp-1")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestStore_PullMergesByUpdatedAt(t *testing.T) {
	ctx := context.Background()
	cloud := memory.NewDocumentStore()
	_, err := cloud.Upsert(ctx, domain.CollectionDrills, domain.Drill{Meta: domain.Meta{ID: "d1"}, Title: "cloud d1"})
	require.NoError(t, err)
	_, err = cloud.Upsert(ctx, domain.CollectionDrills, domain.Drill{Meta: domain.Meta{ID: "d2"}, Title: "cloud d2"})
	require.NoError(t, err)
	_, err = cloud.Upsert(ctx, domain.CollectionDrills, domain.Drill{Meta: domain.Meta{ID: "d3"}, Title: "cloud d3"})
	require.NoError(t, err)

	old := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	local := mapStore{}
	require.NoError(t, local.Save(ctx, domain.CollectionDrills, []domain.Drill{
		{Meta: domain.Meta{ID: "d1", UpdatedAt: &old}, Title: "stale d1"},
		{Meta: domain.Meta{ID: "d2"}, Title: "unstamped d2"},
		{Meta: domain.Meta{ID: "d3", UpdatedAt: &future}, Title: "fresh d3"},
		{Meta: domain.Meta{ID: "d4"}, Title: "local only"},
	}))
	store := New(ctx, local, nil)
	var changes atomic.Int32
	store.OnChange(func() { changes.Add(1) })

	res, err := store.Pull(ctx, domain.CollectionDrills, cloud)
	require.NoError(t, err)
	assert.Equal(t, MergeResult{Added: 0, Replaced: 1}, res)
	assert.Equal(t, int32(1), changes.Load())

	titles := map[string]string{}
	for _, d := range store.Drills().All() {
		titles[d.ID] = d.Title
	}
	assert.Equal(t, map[string]string{"d1": "cloud d1", "d2": "unstamped d2", "d3": "fresh d3", "d4": "local only"}, titles)

	_, err = store.Pull(ctx, "unknown", cloud)
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestStore_PullAddsCloudOnlyRecords(t *testing.T) {
	ctx := context.Background()
	cloud := memory.NewDocumentStore()
	id, err := cloud.Upsert(ctx, domain.CollectionSessions, domain.TrainingSession{Meta: domain.Meta{ID: "temp-x"}, Day: "Monday", Time: "17:00", Group: "U10"})
	require.NoError(t, err)

	store := New(ctx, mapStore{}, nil)
	res, err := store.Pull(ctx, domain.CollectionSessions, cloud)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)

	got, err := store.Sessions().Get(id)
	require.NoError(t, err)
	assert.Equal(t, "U10", got.Group)
	assert.NotNil(t, got.UpdatedAt)

	cloud.FailWith(errors.New("offline"))
	_, err = store.Pull(ctx, domain.CollectionSessions, cloud)
	assert.Error(t, err)
	assert.Equal(t, 1, store.Sessions().Len())
}

func TestStore_PendingDeletesSurviveRestart(t *testing.T) {
	ctx := context.Background()
	cloud := memory.NewDocumentStore()
	_, err := cloud.Upsert(ctx, domain.CollectionDrills, domain.Drill{Meta: domain.Meta{ID: "d1"}, Title: "Rondo"})
	require.NoError(t, err)

	local := mapStore{}
	require.NoError(t, local.Save(ctx, TombstonesKey, []Tombstone{
		{Collection: domain.CollectionDrills, ID: "d1"},
		{Collection: "unknown", ID: "x"},
	}))

	store := New(ctx, local, nil)
	assert.Equal(t, []Tombstone{{Collection: domain.CollectionDrills, ID: "d1"}}, store.Tombstones())

	res, err := store.Pull(ctx, domain.CollectionDrills, cloud)
	require.NoError(t, err)
	assert.Zero(t, res.Added)
	assert.Zero(t, store.Drills().Len())
	assert.False(t, store.Contains(domain.CollectionDrills, "d1"))
}

func TestStore_Contains(t *testing.T) {
	store := New(context.Background(), mapStore{}, nil)
	s, err := store.Students().Add(newStudent("Ali"))
	require.NoError(t, err)

	assert.True(t, store.Contains(domain.CollectionStudents, s.ID))
	assert.False(t, store.Contains(domain.CollectionTrainers, s.ID))
	assert.False(t, store.Contains("unknown", s.ID))
}
