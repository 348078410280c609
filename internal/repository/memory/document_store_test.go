package memory

import (
	"alcyxob/sports-academy/internal/domain"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentStore_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore()
	entry := domain.FinanceEntry{Meta: domain.Meta{ID: "1700000000000"}, Type: domain.EntryIncome, Amount: 750, Date: "2024-09-01", Category: "dues"}

	_, err := store.Upsert(ctx, domain.CollectionFinance, entry)
	require.NoError(t, err)
	first, _ := store.Get(domain.CollectionFinance, entry.ID)

	_, err = store.Upsert(ctx, domain.CollectionFinance, entry)
	require.NoError(t, err)
	second, _ := store.Get(domain.CollectionFinance, entry.ID)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.Count(domain.CollectionFinance))
}

func TestDocumentStore_CreateThenUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore()

	drill := domain.Drill{Meta: domain.Meta{ID: domain.NewPendingID()}, Title: "Rondo 4v2", Category: "passing"}
	id, err := store.Upsert(ctx, domain.CollectionDrills, drill)
	require.NoError(t, err)
	require.NotEqual(t, drill.ID, id)
	assert.False(t, domain.IsPendingLocal(id))

	drill.ID = id
	drill.Difficulty = "hard"
	again, err := store.Upsert(ctx, domain.CollectionDrills, drill)
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Equal(t, 1, store.Count(domain.CollectionDrills))

	fields, ok := store.Get(domain.CollectionDrills, id)
	require.True(t, ok)
	assert.Equal(t, "hard", fields["difficulty"])
}

func TestDocumentStore_DeleteSafety(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore()
	store.FailWith(errors.New("offline"))

	assert.NoError(t, store.Delete(ctx, domain.CollectionTrainers, "temp-123"))
	assert.NoError(t, store.Delete(ctx, domain.CollectionTrainers, ""))
	_, deletes := store.Calls()
	assert.Zero(t, deletes)

	assert.Error(t, store.Delete(ctx, domain.CollectionTrainers, "1700000000000"))
}

func TestDocumentStore_LoadAll(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore()

	for _, name := range []string{"Hakan", "Selin"} {
		_, err := store.Upsert(ctx, domain.CollectionTrainers, domain.Trainer{Meta: domain.Meta{ID: domain.NewID()}, Name: name})
		require.NoError(t, err)
	}

	var trainers []domain.Trainer
	require.NoError(t, store.LoadAll(ctx, domain.CollectionTrainers, &trainers))
	require.Len(t, trainers, 2)
	names := []string{trainers[0].Name, trainers[1].Name}
	assert.ElementsMatch(t, []string{"Hakan", "Selin"}, names)
	for _, tr := range trainers {
		assert.NotEmpty(t, tr.ID)
		assert.NotNil(t, tr.UpdatedAt)
	}

	store.FailWith(errors.New("offline"))
	var none []domain.Trainer
	assert.Error(t, store.LoadAll(ctx, domain.CollectionTrainers, &none))
	assert.Empty(t, none)
}
