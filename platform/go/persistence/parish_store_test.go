package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestParishStoreLifecycle(t *testing.T) {
	pool, cleanup := mustTestPool(t)
	defer cleanup()
	ctx := context.Background()

	store, err := NewParishStore(pool)
	require.NoError(t, err)

	creator := "user-" + uuid.NewString()
	slug := "sao-joao-" + uuid.NewString()[:8]

	created, err := store.CreateParish(ctx, CreateParishParams{
		ParishID:  uuid.New(),
		Slug:      slug,
		Name:      "Paróquia São João",
		City:      "Campinas",
		CreatedBy: creator,
	}, "parish_admin")
	require.NoError(t, err)
	require.Equal(t, slug, created.Slug)
	require.Equal(t, "active", created.Status)

	// Creator membership must exist in the same transaction's outcome.
	memberships, err := store.ListParishesForUser(ctx, creator)
	require.NoError(t, err)
	require.Len(t, memberships, 1)
	require.Equal(t, "parish_admin", memberships[0].Role)

	fetched, err := store.GetParishBySlug(ctx, slug)
	require.NoError(t, err)
	require.Equal(t, created.ID, fetched.ID)

	_, err = store.CreateParish(ctx, CreateParishParams{
		ParishID:  uuid.New(),
		Slug:      slug,
		Name:      "Outra Paróquia",
		CreatedBy: creator,
	}, "parish_admin")
	require.ErrorIs(t, err, ErrParishSlugConflict)

	phone := "+55 19 3222-0000"
	updated, err := store.UpdateParish(ctx, created.ID, UpdateParishParams{Phone: &phone})
	require.NoError(t, err)
	require.Equal(t, phone, updated.Phone)

	_, err = store.GetParish(ctx, uuid.New())
	require.ErrorIs(t, err, ErrParishNotFound)
}
