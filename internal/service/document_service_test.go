package service

import (
	"context"
	"testing"

	"github.com/penflow/penflow-sync-service/pkg/code"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_CreateAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.document.Create(ctx, 1, "meeting notes")
	require.NoError(t, err)
	require.NotEmpty(t, first.ChangesetID)

	second, err := env.document.Create(ctx, 1, "journal")
	require.NoError(t, err)
	assert.NotEqual(t, first.ChangesetID, second.ChangesetID)

	list, err := env.document.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	other, err := env.document.List(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestDocument_OwnershipEnforced(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc, err := env.document.Create(ctx, 1, "private")
	require.NoError(t, err)

	_, err = env.document.Get(ctx, 2, doc.ChangesetID)
	require.Error(t, err)
	cerr, ok := err.(*code.Code)
	require.True(t, ok)
	assert.Equal(t, code.ErrorDocumentNotFound.Code(), cerr.Code())

	err = env.document.Delete(ctx, 2, doc.ChangesetID)
	require.Error(t, err)
}

func TestDocument_DeleteRemovesChangeLog(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc, err := env.document.Create(ctx, 1, "scratch")
	require.NoError(t, err)

	_, err = env.changelog.AddChange(ctx, doc.ChangesetID, 1, "Web", insertOps("hello"), 0)
	require.NoError(t, err)

	require.NoError(t, env.document.Delete(ctx, 1, doc.ChangesetID))

	version, err := env.changelog.GetVersion(ctx, doc.ChangesetID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)

	_, err = env.document.Get(ctx, 1, doc.ChangesetID)
	require.Error(t, err)
}

func TestDocument_GetReportsVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc, err := env.document.Create(ctx, 1, "notes")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = env.changelog.AddChange(ctx, doc.ChangesetID, 1, "Web", insertOps("x"), int64(i))
		require.NoError(t, err)
	}

	got, err := env.document.Get(ctx, 1, doc.ChangesetID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Version)
}

func TestDocument_Rename(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc, err := env.document.Create(ctx, 1, "old title")
	require.NoError(t, err)

	require.NoError(t, env.document.Rename(ctx, 1, doc.ChangesetID, "new title"))

	got, err := env.document.Get(ctx, 1, doc.ChangesetID)
	require.NoError(t, err)
	assert.Equal(t, "new title", got.Title)
}
