package service

import (
	"context"
	"testing"

	"github.com/penflow/penflow-sync-service/pkg/code"
	"github.com/penflow/penflow-sync-service/pkg/textmodel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func editOps(old, new string) []byte {
	data, _ := textmodel.Diff(old, new).Marshal()
	return data
}

func TestSnapshot_FoldsChangesInOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	history := []string{"hello", "hello world", "hello brave world"}
	prev := ""
	for i, next := range history {
		_, err := env.changelog.AddChange(ctx, "doc-a", 1, "Web", editOps(prev, next), int64(i))
		require.NoError(t, err)
		prev = next
	}

	snap, err := env.snapshot.GetSnapshot(ctx, "doc-a")
	require.NoError(t, err)
	assert.Equal(t, "hello brave world", snap.Content)
	assert.Equal(t, int64(3), snap.Version)
}

func TestSnapshot_EmptyChangeset(t *testing.T) {
	env := newTestEnv(t)

	snap, err := env.snapshot.GetSnapshot(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Equal(t, int64(0), snap.Version)
	assert.Equal(t, "", snap.Content)
}

func TestSnapshot_BrokenOpFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// An op whose base length does not match the folded document.
	badOp, err := (&textmodel.Operation{}).Retain(10).Marshal()
	require.NoError(t, err)

	_, err = env.changelog.AddChange(ctx, "doc-a", 1, "Web", badOp, 0)
	require.NoError(t, err, "the log stores opaque payloads")

	_, err = env.snapshot.GetSnapshot(ctx, "doc-a")
	require.Error(t, err)
	cerr, ok := err.(*code.Code)
	require.True(t, ok)
	assert.Equal(t, code.ErrorSnapshotFailed.Code(), cerr.Code())
}

func TestSnapshot_MatchesIncrementalReplay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	history := []string{"a", "ab", "abc", "ab", "abX"}
	prev := ""
	for i, next := range history {
		_, err := env.changelog.AddChange(ctx, "doc-a", 1, "Web", editOps(prev, next), int64(i))
		require.NoError(t, err)
		prev = next
	}

	// Server-side fold and a client replaying the fetched page agree.
	snap, err := env.snapshot.GetSnapshot(ctx, "doc-a")
	require.NoError(t, err)

	page, err := env.changelog.GetChanges(ctx, "doc-a", 0)
	require.NoError(t, err)

	doc := textmodel.New()
	for _, change := range page.Changes {
		op, err := textmodel.Unmarshal(change.Ops)
		require.NoError(t, err)
		require.NoError(t, doc.Apply(op))
	}

	assert.Equal(t, snap.Content, doc.Text())
	assert.Equal(t, "abX", doc.Text())
}
