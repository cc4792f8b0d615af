package dao

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/penflow/penflow-sync-service/internal/domain"
	"github.com/penflow/penflow-sync-service/pkg/writequeue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDao(t *testing.T) *Dao {
	t.Helper()

	cfg := &DatabaseConfig{
		Type:        "sqlite",
		Path:        filepath.Join(t.TempDir(), "test.sqlite3"),
		TablePrefix: "pf_",
		AutoMigrate: true,
	}
	db, err := NewDBEngine(cfg)
	require.NoError(t, err)

	return New(db, context.Background(), WithConfig(cfg))
}

func TestChangeRepository_AppendAndList(t *testing.T) {
	repo := NewChangeRepository(newTestDao(t))
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		_, err := repo.Append(ctx, &domain.Change{
			ChangesetID: "doc-a",
			Position:    i,
			Ops:         []byte(fmt.Sprintf(`{"components":[{"kind":"insert","s":"c%d"}]}`, i)),
			UID:         1,
		})
		require.NoError(t, err)
	}

	all, err := repo.ListSincePosition(ctx, "doc-a", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, change := range all {
		assert.Equal(t, int64(i+1), change.Position)
	}

	// Fetching since version 2 returns only the change past it.
	tail, err := repo.ListSincePosition(ctx, "doc-a", 2)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, int64(3), tail[0].Position)

	count, err := repo.Count(ctx, "doc-a")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestChangeRepository_UnknownChangeset(t *testing.T) {
	repo := NewChangeRepository(newTestDao(t))
	ctx := context.Background()

	changes, err := repo.ListSincePosition(ctx, "never-seen", 0)
	require.NoError(t, err)
	assert.Empty(t, changes)

	count, err := repo.Count(ctx, "never-seen")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestChangeRepository_DuplicatePosition(t *testing.T) {
	repo := NewChangeRepository(newTestDao(t))
	ctx := context.Background()

	_, err := repo.Append(ctx, &domain.Change{
		ChangesetID: "doc-a",
		Position:    1,
		Ops:         []byte(`{"components":[]}`),
	})
	require.NoError(t, err)

	_, err = repo.Append(ctx, &domain.Change{
		ChangesetID: "doc-a",
		Position:    1,
		Ops:         []byte(`{"components":[]}`),
	})
	require.Error(t, err)
	assert.True(t, repo.IsDuplicatePosition(err))

	// Same position on another changeset is fine.
	_, err = repo.Append(ctx, &domain.Change{
		ChangesetID: "doc-b",
		Position:    1,
		Ops:         []byte(`{"components":[]}`),
	})
	assert.NoError(t, err)
}

func TestChangeRepository_DeleteByChangeset(t *testing.T) {
	repo := NewChangeRepository(newTestDao(t))
	ctx := context.Background()

	for _, changesetID := range []string{"doc-a", "doc-b"} {
		_, err := repo.Append(ctx, &domain.Change{
			ChangesetID: changesetID,
			Position:    1,
			Ops:         []byte(`{"components":[]}`),
		})
		require.NoError(t, err)
	}

	require.NoError(t, repo.DeleteByChangeset(ctx, "doc-a"))

	count, err := repo.Count(ctx, "doc-a")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	count, err = repo.Count(ctx, "doc-b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

// Concurrent appends funneled through the per-changeset write queue must
// produce a contiguous position sequence with no gaps and no duplicates.
func TestChangeRepository_ConcurrentAppendPositions(t *testing.T) {
	repo := NewChangeRepository(newTestDao(t))
	ctx := context.Background()

	wq := writequeue.New(nil, zap.NewNop())
	defer wq.Shutdown(ctx)

	const appends = 20
	changesets := []string{"doc-a", "doc-b"}

	var wg sync.WaitGroup
	for _, changesetID := range changesets {
		for i := 0; i < appends; i++ {
			wg.Add(1)
			go func(changesetID string) {
				defer wg.Done()
				err := wq.Execute(ctx, changesetID, func() error {
					head, err := repo.Count(ctx, changesetID)
					if err != nil {
						return err
					}
					_, err = repo.Append(ctx, &domain.Change{
						ChangesetID: changesetID,
						Position:    head + 1,
						Ops:         []byte(`{"components":[]}`),
					})
					return err
				})
				assert.NoError(t, err)
			}(changesetID)
		}
	}
	wg.Wait()

	for _, changesetID := range changesets {
		changes, err := repo.ListSincePosition(ctx, changesetID, 0)
		require.NoError(t, err)
		require.Len(t, changes, appends)
		for i, change := range changes {
			assert.Equal(t, int64(i+1), change.Position, "changeset %s", changesetID)
		}
	}
}
