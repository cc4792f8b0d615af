package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/penflow/penflow-sync-service/internal/dao"
	"github.com/penflow/penflow-sync-service/internal/domain"
	"github.com/penflow/penflow-sync-service/pkg/code"
	"github.com/penflow/penflow-sync-service/pkg/textmodel"
	"github.com/penflow/penflow-sync-service/pkg/writequeue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	dao       *dao.Dao
	wq        *writequeue.Manager
	changes   domain.ChangeRepository
	sessions  domain.SessionRepository
	users     domain.UserRepository
	documents domain.DocumentRepository

	changelog ChangelogService
	snapshot  SnapshotService
	session   SessionService
	user      UserService
	document  DocumentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbCfg := &dao.DatabaseConfig{
		Type:        "sqlite",
		Path:        filepath.Join(t.TempDir(), "test.sqlite3"),
		TablePrefix: "pf_",
		AutoMigrate: true,
	}
	db, err := dao.NewDBEngine(dbCfg)
	require.NoError(t, err)

	logger := zap.NewNop()
	d := dao.New(db, context.Background(), dao.WithConfig(dbCfg), dao.WithLogger(logger))
	wq := writequeue.New(nil, logger)
	t.Cleanup(func() { _ = wq.Shutdown(context.Background()) })

	cfg := &ServiceConfig{
		User: UserServiceConfig{RegisterIsEnable: true},
		App: AppServiceConfig{
			AddChangeMaxRetries: 3,
			SessionExpiry:       "30d",
		},
	}

	env := &testEnv{
		dao:       d,
		wq:        wq,
		changes:   dao.NewChangeRepository(d),
		sessions:  dao.NewSessionRepository(d),
		users:     dao.NewUserRepository(d),
		documents: dao.NewDocumentRepository(d),
	}
	env.changelog = NewChangelogService(env.changes, env.documents, wq, logger, cfg)
	env.snapshot = NewSnapshotService(env.changes, logger)
	env.session = NewSessionService(env.sessions, logger, cfg)
	env.user = NewUserService(env.users, env.session, logger, cfg)
	env.document = NewDocumentService(env.documents, env.changelog, logger)

	return env
}

func insertOps(text string) []byte {
	op := (&textmodel.Operation{}).Insert(text)
	data, _ := op.Marshal()
	return data
}

func TestChangelog_AddAndFetch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		resp, err := env.changelog.AddChange(ctx, "doc-a", 1, "Web", insertOps(fmt.Sprintf("c%d", i)), int64(i))
		require.NoError(t, err)
		assert.Equal(t, int64(i), resp.Position)
		assert.Equal(t, int64(i), resp.Version)
	}

	page, err := env.changelog.GetChanges(ctx, "doc-a", 0)
	require.NoError(t, err)
	require.Len(t, page.Changes, 2)
	assert.Equal(t, int64(2), page.HeadVersion)

	// A third change lands at position 3; a client already holding version 2
	// fetches exactly that one change.
	_, err = env.changelog.AddChange(ctx, "doc-a", 1, "Web", insertOps("c3"), 3)
	require.NoError(t, err)

	page, err = env.changelog.GetChanges(ctx, "doc-a", 2)
	require.NoError(t, err)
	require.Len(t, page.Changes, 1)
	assert.Equal(t, int64(3), page.Changes[0].Position)
	assert.Equal(t, int64(3), page.HeadVersion)
}

func TestChangelog_EmptyChangeset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	version, err := env.changelog.GetVersion(ctx, "never-seen")
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)

	page, err := env.changelog.GetChanges(ctx, "never-seen", 0)
	require.NoError(t, err)
	assert.Empty(t, page.Changes)
	assert.Equal(t, int64(0), page.HeadVersion)
}

func TestChangelog_AddChange_InvalidOps(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.changelog.AddChange(ctx, "doc-a", 1, "Web", nil, 0)
	require.Error(t, err)

	_, err = env.changelog.AddChange(ctx, "doc-a", 1, "Web", []byte("{not json"), 0)
	require.Error(t, err)

	// Structurally broken operations are rejected before they reach the log.
	_, err = env.changelog.AddChange(ctx, "doc-a", 1, "Web",
		[]byte(`{"components":[{"kind":"retain","n":-1}]}`), 0)
	require.Error(t, err)
	cerr, ok := err.(*code.Code)
	require.True(t, ok)
	assert.Equal(t, code.ErrorInvalidParams.Code(), cerr.Code())

	_, err = env.changelog.AddChange(ctx, "doc-a", 1, "Web",
		[]byte(`{"components":[{"kind":"replace","s":"x"}]}`), 0)
	require.Error(t, err)

	version, err := env.changelog.GetVersion(ctx, "doc-a")
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)
}

func TestChangelog_HeadVersionOnStaleBaseline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := env.changelog.AddChange(ctx, "doc-a", 1, "Web", insertOps("x"), int64(i))
		require.NoError(t, err)
	}

	// A client claiming a version past head gets an empty page that still
	// reports the real head, so it can detect the stale baseline and resync.
	page, err := env.changelog.GetChanges(ctx, "doc-a", 5)
	require.NoError(t, err)
	assert.Empty(t, page.Changes)
	assert.Equal(t, int64(3), page.HeadVersion)

	page, err = env.changelog.GetChanges(ctx, "doc-a", 3)
	require.NoError(t, err)
	assert.Empty(t, page.Changes)
	assert.Equal(t, int64(3), page.HeadVersion)
}

func TestChangelog_DeleteChangeset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.changelog.AddChange(ctx, "doc-a", 1, "Web", insertOps("hello"), 0)
	require.NoError(t, err)

	require.NoError(t, env.changelog.DeleteChangeset(ctx, "doc-a"))

	version, err := env.changelog.GetVersion(ctx, "doc-a")
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)

	// Removing an unknown changeset is a no-op.
	assert.NoError(t, env.changelog.DeleteChangeset(ctx, "never-seen"))
}

func TestChangelog_ConcurrentAdds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const adds = 20

	var wg sync.WaitGroup
	positions := make(chan int64, adds)
	for i := 0; i < adds; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := env.changelog.AddChange(ctx, "doc-a", 1, "Web", insertOps("x"), int64(i))
			if assert.NoError(t, err) {
				positions <- resp.Position
			}
		}(i)
	}
	wg.Wait()
	close(positions)

	seen := make(map[int64]bool)
	for pos := range positions {
		assert.False(t, seen[pos], "position %d assigned twice", pos)
		seen[pos] = true
	}
	require.Len(t, seen, adds)
	for i := int64(1); i <= adds; i++ {
		assert.True(t, seen[i], "position %d missing", i)
	}

	version, err := env.changelog.GetVersion(ctx, "doc-a")
	require.NoError(t, err)
	assert.Equal(t, int64(adds), version)
}

func TestChangelog_ErrorCarriesCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.changelog.AddChange(ctx, "doc-a", 1, "Web", []byte("null"), 0)
	require.NoError(t, err, "null is valid JSON and stored as-is")

	_, err = env.changelog.AddChange(ctx, "doc-a", 1, "Web", []byte(""), 0)
	require.Error(t, err)
	cerr, ok := err.(*code.Code)
	require.True(t, ok)
	assert.Equal(t, code.ErrorInvalidParams.Code(), cerr.Code())
}
