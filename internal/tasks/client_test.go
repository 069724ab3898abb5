package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/readlater/internal/config"
	"github.com/mrlokans/readlater/internal/entities"
	"github.com/mrlokans/readlater/internal/exporters"
	"github.com/mrlokans/readlater/internal/importers"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(filepath.Join(t.TempDir(), "test.db"), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func startClient(t *testing.T, client *Client) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go client.Start(ctx)
	t.Cleanup(func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer stopCancel()
		client.Stop(stopCtx)
		cancel()
	})
}

func TestTasksDBPath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "readlater-tasks.db"), TasksDBPath(filepath.Join("data", "readlater.db")))
	assert.Equal(t, "store-tasks", TasksDBPath("store"))
}

func TestNewClient(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, client)

	// Verify tasks database was created
	_, err = os.Stat(filepath.Join(tmpDir, "test-tasks.db"))
	assert.NoError(t, err, "tasks database should be created")

	assert.NoError(t, client.Close())
}

func TestClientStartStop(t *testing.T) {
	client := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go client.Start(ctx)

	// Give it time to start
	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()

	assert.True(t, client.Stop(stopCtx), "stop should succeed gracefully")
}

func TestClientStopWithoutStart(t *testing.T) {
	client := newTestClient(t)
	assert.True(t, client.Stop(context.Background()))
}

// --- Import task ---

type recordingRunner struct {
	mu    sync.Mutex
	jobID string
	items []importers.Bookmark
	done  chan struct{}
	err   error
}

func (r *recordingRunner) Run(ctx context.Context, jobID string, items []importers.Bookmark, progress importers.ProgressFunc) (importers.RunResult, error) {
	r.mu.Lock()
	r.jobID = jobID
	r.items = items
	r.mu.Unlock()
	for i, item := range items {
		progress(i+1, len(items), item, entities.FetchStatusSuccess)
	}
	close(r.done)
	return importers.RunResult{JobID: jobID, Total: len(items), Succeeded: len(items)}, r.err
}

func TestEnqueueImport(t *testing.T) {
	client := newTestClient(t)
	runner := &recordingRunner{done: make(chan struct{})}
	client.Register(NewImportBookmarksQueue(runner, nil))
	startClient(t, client)

	items := []importers.Bookmark{
		{URL: "https://example.com/a", Title: "A", Tags: []string{"go"}},
		{URL: "https://example.com/b", Title: "B"},
	}
	require.NoError(t, client.EnqueueImport(context.Background(), "job-1", items))

	select {
	case <-runner.done:
	case <-time.After(5 * time.Second):
		t.Fatal("import task was not executed within timeout")
	}

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Equal(t, "job-1", runner.jobID)
	require.Len(t, runner.items, 2)
	assert.Equal(t, []string{"go"}, runner.items[0].Tags)
}

func TestImportBookmarksProcessor_PropagatesRunError(t *testing.T) {
	runner := &recordingRunner{done: make(chan struct{}), err: errors.New("tracker down")}
	process := ImportBookmarksProcessor(runner, nil)

	err := process(context.Background(), ImportBookmarksTask{JobID: "job-2"})
	assert.ErrorContains(t, err, "tracker down")
}

func TestImportBookmarksProcessor_NilRunner(t *testing.T) {
	process := ImportBookmarksProcessor(nil, nil)
	assert.Error(t, process(context.Background(), ImportBookmarksTask{}))
}

// --- Export task ---

type fakeDirExporter struct {
	dir    string
	result exporters.ExportResult
	err    error
}

func (f *fakeDirExporter) ExportToDir(ctx context.Context, dir string) (exporters.ExportResult, error) {
	f.dir = dir
	return f.result, f.err
}

type fakeStatus struct {
	status  string
	message string
}

func (f *fakeStatus) SetExportSyncStatus(ctx context.Context, status, message string) error {
	f.status = status
	f.message = message
	return nil
}

func TestExportMarkdownProcessor(t *testing.T) {
	t.Run("records success", func(t *testing.T) {
		exporter := &fakeDirExporter{result: exporters.ExportResult{ArticlesProcessed: 3}}
		status := &fakeStatus{}

		err := ExportMarkdownProcessor(exporter, status, nil)(context.Background(), ExportMarkdownTask{Dir: "/tmp/notes"})
		require.NoError(t, err)

		assert.Equal(t, "/tmp/notes", exporter.dir)
		assert.Equal(t, "success", status.status)
		assert.Contains(t, status.message, "Exported 3 articles")
	})

	t.Run("records failure", func(t *testing.T) {
		exporter := &fakeDirExporter{err: errors.New("read-only file system")}
		status := &fakeStatus{}

		err := ExportMarkdownProcessor(exporter, status, nil)(context.Background(), ExportMarkdownTask{Dir: "/ro"})
		require.Error(t, err)

		assert.Equal(t, "failed", status.status)
		assert.Contains(t, status.message, "read-only file system")
	})

	t.Run("status recorder is optional", func(t *testing.T) {
		exporter := &fakeDirExporter{}
		assert.NoError(t, ExportMarkdownProcessor(exporter, nil, nil)(context.Background(), ExportMarkdownTask{Dir: "x"}))
	})
}

// --- Cleanup task ---

type fakeCleaner struct {
	calls int
}

func (f *fakeCleaner) DeleteOrphanTags(ctx context.Context) (int64, error) {
	f.calls++
	return 2, nil
}

func TestCleanupOrphanTagsProcessor(t *testing.T) {
	cleaner := &fakeCleaner{}
	require.NoError(t, CleanupOrphanTagsProcessor(cleaner, nil)(context.Background(), CleanupOrphanTagsTask{}))
	assert.Equal(t, 1, cleaner.calls)

	assert.Error(t, CleanupOrphanTagsProcessor(nil, nil)(context.Background(), CleanupOrphanTagsTask{}))
}

// --- Queue configuration ---

func TestTaskConfigs(t *testing.T) {
	importCfg := ImportBookmarksTask{}.Config()
	assert.Equal(t, "import_bookmarks", importCfg.Name)
	assert.Equal(t, 1, importCfg.MaxAttempts)
	assert.Equal(t, 2*time.Hour, importCfg.Timeout)
	assert.NotNil(t, importCfg.Retention)

	exportCfg := ExportMarkdownTask{}.Config()
	assert.Equal(t, "export_markdown", exportCfg.Name)
	assert.Equal(t, 2, exportCfg.MaxAttempts)

	cleanupCfg := CleanupOrphanTagsTask{}.Config()
	assert.Equal(t, "cleanup_orphan_tags", cleanupCfg.Name)
}

// TestTask is a simple task for testing
type TestTask struct {
	Value string `json:"value"`
}

func (t TestTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "test_task",
		MaxAttempts: 1,
		Backoff:     time.Second,
		Timeout:     5 * time.Second,
	}
}

func TestTaskEnqueue(t *testing.T) {
	client := newTestClient(t)

	executed := make(chan string, 1)
	client.Register(backlite.NewQueue(func(ctx context.Context, task TestTask) error {
		executed <- task.Value
		return nil
	}))
	startClient(t, client)

	ids, err := client.Add(TestTask{Value: "hello"}).Save()
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	select {
	case val := <-executed:
		assert.Equal(t, "hello", val)
	case <-time.After(5 * time.Second):
		t.Fatal("task was not executed within timeout")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, 1, cfg.MaxRetries)
	assert.Equal(t, time.Minute, cfg.RetryDelay)
	assert.Equal(t, 2*time.Hour, cfg.TaskTimeout)
	assert.Equal(t, 3*time.Hour, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.Equal(t, 24*time.Hour, cfg.RetentionDuration)
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.Tasks{Workers: 4, TaskTimeout: 30 * time.Minute})

	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 30*time.Minute, cfg.TaskTimeout)
	assert.Equal(t, 3*time.Hour, cfg.ReleaseAfter)
}
