package store

import (
	"context"
	"os"
	"testing"

	"github.com/farxc/ecommerce_medallion/internal/db"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Set PIPELINE_TEST_DB_ADDR to a disposable Postgres database to run these.
func testStorage(t *testing.T) *Storage {
	t.Helper()
	addr := os.Getenv("PIPELINE_TEST_DB_ADDR")
	if addr == "" {
		t.Skip("skipping: PIPELINE_TEST_DB_ADDR not set")
	}

	conn, err := db.New(addr, 2, 2, "1m")
	if err != nil {
		t.Skipf("skipping: cannot connect to PostgreSQL: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	storage := NewStorage(conn)
	require.NoError(t, storage.PipelineRuns.EnsureSchema(context.Background()))
	return storage
}

func TestPipelineRunLifecycle(t *testing.T) {
	storage := testStorage(t)
	ctx := context.Background()

	run := &PipelineRun{
		RunID:       uuid.NewString(),
		Status:      StatusInProgress,
		TriggerType: TriggerTypeManual,
		FailedFiles: []string{},
	}
	require.NoError(t, storage.PipelineRuns.InsertRun(ctx, run))
	assert.NotZero(t, run.ID)
	assert.False(t, run.StartedAt.IsZero())

	run.Status = StatusPartial
	run.FilesDiscovered = 3
	run.FilesFailed = 1
	run.FailedFiles = []string{"input/inventory.csv"}
	run.Message = "1 file failed"
	require.NoError(t, storage.PipelineRuns.FinishRun(ctx, run))

	latest, err := storage.PipelineRuns.GetLatest(ctx, 10)
	require.NoError(t, err)

	var found *PipelineRun
	for i := range latest {
		if latest[i].RunID == run.RunID {
			found = &latest[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, StatusPartial, found.Status)
	assert.Equal(t, []string{"input/inventory.csv"}, []string(found.FailedFiles))
	assert.NotNil(t, found.FinishedAt)
}

func TestFinishUnknownRun(t *testing.T) {
	storage := testStorage(t)
	err := storage.PipelineRuns.FinishRun(context.Background(), &PipelineRun{RunID: uuid.NewString(), Status: StatusSuccess, FailedFiles: []string{}})
	assert.Error(t, err)
}
