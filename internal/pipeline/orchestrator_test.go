package pipeline

import (
	"context"
	"encoding/csv"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/farxc/ecommerce_medallion/internal/files"
	"github.com/farxc/ecommerce_medallion/internal/gold"
	"github.com/farxc/ecommerce_medallion/internal/logger"
	"github.com/farxc/ecommerce_medallion/internal/silver"
	"github.com/farxc/ecommerce_medallion/internal/store"
	"github.com/farxc/ecommerce_medallion/internal/table"
	"github.com/farxc/ecommerce_medallion/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

type fakeRuns struct {
	mu       sync.Mutex
	inserted []store.PipelineRun
	finished []store.PipelineRun
}

func (f *fakeRuns) EnsureSchema(ctx context.Context) error { return nil }

func (f *fakeRuns) InsertRun(ctx context.Context, run *store.PipelineRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run.ID = int64(len(f.inserted) + 1)
	f.inserted = append(f.inserted, *run)
	return nil
}

func (f *fakeRuns) FinishRun(ctx context.Context, run *store.PipelineRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finished = append(f.finished, *run)
	return nil
}

func (f *fakeRuns) GetLatest(ctx context.Context, limit int) ([]store.PipelineRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.PipelineRun(nil), f.finished...), nil
}

func writeInput(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func scenario(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	input := filepath.Join(root, "input")
	writeInput(t, input, "ingest_date=2024-01-15/customers.csv", `customer_id,state,city,created_ts,phone
c1,sp,São Paulo,2024-01-01 10:00:00,(11) 4002-8922
c1,RJ,Rio de Janeiro,2024-03-01 10:00:00,(21) 4002-8922
`)
	writeInput(t, input, "ingest_date=2024-01-15/orders.csv", `order_id,customer_id,order_ts,status,payment_method,total_amount,currency,sales_channel
o1,c1,2024-03-02 10:00:00,Paid,PIX,90,BRL,web
`)
	writeInput(t, input, "ingest_date=2024-01-15/order_items.csv", `order_id,product_id,quantity,unit_price,discount_amount
o1,p1,2,30,4
o1,p2,one,40,6
`)
	return input, filepath.Join(root, "output")
}

func newTestOrchestrator(input, output string, runs store.RunHistory) *Orchestrator {
	return NewOrchestrator(Options{InputDir: input, OutputDir: output, Workers: 2}, table.Reader{}, runs, logger.Discard())
}

func TestRunEndToEnd(t *testing.T) {
	input, output := scenario(t)
	runs := &fakeRuns{}

	summary, err := newTestOrchestrator(input, output, runs).Run(context.Background(), store.TriggerTypeManual)
	require.NoError(t, err)
	assert.Equal(t, store.StatusSuccess, summary.Status())
	assert.Equal(t, 3, summary.Bronze.Succeeded)
	assert.Equal(t, 3, summary.Silver.Succeeded)
	require.NotNil(t, summary.Gold)

	silverCustomers, err := table.Reader{}.Read(files.FormatCSV, filepath.Join(output, "silver", "ingest_date=2024-01-15", "customers_silver.csv"))
	require.NoError(t, err)
	require.Equal(t, 1, silverCustomers.Nrow())
	assert.Equal(t, "RJ", table.Columns(silverCustomers).Text("state", 0).V)

	_, dims, err := gold.NewStage(output, table.Reader{}, nil).ReadTable(gold.TableDimCustomers, 0)
	require.NoError(t, err)
	require.Len(t, dims, 1)
	assert.Equal(t, "rio de janeiro", *dims[0]["city"])

	_, facts, err := gold.NewStage(output, table.Reader{}, nil).ReadTable(gold.TableFactOrders, 0)
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "100.00", *facts[0]["gross_amount"])
	assert.Equal(t, "10.00", *facts[0]["discount_total"])
	assert.Equal(t, "90.00", *facts[0]["net_amount"])
	assert.Equal(t, "2024-03-02", *facts[0]["order_date"])
	assert.Nil(t, facts[0]["carrier"])
	assert.Nil(t, facts[0]["is_late"])

	require.Len(t, runs.inserted, 1)
	require.Len(t, runs.finished, 1)
	assert.Equal(t, store.StatusInProgress, runs.inserted[0].Status)
	assert.Equal(t, store.StatusSuccess, runs.finished[0].Status)
	assert.Equal(t, summary.RunID, runs.finished[0].RunID)
	assert.Equal(t, 3, runs.finished[0].FilesDiscovered)
}

func TestRunDecodesWindows1252InputOnce(t *testing.T) {
	input := t.TempDir()
	output := filepath.Join(t.TempDir(), "out")

	raw, err := charmap.Windows1252.NewEncoder().String("customer_id,state,city,created_ts,phone\nc1,SP,São Paulo,2024-01-01 10:00:00,\n")
	require.NoError(t, err)
	writeInput(t, input, "ingest_date=2024-01-15/customers.csv", raw)

	opts := Options{InputDir: input, OutputDir: output, Workers: 1}
	o := NewOrchestrator(opts, table.Reader{Windows1252: true}, nil, logger.Discard())
	summary, err := o.Run(context.Background(), store.TriggerTypeManual)
	require.NoError(t, err)
	assert.Equal(t, store.StatusSuccess, summary.Status())

	bronzeCustomers, err := table.Reader{}.Read(files.FormatCSV, filepath.Join(output, "bronze", "ingest_date=2024-01-15", "customers_bronze.csv"))
	require.NoError(t, err)
	assert.Equal(t, "São Paulo", table.Columns(bronzeCustomers).Text("city", 0).V)

	silverCustomers, err := table.Reader{}.Read(files.FormatCSV, filepath.Join(output, "silver", "ingest_date=2024-01-15", "customers_silver.csv"))
	require.NoError(t, err)
	assert.Equal(t, "sao paulo", table.Columns(silverCustomers).Text("city", 0).V)

	_, dims, err := o.GoldStage().ReadTable(gold.TableDimCustomers, 0)
	require.NoError(t, err)
	require.Len(t, dims, 1)
	assert.Equal(t, "sao paulo", *dims[0]["city"])
}

// snapshot reads every output file, dropping the _processed_ts column.
func snapshot(t *testing.T, output string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.WalkDir(output, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		records, err := csv.NewReader(f).ReadAll()
		if err != nil {
			return err
		}
		drop := -1
		for i, name := range records[0] {
			if name == types.ColProcessedTs {
				drop = i
			}
		}
		var b strings.Builder
		for _, rec := range records {
			for i, cell := range rec {
				if i == drop {
					continue
				}
				b.WriteString(cell)
				b.WriteString("|")
			}
			b.WriteString("\n")
		}
		rel, _ := filepath.Rel(output, path)
		out[rel] = b.String()
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestRunIsReproducible(t *testing.T) {
	input, output := scenario(t)
	o := newTestOrchestrator(input, output, nil)

	_, err := o.Run(context.Background(), store.TriggerTypeManual)
	require.NoError(t, err)
	first := snapshot(t, output)

	_, err = o.Run(context.Background(), store.TriggerTypeManual)
	require.NoError(t, err)
	second := snapshot(t, output)

	assert.Len(t, first, 3+3+len(gold.Tables))
	assert.Equal(t, first, second)

	for _, name := range gold.Tables {
		path := filepath.Join(output, "gold", name+".csv")
		a, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotEmpty(t, a)
	}
}

func TestRunIsolatesFailingFiles(t *testing.T) {
	input, output := scenario(t)
	writeInput(t, input, "misc/inventory.csv", "sku,qty\n1,2\n")
	runs := &fakeRuns{}

	summary, err := newTestOrchestrator(input, output, runs).Run(context.Background(), store.TriggerTypeAPI)
	require.NoError(t, err)

	assert.Equal(t, store.StatusPartial, summary.Status())
	assert.Equal(t, 4, summary.Bronze.Succeeded)
	require.Len(t, summary.Silver.Failures, 1)
	assert.ErrorIs(t, summary.Silver.Failures[0].Err, silver.ErrUnrecognizedEntity)
	assert.Contains(t, summary.Silver.Failures[0].Path, "inventory_bronze.csv")
	require.NotNil(t, summary.Gold)
	assert.Equal(t, 1, summary.Gold.Rows[gold.TableFactOrders])

	require.Len(t, runs.finished, 1)
	assert.Equal(t, store.StatusPartial, runs.finished[0].Status)
	assert.Equal(t, 1, runs.finished[0].FilesFailed)
	assert.Equal(t, store.TriggerTypeAPI, runs.finished[0].TriggerType)
}

func TestRunFailFast(t *testing.T) {
	input, output := scenario(t)
	writeInput(t, input, "misc/inventory.csv", "sku,qty\n1,2\n")

	o := NewOrchestrator(Options{InputDir: input, OutputDir: output, Workers: 1, FailFast: true}, table.Reader{}, nil, logger.Discard())
	summary, err := o.Run(context.Background(), store.TriggerTypeManual)
	require.Error(t, err)
	assert.ErrorIs(t, err, silver.ErrUnrecognizedEntity)
	assert.Equal(t, store.StatusFailure, summary.Status())
	assert.Nil(t, summary.Gold)
}

func TestRunMissingInputDir(t *testing.T) {
	root := t.TempDir()
	runs := &fakeRuns{}

	summary, err := newTestOrchestrator(filepath.Join(root, "nope"), filepath.Join(root, "output"), runs).Run(context.Background(), store.TriggerTypeManual)
	assert.ErrorIs(t, err, files.ErrNotFound)
	assert.Equal(t, store.StatusFailure, summary.Status())
	require.Len(t, runs.finished, 1)
	assert.Equal(t, store.StatusFailure, runs.finished[0].Status)
}

func TestRunClearsPreviousOutput(t *testing.T) {
	input, output := scenario(t)
	stale := filepath.Join(output, "silver", "ingest_date=1999-01-01", "customers_silver.csv")
	writeInput(t, output, "silver/ingest_date=1999-01-01/customers_silver.csv", "customer_id\nold\n")

	_, err := newTestOrchestrator(input, output, nil).Run(context.Background(), store.TriggerTypeManual)
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
}

func TestStartRejectsConcurrentRuns(t *testing.T) {
	input, output := scenario(t)
	o := newTestOrchestrator(input, output, nil)

	release := make(chan struct{})
	o.sleep = func(ctx context.Context, d time.Duration) error {
		<-release
		return nil
	}

	runID, err := o.Start(context.Background(), store.TriggerTypeAPI)
	require.NoError(t, err)
	assert.NotEmpty(t, runID)
	assert.True(t, o.Running())

	_, err = o.Run(context.Background(), store.TriggerTypeManual)
	assert.ErrorIs(t, err, ErrRunInProgress)
	_, err = o.Start(context.Background(), store.TriggerTypeAPI)
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(release)
	o.Wait()
	assert.False(t, o.Running())
}

func TestStageDelayHonoursCancellation(t *testing.T) {
	input, output := scenario(t)
	o := NewOrchestrator(Options{InputDir: input, OutputDir: output, StageDelay: time.Hour}, table.Reader{}, nil, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Run(ctx, store.TriggerTypeManual)
	assert.ErrorIs(t, err, context.Canceled)
}
