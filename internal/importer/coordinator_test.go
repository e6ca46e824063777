package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/GoldenArt-IT/fabric-analysis/internal/calculator"
	"github.com/GoldenArt-IT/fabric-analysis/internal/model"
	"github.com/GoldenArt-IT/fabric-analysis/internal/parser"
	"github.com/GoldenArt-IT/fabric-analysis/internal/service/snapshot"
	"github.com/GoldenArt-IT/fabric-analysis/internal/store"
)

const twoOrdersCSV = "TIMESTAMP,DELIVERY PLAN DATE,TRIP,FABRIC 1,QTY 1,FABRIC 2,QTY 2\n" +
	"2024-01-05,2024-01-20,A,Cotton,10,Silk,5\n" +
	"2024-02-10,2024-02-25,B,Cotton,7,Silk,3\n"

func testSettings() Settings {
	return Settings{
		Dimensions: calculator.DefaultDimensions(),
		Markers:    parser.DefaultMarkers(),
		Sheet:      "DATA SALES CO & FABRIC",
	}
}

func newTestCoordinator(t *testing.T, settings Settings) (*Coordinator, *store.Store) {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "fabricboard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	return NewCoordinator(st, snapshot.NewMemoryStore(), settings, zaptest.NewLogger(t)), st
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

type failingSource struct{}

func (failingSource) Name() string { return "broken" }

func (failingSource) Fetch(context.Context) (*model.Table, error) {
	return nil, errors.New("boom")
}

func usageMap(rows []model.UsageRow) map[string]string {
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Fabric] = r.Total.String()
	}
	return out
}

func TestLoad_CSVFilePublishesSnapshot(t *testing.T) {
	c, st := newTestCoordinator(t, testSettings())
	ctx := context.Background()

	src := &FileSource{Path: writeFile(t, "orders.csv", twoOrdersCSV), Reader: c.Reader()}
	snap, err := c.Load(ctx, src, TriggerStartup)
	require.NoError(t, err)

	cur, err := c.Snapshots().Get()
	require.NoError(t, err)
	assert.Equal(t, snap.ID, cur.ID)
	assert.Equal(t, "orders.csv", cur.Source)

	res := cur.Dashboard.ApplyFiltersAndAggregate(model.Selection{})
	assert.Equal(t, map[string]string{"Cotton": "17", "Silk": "8"}, usageMap(res.Usage))

	info := cur.Info()
	assert.Equal(t, 2, info.Rows)
	assert.Equal(t, 2, info.Pairs)

	logs, err := st.ListImportLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, store.ImportStatusSuccess, logs[0].Status)
	assert.Equal(t, snap.ID, logs[0].SnapshotID)
	assert.Equal(t, TriggerStartup, logs[0].Trigger)
}

func TestLoad_StoredPairsOverrideConfig(t *testing.T) {
	settings := testSettings()
	settings.Pairs = []model.ColumnPair{{Fabric: "FABRIC 1", Qty: "QTY 1"}}
	c, st := newTestCoordinator(t, settings)
	ctx := context.Background()
	src := &FileSource{Path: writeFile(t, "orders.csv", twoOrdersCSV), Reader: c.Reader()}

	snap, err := c.Load(ctx, src, TriggerManual)
	require.NoError(t, err)
	res := snap.Dashboard.ApplyFiltersAndAggregate(model.Selection{})
	assert.Equal(t, map[string]string{"Cotton": "17"}, usageMap(res.Usage))

	require.NoError(t, st.SetColumnPairs(ctx, []model.ColumnPair{{Fabric: "FABRIC 2", Qty: "QTY 2"}}))
	snap, err = c.Repair(ctx)
	require.NoError(t, err)
	res = snap.Dashboard.ApplyFiltersAndAggregate(model.Selection{})
	assert.Equal(t, map[string]string{"Silk": "8"}, usageMap(res.Usage))
}

func TestLoad_InferredPairingWarns(t *testing.T) {
	c, _ := newTestCoordinator(t, testSettings())
	src := &FileSource{Path: writeFile(t, "orders.csv", twoOrdersCSV), Reader: c.Reader()}

	snap, err := c.Load(context.Background(), src, TriggerStartup)
	require.NoError(t, err)

	var codes []model.WarningCode
	for _, w := range snap.Info().Warnings {
		codes = append(codes, w.Code)
	}
	assert.Contains(t, codes, model.WarnInferredPairing)
}

func TestLoad_FailureKeepsPreviousSnapshot(t *testing.T) {
	c, st := newTestCoordinator(t, testSettings())
	ctx := context.Background()

	first, err := c.Load(ctx, &FileSource{Path: writeFile(t, "orders.csv", twoOrdersCSV), Reader: c.Reader()}, TriggerStartup)
	require.NoError(t, err)

	_, err = c.Load(ctx, failingSource{}, TriggerRefresh)
	require.Error(t, err)

	cur, err := c.Snapshots().Get()
	require.NoError(t, err)
	assert.Equal(t, first.ID, cur.ID)

	logs, err := st.ListImportLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, store.ImportStatusFailed, logs[0].Status)
	assert.Contains(t, logs[0].ErrorMessage, "boom")
}

func TestLoad_RefreshSkipsUnchangedSource(t *testing.T) {
	c, st := newTestCoordinator(t, testSettings())
	ctx := context.Background()
	tbl, err := ReadCSVTable(strings.NewReader(twoOrdersCSV))
	require.NoError(t, err)
	src := &countingSource{table: tbl}

	first, err := c.Load(ctx, src, TriggerStartup)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		snap, err := c.Load(ctx, src, TriggerRefresh)
		require.NoError(t, err)
		assert.Equal(t, first.ID, snap.ID)
	}
	assert.Equal(t, 1, c.Snapshots().Swaps())

	changed, err := ReadCSVTable(strings.NewReader(twoOrdersCSV + "2024-03-01,2024-03-15,C,Linen,2,,\n"))
	require.NoError(t, err)
	src.table = changed
	snap, err := c.Load(ctx, src, TriggerRefresh)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, snap.ID)

	logs, err := st.ListImportLogs(ctx, 50)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, TriggerRefresh, logs[0].Trigger)
	assert.Equal(t, TriggerStartup, logs[1].Trigger)
}

func TestLoad_RepeatedRefreshFailureLoggedOnce(t *testing.T) {
	c, st := newTestCoordinator(t, testSettings())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.Load(ctx, failingSource{}, TriggerRefresh)
		require.Error(t, err)
	}

	logs, err := st.ListImportLogs(ctx, 50)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, store.ImportStatusFailed, logs[0].Status)

	// 手动加载的失败总是记录
	_, err = c.Load(ctx, failingSource{}, TriggerManual)
	require.Error(t, err)
	logs, err = st.ListImportLogs(ctx, 50)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	c, _ := newTestCoordinator(t, testSettings())

	_, err := c.Load(context.Background(), &FileSource{Path: writeFile(t, "orders.txt", twoOrdersCSV)}, TriggerManual)
	require.ErrorIs(t, err, ErrUnsupportedSource)

	_, err = c.Snapshots().Get()
	assert.ErrorIs(t, err, snapshot.ErrNoSnapshot)
}

func TestRepair_WithoutSnapshot(t *testing.T) {
	c, _ := newTestCoordinator(t, testSettings())

	_, err := c.Repair(context.Background())
	assert.ErrorIs(t, err, snapshot.ErrNoSnapshot)
}

func TestImport_StreamsProgress(t *testing.T) {
	c, _ := newTestCoordinator(t, testSettings())

	ch := c.Import(context.Background(), ImportOptions{
		FilePath: writeFile(t, "upload-123.csv", twoOrdersCSV),
		Filename: "orders.csv",
	})

	var types []string
	var done *ProgressEvent
	for evt := range ch {
		evt := evt
		types = append(types, evt.Type)
		if evt.Type == "error" {
			t.Fatalf("import error event: %s", evt.Message)
		}
		if evt.Type == "done" {
			done = &evt
		}
	}

	require.NotNil(t, done, "missing done event, got %v", types)
	assert.Equal(t, "start", types[0])
	assert.Contains(t, types, "warning")

	info, ok := done.Data.(model.SnapshotInfo)
	require.True(t, ok, "unexpected done data %T", done.Data)
	assert.Equal(t, "orders.csv", info.Source)
	assert.Equal(t, 2, info.Rows)
}

func TestImport_ErrorEvent(t *testing.T) {
	c, _ := newTestCoordinator(t, testSettings())

	ch := c.Import(context.Background(), ImportOptions{FilePath: filepath.Join(t.TempDir(), "missing.xlsx")})

	var last ProgressEvent
	for evt := range ch {
		last = evt
	}
	assert.Equal(t, "error", last.Type)
}
