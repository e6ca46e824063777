package importer

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/GoldenArt-IT/fabric-analysis/internal/model"
)

type countingSource struct {
	calls atomic.Int32
	table *model.Table
}

func (s *countingSource) Name() string { return "counting" }

func (s *countingSource) Fetch(context.Context) (*model.Table, error) {
	s.calls.Add(1)
	return s.table, nil
}

func TestRefresher_ReloadsUntilCancelled(t *testing.T) {
	c, st := newTestCoordinator(t, testSettings())
	tbl, err := ReadCSVTable(strings.NewReader(twoOrdersCSV))
	require.NoError(t, err)
	src := &countingSource{table: tbl}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		NewRefresher(c, src, 10*time.Millisecond, zaptest.NewLogger(t)).Run(ctx)
	}()

	require.Eventually(t, func() bool { return src.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("refresher did not stop after cancel")
	}

	// 数据未变化：只发布一次快照，只记录一条导入日志
	assert.Equal(t, 1, c.Snapshots().Swaps())
	logs, err := st.ListImportLogs(context.Background(), 50)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestRefresher_UploadPausesUntilManualRefresh(t *testing.T) {
	c, _ := newTestCoordinator(t, testSettings())
	tbl, err := ReadCSVTable(strings.NewReader(twoOrdersCSV))
	require.NoError(t, err)
	src := &countingSource{table: tbl}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		NewRefresher(c, src, 10*time.Millisecond, zaptest.NewLogger(t)).Run(ctx)
	}()
	require.Eventually(t, func() bool { return c.Snapshots().Swaps() >= 1 }, 2*time.Second, 5*time.Millisecond)

	velvet := "TIMESTAMP,DELIVERY PLAN DATE,TRIP,FABRIC 1,QTY 1\n2024-03-01,2024-03-15,C,Velvet,4\n"
	for evt := range c.Import(ctx, ImportOptions{FilePath: writeFile(t, "upload.csv", velvet)}) {
		require.NotEqual(t, "error", evt.Type, evt.Message)
	}
	require.True(t, c.RefreshPaused())
	calls := src.calls.Load()

	time.Sleep(100 * time.Millisecond)

	cur, err := c.Snapshots().Get()
	require.NoError(t, err)
	assert.Equal(t, "upload.csv", cur.Source)
	assert.Equal(t, []string{"Velvet"}, cur.Dashboard.DistinctFilterOptions().Fabrics)
	assert.Equal(t, calls, src.calls.Load(), "paused refresher should not fetch")

	// 手动刷新重新加载配置的数据源并恢复定时刷新
	_, err = c.Load(ctx, src, TriggerManual)
	require.NoError(t, err)
	assert.False(t, c.RefreshPaused())
	require.Eventually(t, func() bool { return src.calls.Load() > calls+1 }, 2*time.Second, 5*time.Millisecond)

	cur, err = c.Snapshots().Get()
	require.NoError(t, err)
	assert.Equal(t, "counting", cur.Source)
	assert.Equal(t, []string{"Cotton", "Silk"}, cur.Dashboard.DistinctFilterOptions().Fabrics)

	cancel()
	<-done
}

func TestRefresher_DisabledInterval(t *testing.T) {
	c, _ := newTestCoordinator(t, testSettings())
	src := &countingSource{}

	NewRefresher(c, src, 0, nil).Run(context.Background())
	assert.Equal(t, int32(0), src.calls.Load())
}
