package importer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GoldenArt-IT/fabric-analysis/internal/calculator"
	"github.com/GoldenArt-IT/fabric-analysis/internal/model"
	"github.com/GoldenArt-IT/fabric-analysis/internal/parser"
	"github.com/GoldenArt-IT/fabric-analysis/internal/service/excel"
	"github.com/GoldenArt-IT/fabric-analysis/internal/service/snapshot"
	"github.com/GoldenArt-IT/fabric-analysis/internal/store"
)

// 加载触发方式
const (
	TriggerStartup = "startup"
	TriggerRefresh = "refresh"
	TriggerManual  = "manual"
	TriggerUpload  = "upload"
	TriggerRepair  = "repair"
)

// ErrRefreshPaused 当前快照来自上传文件，定时刷新暂停
var ErrRefreshPaused = errors.New("periodic refresh paused while an uploaded sheet is shown")

// Settings 归一化所需的列配置
type Settings struct {
	Dimensions calculator.Dimensions
	Markers    parser.Markers
	Pairs      []model.ColumnPair // 配置文件声明的列对，数据库中的声明优先
	Sheet      string
}

// ReadOptions 对应的工作簿读取选项
func (s Settings) ReadOptions() excel.ReadOptions {
	return excel.ReadOptions{
		Sheet:      s.Sheet,
		KeyColumns: []string{s.Dimensions.OrderDate, s.Dimensions.DeliveryDate, s.Dimensions.Trip},
		Markers:    s.Markers,
	}
}

// Coordinator 导入协调器
type Coordinator struct {
	store     *store.Store
	snapshots *snapshot.MemoryStore
	settings  Settings
	reader    *excel.Reader
	logger    *zap.Logger
	now       func() time.Time

	mu             sync.Mutex  // 串行化加载，避免并发刷新交错写入
	pinned         atomic.Bool // 当前快照来自上传
	lastRefreshErr string
	lastWarnings   string
}

// NewCoordinator 创建导入协调器
func NewCoordinator(st *store.Store, snapshots *snapshot.MemoryStore, settings Settings, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		store:     st,
		snapshots: snapshots,
		settings:  settings,
		reader:    excel.NewReader(settings.ReadOptions()),
		logger:    logger.Named("importer"),
		now:       time.Now,
	}
}

// Snapshots 快照存储
func (c *Coordinator) Snapshots() *snapshot.MemoryStore {
	return c.snapshots
}

// Settings 列配置
func (c *Coordinator) Settings() Settings {
	return c.settings
}

// Reader 工作簿读取器
func (c *Coordinator) Reader() *excel.Reader {
	return c.reader
}

// RefreshPaused 当前快照是否来自上传文件
// 上传成功后定时刷新暂停，直到手动刷新重新加载配置的数据源
func (c *Coordinator) RefreshPaused() bool {
	return c.pinned.Load()
}

// Load 从数据源加载并发布新快照
// 失败时保留旧快照；定时刷新遇到未变化的数据时不发布新快照，也不记录日志
func (c *Coordinator) Load(ctx context.Context, src Source, trigger string) (*snapshot.Snapshot, error) {
	return c.load(ctx, src, trigger, nil)
}

// Repair 用当前快照的原始表按最新列对配置重新归一化
func (c *Coordinator) Repair(ctx context.Context) (*snapshot.Snapshot, error) {
	cur, err := c.snapshots.Get()
	if err != nil {
		return nil, err
	}
	src := &tableSource{name: cur.Source, table: cur.Dashboard.Dataset().Table}
	return c.load(ctx, src, TriggerRepair, nil)
}

// ImportOptions 上传导入选项
type ImportOptions struct {
	FilePath string
	Filename string // 原始文件名，为空时取 FilePath 的文件名
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`    // start/info/warning/done/error
	Message   string      `json:"message"` // 事件消息
	Data      interface{} `json:"data"`    // 附加数据
	Timestamp time.Time   `json:"timestamp"`
}

// Import 执行上传文件的导入，返回进度通道
func (c *Coordinator) Import(ctx context.Context, opts ImportOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)
		c.doImport(ctx, opts, progressChan)
	}()

	return progressChan
}

// doImport 执行导入逻辑
func (c *Coordinator) doImport(ctx context.Context, opts ImportOptions, progressChan chan ProgressEvent) {
	name := opts.Filename
	if name == "" {
		name = filepath.Base(opts.FilePath)
	}

	c.sendProgress(progressChan, ProgressEvent{
		Type:      "start",
		Message:   "开始导入订单表",
		Data:      map[string]string{"filename": name},
		Timestamp: c.now(),
	})

	src := &FileSource{Path: opts.FilePath, Label: name, Reader: c.reader}
	snap, err := c.load(ctx, src, TriggerUpload, func(evt ProgressEvent) {
		c.sendProgress(progressChan, evt)
	})
	if err != nil {
		c.sendProgress(progressChan, ProgressEvent{
			Type:      "error",
			Message:   fmt.Sprintf("导入失败: %v", err),
			Timestamp: c.now(),
		})
		return
	}

	c.sendProgress(progressChan, ProgressEvent{
		Type:      "done",
		Message:   "导入完成",
		Data:      snap.Info(),
		Timestamp: c.now(),
	})
}

// load 加载流程：读取、解析列对、归一化、发布快照、记录日志
func (c *Coordinator) load(ctx context.Context, src Source, trigger string, progress func(ProgressEvent)) (*snapshot.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if trigger == TriggerRefresh && c.pinned.Load() {
		return nil, ErrRefreshPaused
	}

	emit := func(typ, msg string, data interface{}) {
		if progress != nil {
			progress(ProgressEvent{Type: typ, Message: msg, Data: data, Timestamp: c.now()})
		}
	}

	table, err := src.Fetch(ctx)
	if err != nil {
		return nil, c.fail(ctx, src, trigger, fmt.Errorf("fetch %s: %w", src.Name(), err))
	}
	emit("info", fmt.Sprintf("读取 %d 行, %d 列", table.Len(), len(table.Columns)), map[string]int{
		"rows":    table.Len(),
		"columns": len(table.Columns),
	})

	declared, err := c.declaredPairs(ctx)
	if err != nil {
		return nil, c.fail(ctx, src, trigger, err)
	}

	fingerprint := fingerprintOf(src.Name(), table, declared)
	if trigger == TriggerRefresh {
		c.lastRefreshErr = ""
		if cur, err := c.snapshots.Get(); err == nil && cur.Fingerprint == fingerprint {
			c.snapshots.Touch(c.now())
			c.logger.Debug("source unchanged", zap.String("source", src.Name()))
			return cur, nil
		}
	}

	pairing := parser.ResolvePairing(table.Columns, declared, c.settings.Markers)
	emit("info", fmt.Sprintf("识别到 %d 组面料/数量列", len(pairing.Pairs)), pairing.Pairs)

	ds := calculator.Normalize(table, c.settings.Dimensions, pairing)
	warnings := ds.Warnings()
	changed := warningsKey(warnings) != c.lastWarnings
	c.lastWarnings = warningsKey(warnings)
	for _, w := range warnings {
		if changed {
			c.logger.Warn(w.Message, zap.String("code", string(w.Code)), zap.String("source", src.Name()))
		}
		emit("warning", w.Message, w)
	}

	snap := &snapshot.Snapshot{
		ID:          uuid.NewString(),
		Source:      src.Name(),
		LoadedAt:    c.now(),
		Fingerprint: fingerprint,
		Dashboard:   calculator.NewDashboard(ds),
	}
	c.snapshots.Set(snap)

	switch trigger {
	case TriggerUpload:
		c.pinned.Store(true)
	case TriggerRepair:
		// 沿用当前快照的来源
	default:
		c.pinned.Store(false)
	}

	info := snap.Info()
	c.recordImport(ctx, src, trigger, func(id int64) error {
		return c.store.CompleteImportLog(context.WithoutCancel(ctx), id, info)
	})

	c.logger.Info("snapshot loaded",
		zap.String("snapshot_id", snap.ID),
		zap.String("source", snap.Source),
		zap.String("trigger", trigger),
		zap.Int("rows", info.Rows),
		zap.Int("pairs", info.Pairs),
		zap.Int("warnings", len(info.Warnings)),
		zap.Int("generation", c.snapshots.Swaps()))
	return snap, nil
}

// fail 记录失败；定时刷新连续出现相同错误时只记录第一次
func (c *Coordinator) fail(ctx context.Context, src Source, trigger string, cause error) error {
	if trigger == TriggerRefresh {
		if cause.Error() == c.lastRefreshErr {
			c.logger.Debug("refresh still failing", zap.String("source", src.Name()), zap.Error(cause))
			return cause
		}
		c.lastRefreshErr = cause.Error()
	}

	c.recordImport(ctx, src, trigger, func(id int64) error {
		return c.store.FailImportLog(context.WithoutCancel(ctx), id, cause)
	})
	c.logger.Error("load failed",
		zap.String("source", src.Name()),
		zap.String("trigger", trigger),
		zap.Error(cause))
	return cause
}

// recordImport 写入一条导入日志并由 finish 填写结果
func (c *Coordinator) recordImport(ctx context.Context, src Source, trigger string, finish func(id int64) error) {
	id, err := c.store.CreateImportLog(context.WithoutCancel(ctx), src.Name(), trigger)
	if err != nil {
		c.logger.Warn("create import log failed", zap.Error(err))
		return
	}
	if err := finish(id); err != nil {
		c.logger.Warn("update import log failed", zap.Int64("log_id", id), zap.Error(err))
	}
}

// fingerprintOf 来源、表内容与列对声明共同决定快照内容
func fingerprintOf(source string, table *model.Table, declared []model.ColumnPair) string {
	var b strings.Builder
	b.WriteString(source)
	b.WriteByte('\x1e')
	b.WriteString(table.Fingerprint())
	for _, p := range declared {
		b.WriteByte('\x1e')
		b.WriteString(p.Fabric)
		b.WriteByte('\x1f')
		b.WriteString(p.Qty)
	}
	return b.String()
}

func warningsKey(warnings []model.Warning) string {
	var b strings.Builder
	for _, w := range warnings {
		b.WriteString(string(w.Code))
		b.WriteByte('\x1f')
		b.WriteString(w.Message)
		b.WriteByte('\x1e')
	}
	return b.String()
}

// declaredPairs 声明的列对：数据库 > 配置文件 > 无（推断）
func (c *Coordinator) declaredPairs(ctx context.Context) ([]model.ColumnPair, error) {
	pairs, ok, err := c.store.GetColumnPairs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load column pairs: %w", err)
	}
	if ok {
		return pairs, nil
	}
	return c.settings.Pairs, nil
}

// sendProgress 发送进度事件
func (c *Coordinator) sendProgress(ch chan ProgressEvent, event ProgressEvent) {
	select {
	case ch <- event:
	default:
		// 通道已满，丢弃事件
	}
}

// tableSource 已解析的表
type tableSource struct {
	name  string
	table *model.Table
}

func (s *tableSource) Name() string { return s.name }

func (s *tableSource) Fetch(context.Context) (*model.Table, error) {
	return s.table, nil
}
