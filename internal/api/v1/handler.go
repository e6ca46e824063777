package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GoldenArt-IT/fabric-analysis/internal/importer"
	"github.com/GoldenArt-IT/fabric-analysis/internal/service/excel"
	"github.com/GoldenArt-IT/fabric-analysis/internal/service/snapshot"
	"github.com/GoldenArt-IT/fabric-analysis/internal/store"
)

// Options 处理器依赖
type Options struct {
	Coordinator *importer.Coordinator
	Store       *store.Store
	Source      importer.Source // 配置的数据源，可为空（仅上传）
	StaleAfter  time.Duration   // 超过该时长未刷新视为过期
	UploadDir   string
	Logger      *zap.Logger
}

// Handler API 处理器
type Handler struct {
	coordinator *importer.Coordinator
	store       *store.Store
	source      importer.Source
	staleAfter  time.Duration
	uploadDir   string
	exporter    *excel.Exporter
	logger      *zap.Logger
	now         func() time.Time
}

// NewHandler 创建 API 处理器
func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		coordinator: opts.Coordinator,
		store:       opts.Store,
		source:      opts.Source,
		staleAfter:  opts.StaleAfter,
		uploadDir:   opts.UploadDir,
		exporter:    excel.NewExporter(),
		logger:      logger.Named("api"),
		now:         time.Now,
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 筛选项与汇总
	router.GET("/options", h.GetOptions)
	router.POST("/usage", h.Usage)
	router.POST("/usage/monthly", h.MonthlyUsage)

	// 列配对配置
	router.GET("/config", h.GetConfig)
	router.PATCH("/config", h.UpdateConfig)

	// 数据加载
	router.POST("/import", h.Import)
	router.POST("/refresh", h.Refresh)
	router.GET("/imports", h.ListImports)

	// 报表导出
	router.POST("/export", h.Export)
}

// currentSnapshot 获取当前快照；未加载时直接写 503
func (h *Handler) currentSnapshot(c *gin.Context) (*snapshot.Snapshot, bool) {
	snap, err := h.coordinator.Snapshots().Get()
	if err != nil {
		if errors.Is(err, snapshot.ErrNoSnapshot) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "尚未加载订单数据"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return snap, true
}
