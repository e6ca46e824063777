package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GoldenArt-IT/fabric-analysis/internal/model"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Initialized   bool            `json:"initialized"`        // 是否已加载数据
	SnapshotID    string          `json:"snapshotId"`         // 当前快照
	Source        string          `json:"source"`             // 数据来源
	LoadedAt      *time.Time      `json:"loadedAt,omitempty"` // 加载时间
	Rows          int             `json:"rows"`               // 订单行数
	Pairs         int             `json:"pairs"`              // 面料/数量列对数
	Stale         bool            `json:"stale"`              // 超过刷新周期未更新
	RefreshPaused bool            `json:"refreshPaused"`      // 正在显示上传文件，定时刷新暂停
	Warnings      []model.Warning `json:"warnings"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	snaps := h.coordinator.Snapshots()
	snap, err := snaps.Get()
	if err != nil {
		c.JSON(http.StatusOK, StatusResponse{
			Initialized: false,
			Warnings:    []model.Warning{},
		})
		return
	}

	info := snap.Info()
	paused := h.coordinator.RefreshPaused()
	loadedAt := info.LoadedAt
	warnings := info.Warnings
	if warnings == nil {
		warnings = []model.Warning{}
	}

	c.JSON(http.StatusOK, StatusResponse{
		Initialized:   true,
		SnapshotID:    info.ID,
		Source:        info.Source,
		LoadedAt:      &loadedAt,
		Rows:          info.Rows,
		Pairs:         info.Pairs,
		Stale:         snaps.Stale(h.now(), h.staleAfter) && !paused,
		RefreshPaused: paused,
		Warnings:      warnings,
	})
}
