package v1

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoldenArt-IT/fabric-analysis/internal/model"
)

// MonthlyRequest 月度用量请求
type MonthlyRequest struct {
	Selection model.Selection `json:"selection"`
	Fabric    string          `json:"fabric"` // 为空时取按字母排序的第一个面料
}

// GetOptions 获取各筛选维度的可选值
// GET /api/options
func (h *Handler) GetOptions(c *gin.Context) {
	snap, ok := h.currentSnapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snap.Dashboard.DistinctFilterOptions())
}

// Usage 按筛选条件汇总面料用量
// POST /api/usage
func (h *Handler) Usage(c *gin.Context) {
	var sel model.Selection
	if err := bindOptionalJSON(c, &sel); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的筛选条件: " + err.Error()})
		return
	}

	snap, ok := h.currentSnapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snap.Dashboard.ApplyFiltersAndAggregate(sel))
}

// MonthlyUsage 指定面料的月度用量
// POST /api/usage/monthly
func (h *Handler) MonthlyUsage(c *gin.Context) {
	var req MonthlyRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求: " + err.Error()})
		return
	}

	snap, ok := h.currentSnapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snap.Dashboard.MonthlyBreakdown(req.Selection, req.Fabric))
}

// bindOptionalJSON 解析请求体；空请求体保持零值（即不限筛选）
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
