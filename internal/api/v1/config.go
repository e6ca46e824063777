package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GoldenArt-IT/fabric-analysis/internal/model"
	"github.com/GoldenArt-IT/fabric-analysis/internal/parser"
)

// 列配对声明来源
const (
	PairsFromDatabase = "database"
	PairsFromConfig   = "config"
	PairsInferred     = "inferred"
)

// ConfigResponse 列配对配置响应
type ConfigResponse struct {
	Declared      []model.ColumnPair `json:"declared"`      // 当前生效的声明
	DeclaredBy    string             `json:"declaredBy"`    // database/config/inferred
	Active        []model.ColumnPair `json:"active"`        // 当前快照实际使用的列对
	Inferred      bool               `json:"inferred"`      // 当前快照是否为推断配对
	FabricColumns []string           `json:"fabricColumns"` // 表头中的面料列
	QtyColumns    []string           `json:"qtyColumns"`    // 表头中的数量列
}

// UpdateConfigRequest 更新列配对请求；空列表表示清除声明
type UpdateConfigRequest struct {
	Pairs []model.ColumnPair `json:"pairs"`
}

// GetConfig 获取列配对配置
// GET /api/config
func (h *Handler) GetConfig(c *gin.Context) {
	resp, err := h.buildConfigResponse(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取配置失败"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateConfig 保存列配对声明，并按新声明重新计算当前快照
// PATCH /api/config
func (h *Handler) UpdateConfig(c *gin.Context) {
	var req UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	pairs := make([]model.ColumnPair, 0, len(req.Pairs))
	for i, p := range req.Pairs {
		p.Fabric = strings.TrimSpace(p.Fabric)
		p.Qty = strings.TrimSpace(p.Qty)
		if p.Fabric == "" || p.Qty == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "列配对不完整", "index": i})
			return
		}
		pairs = append(pairs, p)
	}

	ctx := c.Request.Context()
	if err := h.store.SetColumnPairs(ctx, pairs); err != nil {
		h.logger.Error("save column pairs failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存配置失败"})
		return
	}

	if _, err := h.coordinator.Snapshots().Get(); err == nil {
		if _, err := h.coordinator.Repair(ctx); err != nil {
			h.logger.Error("rebuild snapshot failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "按新配置重新计算失败: " + err.Error()})
			return
		}
	}

	h.GetConfig(c)
}

func (h *Handler) buildConfigResponse(c *gin.Context) (ConfigResponse, error) {
	settings := h.coordinator.Settings()

	resp := ConfigResponse{
		Declared:      []model.ColumnPair{},
		DeclaredBy:    PairsInferred,
		Active:        []model.ColumnPair{},
		FabricColumns: []string{},
		QtyColumns:    []string{},
	}

	stored, ok, err := h.store.GetColumnPairs(c.Request.Context())
	if err != nil {
		return resp, err
	}
	switch {
	case ok:
		resp.Declared = stored
		resp.DeclaredBy = PairsFromDatabase
	case len(settings.Pairs) > 0:
		resp.Declared = settings.Pairs
		resp.DeclaredBy = PairsFromConfig
	}

	if snap, err := h.coordinator.Snapshots().Get(); err == nil {
		ds := snap.Dashboard.Dataset()
		if len(ds.Pairing.Pairs) > 0 {
			resp.Active = ds.Pairing.Pairs
		}
		resp.Inferred = ds.Pairing.Inferred
		fabric, qty := parser.ClassifyColumns(ds.Table.Columns, settings.Markers)
		if fabric != nil {
			resp.FabricColumns = fabric
		}
		if qty != nil {
			resp.QtyColumns = qty
		}
	}
	return resp, nil
}
