package v1

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Export 导出当前筛选条件下的面料用量与月度用量报表
// POST /api/export
func (h *Handler) Export(c *gin.Context) {
	var req MonthlyRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求: " + err.Error()})
		return
	}

	snap, ok := h.currentSnapshot(c)
	if !ok {
		return
	}

	usage := snap.Dashboard.ApplyFiltersAndAggregate(req.Selection).Usage
	monthly := snap.Dashboard.MonthlyBreakdown(req.Selection, req.Fabric)

	file, err := h.exporter.Export(usage, monthly)
	if err != nil {
		h.logger.Error("export failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "导出失败: " + err.Error()})
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", buildExportContentDisposition(monthly.Fabric, h.now()))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := file.Write(c.Writer); err != nil {
		h.logger.Error("write export failed", zap.Error(err))
	}
}

// buildExportContentDisposition 导出文件名：ASCII 回退名 + RFC 5987 编码的原始名
func buildExportContentDisposition(fabric string, now time.Time) string {
	date := now.Format("2006-01-02")
	name := fmt.Sprintf("fabric-usage-%s.xlsx", date)
	if fabric == "" {
		return fmt.Sprintf("attachment; filename=\"%s\"", name)
	}

	fallback := fmt.Sprintf("fabric-usage-%s-%s.xlsx", unsafeFilenameChars.ReplaceAllString(fabric, "_"), date)
	original := fmt.Sprintf("fabric-usage-%s-%s.xlsx", fabric, date)
	return fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", fallback, url.PathEscape(original))
}
