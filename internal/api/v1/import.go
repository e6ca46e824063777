package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GoldenArt-IT/fabric-analysis/internal/importer"
)

var uploadExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".csv":  true,
}

// Import 上传订单表并替换当前快照 (SSE 流式响应)
// 上传成功后暂停定时刷新，直到 POST /api/refresh
// POST /api/import
func (h *Handler) Import(c *gin.Context) {
	uploadedFile, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传文件"})
		return
	}

	ext := strings.ToLower(filepath.Ext(uploadedFile.Filename))
	if !uploadExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "仅支持 xlsx/csv 文件"})
		return
	}

	// 保存到上传目录
	dir := h.uploadDir
	if dir == "" {
		dir = os.TempDir()
	}
	tempFilePath := filepath.Join(dir, fmt.Sprintf("fabricboard_import_%s%s", uuid.NewString(), ext))
	if err := c.SaveUploadedFile(uploadedFile, tempFilePath); err != nil {
		h.logger.Error("save upload failed", zap.String("filename", uploadedFile.Filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存文件失败"})
		return
	}
	defer os.Remove(tempFilePath)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return
	}

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	progressChan := h.coordinator.Import(c.Request.Context(), importer.ImportOptions{
		FilePath: tempFilePath,
		Filename: filepath.Base(uploadedFile.Filename),
	})

	for event := range progressChan {
		eventData, err := json.Marshal(event)
		if err != nil {
			continue
		}

		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}
}

// Refresh 立即重新加载配置的数据源，并恢复被上传暂停的定时刷新
// POST /api/refresh
func (h *Handler) Refresh(c *gin.Context) {
	if h.source == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未配置数据源，请上传文件"})
		return
	}

	snap, err := h.coordinator.Load(c.Request.Context(), h.source, importer.TriggerManual)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "加载数据源失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap.Info())
}

// ListImports 最近的导入记录
// GET /api/imports?limit=20
func (h *Handler) ListImports(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 200 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit 必须在 1-200 之间"})
		return
	}

	logs, err := h.store.ListImportLogs(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("list import logs failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取导入记录失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": logs})
}
