package importer

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Refresher 定时重新加载配置的数据源
type Refresher struct {
	coordinator *Coordinator
	source      Source
	interval    time.Duration
	logger      *zap.Logger
}

// NewRefresher 创建定时刷新器
func NewRefresher(coordinator *Coordinator, source Source, interval time.Duration, logger *zap.Logger) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		coordinator: coordinator,
		source:      source,
		interval:    interval,
		logger:      logger.Named("refresher"),
	}
}

// Run 每隔 interval 重新加载一次，直到 ctx 取消
// 加载失败时继续提供上一次的快照；当前快照来自上传文件时跳过
func (r *Refresher) Run(ctx context.Context) {
	if r.interval <= 0 {
		r.logger.Info("periodic refresh disabled")
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("periodic refresh started",
		zap.String("source", r.source.Name()),
		zap.Duration("interval", r.interval))

	paused := false
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("periodic refresh stopped")
			return
		case <-ticker.C:
			_, err := r.coordinator.Load(ctx, r.source, TriggerRefresh)
			switch {
			case errors.Is(err, ErrRefreshPaused):
				if !paused {
					r.logger.Info("periodic refresh paused, showing uploaded sheet until a manual refresh")
					paused = true
				}
			case err != nil:
				// 失败原因已由 Coordinator 记录
				if ctx.Err() == nil {
					r.logger.Debug("refresh failed, keeping previous snapshot", zap.Error(err))
				}
			default:
				if paused {
					r.logger.Info("periodic refresh resumed", zap.String("source", r.source.Name()))
					paused = false
				}
			}
		}
	}
}
