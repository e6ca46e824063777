package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/GoldenArt-IT/fabric-analysis/internal/model"
)

// 导入状态
const (
	ImportStatusProcessing = "processing"
	ImportStatusSuccess    = "success"
	ImportStatusFailed     = "failed"
)

// ImportLog 导入日志
type ImportLog struct {
	ID           int64           `json:"id"`
	SnapshotID   string          `json:"snapshotId"`
	Source       string          `json:"source"`
	Trigger      string          `json:"trigger"` // refresh/upload/manual
	Status       string          `json:"status"`
	TotalRows    int             `json:"totalRows"`
	PairCount    int             `json:"pairCount"`
	Warnings     []model.Warning `json:"warnings"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
	StartedAt    time.Time       `json:"startedAt"`
	CompletedAt  *time.Time      `json:"completedAt,omitempty"`
}

// CreateImportLog 创建导入日志，返回 import_log_id
func (s *Store) CreateImportLog(ctx context.Context, source, trigger string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO import_logs (source, trigger_type, status)
		VALUES (?, ?, ?)
	`, source, trigger, ImportStatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("failed to create import log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get import log id: %w", err)
	}
	return id, nil
}

// CompleteImportLog 导入成功
func (s *Store) CompleteImportLog(ctx context.Context, id int64, info model.SnapshotInfo) error {
	warnings, err := json.Marshal(nonNilWarnings(info.Warnings))
	if err != nil {
		return fmt.Errorf("failed to encode warnings: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE import_logs SET
			snapshot_id = ?,
			status = ?,
			total_rows = ?,
			pair_count = ?,
			warnings = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, info.ID, ImportStatusSuccess, info.Rows, info.Pairs, string(warnings), id)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	return nil
}

// FailImportLog 导入失败
func (s *Store) FailImportLog(ctx context.Context, id int64, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE import_logs SET
			status = ?,
			error_message = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, ImportStatusFailed, msg, id)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	return nil
}

// ListImportLogs 最近的导入日志（按时间倒序）
func (s *Store) ListImportLogs(ctx context.Context, limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, snapshot_id, source, trigger_type, status, total_rows, pair_count,
		       warnings, error_message, started_at, completed_at
		FROM import_logs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query import logs failed: %w", err)
	}
	defer rows.Close()

	out := make([]ImportLog, 0)
	for rows.Next() {
		var (
			it        ImportLog
			warnings  string
			completed sql.NullTime
		)
		if err := rows.Scan(&it.ID, &it.SnapshotID, &it.Source, &it.Trigger, &it.Status,
			&it.TotalRows, &it.PairCount, &warnings, &it.ErrorMessage, &it.StartedAt, &completed); err != nil {
			return nil, fmt.Errorf("scan import log failed: %w", err)
		}
		if err := json.Unmarshal([]byte(warnings), &it.Warnings); err != nil {
			it.Warnings = nil
		}
		if completed.Valid {
			t := completed.Time
			it.CompletedAt = &t
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate import logs failed: %w", err)
	}
	return out, nil
}

func nonNilWarnings(w []model.Warning) []model.Warning {
	if w == nil {
		return []model.Warning{}
	}
	return w
}
