package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/GoldenArt-IT/fabric-analysis/internal/model"
)

// ErrConfigNotFound 配置项不存在
var ErrConfigNotFound = errors.New("config key not found")

const keyColumnPairs = "column_pairs"

// GetConfig 获取配置项
func (s *Store) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, key)
		}
		return "", err
	}
	return value, nil
}

// SetConfig 设置配置项
func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = CURRENT_TIMESTAMP
	`, key, value, value)
	return err
}

// DeleteConfig 删除配置项
func (s *Store) DeleteConfig(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM config WHERE key = ?", key)
	return err
}

// GetColumnPairs 读取保存的列配对声明
// 未保存时返回 (nil, false, nil)，调用方应回退到配置文件
func (s *Store) GetColumnPairs(ctx context.Context) ([]model.ColumnPair, bool, error) {
	raw, err := s.GetConfig(ctx, keyColumnPairs)
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var pairs []model.ColumnPair
	if err := json.Unmarshal([]byte(raw), &pairs); err != nil {
		return nil, false, fmt.Errorf("decode column pairs: %w", err)
	}
	return pairs, true, nil
}

// SetColumnPairs 保存列配对声明；传入空列表表示清除（恢复为配置文件/自动推断）
func (s *Store) SetColumnPairs(ctx context.Context, pairs []model.ColumnPair) error {
	if len(pairs) == 0 {
		return s.DeleteConfig(ctx, keyColumnPairs)
	}
	data, err := json.Marshal(pairs)
	if err != nil {
		return fmt.Errorf("encode column pairs: %w", err)
	}
	return s.SetConfig(ctx, keyColumnPairs, string(data))
}
