package importer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/GoldenArt-IT/fabric-analysis/internal/model"
	"github.com/GoldenArt-IT/fabric-analysis/internal/service/excel"
)

// ErrUnsupportedSource 无法识别的数据源格式
var ErrUnsupportedSource = errors.New("unsupported source format")

// Source 订单表数据源
type Source interface {
	Name() string
	Fetch(ctx context.Context) (*model.Table, error)
}

// FileSource 本地文件数据源，按扩展名选择 xlsx 或 csv
type FileSource struct {
	Path   string
	Label  string // 展示名，为空时取文件名
	Reader *excel.Reader
}

// Name 数据源名称
func (s *FileSource) Name() string {
	if s.Label != "" {
		return s.Label
	}
	return filepath.Base(s.Path)
}

// Fetch 读取文件
func (s *FileSource) Fetch(ctx context.Context) (*model.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".csv":
		f, err := os.Open(s.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", s.Path, err)
		}
		defer f.Close()
		return ReadCSVTable(f)
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		res, err := s.Reader.ReadFile(s.Path)
		if err != nil {
			return nil, err
		}
		return res.Table, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, filepath.Ext(s.Path))
	}
}

// HTTPSource 远程导出链接（在线表格的 csv/xlsx 导出地址）
type HTTPSource struct {
	URL     string
	Client  *http.Client
	Timeout time.Duration
	Reader  *excel.Reader
}

// Name 数据源名称
func (s *HTTPSource) Name() string {
	return s.URL
}

// Fetch 下载并解析
func (s *HTTPSource) Fetch(ctx context.Context) (*model.Table, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", s.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %d", s.URL, resp.StatusCode)
	}

	if isWorkbook(s.URL, resp.Header.Get("Content-Type")) {
		res, err := s.Reader.ReadFrom(resp.Body)
		if err != nil {
			return nil, err
		}
		return res.Table, nil
	}
	return ReadCSVTable(resp.Body)
}

// isWorkbook 根据 Content-Type 或链接判断是否为 xlsx
func isWorkbook(rawURL, contentType string) bool {
	if strings.Contains(contentType, "spreadsheetml") {
		return true
	}
	if strings.Contains(contentType, "text/csv") {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Query().Get("format"), "xlsx") {
		return true
	}
	return strings.EqualFold(filepath.Ext(u.Path), ".xlsx")
}

// NewSource 根据配置创建数据源；链接优先于本地路径
func NewSource(path, rawURL string, reader *excel.Reader) (Source, bool) {
	switch {
	case rawURL != "":
		return &HTTPSource{URL: rawURL, Timeout: 30 * time.Second, Reader: reader}, true
	case path != "":
		return &FileSource{Path: path, Reader: reader}, true
	default:
		return nil, false
	}
}
