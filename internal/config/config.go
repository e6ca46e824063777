package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/GoldenArt-IT/fabric-analysis/internal/model"
)

// AppConfig 应用配置
type AppConfig struct {
	Server  ServerConfig  `toml:"server"`
	Data    DataConfig    `toml:"data"`
	Source  SourceConfig  `toml:"source"`
	Columns ColumnsConfig `toml:"columns"`
	Auth    AuthConfig    `toml:"auth"`
	Log     LogConfig     `toml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port        int  `toml:"port"`
	DevMode     bool `toml:"dev_mode"`
	OpenBrowser bool `toml:"open_browser"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// SourceConfig 订单数据源
// path 与 url 二选一，url 优先（例如已发布表格的 CSV 导出地址）
type SourceConfig struct {
	Path           string `toml:"path"`
	URL            string `toml:"url"`
	Sheet          string `toml:"sheet"`
	RefreshSeconds int    `toml:"refresh_seconds"`
}

// ColumnsConfig 列名配置
type ColumnsConfig struct {
	OrderDate    string             `toml:"order_date"`
	DeliveryDate string             `toml:"delivery_date"`
	Trip         string             `toml:"trip"`
	FabricMarker string             `toml:"fabric_marker"`
	QtyMarker    string             `toml:"qty_marker"`
	Pairs        []model.ColumnPair `toml:"pairs"` // 显式声明的 面料列/数量列 配对
}

// AuthConfig 预置账号（为空时不启用校验）
type AuthConfig struct {
	Accounts map[string]string `toml:"accounts"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	PortSpecified bool
}

// DefaultSheet 默认订单表名
const DefaultSheet = "DATA SALES CO & FABRIC"

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:        20262,
			DevMode:     false,
			OpenBrowser: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Source: SourceConfig{
			Sheet:          DefaultSheet,
			RefreshSeconds: 5,
		},
		Columns: ColumnsConfig{
			OrderDate:    "TIMESTAMP",
			DeliveryDate: "DELIVERY PLAN DATE",
			Trip:         "TRIP",
			FabricMarker: "FABRIC",
			QtyMarker:    "QTY ",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// RefreshInterval 数据源刷新间隔，<=0 表示不自动刷新
func (c *AppConfig) RefreshInterval() time.Duration {
	if c.Source.RefreshSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Source.RefreshSeconds) * time.Second
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// DefaultConfigPath 默认配置文件路径（可执行文件同目录下的 config.toml）
func DefaultConfigPath() string {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return filepath.Join(exeDir, "config.toml")
}

// LoadConfigWithInfo 从 config.toml 加载配置并返回元信息
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	return LoadConfigFile(DefaultConfigPath())
}

// LoadConfigFile 从指定路径加载配置；文件不存在时返回默认配置
func LoadConfigFile(configPath string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: configPath}
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(config)
			return config, info, nil
		}
		return nil, info, err
	}

	info.PortSpecified = isPortSpecifiedInToml(data)

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, info, err
	}

	applyEnvOverrides(config)

	return config, info, nil
}

// applyEnvOverrides 环境变量覆盖（用于容器 / 本地运行）
func applyEnvOverrides(config *AppConfig) {
	if v := os.Getenv("FABRICBOARD_SOURCE_PATH"); v != "" {
		config.Source.Path = v
	}
	if v := os.Getenv("FABRICBOARD_SOURCE_URL"); v != "" {
		config.Source.URL = v
	}
}

// EnsureDataDir 确保数据目录存在
// 相对路径按可执行文件所在目录解析
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := config.Data.DataDir
	if !filepath.IsAbs(dataDir) {
		exeDir, err := GetExeDir()
		if err != nil {
			exeDir = "."
		}
		dataDir = filepath.Join(exeDir, dataDir)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	// 上传暂存目录
	if err := os.MkdirAll(UploadDir(dataDir), 0755); err != nil {
		return "", err
	}

	return dataDir, nil
}

// UploadDir 上传文件暂存目录
func UploadDir(dataDir string) string {
	return filepath.Join(dataDir, "uploads")
}

// DatabasePath SQLite 数据库路径
func DatabasePath(dataDir string) string {
	return filepath.Join(dataDir, "fabricboard.db")
}
