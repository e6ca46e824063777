package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	v1 "github.com/GoldenArt-IT/fabric-analysis/internal/api/v1"
	"github.com/GoldenArt-IT/fabric-analysis/internal/calculator"
	"github.com/GoldenArt-IT/fabric-analysis/internal/config"
	"github.com/GoldenArt-IT/fabric-analysis/internal/importer"
	"github.com/GoldenArt-IT/fabric-analysis/internal/parser"
	"github.com/GoldenArt-IT/fabric-analysis/internal/server"
	"github.com/GoldenArt-IT/fabric-analysis/internal/service/snapshot"
	"github.com/GoldenArt-IT/fabric-analysis/internal/store"
	"github.com/GoldenArt-IT/fabric-analysis/internal/util"
)

var (
	configPath = flag.String("config", "", "配置文件路径 (默认为可执行文件目录下的 config.toml)")
	port       = flag.Int("port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	devMode    = flag.Bool("dev", false, "开发模式")
	dataDir    = flag.String("dataDir", "", "数据目录 (覆盖配置文件)")
	source     = flag.String("source", "", "订单表路径或导出链接 (覆盖配置文件)")
)

func main() {
	flag.Parse()

	fmt.Println("==========================================")
	fmt.Println("  Fabric Board - 面料用量看板")
	fmt.Println("==========================================")

	// 加载配置
	var (
		cfg  *config.AppConfig
		info config.LoadConfigInfo
		err  error
	)
	if *configPath == "" {
		cfg, info, err = config.LoadConfigWithInfo()
	} else {
		cfg, info, err = config.LoadConfigFile(*configPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败，使用默认配置: %v\n", err)
		cfg = config.DefaultConfig()
		info.PortSpecified = false
	}

	// 命令行参数覆盖配置
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}
	if *source != "" {
		applySourceFlag(cfg, *source)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, info, logger); err != nil {
		logger.Fatal("fabricboard exited", zap.Error(err))
	}
}

func run(cfg *config.AppConfig, info config.LoadConfigInfo, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 确保数据目录存在
	dir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	logger.Info("config loaded", zap.String("config", info.Path), zap.String("data_dir", dir))

	st, err := store.New(config.DatabasePath(dir))
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer st.Close()

	coord := importer.NewCoordinator(st, snapshot.NewMemoryStore(), importerSettings(cfg), logger)

	refresherDone := make(chan struct{})
	src, hasSource := importer.NewSource(cfg.Source.Path, cfg.Source.URL, coord.Reader())
	if hasSource {
		if _, err := coord.Load(ctx, src, importer.TriggerStartup); err != nil {
			logger.Warn("initial load failed, waiting for refresh or upload", zap.Error(err))
		}
		go func() {
			defer close(refresherDone)
			importer.NewRefresher(coord, src, cfg.RefreshInterval(), logger).Run(ctx)
		}()
	} else {
		close(refresherDone)
		logger.Info("no source configured, upload an order sheet via /api/import")
	}

	handler := v1.NewHandler(v1.Options{
		Coordinator: coord,
		Store:       st,
		Source:      src,
		StaleAfter:  2 * cfg.RefreshInterval(),
		UploadDir:   config.UploadDir(dir),
		Logger:      logger,
	})
	srv := server.NewServer(cfg, handler, logger)

	// 未显式配置端口且默认端口被占用时顺延
	if !info.PortSpecified {
		if p, err := util.FindAvailablePort("", cfg.Server.Port, 20); err == nil {
			cfg.Server.Port = p
		}
	}
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	url := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(addr)
	}()

	if cfg.Server.OpenBrowser && !cfg.Server.DevMode {
		if err := util.OpenBrowser(url); err != nil {
			logger.Info("open browser failed, visit manually", zap.String("url", url))
		}
	}
	fmt.Printf("服务已启动: %s  (按 Ctrl+C 停止)\n", url)

	select {
	case err := <-errCh:
		stop()
		<-refresherDone
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	<-refresherDone
	return err
}

// importerSettings 由配置构造列设置
func importerSettings(cfg *config.AppConfig) importer.Settings {
	dims := calculator.DefaultDimensions()
	if cfg.Columns.OrderDate != "" {
		dims.OrderDate = cfg.Columns.OrderDate
	}
	if cfg.Columns.DeliveryDate != "" {
		dims.DeliveryDate = cfg.Columns.DeliveryDate
	}
	if cfg.Columns.Trip != "" {
		dims.Trip = cfg.Columns.Trip
	}

	return importer.Settings{
		Dimensions: dims,
		Markers: parser.Markers{
			Fabric: cfg.Columns.FabricMarker,
			Qty:    cfg.Columns.QtyMarker,
		},
		Pairs: cfg.Columns.Pairs,
		Sheet: cfg.Source.Sheet,
	}
}

// applySourceFlag -source 既可以是本地路径也可以是链接
func applySourceFlag(cfg *config.AppConfig, value string) {
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		cfg.Source.URL = value
		cfg.Source.Path = ""
		return
	}
	cfg.Source.Path = value
	cfg.Source.URL = ""
}
