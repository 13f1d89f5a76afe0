// Package main API Server 入口
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"olapp/internal/apiserver/auth"
	"olapp/internal/apiserver/server"
	"olapp/internal/apiserver/verification"
	"olapp/internal/config"
	"olapp/internal/shared/catalog"
	"olapp/internal/shared/catalog/woocommerce"
	"olapp/internal/shared/infra"
	"olapp/internal/shared/objstore"
	"olapp/internal/shared/storage"
	"olapp/internal/shared/storage/dbutil"
	"olapp/pkg/logging"
)

func main() {
	configDir := flag.String("config", "", "配置文件目录（覆盖 CONFIG_DIR）")
	flag.Parse()
	if *configDir != "" {
		config.SetConfigDir(*configDir)
	}

	// 加载配置（自动加载 .env，按 APP_ENV 选择 YAML）
	cfg := config.Load()

	log.Printf("Starting API Server... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	logger := logging.New(logging.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		Output:    "stdout",
		Component: "api",
	})

	store, err := storage.NewPersistentStoreFromDSN(dbutil.DriverType(cfg.DatabaseDriver), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.DatabaseDriver, err)
	}
	log.Printf("Connected to %s", cfg.DatabaseDriver)
	if rs, ok := store.(*storage.RepositoryStore); ok {
		rs.SetLogger(logger)
	}

	// Redis 不可用时退化为进程内缓存和事件总线
	inf := infra.New(store, cfg.RedisURL)
	defer inf.Close()
	if inf.UsingRedis() {
		log.Println("Connected to Redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	authCfg := auth.ConfigFrom(cfg.Auth)
	if !authCfg.Enabled() {
		log.Println("WARNING: JWT_SECRET not set, authentication disabled")
	}
	if err := auth.EnsureSuperUsers(ctx, store, authCfg, cfg.Auth.AdminPassword); err != nil {
		log.Printf("Failed to ensure super users: %v", err)
	}

	reg := prometheus.DefaultRegisterer

	engine := verification.NewEngine(store,
		verification.WithPublisher(inf.EventBus),
		verification.WithMetrics(verification.NewMetrics("olapp", reg)),
		verification.WithLogger(logger),
	)

	h := server.NewHandler(server.Deps{
		Store:                 store,
		EventBus:              inf.EventBus,
		Catalog:               newCatalog(cfg, inf, reg),
		Uploader:              newUploader(ctx, cfg),
		Engine:                engine,
		Auth:                  authCfg,
		RequiredConfirmations: cfg.Verification.RequiredConfirmations,
		DefaultLogoURL:        cfg.Home.DefaultLogoURL,
		Logger:                logger,
		Registerer:            reg,
	})

	doc, err := server.LoadOpenAPI(ctx)
	if err != nil {
		log.Fatalf("Invalid OpenAPI document: %v", err)
	}
	h.SetOpenAPI(doc)

	go func() {
		if err := h.EventGateway().Run(ctx); err != nil {
			log.Printf("Event gateway stopped: %v", err)
		}
	}()

	handler, err := frontHandler(cfg, h.Router())
	if err != nil {
		log.Fatalf("Failed to set up frontend handler: %v", err)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("API Server listening on :%s", cfg.APIPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}

// newCatalog WooCommerce 已配置时返回带缓存和指标的客户端，否则所有操作返回 ErrNotConfigured
func newCatalog(cfg *config.Config, inf *infra.Infrastructure, reg prometheus.Registerer) catalog.Catalog {
	if !cfg.WooCommerce.Enabled() {
		log.Println("WooCommerce not configured, product endpoints return 503")
		return catalog.Unconfigured{}
	}
	client := woocommerce.NewClient(woocommerce.Config{
		URL:            cfg.WooCommerce.URL,
		ConsumerKey:    cfg.WooCommerce.ConsumerKey,
		ConsumerSecret: cfg.WooCommerce.ConsumerSecret,
		Timeout:        cfg.WooCommerce.Timeout,
	})
	instrumented := catalog.Instrument(client, catalog.NewMetrics("olapp", reg))
	return catalog.NewCached(instrumented, inf.Cache, cfg.WooCommerce.CacheTTL)
}

// newUploader MinIO 已配置时返回对象存储客户端，否则返回 nil（上传接口 503）
func newUploader(ctx context.Context, cfg *config.Config) objstore.Uploader {
	if !cfg.MinIO.Enabled() {
		log.Println("MinIO not configured, image uploads disabled")
		return nil
	}
	client, err := objstore.NewClient(cfg.MinIO)
	if err != nil {
		log.Printf("Failed to create MinIO client, image uploads disabled: %v", err)
		return nil
	}
	ensureCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.EnsureBucket(ensureCtx); err != nil {
		log.Printf("Failed to ensure MinIO bucket, image uploads disabled: %v", err)
		return nil
	}
	log.Printf("Connected to MinIO at %s", cfg.MinIO.Endpoint)
	return client
}

// frontHandler 按配置在 API 之外挂载前端：dev server 反向代理或静态目录
func frontHandler(cfg *config.Config, api http.Handler) (http.Handler, error) {
	if cfg.APIServer.FrontendDevURL != "" {
		return newDevHandler(api, cfg.APIServer.FrontendDevURL)
	}
	if cfg.APIServer.StaticDir != "" {
		log.Printf("Serving static files from %s", cfg.APIServer.StaticDir)
		return newStaticHandler(api, os.DirFS(cfg.APIServer.StaticDir)), nil
	}
	return api, nil
}
