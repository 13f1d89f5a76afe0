// Package main 在 WooCommerce 中创建默认分类树
//
// 用法:
//
//	setup-categories [-config dir] [-dry-run]
//
// 已存在的 slug 会被跳过，可重复执行。
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"olapp/internal/config"
	"olapp/internal/shared/catalog/woocommerce"
	"olapp/pkg/logging"
)

func main() {
	configDir := flag.String("config", "", "配置文件目录（覆盖 CONFIG_DIR）")
	dryRun := flag.Bool("dry-run", false, "只打印将要创建的分类")
	flag.Parse()
	if *configDir != "" {
		config.SetConfigDir(*configDir)
	}

	cfg := config.Load()
	if !cfg.WooCommerce.Enabled() {
		log.Fatal("WooCommerce not configured: set WOOCOMMERCE_URL, WOOCOMMERCE_CONSUMER_KEY and WOOCOMMERCE_CONSUMER_SECRET")
	}

	logger := logging.New(logging.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		Output:    "stdout",
		Component: "setup-categories",
	})

	client := woocommerce.NewClient(woocommerce.Config{
		URL:            cfg.WooCommerce.URL,
		ConsumerKey:    cfg.WooCommerce.ConsumerKey,
		ConsumerSecret: cfg.WooCommerce.ConsumerSecret,
		Timeout:        cfg.WooCommerce.Timeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res := setupCategories(ctx, client, defaultCategories, logger, *dryRun)

	fmt.Printf("Created: %d\n", len(res.Created))
	fmt.Printf("Existing: %d\n", len(res.Existing))
	fmt.Printf("Errors: %d\n", len(res.Errors))
	if len(res.Errors) > 0 {
		slugs := make([]string, 0, len(res.Errors))
		for slug := range res.Errors {
			slugs = append(slugs, slug)
		}
		sort.Strings(slugs)
		for _, slug := range slugs {
			fmt.Printf("  - %s: %v\n", slug, res.Errors[slug])
		}
		os.Exit(1)
	}
}
