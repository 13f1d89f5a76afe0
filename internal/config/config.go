package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load 加载配置
//
// 步骤：解析 APP_ENV → 加载 .env.{env} → 加载 {env}.yaml → 环境变量覆盖
func Load() *Config {
	env := parseEnv(getEnv("APP_ENV", "dev"))
	loadEnvFiles(env)

	yamlCfg := loadYAMLConfig(env)
	return buildConfig(env, yamlCfg)
}

// buildConfig 合并 YAML 与环境变量，生成最终配置
func buildConfig(env Environment, yamlCfg *yamlConfigInternal) *Config {
	y := yamlCfg.YAMLConfig

	databaseURL := os.Getenv("DATABASE_URL")
	driver := detectDatabaseDriver(y.Database.Driver, databaseURL)
	if databaseURL == "" {
		y.Database.Driver = driver
		databaseURL = buildDatabaseURL(y.Database, getEnv("DB_PASSWORD", "olapp_dev_password"))
	}

	y.Redis.Password = os.Getenv("REDIS_PASSWORD")
	redisURL := getEnv("REDIS_URL", buildRedisURL(y.Redis))

	auth := y.Auth
	auth.JWTSecret = os.Getenv("JWT_SECRET")
	auth.SuperUserEmails = splitList(os.Getenv("SUPER_USER_EMAILS"))
	auth.AdminPassword = os.Getenv("ADMIN_PASSWORD")

	minioCfg := y.MinIO
	minioCfg.AccessKey = os.Getenv("MINIO_ROOT_USER")
	minioCfg.SecretKey = os.Getenv("MINIO_ROOT_PASSWORD")

	woo := y.WooCommerce
	woo.URL = getEnv("WOOCOMMERCE_URL", woo.URL)
	woo.ConsumerKey = os.Getenv("WOOCOMMERCE_CONSUMER_KEY")
	woo.ConsumerSecret = os.Getenv("WOOCOMMERCE_CONSUMER_SECRET")

	verification := y.Verification
	if v, err := strconv.Atoi(os.Getenv("REQUIRED_CONFIRMATIONS")); err == nil {
		verification.RequiredConfirmations = v
	}
	verification.validate()

	port := getEnv("PORT", y.APIServer.Port)
	apiServer := y.APIServer
	apiServer.StaticDir = getEnv("STATIC_DIR", apiServer.StaticDir)
	apiServer.FrontendDevURL = getEnv("FRONTEND_DEV_URL", apiServer.FrontendDevURL)

	return &Config{
		Env:            env,
		DatabaseDriver: driver,
		DatabaseURL:    databaseURL,
		RedisURL:       redisURL,
		APIPort:        port,
		Auth:           auth,
		MinIO:          minioCfg,
		WooCommerce:    woo,
		Verification:   verification,
		Home:           y.Home,
		Log:            y.Log,
		APIServer:      apiServer,
		ConfigFilePath: yamlCfg.loadedFrom,
	}
}

// defaultYAMLConfig 代码硬编码默认值
func defaultYAMLConfig() YAMLConfig {
	return YAMLConfig{
		APIServer: APIServerConfig{Port: "8080"},
		Database:  DatabaseConfig{Host: "localhost", Port: 5432, User: "olapp", Name: "olapp", SSLMode: "disable"},
		MinIO:     MinIOConfig{Bucket: "olapp"},
		Auth:      AuthConfig{AccessTokenTTL: "15m", RefreshTokenTTL: "168h"},
		WooCommerce: WooCommerceConfig{
			Timeout:  15 * time.Second,
			CacheTTL: 5 * time.Minute,
		},
		Verification: VerificationConfig{RequiredConfirmations: 3},
		Home:         HomeConfig{DefaultLogoURL: "/ola-logo.JPG"},
		Log:          LogConfig{Level: "info", Format: "text"},
	}
}

// loadYAMLConfig 加载 {env}.yaml，文件不存在时使用默认值
func loadYAMLConfig(env Environment) *yamlConfigInternal {
	cfg := &yamlConfigInternal{YAMLConfig: defaultYAMLConfig()}

	path := findConfigFile(env)
	if path == "" {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[config] read %s failed: %v", path, err)
		return cfg
	}
	if err := yaml.Unmarshal(data, &cfg.YAMLConfig); err != nil {
		log.Printf("[config] parse %s failed: %v", path, err)
		return cfg
	}
	cfg.loadedFrom = path
	return cfg
}
