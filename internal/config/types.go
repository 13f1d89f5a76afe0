// Package config 统一配置管理
//
// 配置加载优先级（高→低）：
//  1. 环境变量（通过 .env 文件或 shell/systemd 注入）
//  2. YAML 配置文件（{env}.yaml，如 dev.yaml、test.yaml、prod.yaml）
//  3. 代码硬编码默认值
//
// 凭据单一数据源：
//
//	密码/密钥只存在 .env 文件中（YAML 中不存储任何密码）。
//	.env 文件同时被 Docker Compose（--env-file）和 Go 应用（godotenv）共用。
//
// 配置路径确定策略：
//  1. --config 命令行参数（显式路径）
//  2. CONFIG_DIR 环境变量
//  3. 按 APP_ENV 选择默认路径：
//     - prod → /etc/olapp/
//     - dev/test → ./configs/
package config

import "time"

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

// YAMLConfig 统一 YAML 配置文件结构
type YAMLConfig struct {
	APIServer    APIServerConfig    `yaml:"api_server"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	MinIO        MinIOConfig        `yaml:"minio"`
	Auth         AuthConfig         `yaml:"auth"`
	WooCommerce  WooCommerceConfig  `yaml:"woocommerce"`
	Verification VerificationConfig `yaml:"verification"`
	Home         HomeConfig         `yaml:"home"`
	Log          LogConfig          `yaml:"log"`
}

// AuthConfig 认证配置
// 注意：JWTSecret/SuperUserEmails/AdminPassword 只从环境变量读取，不存储在 YAML 中
type AuthConfig struct {
	JWTSecret       string   `yaml:"-"`                 // JWT_SECRET
	AccessTokenTTL  string   `yaml:"access_token_ttl"`  // 例如 "15m"
	RefreshTokenTTL string   `yaml:"refresh_token_ttl"` // 例如 "168h"
	SuperUserEmails []string `yaml:"-"`                 // SUPER_USER_EMAILS（逗号分隔）
	AdminPassword   string   `yaml:"-"`                 // ADMIN_PASSWORD（首个超级用户的初始密码）
}

// APIServerConfig API Server 配置
type APIServerConfig struct {
	Port string `yaml:"port"`
	URL  string `yaml:"url"`

	// StaticDir 前端构建产物和公共资源（默认 logo 等）所在目录，为空时不提供静态文件
	StaticDir string `yaml:"static_dir"`
	// FrontendDevURL 开发模式下非 API 请求反向代理到的前端 dev server
	FrontendDevURL string `yaml:"frontend_dev_url"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "postgres" 或 "sqlite"
	Path     string `yaml:"path"`   // SQLite 文件路径
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"-"` // DB_PASSWORD
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       int    `yaml:"db"`
	Password string `yaml:"-"`   // REDIS_PASSWORD
	URL      string `yaml:"url"` // 直接指定 URL（优先于 host/port/db）
}

// MinIOConfig MinIO 对象存储配置
type MinIOConfig struct {
	Endpoint      string `yaml:"endpoint"` // 例如 localhost:9000
	AccessKey     string `yaml:"-"`        // MINIO_ROOT_USER
	SecretKey     string `yaml:"-"`        // MINIO_ROOT_PASSWORD
	UseSSL        bool   `yaml:"use_ssl"`
	Bucket        string `yaml:"bucket"`
	PublicBaseURL string `yaml:"public_base_url"` // 对外访问前缀，为空时按 endpoint/bucket 拼接
}

// Enabled 是否配置了对象存储
func (c MinIOConfig) Enabled() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != ""
}

// WooCommerceConfig 商品目录后端配置
type WooCommerceConfig struct {
	URL            string        `yaml:"url"`
	ConsumerKey    string        `yaml:"-"` // WOOCOMMERCE_CONSUMER_KEY
	ConsumerSecret string        `yaml:"-"` // WOOCOMMERCE_CONSUMER_SECRET
	Timeout        time.Duration `yaml:"timeout"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
}

// Enabled 是否配置了商品目录
func (c WooCommerceConfig) Enabled() bool {
	return c.URL != "" && c.ConsumerKey != "" && c.ConsumerSecret != ""
}

// VerificationConfig 商家认证配置
type VerificationConfig struct {
	RequiredConfirmations int `yaml:"required_confirmations"`
}

// HomeConfig 首页配置
type HomeConfig struct {
	DefaultLogoURL string `yaml:"default_logo_url"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env            Environment
	DatabaseDriver string // "postgres" 或 "sqlite"
	DatabaseURL    string
	RedisURL       string
	APIPort        string
	Auth           AuthConfig
	MinIO          MinIOConfig
	WooCommerce    WooCommerceConfig
	Verification   VerificationConfig
	Home           HomeConfig
	Log            LogConfig
	APIServer      APIServerConfig
	ConfigFilePath string // 实际加载的配置文件路径
}

// yamlConfigInternal 内部包装，记录配置文件来源
type yamlConfigInternal struct {
	YAMLConfig `yaml:",inline"`
	loadedFrom string
}
