package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"intents-agent/pkg/logger"
)

const (
	// EnvConfigPath 指定配置文件路径的环境变量。
	EnvConfigPath = "INTENTS_CONFIG"
	// DefaultPath 是未指定时查找的配置文件。
	DefaultPath = "configs/intents.json"
)

// Config 描述了 intents-agent 启动阶段需要加载的全部配置。
type Config struct {
	Server   ServerConfig   `json:"server"`
	Relay    RelayConfig    `json:"relay"`
	Assets   AssetsConfig   `json:"assets"`
	Intents  IntentsConfig  `json:"intents"`
	Logging  logger.Config  `json:"logging"`
	Metrics  MetricsConfig  `json:"metrics"`
	Alerting AlertingConfig `json:"alerting"`
}

// ServerConfig 控制 API 服务的监听地址等参数。
type ServerConfig struct {
	Address                  string `json:"address"`
	ReadHeaderTimeoutSeconds int    `json:"read_header_timeout_seconds"`
}

// RelayConfig 描述 solver relay 的访问方式。
type RelayConfig struct {
	URL            string `json:"url"`
	MinDeadlineMs  int    `json:"min_deadline_ms"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// Timeout 返回访问 relay 时 HTTP 客户端的超时时间。
func (r RelayConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// AssetsConfig 指向可选的资产目录 YAML 文件。
type AssetsConfig struct {
	CatalogPath string `json:"catalog_path"`
}

// IntentsConfig 描述交易载荷中的固定参数。
type IntentsConfig struct {
	Contract       string `json:"contract"`
	StorageDeposit string `json:"storage_deposit"`
}

// MetricsConfig 控制 Prometheus 指标的暴露方式。Address 为空时挂在 API 服务的 /metrics 上。
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Address string `json:"address"`
}

// AlertingConfig 列出需要推送告警的 webhook。
type AlertingConfig struct {
	Webhooks []WebhookConfig `json:"webhooks"`
}

// WebhookConfig 描述一个机器人 webhook，Kind 取值 slack 或 dingtalk。
type WebhookConfig struct {
	Kind string `json:"kind"`
	URL  string `json:"url"`
}

// Default 返回全部使用默认值的配置。
func Default() *Config {
	cfg := &Config{Metrics: MetricsConfig{Enabled: true}}
	cfg.applyDefaults("")
	return cfg
}

// Load 负责解析指定路径的 JSON 配置文件。
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("配置文件路径为空")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开配置文件失败: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	cfg := Config{Metrics: MetricsConfig{Enabled: true}}
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	cfg.applyDefaults(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault 在配置文件不存在时回退到默认配置，其余错误照常返回。
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return nil, err
}

// ResolvePath 按 显式参数 > 环境变量 > 默认路径 的顺序确定配置文件。
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}
	return DefaultPath
}

// Validate 检查无法通过默认值修正的配置错误。
func (c *Config) Validate() error {
	if c.Relay.MinDeadlineMs < 0 {
		return fmt.Errorf("relay.min_deadline_ms 不能为负数: %d", c.Relay.MinDeadlineMs)
	}
	if c.Relay.TimeoutSeconds < 0 {
		return fmt.Errorf("relay.timeout_seconds 不能为负数: %d", c.Relay.TimeoutSeconds)
	}
	seen := make(map[string]int, len(c.Alerting.Webhooks))
	for i, hook := range c.Alerting.Webhooks {
		switch hook.Kind {
		case "slack", "dingtalk":
		default:
			return fmt.Errorf("alerting.webhooks[%d] 渠道不受支持: %q", i, hook.Kind)
		}
		if hook.URL == "" {
			return fmt.Errorf("alerting.webhooks[%d] 缺少 url", i)
		}
		// 每个渠道只允许一个 webhook，告警错误按渠道聚合。
		if prev, ok := seen[hook.Kind]; ok {
			return fmt.Errorf("alerting.webhooks[%d] 与 [%d] 渠道重复: %q", i, prev, hook.Kind)
		}
		seen[hook.Kind] = i
	}
	return nil
}

// applyDefaults 在用户未填写部分字段时设置合理的默认值。
func (c *Config) applyDefaults(baseDir string) {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.ReadHeaderTimeoutSeconds <= 0 {
		c.Server.ReadHeaderTimeoutSeconds = 5
	}

	if c.Relay.URL == "" {
		c.Relay.URL = "https://solver-relay-v2.chaindefuser.com/rpc"
	}
	if c.Relay.MinDeadlineMs == 0 {
		c.Relay.MinDeadlineMs = 120000
	}
	if c.Relay.TimeoutSeconds == 0 {
		c.Relay.TimeoutSeconds = 30
	}

	if c.Intents.Contract == "" {
		c.Intents.Contract = "intents.near"
	}
	if c.Intents.StorageDeposit == "" {
		c.Intents.StorageDeposit = "0.00125"
	}

	if c.Assets.CatalogPath != "" && !filepath.IsAbs(c.Assets.CatalogPath) && baseDir != "" {
		c.Assets.CatalogPath = filepath.Join(baseDir, c.Assets.CatalogPath)
	}
	if c.Logging.Audit.Path != "" && !filepath.IsAbs(c.Logging.Audit.Path) && baseDir != "" {
		c.Logging.Audit.Path = filepath.Join(baseDir, c.Logging.Audit.Path)
	}
}
