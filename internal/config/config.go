package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/zhouzirui/persona-interview/backend/internal/service/ai"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Interview InterviewConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	aiCfg, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	interview, err := loadInterviewConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: aiCfg, Interview: interview}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	origins := splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"))

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// 支持的模型提供方。
const (
	ProviderNone   = ""
	ProviderArk    = "ark"
	ProviderOpenAI = "openai"
)

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider string

	APIKey    string
	AccessKey string
	SecretKey string
	Model     string
	BaseURL   string
	Region    string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	OpenAITimeout time.Duration

	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// arkReady 表示是否提供了 Ark 必需的密钥。
func (c AIConfig) arkReady() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

func (c AIConfig) openAIReady() bool {
	return c.OpenAIAPIKey != "" && c.OpenAIModel != ""
}

// Enabled 表示是否可以创建模型；未配置时访谈只使用脚本问题。
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderArk:
		return c.arkReady()
	case ProviderOpenAI:
		return c.openAIReady()
	default:
		return false
	}
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	switch c.Provider {
	case ProviderArk:
		return c.newArkModel(ctx)
	case ProviderOpenAI:
		return c.newOpenAIModel()
	default:
		return nil, fmt.Errorf("no AI provider configured")
	}
}

func (c AIConfig) newArkModel(ctx context.Context) (model.BaseChatModel, error) {
	if !c.arkReady() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + ARK_MODEL 或 AK/SK 组合")
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: toFloat32(c.Temperature),
		TopP:        toFloat32(c.TopP),
	}

	return ark.NewChatModel(ctx, cfg)
}

func (c AIConfig) newOpenAIModel() (model.BaseChatModel, error) {
	if !c.openAIReady() {
		return nil, fmt.Errorf("OpenAI 配置缺失，需要 OPENAI_API_KEY 与 OPENAI_MODEL")
	}

	return ai.NewOpenAIChatModel(c.openAIConfig())
}

func (c AIConfig) openAIConfig() ai.OpenAIConfig {
	return ai.OpenAIConfig{
		BaseURL:     c.OpenAIBaseURL,
		APIKey:      c.OpenAIAPIKey,
		Model:       c.OpenAIModel,
		Timeout:     c.OpenAITimeout,
		Temperature: toFloat32(c.Temperature),
		TopP:        toFloat32(c.TopP),
		MaxTokens:   c.MaxTokens,
	}
}

func toFloat32(v *float64) *float32 {
	if v == nil {
		return nil
	}
	val := float32(*v)
	return &val
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("AI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("AI_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("AI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	timeout, err := parseDurationEnv("OPENAI_TIMEOUT", 60*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	cfg := AIConfig{
		APIKey:        strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:     strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:     strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:         strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:       getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:        getEnvOrDefault("ARK_REGION", "cn-beijing"),
		OpenAIAPIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL: getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITimeout: timeout,
		Temperature:   temperature,
		TopP:          topP,
		MaxTokens:     maxTokens,
	}

	provider := strings.ToLower(strings.TrimSpace(os.Getenv("AI_PROVIDER")))
	switch provider {
	case ProviderArk, ProviderOpenAI:
		cfg.Provider = provider
	case "", "auto":
		// 未指定时按已提供的凭证推断。
		switch {
		case cfg.arkReady():
			cfg.Provider = ProviderArk
		case cfg.openAIReady():
			cfg.Provider = ProviderOpenAI
		}
	case "none", "off":
		cfg.Provider = ProviderNone
	default:
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q", provider)
	}

	return cfg, nil
}

// InterviewConfig 描述访谈计划与会话生命周期配置。
type InterviewConfig struct {
	PlanPath        string
	SessionTTL      time.Duration
	CleanupInterval time.Duration
	ClockInterval   time.Duration
}

func loadInterviewConfig() (InterviewConfig, error) {
	ttl, err := parseDurationEnv("SESSION_TTL", 2*time.Hour)
	if err != nil {
		return InterviewConfig{}, err
	}

	cleanup, err := parseDurationEnv("SESSION_CLEANUP_INTERVAL", 10*time.Minute)
	if err != nil {
		return InterviewConfig{}, err
	}

	clock, err := parseDurationEnv("CLOCK_INTERVAL", time.Second)
	if err != nil {
		return InterviewConfig{}, err
	}
	if clock <= 0 {
		return InterviewConfig{}, fmt.Errorf("CLOCK_INTERVAL must be positive, got %s", clock)
	}

	return InterviewConfig{
		PlanPath:        strings.TrimSpace(os.Getenv("INTERVIEW_PLAN_PATH")),
		SessionTTL:      ttl,
		CleanupInterval: cleanup,
		ClockInterval:   clock,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val < 0 {
		return 0, fmt.Errorf("invalid %s value %q: must not be negative", key, raw)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
