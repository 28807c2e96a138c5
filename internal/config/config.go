package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/John-Robertt/tipster/internal/domain"
)

const (
	// ErrCodeNotFound 表示显式指定的配置文件（--config / $TIPSTER_CONFIG）不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingAPIKey 表示需要调用模型 API，但环境变量与配置文件都没有提供 key。
	ErrCodeMissingAPIKey = "config_missing_api_key"
)

const (
	// FileName 是配置文件的固定文件名。
	FileName = "tipster.json"
	// AppDirName 是 UserConfigDir 下的应用目录名。
	AppDirName = "tipster"

	DefaultBaseURL        = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultModel          = "gemini-2.5-flash"
	DefaultConcurrency    = 3
	MaxConcurrency        = 16
	DefaultRequestTimeout = 120 * time.Second
	DefaultLogLevel       = "info"
)

// APIKeyEnvVars 按优先级排列；第一个非空值生效，全部为空时才回落到配置文件。
var APIKeyEnvVars = []string{"TIPSTER_API_KEY", "GEMINI_API_KEY", "API_KEY"}

// ConfigEnvVar 指定配置文件路径的环境变量。
const ConfigEnvVar = "TIPSTER_CONFIG"

// CLIArgs 是 CLI 暴露的可覆盖项，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --concurrency=3 必须能覆盖 config.concurrency=8。
type CLIArgs struct {
	ConfigPath string
	DataDir    string

	Strategy    string
	StrategySet bool

	Market    string
	MarketSet bool

	Model    string
	ModelSet bool

	Concurrency    int
	ConcurrencySet bool

	Verbose bool
}

// FileConfig 对应 tipster.json 的解析结构。
type FileConfig struct {
	DataDir             string       `json:"data_dir"`
	APIKey              string       `json:"api_key"`
	BaseURL             string       `json:"base_url"`
	Model               string       `json:"model"`
	VisionModel         string       `json:"vision_model"`
	Strategy            string       `json:"strategy"`
	Market              string       `json:"market"`
	Concurrency         int          `json:"concurrency"`
	RequestTimeoutSec   int          `json:"request_timeout_sec"`
	StructuredOutput    *bool        `json:"structured_output"`
	Proxy               *ProxyConfig `json:"proxy"`
	ResolveSourceTitles bool         `json:"resolve_source_titles"`
	LogLevel            string       `json:"log_level"`
}

type ProxyConfig struct {
	URL string `json:"url"`
}

// EffectiveConfig 是合并并规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// ConfigFile 是实际读取的配置文件；未读取任何文件时为空。
	ConfigFile string
	DataDir    string

	APIKey      string
	BaseURL     string
	Model       string
	VisionModel string

	Strategy domain.Strategy
	Market   string

	Concurrency         int
	RequestTimeout      time.Duration
	StructuredOutput    bool
	ProxyURL            string
	ResolveSourceTitles bool

	LogLevel slog.Level
}

// RequireAPIKey 只由需要调用模型 API 的命令检查。
func (e EffectiveConfig) RequireAPIKey() error {
	if strings.TrimSpace(e.APIKey) == "" {
		return &Error{
			Code: ErrCodeMissingAPIKey,
			Path: e.ConfigFile,
			Err:  fmt.Errorf("请设置 %s，或在配置文件中填写 api_key", strings.Join(APIKeyEnvVars, " / ")),
		}
	}
	return nil
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingAPIKey:
		if e.Err != nil {
			return fmt.Sprintf("%s：缺少 API key（%v）", e.Code, e.Err)
		}
		return fmt.Sprintf("%s：缺少 API key", e.Code)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Env 抽象出进程环境，便于测试注入。
type Env struct {
	Getenv func(string) string
	// ConfigHome 通常是 os.UserConfigDir()；为空表示不可用。
	ConfigHome string
	// Cwd 用于解析 CLI 传入的相对路径。
	Cwd string
}

// OSEnv 返回真实进程环境。
func OSEnv() Env {
	home, _ := os.UserConfigDir()
	cwd, _ := os.Getwd()
	return Env{Getenv: os.Getenv, ConfigHome: home, Cwd: cwd}
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数、环境变量合并为最终配置。
//
// 发现规则（固定）：
// 1) --config：必须存在
// 2) $TIPSTER_CONFIG：必须存在
// 3) <ConfigHome>/tipster/tipster.json：可选
//
// 覆盖优先级（固定）：
// - strategy/market/model/concurrency：CLI > config > 默认
// - data_dir：CLI > config（相对配置文件所在目录）> <ConfigHome>/tipster
// - api_key：$TIPSTER_API_KEY > $GEMINI_API_KEY > $API_KEY > config
// - 日志级别：--verbose（debug）> config > info
func LoadEffective(cli CLIArgs, env Env) (EffectiveConfig, error) {
	getenv := env.Getenv
	if getenv == nil {
		getenv = func(string) string { return "" }
	}

	cfgPath, required := discover(cli, env, getenv)
	var fc FileConfig
	if cfgPath != "" {
		var exists bool
		var err error
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists {
			if required {
				return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
			}
			cfgPath = ""
		}
	}
	return merge(cli, env, getenv, fc, cfgPath)
}

func discover(cli CLIArgs, env Env, getenv func(string) string) (path string, required bool) {
	if p := strings.TrimSpace(cli.ConfigPath); p != "" {
		return absCleanFrom(env.Cwd, p), true
	}
	if p := strings.TrimSpace(getenv(ConfigEnvVar)); p != "" {
		return absCleanFrom(env.Cwd, p), true
	}
	if strings.TrimSpace(env.ConfigHome) != "" {
		return filepath.Join(env.ConfigHome, AppDirName, FileName), false
	}
	return "", false
}

func merge(cli CLIArgs, env Env, getenv func(string) string, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	invalid := func(err error) error {
		return &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	// data_dir：CLI > config > 默认
	dataDir := ""
	switch {
	case strings.TrimSpace(cli.DataDir) != "":
		dataDir = absCleanFrom(env.Cwd, cli.DataDir)
	case strings.TrimSpace(fc.DataDir) != "":
		dataDir = absCleanFrom(filepath.Dir(cfgPath), fc.DataDir)
	case strings.TrimSpace(env.ConfigHome) != "":
		dataDir = filepath.Join(env.ConfigHome, AppDirName)
	default:
		dataDir = absCleanFrom(env.Cwd, ".tipster")
	}

	apiKey := strings.TrimSpace(fc.APIKey)
	for _, name := range APIKeyEnvVars {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			apiKey = v
			break
		}
	}

	baseURL := strings.TrimSpace(fc.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return EffectiveConfig{}, invalid(fmt.Errorf("base_url 无效：%q", baseURL))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return EffectiveConfig{}, invalid(fmt.Errorf("base_url 必须是 http/https：%q", baseURL))
	}

	model := strings.TrimSpace(fc.Model)
	if cli.ModelSet {
		model = strings.TrimSpace(cli.Model)
	}
	if model == "" {
		model = DefaultModel
	}
	visionModel := strings.TrimSpace(fc.VisionModel)
	if visionModel == "" {
		visionModel = model
	}

	// strategy：CLI > config > 默认
	rawStrategy := fc.Strategy
	if cli.StrategySet {
		rawStrategy = cli.Strategy
	}
	strategy := domain.DefaultStrategy
	if strings.TrimSpace(rawStrategy) != "" {
		s, err := domain.ParseStrategy(rawStrategy)
		if err != nil {
			return EffectiveConfig{}, invalid(err)
		}
		strategy = s
	}

	rawMarket := fc.Market
	if cli.MarketSet {
		rawMarket = cli.Market
	}
	market := ""
	if strings.TrimSpace(rawMarket) != "" {
		m, err := domain.ParseMarket(rawMarket)
		if err != nil {
			return EffectiveConfig{}, invalid(err)
		}
		market = m
	}

	concurrency := fc.Concurrency
	if cli.ConcurrencySet {
		concurrency = cli.Concurrency
	}
	if concurrency == 0 {
		concurrency = DefaultConcurrency
	}
	// 范围 [1, 16]；超出截断。
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > MaxConcurrency {
		concurrency = MaxConcurrency
	}

	timeout := DefaultRequestTimeout
	if fc.RequestTimeoutSec < 0 {
		return EffectiveConfig{}, invalid(fmt.Errorf("request_timeout_sec 不能为负：%d", fc.RequestTimeoutSec))
	}
	if fc.RequestTimeoutSec > 0 {
		timeout = time.Duration(fc.RequestTimeoutSec) * time.Second
	}

	structured := true
	if fc.StructuredOutput != nil {
		structured = *fc.StructuredOutput
	}

	proxyURL := ""
	if fc.Proxy != nil {
		proxyURL = strings.TrimSpace(fc.Proxy.URL)
	}
	if proxyURL != "" {
		if _, err := url.Parse(proxyURL); err != nil {
			return EffectiveConfig{}, invalid(fmt.Errorf("proxy.url 无效：%w", err))
		}
	}

	levelName := strings.TrimSpace(fc.LogLevel)
	if cli.Verbose {
		levelName = "debug"
	}
	level, err := parseLevel(levelName)
	if err != nil {
		return EffectiveConfig{}, invalid(err)
	}

	return EffectiveConfig{
		ConfigFile:          cfgPath,
		DataDir:             dataDir,
		APIKey:              apiKey,
		BaseURL:             baseURL,
		Model:               model,
		VisionModel:         visionModel,
		Strategy:            strategy,
		Market:              market,
		Concurrency:         concurrency,
		RequestTimeout:      timeout,
		StructuredOutput:    structured,
		ProxyURL:            proxyURL,
		ResolveSourceTitles: fc.ResolveSourceTitles,
		LogLevel:            level,
	}, nil
}

func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		s = DefaultLogLevel
	}
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log_level 只能是 debug/info/warn/error，实际是 %q", s)
	}
	return lv, nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
