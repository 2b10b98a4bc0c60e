package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ASHISH26940/video-studio-api/pkg/apperr"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DatabaseURL string `validate:"required"`
	Host        string `validate:"required"`
	Port        string `validate:"required,numeric"`
	LogLevel    string `validate:"oneof=trace debug info warn error"`

	LLM    LLMConfig    `validate:"required"`
	Ark    ArkConfig    `validate:"required"`
	Speech SpeechConfig `validate:"required"`
	Media  MediaConfig  `validate:"required"`
	Limits Limits       `yaml:"limits" validate:"required"`
}

// LLMConfig selects the chat backend. Keys may be empty; the clients report a
// configuration error when they are first used without one.
type LLMConfig struct {
	Provider     string `validate:"oneof=openai gemini"`
	APIKey       string
	BaseURL      string `validate:"required,url"`
	Model        string `validate:"required"`
	GeminiAPIKey string
	GeminiModel  string `validate:"required"`
}

type ArkConfig struct {
	APIKey     string
	BaseURL    string `validate:"required,url"`
	ImageModel string `validate:"required"`
	VideoModel string `validate:"required"`
}

type SpeechConfig struct {
	AppID   string
	Token   string
	Cluster string `validate:"required"`
}

type MediaConfig struct {
	FFmpegPath  string `validate:"required"`
	FFprobePath string `validate:"required"`
	ExportDir   string `validate:"required"`
	// ProxyHosts are the domains the media proxy may fetch from, subdomains included.
	ProxyHosts []string `validate:"dive,hostname"`
}

// Limits bounds the pipeline's fan-out and polling. It can be overridden by
// the YAML file named in STUDIO_CONFIG.
type Limits struct {
	VideoConcurrency int           `yaml:"video_concurrency" validate:"min=1,max=16"`
	PollInterval     time.Duration `yaml:"poll_interval" validate:"min=100ms"`
	PollAttempts     int           `yaml:"poll_attempts" validate:"min=1,max=1000"`
	AudioDelay       time.Duration `yaml:"audio_delay" validate:"min=0"`
	ImageRPM         int           `yaml:"image_rpm" validate:"min=1"`
	SpeechRPM        int           `yaml:"tts_rpm" validate:"min=1"`
	AutoVideo        bool          `yaml:"auto_video"`
}

func DefaultLimits() Limits {
	return Limits{
		VideoConcurrency: 3,
		PollInterval:     5 * time.Second,
		PollAttempts:     60,
		AudioDelay:       time.Second,
		ImageRPM:         60,
		SpeechRPM:        30,
	}
}

type fileConfig struct {
	Limits *Limits `yaml:"limits"`
}

// LoadConfig reads .env (when present), the environment and the optional
// studio YAML file. Only a missing database is fatal to the caller.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debugf("LoadConfig: no .env file loaded: %v", err)
	}

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Host:        getEnv("HOST", "127.0.0.1"),
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LLM: LLMConfig{
			Provider:     getEnv("LLM_PROVIDER", "openai"),
			APIKey:       os.Getenv("LLM_API_KEY"),
			BaseURL:      getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
			Model:        getEnv("LLM_MODEL", "gpt-4o"),
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		},
		Ark: ArkConfig{
			APIKey:     os.Getenv("ARK_API_KEY"),
			BaseURL:    getEnv("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
			ImageModel: getEnv("ARK_IMAGE_MODEL", "doubao-seedream-4-5-251128"),
			VideoModel: getEnv("ARK_VIDEO_MODEL", "doubao-seedance-1-5-pro-250106"),
		},
		Speech: SpeechConfig{
			AppID:   os.Getenv("VOLC_TTS_APP_ID"),
			Token:   os.Getenv("VOLC_TTS_TOKEN"),
			Cluster: getEnv("VOLC_TTS_CLUSTER", "volcano_tts"),
		},
		Media: MediaConfig{
			FFmpegPath:  getEnv("FFMPEG_PATH", "ffmpeg"),
			FFprobePath: getEnv("FFPROBE_PATH", "ffprobe"),
			ExportDir:   getEnv("EXPORT_DIR", os.TempDir()),
			ProxyHosts:  splitList(getEnv("MEDIA_PROXY_HOSTS", "volces.com")),
		},
		Limits: DefaultLimits(),
	}

	if v := os.Getenv("AUTO_VIDEO"); v != "" {
		auto, err := strconv.ParseBool(v)
		if err != nil {
			return nil, apperr.New(apperr.ErrorTypeConfiguration, "AUTO_VIDEO must be a boolean", err)
		}
		cfg.Limits.AutoVideo = auto
	}

	if err := cfg.loadFile(getEnv("STUDIO_CONFIG", "studio.yaml")); err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		return nil, apperr.NewConfigurationError("DATABASE_URL is not set")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile overlays the limits section of a YAML file. A missing file is not an error.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return apperr.New(apperr.ErrorTypeConfiguration, "reading "+path, err)
	}

	fc := fileConfig{Limits: &c.Limits}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return apperr.New(apperr.ErrorTypeConfiguration, "parsing "+path, err)
	}
	log.Infof("LoadConfig: applied limits from %s", path)
	return nil
}

func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return apperr.New(apperr.ErrorTypeConfiguration, "config validation failed", err)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// RequireLLM reports whether the selected chat provider has credentials.
func (c *Config) RequireLLM() error {
	switch {
	case c.LLM.Provider == "gemini" && c.LLM.GeminiAPIKey == "":
		return apperr.NewConfigurationError("GEMINI_API_KEY is not set")
	case c.LLM.Provider != "gemini" && c.LLM.APIKey == "":
		return apperr.NewConfigurationError("LLM_API_KEY is not set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitList parses a comma separated value, dropping empty entries.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}
