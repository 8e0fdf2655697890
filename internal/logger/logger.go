// Package logger configures the process-wide slog logger. Development builds
// get a plain text handler; everything else logs JSON through zap.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	slogzap "github.com/samber/slog-zap/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Env string

const (
	EnvDev   Env = "dev"
	EnvStage Env = "stage"
	EnvProd  Env = "prod"
)

type Config struct {
	Service    string
	Env        Env
	Version    string
	InstanceID string
	Debug      bool
	AddSource  bool

	// Zap sampling per second; zero means 100 then every 10th.
	SampleInitial    int
	SampleThereafter int

	// Output defaults to os.Stdout.
	Output io.Writer
}

// ParseEnv maps APP_ENV spellings onto Env.
func ParseEnv(raw string) Env {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "prod", "production":
		return EnvProd
	case "stage", "staging":
		return EnvStage
	default:
		return EnvDev
	}
}

// New builds a logger without installing it as the default.
func New(cfg Config) *slog.Logger {
	if cfg.Env == "" {
		cfg.Env = ParseEnv(os.Getenv("APP_ENV"))
	}
	if cfg.Service == "" {
		cfg.Service = "meetroom"
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.InstanceID == "" {
		hn, _ := os.Hostname()
		cfg.InstanceID = hn + "-" + uuid.New().String()[:8]
	}

	var h slog.Handler
	if cfg.Env == EnvDev {
		h = newTextHandler(cfg)
	} else {
		h = newZapHandler(cfg)
	}

	return slog.New(h.WithAttrs([]slog.Attr{
		slog.String("service", cfg.Service),
		slog.String("env", string(cfg.Env)),
		slog.String("version", cfg.Version),
		slog.String("instance_id", cfg.InstanceID),
	}))
}

// Init builds a logger and installs it with slog.SetDefault.
func Init(cfg Config) *slog.Logger {
	l := New(cfg)
	slog.SetDefault(l)
	return l
}

func level(cfg Config) slog.Level {
	if cfg.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func newTextHandler(cfg Config) slog.Handler {
	return slog.NewTextHandler(cfg.Output, &slog.HandlerOptions{
		Level:     level(cfg),
		AddSource: cfg.AddSource,
	})
}

func newZapHandler(cfg Config) slog.Handler {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	if cfg.AddSource {
		encCfg.EncodeCaller = zapcore.ShortCallerEncoder
	}

	zl := zapcore.InfoLevel
	if cfg.Debug {
		zl = zapcore.DebugLevel
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(cfg.Output), zl)

	initial := cfg.SampleInitial
	if initial <= 0 {
		initial = 100
	}
	thereafter := cfg.SampleThereafter
	if thereafter <= 0 {
		thereafter = 10
	}
	core = zapcore.NewSamplerWithOptions(core, time.Second, initial, thereafter)

	z := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	return slogzap.Option{Level: level(cfg), Logger: z}.NewZapHandler()
}
