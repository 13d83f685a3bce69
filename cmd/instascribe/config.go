package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
	"go.uber.org/zap/zapcore"

	"github.com/theimaginaryfoundation/instascribe/dataset"
)

const envPrefix = "INSTASCRIBE_"

type Config struct {
	InputDir  string `env:"IN"`
	OutputDir string `env:"OUT"`

	// Files are positional export files, each processed as its own conversation.
	Files []string

	List        bool
	PrintSchema bool
	Select      string `env:"SELECT"`

	Self           string        `env:"SELF"`
	Metadata       string        `env:"METADATA,default=optimized"`
	GroupWindow    time.Duration `env:"GROUP_WINDOW,default=5m"`
	GapThreshold   time.Duration `env:"GAP_THRESHOLD,default=1h"`
	TimeZone       string        `env:"TZ,default=Local"`
	DateHeaders    bool          `env:"DATE_HEADERS,default=true"`
	CaptionMax     int           `env:"CAPTION_MAX,default=130"`
	TrackingParams string        `env:"TRACKING_PARAMS"`
	SpamPhrases    string        `env:"SPAM_PHRASES"`

	Overwrite bool   `env:"OVERWRITE,default=true"`
	Report    string `env:"REPORT"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=console"`
}

func (c Config) Validate() error {
	if c.PrintSchema {
		return nil
	}
	if c.InputDir == "" && len(c.Files) == 0 {
		return errors.New("missing -in (or pass export files as arguments)")
	}
	if c.List && len(c.Files) > 0 {
		return errors.New("-list needs -in, not file arguments")
	}
	if _, err := dataset.ParseMetadataStrategy(c.Metadata); err != nil {
		return err
	}
	if c.GroupWindow < 0 {
		return errors.New("group window must be >= 0")
	}
	if c.GapThreshold <= 0 {
		return errors.New("gap threshold must be > 0")
	}
	if c.GroupWindow > c.GapThreshold {
		return fmt.Errorf("-group-window %s must not exceed -gap-threshold %s", c.GroupWindow, c.GapThreshold)
	}
	if c.CaptionMax < 0 {
		return errors.New("caption max must be >= 0")
	}
	if _, err := loadLocation(c.TimeZone); err != nil {
		return err
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid -log-level: %w", err)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid -log-format %q (want console|json)", c.LogFormat)
	}
	return nil
}

// Options turns the validated config into pipeline options.
func (c Config) Options(now time.Time) (dataset.Options, error) {
	opts := dataset.DefaultOptions()

	strategy, err := dataset.ParseMetadataStrategy(c.Metadata)
	if err != nil {
		return dataset.Options{}, err
	}
	loc, err := loadLocation(c.TimeZone)
	if err != nil {
		return dataset.Options{}, err
	}

	opts.Metadata = strategy
	opts.Location = loc
	opts.GroupWindow = c.GroupWindow
	opts.GapThreshold = c.GapThreshold
	opts.SelfName = strings.TrimSpace(c.Self)
	opts.DateHeaders = c.DateHeaders
	opts.CaptionMaxRunes = c.CaptionMax
	if list := splitList(c.TrackingParams); list != nil {
		opts.TrackingParams = list
	}
	if list := splitList(c.SpamPhrases); list != nil {
		opts.SpamPhrases = list
	}
	opts.GeneratedAt = now.In(loc)
	return opts, opts.Validate()
}

// defaultConfig reads INSTASCRIBE_* variables through l; anything unset takes the tag default.
func defaultConfig(ctx context.Context, l envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &cfg, envconfig.PrefixLookuper(envPrefix, l)); err != nil {
		return Config{}, fmt.Errorf("parsing env vars: %w", err)
	}
	return cfg, nil
}

func loadLocation(name string) (*time.Location, error) {
	switch strings.TrimSpace(name) {
	case "", "Local", "local":
		return time.Local, nil
	case "UTC", "utc":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid -tz %q: %w", name, err)
	}
	return loc, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
