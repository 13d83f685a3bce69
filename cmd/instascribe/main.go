package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sethvargo/go-envconfig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/theimaginaryfoundation/instascribe/dataset"
	"github.com/theimaginaryfoundation/instascribe/dataset/fileutils"
	"github.com/theimaginaryfoundation/instascribe/dataset/schema"
)

// errBatchFailed means at least one conversation failed; the details were already reported.
var errBatchFailed = errors.New("one or more conversations failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := parseFlags(ctx, flag.CommandLine, os.Args[1:], envconfig.OsLookuper())
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	if cfg.PrintSchema {
		if err := printSchema(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		return
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, cfg, os.Stdin, os.Stdout, logger); err != nil {
		if !errors.Is(err, errBatchFailed) {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, in io.Reader, out io.Writer, logger *zap.Logger) error {
	convs, sel, err := gatherConversations(cfg, in, out, logger)
	if err != nil {
		return err
	}
	if len(convs) == 0 {
		return fmt.Errorf("no conversations found under %s", cfg.InputDir)
	}

	if cfg.List {
		printConversations(out, convs)
		return nil
	}

	selected, err := sel.Select(convs)
	if err != nil {
		return err
	}

	opts, err := cfg.Options(time.Now())
	if err != nil {
		return err
	}

	batch, batchErr := dataset.ProcessBatch(ctx, selected, opts, dataset.WriteOptions{
		OutputDir: cfg.OutputDir,
		Overwrite: cfg.Overwrite,
	}, logger)
	if batch.RunID == "" {
		return batchErr
	}

	printResults(out, batch)

	if cfg.Report != "" {
		if err := fileutils.WriteJSONFileAtomic(cfg.Report, batch, true); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	if batchErr != nil {
		return errBatchFailed
	}
	return nil
}

func gatherConversations(cfg Config, in io.Reader, out io.Writer, logger *zap.Logger) ([]dataset.Conversation, Selector, error) {
	if len(cfg.Files) > 0 {
		convs := make([]dataset.Conversation, 0, len(cfg.Files))
		for _, f := range cfg.Files {
			convs = append(convs, dataset.ConversationFromFile(f))
		}
		return convs, allSelector{}, nil
	}

	convs, err := dataset.FindConversations(cfg.InputDir, logger)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Select != "" {
		return convs, listSelector{spec: cfg.Select}, nil
	}
	return convs, promptSelector{in: in, out: out}, nil
}

func printResults(w io.Writer, batch dataset.BatchResult) {
	fmt.Fprintln(w)
	for _, r := range batch.Results {
		name := r.Title
		if name == "" {
			name = r.FolderID
		}
		if r.OK() {
			fmt.Fprintf(w, "✓ %s -> %s (%d messages, %d skipped, %d dropped)\n", name, r.OutputPath, r.Written, r.Skipped, r.Dropped)
			continue
		}
		fmt.Fprintf(w, "✗ %s: %s\n", name, r.Error)
	}
	fmt.Fprintf(w, "run_id=%s succeeded=%d failed=%d interrupted=%t\n", batch.RunID, batch.Succeeded, batch.Failed, batch.Interrupted)
}

func printSchema(w io.Writer) error {
	b, err := schema.MarshalIndent(schema.Generate[dataset.ExportFile](
		"Instagram DM export",
		"One message_N.json file from an Instagram data download (inbox/<thread>/message_N.json).",
	))
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	_, err = w.Write(b)
	return err
}

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid -log-level: %w", err)
	}

	var zc zap.Config
	switch format {
	case "json":
		zc = zap.NewProductionConfig()
	default:
		zc = zap.NewDevelopmentConfig()
		zc.DisableStacktrace = true
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

func parseFlags(ctx context.Context, fs *flag.FlagSet, args []string, env envconfig.Lookuper) (Config, error) {
	cfg, err := defaultConfig(ctx, env)
	if err != nil {
		return Config{}, err
	}

	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.InputDir, "in", cfg.InputDir, "Instagram export root (or messages/inbox) to search for conversations")
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Directory for transcripts (default: next to each conversation)")
	fs.BoolVar(&cfg.List, "list", false, "List conversations found under -in and exit")
	fs.StringVar(&cfg.Select, "select", cfg.Select, "Conversations to process: all, or numbers from -list like 1,3 (empty prompts)")
	fs.StringVar(&cfg.Self, "self", cfg.Self, "Your display name; tags groups as [YOU]/[CONTACT]")
	fs.StringVar(&cfg.Metadata, "metadata", cfg.Metadata, "Shared-link metadata: full|optimized|minimal|none")
	fs.DurationVar(&cfg.GroupWindow, "group-window", cfg.GroupWindow, "Same-sender messages closer than this are grouped")
	fs.DurationVar(&cfg.GapThreshold, "gap-threshold", cfg.GapThreshold, "Pauses longer than this get a TIME GAP marker")
	fs.StringVar(&cfg.TimeZone, "tz", cfg.TimeZone, "Time zone for clock times and date headers (IANA name, Local or UTC)")
	fs.BoolVar(&cfg.DateHeaders, "date-headers", cfg.DateHeaders, "Emit a DATE header whenever the day changes")
	fs.IntVar(&cfg.CaptionMax, "caption-max", cfg.CaptionMax, "Max runes of a caption digest in optimized mode (0 = no limit)")
	fs.StringVar(&cfg.TrackingParams, "tracking-params", cfg.TrackingParams, "Comma-separated query params stripped from links (trailing * matches a prefix)")
	fs.StringVar(&cfg.SpamPhrases, "spam-phrases", cfg.SpamPhrases, "Comma-separated phrases whose caption lines are dropped in optimized mode")
	fs.BoolVar(&cfg.Overwrite, "overwrite", cfg.Overwrite, "Overwrite existing transcripts")
	fs.StringVar(&cfg.Report, "report", cfg.Report, "Write a JSON run report to this path")
	fs.BoolVar(&cfg.PrintSchema, "print-schema", false, "Print the JSON Schema of an export file and exit")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug|info|warn|error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: console|json")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags] [message_1.json ...]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nEvery flag can also be set with an INSTASCRIBE_* environment variable (e.g. INSTASCRIBE_SELF).")
		fmt.Fprintln(fs.Output(), "\nExamples:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/instascribe -in ~/instagram-export -list")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/instascribe -in ~/instagram-export -select 1,4 -self \"Jane Doe\" -out transcripts")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/instascribe -metadata minimal inbox/alice_123/message_1.json")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.InputDir != "" {
		cfg.InputDir = filepath.Clean(cfg.InputDir)
	}
	if cfg.OutputDir != "" {
		cfg.OutputDir = filepath.Clean(cfg.OutputDir)
	}
	for _, f := range fs.Args() {
		cfg.Files = append(cfg.Files, filepath.Clean(f))
	}
	return cfg, nil
}
