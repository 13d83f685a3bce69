package dataset

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/theimaginaryfoundation/instascribe/dataset/fileutils"
)

// ErrOutputExists is returned when overwriting is disabled and the transcript already exists.
var ErrOutputExists = errors.New("output file already exists")

// WriteOptions controls where transcripts go.
type WriteOptions struct {
	// OutputDir receives every transcript. Empty means next to each conversation's files.
	OutputDir string

	// Overwrite replaces existing transcripts; when false an existing file fails the conversation.
	Overwrite bool
}

// Transcript is the in-memory result of running the pipeline over one conversation.
type Transcript struct {
	Conversation Conversation
	Text         string

	Loaded  int
	Skipped int
	Dropped int
	Written int
	Groups  int
	Gaps    int
}

// ConversationResult is the outcome of processing one conversation in a batch.
type ConversationResult struct {
	FolderID   string `json:"folder_id"`
	Title      string `json:"title,omitempty"`
	OutputPath string `json:"output_path,omitempty"`

	Loaded  int `json:"messages_loaded"`
	Skipped int `json:"messages_skipped"`
	Dropped int `json:"messages_dropped"`
	Written int `json:"messages_written"`
	Groups  int `json:"groups"`
	Gaps    int `json:"gap_markers"`

	Err error `json:"-"`
	// Error mirrors Err for the JSON report.
	Error string `json:"error,omitempty"`
}

// OK reports whether the conversation was written.
func (r ConversationResult) OK() bool {
	return r.Err == nil
}

// BatchResult collects every conversation outcome of one run.
type BatchResult struct {
	RunID       string               `json:"run_id"`
	StartedAt   time.Time            `json:"started_at"`
	FinishedAt  time.Time            `json:"finished_at"`
	Succeeded   int                  `json:"succeeded"`
	Failed      int                  `json:"failed"`
	Results     []ConversationResult `json:"conversations"`
	Interrupted bool                 `json:"interrupted,omitempty"`
}

// BuildTranscript runs the in-memory stages over already-loaded messages:
// decode, classify, filter, group, annotate and render.
func BuildTranscript(conv Conversation, msgs []RawMessage, opts Options, logger *zap.Logger) Transcript {
	logger = orNop(logger)

	classified := ClassifyAll(DecodeMessages(msgs))
	renderable, dropped := FilterRenderable(classified, logger)
	groups := GroupMessages(renderable, opts.GroupWindow)
	blocks := Annotate(groups, opts)

	gaps := 0
	for _, b := range blocks {
		if b.Gap != nil {
			gaps++
		}
	}

	text := RenderTranscript(TranscriptMeta{
		FolderID:     conv.FolderID,
		Title:        conv.Title,
		Participants: conv.Participants,
	}, blocks, opts)

	return Transcript{
		Conversation: conv,
		Text:         text,
		Loaded:       len(msgs),
		Dropped:      dropped,
		Written:      len(renderable),
		Groups:       len(groups),
		Gaps:         gaps,
	}
}

// ProcessConversation loads, transforms and writes one conversation.
func ProcessConversation(ctx context.Context, conv Conversation, opts Options, wopts WriteOptions, logger *zap.Logger) (ConversationResult, error) {
	logger = orNop(logger)
	res := ConversationResult{FolderID: conv.FolderID, Title: conv.Title}

	loaded, err := LoadConversation(ctx, conv, logger)
	if err != nil {
		return res, fmt.Errorf("ProcessConversation: load %q: %w", conv.FolderID, err)
	}

	tr := BuildTranscript(loaded.Conversation, loaded.Messages, opts, logger)
	res.Title = tr.Conversation.Title
	res.Loaded = tr.Loaded
	res.Skipped = loaded.Skipped
	res.Dropped = tr.Dropped
	res.Written = tr.Written
	res.Groups = tr.Groups
	res.Gaps = tr.Gaps

	outPath := OutputPath(conv, wopts.OutputDir)
	if !wopts.Overwrite && fileutils.FileExists(outPath) {
		return res, fmt.Errorf("ProcessConversation: %w: %s", ErrOutputExists, outPath)
	}
	if _, err := fileutils.WriteFileAtomic(outPath, []byte(tr.Text), 0o644); err != nil {
		return res, fmt.Errorf("ProcessConversation: write %s: %w", outPath, err)
	}
	res.OutputPath = outPath
	return res, nil
}

// ProcessBatch processes convs one at a time. A failing conversation is recorded and the batch
// moves on; the returned error combines every per-conversation failure (nil when all succeeded).
// Cancelling ctx stops before the next conversation and leaves written transcripts in place.
func ProcessBatch(ctx context.Context, convs []Conversation, opts Options, wopts WriteOptions, logger *zap.Logger) (BatchResult, error) {
	if ctx == nil {
		return BatchResult{}, errors.New("ProcessBatch: ctx is nil")
	}
	if err := opts.Validate(); err != nil {
		return BatchResult{}, fmt.Errorf("ProcessBatch: %w", err)
	}

	batch := BatchResult{RunID: uuid.NewString(), StartedAt: time.Now()}
	logger = orNop(logger).With(zap.String("run_id", batch.RunID))

	var errs error
	for _, conv := range convs {
		if err := ctx.Err(); err != nil {
			batch.Interrupted = true
			errs = multierr.Append(errs, err)
			break
		}

		convLogger := logger.With(zap.String("conversation", conv.FolderID))
		res, err := ProcessConversation(ctx, conv, opts, wopts, convLogger)
		if err != nil {
			res.Err = err
			res.Error = err.Error()
			batch.Failed++
			errs = multierr.Append(errs, err)
			convLogger.Error("conversation failed", zap.Error(err))
		} else {
			batch.Succeeded++
			convLogger.Info("conversation written",
				zap.String("output", res.OutputPath),
				zap.Int("messages_loaded", res.Loaded),
				zap.Int("messages_skipped", res.Skipped),
				zap.Int("messages_dropped", res.Dropped),
				zap.Int("messages_written", res.Written),
				zap.Int("groups", res.Groups))
		}
		batch.Results = append(batch.Results, res)
	}

	batch.FinishedAt = time.Now()
	return batch, errs
}

// OutputPath is where the transcript for conv is written: instascribe_<folder id>.txt inside
// outputDir, or inside the conversation's own folder when outputDir is empty.
func OutputPath(conv Conversation, outputDir string) string {
	dir := outputDir
	if dir == "" {
		dir = conv.Dir
	}
	base := sanitizeFilenameComponent(conv.FolderID)
	if base == "" {
		base = "conversation"
	}
	return filepath.Join(dir, "instascribe_"+base+".txt")
}

func sanitizeFilenameComponent(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := b.String()
	out = strings.Trim(out, "._-")
	out = strings.TrimPrefix(out, "..")
	out = strings.TrimPrefix(out, ".")
	out = strings.TrimSpace(out)
	return out
}
