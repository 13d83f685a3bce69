package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

func writeConversation(t *testing.T, root, folder, content string) Conversation {
	t.Helper()

	dir := filepath.Join(root, folder)
	path := filepath.Join(dir, "message_1.json")
	writeFile(t, path, content)
	return Conversation{Dir: dir, FolderID: folder, Files: []string{path}}
}

const aliceExport = `{"title": "Alice", "participants": [{"name": "Alice"}, {"name": "Bob"}], "messages": [
  {"sender_name": "Bob", "timestamp_ms": 1704189660000, "content": "there"},
  {"sender_name": "Alice", "timestamp_ms": 1704189600000, "content": "hi"},
  {"sender_name": "Alice", "timestamp_ms": 1704189500000, "content": "Liked a message"},
  {"timestamp_ms": 1704189400000, "content": "orphan"}
]}`

func TestProcessConversation_WritesTranscript(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	conv := writeConversation(t, root, "alice_123", aliceExport)
	out := filepath.Join(root, "out")
	require.NoError(t, os.MkdirAll(out, 0o755))

	res, err := ProcessConversation(context.Background(), conv, testOptions(), WriteOptions{OutputDir: out, Overwrite: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "instascribe_alice_123.txt"), res.OutputPath)
	assert.Equal(t, "Alice", res.Title)
	assert.Equal(t, 3, res.Loaded)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Dropped)
	assert.Equal(t, 2, res.Written)
	assert.Equal(t, 2, res.Groups)

	b, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	text := string(b)
	assert.True(t, strings.HasPrefix(text, "SYSTEM: INSTASCRIBE DM DATASET\n"))
	assert.Contains(t, text, "PARTICIPANTS: Alice, Bob\n")
	assert.Contains(t, text, "[10:00] Alice: hi\n")
	assert.Contains(t, text, "[10:01] Bob: there\n")
	assert.NotContains(t, text, "Liked a message")
	assert.Less(t, strings.Index(text, "Alice: hi"), strings.Index(text, "Bob: there"))
}

func TestProcessConversation_DefaultsNextToSource(t *testing.T) {
	t.Parallel()

	conv := writeConversation(t, t.TempDir(), "alice_123", aliceExport)
	res, err := ProcessConversation(context.Background(), conv, testOptions(), WriteOptions{Overwrite: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(conv.Dir, "instascribe_alice_123.txt"), res.OutputPath)
}

func TestProcessConversation_RespectsOverwrite(t *testing.T) {
	t.Parallel()

	conv := writeConversation(t, t.TempDir(), "alice_123", aliceExport)
	existing := OutputPath(conv, "")
	writeFile(t, existing, "keep me")

	_, err := ProcessConversation(context.Background(), conv, testOptions(), WriteOptions{Overwrite: false}, nil)
	require.ErrorIs(t, err, ErrOutputExists)
	b, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(b))

	_, err = ProcessConversation(context.Background(), conv, testOptions(), WriteOptions{Overwrite: true}, nil)
	require.NoError(t, err)
	b, err = os.ReadFile(existing)
	require.NoError(t, err)
	assert.NotEqual(t, "keep me", string(b))
}

func TestProcessBatch_ContinuesPastFailures(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	good1 := writeConversation(t, root, "alice_1", aliceExport)
	bad := writeConversation(t, root, "broken_2", `{"messages": [`)
	good2 := writeConversation(t, root, "bob_3", `[{"sender_name": "Bob", "timestamp_ms": 1704189600000, "content": "yo"}]`)

	logger, logs := observedLogger(zapcore.InfoLevel)
	batch, err := ProcessBatch(context.Background(), []Conversation{good1, bad, good2}, testOptions(), WriteOptions{Overwrite: true}, logger)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1)

	assert.NotEmpty(t, batch.RunID)
	assert.Equal(t, 2, batch.Succeeded)
	assert.Equal(t, 1, batch.Failed)
	require.Len(t, batch.Results, 3)
	assert.True(t, batch.Results[0].OK())
	assert.False(t, batch.Results[1].OK())
	assert.NotEmpty(t, batch.Results[1].Error)
	assert.True(t, batch.Results[2].OK())
	assert.False(t, batch.Interrupted)

	for _, c := range []Conversation{good1, good2} {
		_, statErr := os.Stat(OutputPath(c, ""))
		assert.NoError(t, statErr)
	}
	_, statErr := os.Stat(OutputPath(bad, ""))
	assert.True(t, errors.Is(statErr, os.ErrNotExist))

	assert.Equal(t, 1, logs.FilterMessage("conversation failed").Len())
	assert.Equal(t, 2, logs.FilterMessage("conversation written").Len())
}

func TestProcessBatch_Cancelled(t *testing.T) {
	t.Parallel()

	conv := writeConversation(t, t.TempDir(), "alice_1", aliceExport)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch, err := ProcessBatch(ctx, []Conversation{conv}, testOptions(), WriteOptions{Overwrite: true}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, batch.Interrupted)
	assert.Empty(t, batch.Results)
}

func TestProcessBatch_RejectsInvalidOptions(t *testing.T) {
	t.Parallel()

	opts := testOptions()
	opts.GapThreshold = 0
	_, err := ProcessBatch(context.Background(), nil, opts, WriteOptions{}, nil)
	assert.Error(t, err)
}

func TestOutputPath_SanitizesFolderID(t *testing.T) {
	t.Parallel()

	conv := Conversation{Dir: "in", FolderID: "../we ird/name"}
	assert.Equal(t, filepath.Join("out", "instascribe_we_ird_name.txt"), OutputPath(conv, "out"))
	assert.Equal(t, filepath.Join("in", "instascribe_conversation.txt"), OutputPath(Conversation{Dir: "in"}, ""))
}
