package dataset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestFindConversations(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	inbox := filepath.Join(root, "your_instagram_activity", "messages", "inbox")
	writeFile(t, filepath.Join(inbox, "zed_1", "message_1.json"), `{"title": "zed", "participants": [{"name": "Zed"}], "messages": []}`)
	writeFile(t, filepath.Join(inbox, "alice_2", "message_1.json"), `{"title": "Alice", "participants": [{"name": "Alice"}, {"name": "Bob"}], "messages": []}`)
	writeFile(t, filepath.Join(inbox, "alice_2", "message_10.json"), `{"messages": []}`)
	writeFile(t, filepath.Join(inbox, "alice_2", "message_2.json"), `{"messages": []}`)
	writeFile(t, filepath.Join(inbox, "alice_2", "photos", "x.jpg"), "jpg")
	writeFile(t, filepath.Join(inbox, "broken_3", "message_1.json"), `{"title": `)
	writeFile(t, filepath.Join(inbox, "no_messages", "notes.txt"), "nothing")

	logger, logs := observedLogger(zapcore.WarnLevel)
	convs, err := FindConversations(root, logger)
	require.NoError(t, err)
	require.Len(t, convs, 3)

	assert.Equal(t, "Alice", convs[0].Title)
	assert.Equal(t, "alice_2", convs[0].FolderID)
	assert.Equal(t, []string{"Alice", "Bob"}, convs[0].Participants)
	assert.Equal(t, []string{
		filepath.Join(inbox, "alice_2", "message_1.json"),
		filepath.Join(inbox, "alice_2", "message_2.json"),
		filepath.Join(inbox, "alice_2", "message_10.json"),
	}, convs[0].Files)

	// Untitled folders sort by folder id.
	assert.Equal(t, "broken_3", convs[1].DisplayName())
	assert.Equal(t, "zed", convs[2].Title)

	assert.Equal(t, 1, logs.FilterMessage("reading conversation header failed").Len())
}

func TestFindConversations_Errors(t *testing.T) {
	t.Parallel()

	_, err := FindConversations("", nil)
	assert.Error(t, err)

	_, err = FindConversations(filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "message_1.json")
	writeFile(t, file, "{}")
	_, err = FindConversations(file, nil)
	assert.Error(t, err)
}

func TestConversationFromFile(t *testing.T) {
	t.Parallel()

	conv := ConversationFromFile(filepath.Join("exports", "dm.json"))
	assert.Equal(t, "exports", conv.Dir)
	assert.Equal(t, "dm", conv.FolderID)
	assert.Equal(t, []string{filepath.Join("exports", "dm.json")}, conv.Files)
	assert.Equal(t, "dm", conv.DisplayName())
}
