package dataset

import (
	"errors"
	"strings"
)

// ErrMalformedMessage marks a message element that cannot be used (missing sender or timestamp,
// or fields of the wrong type). Such messages are skipped, never fatal.
var ErrMalformedMessage = errors.New("malformed message")

// ExportFile is the subset of an Instagram message_N.json file the pipeline reads.
type ExportFile struct {
	Title        string        `json:"title,omitempty" jsonschema:"description=Conversation title (group name or the other participant)"`
	ThreadPath   string        `json:"thread_path,omitempty"`
	Participants []Participant `json:"participants,omitempty"`
	Messages     []RawMessage  `json:"messages" jsonschema:"required,description=Messages (usually newest first)"`
}

// Participant is one entry of the export's participants list.
type Participant struct {
	Name string `json:"name"`
}

// RawMessage is one element of the export's messages array, as loaded.
type RawMessage struct {
	SenderName  string `json:"sender_name" jsonschema:"required"`
	TimestampMS int64  `json:"timestamp_ms" jsonschema:"required,description=Unix epoch milliseconds"`

	Content *string `json:"content,omitempty"`

	Photos     []MediaRef `json:"photos,omitempty"`
	Videos     []MediaRef `json:"videos,omitempty"`
	AudioFiles []MediaRef `json:"audio_files,omitempty"`
	Gifs       []MediaRef `json:"gifs,omitempty"`
	Sticker    *MediaRef  `json:"sticker,omitempty"`
	Share      *Share     `json:"share,omitempty"`

	Reactions     []Reaction   `json:"reactions,omitempty"`
	ReplyToSource *ReplySource `json:"reply_to_source,omitempty"`

	// CallDuration is in seconds; zero means missed or cancelled.
	CallDuration *int `json:"call_duration,omitempty"`

	IsUnsent              bool `json:"is_unsent,omitempty"`
	IsGeoblockedForViewer bool `json:"is_geoblocked_for_viewer,omitempty"`
	IsEdited              bool `json:"is_edited,omitempty"`
}

// MediaRef points at an exported media file.
type MediaRef struct {
	URI               string `json:"uri"`
	CreationTimestamp int64  `json:"creation_timestamp,omitempty"`
}

// Share is a shared post, reel, story or external link.
type Share struct {
	Link                 string `json:"link,omitempty"`
	ShareText            string `json:"share_text,omitempty"`
	OriginalContentOwner string `json:"original_content_owner,omitempty"`
}

// Reaction is an emoji reaction left on a message.
type Reaction struct {
	Reaction string `json:"reaction"`
	Actor    string `json:"actor"`
}

// ReplySource is the quoted message a reply points to.
type ReplySource struct {
	SenderName string  `json:"sender_name,omitempty"`
	Content    *string `json:"content,omitempty"`
}

// wireMessage mirrors RawMessage with the required fields as pointers, so absence can be told
// apart from zero values.
type wireMessage struct {
	SenderName  *string `json:"sender_name"`
	TimestampMS *int64  `json:"timestamp_ms"`

	Content *string `json:"content"`

	Photos     []MediaRef `json:"photos"`
	Videos     []MediaRef `json:"videos"`
	AudioFiles []MediaRef `json:"audio_files"`
	Gifs       []MediaRef `json:"gifs"`
	Sticker    *MediaRef  `json:"sticker"`
	Share      *Share     `json:"share"`

	Reactions     []Reaction   `json:"reactions"`
	ReplyToSource *ReplySource `json:"reply_to_source"`
	CallDuration  *int         `json:"call_duration"`

	IsUnsent              bool `json:"is_unsent"`
	IsGeoblockedForViewer bool `json:"is_geoblocked_for_viewer"`
	IsEdited              bool `json:"is_edited"`
}

func (w wireMessage) toRaw() (RawMessage, string, bool) {
	if w.SenderName == nil || strings.TrimSpace(*w.SenderName) == "" {
		return RawMessage{}, "missing sender_name", false
	}
	if w.TimestampMS == nil {
		return RawMessage{}, "missing timestamp_ms", false
	}
	if *w.TimestampMS <= 0 {
		return RawMessage{}, "non-positive timestamp_ms", false
	}
	return RawMessage{
		SenderName:            *w.SenderName,
		TimestampMS:           *w.TimestampMS,
		Content:               w.Content,
		Photos:                w.Photos,
		Videos:                w.Videos,
		AudioFiles:            w.AudioFiles,
		Gifs:                  w.Gifs,
		Sticker:               w.Sticker,
		Share:                 w.Share,
		Reactions:             w.Reactions,
		ReplyToSource:         w.ReplyToSource,
		CallDuration:          w.CallDuration,
		IsUnsent:              w.IsUnsent,
		IsGeoblockedForViewer: w.IsGeoblockedForViewer,
		IsEdited:              w.IsEdited,
	}, "", true
}

func participantNames(ps []Participant) []string {
	names := make([]string, 0, len(ps))
	for _, p := range ps {
		names = append(names, p.Name)
	}
	return names
}
