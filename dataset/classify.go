package dataset

import (
	"regexp"
	"strings"
)

// Kind names the semantic category of a message.
type Kind int

const (
	KindText Kind = iota
	KindUnsent
	KindGeoblocked
	KindVoiceNote
	KindVanishingMedia
	KindSharedLink
	KindSticker
	KindCall
	KindMedia
	KindSystem
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindUnsent:
		return "unsent"
	case KindGeoblocked:
		return "geoblocked"
	case KindVoiceNote:
		return "voice-note"
	case KindVanishingMedia:
		return "vanishing-media"
	case KindSharedLink:
		return "shared-link"
	case KindSticker:
		return "sticker"
	case KindCall:
		return "call"
	case KindMedia:
		return "media"
	case KindSystem:
		return "system"
	default:
		return "unknown"
	}
}

// Body is the kind-specific payload of a classified message. The set of implementations is
// closed: each one lives in this file and knows how to render itself.
type Body interface {
	Kind() Kind

	// render returns the inline content and any trailing lines (shared-link metadata);
	// ok is false when the body has nothing to show.
	render(opts Options) (content, trailer string, ok bool)
}

type (
	// TextBody is an ordinary text message.
	TextBody struct{ Text string }

	// UnsentBody is a message the sender retracted. Any leftover content is ignored.
	UnsentBody struct{}

	// GeoblockedBody is content hidden from the viewer by region restrictions.
	GeoblockedBody struct{}

	// VoiceNoteBody is an audio message.
	VoiceNoteBody struct{ Count int }

	// VanishingMediaBody is view-once media the export only references.
	VanishingMediaBody struct{}

	// SharedLinkBody is a shared post, reel, story or URL with its caption.
	SharedLinkBody struct {
		Text    string
		Link    string
		Caption string
		Owner   string
	}

	// StickerBody is a sticker.
	StickerBody struct{}

	// CallBody is an audio/video call log entry.
	CallBody struct{ Seconds int }

	// MediaBody is a photo, video or GIF, with optional accompanying text.
	MediaBody struct {
		Photos int
		Videos int
		Gifs   int
		Text   string
	}

	// SystemBody is a system notice or an empty message. It never renders.
	SystemBody struct{ Text string }
)

func (TextBody) Kind() Kind           { return KindText }
func (UnsentBody) Kind() Kind         { return KindUnsent }
func (GeoblockedBody) Kind() Kind     { return KindGeoblocked }
func (VoiceNoteBody) Kind() Kind      { return KindVoiceNote }
func (VanishingMediaBody) Kind() Kind { return KindVanishingMedia }
func (SharedLinkBody) Kind() Kind     { return KindSharedLink }
func (StickerBody) Kind() Kind        { return KindSticker }
func (CallBody) Kind() Kind           { return KindCall }
func (MediaBody) Kind() Kind          { return KindMedia }
func (SystemBody) Kind() Kind         { return KindSystem }

// ClassifiedMessage is a decoded message tagged with exactly one Body.
type ClassifiedMessage struct {
	DecodedMessage
	Body Body
}

// Kind is shorthand for m.Body.Kind().
func (m ClassifiedMessage) Kind() Kind {
	return m.Body.Kind()
}

var (
	vanishingRe = regexp.MustCompile(`(?i)\b(sent|shared|replayed)\b.*\b(vanishing|disappearing|view[- ]once)\b.*\b(photo|video|message|media)\b`)

	systemPhrases = []string{"sent an attachment.", "Liked a message", "Reacted "}
)

// Classify assigns m its single kind. Explicit unsent/geoblocked/vanishing markers win over
// media detection; messages with neither content nor media fall back to SystemBody.
func Classify(m DecodedMessage) ClassifiedMessage {
	return ClassifiedMessage{DecodedMessage: m, Body: classifyBody(m)}
}

func classifyBody(m DecodedMessage) Body {
	content := ""
	if m.Content != nil {
		content = *m.Content
	}
	trimmed := strings.TrimSpace(content)

	switch {
	case m.IsUnsent || strings.Contains(strings.ToLower(content), "unsent a message"):
		return UnsentBody{}
	case m.IsGeoblockedForViewer:
		return GeoblockedBody{}
	case vanishingRe.MatchString(content):
		return VanishingMediaBody{}
	case m.CallDuration != nil:
		return CallBody{Seconds: *m.CallDuration}
	case len(m.AudioFiles) > 0:
		return VoiceNoteBody{Count: len(m.AudioFiles)}
	case m.Sticker != nil:
		return StickerBody{}
	}

	text := trimmed
	if isSystemPhrase(content) {
		text = ""
	}

	switch {
	case m.Share != nil:
		return SharedLinkBody{
			Text:    text,
			Link:    strings.TrimSpace(m.Share.Link),
			Caption: strings.TrimSpace(m.Share.ShareText),
			Owner:   strings.TrimSpace(m.Share.OriginalContentOwner),
		}
	case len(m.Photos) > 0 || len(m.Videos) > 0 || len(m.Gifs) > 0:
		return MediaBody{Photos: len(m.Photos), Videos: len(m.Videos), Gifs: len(m.Gifs), Text: text}
	case text == "":
		return SystemBody{Text: trimmed}
	default:
		return TextBody{Text: content}
	}
}

func isSystemPhrase(content string) bool {
	for _, p := range systemPhrases {
		if strings.Contains(content, p) {
			return true
		}
	}
	return false
}

// ClassifyAll classifies msgs in order.
func ClassifyAll(msgs []DecodedMessage) []ClassifiedMessage {
	out := make([]ClassifiedMessage, len(msgs))
	for i := range msgs {
		out[i] = Classify(msgs[i])
	}
	return out
}
