package dataset

import (
	"fmt"
	"strings"

	"github.com/theimaginaryfoundation/instascribe/dataset/fileutils"
)

const (
	transcriptRule   = "============================================================"
	continuationMark = "  ↳ "
	shareIndent      = "\n    └─ "
)

// TranscriptMeta is the per-conversation information written into the transcript header.
type TranscriptMeta struct {
	FolderID     string
	Title        string
	Participants []string
}

// RenderTranscript renders the annotated blocks of one conversation, header included.
// The whole transcript is built in memory so it can be written in a single operation.
func RenderTranscript(meta TranscriptMeta, blocks []Block, opts Options) string {
	var b strings.Builder

	owner := strings.TrimSpace(opts.SelfName)
	if owner == "" {
		owner = "Not Specified"
	}
	generated := opts.GeneratedAt
	b.WriteString("SYSTEM: INSTASCRIBE DM DATASET\n")
	fmt.Fprintf(&b, "GENERATED_ON: %s\n", generated.Format("2006-01-02"))
	fmt.Fprintf(&b, "FOLDER_SOURCE: %s\n", meta.FolderID)
	fmt.Fprintf(&b, "OWNER_IDENTITY: %s\n", owner)
	fmt.Fprintf(&b, "PARTICIPANTS: %s\n", strings.Join(meta.Participants, ", "))
	fmt.Fprintf(&b, "METADATA_STRATEGY: %s\n", opts.Metadata)
	b.WriteString(transcriptRule)
	b.WriteString("\n")

	for _, blk := range blocks {
		renderBlock(&b, blk, opts)
	}
	return b.String()
}

func renderBlock(b *strings.Builder, blk Block, opts Options) {
	if blk.Gap != nil {
		fmt.Fprintf(b, "\n--- TIME GAP: %s hours ---\n", formatGapHours(blk.Gap.Hours()))
	}
	if blk.DateHeader != "" {
		fmt.Fprintf(b, "\n=== DATE: %s ===\n", blk.DateHeader)
	}

	sender := blk.Group.Sender
	if blk.Role != RoleNone {
		sender = "[" + string(blk.Role) + "] " + sender
	}

	loc := opts.location()
	for i, m := range blk.Group.Messages {
		if i == 0 {
			fmt.Fprintf(b, "\n[%s] %s: ", formatClock(messageTime(m.TimestampMS, loc)), sender)
		} else {
			b.WriteString(continuationMark)
		}
		b.WriteString(RenderMessage(m, opts))
		b.WriteString("\n")
	}
}

// RenderMessage renders a single message body with its reply context, edit flag, reactions
// and shared-link lines. It returns "" for messages that have nothing to show.
// Newlines inside message text and captions are escaped as \n so every message stays on its
// own line.
func RenderMessage(m ClassifiedMessage, opts Options) string {
	content, trailer, ok := m.Body.render(opts)
	if !ok {
		return ""
	}
	if m.IsEdited {
		content = strings.TrimSpace(content + " (EDITED)")
	}

	var b strings.Builder
	if r := m.ReplyToSource; r != nil {
		quoted := "[Media]"
		if r.Content != nil {
			quoted = fileutils.SanitizeNewlines(*r.Content)
		}
		replyTo := r.SenderName
		if replyTo == "" {
			replyTo = "Unknown"
		}
		fmt.Fprintf(&b, "(Reply to %s: \"%s\") ↳ ", replyTo, quoted)
	}
	b.WriteString(content)
	if len(m.Reactions) > 0 {
		parts := make([]string, 0, len(m.Reactions))
		for _, r := range m.Reactions {
			parts = append(parts, r.Reaction+" by "+r.Actor)
		}
		fmt.Fprintf(&b, " [Reactions: %s]", strings.Join(parts, ", "))
	}
	b.WriteString(trailer)
	return b.String()
}

func (t TextBody) render(Options) (string, string, bool) {
	return fileutils.SanitizeNewlines(t.Text), "", true
}

func (UnsentBody) render(Options) (string, string, bool) {
	return "[Unsent message]", "", true
}

func (GeoblockedBody) render(Options) (string, string, bool) {
	return "[Geoblocked content]", "", true
}

func (v VoiceNoteBody) render(Options) (string, string, bool) {
	return countedPlaceholder("Voice note", v.Count), "", true
}

func (VanishingMediaBody) render(Options) (string, string, bool) {
	return "[Vanishing media]", "", true
}

func (StickerBody) render(Options) (string, string, bool) {
	return "[Sticker]", "", true
}

func (c CallBody) render(Options) (string, string, bool) {
	return "[Call: " + formatCallDuration(c.Seconds) + "]", "", true
}

func (m MediaBody) render(Options) (string, string, bool) {
	var tags []string
	if m.Photos > 0 {
		tags = append(tags, countedPlaceholder("Photo", m.Photos))
	}
	if m.Videos > 0 {
		tags = append(tags, countedPlaceholder("Video", m.Videos))
	}
	if m.Gifs > 0 {
		tags = append(tags, countedPlaceholder("GIF", m.Gifs))
	}
	return strings.TrimSpace(strings.Join(tags, " ") + " " + fileutils.SanitizeNewlines(m.Text)), "", true
}

func (SystemBody) render(Options) (string, string, bool) {
	return "", "", false
}

func (s SharedLinkBody) render(opts Options) (string, string, bool) {
	link := s.Link
	if opts.Metadata != MetadataFull {
		link = StripTrackingParams(link, opts.TrackingParams)
	}
	label := ShareLabel(link)
	text := fileutils.SanitizeNewlines(s.Text)

	var trailer strings.Builder
	switch opts.Metadata {
	case MetadataNone:
		return strings.TrimSpace("[" + label + "] " + text), "", true
	case MetadataFull:
		writeShareLine(&trailer, label, link)
		if s.Caption != "" {
			trailer.WriteString(shareIndent + "[CAPTION]: " + fileutils.SanitizeNewlines(s.Caption))
		}
	case MetadataOptimized:
		writeShareLine(&trailer, label, link)
		digest := fileutils.Truncate(CleanCaption(s.Caption, opts.SpamPhrases), opts.CaptionMaxRunes)
		if digest != "" {
			trailer.WriteString(shareIndent + "[CAPTION_DIGEST]: " + digest)
		}
	case MetadataMinimal:
		writeShareLine(&trailer, label, link)
	}
	return text, trailer.String(), true
}

func writeShareLine(b *strings.Builder, label, link string) {
	b.WriteString(shareIndent + "[" + label + "]")
	if link != "" {
		b.WriteString(": " + link)
	}
}

func countedPlaceholder(name string, n int) string {
	if n > 1 {
		return fmt.Sprintf("[%s x%d]", name, n)
	}
	return "[" + name + "]"
}
