package dataset

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// FixEncoding repairs the mojibake Instagram exports carry: UTF-8 bytes written out as if each
// byte were a Latin-1 code point ("Ã°Å¸Ëœâ€š" instead of an emoji).
//
// The text is re-encoded as Latin-1 and the bytes decoded as UTF-8. When that is impossible
// (a rune outside Latin-1, or bytes that are not UTF-8) the input is returned unchanged, which
// makes the function a no-op on text that is already correct.
func FixEncoding(s string) string {
	if s == "" || isASCII(s) {
		return s
	}
	b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return s
	}
	if !utf8.Valid(b) {
		return s
	}
	return string(b)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func decodeAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = FixEncoding(s)
	}
	return out
}

func decodeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := FixEncoding(*s)
	return &v
}

// DecodedMessage is a RawMessage with every text field passed through FixEncoding.
type DecodedMessage struct {
	RawMessage
}

// DecodeMessage repairs every text field of m. The input is not modified.
func DecodeMessage(m RawMessage) DecodedMessage {
	d := m
	d.SenderName = FixEncoding(m.SenderName)
	d.Content = decodeOptional(m.Content)

	if m.Share != nil {
		share := Share{
			Link:                 FixEncoding(m.Share.Link),
			ShareText:            FixEncoding(m.Share.ShareText),
			OriginalContentOwner: FixEncoding(m.Share.OriginalContentOwner),
		}
		d.Share = &share
	}
	if len(m.Reactions) > 0 {
		d.Reactions = make([]Reaction, len(m.Reactions))
		for i, r := range m.Reactions {
			d.Reactions[i] = Reaction{Reaction: FixEncoding(r.Reaction), Actor: FixEncoding(r.Actor)}
		}
	}
	if m.ReplyToSource != nil {
		d.ReplyToSource = &ReplySource{
			SenderName: FixEncoding(m.ReplyToSource.SenderName),
			Content:    decodeOptional(m.ReplyToSource.Content),
		}
	}
	return DecodedMessage{RawMessage: d}
}

// DecodeMessages decodes msgs in order.
func DecodeMessages(msgs []RawMessage) []DecodedMessage {
	out := make([]DecodedMessage, len(msgs))
	for i := range msgs {
		out[i] = DecodeMessage(msgs[i])
	}
	return out
}
