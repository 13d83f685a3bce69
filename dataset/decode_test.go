package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixEncoding(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "emoji mojibake", in: "ð\u009f\u0098\u0082", want: "😂"},
		{name: "accent mojibake", in: "cafÃ©", want: "café"},
		{name: "ascii", in: "hello there", want: "hello there"},
		{name: "empty", in: "", want: ""},
		{name: "already correct latin1", in: "café", want: "café"},
		{name: "already correct emoji", in: "lol 😂", want: "lol 😂"},
		{name: "invalid byte sequence", in: "ÿþ", want: "ÿþ"},
		{name: "replacement rune", in: "bad � byte", want: "bad � byte"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, FixEncoding(tc.in))
		})
	}
}

func TestFixEncoding_Idempotent(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"café", "😂🔥", "naïve résumé", "plain", "Ünïcödé ✓", "ð\u009f\u0098\u0082"} {
		once := FixEncoding(s)
		assert.Equal(t, once, FixEncoding(once), "decode(decode(%q))", s)
	}
}

func TestDecodeMessage_RepairsEveryTextField(t *testing.T) {
	t.Parallel()

	moji := "cafÃ©"
	raw := RawMessage{
		SenderName:    "JosÃ©",
		TimestampMS:   1,
		Content:       strPtr(moji),
		Share:         &Share{Link: "https://x.test", ShareText: moji, OriginalContentOwner: moji},
		Reactions:     []Reaction{{Reaction: "â\u009d¤", Actor: "JosÃ©"}},
		ReplyToSource: &ReplySource{SenderName: "JosÃ©", Content: strPtr(moji)},
	}

	d := DecodeMessage(raw)
	assert.Equal(t, "José", d.SenderName)
	assert.Equal(t, "café", *d.Content)
	assert.Equal(t, "café", d.Share.ShareText)
	assert.Equal(t, "café", d.Share.OriginalContentOwner)
	assert.Equal(t, "❤", d.Reactions[0].Reaction)
	assert.Equal(t, "José", d.Reactions[0].Actor)
	assert.Equal(t, "José", d.ReplyToSource.SenderName)
	assert.Equal(t, "café", *d.ReplyToSource.Content)

	// The raw message is left untouched.
	assert.Equal(t, moji, *raw.Content)
	assert.Equal(t, moji, raw.Share.ShareText)
	assert.Equal(t, "â\u009d¤", raw.Reactions[0].Reaction)
}
