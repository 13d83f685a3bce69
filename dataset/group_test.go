package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestGroupMessages_SameSenderWithinWindow(t *testing.T) {
	t.Parallel()

	msgs := classified(
		textMsg("Alice", baseTime, "a1"),
		textMsg("Alice", baseTime.Add(time.Minute), "a2"),
		textMsg("Bob", baseTime.Add(2*time.Minute), "b1"),
		textMsg("Bob", baseTime.Add(7*time.Minute), "b2"), // exactly the window: new group
		textMsg("Alice", baseTime.Add(8*time.Minute), "a3"),
	)

	groups := GroupMessages(msgs, 5*time.Minute)
	require.Len(t, groups, 4)
	assert.Equal(t, "Alice", groups[0].Sender)
	assert.Len(t, groups[0].Messages, 2)
	assert.Equal(t, "Bob", groups[1].Sender)
	assert.Len(t, groups[1].Messages, 1)
	assert.Equal(t, "Bob", groups[2].Sender)
	assert.Equal(t, "Alice", groups[3].Sender)
	assert.True(t, groups[0].Start().Equal(baseTime))
	assert.True(t, groups[0].End().Equal(baseTime.Add(time.Minute)))
}

func TestGroupMessages_ConservesOrderAndCount(t *testing.T) {
	t.Parallel()

	var raw []RawMessage
	senders := []string{"A", "A", "B", "A", "B", "B", "B", "A"}
	for i, s := range senders {
		raw = append(raw, textMsg(s, baseTime.Add(time.Duration(i)*time.Minute), s))
	}
	msgs := classified(raw...)

	var flat []ClassifiedMessage
	for _, g := range GroupMessages(msgs, 5*time.Minute) {
		for _, m := range g.Messages {
			assert.Equal(t, g.Sender, m.SenderName)
		}
		flat = append(flat, g.Messages...)
	}
	assert.Equal(t, msgs, flat)
}

func TestGroupMessages_ConcatenationMatchesWhole(t *testing.T) {
	t.Parallel()

	left := classified(
		textMsg("Alice", baseTime, "1"),
		textMsg("Alice", baseTime.Add(time.Minute), "2"),
		textMsg("Bob", baseTime.Add(2*time.Minute), "3"),
	)
	// Different sender at the boundary, so no run spans the split.
	right := classified(
		textMsg("Alice", baseTime.Add(3*time.Minute), "4"),
		textMsg("Alice", baseTime.Add(4*time.Minute), "5"),
	)

	whole := append(append([]ClassifiedMessage(nil), left...), right...)
	split := append(GroupMessages(left, 5*time.Minute), GroupMessages(right, 5*time.Minute)...)
	assert.Equal(t, GroupMessages(whole, 5*time.Minute), split)
}

func TestGroupMessages_Deterministic(t *testing.T) {
	t.Parallel()

	msgs := classified(
		textMsg("A", baseTime, "x"),
		textMsg("B", baseTime.Add(time.Second), "y"),
		textMsg("B", baseTime.Add(2*time.Second), "z"),
	)
	assert.Equal(t, GroupMessages(msgs, time.Minute), GroupMessages(msgs, time.Minute))
	assert.Nil(t, GroupMessages(nil, time.Minute))
}

func TestFilterRenderable_LogsEveryDrop(t *testing.T) {
	t.Parallel()

	logger, logs := observedLogger(zapcore.InfoLevel)
	msgs := classified(
		textMsg("A", baseTime, "hello"),
		RawMessage{SenderName: "A", TimestampMS: ms(baseTime.Add(time.Second))},
		textMsg("B", baseTime.Add(2*time.Second), "Reacted 😂 to your message"),
		textMsg("B", baseTime.Add(3*time.Second), "bye"),
	)

	kept, dropped := FilterRenderable(msgs, logger)
	assert.Equal(t, 2, dropped)
	require.Len(t, kept, 2)
	assert.Equal(t, len(msgs), len(kept)+dropped)

	entries := logs.FilterMessage("dropping unrenderable message").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "empty message", entries[0].ContextMap()["reason"])
	assert.Equal(t, "system notice", entries[1].ContextMap()["reason"])
}
