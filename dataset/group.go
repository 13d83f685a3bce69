package dataset

import (
	"time"

	"go.uber.org/zap"
)

// MessageGroup is a run of consecutive messages from one sender, each sent within the grouping
// window of the one before it.
type MessageGroup struct {
	Sender   string
	Messages []ClassifiedMessage
}

// Start is the timestamp of the group's first message.
func (g MessageGroup) Start() time.Time {
	if len(g.Messages) == 0 {
		return time.Time{}
	}
	return time.UnixMilli(g.Messages[0].TimestampMS)
}

// End is the timestamp of the group's last message.
func (g MessageGroup) End() time.Time {
	if len(g.Messages) == 0 {
		return time.Time{}
	}
	return time.UnixMilli(g.Messages[len(g.Messages)-1].TimestampMS)
}

// FilterRenderable drops messages that have nothing to render (system notices and empty
// messages). Every drop is logged; the number dropped is returned so callers can account for it.
func FilterRenderable(msgs []ClassifiedMessage, logger *zap.Logger) ([]ClassifiedMessage, int) {
	logger = orNop(logger)

	kept := make([]ClassifiedMessage, 0, len(msgs))
	dropped := 0
	for _, m := range msgs {
		if sys, ok := m.Body.(SystemBody); ok {
			dropped++
			reason := "empty message"
			if sys.Text != "" {
				reason = "system notice"
			}
			logger.Info("dropping unrenderable message",
				zap.String("sender", m.SenderName),
				zap.Int64("timestamp_ms", m.TimestampMS),
				zap.String("reason", reason))
			continue
		}
		kept = append(kept, m)
	}
	return kept, dropped
}

// GroupMessages partitions time-ordered msgs into maximal same-sender runs. A message joins the
// current run when its sender matches and it arrived strictly less than window after the
// previous message. Order is preserved and no message is dropped.
func GroupMessages(msgs []ClassifiedMessage, window time.Duration) []MessageGroup {
	if len(msgs) == 0 {
		return nil
	}

	windowMS := window.Milliseconds()
	groups := make([]MessageGroup, 0, len(msgs)/2+1)
	for i, m := range msgs {
		if i > 0 {
			prev := msgs[i-1]
			cur := &groups[len(groups)-1]
			if m.SenderName == prev.SenderName && m.TimestampMS-prev.TimestampMS < windowMS {
				cur.Messages = append(cur.Messages, m)
				continue
			}
		}
		groups = append(groups, MessageGroup{Sender: m.SenderName, Messages: []ClassifiedMessage{m}})
	}
	return groups
}
