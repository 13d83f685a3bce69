package dataset

import (
	"strings"
	"time"
)

// Role tags a group relative to the configured self identity.
type Role string

const (
	RoleNone    Role = ""
	RoleYou     Role = "YOU"
	RoleContact Role = "CONTACT"
)

// GapMarker marks a pause between two groups longer than the gap threshold.
type GapMarker struct {
	Duration time.Duration
}

// Hours is the pause length in hours.
func (g GapMarker) Hours() float64 {
	return g.Duration.Hours()
}

// Block is one group plus the annotations that precede it in the transcript.
type Block struct {
	DateHeader string
	Gap        *GapMarker
	Role       Role
	Group      MessageGroup
}

// Annotate walks groups in order and attaches gap markers, date headers and role tags.
//
// A gap marker precedes a group iff the time between the previous group's last message and
// this group's first message exceeds opts.GapThreshold. A date header precedes the first group
// and any group that starts on a different calendar day than the previous group ended.
func Annotate(groups []MessageGroup, opts Options) []Block {
	if len(groups) == 0 {
		return nil
	}
	loc := opts.location()

	blocks := make([]Block, 0, len(groups))
	for i, g := range groups {
		b := Block{Group: g, Role: roleFor(g.Sender, opts)}
		start := g.Start().In(loc)

		if i == 0 {
			if opts.DateHeaders {
				b.DateHeader = formatDateHeader(start)
			}
			blocks = append(blocks, b)
			continue
		}

		prevEnd := groups[i-1].End().In(loc)
		if delta := start.Sub(prevEnd); delta > opts.GapThreshold {
			b.Gap = &GapMarker{Duration: delta}
		}
		if opts.DateHeaders && !sameDay(prevEnd, start) {
			b.DateHeader = formatDateHeader(start)
		}
		blocks = append(blocks, b)
	}
	return blocks
}

func roleFor(sender string, opts Options) Role {
	if !opts.selfTagging() {
		return RoleNone
	}
	if strings.EqualFold(strings.TrimSpace(sender), strings.TrimSpace(opts.SelfName)) {
		return RoleYou
	}
	return RoleContact
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
