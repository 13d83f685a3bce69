package dataset

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MetadataStrategy controls how much shared-link metadata ends up in a transcript.
type MetadataStrategy int

const (
	MetadataFull MetadataStrategy = iota
	MetadataOptimized
	MetadataMinimal
	MetadataNone
)

// String returns the label written into the transcript header.
func (s MetadataStrategy) String() string {
	switch s {
	case MetadataFull:
		return "Full"
	case MetadataOptimized:
		return "Optimized"
	case MetadataMinimal:
		return "Minimal"
	case MetadataNone:
		return "None"
	default:
		return fmt.Sprintf("MetadataStrategy(%d)", int(s))
	}
}

// ParseMetadataStrategy accepts full|optimized|minimal|none (case-insensitive) and the
// numeric menu choices 1-4.
func ParseMetadataStrategy(s string) (MetadataStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "full", "1":
		return MetadataFull, nil
	case "optimized", "optimised", "2", "":
		return MetadataOptimized, nil
	case "minimal", "3":
		return MetadataMinimal, nil
	case "none", "4":
		return MetadataNone, nil
	default:
		return MetadataOptimized, fmt.Errorf("unknown metadata strategy %q (want full|optimized|minimal|none)", s)
	}
}

// Options is the read-only configuration shared by every pipeline stage.
// Build it once per run and pass it by value.
type Options struct {
	// GroupWindow is the largest gap between two messages from the same sender that still
	// keeps them in one group. Gaps equal to or larger than this start a new group.
	GroupWindow time.Duration

	// GapThreshold is the pause between groups above which a gap marker is emitted.
	GapThreshold time.Duration

	// SelfName enables [YOU]/[CONTACT] role tags when non-empty.
	SelfName string

	Metadata MetadataStrategy

	// Location is used for clock times and date headers. Nil means time.Local.
	Location *time.Location

	// DateHeaders emits "=== DATE: ... ===" lines whenever the calendar day changes.
	DateHeaders bool

	// CaptionMaxRunes caps caption digests in optimized mode (0 disables truncation).
	CaptionMaxRunes int

	// TrackingParams are query parameter names removed from shared links.
	// An entry ending in "*" matches by prefix (e.g. "utm_*").
	TrackingParams []string

	// SpamPhrases drop whole caption lines that contain them (case-insensitive).
	SpamPhrases []string

	// GeneratedAt is stamped into the transcript header.
	GeneratedAt time.Time
}

// DefaultTrackingParams are stripped from shared links unless overridden.
var DefaultTrackingParams = []string{"utm_*", "igsh", "igshid", "fbclid", "gclid", "si", "mibextid", "ref", "ref_src"}

// DefaultSpamPhrases mark caption lines as marketing boilerplate.
var DefaultSpamPhrases = []string{"follow @", "dm for", "credit:", "tag a", "repost", "link in bio", "subscribe"}

// DefaultOptions returns the stock thresholds: 5 minute grouping, 1 hour gaps, optimized metadata.
func DefaultOptions() Options {
	return Options{
		GroupWindow:     5 * time.Minute,
		GapThreshold:    time.Hour,
		Metadata:        MetadataOptimized,
		Location:        time.Local,
		DateHeaders:     true,
		CaptionMaxRunes: 130,
		TrackingParams:  append([]string(nil), DefaultTrackingParams...),
		SpamPhrases:     append([]string(nil), DefaultSpamPhrases...),
	}
}

// Validate rejects option sets the pipeline cannot honour.
func (o Options) Validate() error {
	if o.GroupWindow < 0 {
		return errors.New("group window must be >= 0")
	}
	if o.GapThreshold <= 0 {
		return errors.New("gap threshold must be > 0")
	}
	if o.GroupWindow > o.GapThreshold {
		// A wider window would merge same-sender messages across a pause with no gap marker.
		return fmt.Errorf("group window %s must not exceed gap threshold %s", o.GroupWindow, o.GapThreshold)
	}
	if o.CaptionMaxRunes < 0 {
		return errors.New("caption max must be >= 0")
	}
	if o.Metadata < MetadataFull || o.Metadata > MetadataNone {
		return fmt.Errorf("invalid metadata strategy %d", int(o.Metadata))
	}
	return nil
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

func (o Options) selfTagging() bool {
	return strings.TrimSpace(o.SelfName) != ""
}
