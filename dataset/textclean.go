package dataset

import (
	"net/url"
	"regexp"
	"strings"
)

// hashtagRe matches a hashtag at the start of the text or after whitespace, so URL fragments
// survive. The leading whitespace is captured and put back.
var hashtagRe = regexp.MustCompile(`(^|\s)#[\p{L}\p{M}\p{N}_]+`)

// StripTrackingParams removes tracking query parameters from link and leaves everything else
// (scheme, path, remaining parameters and their order, fragment) byte-for-byte intact.
// Entries in params ending with "*" match parameter names by prefix.
func StripTrackingParams(link string, params []string) string {
	q := strings.IndexByte(link, '?')
	if q < 0 || len(params) == 0 {
		return link
	}

	base, rest := link[:q], link[q+1:]
	fragment := ""
	if h := strings.IndexByte(rest, '#'); h >= 0 {
		rest, fragment = rest[:h], rest[h:]
	}

	var kept []string
	for _, pair := range strings.Split(rest, "&") {
		if pair == "" {
			continue
		}
		key := pair
		if eq := strings.IndexByte(pair, '='); eq >= 0 {
			key = pair[:eq]
		}
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		if isTrackingParam(key, params) {
			continue
		}
		kept = append(kept, pair)
	}

	if len(kept) == 0 {
		return base + fragment
	}
	return base + "?" + strings.Join(kept, "&") + fragment
}

func isTrackingParam(key string, params []string) bool {
	key = strings.ToLower(key)
	for _, p := range params {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			if strings.HasPrefix(key, prefix) {
				return true
			}
			continue
		}
		if key == p {
			return true
		}
	}
	return false
}

// CleanCaption removes hashtags and every line containing one of spamPhrases
// (case-insensitive), then joins what is left into a single line. It only removes text.
func CleanCaption(text string, spamPhrases []string) string {
	text = hashtagRe.ReplaceAllString(text, "$1")

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	kept := make([]string, 0, len(lines))
	for _, l := range lines {
		if containsSpamPhrase(l, spamPhrases) {
			continue
		}
		kept = append(kept, l)
	}
	return strings.Join(strings.Fields(strings.Join(kept, " ")), " ")
}

func containsSpamPhrase(line string, phrases []string) bool {
	lower := strings.ToLower(line)
	for _, p := range phrases {
		p = strings.ToLower(p)
		if p != "" && strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// ShareLabel names a shared link: story context, a giphy GIF (with its theme word) or a plain
// shared link.
func ShareLabel(link string) string {
	switch {
	case strings.Contains(link, "/stories/"):
		return "STORY_CONTEXT"
	case strings.Contains(link, "giphy.com"):
		return "GIF_SENT (Theme: " + giphyTheme(link) + ")"
	default:
		return "SHARED_LINK"
	}
}

func giphyTheme(link string) string {
	if q := strings.IndexAny(link, "?#"); q >= 0 {
		link = link[:q]
	}
	link = strings.TrimRight(link, "/")
	i := strings.LastIndexByte(link, '/')
	if i < 0 {
		return "visual"
	}
	slug := strings.ReplaceAll(link[i+1:], "-", " ")
	if f := strings.Fields(slug); len(f) > 0 {
		return f[0]
	}
	return "visual"
}
