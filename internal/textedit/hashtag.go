// Package textedit provides caption editing helpers for Instagram posts:
// hashtag extraction and normalization, emoji handling and length limits.
//
// All offsets and lengths are in runes so that Hangul and emoji count the
// way Instagram counts them.
package textedit

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxCaptionLength is Instagram's caption limit in characters.
	MaxCaptionLength = 2200

	// MaxHashtags is Instagram's limit of hashtags per post.
	MaxHashtags = 30
)

var (
	ErrCaptionTooLong  = fmt.Errorf("caption must be at most %d characters", MaxCaptionLength)
	ErrTooManyHashtags = fmt.Errorf("at most %d hashtags are allowed", MaxHashtags)
	ErrInvalidHashtag  = errors.New("hashtag may only contain letters, digits and underscores")
)

// isTagRune reports whether r may appear in a hashtag body.
func isTagRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '_'
}

// span is a hashtag occurrence in a rune slice, [start, end).
type span struct {
	start, end int
}

// findTags returns every hashtag occurrence in runes. A '#' glued to a
// preceding word character ("abc#def") does not start a tag.
func findTags(runes []rune) []span {
	var spans []span
	for i := 0; i < len(runes); i++ {
		if runes[i] != '#' {
			continue
		}
		if i > 0 && isTagRune(runes[i-1]) {
			continue
		}
		j := i + 1
		for j < len(runes) && isTagRune(runes[j]) {
			j++
		}
		if j == i+1 {
			continue
		}
		spans = append(spans, span{start: i, end: j})
		i = j - 1
	}
	return spans
}

// ExtractHashtags returns the hashtags in text in order of first
// appearance, deduplicated case-insensitively. The first spelling wins.
func ExtractHashtags(text string) []string {
	runes := []rune(text)
	var tags []string
	seen := make(map[string]bool)
	for _, sp := range findTags(runes) {
		tag := string(runes[sp.start:sp.end])
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		tags = append(tags, tag)
	}
	return tags
}

// NormalizeHashtag turns user input such as "hair color", "#헤어" or
// "##balayage" into "#haircolor", "#헤어", "#balayage". Whitespace is
// dropped. It returns ErrInvalidHashtag when the remaining body is empty or
// contains punctuation.
func NormalizeHashtag(raw string) (string, error) {
	body := strings.TrimLeft(strings.TrimSpace(raw), "#")
	body = strings.Join(strings.Fields(body), "")
	if body == "" {
		return "", ErrInvalidHashtag
	}
	for _, r := range body {
		if !isTagRune(r) {
			return "", fmt.Errorf("%w: %q", ErrInvalidHashtag, raw)
		}
	}
	return "#" + body, nil
}

// NormalizeHashtags normalizes every tag and drops case-insensitive
// duplicates, keeping the input order.
func NormalizeHashtags(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, r := range raw {
		tag, err := NormalizeHashtag(r)
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}
	return out, nil
}

// MergeHashtags concatenates already normalized tag lists, dropping
// case-insensitive duplicates.
func MergeHashtags(lists ...[]string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, tag := range list {
			key := strings.ToLower(tag)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, tag)
		}
	}
	return out
}

// AddHashtags appends the tags that caption does not contain yet as a
// trailing paragraph. The caption is returned unchanged when nothing is
// missing.
func AddHashtags(caption string, tags []string) string {
	present := make(map[string]bool)
	for _, t := range ExtractHashtags(caption) {
		present[strings.ToLower(t)] = true
	}

	var missing []string
	for _, t := range tags {
		key := strings.ToLower(t)
		if present[key] {
			continue
		}
		present[key] = true
		missing = append(missing, t)
	}
	if len(missing) == 0 {
		return caption
	}

	trimmed := strings.TrimRightFunc(caption, unicode.IsSpace)
	if trimmed == "" {
		return strings.Join(missing, " ")
	}
	return trimmed + "\n\n" + strings.Join(missing, " ")
}

// RemoveHashtag deletes every occurrence of tag (case-insensitive) from
// caption together with one separating space.
func RemoveHashtag(caption, tag string) string {
	norm, err := NormalizeHashtag(tag)
	if err != nil {
		return caption
	}
	target := strings.ToLower(norm)

	runes := []rune(caption)
	var b strings.Builder
	b.Grow(len(caption))

	prev := 0
	for _, sp := range findTags(runes) {
		if strings.ToLower(string(runes[sp.start:sp.end])) != target {
			continue
		}
		start, end := sp.start, sp.end
		switch {
		case start > prev && runes[start-1] == ' ':
			start--
		case end < len(runes) && runes[end] == ' ':
			end++
		}
		b.WriteString(string(runes[prev:start]))
		prev = end
	}
	b.WriteString(string(runes[prev:]))

	return strings.TrimRightFunc(b.String(), unicode.IsSpace)
}

// Validate checks caption length and the number of distinct hashtags across
// the caption and the explicit tag list.
func Validate(caption string, hashtags []string) error {
	if utf8.RuneCountInString(caption) > MaxCaptionLength {
		return ErrCaptionTooLong
	}
	if len(MergeHashtags(ExtractHashtags(caption), hashtags)) > MaxHashtags {
		return ErrTooManyHashtags
	}
	return nil
}
