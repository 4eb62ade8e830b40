package textedit

import "strings"

const (
	zeroWidthJoiner     = '\u200d'
	variationSelector16 = '\ufe0f'
	keycapCombiner      = '\u20e3'
)

func isRegionalIndicator(r rune) bool {
	return r >= 0x1F1E6 && r <= 0x1F1FF
}

func isSkinTone(r rune) bool {
	return r >= 0x1F3FB && r <= 0x1F3FF
}

// isEmoji reports whether r starts an emoji. The ranges cover pictographs,
// symbols, dingbats, transport, supplemental symbols and flags.
func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	case r >= 0x2B00 && r <= 0x2BFF:
		return true
	case r == 0x00A9 || r == 0x00AE || r == 0x203C || r == 0x2049 || r == 0x2122:
		return true
	}
	return false
}

// attaches reports whether r modifies the preceding emoji.
func attaches(r rune) bool {
	return r == variationSelector16 || r == keycapCombiner || isSkinTone(r)
}

// CountEmoji counts emoji as users see them: a ZWJ sequence such as a
// family, a flag made of two regional indicators, or an emoji with a skin
// tone each count once.
func CountEmoji(s string) int {
	runes := []rune(s)
	count := 0
	for i := 0; i < len(runes); i++ {
		if !isEmoji(runes[i]) {
			continue
		}
		count++
		if isRegionalIndicator(runes[i]) && i+1 < len(runes) && isRegionalIndicator(runes[i+1]) {
			i++
		}
		for i+1 < len(runes) {
			next := runes[i+1]
			if attaches(next) {
				i++
				continue
			}
			if next == zeroWidthJoiner && i+2 < len(runes) && isEmoji(runes[i+2]) {
				i += 2
				continue
			}
			break
		}
	}
	return count
}

// StripEmoji removes emoji and their joiners/modifiers, then collapses the
// runs of spaces left behind.
func StripEmoji(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isEmoji(r) || r == zeroWidthJoiner || attaches(r) {
			continue
		}
		b.WriteRune(r)
	}

	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// InsertEmoji inserts emoji at the given rune offset of text. Offsets
// outside the text are clamped to its start or end.
func InsertEmoji(text, emoji string, offset int) string {
	runes := []rune(text)
	if offset < 0 {
		offset = 0
	}
	if offset > len(runes) {
		offset = len(runes)
	}
	return string(runes[:offset]) + emoji + string(runes[offset:])
}
