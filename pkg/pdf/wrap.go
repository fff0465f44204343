package pdf

import "strings"

// WrapText greedily packs words into lines of at most maxChars characters. Words longer
// than maxChars are split. A non-positive budget returns the whole text as one line.
func WrapText(text string, maxChars int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if maxChars <= 0 {
		return []string{strings.Join(words, " ")}
	}

	var (
		lines []string
		line  strings.Builder
		width int
	)
	flush := func() {
		if width > 0 {
			lines = append(lines, line.String())
			line.Reset()
			width = 0
		}
	}

	for _, word := range words {
		runes := []rune(word)
		for len(runes) > maxChars {
			flush()
			lines = append(lines, string(runes[:maxChars]))
			runes = runes[maxChars:]
		}
		if len(runes) == 0 {
			continue
		}

		if width > 0 && width+1+len(runes) > maxChars {
			flush()
		}
		if width > 0 {
			line.WriteByte(' ')
			width++
		}
		line.WriteString(string(runes))
		width += len(runes)
	}
	flush()

	return lines
}
