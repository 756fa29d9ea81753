package chunker

import (
	"strings"
	"unicode"
)

// IntroductionTitle names the implicit section holding text that precedes the
// first heading.
const IntroductionTitle = "Introduction"

// section is a titled byte range of the source text. The range excludes the
// heading line itself.
type section struct {
	title string
	start int
	end   int
}

// detectSections splits content on heading lines. Without any heading the
// whole text is a single untitled section.
func detectSections(content string) []section {
	var sections []section
	current := section{title: IntroductionTitle, start: 0}
	found := false

	pos := 0
	for pos < len(content) {
		lineEnd := strings.IndexByte(content[pos:], '\n')
		next := len(content)
		if lineEnd >= 0 {
			lineEnd += pos
			next = lineEnd + 1
		} else {
			lineEnd = len(content)
		}

		if title, ok := headingTitle(content[pos:lineEnd]); ok {
			current.end = pos
			if found || !isBlank(content[current.start:current.end]) {
				sections = append(sections, current)
			}
			current = section{title: title, start: next}
			found = true
		}
		pos = next
	}

	if !found {
		return []section{{start: 0, end: len(content)}}
	}

	current.end = len(content)
	if current.start > current.end {
		current.start = current.end
	}
	return append(sections, current)
}

func headingTitle(line string) (string, bool) {
	trimmed := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimLeft(trimmed, "#")), true
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// trimSpan narrows [start, end) to exclude leading and trailing whitespace.
// An all-whitespace span collapses to start == end.
func trimSpan(content string, start, end int) (int, int) {
	s := content[start:end]
	lead := len(s) - len(strings.TrimLeftFunc(s, unicode.IsSpace))
	if lead == len(s) {
		return start, start
	}
	tail := len(strings.TrimRightFunc(s, unicode.IsSpace))
	return start + lead, start + tail
}

// paragraphs returns the trimmed spans of the blank-line delimited paragraphs
// of content[start:end].
func paragraphs(content string, start, end int) [][2]int {
	var out [][2]int
	pos := start
	for pos < end {
		sep := strings.Index(content[pos:end], "\n\n")
		stop := end
		if sep >= 0 {
			stop = pos + sep
		}
		if s, e := trimSpan(content, pos, stop); s < e {
			out = append(out, [2]int{s, e})
		}
		if sep < 0 {
			break
		}
		pos = stop + 2
	}
	return out
}
