package wordpress

import (
	"regexp"
	"strings"
)

const (
	// FileMarker introduces every file of a concatenated repository
	FileMarker = "// File: "

	// repositorySeparator marks owner/repo@branch identifiers
	repositorySeparator = "@"
)

// fileBoundaryRe matches a file marker at the start of the content or after
// a blank line, and captures the path.
var fileBoundaryRe = regexp.MustCompile(`(?:\A|\n\n)// File: ([^\n]*)\n`)

// Segment is one file of a concatenated repository
type Segment struct {
	Path    string
	Content string
}

// IsMultiFile reports whether content is a concatenated repository: it must
// carry a file marker and filename must be an owner/repo@branch identifier.
func IsMultiFile(content, filename string) bool {
	return strings.Contains(content, FileMarker) && strings.Contains(filename, repositorySeparator)
}

// SplitSegments cuts concatenated repository content at every file marker.
// Text before the first marker becomes a segment with an empty path.
// Segments whose content is blank are dropped.
func SplitSegments(content string) []Segment {
	var segments []Segment
	add := func(path, body string) {
		if strings.TrimSpace(body) == "" {
			return
		}
		segments = append(segments, Segment{Path: path, Content: body})
	}

	matches := fileBoundaryRe.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		add("", content)
		return segments
	}

	add("", content[:matches[0][0]])
	for i, m := range matches {
		end := len(content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		add(content[m[2]:m[3]], content[m[1]:end])
	}
	return segments
}

// JoinSegments builds the concatenated form SplitSegments understands
func JoinSegments(segments []Segment) string {
	var b strings.Builder
	for i, s := range segments {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FileMarker)
		b.WriteString(s.Path)
		b.WriteString("\n")
		b.WriteString(s.Content)
	}
	return b.String()
}
