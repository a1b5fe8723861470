package elementor

import "strings"

// Small PHP-aware bracket balancer. It understands quoted strings and
// comments, so brackets inside them do not count.

var closers = map[byte]byte{'[': ']', '(': ')', '{': '}'}

// skipLiteral returns the index just past the string or comment starting at
// i, or i itself when nothing starts there.
func skipLiteral(src string, i int) int {
	switch {
	case src[i] == '\'' || src[i] == '"':
		quote := src[i]
		for j := i + 1; j < len(src); j++ {
			switch src[j] {
			case '\\':
				j++
			case quote:
				return j + 1
			}
		}
		return len(src)
	case strings.HasPrefix(src[i:], "//"), src[i] == '#' && !strings.HasPrefix(src[i:], "#["):
		if end := strings.IndexByte(src[i:], '\n'); end >= 0 {
			return i + end + 1
		}
		return len(src)
	case strings.HasPrefix(src[i:], "/*"):
		if end := strings.Index(src[i+2:], "*/"); end >= 0 {
			return i + 2 + end + 2
		}
		return len(src)
	}
	return i
}

// matchBracket returns the index of the bracket closing the one at open,
// or -1 when the source ends first or brackets are mismatched.
func matchBracket(src string, open int) int {
	if open < 0 || open >= len(src) {
		return -1
	}
	if _, ok := closers[src[open]]; !ok {
		return -1
	}

	var stack []byte
	for i := open; i < len(src); {
		if next := skipLiteral(src, i); next != i {
			i = next
			continue
		}
		c := src[i]
		if closer, ok := closers[c]; ok {
			stack = append(stack, closer)
		} else if c == ']' || c == ')' || c == '}' {
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
		i++
	}
	return -1
}

// arrayBody returns the text between the brackets of the PHP array literal
// starting at src[i:] ("[...]" or "array(...)"), and the index after it.
func arrayBody(src string, i int) (body string, end int, ok bool) {
	open := -1
	switch {
	case strings.HasPrefix(src[i:], "["):
		open = i
	case strings.HasPrefix(strings.ToLower(src[i:]), "array"):
		rest := strings.TrimLeft(src[i+len("array"):], " \t\r\n")
		if strings.HasPrefix(rest, "(") {
			open = len(src) - len(rest)
		}
	}
	if open < 0 {
		return "", i, false
	}
	closeIdx := matchBracket(src, open)
	if closeIdx < 0 {
		return "", i, false
	}
	return src[open+1 : closeIdx], closeIdx + 1, true
}

// topLevel blanks everything nested inside brackets so that key lookups only
// see the outermost level. The result has the same length as body.
func topLevel(body string) string {
	out := []byte(body)
	depth := 0
	for i := 0; i < len(body); {
		if next := skipLiteral(body, i); next != i {
			if depth > 0 {
				blank(out, i, next)
			}
			i = next
			continue
		}
		c := body[i]
		if _, ok := closers[c]; ok {
			depth++
		}
		if depth > 0 {
			out[i] = ' '
		}
		if (c == ']' || c == ')' || c == '}') && depth > 0 {
			depth--
		}
		i++
	}
	return string(out)
}

func blank(b []byte, from, to int) {
	for i := from; i < to && i < len(b); i++ {
		if b[i] != '\n' {
			b[i] = ' '
		}
	}
}
