package extension

import (
	"strings"
	"unicode"
)

// token is a lexical unit of a statement. Quoted literals and identifiers
// hold their content with the quoting removed.
type token struct {
	text   string
	quoted bool
	punct  bool
}

// dollarTag returns the "$tag$" opening a dollar-quoted string at s[i:], or
// "" if there is none.
func dollarTag(s string, i int) string {
	if s[i] != '$' {
		return ""
	}
	for j := i + 1; j < len(s); j++ {
		c := rune(s[j])
		if c == '$' {
			return s[i : j+1]
		}
		if !(c == '_' || unicode.IsLetter(c) || (j > i+1 && unicode.IsDigit(c))) {
			return ""
		}
	}
	return ""
}

// skipQuoted returns the index just past the quoted section starting at
// s[i], or -1 if s[i] does not start one. Unterminated sections run to the
// end of s.
func skipQuoted(s string, i int) int {
	switch {
	case s[i] == '\'' || s[i] == '"':
		q := s[i]
		for j := i + 1; j < len(s); j++ {
			if s[j] == q {
				if j+1 < len(s) && s[j+1] == q {
					j++
					continue
				}
				return j + 1
			}
		}
		return len(s)
	case strings.HasPrefix(s[i:], "--"):
		if j := strings.IndexByte(s[i:], '\n'); j >= 0 {
			return i + j + 1
		}
		return len(s)
	case strings.HasPrefix(s[i:], "/*"):
		if j := strings.Index(s[i+2:], "*/"); j >= 0 {
			return i + 2 + j + 2
		}
		return len(s)
	}
	if tag := dollarTag(s, i); tag != "" {
		if j := strings.Index(s[i+len(tag):], tag); j >= 0 {
			return i + len(tag) + j + len(tag)
		}
		return len(s)
	}
	return -1
}

func isComment(s string, i int) bool {
	return strings.HasPrefix(s[i:], "--") || strings.HasPrefix(s[i:], "/*")
}

// splitStatements splits a script at top-level semicolons. Comments and psql
// meta-commands are dropped and each statement is trimmed.
func splitStatements(script string) []string {
	var stmts []string
	var cur strings.Builder
	flush := func() {
		if stmt := strings.TrimSpace(cur.String()); stmt != "" {
			stmts = append(stmts, stmt)
		}
		cur.Reset()
	}
	for i := 0; i < len(script); {
		if end := skipQuoted(script, i); end >= 0 {
			if isComment(script, i) {
				cur.WriteByte(' ')
			} else {
				cur.WriteString(script[i:end])
			}
			i = end
			continue
		}
		if script[i] == '\\' {
			// psql meta-command such as \echo; runs to the end of the line.
			if j := strings.IndexByte(script[i:], '\n'); j >= 0 {
				i += j + 1
			} else {
				i = len(script)
			}
			cur.WriteByte(' ')
			continue
		}
		if script[i] == ';' {
			flush()
		} else {
			cur.WriteByte(script[i])
		}
		i++
	}
	flush()
	return stmts
}

// matchingParen returns the index of the parenthesis closing s[open].
func matchingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); {
		if end := skipQuoted(s, i); end >= 0 {
			i = end
			continue
		}
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
		i++
	}
	return -1
}

// splitTopLevel splits s at sep, ignoring separators nested in parentheses or
// quotes.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); {
		if end := skipQuoted(s, i); end >= 0 {
			i = end
			continue
		}
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
		i++
	}
	if tail := s[start:]; strings.TrimSpace(tail) != "" || len(parts) > 0 {
		parts = append(parts, tail)
	}
	return parts
}

func isWordByte(c byte) bool {
	return c == '_' || c == '.' || c == '$' || c >= 0x80 ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// tokenize breaks the clauses of a statement into words, quoted literals and
// single punctuation characters.
func tokenize(s string) []token {
	var toks []token
	for i := 0; i < len(s); {
		c := s[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			i++
			continue
		}
		if end := skipQuoted(s, i); end >= 0 {
			switch {
			case isComment(s, i):
			case c == '\'':
				body := strings.TrimSuffix(s[i+1:end], "'")
				toks = append(toks, token{text: strings.ReplaceAll(body, "''", "'"), quoted: true})
			case c == '"':
				body := strings.TrimSuffix(s[i+1:end], `"`)
				toks = append(toks, token{text: strings.ReplaceAll(body, `""`, `"`)})
			default:
				tag := dollarTag(s, i)
				body := strings.TrimSuffix(s[i+len(tag):end], tag)
				toks = append(toks, token{text: body, quoted: true})
			}
			i = end
			continue
		}
		if isWordByte(c) {
			j := i
			for j < len(s) && isWordByte(s[j]) {
				j++
			}
			toks = append(toks, token{text: s[i:j]})
			i = j
			continue
		}
		toks = append(toks, token{text: s[i : i+1], punct: true})
		i++
	}
	return toks
}

// matchWords reports whether toks starts with the given words, ignoring case.
func matchWords(toks []token, words ...string) bool {
	if len(toks) < len(words) {
		return false
	}
	for i, w := range words {
		if toks[i].quoted || !strings.EqualFold(toks[i].text, w) {
			return false
		}
	}
	return true
}
