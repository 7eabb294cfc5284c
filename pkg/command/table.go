/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package command

import (
	"strings"
	"unicode"
)

// TableName returns the first table named after a FROM keyword in query.
// A FROM at the outermost nesting level wins over one inside a subquery.
// Schema and catalog qualifiers are dropped and quoting is removed. The empty
// string is returned when no table can be found.
func TableName(query string) string {
	s := stripCommentsAndLiterals(query)
	depth := 0
	fallback := ""

	for i := 0; i < len(s); {
		ch := s[i]

		switch {
		case ch == '(':
			depth++
			i++
		case ch == ')':
			if depth > 0 {
				depth--
			}
			i++
		case ch == '"' || ch == '`' || ch == '[':
			_, end := quotedIdent(s, i)
			i = end
		case isIdentChar(ch):
			j := i
			for j < len(s) && isIdentChar(s[j]) {
				j++
			}

			if strings.EqualFold(s[i:j], "from") {
				name := qualifiedName(s[j:])
				if name != "" && depth == 0 {
					return name
				}

				if fallback == "" {
					fallback = name
				}
			}

			i = j
		default:
			i++
		}
	}

	return fallback
}

// stripCommentsAndLiterals blanks out comments and single-quoted string
// literals so keywords inside them are not matched.
func stripCommentsAndLiterals(content string) string {
	var out strings.Builder

	out.Grow(len(content))

	state := sqlScanState{}

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if state.inLineComment {
			if ch == '\n' {
				state.inLineComment = false
				out.WriteByte(ch)
			}

			continue
		}

		if state.inBlockComment {
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				state.inBlockComment = false
				out.WriteByte(' ')
				i++
			}

			continue
		}

		if state.inSingleQuote {
			if ch == '\'' {
				state.inSingleQuote = false
			}

			out.WriteByte(' ')

			continue
		}

		switch {
		case ch == '-' && i+1 < len(content) && content[i+1] == '-':
			state.inLineComment = true
			i++
		case ch == '/' && i+1 < len(content) && content[i+1] == '*':
			state.inBlockComment = true
			i++
		case ch == '\'':
			state.inSingleQuote = true
			out.WriteByte(' ')
		default:
			out.WriteByte(ch)
		}
	}

	return out.String()
}

type sqlScanState struct {
	inSingleQuote  bool
	inLineComment  bool
	inBlockComment bool
}

// qualifiedName reads an optionally qualified identifier such as
// catalog.schema."Table" from the start of s and returns its last part.
func qualifiedName(s string) string {
	i := 0
	for i < len(s) && unicode.IsSpace(rune(s[i])) {
		i++
	}

	last := ""

	for i < len(s) {
		var part string

		switch ch := s[i]; {
		case ch == '"' || ch == '`' || ch == '[':
			part, i = quotedIdent(s, i)
		case isIdentChar(ch):
			j := i
			for j < len(s) && isIdentChar(s[j]) {
				j++
			}

			part, i = s[i:j], j
		default:
			return last
		}

		last = part

		if i >= len(s) || s[i] != '.' {
			break
		}

		i++
	}

	return last
}

// quotedIdent returns the content of the quoted identifier starting at s[i]
// and the index just past its closing quote.
func quotedIdent(s string, i int) (string, int) {
	closing := s[i]
	if closing == '[' {
		closing = ']'
	}

	end := strings.IndexByte(s[i+1:], closing)
	if end < 0 {
		return s[i+1:], len(s)
	}

	return s[i+1 : i+1+end], i + end + 2
}

func isIdentChar(ch byte) bool {
	return ch == '_' || ch == '$' || ch == '#' || ch == '@' ||
		unicode.IsLetter(rune(ch)) || unicode.IsDigit(rune(ch)) || ch >= 0x80
}
