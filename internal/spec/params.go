package spec

import (
	"errors"
	"strconv"
	"strings"
)

// errUnterminatedQuote is mapped to a SyntaxError by the parser.
var errUnterminatedQuote = errors.New("unterminated quoted literal")

// stopwords are never used as inferred parameter names.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true,
	"is": true, "are": true, "was": true, "were": true,
	"has": true, "have": true, "had": true,
	"with": true, "and": true, "or": true, "to": true, "of": true,
	"in": true, "on": true, "at": true, "for": true, "by": true,
	"there": true, "no": true, "not": true, "than": true,
	"exactly": true, "then": true, "when": true, "given": true,
}

// extractParams scans a statement for literal parameters: double-quoted
// substrings (string), bare numeric tokens (number), and bare true/false
// tokens (boolean). Each parameter is named after the nearest preceding
// non-stopword word, falling back to argN.
func extractParams(statement string) ([]Param, error) {
	var params []Param
	lastNoun := ""
	used := map[string]int{}

	name := func() string {
		n := lastNoun
		if n == "" {
			n = "arg" + strconv.Itoa(len(params)+1)
		}
		used[n]++
		if used[n] > 1 {
			n += strconv.Itoa(used[n])
		}
		return n
	}

	i := 0
	for i < len(statement) {
		c := statement[i]

		if c == '"' {
			end := strings.IndexByte(statement[i+1:], '"')
			if end < 0 {
				return nil, errUnterminatedQuote
			}
			value := statement[i+1 : i+1+end]
			params = append(params, Param{Name: name(), Type: TypeString, Value: value})
			i += end + 2
			continue
		}

		if c == ' ' || c == '\t' {
			i++
			continue
		}

		// Bare word or numeric token.
		j := i
		for j < len(statement) && statement[j] != ' ' && statement[j] != '\t' && statement[j] != '"' {
			j++
		}
		token := statement[i:j]
		i = j

		word := strings.Trim(token, ",:;!?")
		switch {
		case word == "true" || word == "false":
			params = append(params, Param{Name: name(), Type: TypeBool, Value: word == "true"})
		case isNumericToken(word):
			v, err := strconv.ParseFloat(word, 64)
			if err == nil {
				params = append(params, Param{Name: name(), Type: TypeNumber, Value: v})
			}
		default:
			if w := wordForName(word); w != "" && !stopwords[w] {
				lastNoun = w
			}
		}
	}

	return params, nil
}

// isNumericToken reports whether a bare token is an integer or decimal
// literal, optionally signed.
func isNumericToken(s string) bool {
	if s == "" {
		return false
	}
	body := s
	if body[0] == '-' || body[0] == '+' {
		body = body[1:]
	}
	if body == "" {
		return false
	}
	dot := false
	for i := 0; i < len(body); i++ {
		switch {
		case body[i] >= '0' && body[i] <= '9':
		case body[i] == '.' && !dot && i > 0 && i < len(body)-1:
			dot = true
		default:
			return false
		}
	}
	return true
}

// wordForName lowercases a word and strips non-alphanumeric runes so it
// can serve as an inferred parameter name.
func wordForName(word string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(word) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
