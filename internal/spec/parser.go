package spec

import (
	"os"
	"strings"
)

// isSeparatorLine returns true if the line consists only of ;= characters.
// Separator lines are decorative and skipped by the parser.
func isSeparatorLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) == 0 {
		return false
	}
	for _, c := range trimmed {
		if c != ';' && c != '=' {
			return false
		}
	}
	return true
}

// isCommentLine returns true if the line is a ; comment (not a separator).
func isCommentLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, ";") && !isSeparatorLine(trimmed)
}

// commentText strips the ; prefix and surrounding whitespace.
func commentText(line string) string {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimPrefix(trimmed, ";")
	return strings.TrimSpace(trimmed)
}

// parseKeyword extracts a GIVEN/WHEN/THEN keyword and remaining text from
// a line. Keywords are case-sensitive and must be followed by whitespace.
// Returns empty keyword if the line doesn't start with a known keyword.
func parseKeyword(line string) (keyword Kind, text string) {
	trimmed := strings.TrimSpace(line)
	for _, kw := range []Kind{Given, When, Then} {
		rest, ok := strings.CutPrefix(trimmed, string(kw))
		if !ok {
			continue
		}
		if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
			continue
		}
		return kw, strings.TrimSpace(rest)
	}
	return "", trimmed
}

// lastToken returns the final whitespace-separated token of a line, used
// to identify the offender in syntax errors.
func lastToken(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// Parse parses spec file content into a File. It is a pure function: no
// I/O, no mutation of its inputs. The first error encountered is returned
// as a *SyntaxError; the file is rejected as a whole.
//
// Comment placement is positional: the leading comment block becomes the
// file description, and the comment line directly above a scenario's
// first step becomes that scenario's description. Comment lines anywhere
// else (between steps, or trailing a scenario) are ignored.
func Parse(content string, path string) (*File, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")

	f := &File{Path: path}

	var cur *Scenario
	// Comment lines seen since the last blank line; the last one becomes
	// the next scenario's description.
	var pending []string
	seenStep := false

	endScenario := func(line int) error {
		if cur == nil {
			return nil
		}
		if err := validateScenario(path, cur); err != nil {
			return err
		}
		f.Scenarios = append(f.Scenarios, *cur)
		cur = nil
		return nil
	}

	for i, line := range lines {
		lineNum := i + 1

		if strings.TrimSpace(line) == "" {
			if err := endScenario(lineNum); err != nil {
				return nil, err
			}
			// Comments orphaned before any step belong to the file
			// description.
			if !seenStep && len(pending) > 0 {
				f.Description = joinDescription(f.Description, pending)
			}
			pending = nil
			continue
		}

		if isSeparatorLine(line) {
			continue
		}

		if isCommentLine(line) {
			pending = append(pending, commentText(line))
			continue
		}

		keyword, text := parseKeyword(line)
		if keyword == "" {
			// A bare line directly after a THEN step is a continuation
			// THEN step without a repeated keyword.
			if cur != nil && len(cur.Steps) > 0 && cur.Steps[len(cur.Steps)-1].Kind == Then {
				keyword = Then
			} else {
				return nil, &SyntaxError{
					Path: path, Line: lineNum, Token: lastToken(line),
					Code:    CodeBareText,
					Message: "statement text without a GIVEN/WHEN/THEN keyword",
				}
			}
		}

		step, err := parseStep(path, lineNum, keyword, text)
		if err != nil {
			return nil, err
		}

		if cur == nil {
			cur = &Scenario{Line: lineNum}
			if len(pending) > 0 {
				cur.Description = pending[len(pending)-1]
				if len(pending) > 1 {
					f.Description = joinDescription(f.Description, pending[:len(pending)-1])
				}
				cur.Line = lineNum
			}
			pending = nil
		}

		if err := checkOrder(path, lineNum, cur, step.Kind); err != nil {
			return nil, err
		}

		cur.Steps = append(cur.Steps, step)
		seenStep = true
	}

	if err := endScenario(len(lines)); err != nil {
		return nil, err
	}

	if len(f.Scenarios) == 0 {
		return nil, &SyntaxError{
			Path: path, Line: 1,
			Code:    CodeEmptySpec,
			Message: "spec file contains no scenarios",
		}
	}

	return f, nil
}

// parseStep validates the statement text and extracts literal parameters.
func parseStep(path string, line int, kind Kind, text string) (Step, error) {
	if !strings.HasSuffix(text, ".") {
		return Step{}, &SyntaxError{
			Path: path, Line: line, Token: lastToken(text),
			Code:    CodeMissingPeriod,
			Message: "statement is not terminated by a period",
		}
	}
	statement := strings.TrimSuffix(text, ".")
	if strings.TrimSpace(statement) == "" {
		return Step{}, &SyntaxError{
			Path: path, Line: line, Token: ".",
			Code:    CodeBareText,
			Message: "statement has no text before the period",
		}
	}

	params, err := extractParams(statement)
	if err != nil {
		return Step{}, &SyntaxError{
			Path: path, Line: line, Token: `"`,
			Code:    CodeUnterminatedQuote,
			Message: "unterminated quoted literal",
		}
	}

	return Step{Kind: kind, Statement: statement, Params: params, Line: line}, nil
}

// checkOrder enforces GIVEN* WHEN+ THEN+ ordering as steps are appended.
func checkOrder(path string, line int, sc *Scenario, next Kind) error {
	if len(sc.Steps) == 0 {
		if next == Then {
			return &SyntaxError{
				Path: path, Line: line, Token: string(Then),
				Code:    CodeKeywordOrder,
				Message: "THEN step before any WHEN step",
			}
		}
		return nil
	}
	last := sc.Steps[len(sc.Steps)-1].Kind
	switch next {
	case Given:
		if last != Given {
			return &SyntaxError{
				Path: path, Line: line, Token: string(Given),
				Code:    CodeKeywordOrder,
				Message: "GIVEN step after " + string(last),
			}
		}
	case When:
		if last == Then {
			return &SyntaxError{
				Path: path, Line: line, Token: string(When),
				Code:    CodeKeywordOrder,
				Message: "WHEN step after THEN",
			}
		}
	case Then:
		if last == Given {
			return &SyntaxError{
				Path: path, Line: line, Token: string(Then),
				Code:    CodeKeywordOrder,
				Message: "THEN step before any WHEN step",
			}
		}
	}
	return nil
}

// validateScenario enforces the WHEN+ THEN+ minimums at scenario end.
func validateScenario(path string, sc *Scenario) error {
	var whens, thens int
	for _, st := range sc.Steps {
		switch st.Kind {
		case When:
			whens++
		case Then:
			thens++
		}
	}
	if whens == 0 {
		return &SyntaxError{
			Path: path, Line: sc.Line, Token: string(When),
			Code:    CodeMissingWhen,
			Message: "scenario has no WHEN step",
		}
	}
	if thens == 0 {
		return &SyntaxError{
			Path: path, Line: sc.Line, Token: string(Then),
			Code:    CodeMissingThen,
			Message: "scenario has no THEN step",
		}
	}
	return nil
}

func joinDescription(existing string, lines []string) string {
	joined := strings.Join(lines, " ")
	if existing == "" {
		return joined
	}
	return existing + " " + joined
}

// ParseFileImpl reads a spec file from disk and parses it.
// This is an Impl function exempt from coverage requirements.
func ParseFileImpl(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data), path)
}
