package richmenu

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ValidationResult reports whether layout text is syntactically valid JSON.
// Line is 1-based and best effort; 0 means the position is unknown.
type ValidationResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
	Line  int    `json:"line,omitempty"`
}

var lineInMessage = regexp.MustCompile(`(?i)line (\d+)`)

// Validate reparses the full layout text on every call. Any well-formed JSON
// document passes; schema problems surface later, at deploy time, exactly as
// the LINE API reports them.
func Validate(text string) ValidationResult {
	var doc any
	err := json.Unmarshal([]byte(text), &doc)
	if err == nil {
		return ValidationResult{Valid: true}
	}

	return ValidationResult{
		Valid: false,
		Error: err.Error(),
		Line:  errorLine(text, err),
	}
}

// errorLine extracts a 1-based line number from a parse error.
// The parser message is checked for a "line N" fragment first; failing that,
// the line is computed from the syntax error byte offset.
func errorLine(text string, err error) int {
	if m := lineInMessage.FindStringSubmatch(err.Error()); m != nil {
		if n, convErr := strconv.Atoi(m[1]); convErr == nil {
			return n
		}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) && syntaxErr.Offset > 0 {
		offset := int(syntaxErr.Offset)
		if offset > len(text) {
			offset = len(text)
		}
		return 1 + strings.Count(text[:offset], "\n")
	}

	return 0
}
