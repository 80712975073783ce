package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"AlphaScreener/internal/domain"
	"AlphaScreener/internal/ports"
)

var (
	fencedObject  = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(\\{.*\\})\\s*```")
	trailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// Judge sends prompt to the completer and decodes the JSON object in its
// answer into T. The decoded value is not validated here; stage services
// normalize it.
func Judge[T any](ctx context.Context, ai ports.Completer, prompt string) (T, error) {
	var out T
	if ai == nil {
		return out, errors.New("completer is not configured")
	}

	completion, err := ai.Complete(ctx, prompt)
	if err != nil {
		return out, fmt.Errorf("complete prompt: %w", err)
	}

	payload := ExtractJSON(completion)
	if payload == "" {
		return out, domain.ErrNoJSON
	}
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return out, fmt.Errorf("%w: %v", domain.ErrNoJSON, err)
	}
	return out, nil
}

// ExtractJSON returns the first JSON object in a completion, preferring a
// fenced code block. Line comments and trailing commas are removed. It
// returns "" when no object is present.
func ExtractJSON(completion string) string {
	var raw string
	if m := fencedObject.FindStringSubmatch(completion); len(m) > 1 {
		raw = m[1]
	} else {
		start := strings.Index(completion, "{")
		end := strings.LastIndex(completion, "}")
		if start < 0 || end < start {
			return ""
		}
		raw = completion[start : end+1]
	}

	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		lines[i] = stripComment(line)
	}
	return trailingComma.ReplaceAllString(strings.Join(lines, "\n"), "$1")
}

// stripComment cuts a // comment that starts outside a string literal.
func stripComment(line string) string {
	if !strings.Contains(line, "//") {
		return line
	}
	inString, escaped := false, false
	for i := 0; i < len(line); i++ {
		switch ch := line[i]; {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case !inString && ch == '/' && i+1 < len(line) && line[i+1] == '/':
			return strings.TrimRight(line[:i], " \t")
		}
	}
	return line
}
