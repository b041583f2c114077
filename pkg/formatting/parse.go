package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when a model reply holds no decodable JSON.
var ErrParseFailed = errors.New("failed to parse response")

// maxEcho bounds how much of an undecodable reply is echoed in the error.
const maxEcho = 240

var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// Parse decodes a model reply into T. It tries the reply as-is, then the body
// of the first markdown code fence, then the outermost object or array span,
// which covers replies that wrap the JSON in prose.
func Parse[T any](content string) (T, error) {
	for _, candidate := range candidates(content) {
		var result T
		if err := json.Unmarshal([]byte(candidate), &result); err == nil {
			return result, nil
		}
	}

	var zero T
	return zero, fmt.Errorf("%w: %s", ErrParseFailed, echo(content))
}

func candidates(content string) []string {
	content = strings.TrimSpace(content)
	out := []string{content}

	if m := fencePattern.FindStringSubmatch(content); len(m) == 2 {
		out = append(out, strings.TrimSpace(m[1]))
	}

	start := strings.IndexAny(content, "{[")
	end := strings.LastIndexAny(content, "}]")
	if start >= 0 && end > start {
		out = append(out, content[start:end+1])
	}

	return out
}

func echo(content string) string {
	content = strings.TrimSpace(content)
	if len(content) <= maxEcho {
		return content
	}
	return content[:maxEcho] + "..."
}
