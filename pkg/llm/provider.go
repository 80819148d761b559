package llm

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

const maxErrorBody = 500

// thinkRegex matches <think>...</think> content, including newlines.
var thinkRegex = regexp.MustCompile(`(?s)<think>.*?</think>`)

// Provider is a single text-generation endpoint.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system, user string) (string, error)
}

// APIError captures non-2xx responses to allow inspection of the status code.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "... (truncated)"
	}
	return fmt.Sprintf("api status %d: %s", e.StatusCode, body)
}

// CleanOutput strips reasoning blocks and wrapping quotes from model output.
func CleanOutput(content string) string {
	content = thinkRegex.ReplaceAllString(content, "")
	content = strings.TrimSpace(content)

	if len(content) >= 2 && strings.HasPrefix(content, "\"") && strings.HasSuffix(content, "\"") {
		content = strings.TrimSpace(content[1 : len(content)-1])
	}
	return content
}

// isNilProvider catches typed nil pointers stored in the interface.
func isNilProvider(p Provider) bool {
	v := reflect.ValueOf(p)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
