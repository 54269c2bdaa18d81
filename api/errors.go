package api

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/PaesslerAG/jsonpath"
)

// Error is a non 2xx answer of the server.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
	message    string // extracted from Body, if any
}

func newError(method, path string, code int, body []byte) *Error {
	return &Error{
		Method:     method,
		Path:       path,
		StatusCode: code,
		Body:       body,
		message:    extractMessage(body),
	}
}

func (e *Error) Error() string {
	msg := e.message
	if msg == "" {
		msg = strings.ToLower(http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

// UserMessage returns the message the server gave, or "". It is what
// backoffice.UserMessage shows for server errors.
func (e *Error) UserMessage() string { return e.message }

// messagePaths are the places servers put a human readable message, by preference.
var messagePaths = []string{
	"$.message",
	"$.detail",
	"$.error",
	"$.non_field_errors[0]",
}

// extractMessage finds a human readable message in an error body.
func extractMessage(body []byte) string {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return ""
	}
	for _, path := range messagePaths {
		jval, err := jsonpath.Get(path, v)
		if err != nil {
			continue
		}
		// jsonpath may answer a list of one
		if jlist, ok := jval.([]any); ok {
			if len(jlist) == 0 {
				continue
			}
			jval = jlist[0]
		}
		if s, ok := jval.(string); ok && s != "" {
			return s
		}
	}
	// field errors: {"barcode": ["already exists"]}
	obj, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	for _, field := range slices.Sorted(maps.Keys(obj)) {
		switch msg := obj[field].(type) {
		case []any:
			if len(msg) > 0 {
				if s, ok := msg[0].(string); ok {
					return field + ": " + s
				}
			}
		case string:
			return field + ": " + msg
		}
	}
	return ""
}
