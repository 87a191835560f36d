package odl

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// APIError is returned for non-2xx responses. Body holds the decoded JSON
// payload when the server sent one, which is how validation errors arrive
// (field name to list of messages).
type APIError struct {
	Method string
	Path   string
	Status int
	Body   map[string]any
	Raw    string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.Status)
	if fields := e.FieldErrors(); len(fields) > 0 {
		parts := make([]string, 0, len(fields))
		for field, errs := range fields {
			parts = append(parts, field+": "+strings.Join(errs, ", "))
		}
		sort.Strings(parts)
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	return msg
}

// FieldErrors returns validation messages keyed by field. Non-list values
// are stringified.
func (e *APIError) FieldErrors() map[string][]string {
	if len(e.Body) == 0 {
		return nil
	}
	out := make(map[string][]string, len(e.Body))
	for field, value := range e.Body {
		switch v := value.(type) {
		case []any:
			for _, item := range v {
				out[field] = append(out[field], fmt.Sprint(item))
			}
		case string:
			out[field] = []string{v}
		default:
			out[field] = []string{fmt.Sprint(v)}
		}
	}
	return out
}

func newAPIError(method, path string, status int, raw []byte) *APIError {
	apiErr := &APIError{Method: method, Path: path, Status: status, Raw: strings.TrimSpace(string(raw))}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.Body = body
	}
	return apiErr
}
