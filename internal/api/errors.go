package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Error is a non-2xx answer from the backend, surfaced unchanged.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
	Server     ServerError
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s -> %d: %s", e.Method, e.Path, e.StatusCode, e.Server.Message(e.statusText()))
}

func (e *Error) statusText() string {
	body := strings.TrimSpace(string(e.Body))
	if body == "" {
		body = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("Error %d: %s", e.StatusCode, body)
}

type ServerErrorKind int

const (
	ServerUnknown ServerErrorKind = iota
	ServerMessage
	ServerList
	ServerFields
)

// ServerError is the decoded error body. Exactly one of Text, Items or
// Fields is meaningful, selected by Kind.
type ServerError struct {
	Kind   ServerErrorKind
	Text   string
	Items  []string
	Fields map[string][]string
}

// ParseServerError recognises, in order: a "message" (string or list), an
// "error" string, an "errors" list, an "errors" object of field messages.
// Anything else is ServerUnknown.
func ParseServerError(body []byte) ServerError {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return ServerError{}
	}

	if se, ok := textOrList(raw["message"]); ok {
		return se
	}
	if se, ok := textOrList(raw["error"]); ok {
		return se
	}

	errs, ok := raw["errors"]
	if !ok {
		return ServerError{}
	}
	if se, ok := textOrList(errs); ok {
		return se
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(errs, &obj); err == nil && len(obj) > 0 {
		fields := make(map[string][]string, len(obj))
		for k, v := range obj {
			fields[k] = flatten(v)
		}
		return ServerError{Kind: ServerFields, Fields: fields}
	}
	return ServerError{}
}

func textOrList(v json.RawMessage) (ServerError, bool) {
	if len(v) == 0 {
		return ServerError{}, false
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if s == "" {
			return ServerError{}, false
		}
		return ServerError{Kind: ServerMessage, Text: s}, true
	}
	var list []json.RawMessage
	if err := json.Unmarshal(v, &list); err == nil {
		var items []string
		for _, item := range list {
			items = append(items, flatten(item)...)
		}
		if len(items) == 0 {
			return ServerError{}, false
		}
		return ServerError{Kind: ServerList, Items: items}, true
	}
	return ServerError{}, false
}

// flatten turns a string, a number or a (nested) list of them into strings.
func flatten(v json.RawMessage) []string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return []string{s}
	}
	var list []json.RawMessage
	if err := json.Unmarshal(v, &list); err == nil {
		var out []string
		for _, item := range list {
			out = append(out, flatten(item)...)
		}
		return out
	}
	return []string{strings.TrimSpace(string(v))}
}

// Message renders the error for a toast; fallback is used for ServerUnknown.
func (s ServerError) Message(fallback string) string {
	switch s.Kind {
	case ServerMessage:
		return s.Text
	case ServerList:
		return strings.Join(s.Items, ", ")
	case ServerFields:
		keys := make([]string, 0, len(s.Fields))
		for k := range s.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var parts []string
		for _, k := range keys {
			parts = append(parts, s.Fields[k]...)
		}
		return strings.Join(parts, ", ")
	}
	return fallback
}

// ErrorMessage is the user-facing text for any error returned by the client.
// An empty fallback falls through to "Error <status>: <body>".
func ErrorMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if fallback == "" {
			fallback = apiErr.statusText()
		}
		return apiErr.Server.Message(fallback)
	}
	return err.Error()
}

// IsUnauthorized reports a 401 from the backend, i.e. an invalid session.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
