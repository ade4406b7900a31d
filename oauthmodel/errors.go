package oauthmodel

import (
	"encoding/json"
	"strings"
)

// ErrorResponse is the error body of the API: {"detail": ...}. Detail is a
// string for application errors and a list of {loc, msg, type} objects for
// request validation errors.
type ErrorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

type validationIssue struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// Message returns the human readable detail, or "" if there is none.
func (er ErrorResponse) Message() string {
	if len(er.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(er.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var issues []validationIssue
	if err := json.Unmarshal(er.Detail, &issues); err == nil && len(issues) > 0 {
		return strings.TrimSpace(issues[0].Msg)
	}
	return ""
}
