package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Failure kinds surfaced by parsing and lookup. Callers match with errors.Is.
var (
	// ErrEmptyInput means no non-blank line remained.
	ErrEmptyInput = errors.New("empty file: no non-blank lines")

	// ErrEmptyHeader means the header line produced no named column.
	ErrEmptyHeader = errors.New("empty header: header line has no columns")

	// ErrNotFound means a cache id is absent or expired.
	ErrNotFound = errors.New("data not found or expired")

	// ErrUnsupportedInput means the payload was rejected before parsing.
	ErrUnsupportedInput = errors.New("unsupported input")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

const codeUnknown = "ERR000"

// catalog holds every message a user can see, keyed by support code.
var catalog = map[string]UserMessage{
	"FILE001": {Message: "File exceeds the maximum upload size", Action: "Split the file into smaller chunks"},
	"FILE002": {Message: "Only CSV files are accepted", Action: "Upload a file with a .csv extension"},
	"FILE003": {Message: "File is not recognizable text", Action: "Save the file as UTF-8 text"},
	"FILE004": {Message: "No file was selected", Action: "Please select a CSV file to upload"},
	"FILE005": {Message: "The uploaded file is empty", Action: "Please upload a CSV file with a header line"},
	"FILE006": {Message: "The header line has no column names", Action: "Add a header line naming every column"},
	"DATA001": {Message: "Data not found or expired", Action: "Upload the file again"},
	"UPL002":  {Message: "Too many uploads in progress", Action: "Please wait a moment and try again"},
	"UPL004":  {Message: "Request was cancelled", Action: "Please try again"},
	"UPL005":  {Message: "Request timed out", Action: "Try uploading a smaller file or check your connection"},
	"RATE001": {Message: "Too many requests", Action: "Please wait a moment before trying again"},

	codeUnknown: {Message: "An unexpected error occurred", Action: "Please try again or contact support"},
}

// sentinelCodes are checked with errors.Is before any text matching.
// ErrUnsupportedInput is absent: its code depends on the wrapped detail.
var sentinelCodes = []struct {
	target error
	code   string
}{
	{ErrEmptyInput, "FILE005"},
	{ErrEmptyHeader, "FILE006"},
	{ErrNotFound, "DATA001"},
	{ErrTooManyUploads, "UPL002"},
	{context.Canceled, "UPL004"},
	{context.DeadlineExceeded, "UPL005"},
}

// textCodes match lower-cased error text for errors created outside this
// package, such as net/http body limits. First match wins.
var textCodes = []struct {
	substr string
	code   string
}{
	{"file too large", "FILE001"},
	{"request body too large", "FILE001"},
	{"only csv files", "FILE002"},
	{"invalid csv", "FILE002"},
	{"encoding error", "FILE003"},
	{"no file provided", "FILE004"},
	{"empty file", "FILE005"},
	{"empty header", "FILE006"},
	{"not found or expired", "DATA001"},
	{"too many concurrent uploads", "UPL002"},
	{"context canceled", "UPL004"},
	{"context deadline exceeded", "UPL005"},
	{"rate limit", "RATE001"},
}

func message(code string) UserMessage {
	m := catalog[code]
	m.Code = code
	return m
}

// MapError converts a technical error to a user-friendly message. Unknown
// errors get the generic ERR000 message; nil gets the zero value.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sc := range sentinelCodes {
		if errors.Is(err, sc.target) {
			return message(sc.code)
		}
	}

	text := strings.ToLower(err.Error())
	for _, tc := range textCodes {
		if strings.Contains(text, tc.substr) {
			return message(tc.code)
		}
	}

	return message(codeUnknown)
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != codeUnknown
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging while providing a clean message for users.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error to a user-friendly message.
// Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
