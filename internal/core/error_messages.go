package core

// error_messages.go maps technical errors to user-facing messages with codes.
//
// Codes are grouped by category:
//
//	SCH001 - Missing column: a required column is absent after mapping
//	         Patterns: "missing required column"
//	SCH002 - Duplicate target: two source columns map to the same name
//	         Patterns: "duplicate mapping target"
//	RES001 - Unknown row: the row was ignored or never existed
//	         Patterns: "unknown row"
//	RES002 - Unknown column: the column is not part of the table
//	         Patterns: "unknown column"
//	FILE001 - Empty file: the source has no header row
//	          Patterns: "empty source"
//	FILE002 - Unsupported format: only csv, tsv, txt and xlsx are read
//	          Patterns: "unsupported source format"
//	FILE003 - Invalid CSV: the source could not be parsed
//	          Patterns: "parse error", "wrong number of fields", "bare \" in non-quoted-field"
//	FILE004 - Not found: the path does not exist
//	          Patterns: "no such file"
//	FILE005 - Too large: the source exceeds the configured size limit
//	          Patterns: "file too large"
//	PLAN001 - Invalid plan: the resolution plan could not be read
//	          Patterns: "plan:"
//	GEO001 - Geocoder timeout
//	         Patterns: "geocoder timed out"
//	GEO002 - Geocoder unavailable
//	         Patterns: "geocoder unavailable"
//	ERR000 - Unknown error: fallback when nothing matches
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "A required column is missing",
			Action:  "Map a source column to it or add it to the file",
			Code:    "SCH001",
		},
	},
	{
		pattern: "duplicate mapping target",
		msg: UserMessage{
			Message: "Two columns are mapped to the same name",
			Action:  "Change the mapping so every target is used once",
			Code:    "SCH002",
		},
	},
	{
		pattern: "unknown row",
		msg: UserMessage{
			Message: "The row is no longer part of the working table",
			Action:  "Re-run the check and edit only rows it lists",
			Code:    "RES001",
		},
	},
	{
		pattern: "unknown column",
		msg: UserMessage{
			Message: "The column does not exist",
			Action:  "Check the column name against the inspect output",
			Code:    "RES002",
		},
	},
	{
		pattern: "empty source",
		msg: UserMessage{
			Message: "The file is empty",
			Action:  "Provide a file with a header row",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported source format",
		msg: UserMessage{
			Message: "The file type is not supported",
			Action:  "Use a .csv, .tsv, .txt or .xlsx file",
			Code:    "FILE002",
		},
	},
	{
		pattern: "parse error",
		msg: UserMessage{
			Message: "The file is not valid delimited text",
			Action:  "Check quoting and delimiters in the file",
			Code:    "FILE003",
		},
	},
	{
		pattern: "bare \" in non-quoted-field",
		msg: UserMessage{
			Message: "The file is not valid delimited text",
			Action:  "Check quoting and delimiters in the file",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: "The file was not found",
			Action:  "Check the path",
			Code:    "FILE004",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "The file is larger than the configured limit",
			Action:  "Split the file or raise INGEST_MAX_FILE_SIZE",
			Code:    "FILE005",
		},
	},
	{
		pattern: "plan:",
		msg: UserMessage{
			Message: "The resolution plan is invalid",
			Action:  "Fix the plan file and try again",
			Code:    "PLAN001",
		},
	},
	{
		pattern: "geocoder timed out",
		msg: UserMessage{
			Message: "The geocoding service timed out",
			Action:  "Retry later or disable geocoding",
			Code:    "GEO001",
		},
	},
	{
		pattern: "geocoder unavailable",
		msg: UserMessage{
			Message: "The geocoding service is unavailable",
			Action:  "Retry later or disable geocoding",
			Code:    "GEO002",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Run again with --log-level debug for details",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, the generic ERR000 message is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
