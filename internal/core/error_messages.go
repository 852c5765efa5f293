package core

// error_messages.go maps technical errors to user-facing messages with a
// support code.
//
// # Error Codes Reference
//
// Validation (VAL), one row or cell:
//
//	VAL001 - Value could not be converted to the column type
//	VAL002 - Required column missing from the row
//	VAL003 - Value violates a column constraint (enum, range, pattern)
//	VAL004 - Column given twice
//	VAL005 - Record could not be parsed (wrong field count, bad quoting)
//
// Headers (HDR), whole stream:
//
//	HDR001 - Required headers missing from the file
//	HDR002 - File has no header row and no template was chosen
//	HDR003 - Header row is empty
//
// Templates (TPL):
//
//	TPL001 - Template not found
//	TPL002 - Template declares no columns
//	TPL003 - Template document is invalid
//
// Sources (SRC):
//
//	SRC001 - File too large
//	SRC002 - Unsupported file type
//	SRC003 - Unsupported character set
//
// Ingest (ING):
//
//	ING001 - Too many ingests in progress
//	ING002 - Request cancelled
//	ING003 - Request timed out
//	ING004 - Batch rejected in strict mode
//
// Database (DB):
//
//	DB001 - Duplicate key in the destination table
//	DB002 - Database unavailable
//
// Rate limiting:
//
//	RATE001 - Too many requests
//
// ERR000 is the fallback. Message patterns are matched first (case
// insensitive, first match wins); errors that match no pattern fall back to
// the code of their Kind.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage is a user-facing rendering of an error.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{"required headers were not found", UserMessage{"Required headers are missing from the file", "Add the missing columns to the header row", "HDR001"}},
	{"no header row and no template", UserMessage{"The file has no header row", "Choose a template so columns can be named", "HDR002"}},
	{"empty header row", UserMessage{"The header row is empty", "Put the column names on the first line", "HDR003"}},
	{"has no header row", UserMessage{"The file has no header row", "Put the column names on the first line", "HDR003"}},
	{"template not found", UserMessage{"Template not found", "Check the template name", "TPL001"}},
	{"declares no columns", UserMessage{"The template declares no columns", "Add columns to the template", "TPL002"}},
	{"schema document", UserMessage{"The template document is invalid", "Fix the schema and upload it again", "TPL003"}},
	{"file too large", UserMessage{"File exceeds the maximum size", "Split the file into smaller files", "SRC001"}},
	{"unsupported file type", UserMessage{"Unsupported file type", "Upload a .csv, .tsv or .xlsx file", "SRC002"}},
	{"unsupported charset", UserMessage{"Unsupported character set", "Use utf-8, latin1 or windows-1252", "SRC003"}},
	{"too many concurrent ingests", UserMessage{"Too many files are being processed", "Wait a moment and try again", "ING001"}},
	{"context canceled", UserMessage{"The request was cancelled", "Try again", "ING002"}},
	{"context deadline exceeded", UserMessage{"The request timed out", "Try a smaller file", "ING003"}},
	{"rejected in strict mode", UserMessage{"The batch was rejected because some rows failed", "Fix the failed rows or use lenient mode", "ING004"}},
	{"duplicate key value", UserMessage{"A row with this key already exists", "Remove duplicates and try again", "DB001"}},
	{"connection refused", UserMessage{"The database is unavailable", "Try again in a few moments", "DB002"}},
	{"rate limit", UserMessage{"Too many requests", "Wait a moment before trying again", "RATE001"}},
}

var kindMessages = map[Kind]UserMessage{
	KindConversion:     {"A value could not be converted to the column type", "Check the value against the column type", "VAL001"},
	KindNotFound:       {"A required column is missing", "Fill in every required column", "VAL002"},
	KindBadValue:       {"A value is not allowed for this column", "Check the allowed values for the column", "VAL003"},
	KindDuplicateKey:   {"A column was given twice", "Remove the duplicate column", "VAL004"},
	KindParse:          {"A line could not be parsed", "Check the line's quoting and field count", "VAL005"},
	KindNotImplemented: {"The file has no header row", "Choose a template so columns can be named", "HDR002"},
}

// Code returns the support code for errors of kind k.
func (k Kind) Code() string {
	if msg, ok := kindMessages[k]; ok {
		return msg.Code
	}
	return defaultMessage.Code
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError maps err to a user message.
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

	var re *RowError
	if errors.As(err, &re) && len(re.Errs) > 0 {
		return MapError(re.Errs[0])
	}
	if msg, ok := kindMessages[KindOf(err)]; ok {
		return msg
	}
	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string { return e.User.Message }

func (e *UserError) Unwrap() error { return e.Technical }

// NewUserError wraps err with its mapped message. It returns nil for nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Technical: err, User: MapError(err)}
}
