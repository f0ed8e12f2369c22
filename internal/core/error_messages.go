package core

// # Error Codes Reference
//
// Users quote these codes to support. Codes are grouped by category:
//
// # Scene Errors (SCN001-SCN099)
//
//	SCN001 - Malformed record: a recognized line has the wrong shape
//	         Action: Re-export the scene from the console
//	         Source: scene.ErrMalformedRecord (message names the line)
//
//	SCN002 - Unreadable scene: the file could not be read as text records
//	         Action: Upload the .scn file exported by the console
//	         Source: scene.ErrUnreadable
//
//	SCN003 - Invalid bank: AES50 bank other than A or B
//	         Source: scene.ErrInvalidBank
//
//	SCN004 - Unknown type: channel or output type not on the console
//	         Source: scene.ErrUnknownType
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Scene too large        Source: ErrSceneTooLarge, "file too large"
//	FILE002 - Bad upload form        Patterns: "invalid upload form"
//	FILE004 - No file                Source: ErrNoScene, "no file provided"
//	FILE005 - Empty file             Source: ErrEmptyScene, "empty file"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy             Source: ErrTooManyParses
//	UPL004 - Request cancelled       Source: context.Canceled
//	UPL005 - Request timeout         Source: context.DeadlineExceeded
//
// # Access Errors
//
//	RATE001 - Rate limited           Patterns: "rate limit"
//	AUTH001 - Missing API key        Patterns: "missing api key"
//	AUTH002 - Invalid API key        Patterns: "invalid api key"
//
// # History Errors
//
//	DB004 - History store unavailable  Source: ErrHistoryUnavailable, "connection refused"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the logs for the technical error.
//
// Sentinels are checked with errors.Is first, in table order, so wrapped
// errors map correctly. Text patterns are a fallback for errors that cross
// a boundary as strings (driver errors, middleware).

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/scnpatch/internal/scene"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type sentinelMessage struct {
	target error
	msg    UserMessage
}

// sentinelMessages is ordered: ErrSceneTooLarge surfaces wrapped inside
// scene.ErrUnreadable and must win.
var sentinelMessages = []sentinelMessage{
	{ErrSceneTooLarge, UserMessage{
		Message: "Scene file exceeds the maximum upload size",
		Action:  "Upload a single scene export rather than a show archive",
		Code:    "FILE001",
	}},
	{ErrNoScene, UserMessage{
		Message: "No scene file was selected",
		Action:  "Please choose a .scn file to upload",
		Code:    "FILE004",
	}},
	{ErrEmptyScene, UserMessage{
		Message: "The uploaded scene file is empty",
		Action:  "Re-export the scene from the console and upload it again",
		Code:    "FILE005",
	}},
	{scene.ErrMalformedRecord, UserMessage{
		Message: "The scene file contains a malformed line",
		Action:  "Re-export the scene from the console",
		Code:    "SCN001",
	}},
	{scene.ErrUnreadable, UserMessage{
		Message: "The scene file could not be read",
		Action:  "Upload the .scn file exported by the console",
		Code:    "SCN002",
	}},
	{scene.ErrInvalidBank, UserMessage{
		Message: "AES50 bank must be A or B",
		Action:  "Choose bank A or B",
		Code:    "SCN003",
	}},
	{scene.ErrUnknownType, UserMessage{
		Message: "Unknown channel or output type",
		Action:  "Use one of the console's port types",
		Code:    "SCN004",
	}},
	{ErrTooManyParses, UserMessage{
		Message: "System is busy processing other scenes",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}},
	{context.Canceled, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Request timed out",
		Action:  "Try again or check your connection",
		Code:    "UPL005",
	}},
	{ErrHistoryUnavailable, UserMessage{
		Message: "Upload history is unavailable",
		Action:  "Please try again in a few moments",
		Code:    "DB004",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns are matched case-insensitively with strings.Contains; the
// first match wins.
var errorPatterns = []errorPattern{
	{"file too large", sentinelMessages[0].msg},
	{"no file provided", sentinelMessages[1].msg},
	{"empty file", sentinelMessages[2].msg},
	{
		pattern: "invalid upload form",
		msg: UserMessage{
			Message: "The upload could not be read",
			Action:  "Choose the scene file again and resubmit the form",
			Code:    "FILE002",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
	{
		pattern: "missing api key",
		msg: UserMessage{
			Message: "API key required",
			Action:  "Send your key in the X-API-Key header",
			Code:    "AUTH001",
		},
	},
	{
		pattern: "invalid api key",
		msg: UserMessage{
			Message: "API key not recognized",
			Action:  "Check the key with your administrator",
			Code:    "AUTH002",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Upload history is unavailable",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
//	_, err := svc.ParseScene(ctx, upload)
//	msg := MapError(err)
//	// msg.Code == "SCN001"
//	// msg.Message == "Line 12 of the scene file is malformed"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.target) {
			msg := sm.msg
			var mre *scene.MalformedRecordError
			if sm.target == scene.ErrMalformedRecord && errors.As(err, &mre) {
				msg.Message = fmt.Sprintf("Line %d of the scene file is malformed", mre.Line)
			}
			return msg
		}
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

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error, kept for logging, with its user
// message.
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

// NewUserError maps err and wraps it. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
