package core

// error_messages.go maps technical errors to user-facing messages.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. When users encounter errors, they can quote the error code
// to support staff for faster diagnosis.
//
// Error codes are grouped by category:
//
// # Extraction Errors (EXT001-EXT099)
//
//	EXT001 - No table found in the uploaded PDF
//	EXT002 - Image extraction not implemented
//	EXT003 - Unsupported file format
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key: a record with this ID already exists
//	DB002 - Foreign key: referenced donor does not exist
//	DB003 - Connection refused: unable to connect to database
//	DB004 - Timeout: operation timed out
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	FILE002 - No file provided
//	FILE003 - Empty file
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled
//	REQ002 - Request timed out
//	REQ003 - Rate limited
//	REQ004 - Too many concurrent imports
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches. Support staff should check
// application logs for the original technical error when users report
// ERR000.
//
// Error patterns are matched case-insensitively using strings.Contains;
// the first matching pattern wins, so more specific patterns come first.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable
// guidance. The message texts are German because the lab staff using
// the dashboard work in German.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// Fixed messages for the three extraction failure variants. The texts
// are stable API for the front-end and must not be reworded casually.
var (
	msgNoTableFound = UserMessage{
		Message: "Fehler beim Parsen der PDF-Datei. Stellen Sie sicher, dass die PDF Tabellendaten enthält.",
		Action:  "Prüfen Sie die Datei oder erfassen Sie die Daten manuell",
		Code:    "EXT001",
	}
	msgNotImplemented = UserMessage{
		Message: "Bildverarbeitung noch nicht implementiert. Bitte verwenden Sie PDF-Dateien.",
		Action:  "Laden Sie die Tabelle als PDF hoch",
		Code:    "EXT002",
	}
	msgUnsupportedFormat = UserMessage{
		Message: "Nur PDF- und JPEG-Dateien werden unterstützt.",
		Action:  "Laden Sie eine PDF- oder JPEG-Datei hoch",
		Code:    "EXT003",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to
// user messages. Matched with strings.Contains, first match wins.
var errorPatterns = []errorPattern{
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "Ein Datensatz mit dieser ID existiert bereits",
			Action:  "Prüfen Sie die gespeicherten Analysen",
			Code:    "DB001",
		},
	},
	{
		pattern: "foreign key",
		msg: UserMessage{
			Message: "Der zugehörige Spender wurde nicht gefunden",
			Action:  "Legen Sie den Spender zuerst an",
			Code:    "DB002",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Keine Verbindung zur Datenbank",
			Action:  "Bitte versuchen Sie es in einigen Minuten erneut",
			Code:    "DB003",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Die Anfrage hat zu lange gedauert",
			Action:  "Bitte versuchen Sie es erneut",
			Code:    "REQ002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Zeitüberschreitung bei der Verarbeitung",
			Action:  "Bitte versuchen Sie es erneut",
			Code:    "DB004",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "Die Datei überschreitet die maximale Größe",
			Action:  "Laden Sie eine kleinere Datei hoch",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "Es wurde keine Datei ausgewählt",
			Action:  "Wählen Sie eine PDF-Datei aus",
			Code:    "FILE002",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "Die hochgeladene Datei ist leer",
			Action:  "Laden Sie eine Datei mit Tabellendaten hoch",
			Code:    "FILE003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Die Anfrage wurde abgebrochen",
			Action:  "Bitte versuchen Sie es erneut",
			Code:    "REQ001",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Zu viele Anfragen",
			Action:  "Bitte warten Sie einen Moment",
			Code:    "REQ003",
		},
	},
	{
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "Zu viele gleichzeitige Importe",
			Action:  "Bitte warten Sie, bis laufende Importe abgeschlossen sind",
			Code:    "REQ004",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "Ein unerwarteter Fehler ist aufgetreten",
	Action:  "Bitte versuchen Sie es erneut oder kontaktieren Sie den Support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. The
// three extraction sentinels map to their fixed texts; everything else
// goes through the pattern table, falling back to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	switch {
	case errors.Is(err, ErrNoTableFound):
		return msgNoTableFound
	case errors.Is(err, ErrNotImplemented):
		return msgNotImplemented
	case errors.Is(err, ErrUnsupportedFormat):
		return msgUnsupportedFormat
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

// IsUserFacing checks if an error matches a known pattern and should be
// shown to users as-is, rather than replaced by the generic fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message. The
// original error stays available for logging via Unwrap.
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

// NewUserError creates a UserError by mapping a technical error to a
// user-friendly message. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
