package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "no table found uses fixed text",
			err:         ErrNoTableFound,
			wantCode:    "EXT001",
			wantMessage: "Fehler beim Parsen der PDF-Datei. Stellen Sie sicher, dass die PDF Tabellendaten enthält.",
		},
		{
			name:        "not implemented uses fixed text",
			err:         ErrNotImplemented,
			wantCode:    "EXT002",
			wantMessage: "Bildverarbeitung noch nicht implementiert. Bitte verwenden Sie PDF-Dateien.",
		},
		{
			name:        "unsupported format uses fixed text",
			err:         ErrUnsupportedFormat,
			wantCode:    "EXT003",
			wantMessage: "Nur PDF- und JPEG-Dateien werden unterstützt.",
		},
		{
			name:     "wrapped sentinel still matches",
			err:      fmt.Errorf("extract: %w", ErrNoTableFound),
			wantCode: "EXT001",
		},
		{
			name:     "duplicate key maps to DB001",
			err:      errors.New("pq: duplicate key value violates unique constraint"),
			wantCode: "DB001",
		},
		{
			name:     "foreign key maps to DB002",
			err:      errors.New("violates foreign key constraint"),
			wantCode: "DB002",
		},
		{
			name:     "connection refused maps to DB003",
			err:      errors.New("dial tcp: connection refused"),
			wantCode: "DB003",
		},
		{
			name:     "deadline exceeded beats generic timeout",
			err:      errors.New("context deadline exceeded (timeout)"),
			wantCode: "REQ002",
		},
		{
			name:     "file too large maps to FILE001",
			err:      errors.New("file too large: 50MB exceeds limit"),
			wantCode: "FILE001",
		},
		{
			name:     "rate limit maps to REQ003",
			err:      errors.New("rate limit exceeded"),
			wantCode: "REQ003",
		},
		{
			name:     "case-insensitive matching",
			err:      errors.New("DUPLICATE KEY detected"),
			wantCode: "DB001",
		},
		{
			name:     "unknown error falls back to ERR000",
			err:      errors.New("something completely unexpected"),
			wantCode: "ERR000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", got.Code, tt.wantCode)
			}
			if tt.wantMessage != "" && got.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}

	got := FormatUserError(ErrUnsupportedFormat)
	want := "Nur PDF- und JPEG-Dateien werden unterstützt. (Code: EXT003). Laden Sie eine PDF- oder JPEG-Datei hoch"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("nil error must not be user-facing")
	}
	if !IsUserFacing(ErrNoTableFound) {
		t.Error("extraction sentinel must be user-facing")
	}
	if IsUserFacing(errors.New("internal invariant broken")) {
		t.Error("unknown errors must not be user-facing")
	}
}

func TestUserError(t *testing.T) {
	if NewUserError(nil) != nil {
		t.Error("NewUserError(nil) must be nil")
	}

	cause := errors.New("connection refused by peer")
	ue := NewUserError(cause)
	if ue.User.Code != "DB003" {
		t.Errorf("Code = %q, want DB003", ue.User.Code)
	}
	if !errors.Is(ue, cause) {
		t.Error("UserError must unwrap to the technical cause")
	}
	if ue.Error() != ue.User.Message {
		t.Errorf("Error() = %q, want user message", ue.Error())
	}
}
