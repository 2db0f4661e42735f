package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestZerologAdapter_Fields(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.DebugLevel)

	log.Info("session", "image opened", map[string]interface{}{"width": 640})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["component"] != "session" || entry["message"] != "image opened" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if entry["width"] != float64(640) {
		t.Errorf("width field: got %v", entry["width"])
	}
}

func TestZerologAdapter_Error(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.InfoLevel)

	log.Error("server", errors.New("boom"), nil)
	if !strings.Contains(buf.String(), `"error":"boom"`) {
		t.Errorf("error not logged: %s", buf.String())
	}
}

func TestZerologAdapter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.WarnLevel)

	log.Debug("x", "hidden", nil)
	log.Info("x", "hidden", nil)
	if buf.Len() != 0 {
		t.Errorf("messages below level were written: %s", buf.String())
	}
	log.Warning("x", "shown", nil)
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warning not written")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{" WARN ", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"loud", zerolog.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err: got %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("level: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNop(t *testing.T) {
	var l Logger = NewNop()
	l.Info("x", "y", nil)
	l.Error("x", errors.New("z"), nil)
}
