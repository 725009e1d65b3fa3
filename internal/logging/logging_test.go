package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"err":     zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q)=%s want %s", in, got, want)
		}
	}
}

func TestNew_JSONFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn", "json")
	log.Info().Msg("hidden")
	log.Warn().Str("k", "v").Msg("shown")
	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line leaked at warn level: %s", out)
	}
	var line map[string]any
	if err := json.Unmarshal([]byte(out), &line); err != nil {
		t.Fatalf("json: %v (%s)", err, out)
	}
	if line["message"] != "shown" || line["k"] != "v" || line["time"] == nil {
		t.Fatalf("line=%v", line)
	}
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug", "console")
	log.Debug().Msg("hello console")
	if !strings.Contains(buf.String(), "hello console") || strings.HasPrefix(buf.String(), "{") {
		t.Fatalf("unexpected console output: %q", buf.String())
	}
}

func TestStackMarshaler(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "error", "json")
	log.Error().Stack().Err(errors.New("with stack")).Msg("failed")
	if !strings.Contains(buf.String(), `"stack":[`) {
		t.Fatalf("expected pkg/errors stack in output: %s", buf.String())
	}
}
