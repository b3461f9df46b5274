package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "json", true)
	log.Info().Str("entity", "CC").Msg("query")

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("not json: %q", buf.String())
	}
	if m["entity"] != "CC" || m["message"] != "query" {
		t.Errorf("fields = %v", m)
	}
}

func TestNew_Auto(t *testing.T) {
	var buf bytes.Buffer
	plain := New(&buf, "auto", false)
	plain.Info().Msg("x")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("auto without tty should be json: %q", buf.String())
	}

	buf.Reset()
	tty := New(&buf, "auto", true)
	tty.Info().Msg("x")
	if strings.HasPrefix(buf.String(), "{") {
		t.Errorf("auto with tty should be text: %q", buf.String())
	}
}

func TestSetupFile(t *testing.T) {
	log, closeFn, err := SetupFile("")
	if err != nil || closeFn() != nil {
		t.Fatalf("empty path: %v", err)
	}
	log.Info().Msg("discarded")

	path := filepath.Join(t.TempDir(), "drgref.log")
	log, closeFn, err = SetupFile(path)
	if err != nil {
		t.Fatal(err)
	}
	log.Info().Msg("hello")
	if err := closeFn(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("log file = %q", data)
	}
}
