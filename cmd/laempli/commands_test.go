// cmd/laempli/commands_test.go
package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testConfig = `
backend:
  url: http://ci.example/tschenggins-status.pl
  client_id: 87e984
  channels: 4
sound:
  noise: none
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	cfg, err := loadConfig(writeFile(t, "lamp.yaml", testConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Backend.ClientName != "87e984" || cfg.Backend.RxBufferBytes != 4096 {
		t.Fatalf("defaults not applied: %+v", cfg.Backend)
	}
}

func TestCheckCommand(t *testing.T) {
	cmd := checkCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{writeFile(t, "lamp.yaml", testConfig)})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !strings.Contains(out.String(), "rx_buffer_bytes: 4096") {
		t.Fatalf("normalized config not printed:\n%s", out.String())
	}
}

func TestCheckCommand_Invalid(t *testing.T) {
	cmd := checkCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{writeFile(t, "lamp.yaml", "backend:\n  url: ftp://x\n")})

	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestReplay(t *testing.T) {
	capture := strings.Join([]string{
		"",
		"hello 87e984 4 lamp",
		`status 1700000000 json=[[0,"job","srv","idle","success",1700000000]]`,
		"heartbeat 1700000001 1",
		"",
	}, "\r\n")

	err := replay(context.Background(),
		writeFile(t, "lamp.yaml", testConfig),
		writeFile(t, "capture.txt", capture), 7)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
}

func TestReplay_MissingCapture(t *testing.T) {
	err := replay(context.Background(), writeFile(t, "lamp.yaml", testConfig),
		filepath.Join(t.TempDir(), "nope"), 0)
	if err == nil {
		t.Fatalf("expected error for missing capture")
	}
}
