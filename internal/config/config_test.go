package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestParseEnvLine_Variants verifies comments, export prefixes and quotes.
func TestParseEnvLine_Variants(t *testing.T) {
	cases := []struct {
		line, key, value string
		ok               bool
	}{
		{"PDB_LISTEN_ADDR=0.0.0.0:6000", "PDB_LISTEN_ADDR", "0.0.0.0:6000", true},
		{"export MJPEG_QUALITY = 80", "MJPEG_QUALITY", "80", true},
		{`PDB_SERVER="10.0.0.2:5037"`, "PDB_SERVER", "10.0.0.2:5037", true},
		{"# comment", "", "", false},
		{"   ", "", "", false},
		{"=novalue", "", "", false},
		{"NOEQUALS", "", "", false},
	}
	for _, c := range cases {
		key, value, ok := parseEnvLine(c.line)
		if ok != c.ok || key != c.key || value != c.value {
			t.Fatalf("parse %q: expected (%q,%q,%v), got (%q,%q,%v)", c.line, c.key, c.value, c.ok, key, value, ok)
		}
	}
}

// TestLoadServer_Defaults verifies the documented defaults.
func TestLoadServer_Defaults(t *testing.T) {
	t.Setenv("PDB_DATA_DIR", t.TempDir())
	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != "0.0.0.0:5037" || cfg.HTTPAddr != "" {
		t.Fatalf("unexpected addrs %q %q", cfg.ListenAddr, cfg.HTTPAddr)
	}
	if cfg.CaptureTimeoutMs != 2000 || cfg.SwipeStepMs != 10 || cfg.RestoreSettleMs != 100 || cfg.FocusSettleMs != 50 {
		t.Fatalf("unexpected timing defaults %+v", cfg)
	}
	if cfg.EnvFileFound {
		t.Fatalf("expected no env file")
	}
}

// TestLoadServer_EnvFileAndOverride verifies file values load and real env wins.
func TestLoadServer_EnvFileAndOverride(t *testing.T) {
	dir := t.TempDir()
	content := "PDB_HTTP_ADDR=127.0.0.1:8080\nMJPEG_QUALITY=75\nexport PDB_MAX_CONNS=4\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("PDB_DATA_DIR", dir)
	t.Setenv("MJPEG_QUALITY", "90")
	// Keys loaded from the file are set process-wide; register them for cleanup.
	t.Setenv("PDB_HTTP_ADDR", "")
	t.Setenv("PDB_MAX_CONNS", "")
	os.Unsetenv("PDB_HTTP_ADDR")
	os.Unsetenv("PDB_MAX_CONNS")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.EnvFileFound || cfg.HTTPAddr != "127.0.0.1:8080" || cfg.MaxConns != 4 {
		t.Fatalf("expected file values, got %+v", cfg)
	}
	if cfg.MJPEGQuality != 90 {
		t.Fatalf("expected env to win, got %d", cfg.MJPEGQuality)
	}
}

// TestLoadServer_RangeErrors verifies out-of-range values fail.
func TestLoadServer_RangeErrors(t *testing.T) {
	cases := map[string]string{
		"CAPTURE_TIMEOUT_MS": "5000",
		"MJPEG_QUALITY":      "0",
		"SWIPE_STEP_MS":      "0",
		"RESTORE_SETTLE_MS":  "-1",
		"CAPTURE_POLL_MS":    "fast",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv("PDB_DATA_DIR", t.TempDir())
			t.Setenv(key, value)
			if _, err := LoadServer(); err == nil {
				t.Fatalf("expected error for %s=%s", key, value)
			}
		})
	}
}

// TestLoadClient_Defaults verifies client defaults and validation.
func TestLoadClient_Defaults(t *testing.T) {
	t.Setenv("PDB_SERVER", "")
	t.Setenv("PDB_FORMAT", "")
	t.Setenv("PDB_TIMEOUT_MS", "")
	cfg, err := LoadClient()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerAddr != "127.0.0.1:5037" || cfg.Format != "table" || cfg.TimeoutMs != 10000 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}

	t.Setenv("PDB_FORMAT", "XML")
	if _, err := LoadClient(); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

// TestEnvBool_Values verifies accepted spellings.
func TestEnvBool_Values(t *testing.T) {
	t.Setenv("PDB_FLAG", "yes")
	if !EnvBool("PDB_FLAG", false) {
		t.Fatalf("expected true")
	}
	t.Setenv("PDB_FLAG", "off")
	if EnvBool("PDB_FLAG", true) {
		t.Fatalf("expected false")
	}
	t.Setenv("PDB_FLAG", "maybe")
	if !EnvBool("PDB_FLAG", true) {
		t.Fatalf("expected default for unknown value")
	}
}

// TestLoadServer_ICEServers verifies the comma-separated ICE list is trimmed.
func TestLoadServer_ICEServers(t *testing.T) {
	t.Setenv("PDB_DATA_DIR", t.TempDir())
	t.Setenv("PDB_ICE_SERVERS", " stun:stun.l.google.com:19302 ,, turn:turn.example.org ")
	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.ICEServers) != 2 || cfg.ICEServers[0] != "stun:stun.l.google.com:19302" || cfg.ICEServers[1] != "turn:turn.example.org" {
		t.Fatalf("unexpected ice servers %q", cfg.ICEServers)
	}
}
