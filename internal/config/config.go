// Package config loads environment configuration for the pdb daemon and client.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultListenAddr      = "0.0.0.0:5037"
	defaultServerAddr      = "127.0.0.1:5037"
	defaultDataDir         = "./data"
	defaultCaptureTimeout  = 2000
	defaultCapturePollMs   = 50
	defaultSwipeStepMs     = 10
	defaultRestoreSettleMs = 100
	defaultFocusSettleMs   = 50
	defaultMJPEGIntervalMs = 200
	defaultMJPEGQuality    = 60
	defaultClientTimeoutMs = 10000
	defaultFormat          = "table"
)

// Server holds daemon configuration values.
type Server struct {
	ListenAddr       string
	HTTPAddr         string
	DataDir          string
	CaptureTimeoutMs int
	CapturePollMs    int
	SwipeStepMs      int
	RestoreSettleMs  int
	FocusSettleMs    int
	MJPEGIntervalMs  int
	MJPEGQuality     int
	MaxConns         int
	ICEServers       []string
	EnvFile          string
	EnvFileFound     bool
}

// Client holds CLI configuration values.
type Client struct {
	ServerAddr string
	TimeoutMs  int
	Format     string
}

// CaptureTimeout returns the capture bound as a duration.
func (s Server) CaptureTimeout() time.Duration {
	return time.Duration(s.CaptureTimeoutMs) * time.Millisecond
}

// Timeout returns the request timeout as a duration.
func (c Client) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// LoadServer reads configuration from ./data/.env and environment variables.
func LoadServer() (Server, error) {
	cfg := Server{
		ListenAddr:       defaultListenAddr,
		DataDir:          defaultDataDir,
		CaptureTimeoutMs: defaultCaptureTimeout,
		CapturePollMs:    defaultCapturePollMs,
		SwipeStepMs:      defaultSwipeStepMs,
		RestoreSettleMs:  defaultRestoreSettleMs,
		FocusSettleMs:    defaultFocusSettleMs,
		MJPEGIntervalMs:  defaultMJPEGIntervalMs,
		MJPEGQuality:     defaultMJPEGQuality,
	}

	cfg.DataDir = envString("PDB_DATA_DIR", cfg.DataDir)
	cfg.EnvFile = filepath.Join(cfg.DataDir, ".env")
	found, err := loadEnvFile(cfg.EnvFile)
	if err != nil {
		return Server{}, err
	}
	cfg.EnvFileFound = found

	cfg.ListenAddr = envString("PDB_LISTEN_ADDR", cfg.ListenAddr)
	cfg.HTTPAddr = envString("PDB_HTTP_ADDR", cfg.HTTPAddr)
	for _, url := range strings.Split(envString("PDB_ICE_SERVERS", ""), ",") {
		if url = strings.TrimSpace(url); url != "" {
			cfg.ICEServers = append(cfg.ICEServers, url)
		}
	}

	ints := []struct {
		key   string
		dst   *int
		check func(int) bool
		rule  string
	}{
		{"CAPTURE_TIMEOUT_MS", &cfg.CaptureTimeoutMs, func(v int) bool { return v >= 1 && v <= 2000 }, "1-2000"},
		{"CAPTURE_POLL_MS", &cfg.CapturePollMs, positive, "> 0"},
		{"SWIPE_STEP_MS", &cfg.SwipeStepMs, positive, "> 0"},
		{"RESTORE_SETTLE_MS", &cfg.RestoreSettleMs, nonNegative, ">= 0"},
		{"FOCUS_SETTLE_MS", &cfg.FocusSettleMs, nonNegative, ">= 0"},
		{"MJPEG_INTERVAL_MS", &cfg.MJPEGIntervalMs, positive, "> 0"},
		{"MJPEG_QUALITY", &cfg.MJPEGQuality, func(v int) bool { return v >= 1 && v <= 100 }, "1-100"},
		{"PDB_MAX_CONNS", &cfg.MaxConns, nonNegative, ">= 0"},
	}
	for _, it := range ints {
		v, err := envInt(it.key, *it.dst)
		if err != nil {
			return Server{}, err
		}
		if !it.check(v) {
			return Server{}, fmt.Errorf("%s must be %s", it.key, it.rule)
		}
		*it.dst = v
	}
	return cfg, nil
}

// LoadClient reads client configuration from environment variables.
func LoadClient() (Client, error) {
	cfg := Client{
		ServerAddr: envString("PDB_SERVER", defaultServerAddr),
		Format:     strings.ToLower(envString("PDB_FORMAT", defaultFormat)),
	}
	timeout, err := envInt("PDB_TIMEOUT_MS", defaultClientTimeoutMs)
	if err != nil {
		return Client{}, err
	}
	if timeout <= 0 {
		return Client{}, fmt.Errorf("PDB_TIMEOUT_MS must be > 0")
	}
	cfg.TimeoutMs = timeout
	switch cfg.Format {
	case "table", "json", "yaml":
	default:
		return Client{}, fmt.Errorf("PDB_FORMAT must be table, json or yaml")
	}
	return cfg, nil
}

func positive(v int) bool    { return v > 0 }
func nonNegative(v int) bool { return v >= 0 }

// envString returns an env override when present, otherwise a default.
func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envInt returns an int env override when present, otherwise a default.
func envInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return value, nil
}

// EnvBool returns a bool env override when present, otherwise a default.
func EnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

// loadEnvFile loads KEY=VALUE pairs from a .env file. Real environment
// variables win over file values.
func loadEnvFile(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := parseEnvLine(line)
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(key); !exists {
			if err := os.Setenv(key, value); err != nil {
				return true, err
			}
		}
	}

	return true, nil
}

// parseEnvLine parses a single .env line into key/value.
func parseEnvLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	if strings.HasPrefix(line, "export ") {
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
	}
	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	key := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if key == "" {
		return "", "", false
	}
	value = strings.Trim(value, `"'`)
	return key, value, true
}
