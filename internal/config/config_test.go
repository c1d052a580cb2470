package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/julianstephens/daylog/internal/constants"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := load(filepath.Join(t.TempDir(), "absent.yaml"), noEnv)
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
store: /var/lib/daylog/logs.db
debug: true
server:
  addr: 0.0.0.0:8080
  base_path: /v1/logs
  read_timeout: 3s
client:
  url: http://calendar.local:8080
  timeout: 2s
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := load(path, envMap(map[string]string{
		EnvAddr: "127.0.0.1:9000",
	}))
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	cfg = cfg.Apply(Overrides{Store: "memory:"})

	want := Default()
	want.Store = "memory:"
	want.Debug = true
	want.Server.Addr = "127.0.0.1:9000"
	want.Server.BasePath = "/v1/logs"
	want.Server.ReadTimeout = "3s"
	want.Client.URL = "http://calendar.local:8080"
	want.Client.Timeout = "2s"

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.Server.ReadTimeoutDuration(); got != 3*time.Second {
		t.Errorf("ReadTimeoutDuration() = %v, want 3s", got)
	}
	if got := cfg.Server.WriteTimeoutDuration(); got != constants.DefaultWriteTimeout {
		t.Errorf("WriteTimeoutDuration() = %v, want default", got)
	}
	if got := cfg.Client.TimeoutDuration(); got != 2*time.Second {
		t.Errorf("TimeoutDuration() = %v, want 2s", got)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "bad duration", content: "client:\n  timeout: soon\n", wantErr: "client.timeout"},
		{name: "relative base path", content: "server:\n  base_path: logs\n", wantErr: "base_path"},
		{name: "malformed yaml", content: "server: [", wantErr: "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			_, err := load(path, noEnv)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("load() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestResolveStore(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	fromKeyring := func() (string, error) { return "postgres://daylog@db/daylog", nil }
	failingKeyring := func() (string, error) { return "", errors.New("locked") }

	tests := []struct {
		name        string
		store       string
		env         map[string]string
		fromKeyring func() (string, error)
		want        string
		wantErr     bool
	}{
		{name: "plain path", store: "/tmp/logs.db", want: "/tmp/logs.db"},
		{name: "home path", store: "~/logs.db", want: filepath.Join(home, "logs.db")},
		{name: "postgres url untouched", store: "postgres://u@h/db", want: "postgres://u@h/db"},
		{name: "keyring", store: "keyring", fromKeyring: fromKeyring, want: "postgres://daylog@db/daylog"},
		{
			name:        "env wins over keyring",
			store:       "keyring",
			env:         map[string]string{EnvDBConnection: "mongodb://localhost:27017"},
			fromKeyring: fromKeyring,
			want:        "mongodb://localhost:27017",
		},
		{name: "keyring failure", store: "keyring", fromKeyring: failingKeyring, wantErr: true},
		{name: "no keyring", store: "keyring", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveStore(tt.store, envMap(tt.env), tt.fromKeyring)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolveStore() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("resolveStore() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	written, err := WriteTemplate(path)
	if err != nil || !written {
		t.Fatalf("WriteTemplate() = %v, %v", written, err)
	}

	cfg, err := load(path, noEnv)
	if err != nil {
		t.Fatalf("load() of template error = %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("template round trip mismatch (-want +got):\n%s", diff)
	}

	written, err = WriteTemplate(path)
	if err != nil || written {
		t.Errorf("second WriteTemplate() = %v, %v, want false, nil", written, err)
	}
}
