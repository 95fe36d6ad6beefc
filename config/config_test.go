package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"xdao.co/idgov/txstore"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "idgov.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadFile_OverlaysDefinedKeys(t *testing.T) {
	path := writeFile(t, `
[ledger]
address = " ledger.local:9000 "
rpc_timeout = "3s"

[journal]
backend = "localfs"
dir = "/tmp/journal"
`)
	cfg, err := LoadFile(path, Default())
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Ledger.Address != "ledger.local:9000" {
		t.Fatalf("address %q", cfg.Ledger.Address)
	}
	if cfg.Ledger.RPCTimeout != 3*time.Second {
		t.Fatalf("rpc timeout %s", cfg.Ledger.RPCTimeout)
	}
	if cfg.Ledger.DialTimeout != Default().Ledger.DialTimeout {
		t.Fatalf("undefined key changed dial timeout: %s", cfg.Ledger.DialTimeout)
	}
	if cfg.Journal.Backend != JournalLocalFS || cfg.Journal.Dir != "/tmp/journal" {
		t.Fatalf("journal %+v", cfg.Journal)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("log level %q", cfg.Log.Level)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	cases := map[string]string{
		"unknown key":  "[ledger]\naddr = \"x\"\n",
		"bad duration": "[ledger]\ndial_timeout = \"soon\"\n",
		"bad toml":     "[ledger\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadFile(writeFile(t, body), Default()); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoad_EnvWins(t *testing.T) {
	path := writeFile(t, "[ledger]\naddress = \"file:1\"\n[log]\nlevel = \"warn\"\n")
	t.Setenv("IDGOV_LEDGER_ADDR", "env:2")
	t.Setenv("IDGOV_LEDGER_DIAL_TIMEOUT", "250ms")
	t.Setenv("IDGOV_LOG_JSON", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Ledger.Address != "env:2" || cfg.Ledger.DialTimeout != 250*time.Millisecond {
		t.Fatalf("ledger %+v", cfg.Ledger)
	}
	if cfg.Log.Level != "warn" || !cfg.Log.JSON {
		t.Fatalf("log %+v", cfg.Log)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"default", func(*Config) {}, ""},
		{"no address", func(c *Config) { c.Ledger.Address = " " }, "ledger.address"},
		{"negative timeout", func(c *Config) { c.Ledger.RPCTimeout = -1 }, "timeouts"},
		{"bad backend", func(c *Config) { c.Journal.Backend = "s3" }, "invalid journal.backend"},
		{"localfs without dir", func(c *Config) { c.Journal.Backend = JournalLocalFS }, "journal.dir"},
		{"bolt without path", func(c *Config) { c.Journal.Backend = JournalBolt }, "journal.bolt_path"},
		{"all without both", func(c *Config) { c.Journal = JournalConfig{Backend: JournalAll, Dir: "/x"} }, "journal.dir and"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("err=%v want containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestJournalOpen(t *testing.T) {
	dir := t.TempDir()
	cases := []JournalConfig{
		{Backend: JournalLocalFS, Dir: filepath.Join(dir, "fs")},
		{Backend: JournalBolt, BoltPath: filepath.Join(dir, "one.db")},
		{Backend: JournalAll, Dir: filepath.Join(dir, "fs2"), BoltPath: filepath.Join(dir, "two.db")},
	}
	for _, jc := range cases {
		t.Run(jc.Backend, func(t *testing.T) {
			s, closeFn, err := jc.Open()
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer closeFn()
			id, err := s.Put([]byte("payload"))
			if err != nil {
				t.Fatalf("Put: %v", err)
			}
			if !s.Has(id) {
				t.Fatalf("Has=false after Put")
			}
			if _, ok := s.(txstore.Lister); !ok {
				t.Fatalf("%s journal should list", jc.Backend)
			}
		})
	}

	s, closeFn, err := JournalConfig{Backend: JournalNone}.Open()
	if err != nil || s != nil || closeFn == nil {
		t.Fatalf("none backend: %v %v", s, err)
	}
}
