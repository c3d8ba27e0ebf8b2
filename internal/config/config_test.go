package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lukefredrickson/nfact-dashboard/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := config.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.EntityColumn != "study_site" || c.GeoColumn != "state" || c.GeoProperty != "NAME" {
		t.Fatalf("unexpected column defaults: %+v", c)
	}
	if c.MapMetric != "overall_after" || len(c.CompareMetrics) != 3 {
		t.Fatalf("unexpected render defaults: %+v", c)
	}
	if c.SessionTTL() != 30*time.Minute {
		t.Fatalf("session ttl = %v", c.SessionTTL())
	}
	if got := c.SourceOptions().HTTPTimeout; got != time.Minute {
		t.Fatalf("http timeout = %v", got)
	}
}

func TestSaveLoadAndEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	p := filepath.Join(t.TempDir(), "cfg", "config.yaml")
	c, err := config.Load(p)
	if err != nil {
		t.Fatalf("load missing file: %v", err)
	}
	c.DataPath = "s3://nfact/db.csv"
	c.MaxSessions = 5
	if err := config.Save(c, p); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(p); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	t.Setenv("NFACT_LISTEN_ADDR", "127.0.0.1:9999")
	got, err := config.Load(p)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.DataPath != "s3://nfact/db.csv" || got.MaxSessions != 5 {
		t.Fatalf("saved values lost: %+v", got)
	}
	if got.ListenAddr != "127.0.0.1:9999" {
		t.Fatalf("env override ignored: %q", got.ListenAddr)
	}
	opt := got.DatasetOptions()
	if opt.Path != "s3://nfact/db.csv" || opt.EntityColumn != "study_site" {
		t.Fatalf("dataset options = %+v", opt)
	}
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte("data_path: [unterminated"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := config.Load(p); err == nil {
		t.Fatalf("expected error for malformed yaml")
	}
}
