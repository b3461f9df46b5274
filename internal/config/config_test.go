package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drgref.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault_IsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadFromFile_Valid(t *testing.T) {
	path := writeConfig(t, "driver: postgres\ndsn: postgres://u:p@localhost/drg\nconcurrency: 2\n")

	c := Default()
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.Driver != DriverPostgres || c.Concurrency != 2 {
		t.Errorf("unexpected config: %+v", c)
	}
	// Keys absent from the file keep their defaults.
	if c.MinSearchLength != 3 || c.Listen != ":8080" {
		t.Errorf("defaults lost: %+v", c)
	}
}

func TestLoadFromFile_Empty(t *testing.T) {
	c := Default()
	if err := c.LoadFromFile(writeConfig(t, "")); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.DSN != DefaultDSN {
		t.Errorf("dsn = %q", c.DSN)
	}
}

func TestLoadFromFile_UnknownKey(t *testing.T) {
	c := Default()
	err := c.LoadFromFile(writeConfig(t, "code_types:\n  - CPT\n"))
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoadFromFile_UnknownDriver(t *testing.T) {
	c := Default()
	if err := c.LoadFromFile(writeConfig(t, "driver: oracle\n")); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	err := c.Validate()
	if err == nil || !strings.Contains(err.Error(), "Driver") {
		t.Fatalf("expected driver validation error, got %v", err)
	}
}

func TestLoad_EnvCompletesFile(t *testing.T) {
	path := writeConfig(t, "driver: postgres\n")
	env := map[string]string{EnvDSN: "postgres://u:p@localhost/drg"}

	c, err := Load(path, func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Driver != DriverPostgres || c.DSN != env[EnvDSN] {
		t.Errorf("unexpected config: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	// Without the env the layered config is incomplete, and only Validate says so.
	c, err = Load(path, func(string) string { return "" })
	if err != nil {
		t.Fatalf("Load without env: %v", err)
	}
	if err := c.Validate(); err == nil {
		t.Error("postgres driver with the sqlite default dsn validated")
	}
}

func TestLoad_NoFile(t *testing.T) {
	c, err := Load("", func(string) string { return "" })
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c != Default() {
		t.Errorf("config = %+v, want defaults", c)
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	c := Default()
	if err := c.LoadFromFile("/nonexistent/drgref.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"mysql", func(c *Config) { c.Driver = "MySQL"; c.DSN = "u:p@tcp(db:3306)/drg" }, false},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, true},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, true},
		{"empty dsn", func(c *Config) { c.DSN = "" }, true},
		{"sqlite url", func(c *Config) { c.DSN = "postgres://x/y" }, true},
		{"postgres path", func(c *Config) { c.Driver = DriverPostgres; c.DSN = "./x.db" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
