package main

import (
	"testing"
	"time"
)

func TestModeValue(t *testing.T) {
	cases := []struct {
		name     string
		flagMode string
		envMode  string
		want     string
	}{
		{name: "default", want: "development"},
		{name: "flag wins", flagMode: "Production", envMode: "development", want: "production"},
		{name: "env fallback", envMode: " PRODUCTION ", want: "production"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := modeValue(tc.flagMode, tc.envMode); got != tc.want {
				t.Fatalf("modeValue(%q, %q) = %q, want %q", tc.flagMode, tc.envMode, got, tc.want)
			}
		})
	}
}

func TestResolveListenAddr(t *testing.T) {
	if got := resolveListenAddr("", "production", ""); got != ":8080" {
		t.Fatalf("production default = %q, want :8080", got)
	}
	if got := resolveListenAddr("", "development", ""); got != "127.0.0.1:8080" {
		t.Fatalf("development default = %q, want 127.0.0.1:8080", got)
	}
	if got := resolveListenAddr(":9000", "production", ":7000"); got != ":9000" {
		t.Fatalf("flag override = %q, want :9000", got)
	}
	if got := resolveListenAddr("", "production", ":7000"); got != ":7000" {
		t.Fatalf("env override = %q, want :7000", got)
	}
}

func TestResolveStorageDriver(t *testing.T) {
	cases := []struct {
		name      string
		flagValue string
		envValue  string
		dsn       string
		want      string
	}{
		{name: "default json", want: "json"},
		{name: "flag wins", flagValue: "Postgres", envValue: "json", want: "postgres"},
		{name: "env fallback", envValue: "postgres", want: "postgres"},
		{name: "dsn implies postgres", dsn: "postgres://localhost/courseware", want: "postgres"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := resolveStorageDriver(tc.flagValue, tc.envValue, tc.dsn)
			if err != nil {
				t.Fatalf("resolveStorageDriver returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("resolveStorageDriver = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestValidateProductionDatastore(t *testing.T) {
	if err := validateProductionDatastore("json", ""); err == nil {
		t.Fatal("expected error for json driver in production")
	}
	if err := validateProductionDatastore("postgres", ""); err == nil {
		t.Fatal("expected error for postgres driver without DSN")
	}
	if err := validateProductionDatastore("postgres", "postgres://localhost/courseware"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestResolveDataPath(t *testing.T) {
	if got := resolveDataPath("", ""); got != "data/store.json" {
		t.Fatalf("default data path = %q", got)
	}
	if got := resolveDataPath("/tmp/custom.json", "/tmp/env.json"); got != "/tmp/custom.json" {
		t.Fatalf("flag data path = %q", got)
	}
	if got := resolveDataPath("", " /tmp/env.json "); got != "/tmp/env.json" {
		t.Fatalf("env data path = %q", got)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "  ", "value", "later"); got != "value" {
		t.Fatalf("firstNonEmpty = %q, want value", got)
	}
	if got := firstNonEmpty("", "   "); got != "" {
		t.Fatalf("firstNonEmpty = %q, want empty", got)
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(" https://a.example , ,https://b.example ")
	want := []string{"https://a.example", "https://b.example"}
	if len(got) != len(want) {
		t.Fatalf("splitAndTrim returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("splitAndTrim[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if got := splitAndTrim("   "); got != nil {
		t.Fatalf("splitAndTrim blank = %v, want nil", got)
	}
}

func TestResolveIntPrefersFlagThenEnv(t *testing.T) {
	t.Setenv("COURSEWARE_TEST_INT", "25")
	if got := resolveInt(10, "COURSEWARE_TEST_INT"); got != 10 {
		t.Fatalf("flag value ignored, got %d", got)
	}
	if got := resolveInt(0, "COURSEWARE_TEST_INT"); got != 25 {
		t.Fatalf("env value ignored, got %d", got)
	}
	if got := resolveInt(0, "COURSEWARE_TEST_INT_MISSING"); got != 0 {
		t.Fatalf("missing env should yield 0, got %d", got)
	}
}

func TestResolveFloatPrefersFlagThenEnv(t *testing.T) {
	t.Setenv("COURSEWARE_TEST_FLOAT", "2.5")
	if got := resolveFloat(1.5, "COURSEWARE_TEST_FLOAT"); got != 1.5 {
		t.Fatalf("flag value ignored, got %v", got)
	}
	if got := resolveFloat(0, "COURSEWARE_TEST_FLOAT"); got != 2.5 {
		t.Fatalf("env value ignored, got %v", got)
	}
}

func TestResolveDuration(t *testing.T) {
	t.Setenv("COURSEWARE_TEST_DURATION", "45s")
	if got := resolveDuration(10*time.Second, "COURSEWARE_TEST_DURATION", time.Minute); got != 10*time.Second {
		t.Fatalf("flag value ignored, got %v", got)
	}
	if got := resolveDuration(0, "COURSEWARE_TEST_DURATION", time.Minute); got != 45*time.Second {
		t.Fatalf("env value ignored, got %v", got)
	}
	if got := resolveDuration(0, "COURSEWARE_TEST_DURATION_MISSING", time.Minute); got != time.Minute {
		t.Fatalf("fallback ignored, got %v", got)
	}
	if got := resolveDuration(0, "COURSEWARE_TEST_DURATION_MISSING", 0); got != 0 {
		t.Fatalf("zero fallback should yield 0, got %v", got)
	}
}
