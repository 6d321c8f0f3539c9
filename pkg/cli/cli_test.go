package cli

import (
	"errors"
	"testing"
	"time"
)

func TestParseArgsDefaults(t *testing.T) {
	config, err := ParseArgs(nil)
	if err != nil {
		t.Fatalf("ParseArgs failed: %v", err)
	}
	if config.AssetsDir != "" {
		t.Errorf("AssetsDir = %q, want empty", config.AssetsDir)
	}
	if config.Timeout != 0 {
		t.Errorf("Timeout = %v, want 0", config.Timeout)
	}
	if config.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", config.LogLevel)
	}
	if config.Headless || config.ShowHelp {
		t.Errorf("Headless = %v, ShowHelp = %v, want both false", config.Headless, config.ShowHelp)
	}
}

func TestParseArgsFlags(t *testing.T) {
	config, err := ParseArgs([]string{"-t", "30", "--log-level", "debug", "--headless", "/data"})
	if err != nil {
		t.Fatalf("ParseArgs failed: %v", err)
	}
	if config.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", config.Timeout)
	}
	if config.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", config.LogLevel)
	}
	if !config.Headless {
		t.Error("Headless = false, want true")
	}
	if config.AssetsDir != "/data" {
		t.Errorf("AssetsDir = %q, want /data", config.AssetsDir)
	}
}

func TestParseArgsFlagsAfterPositional(t *testing.T) {
	config, err := ParseArgs([]string{"/data", "--headless", "-t", "5"})
	if err != nil {
		t.Fatalf("ParseArgs failed: %v", err)
	}
	if config.AssetsDir != "/data" {
		t.Errorf("AssetsDir = %q, want /data", config.AssetsDir)
	}
	if !config.Headless {
		t.Error("Headless = false, want true")
	}
	if config.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", config.Timeout)
	}
}

func TestParseArgsEqualsForm(t *testing.T) {
	config, err := ParseArgs([]string{"--timeout=7", "/data"})
	if err != nil {
		t.Fatalf("ParseArgs failed: %v", err)
	}
	if config.Timeout != 7*time.Second {
		t.Errorf("Timeout = %v, want 7s", config.Timeout)
	}
	if config.AssetsDir != "/data" {
		t.Errorf("AssetsDir = %q, want /data", config.AssetsDir)
	}
}

func TestParseArgsEnvironmentFallback(t *testing.T) {
	t.Setenv("HEADLESS", "1")
	t.Setenv("TIMEOUT", "12")
	t.Setenv("LOG_LEVEL", "warn")

	config, err := ParseArgs(nil)
	if err != nil {
		t.Fatalf("ParseArgs failed: %v", err)
	}
	if !config.Headless {
		t.Error("HEADLESS=1 did not enable headless mode")
	}
	if config.Timeout != 12*time.Second {
		t.Errorf("Timeout = %v, want 12s", config.Timeout)
	}
	if config.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", config.LogLevel)
	}
}

func TestParseArgsFlagsBeatEnvironment(t *testing.T) {
	t.Setenv("TIMEOUT", "12")
	t.Setenv("LOG_LEVEL", "warn")

	config, err := ParseArgs([]string{"-t", "3", "-l", "error"})
	if err != nil {
		t.Fatalf("ParseArgs failed: %v", err)
	}
	if config.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", config.Timeout)
	}
	if config.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want error", config.LogLevel)
	}
}

func TestParseArgsInvalidLogLevel(t *testing.T) {
	if _, err := ParseArgs([]string{"--log-level", "verbose"}); err == nil {
		t.Error("ParseArgs accepted an invalid log level")
	}
}

func TestParseArgsNegativeTimeout(t *testing.T) {
	if _, err := ParseArgs([]string{"--timeout=-1"}); err == nil {
		t.Error("ParseArgs accepted a negative timeout")
	}
}

func TestDispatchRunsCommand(t *testing.T) {
	var got []string
	commands := []Command{
		{Name: "noop", Run: func(args []string) error { got = args; return nil }},
	}
	if code := Dispatch("tool", commands, []string{"noop", "a", "b"}); code != 0 {
		t.Errorf("Dispatch = %d, want 0", code)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("command received args %v, want [a b]", got)
	}
}

func TestDispatchReportsFailure(t *testing.T) {
	commands := []Command{
		{Name: "fail", Run: func(args []string) error { return errors.New("boom") }},
	}
	if code := Dispatch("tool", commands, []string{"fail"}); code != 1 {
		t.Errorf("Dispatch = %d, want 1", code)
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	if code := Dispatch("tool", nil, []string{"nope"}); code != 1 {
		t.Errorf("Dispatch = %d, want 1", code)
	}
}

func TestDispatchNoArguments(t *testing.T) {
	if code := Dispatch("tool", nil, nil); code != 1 {
		t.Errorf("Dispatch = %d, want 1", code)
	}
}

func TestDispatchHelp(t *testing.T) {
	if code := Dispatch("tool", nil, []string{"help"}); code != 0 {
		t.Errorf("Dispatch = %d, want 0", code)
	}
}
