// Package cli parses command line arguments for the game and tool
// binaries.
package cli

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the settings parsed from the game binary's command line.
type Config struct {
	AssetsDir string        // explicit asset directory, empty for auto-detection
	Timeout   time.Duration // wall-clock limit, 0 means unlimited
	LogLevel  string        // debug, info, warn, error
	Headless  bool          // run the scenario without a window
	ShowHelp  bool
}

// ParseArgs parses the game binary's arguments. Flags may appear after
// the positional asset directory; environment variables fill in flags
// that were not given.
func ParseArgs(args []string) (*Config, error) {
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("shin", flag.ContinueOnError)

	config := &Config{}

	var timeoutSec int
	fs.IntVar(&timeoutSec, "timeout", 0, "exit after the given number of seconds")
	fs.IntVar(&timeoutSec, "t", 0, "exit after the given number of seconds (shorthand)")
	fs.StringVar(&config.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	fs.StringVar(&config.LogLevel, "l", "info", "log level (shorthand)")
	fs.BoolVar(&config.Headless, "headless", false, "run without a window")
	fs.BoolVar(&config.ShowHelp, "help", false, "show help")
	fs.BoolVar(&config.ShowHelp, "h", false, "show help (shorthand)")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// Environment variables apply only where the command line was
	// silent.
	if !config.Headless {
		if headlessEnv := os.Getenv("HEADLESS"); headlessEnv != "" {
			config.Headless = headlessEnv == "1" || strings.ToLower(headlessEnv) == "true"
		}
	}
	if timeoutSec == 0 {
		if timeoutEnv := os.Getenv("TIMEOUT"); timeoutEnv != "" {
			if t, err := strconv.Atoi(timeoutEnv); err == nil && t > 0 {
				timeoutSec = t
			}
		}
	}
	if config.LogLevel == "info" {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
		}
	}

	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	if fs.NArg() > 0 {
		config.AssetsDir = fs.Arg(0)
	}

	return config, nil
}

// reorderArgs moves flags in front of positional arguments so the
// standard flag package accepts them in any order.
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	boolFlags := map[string]bool{
		"-h": true, "--help": true, "-help": true,
		"--headless": true, "-headless": true,
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if len(arg) > 0 && arg[0] == '-' {
			flags = append(flags, arg)

			// A value flag consumes the next argument unless it was
			// given as -flag=value.
			if !boolFlags[arg] && !strings.Contains(arg, "=") &&
				i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, arg)
		}
	}

	return append(flags, positional...)
}

// PrintHelp writes the game binary's usage text to stdout.
func PrintHelp() {
	fmt.Fprintf(os.Stdout, `shin - visual novel engine

Usage:
  shin [options] [assets-dir]

Arguments:
  assets-dir    directory holding the game data (data.rom or an
                extracted data/ tree, optionally shadowed by patch
                files). When omitted, the directory is taken from the
                SHIN_ASSETS environment variable, the directory next to
                the executable, the working directory or the user
                config directory, in that order.

Options:
  -t, --timeout <seconds>     exit after the given number of seconds (default: unlimited)
  -l, --log-level <level>     log level: debug, info, warn, error (default: info)
  --headless                  run the scenario without a window
  -h, --help                  show this help

Environment Variables:
  SHIN_ASSETS=<dir>           asset directory
  HEADLESS=1                  enable headless mode
  TIMEOUT=<seconds>           wall-clock limit in seconds
  LOG_LEVEL=<level>           log level

Examples:
  shin /path/to/assets            run with an explicit asset directory
  shin --headless --timeout 60    smoke-test the scenario for a minute
  shin --log-level debug          enable debug logging
  HEADLESS=1 shin                 headless mode via environment variable
`)
}
