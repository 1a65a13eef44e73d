package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mofumofu/notifyhelper/pkg/agent/storage"
	agentbbolt "github.com/mofumofu/notifyhelper/pkg/agent/storage/bbolt"
	"github.com/peterbourgon/ff/v3"
)

const (
	envVarPrefix       = "NOTIFYHELPER"
	defaultRootDirName = "mofumofu-notifyhelper"
	defaultBaseURL     = "tauri://localhost"

	// one-shot commands give up quickly when serve holds the bbolt lock
	cliLockTimeout = time.Second
)

// options is the set of configurable options shared by every subcommand. They may be set
// with flags, NOTIFYHELPER_* environment variables, or a plain config file.
type options struct {
	rootDirectory string
	store         storage.Backend
	baseURL       string
	debug         bool
	logFile       string
	lockTimeout   time.Duration
}

func defaultRootDirectory() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return defaultRootDirName
	}

	return filepath.Join(dir, defaultRootDirName)
}

// registerCommonFlags adds the shared flags to flagset. The returned function must be called
// after parsing to validate and fill in the options.
func registerCommonFlags(flagset *flag.FlagSet) (*options, func() error) {
	var (
		flRootDirectory = flagset.String("root_directory", defaultRootDirectory(), "directory holding the notification database")
		flStore         = flagset.String("store", storage.BackendBbolt.String(), "key/value store backend: bbolt, sqlite or memory")
		flBaseURL       = flagset.String("base_url", defaultBaseURL, "base URL of the application shell, routes are appended to it")
		flDebug         = flagset.Bool("debug", false, "enable debug logging")
		flLogFile       = flagset.String("log_file", "", "also write JSON logs to this file, rotated")
		_               = flagset.String("config", "", "config file to parse options from (optional)")
	)

	opts := &options{}
	finish := func() error {
		backend, ok := storage.ParseBackend(*flStore)
		if !ok {
			return fmt.Errorf("unknown store %q", *flStore)
		}

		opts.rootDirectory = *flRootDirectory
		opts.store = backend
		opts.baseURL = *flBaseURL
		opts.debug = *flDebug
		opts.logFile = *flLogFile
		opts.lockTimeout = agentbbolt.DefaultLockTimeout
		return nil
	}

	return opts, finish
}

func parseFlags(flagset *flag.FlagSet, args []string) error {
	return ff.Parse(flagset, args,
		ff.WithEnvVarPrefix(envVarPrefix),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
	)
}
