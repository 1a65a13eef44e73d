package main

import (
	"fmt"
	"os"

	"github.com/go-kit/kit/log"
	"github.com/kolide/kit/logutil"
	"github.com/pkg/errors"
)

func main() {
	var logger log.Logger
	logger = log.NewJSONLogger(os.Stderr) // only used until options are parsed.

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	run, ok := subcommands()[os.Args[1]]
	if !ok {
		usage()
		os.Exit(2)
	}

	if err := run(os.Args[2:]); err != nil {
		logutil.Fatal(logger, "err", errors.Wrapf(err, "running subcommand %s", os.Args[1]))
	}
}

func subcommands() map[string]func([]string) error {
	return map[string]func([]string) error{
		"serve":      runServe,
		"send":       runSend,
		"open":       runOpen,
		"click":      runClick,
		"last":       runLast,
		"permission": runPermission,
		"version":    runVersion,
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: notifyhelper <command> [flags]

Commands:
  serve       run the local notification API for the application shell
  send        send a device added notification
  open        navigate to a device's detail view
  click       navigate to the device of the last notification
  last        print the last notification record
  permission  check, and if needed request, notification permission
  version     print version information

Run "notifyhelper <command> -h" for the flags of a command.
`)
}
