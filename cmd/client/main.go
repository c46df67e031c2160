package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"CyMarker/internal/cli/commands"
	"CyMarker/internal/config"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	// -h печатает список команд CyMarker, а не только флаги
	flag.Usage = func() { writeUsage(flag.CommandLine.Output(), flag.CommandLine) }

	cfg := config.NewConfig()

	if cfg.Version {
		writeVersion(os.Stdout, cfg)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	exitCode := commands.Dispatch(ctx, cfg, flag.Args())
	if exitCode == 0 {
		return
	}
	os.Exit(exitCode)
}

// writeUsage — справка по командам и глобальным флагам клиента.
func writeUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprint(w, commands.FormatGlobalUsage())
	fmt.Fprintln(w, "\nFlags:")
	fs.SetOutput(w)
	fs.PrintDefaults()
}

func writeVersion(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "CyMarker CLI\nVersion: %s\nBuild date: %s\nServer: %s\nCommands: %d\n",
		version, buildDate, cfg.ServerURL, len(commands.List()))
}
