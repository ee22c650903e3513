package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"weipack/internal/buildlog"
	"weipack/internal/orchestrator"
	"weipack/internal/output"
	"weipack/internal/watcher"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"

	rootPath string
	outDir   string
	verbose  bool
	watch    bool
	logDir   string

	rootCmd = &cobra.Command{
		Use:   "weipack [key=value ...]",
		Short: "Package WeiDU mods into distributable archives",
		Long: `weipack discovers WeiDU mods (.tp2 files) under a directory tree,
derives each mod's version and display name from its own files, optionally
bundles a matching WeiDU installer binary, and writes a named archive per mod.

Settings are passed as key=value tokens:

  type=iemod|zip|windows|linux|macos|multi
  arch=amd64|x86|x86-legacy
  suffix=version|none|<literal>
  naming=tp2|ini|<literal>
  weidu=latest|<version>
  extra=<fragment>            name_fmt=<template>
  prefix_win=<fragment>       prefix_lin=<fragment>    prefix_mac=<fragment>
  tp2_name=<filter>           multi_autoupdate=<bool>
  case_sensitive=<bool>       beautify=<bool>          lower_case=<bool>

A weipack.json file in the scan root supplies defaults; tokens override it.

Examples:
  weipack --root ./mymod
  weipack --root ./mods type=windows weidu=249 tp2_name=mymod
  weipack type=multi naming=ini "extra=for EET"`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runPackage,
	}
)

func init() {
	rootCmd.Flags().StringVarP(&rootPath, "root", "r", ".", "directory scanned for mods")
	rootCmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory receiving the archives")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.Flags().BoolVarP(&watch, "watch", "w", false, "repackage when the mod tree changes")
	rootCmd.Flags().StringVar(&logDir, "log-dir", "", "directory for the JSONL build log (disabled when empty)")
}

func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// Execute runs the root command with fang's styling and signal handling.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

func runPackage(cmd *cobra.Command, args []string) error {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	outCfg := output.DefaultConfig()
	outCfg.Verbose = verbose
	out := output.New(outCfg)

	var runLog *buildlog.Writer
	if logDir != "" {
		var err error
		runLog, err = buildlog.NewWriter(buildlog.Config{Directory: logDir})
		if err != nil {
			// The log is diagnostic; a broken log directory must not block
			// packaging.
			logger.Warn("build log disabled", "err", err)
		} else {
			defer runLog.Close()
		}
	}

	opts := orchestrator.Options{
		RootPath:   rootPath,
		OutDir:     outDir,
		Tokens:     args,
		AppVersion: Version,
		Logger:     logger,
		Out:        out,
		BuildLog:   runLog,
	}

	summary, err := orchestrator.Run(cmd.Context(), opts)
	if err != nil {
		out.Error("%v", err)
		return err
	}

	if watch {
		return watchLoop(cmd.Context(), logger, out, opts)
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d mod(s) failed", summary.Failed)
	}
	return nil
}

// watchLoop keeps repackaging until the context is cancelled. Failures of
// individual rebuild runs are reported and watching continues.
func watchLoop(ctx context.Context, logger *log.Logger, out *output.Output, opts orchestrator.Options) error {
	w := watcher.New(rootPath, watcher.Config{Logger: logger}, func() {
		out.Info("change detected, repackaging %s", rootPath)
		if _, err := orchestrator.Run(ctx, opts); err != nil {
			out.Error("%v", err)
		}
	})

	if err := w.Start(); err != nil {
		return fmt.Errorf("starting watch mode: %w", err)
	}

	out.Info("watching %s for changes (interrupt to stop)", rootPath)
	<-ctx.Done()

	summary := w.Stop()
	out.Info("watch session: %d rebuild(s) over %s", summary.Rebuilds, summary.Duration.Round(time.Second))
	return nil
}
