// Package orchestrator coordinates a packaging run: configuration loading,
// mod discovery, metadata extraction, duplicate reconciliation, WeiDU binary
// staging, and archive writing.
package orchestrator

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"weipack/internal/buildlog"
	"weipack/internal/config"
	"weipack/internal/locator"
	"weipack/internal/output"
	"weipack/internal/weidu"
)

// Options configures a packaging run.
type Options struct {
	// RootPath is the directory scanned for mods.
	RootPath string

	// OutDir receives the written archives. Empty means the current
	// working directory.
	OutDir string

	// Tokens are the raw key=value arguments.
	Tokens []string

	// AppVersion is recorded in the build log.
	AppVersion string

	// Logger receives diagnostics. Nil selects the default logger.
	Logger *log.Logger

	// Out receives user-facing progress and summary lines. Nil constructs
	// a quiet default.
	Out *output.Output

	// WeiDUClient fetches installer binaries. Nil constructs a client
	// against the public release feed, authenticated with GITHUB_TOKEN
	// when set.
	WeiDUClient *weidu.Client

	// BuildLog records run events. Nil disables run logging. Logging
	// failures never fail a run.
	BuildLog *buildlog.Writer
}

// Result captures the outcome for one mod candidate.
type Result struct {
	Mod               string
	Version           string
	Archive           string
	WeiDUTag          string
	DeletedDuplicates []string
	Err               error
}

// Summary aggregates the results of a run.
type Summary struct {
	Total    int
	Packaged int
	Failed   int
	Results  []Result
}

// Failed reports whether r ended in an error.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Run executes one packaging run. It returns an error for input problems
// (bad tokens, unreadable root, no mods found); per-mod failures are
// recorded in the summary instead and leave the other candidates unaffected.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	out := opts.Out
	if out == nil {
		out = output.New(output.Config{})
	}

	cfg, err := config.Load(opts.RootPath, opts.Tokens)
	if err != nil {
		return nil, err
	}

	candidates, err := locator.FindMods(opts.RootPath, locator.Options{
		NameFilter: cfg.Tp2Name,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		if cfg.Tp2Name != "" {
			return nil, fmt.Errorf("no tp2 file matching %q found under %s", cfg.Tp2Name, opts.RootPath)
		}
		return nil, fmt.Errorf("no tp2 file found under %s", opts.RootPath)
	}

	client := opts.WeiDUClient
	if client == nil && cfg.Type.NeedsBinary() {
		var clientOpts []weidu.ClientOption
		if token := os.Getenv("GITHUB_TOKEN"); token != "" {
			clientOpts = append(clientOpts, weidu.WithToken(token))
		}
		client = weidu.NewClient(clientOpts...)
	}

	outDir := opts.OutDir
	if outDir == "" {
		outDir = "."
	}

	runID := ""
	if opts.BuildLog != nil {
		id, logErr := opts.BuildLog.StartRun(opts.AppVersion, opts.RootPath)
		if logErr != nil {
			logger.Warn("build log unavailable", "err", logErr)
		} else {
			runID = id
		}
	}

	packager := &packager{
		cfg:      cfg,
		outDir:   outDir,
		logger:   logger,
		out:      out,
		client:   client,
		binaries: make(map[weidu.Platform]stagedBinary),
	}

	summary := &Summary{Total: len(candidates)}
	out.StartProgress(len(candidates))

	for i, candidate := range candidates {
		out.UpdateProgress(i+1, "Packaging mod")

		result := packager.packageOne(ctx, candidate)
		summary.Results = append(summary.Results, result)

		if result.Failed() {
			summary.Failed++
			out.Error("%s: %v", result.Mod, result.Err)
			if runID != "" {
				if logErr := opts.BuildLog.RecordFailure(result.Mod, result.Err.Error()); logErr != nil {
					logger.Warn("recording failure event", "err", logErr)
				}
			}
			continue
		}

		summary.Packaged++
		out.Success("packaged %s -> %s", result.Mod, result.Archive)
		if runID != "" {
			logErr := opts.BuildLog.RecordPackaged(result.Mod, result.Version,
				result.Archive, result.WeiDUTag, result.DeletedDuplicates)
			if logErr != nil {
				logger.Warn("recording package event", "err", logErr)
			}
		}
	}

	out.EndProgress()
	out.Info("%d mod(s) packaged, %d failed", summary.Packaged, summary.Failed)

	if runID != "" {
		if logErr := opts.BuildLog.EndRun(summary.Packaged, summary.Failed); logErr != nil {
			logger.Warn("recording run end", "err", logErr)
		}
	}

	return summary, nil
}
