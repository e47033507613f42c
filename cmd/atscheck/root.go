package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ats-resume-checker/internal/bootstrap"
	"ats-resume-checker/internal/llm"
	"ats-resume-checker/internal/reports"
	"ats-resume-checker/internal/shared/config"
	"ats-resume-checker/internal/shared/telemetry"
)

const app = "atscheck"

// Actual version can be specified in build command.
var version = "unknown"

// deps are the seams the commands use to reach external systems.
type deps struct {
	loadConfig func() config.Config
	newLLM     func(ctx context.Context, cfg config.Config) (llm.Client, error)
	connectDB  func(ctx context.Context, cfg config.Config) (*sql.DB, error)
	// openStore returns the report store and a release func.
	openStore func(ctx context.Context, cfg config.Config) (reports.Store, func(), error)
}

func defaultDeps() deps {
	d := deps{
		loadConfig: config.Load,
		newLLM:     bootstrap.NewLLMClient,
		connectDB:  bootstrap.ConnectDB,
	}
	d.openStore = func(ctx context.Context, cfg config.Config) (reports.Store, func(), error) {
		sqlDB, err := d.connectDB(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return &reports.PGStore{DB: sqlDB}, func() { _ = sqlDB.Close() }, nil
	}
	return d
}

type cli struct {
	deps  deps
	cfg   config.Config
	debug bool
}

func newRootCmd(d deps) *cobra.Command {
	c := &cli{deps: d}

	root := &cobra.Command{
		Use:           app,
		Short:         "atscheck scores resumes against an industry with an LLM and manages stored reports",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			// stdout carries JSON results; keep config warnings off it.
			telemetry.ConfigureStderr("warn")
			c.cfg = c.deps.loadConfig()
			level := c.cfg.LogLevel
			if c.debug {
				level = "debug"
			}
			telemetry.ConfigureStderr(level)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			telemetry.Sync()
		},
	}
	root.PersistentFlags().BoolVarP(&c.debug, "debug", "d", false, "verbose/debug output")

	root.AddCommand(
		c.analyzeCmd(),
		c.reportCmd(),
		c.migrateCmd(),
		c.purgeCmd(),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", app, version)
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
