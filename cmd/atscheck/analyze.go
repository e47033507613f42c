package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ats-resume-checker/internal/analyses"
	"ats-resume-checker/internal/reports"
	"ats-resume-checker/internal/shared/telemetry"
	"ats-resume-checker/internal/uploads"
)

func (c *cli) analyzeCmd() *cobra.Command {
	var (
		industry string
		save     bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze a PDF or Word resume and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if strings.TrimSpace(industry) == "" {
				return errors.New("--industry is required")
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open resume: %w", err)
			}
			defer f.Close()

			temp := uploads.NewTempStore(c.cfg.UploadDir, c.cfg.MaxUploadBytes)
			doc, err := temp.Save(ctx, filepath.Base(args[0]), f)
			if err != nil {
				return fmt.Errorf("stage resume: %w", err)
			}

			client, err := c.deps.newLLM(ctx, c.cfg)
			if err != nil {
				_ = doc.Remove()
				return err
			}

			var store reports.Store
			if save {
				s, release, err := c.deps.openStore(ctx, c.cfg)
				if err != nil {
					telemetry.Warn("cli.report_store_unavailable", map[string]any{"err": err})
				} else {
					defer release()
					store = s
				}
			}

			svc := &analyses.Service{Store: store, LLM: client, AnalysisTimeout: c.cfg.AnalysisTimeout}
			result, err := svc.Run(analyses.WithRequestID(ctx, "cli"), doc, industry)
			if err != nil {
				return fmt.Errorf("%s: %w", analyses.ErrorCode(err), err)
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVarP(&industry, "industry", "i", "", "industry profile to score against, e.g. \"IT/Software\"")
	cmd.Flags().BoolVar(&save, "save", false, "persist the report for 30 days (requires DATABASE_URL)")
	return cmd
}
