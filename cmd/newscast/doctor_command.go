package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"newscast/internal/deps"
	"newscast/internal/services/llm"
	"newscast/internal/stage"
)

const llmCheckTimeout = 20 * time.Second

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var checkLLM bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, stage readiness, and credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(s *session) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				problems := 0

				lines := renderSectionHeader("Configuration", colorize)
				lines = append(lines,
					renderField("Config file", ctx.configPath),
					renderField("Episodes", s.cfg.Paths.EpisodesDir),
					renderField("Catalog", s.catalog.Path()),
				)
				fmt.Fprintln(out, strings.Join(lines, "\n"))
				fmt.Fprintln(out)

				depLines, missing := dependencyLines(deps.CheckBinaries(deps.Requirements(s.cfg)), colorize)
				problems += missing
				fmt.Fprintln(out, strings.Join(append(renderSectionHeader("Dependencies", colorize), depLines...), "\n"))
				fmt.Fprintln(out)

				lines = renderSectionHeader("Stages", colorize)
				health := s.manager.HealthCheck(cmd.Context())
				for _, h := range health {
					kind := statusOK
					if !h.Ready {
						kind = statusError
					}
					lines = append(lines, renderStatusLine(h.Name, kind, h.Detail, colorize))
				}
				if !stage.AllReady(health) {
					problems++
				}
				if err := s.cfg.ValidateForGeneration(); err != nil {
					lines = append(lines, renderStatusLine("credentials", statusError, err.Error(), colorize))
					problems++
				}
				if checkLLM {
					kind, message := llmStatus(cmd.Context(), llm.NewClient(llm.ConfigFrom(s.cfg.LLM)))
					if kind == statusError {
						problems++
					}
					lines = append(lines, renderStatusLine("llm", kind, message, colorize))
				}
				fmt.Fprintln(out, strings.Join(lines, "\n"))

				if problems > 0 {
					return fmt.Errorf("doctor found %d problem(s)", problems)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&checkLLM, "llm", false, "Send a test completion to the configured LLM")
	return cmd
}

func dependencyLines(statuses []deps.Status, colorize bool) ([]string, int) {
	lines := make([]string, 0, len(statuses))
	for _, dep := range statuses {
		switch {
		case dep.Available():
			lines = append(lines, renderStatusLine(dep.Name, statusOK, fmt.Sprintf("Ready (%s)", dep.Path), colorize))
		case dep.Optional:
			lines = append(lines, renderStatusLine(dep.Name, statusWarn, dep.Detail, colorize))
		default:
			lines = append(lines, renderStatusLine(dep.Name, statusError, dep.Detail, colorize))
		}
	}
	return lines, deps.Missing(statuses)
}

func llmStatus(ctx context.Context, client *llm.Client) (statusKind, string) {
	if !client.Configured() {
		return statusWarn, "not configured; scripts will be extractive"
	}
	checkCtx, cancel := context.WithTimeout(ctx, llmCheckTimeout)
	defer cancel()
	if err := client.HealthCheck(checkCtx); err != nil {
		return statusError, err.Error()
	}
	return statusOK, "Ready (model: " + client.Model() + ")"
}
