package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"newscast/internal/catalog"
	"newscast/internal/episode"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status <request-id|episode>",
		Short: "Show an episode's status and segments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(s *session) error {
				requestID, err := s.resolveRequestID(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				ep, err := s.manager.Status(cmd.Context(), requestID)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd.OutOrStdout(), ep)
				}
				out := cmd.OutOrStdout()
				printEpisode(out, ep, shouldColorize(out))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the episode record as JSON")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List generated episodes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := catalog.Filter{Limit: limit}
			for _, raw := range statuses {
				status := episode.Status(raw)
				switch status {
				case episode.StatusRunning, episode.StatusComplete, episode.StatusPartial, episode.StatusFailed:
				default:
					return fmt.Errorf("unknown status %q (want running, complete, partial, or failed)", raw)
				}
				filter.Statuses = append(filter.Statuses, status)
			}
			return ctx.withSession(cmd.Context(), func(s *session) error {
				records, err := s.manager.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if jsonOut {
					if records == nil {
						records = []catalog.Record{}
					}
					return writeJSON(cmd.OutOrStdout(), records)
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No episodes found")
					return nil
				}
				printRecords(out, records)
				stats, err := s.catalog.Stats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, summarizeStats(stats))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Only show episodes with these statuses")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of episodes to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print records as JSON")
	return cmd
}

func newArtifactCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "artifact <request-id|episode>",
		Short: "Print the path of an episode's complete audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(s *session) error {
				requestID, err := s.resolveRequestID(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				path, err := s.manager.Artifact(cmd.Context(), requestID)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			})
		},
	}
}
