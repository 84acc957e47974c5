package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"newscast/internal/episode"
	"newscast/internal/workflow"
)

const progressInterval = 500 * time.Millisecond

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var category string
	var prompt string
	var segments int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an episode for a category or free-text prompt",
		Long: "Generate collects articles for the topic, writes and narrates one script per\n" +
			"segment, and assembles the finished segments into a single audio file.\n" +
			"Interrupting the command cancels pending segments and assembles the ones\n" +
			"already narrated.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			topic, err := topicFromFlags(category, prompt)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateForGeneration(); err != nil {
				return err
			}
			if segments <= 0 {
				segments = cfg.Episode.Segments
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return ctx.withSession(runCtx, func(s *session) error {
				requestID, err := s.manager.StartEpisode(runCtx, topic, segments)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				var progress io.Writer
				if !jsonOut {
					progress = out
					fmt.Fprintf(out, "Started %s (%d segments, request %s)\n", topic, segments, requestID)
				}
				ep, err := followEpisode(runCtx, progress, s.manager, requestID)
				if err != nil {
					return err
				}
				if jsonOut {
					if err := writeJSON(cmd.OutOrStdout(), ep); err != nil {
						return err
					}
				} else {
					printEpisode(out, ep, shouldColorize(out))
				}
				if ep.Status == episode.StatusFailed {
					return fmt.Errorf("episode %s failed: %s", ep.EpisodeID, ep.Error)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Category from the feed catalog (see 'newscast categories')")
	cmd.Flags().StringVar(&prompt, "prompt", "", "Free-text topic resolved to categories by the LLM")
	cmd.Flags().IntVarP(&segments, "segments", "n", 0, "Number of segments (defaults to episode.segments)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the final episode record as JSON")
	cmd.MarkFlagsMutuallyExclusive("category", "prompt")
	cmd.MarkFlagsOneRequired("category", "prompt")
	return cmd
}

func topicFromFlags(category, prompt string) (episode.TopicSpec, error) {
	var topic episode.TopicSpec
	switch {
	case strings.TrimSpace(category) != "":
		topic = episode.CategoryTopic(category)
	case strings.TrimSpace(prompt) != "":
		topic = episode.PromptTopic(prompt)
	default:
		return topic, errors.New("one of --category or --prompt is required")
	}
	return topic, topic.Validate()
}

// followEpisode polls the episode until it reaches a terminal status,
// printing a line to progress whenever the segment counts change. When ctx is
// cancelled the episode is cancelled and the finished subset is still
// assembled before returning.
func followEpisode(ctx context.Context, progress io.Writer, mgr *workflow.Manager, requestID string) (episode.Episode, error) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	var last string
	for {
		ep, err := mgr.Status(context.WithoutCancel(ctx), requestID)
		if err != nil {
			return episode.Episode{}, err
		}
		if progress != nil {
			if line := progressLine(ep); line != last {
				fmt.Fprintln(progress, line)
				last = line
			}
		}
		if ep.Status.IsTerminal() {
			return ep, nil
		}
		select {
		case <-ctx.Done():
			if progress != nil {
				fmt.Fprintln(progress, "Interrupted: cancelling remaining segments")
			}
			if err := mgr.Cancel(requestID); err != nil {
				return episode.Episode{}, err
			}
			return mgr.Wait(context.Background(), requestID)
		case <-ticker.C:
		}
	}
}

func progressLine(ep episode.Episode) string {
	active := 0
	for _, seg := range ep.Segments {
		if seg.Status == episode.SegmentScripting || seg.Status == episode.SegmentNarrating {
			active++
		}
	}
	_, failed, _ := ep.Counts()
	line := fmt.Sprintf("%s: %s", ep.EpisodeID, ep.Progress())
	if active > 0 {
		line += fmt.Sprintf(", %d in progress", active)
	}
	if failed > 0 {
		line += fmt.Sprintf(", %d failed", failed)
	}
	if ep.Status.IsTerminal() {
		line += fmt.Sprintf(" [%s]", ep.Status)
	}
	return line
}
