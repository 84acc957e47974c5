package workflow

import (
	"log/slog"

	"newscast/internal/assembly"
	"newscast/internal/collector"
	"newscast/internal/config"
	"newscast/internal/media/audio"
	"newscast/internal/narration"
	"newscast/internal/script"
	"newscast/internal/services"
	"newscast/internal/services/llm"
	"newscast/internal/services/tts"
)

// BuildStages wires the production pipeline from configuration: feed
// collector, LLM script writer, TTS narration, and ffmpeg assembly.
func BuildStages(cfg *config.Config, logger *slog.Logger) (Stages, error) {
	client := llm.NewClient(llm.ConfigFrom(cfg.LLM))

	coll, err := collector.NewFromConfig(cfg,
		collector.WithCompleter(client),
		collector.WithLogger(logger),
	)
	if err != nil {
		return Stages{}, err
	}

	speaker, err := tts.New(cfg)
	if err != nil {
		return Stages{}, services.Wrap(services.ErrConfiguration, "workflow", "build stages", "invalid tts backend", err)
	}
	processor := audio.NewFFmpeg(cfg)

	return Stages{
		Collector: coll,
		Writer:    script.NewWriter(client, cfg.Episode.TargetDurationMinutes, script.WithLogger(logger)),
		Narrator:  narration.New(speaker, processor, logger),
		Assembler: assembly.New(cfg, processor, speaker, logger),
	}, nil
}
