package deps

import "newscast/internal/config"

// Requirements lists the binaries episode generation shells out to.
func Requirements(cfg *config.Config) []Requirement {
	if cfg == nil {
		return nil
	}
	reqs := []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Audio.FFmpegBinary,
			Description: "Concatenates narration chunks and assembles episodes",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Audio.FFprobeBinary,
			Description: "Measures clip durations for chapter timings",
		},
	}
	if cfg.TTS.Backend == config.TTSBackendCommand {
		reqs = append(reqs, Requirement{
			Name:        "TTS command",
			Command:     cfg.TTS.Command,
			Description: "Synthesizes narration audio",
		})
	}
	return reqs
}
