package config

const (
	defaultConfigPath             = "~/.config/newscast/config.toml"
	defaultEpisodesDir            = "~/.local/share/newscast/episodes"
	defaultStateDir               = "~/.local/share/newscast"
	defaultLogDir                 = "~/.local/share/newscast/logs"
	defaultSegments               = 8
	defaultTargetDurationMinutes  = 35
	defaultMaxArticles            = 25
	defaultWorkerCount            = 3
	defaultAssemblyTimeoutSeconds = 600
	defaultPerSourceLimit         = 10
	defaultSourceTimeoutSeconds   = 15
	defaultDedupThreshold         = 0.85
	defaultRecencyHalfLifeHours   = 24
	defaultEnrichLimit            = 5
	defaultUserAgent              = "newscast/0.1 (+https://github.com/newscast)"
	defaultLLMBaseURL             = "https://api.groq.com/openai/v1/chat/completions"
	defaultLLMModel               = "llama-3.3-70b-versatile"
	defaultLLMTitle               = "newscast"
	defaultLLMTimeoutSeconds      = 60
	defaultLLMRetryAttempts       = 3
	defaultTTSBackend             = "openai"
	defaultTTSBaseURL             = "https://api.openai.com/v1/audio/speech"
	defaultTTSModel               = "tts-1"
	defaultTTSVoice               = "alloy"
	defaultTTSMaxChars            = 4096
	defaultTTSTimeoutSeconds      = 60
	defaultTTSRetryAttempts       = 4
	defaultTTSRetryBaseMillis     = 1000
	defaultTTSRetryMaxMillis      = 10000
	defaultAudioPreset            = "fast"
	defaultAudioFormat            = "mp3"
	defaultFFmpegBinary           = "ffmpeg"
	defaultFFprobeBinary          = "ffprobe"
	defaultAudioCommandTimeout    = 300
	defaultGapPolicy              = GapPolicySkip
	defaultGapSeconds             = 2.0
	defaultFillerText             = "We're sorry, this story is unavailable right now. Let's move on to the next update."
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Gap policies applied by the assembler when a segment failed.
const (
	GapPolicySkip    = "skip"
	GapPolicySilence = "silence"
	GapPolicyFiller  = "filler"
)

// TTS backends.
const (
	TTSBackendOpenAI  = "openai"
	TTSBackendCommand = "command"
)

type audioPreset struct {
	bitrate    string
	sampleRate int
	channels   int
	quality    int
}

var audioPresets = map[string]audioPreset{
	"fast":         {bitrate: "128k", sampleRate: 22050, channels: 1, quality: 4},
	"high_quality": {bitrate: "192k", sampleRate: 44100, channels: 2, quality: 2},
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			EpisodesDir: defaultEpisodesDir,
			StateDir:    defaultStateDir,
			LogDir:      defaultLogDir,
		},
		Episode: Episode{
			Segments:               defaultSegments,
			TargetDurationMinutes:  defaultTargetDurationMinutes,
			MaxArticles:            defaultMaxArticles,
			WorkerCount:            defaultWorkerCount,
			AssemblyTimeoutSeconds: defaultAssemblyTimeoutSeconds,
		},
		Collector: Collector{
			PerSourceLimit:       defaultPerSourceLimit,
			SourceTimeoutSeconds: defaultSourceTimeoutSeconds,
			DedupThreshold:       defaultDedupThreshold,
			RecencyHalfLifeHours: defaultRecencyHalfLifeHours,
			EnrichLimit:          defaultEnrichLimit,
			UserAgent:            defaultUserAgent,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			RetryAttempts:  defaultLLMRetryAttempts,
		},
		TTS: TTS{
			Backend:         defaultTTSBackend,
			BaseURL:         defaultTTSBaseURL,
			Model:           defaultTTSModel,
			Voice:           defaultTTSVoice,
			MaxChars:        defaultTTSMaxChars,
			TimeoutSeconds:  defaultTTSTimeoutSeconds,
			RetryAttempts:   defaultTTSRetryAttempts,
			RetryBaseMillis: defaultTTSRetryBaseMillis,
			RetryMaxMillis:  defaultTTSRetryMaxMillis,
		},
		Audio: Audio{
			Preset:                defaultAudioPreset,
			Format:                defaultAudioFormat,
			FFmpegBinary:          defaultFFmpegBinary,
			FFprobeBinary:         defaultFFprobeBinary,
			CommandTimeoutSeconds: defaultAudioCommandTimeout,
		},
		Assembly: Assembly{
			GapPolicy:  defaultGapPolicy,
			GapSeconds: defaultGapSeconds,
			FillerText: defaultFillerText,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
			Started:        true,
			Completed:      true,
			Failed:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
