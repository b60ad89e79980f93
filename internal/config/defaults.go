package config

const (
	defaultConfigPath          = "~/.config/vidnorm/config.toml"
	defaultScratchDir          = "/tmp/transcode"
	defaultQuality             = 23
	defaultPreset              = "medium"
	defaultRetries             = 3
	defaultEncodeTimeout       = 2 * 60 * 60
	defaultWorkers             = 1
	defaultTotalShards         = 1
	defaultStateBackend        = StateBackendJSON
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultNotifyTimeout       = 10
	defaultRelayBind           = "0.0.0.0:5000"
	defaultRelayOllamaURL      = "http://localhost:11434"
	defaultRelayOllamaModel    = "mistral-small:24b"
	defaultRelayNtfyURL        = "http://localhost:8080/alerts"
	defaultRelayTimeoutSeconds = 30
)

// State backend identifiers accepted by state.backend.
const (
	StateBackendJSON   = "json"
	StateBackendSQLite = "sqlite"
)

// ShardIndexEnv is the batch-scheduler job-array completion index variable.
// When set it overrides workflow.shard_index and the --shard-index flag.
const ShardIndexEnv = "JOB_COMPLETION_INDEX"

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ScratchDir: defaultScratchDir,
		},
		Encode: Encode{
			Quality:        defaultQuality,
			Preset:         defaultPreset,
			Retries:        defaultRetries,
			TimeoutSeconds: defaultEncodeTimeout,
		},
		Workflow: Workflow{
			Workers:     defaultWorkers,
			TotalShards: defaultTotalShards,
		},
		State: State{
			Backend: defaultStateBackend,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			RunCompleted:   true,
			Failures:       true,
		},
		Relay: Relay{
			Bind:           defaultRelayBind,
			OllamaURL:      defaultRelayOllamaURL,
			OllamaModel:    defaultRelayOllamaModel,
			NtfyURL:        defaultRelayNtfyURL,
			TimeoutSeconds: defaultRelayTimeoutSeconds,
		},
	}
}
