package config

const (
	defaultConfigPath                = "~/.config/salient/config.toml"
	defaultDataDir                   = "~/.local/share/salient/data"
	defaultLogDir                    = "~/.local/share/salient/logs"
	defaultAPIBind                   = "127.0.0.1:8000"
	defaultMaxUploadMB               = 500
	defaultCORSOrigin                = "*"
	defaultSampleRate                = 16000
	defaultFFmpegBinary              = "ffmpeg"
	defaultWorkflowWorkers           = 2
	defaultWorkflowPollInterval      = 1
	defaultWorkflowErrorRetry        = 10
	defaultWorkflowHeartbeatInterval = 15
	defaultWorkflowHeartbeatTimeout  = 120
	defaultRetentionHours            = 72
	defaultPurgeInterval             = 600
	defaultLogFormat                 = "console"
	defaultLogLevel                  = "info"
	defaultLogRetentionDays          = 30
	defaultNotifyTimeout             = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		API: API{
			Bind:        defaultAPIBind,
			MaxUploadMB: defaultMaxUploadMB,
			CORSOrigin:  defaultCORSOrigin,
		},
		Analysis: Analysis{
			SampleRate:   defaultSampleRate,
			FFmpegBinary: defaultFFmpegBinary,
		},
		Workflow: Workflow{
			Workers:            defaultWorkflowWorkers,
			PollInterval:       defaultWorkflowPollInterval,
			ErrorRetryInterval: defaultWorkflowErrorRetry,
			HeartbeatInterval:  defaultWorkflowHeartbeatInterval,
			HeartbeatTimeout:   defaultWorkflowHeartbeatTimeout,
			RetentionHours:     defaultRetentionHours,
			PurgeInterval:      defaultPurgeInterval,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			JobCompleted:   true,
			JobFailed:      true,
		},
		Metrics: Metrics{
			Enabled: true,
		},
	}
}
