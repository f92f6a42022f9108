package config

const (
	defaultConfigPath          = "~/.config/pod2aria/config.toml"
	projectConfigName          = "pod2aria.toml"
	defaultOutputFile          = "urls.txt"
	defaultFeedCache           = "feed.xml"
	defaultRenameMode          = "missing"
	defaultUserAgent           = "pod2aria/dev (+https://github.com/pod2aria/pod2aria)"
	defaultFeedTimeoutSeconds  = 30
	defaultProbeConcurrency    = 4
	defaultProbeTimeoutSeconds = 15
	defaultProbeCacheTTLHours  = 168
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"

	// UserAgentEnv overrides feed.user_agent when the file leaves it empty.
	UserAgentEnv = "POD2ARIA_USER_AGENT"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Output: Output{
			File:      defaultOutputFile,
			FeedCache: defaultFeedCache,
		},
		Rename: Rename{
			Mode: defaultRenameMode,
		},
		Feed: Feed{
			TimeoutSeconds: defaultFeedTimeoutSeconds,
		},
		Probe: Probe{
			Concurrency:    defaultProbeConcurrency,
			TimeoutSeconds: defaultProbeTimeoutSeconds,
		},
		ProbeCache: ProbeCache{
			Path:     defaultProbeCachePath(),
			TTLHours: defaultProbeCacheTTLHours,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
