// Package keys holds Viper configuration key names.
package keys

// Configuration keys, bound to VCPTOOLS_* environment variables.
const (
	Username        = "username"
	Password        = "password"
	APIHost         = "api-host"
	MissAVBaseURL   = "missav-base-url"
	DownloadDir     = "download-dir"
	ResultsDir      = "results-dir"
	CallbackBaseURL = "callback-base-url"
	DBPath          = "db-path"
	ProgressSecs    = "progress-interval"
	MetaRetries     = "meta-retries"
	Debug           = "debug"
	ConfigFile      = "config"
)
