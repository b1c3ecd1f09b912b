package cfg

import (
	"os"
	"path/filepath"
	"time"

	"vcptools/internal/domain/consts"
	"vcptools/internal/domain/keys"

	"github.com/spf13/viper"
)

// Settings holds the resolved runtime configuration.
type Settings struct {
	Username         string
	Password         string
	APIHost          string
	MissAVBaseURL    string
	DownloadDir      string
	ResultsDir       string
	CallbackBaseURL  string
	DBPath           string
	SnapshotInterval time.Duration
	MetaRetries      int
	Debug            int
}

// LoadSettings resolves all configuration values from flags, environment
// and config file defaults.
func LoadSettings() *Settings {
	s := &Settings{
		Username:        viper.GetString(keys.Username),
		Password:        viper.GetString(keys.Password),
		APIHost:         viper.GetString(keys.APIHost),
		MissAVBaseURL:   viper.GetString(keys.MissAVBaseURL),
		DownloadDir:     viper.GetString(keys.DownloadDir),
		ResultsDir:      viper.GetString(keys.ResultsDir),
		CallbackBaseURL: viper.GetString(keys.CallbackBaseURL),
		DBPath:          viper.GetString(keys.DBPath),
		MetaRetries:     viper.GetInt(keys.MetaRetries),
		Debug:           viper.GetInt(keys.Debug),
	}

	if secs := viper.GetInt(keys.ProgressSecs); secs > 0 {
		s.SnapshotInterval = time.Duration(secs) * time.Second
	} else {
		s.SnapshotInterval = consts.SnapshotInterval
	}

	if s.DownloadDir == "" {
		s.DownloadDir = filepath.Join(workingDir(), "downloads")
	}
	if s.ResultsDir == "" {
		s.ResultsDir = filepath.Join(workingDir(), "results")
	}
	if s.DBPath == "" {
		s.DBPath = filepath.Join(workingDir(), "vcptools.db")
	}
	return s
}

func workingDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
