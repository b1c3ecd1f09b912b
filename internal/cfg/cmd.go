package cfg

import (
	"os"

	"vcptools/internal/app"
	"vcptools/internal/contracts"
	"vcptools/internal/database"
	"vcptools/internal/domain/consts"
	"vcptools/internal/jobs"
	"vcptools/internal/net"
	"vcptools/internal/plugin"
	"vcptools/internal/progress"
	"vcptools/internal/repo"
	"vcptools/internal/scraper"
	"vcptools/internal/utils/logging"

	"github.com/spf13/cobra"
)

// initASMRCmd returns the command serving ASMRTools plugin requests.
func initASMRCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "asmr",
		Short: "Serve one ASMRTools request from stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := LoadSettings()

			env, db, err := buildEnv(s)
			if err != nil {
				return err
			}
			if db != nil {
				defer db.Close()
			}

			session, err := net.NewSession(consts.MetaFetchTimeout)
			if err != nil {
				return err
			}
			client := scraper.NewASMRClient(session, s.APIHost)
			client.SetMaxAttempts(s.MetaRetries)

			p := plugin.NewASMRPlugin(client, env, plugin.Credentials{
				Username: s.Username,
				Password: s.Password,
			})
			return plugin.Run(cmd.Context(), p, os.Stdin, os.Stdout)
		},
	}
}

// initMissAVCmd returns the command serving MissAVCrawl plugin requests.
func initMissAVCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "missav",
		Short: "Serve one MissAVCrawl request from stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := LoadSettings()

			env, db, err := buildEnv(s)
			if err != nil {
				return err
			}
			if db != nil {
				defer db.Close()
			}

			session, err := net.NewSession(consts.MetaFetchTimeout)
			if err != nil {
				return err
			}
			client := scraper.NewMissAVClient(session, s.MissAVBaseURL)
			client.SetMaxAttempts(s.MetaRetries)

			p := plugin.NewMissAVPlugin(client, env)
			return plugin.Run(cmd.Context(), p, os.Stdin, os.Stdout)
		},
	}
}

// buildEnv assembles the shared job environment. History persistence
// is best effort; a database failure downgrades to no history rather
// than refusing the request.
func buildEnv(s *Settings) (plugin.Env, *database.Database, error) {
	store, err := progress.NewStore(s.ResultsDir)
	if err != nil {
		return plugin.Env{}, nil, err
	}

	var (
		db      *database.Database
		history contracts.HistoryStore
	)
	if db, err = database.InitDB(s.DBPath); err != nil {
		logging.W("Job history unavailable, continuing without it: %v", err)
		db = nil
	} else {
		history = repo.GetHistoryStore(db.DB)
	}

	opts := jobs.TrackerOptions{
		History:  history,
		Interval: s.SnapshotInterval,
	}
	if n := app.NewNotifier(s.CallbackBaseURL); n != nil {
		opts.Notifier = n
	}

	return plugin.Env{
		Dispatcher:  jobs.NewDispatcher(store, opts),
		Store:       store,
		History:     history,
		DownloadDir: s.DownloadDir,
	}, db, nil
}
