package plugin

import (
	"context"
	"fmt"
	"strings"

	"vcptools/internal/domain/consts"
	"vcptools/internal/downloads"
	"vcptools/internal/jobs"
	"vcptools/internal/models"
	"vcptools/internal/scraper"
	"vcptools/internal/utils/logging"
)

// ASMRPlugin serves the ASMRTools command set.
type ASMRPlugin struct {
	client *scraper.ASMRClient
	env    Env
	creds  Credentials
}

// NewASMRPlugin returns the ASMRTools handler.
func NewASMRPlugin(client *scraper.ASMRClient, env Env, creds Credentials) *ASMRPlugin {
	return &ASMRPlugin{client: client, env: env, creds: creds}
}

// Name returns the plugin's registered name.
func (p *ASMRPlugin) Name() string {
	return consts.PluginASMR
}

// Handle routes one command.
func (p *ASMRPlugin) Handle(ctx context.Context, req *models.Request) (*models.Response, *jobs.Handle) {
	switch req.Command {
	case "SearchWorks":
		return p.searchWorks(ctx, req), nil
	case "GetWorkInfo":
		return p.workInfo(ctx, req), nil
	case "DownloadWorkAsync":
		return p.downloadAsync(ctx, req)
	case "GetDownloadHistory":
		return historyResponse(ctx, p.env.History, consts.PluginASMR, req.Limit), nil
	default:
		return models.Errorf("unknown command %q", req.Command), nil
	}
}

func (p *ASMRPlugin) searchWorks(ctx context.Context, req *models.Request) *models.Response {
	if req.Keyword == "" && req.Tags == "" && req.Circle == "" {
		return missingField("keyword (or tags/circle)")
	}

	works, err := p.client.Search(ctx, req.Keyword, scraper.SearchFilters{
		Tags:   splitCSV(req.Tags),
		NoTags: splitCSV(req.NoTags),
		Circle: req.Circle,
	})
	if err != nil {
		return models.Errorf("search failed: %v", err)
	}
	if len(works) == 0 {
		return models.Success(fmt.Sprintf("No works found for %q.", req.Keyword))
	}

	if req.Limit > 0 && len(works) > req.Limit {
		works = works[:req.Limit]
	}
	return models.Success(formatWorkList(works))
}

func (p *ASMRPlugin) workInfo(ctx context.Context, req *models.Request) *models.Response {
	if req.WorkID == "" {
		return missingField("work_id")
	}

	info, err := p.client.WorkInfo(ctx, req.WorkID)
	if err != nil {
		return models.Errorf("failed to fetch work info: %v", err)
	}

	detail := formatWorkDetail(info)

	// The file tree is enrichment, not a requirement of this command.
	if tracks, err := p.client.Tracks(ctx, req.WorkID); err != nil {
		logging.W("File tree unavailable for %s: %v", req.WorkID, err)
	} else if len(tracks) > 0 {
		items := downloads.ResolveManifest(tracks)
		detail += "\n\nFiles:\n" + renderTree(tracks)
		if section := largestFilesSection(items, 5); section != "" {
			detail += "\n" + section
		}
	}

	return models.Success(detail)
}

func (p *ASMRPlugin) downloadAsync(ctx context.Context, req *models.Request) (*models.Response, *jobs.Handle) {
	if req.WorkID == "" {
		return missingField("work_id"), nil
	}

	job := newJob(consts.PluginASMR, consts.SnapshotTypeASMR, req)
	handle := p.env.Dispatcher.Dispatch(ctx, job, p.downloadWork(job))

	return ackResponse(job, fmt.Sprintf(
		"Download of work %s accepted as job %s. Progress is reported asynchronously.",
		req.WorkID, job.ID)), handle
}

// downloadWork is the background pipeline for one work: login,
// metadata, manifest resolution, sequential transfer.
func (p *ASMRPlugin) downloadWork(job *models.Job) jobs.WorkFunc {
	return func(ctx context.Context, t *jobs.Tracker) error {
		if p.creds.Username != "" {
			if err := p.client.Login(ctx, p.creds.Username, p.creds.Password); err != nil {
				return err
			}
		}

		info, err := p.client.WorkInfo(ctx, job.WorkID)
		if err != nil {
			return err
		}

		tracks, err := p.client.Tracks(ctx, job.WorkID)
		if err != nil {
			return err
		}

		items := downloads.ResolveManifest(tracks)
		if len(items) == 0 {
			return fmt.Errorf("work %s has no downloadable files", job.WorkID)
		}

		filtered := downloads.FilterByPath(items, job.TargetPath)
		if len(filtered) == 0 {
			return fmt.Errorf("no files match path %q in work %s", job.TargetPath, job.WorkID)
		}

		t.Preparing(info.Title, len(filtered), downloads.BuildFileStructure(tracks))

		destRoot := downloads.DestDir(p.env.DownloadDir, "asmr", info.SourceID, info.Title)
		engine := downloads.NewEngine(p.client.Session())
		acc := downloads.NewAccumulator(filtered)

		res, err := engine.RunAll(ctx, filtered, info.Title, destRoot, func(ev models.ItemEvent) {
			t.Progress(acc.Apply(ev))
		})
		if err != nil {
			return err
		}
		if res.SucceededCount == 0 && res.TotalItems > 0 {
			return fmt.Errorf("all downloads failed (%d files)", res.TotalItems)
		}

		t.Succeed(res)
		return nil
	}
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
