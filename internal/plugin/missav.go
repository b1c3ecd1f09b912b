package plugin

import (
	"context"
	"fmt"
	"path"
	"strings"

	"vcptools/internal/domain/consts"
	"vcptools/internal/downloads"
	"vcptools/internal/jobs"
	"vcptools/internal/models"
	"vcptools/internal/parsing"
	"vcptools/internal/scraper"
)

// MissAVPlugin serves the MissAVCrawl command set.
type MissAVPlugin struct {
	client *scraper.MissAVClient
	env    Env
}

// NewMissAVPlugin returns the MissAVCrawl handler.
func NewMissAVPlugin(client *scraper.MissAVClient, env Env) *MissAVPlugin {
	return &MissAVPlugin{client: client, env: env}
}

// Name returns the plugin's registered name.
func (p *MissAVPlugin) Name() string {
	return consts.PluginMissAV
}

// Handle routes one command.
func (p *MissAVPlugin) Handle(ctx context.Context, req *models.Request) (*models.Response, *jobs.Handle) {
	switch req.Command {
	case "GetVideoInfo":
		return p.videoInfo(ctx, req), nil
	case "SearchVideos":
		return p.searchVideos(ctx, req), nil
	case "DownloadVideoAsync":
		return p.downloadAsync(ctx, req)
	case "GetDownloadHistory":
		return historyResponse(ctx, p.env.History, consts.PluginMissAV, req.Limit), nil
	default:
		return models.Errorf("unknown command %q", req.Command), nil
	}
}

// pageURL accepts either a full detail URL or a bare catalog code.
func (p *MissAVPlugin) pageURL(req *models.Request) string {
	if req.URL != "" {
		return req.URL
	}
	if req.WorkID != "" {
		return p.client.PageURL(req.WorkID)
	}
	return ""
}

func (p *MissAVPlugin) videoInfo(ctx context.Context, req *models.Request) *models.Response {
	target := p.pageURL(req)
	if target == "" {
		return missingField("url")
	}

	info, err := p.client.VideoInfo(ctx, target)
	if err != nil {
		return models.Errorf("failed to fetch video info: %v", err)
	}
	return models.Success(formatVideoDetail(info))
}

func (p *MissAVPlugin) searchVideos(ctx context.Context, req *models.Request) *models.Response {
	if req.Keyword == "" {
		return models.Errorf("missing required field: keyword")
	}

	videos, err := p.client.Search(ctx, req.Keyword, req.Page, req.Sort)
	if err != nil {
		return models.Errorf("search failed: %v", err)
	}
	if len(videos) == 0 {
		return models.Success(fmt.Sprintf("No videos found for %q.", req.Keyword))
	}

	if req.Limit > 0 && len(videos) > req.Limit {
		videos = videos[:req.Limit]
	}
	return models.Success(formatVideoList(videos, req.Keyword, req.Page))
}

func (p *MissAVPlugin) downloadAsync(ctx context.Context, req *models.Request) (*models.Response, *jobs.Handle) {
	target := p.pageURL(req)
	if target == "" {
		return missingField("url"), nil
	}
	if !supportedQuality(req.Quality) {
		return models.Errorf("unsupported quality %q: only the source file is available", req.Quality), nil
	}

	job := newJob(consts.PluginMissAV, consts.SnapshotTypeMissAV, req)
	if job.WorkID == "" {
		job.WorkID = scraper.VideoCodeFromURL(target)
	}
	handle := p.env.Dispatcher.Dispatch(ctx, job, p.downloadWork(job, target))

	return ackResponse(job, fmt.Sprintf(
		"Download of video %s accepted as job %s. Progress is reported asynchronously.",
		job.WorkID, job.ID)), handle
}

// downloadWork resolves the scraped metadata into a single-item
// manifest and runs it through the shared engine.
func (p *MissAVPlugin) downloadWork(job *models.Job, pageURL string) jobs.WorkFunc {
	return func(ctx context.Context, t *jobs.Tracker) error {
		info, err := p.client.VideoInfo(ctx, pageURL)
		if err != nil {
			return err
		}
		if info.SourceURL == "" {
			return fmt.Errorf("no downloadable media found at %s", pageURL)
		}
		if strings.HasSuffix(strings.ToLower(info.SourceURL), ".m3u8") {
			return fmt.Errorf("video %s is served as an HLS stream only; no direct file available", info.Code)
		}

		filename := parsing.SanitizeFilename(info.Title) + mediaExtension(info.SourceURL)
		manifest := []*models.ManifestNode{{
			Title:       filename,
			Size:        info.SizeBytes,
			DownloadURL: info.SourceURL,
		}}

		items := downloads.ResolveManifest(manifest)
		t.Preparing(info.Title, len(items), downloads.BuildFileStructure(manifest))

		destRoot := downloads.DestDir(p.env.DownloadDir, "missav", info.Code, info.Title)
		engine := downloads.NewEngine(p.client.Session())
		acc := downloads.NewAccumulator(items)

		res, err := engine.RunAll(ctx, items, info.Title, destRoot, func(ev models.ItemEvent) {
			t.Progress(acc.Apply(ev))
		})
		if err != nil {
			return err
		}
		if res.SucceededCount == 0 {
			return fmt.Errorf("download failed for %s", info.Code)
		}

		t.Succeed(res)
		return nil
	}
}

// supportedQuality reports whether a requested quality can be
// honored. Only the single source file is served; variant selection
// would need the HLS playlists the downloader refuses.
func supportedQuality(q string) bool {
	switch strings.ToLower(strings.TrimSpace(q)) {
	case "", "best", "highest", "source":
		return true
	}
	return false
}

func mediaExtension(mediaURL string) string {
	trimmed := mediaURL
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	if ext := path.Ext(trimmed); ext != "" && len(ext) <= 5 {
		return ext
	}
	return ".mp4"
}
