package scraper

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"vcptools/internal/domain/consts"
	"vcptools/internal/domain/errs"
	"vcptools/internal/models"
	"vcptools/internal/net"
	"vcptools/internal/parsing"
	"vcptools/internal/utils/logging"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly"
)

const defaultMissAVBase = "https://missav.ws"

var (
	mediaURLPattern   = regexp.MustCompile(`https?://[^"'\s\\]+\.(?:m3u8|mp4)`)
	videoCodePattern  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)+$`)
	nonVideoSegments = map[string]struct{}{
		"search": {}, "genres": {}, "actresses": {}, "makers": {},
		"directors": {}, "playlists": {}, "labels": {}, "en": {}, "ja": {},
	}
)

// MissAVClient scrapes video metadata out of site HTML. There is no
// structured API; regex and selector extraction against undocumented
// markup is the interface.
type MissAVClient struct {
	session *net.Session
	retrier net.Retrier
	baseURL string
}

// NewMissAVClient returns a client against the default site or a
// configured mirror.
func NewMissAVClient(session *net.Session, baseURL string) *MissAVClient {
	if baseURL == "" {
		baseURL = defaultMissAVBase
	}
	return &MissAVClient{
		session: session,
		retrier: net.NewRetrier(),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Session exposes the underlying session so downloads reuse the
// accumulated cookies.
func (c *MissAVClient) Session() *net.Session {
	return c.session
}

// SetMaxAttempts overrides how many times metadata fetches are retried.
func (c *MissAVClient) SetMaxAttempts(n int) {
	if n > 0 {
		c.retrier.MaxAttempts = n
	}
}

// PageURL builds the detail page URL for a bare catalog code.
func (c *MissAVClient) PageURL(code string) string {
	return c.baseURL + "/en/" + strings.ToLower(strings.TrimSpace(code))
}

// VideoInfo fetches a video page and extracts its metadata.
func (c *MissAVClient) VideoInfo(ctx context.Context, pageURL string) (*models.VideoInfo, error) {
	res, err := c.retrier.Fetch(ctx, "video page", func() (net.FetchResult, error) {
		return c.session.Get(ctx, pageURL)
	})
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, fmt.Errorf("video page unavailable: %s (HTTP %d)", pageURL, res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: video page for %s: %v", errs.ErrMalformedInput, pageURL, err)
	}

	info := &models.VideoInfo{
		URL:  pageURL,
		Code: VideoCodeFromURL(pageURL),
	}

	info.Title = strings.TrimSpace(doc.Find(`meta[property="og:title"]`).AttrOr("content", ""))
	if info.Title == "" {
		info.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if info.Title == "" || isErrorPageTitle(info.Title) {
		return nil, fmt.Errorf("%w: %s does not look like a video page", errs.ErrMalformedInput, pageURL)
	}

	info.Thumbnail = doc.Find(`meta[property="og:image"]`).AttrOr("content", "")

	if release := doc.Find(`meta[property="og:video:release_date"]`).AttrOr("content", ""); release != "" {
		info.PublishDate = parsing.NormalizeReleaseDate(release)
	}

	// The player URL is buried in inline script; a media-URL regex is
	// the most redesign-tolerant way to dig it out.
	if m := mediaURLPattern.FindString(res.Body); m != "" {
		info.SourceURL = m
	}

	return info, nil
}

// fetchTitle is the lightweight variant used by the enrichment pool.
func (c *MissAVClient) fetchTitle(ctx context.Context, pageURL string) (string, error) {
	res, err := c.session.Get(ctx, pageURL)
	if err != nil {
		return "", err
	}
	if !res.OK() {
		return "", fmt.Errorf("HTTP %d for %s", res.StatusCode, pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.Body))
	if err != nil {
		return "", err
	}

	title := strings.TrimSpace(doc.Find(`meta[property="og:title"]`).AttrOr("content", ""))
	if title == "" || isErrorPageTitle(title) {
		return "", fmt.Errorf("no usable title at %s", pageURL)
	}
	return title, nil
}

// Search crawls the search listing for video links, then enriches the
// results with real page titles through the bounded worker pool.
func (c *MissAVClient) Search(ctx context.Context, keyword string, page int, sort string) ([]models.VideoInfo, error) {
	if page < 1 {
		page = 1
	}

	searchURL := fmt.Sprintf("%s/en/search/%s?page=%d", c.baseURL, url.PathEscape(keyword), page)
	if param := sortParameter(sort); param != "" {
		searchURL += "&sort=" + param
	}

	seen := make(map[string]struct{})
	var videoURLs []string

	// AllowURLRevisit lets the retrier re-crawl the same listing URL.
	collector := colly.NewCollector(colly.UserAgent(net.UserAgent()), colly.AllowURLRevisit())

	var listing net.FetchResult
	collector.OnResponse(func(r *colly.Response) {
		listing = net.FetchResult{StatusCode: r.StatusCode, Body: string(r.Body)}
	})
	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		link := e.Request.AbsoluteURL(e.Attr("href"))
		if !c.isVideoURL(link) {
			return
		}
		if _, ok := seen[link]; ok {
			return
		}
		seen[link] = struct{}{}
		videoURLs = append(videoURLs, link)
	})

	if _, err := c.retrier.Fetch(ctx, "search listing", func() (net.FetchResult, error) {
		// A fresh attempt discards links from any partial crawl.
		seen = make(map[string]struct{})
		videoURLs = videoURLs[:0]
		listing = net.FetchResult{}

		if err := collector.Visit(searchURL); err != nil {
			return net.FetchResult{}, err
		}
		collector.Wait()
		return listing, nil
	}); err != nil {
		return nil, fmt.Errorf("search fetch failed for %q: %w", keyword, err)
	}

	logging.D(1, "Search %q page %d: %d candidate links", keyword, page, len(videoURLs))

	titles := c.enrichTitles(ctx, videoURLs)

	results := make([]models.VideoInfo, 0, len(videoURLs))
	for _, u := range videoURLs {
		code := VideoCodeFromURL(u)
		title := titles[u]
		if title == "" {
			title = strings.ToUpper(code)
		}
		results = append(results, models.VideoInfo{
			URL:   u,
			Code:  code,
			Title: title,
		})
	}
	return results, nil
}

// enrichTitles runs the bounded enrichment pool with a per-worker
// session; the shared session is not safe across workers.
func (c *MissAVClient) enrichTitles(ctx context.Context, urls []string) map[string]string {
	enricher := NewEnricher(func() TitleFetcher {
		s, err := net.NewSession(consts.MetaFetchTimeout)
		if err != nil {
			return func(context.Context, string) (string, error) {
				return "", err
			}
		}
		worker := NewMissAVClient(s, c.baseURL)
		return worker.fetchTitle
	})
	return enricher.Titles(ctx, urls)
}

// isVideoURL filters listing links down to detail pages: same host,
// slug-shaped last segment, not a known section page.
func (c *MissAVClient) isVideoURL(link string) bool {
	parsed, err := url.Parse(link)
	if err != nil || parsed.Host == "" {
		return false
	}

	base, err := url.Parse(c.baseURL)
	if err != nil || parsed.Host != base.Host {
		return false
	}

	seg := lastPathSegment(parsed.Path)
	if seg == "" {
		return false
	}
	if _, excluded := nonVideoSegments[seg]; excluded {
		return false
	}
	return videoCodePattern.MatchString(strings.ToLower(seg))
}

// VideoCodeFromURL derives the catalog code from a detail page URL.
func VideoCodeFromURL(pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	seg := lastPathSegment(parsed.Path)
	return strings.TrimSuffix(strings.ToLower(seg), "-uncensored-leak")
}

func lastPathSegment(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

func isErrorPageTitle(title string) bool {
	lower := strings.ToLower(title)
	return strings.Contains(lower, "404") || strings.Contains(lower, "not found")
}

func sortParameter(sort string) string {
	switch strings.ToLower(sort) {
	case "views", "popular":
		return "views"
	case "saved":
		return "saved"
	case "today", "daily":
		return "today_views"
	case "week", "weekly":
		return "weekly_views"
	case "month", "monthly":
		return "monthly_views"
	case "released", "new", "":
		return ""
	default:
		return ""
	}
}
