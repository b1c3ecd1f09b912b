// Package scraper implements the site-specific metadata sources.
//
// Each source hides its fetching strategy (JSON API or regex-scraped
// HTML) behind plain methods returning normalized models, keeping the
// download engine and job tracker decoupled from parsing.
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"vcptools/internal/domain/errs"
	"vcptools/internal/models"
	"vcptools/internal/net"
)

const defaultASMRHost = "api.asmr-200.com"

// ASMRClient talks to the ASMR JSON API.
type ASMRClient struct {
	session *net.Session
	retrier net.Retrier
	baseURL string
}

// NewASMRClient returns a client against the default API host or the
// configured mirror channel.
func NewASMRClient(session *net.Session, host string) *ASMRClient {
	if host == "" {
		host = defaultASMRHost
	}
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return &ASMRClient{
		session: session,
		retrier: net.NewRetrier(),
		baseURL: host + "/api",
	}
}

// Session exposes the underlying session so downloads reuse the
// authenticated cookie jar and bearer header.
func (c *ASMRClient) Session() *net.Session {
	return c.session
}

// SetMaxAttempts overrides how many times metadata fetches are retried.
func (c *ASMRClient) SetMaxAttempts(n int) {
	if n > 0 {
		c.retrier.MaxAttempts = n
	}
}

// NormalizeWorkID strips the RJ/VJ/BJ catalog prefix; the API wants
// the bare number.
func NormalizeWorkID(workID string) string {
	upper := strings.ToUpper(workID)
	for _, prefix := range []string{"RJ", "VJ", "BJ"} {
		if strings.HasPrefix(upper, prefix) {
			return upper[len(prefix):]
		}
	}
	return workID
}

// Login authenticates and installs the bearer token on the session.
func (c *ASMRClient) Login(ctx context.Context, username, password string) error {
	res, err := c.retrier.Fetch(ctx, "login", func() (net.FetchResult, error) {
		return c.session.PostJSON(ctx, c.baseURL+"/auth/me", map[string]string{
			"name":     username,
			"password": password,
		})
	})
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	if !res.OK() {
		return fmt.Errorf("%w: login rejected with HTTP %d", errs.ErrAuthentication, res.StatusCode)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal([]byte(res.Body), &body); err != nil || body.Token == "" {
		return fmt.Errorf("%w: login response missing token", errs.ErrMalformedInput)
	}

	c.session.SetHeader("Authorization", "Bearer "+body.Token)
	return nil
}

// rawWork mirrors the API's work payload.
type rawWork struct {
	SourceID string `json:"source_id"`
	Title    string `json:"title"`
	Circle   *struct {
		Name string `json:"name"`
	} `json:"circle"`
	CircleName   string  `json:"circle_name"`
	Release      string  `json:"release"`
	AgeCategory  string  `json:"age_category_string"`
	HasSubtitle  bool    `json:"has_subtitle"`
	Rating       float64 `json:"rate_average_2dp"`
	ReviewCount  int     `json:"review_count"`
	Price        int     `json:"price"`
	DLCount      int     `json:"dl_count"`
	MainCoverURL string  `json:"mainCoverUrl"`
	ThumbnailURL string  `json:"thumbnailCoverUrl"`
	Intro        string  `json:"intro"`
	Tags         []struct {
		Name string `json:"name"`
	} `json:"tags"`
	VAs []struct {
		Name string `json:"name"`
	} `json:"vas"`
}

func (w *rawWork) normalize() models.WorkInfo {
	info := models.WorkInfo{
		SourceID:     w.SourceID,
		Title:        w.Title,
		Circle:       w.CircleName,
		Release:      w.Release,
		AgeCategory:  w.AgeCategory,
		HasSubtitle:  w.HasSubtitle,
		Rating:       w.Rating,
		ReviewCount:  w.ReviewCount,
		Price:        w.Price,
		DLCount:      w.DLCount,
		MainCoverURL: w.MainCoverURL,
		ThumbnailURL: w.ThumbnailURL,
		Intro:        w.Intro,
	}
	if w.Circle != nil && w.Circle.Name != "" {
		info.Circle = w.Circle.Name
	}
	for _, t := range w.Tags {
		info.Tags = append(info.Tags, t.Name)
	}
	for _, v := range w.VAs {
		info.VAs = append(info.VAs, v.Name)
	}
	return info
}

// WorkInfo fetches and normalizes one work's metadata.
func (c *ASMRClient) WorkInfo(ctx context.Context, workID string) (*models.WorkInfo, error) {
	target := c.baseURL + "/work/" + NormalizeWorkID(workID)

	res, err := c.retrier.Fetch(ctx, "work info", func() (net.FetchResult, error) {
		return c.session.Get(ctx, target)
	})
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, fmt.Errorf("work not found: %s (HTTP %d)", workID, res.StatusCode)
	}

	var raw rawWork
	if err := json.Unmarshal([]byte(res.Body), &raw); err != nil {
		return nil, fmt.Errorf("%w: work payload for %s: %v", errs.ErrMalformedInput, workID, err)
	}

	info := raw.normalize()
	if info.SourceID == "" {
		info.SourceID = strings.ToUpper(workID)
	}
	return &info, nil
}

// rawTrack mirrors one node of the API's nested track tree.
type rawTrack struct {
	Type             string     `json:"type"`
	Title            string     `json:"title"`
	Size             int64      `json:"size"`
	MediaDownloadURL string     `json:"mediaDownloadUrl"`
	Children         []rawTrack `json:"children"`
}

func normalizeTracks(raw []rawTrack) []*models.ManifestNode {
	nodes := make([]*models.ManifestNode, 0, len(raw))
	for _, t := range raw {
		node := &models.ManifestNode{
			Title:       t.Title,
			Size:        t.Size,
			DownloadURL: t.MediaDownloadURL,
		}
		if t.Type == "folder" {
			node.Folder = true
			node.Children = normalizeTracks(t.Children)
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// Tracks fetches a work's file tree. The endpoint answers either a
// bare array or an object wrapping it; both shapes are handled here
// so nothing downstream branches on response type.
func (c *ASMRClient) Tracks(ctx context.Context, workID string) ([]*models.ManifestNode, error) {
	target := c.baseURL + "/tracks/" + NormalizeWorkID(workID) + "?v=2"

	res, err := c.retrier.Fetch(ctx, "tracks", func() (net.FetchResult, error) {
		return c.session.Get(ctx, target)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrManifestResolution, err)
	}
	if !res.OK() {
		return nil, fmt.Errorf("%w: no tracks for work %s (HTTP %d)", errs.ErrManifestResolution, workID, res.StatusCode)
	}

	var list []rawTrack
	if err := json.Unmarshal([]byte(res.Body), &list); err == nil {
		return normalizeTracks(list), nil
	}

	var wrapped struct {
		Error  string     `json:"error"`
		Tracks []rawTrack `json:"tracks"`
	}
	if err := json.Unmarshal([]byte(res.Body), &wrapped); err != nil {
		return nil, fmt.Errorf("%w: track payload for %s: %v", errs.ErrMalformedInput, workID, err)
	}
	if wrapped.Error != "" {
		return nil, fmt.Errorf("%w: %s", errs.ErrManifestResolution, wrapped.Error)
	}
	return normalizeTracks(wrapped.Tracks), nil
}

// SearchFilters narrow a work search.
type SearchFilters struct {
	Tags   []string
	NoTags []string
	Circle string
	Age    string
}

// Search queries the work listing. Filters are folded into the search
// content string the way the API expects ($tag:...$ markers).
func (c *ASMRClient) Search(ctx context.Context, keyword string, f SearchFilters) ([]models.WorkInfo, error) {
	var parts []string
	if keyword != "" {
		parts = append(parts, keyword)
	}
	for _, tag := range f.Tags {
		parts = append(parts, fmt.Sprintf("$tag:%s$", strings.TrimSpace(tag)))
	}
	for _, tag := range f.NoTags {
		parts = append(parts, fmt.Sprintf("$-tag:%s$", strings.TrimSpace(tag)))
	}
	if f.Circle != "" {
		parts = append(parts, fmt.Sprintf("$circle:%s$", f.Circle))
	}
	if f.Age != "" {
		parts = append(parts, fmt.Sprintf("$age:%s$", f.Age))
	}

	content := url.PathEscape(strings.Join(parts, " "))
	target := c.baseURL + "/search/" + content + "?page=1&subtitle=0&order=create_date&sort=desc"

	res, err := c.retrier.Fetch(ctx, "search", func() (net.FetchResult, error) {
		return c.session.Get(ctx, target)
	})
	if err != nil {
		return nil, err
	}

	var body struct {
		Works []rawWork `json:"works"`
	}
	if err := json.Unmarshal([]byte(res.Body), &body); err != nil {
		return nil, fmt.Errorf("%w: search payload: %v", errs.ErrMalformedInput, err)
	}

	works := make([]models.WorkInfo, 0, len(body.Works))
	for i := range body.Works {
		works = append(works, body.Works[i].normalize())
	}
	return works, nil
}
