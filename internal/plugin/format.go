package plugin

import (
	"fmt"
	"sort"
	"strings"

	"vcptools/internal/models"
	"vcptools/internal/parsing"
)

// formatWorkList renders search results as a numbered list.
func formatWorkList(works []models.WorkInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d works:\n", len(works))
	for i, w := range works {
		fmt.Fprintf(&b, "\n%d. %s", i+1, w.Title)
		if w.SourceID != "" {
			fmt.Fprintf(&b, " [%s]", w.SourceID)
		}
		b.WriteString("\n")
		if w.Circle != "" {
			fmt.Fprintf(&b, "   Circle: %s\n", w.Circle)
		}
		if w.Release != "" {
			fmt.Fprintf(&b, "   Released: %s\n", parsing.NormalizeReleaseDate(w.Release))
		}
		if w.Rating > 0 {
			fmt.Fprintf(&b, "   Rating: %.2f (%d reviews)\n", w.Rating, w.ReviewCount)
		}
		if len(w.Tags) > 0 {
			fmt.Fprintf(&b, "   Tags: %s\n", strings.Join(w.Tags, ", "))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatWorkDetail renders one work's full metadata.
func formatWorkDetail(w *models.WorkInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]\n", w.Title, w.SourceID)
	if w.Circle != "" {
		fmt.Fprintf(&b, "Circle: %s\n", w.Circle)
	}
	if w.Release != "" {
		fmt.Fprintf(&b, "Released: %s\n", parsing.NormalizeReleaseDate(w.Release))
	}
	if w.AgeCategory != "" {
		fmt.Fprintf(&b, "Age category: %s\n", w.AgeCategory)
	}
	if w.Rating > 0 {
		fmt.Fprintf(&b, "Rating: %.2f (%d reviews)\n", w.Rating, w.ReviewCount)
	}
	if w.Price > 0 {
		fmt.Fprintf(&b, "Price: %d JPY\n", w.Price)
	}
	if w.DLCount > 0 {
		fmt.Fprintf(&b, "Downloads: %d\n", w.DLCount)
	}
	if w.HasSubtitle {
		b.WriteString("Subtitles: yes\n")
	}
	if len(w.VAs) > 0 {
		fmt.Fprintf(&b, "Voice actors: %s\n", strings.Join(w.VAs, ", "))
	}
	if len(w.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(w.Tags, ", "))
	}
	if w.Intro != "" {
		fmt.Fprintf(&b, "\n%s\n", strings.TrimSpace(w.Intro))
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderTree draws the manifest as an indented tree with branch
// connectors.
func renderTree(nodes []*models.ManifestNode) string {
	var b strings.Builder
	writeTree(&b, nodes, "")
	return strings.TrimRight(b.String(), "\n")
}

func writeTree(b *strings.Builder, nodes []*models.ManifestNode, prefix string) {
	for i, node := range nodes {
		connector, childPrefix := "├── ", prefix+"│   "
		if i == len(nodes)-1 {
			connector, childPrefix = "└── ", prefix+"    "
		}

		if node.Folder {
			fmt.Fprintf(b, "%s%s%s/\n", prefix, connector, node.Title)
			writeTree(b, node.Children, childPrefix)
			continue
		}
		if node.Size > 0 {
			fmt.Fprintf(b, "%s%s%s (%s)\n", prefix, connector, node.Title, parsing.FormatBytes(node.Size))
		} else {
			fmt.Fprintf(b, "%s%s%s\n", prefix, connector, node.Title)
		}
	}
}

// largestFilesSection lists the biggest files, a quick size overview
// before committing to a download.
func largestFilesSection(items []models.WorkItem, n int) string {
	sized := make([]models.WorkItem, 0, len(items))
	var total int64
	for _, it := range items {
		if it.SizeBytes > 0 {
			sized = append(sized, it)
			total += it.SizeBytes
		}
	}
	if len(sized) == 0 {
		return ""
	}

	sort.Slice(sized, func(i, j int) bool { return sized[i].SizeBytes > sized[j].SizeBytes })
	if len(sized) > n {
		sized = sized[:n]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Total size: %s\nLargest files:\n", parsing.FormatBytes(total))
	for _, it := range sized {
		fmt.Fprintf(&b, "  %s (%s)\n", it.Filename(), parsing.FormatBytes(it.SizeBytes))
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatVideoDetail renders one video's scraped metadata.
func formatVideoDetail(v *models.VideoInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", v.Title)
	if v.Code != "" {
		fmt.Fprintf(&b, "Code: %s\n", strings.ToUpper(v.Code))
	}
	if v.PublishDate != "" {
		fmt.Fprintf(&b, "Published: %s\n", v.PublishDate)
	}
	fmt.Fprintf(&b, "Page: %s\n", v.URL)
	if v.SourceURL != "" {
		b.WriteString("Direct download: available\n")
	} else {
		b.WriteString("Direct download: not detected\n")
	}
	if v.Thumbnail != "" {
		fmt.Fprintf(&b, "Thumbnail: %s\n", v.Thumbnail)
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatVideoList renders search results.
func formatVideoList(videos []models.VideoInfo, keyword string, page int) string {
	if page < 1 {
		page = 1
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d videos for %q (page %d):\n", len(videos), keyword, page)
	for i, v := range videos {
		fmt.Fprintf(&b, "\n%d. %s\n   %s\n", i+1, v.Title, v.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatHistory renders recent terminal jobs, newest first.
func formatHistory(records []models.JobRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Recent downloads (%d):\n", len(records))
	for _, rec := range records {
		title := rec.WorkTitle
		if title == "" {
			title = rec.WorkID
		}
		fmt.Fprintf(&b, "\n%s  %s\n", rec.FinishedAt.Format("2006-01-02 15:04"), title)
		fmt.Fprintf(&b, "   Status: %s", rec.Status)
		if rec.Succeeded > 0 || rec.Failed > 0 {
			fmt.Fprintf(&b, " (%d succeeded, %d failed)", rec.Succeeded, rec.Failed)
		}
		b.WriteString("\n")
		if rec.Reason != "" {
			fmt.Fprintf(&b, "   Reason: %s\n", rec.Reason)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
