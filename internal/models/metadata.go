package models

// WorkInfo is the normalized metadata of one audio work.
type WorkInfo struct {
	SourceID     string
	Title        string
	Circle       string
	Release      string
	AgeCategory  string
	HasSubtitle  bool
	Rating       float64
	ReviewCount  int
	Price        int
	DLCount      int
	Tags         []string
	VAs          []string
	MainCoverURL string
	ThumbnailURL string
	Intro        string
}

// VideoInfo is the normalized metadata of one video page.
type VideoInfo struct {
	URL         string
	Code        string
	Title       string
	PublishDate string
	Thumbnail   string
	SourceURL   string // direct media fetch location
	SizeBytes   int64
}
