package models

import "fmt"

// Request is the JSON envelope read from stdin. Command-specific
// fields are flattened into the one struct; handlers read what they
// need.
type Request struct {
	Command string `json:"command"`

	// Download targets
	WorkID     string `json:"work_id,omitempty"`
	URL        string `json:"url,omitempty"`
	TargetPath string `json:"target_path,omitempty"`
	Quality    string `json:"quality,omitempty"`

	// Search / listing
	Keyword string `json:"keyword,omitempty"`
	Tags    string `json:"tags,omitempty"`
	NoTags  string `json:"no_tags,omitempty"`
	Circle  string `json:"circle,omitempty"`
	Page    int    `json:"page,omitempty"`
	Sort    string `json:"sort,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// Response is the JSON envelope written to stdout.
type Response struct {
	Status       string `json:"status"`
	Result       string `json:"result,omitempty"`
	MessageForAI string `json:"messageForAI,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Success builds a success response.
func Success(result string) *Response {
	return &Response{Status: "success", Result: result}
}

// Errorf builds an error response.
func Errorf(format string, args ...any) *Response {
	return &Response{Status: "error", Error: fmt.Sprintf(format, args...)}
}
