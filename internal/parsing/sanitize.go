// Package parsing holds small parsing and formatting helpers.
package parsing

import (
	"strings"

	"vcptools/internal/domain/consts"
)

var illegalFilenameChars = strings.NewReplacer(
	"<", "_",
	">", "_",
	":", "_",
	"\"", "_",
	"/", "_",
	"\\", "_",
	"|", "_",
	"?", "_",
	"*", "_",
)

// SanitizeFilename replaces characters that are illegal in filesystem
// names, trims leading/trailing dots and spaces, and falls back to a
// placeholder when nothing survives.
func SanitizeFilename(name string) string {
	name = illegalFilenameChars.Replace(name)
	name = strings.Trim(name, ". ")
	if name == "" {
		return consts.FallbackFilename
	}
	return name
}

// NormalizeScope strips surrounding slashes from a path filter scope.
func NormalizeScope(scope string) string {
	return strings.Trim(scope, "/")
}

// JoinRelPath joins slash-separated path segments, skipping empties.
func JoinRelPath(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}
