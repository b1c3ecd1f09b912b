// Package downloads resolves work manifests and fetches their files.
package downloads

import (
	"strings"

	"vcptools/internal/domain/consts"
	"vcptools/internal/models"
	"vcptools/internal/parsing"
)

// ResolveManifest flattens a (possibly nested) folder/file tree into
// an ordered list of work items. Ancestor folder names are sanitized
// and concatenated into each item's relative path.
func ResolveManifest(nodes []*models.ManifestNode) []models.WorkItem {
	return flatten(nodes, "")
}

func flatten(nodes []*models.ManifestNode, basePath string) []models.WorkItem {
	var items []models.WorkItem

	for _, n := range nodes {
		name := parsing.SanitizeFilename(n.Title)
		if n.Folder {
			items = append(items, flatten(n.Children, parsing.JoinRelPath(basePath, name))...)
			continue
		}
		items = append(items, models.WorkItem{
			RelPath:   parsing.JoinRelPath(basePath, name),
			SizeBytes: n.Size,
			SourceURL: n.DownloadURL,
			Status:    consts.ItemPending,
		})
	}
	return items
}

// FilterByPath returns the items within scope. An empty scope matches
// everything; otherwise an item matches when its path equals the
// scope, is nested under it, or its immediate parent directory equals
// the scope.
func FilterByPath(items []models.WorkItem, scope string) []models.WorkItem {
	scope = parsing.NormalizeScope(scope)
	if scope == "" {
		return items
	}

	filtered := make([]models.WorkItem, 0, len(items))
	for _, item := range items {
		if matchesScope(item, scope) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func matchesScope(item models.WorkItem, scope string) bool {
	if item.RelPath == scope {
		return true
	}
	if strings.HasPrefix(item.RelPath, scope+"/") {
		return true
	}
	return item.ParentDir() == scope
}

// BuildFileStructure projects the manifest tree into the nested map
// embedded in snapshots and rendered by work-info output.
func BuildFileStructure(nodes []*models.ManifestNode) map[string]*models.FileNode {
	structure := make(map[string]*models.FileNode, len(nodes))

	for _, n := range nodes {
		name := parsing.SanitizeFilename(n.Title)
		if n.Folder {
			children := BuildFileStructure(n.Children)
			structure[name] = &models.FileNode{
				Type:      "folder",
				Children:  children,
				FileCount: CountFiles(children),
			}
			continue
		}
		structure[name] = &models.FileNode{
			Type: "file",
			Size: n.Size,
			URL:  n.DownloadURL,
		}
	}
	return structure
}

// CountFiles counts the leaf files in a file structure.
func CountFiles(structure map[string]*models.FileNode) int {
	count := 0
	for _, node := range structure {
		switch node.Type {
		case "file":
			count++
		case "folder":
			count += node.FileCount
		}
	}
	return count
}
