package validator

import (
	"net/url"
	"path/filepath"
	"strings"
)

const maxRepositoryNameLength = 100

// SourceCodeExtensions are the extensions accepted for source code uploads.
var SourceCodeExtensions = []string{".py", ".java", ".js", ".cpp", ".c", ".h", ".hpp", ".zip"}

// IsRepositoryName reports whether name is usable as a repository name. The
// name also becomes a directory under the upload roots, so path separators
// and dot segments are rejected.
func IsRepositoryName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxRepositoryNameLength {
		return false
	}
	if name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`+"\x00")
}

// IsSourceCodeFile reports whether filename has an allowed source code extension.
func IsSourceCodeFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range SourceCodeExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// ParseGitHubURL extracts owner and repository from a GitHub URL.
// Supports https://github.com/owner/repo(.git) and git@github.com:owner/repo.git.
func ParseGitHubURL(raw string) (owner, repo string, ok bool) {
	raw = strings.TrimSpace(raw)

	var path string
	switch {
	case strings.HasPrefix(raw, "git@github.com:"):
		path = strings.TrimPrefix(raw, "git@github.com:")
	default:
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") {
			return "", "", false
		}
		host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
		if host != "github.com" {
			return "", "", false
		}
		path = strings.Trim(u.Path, "/")
	}

	path = strings.TrimSuffix(path, ".git")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
