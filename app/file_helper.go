package app

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/ludo-technologies/jsguard/domain"
)

// FileHelper provides file operation utilities
type FileHelper struct {
	respectGitignore bool
	maxFileSize      int64
}

// NewFileHelper creates a new FileHelper
func NewFileHelper() *FileHelper {
	return &FileHelper{}
}

// WithGitignore skips files ignored by the .gitignore of each analyzed directory
func (h *FileHelper) WithGitignore(enabled bool) *FileHelper {
	h.respectGitignore = enabled
	return h
}

// WithMaxFileSizeKB skips files larger than kb kilobytes; 0 disables the limit
func (h *FileHelper) WithMaxFileSizeKB(kb int) *FileHelper {
	h.maxFileSize = int64(kb) * 1024
	return h
}

// compilePatterns returns nil for an empty pattern list
func compilePatterns(patterns []string) *ignore.GitIgnore {
	if len(patterns) == 0 {
		return nil
	}
	return ignore.CompileIgnoreLines(patterns...)
}

func matches(m *ignore.GitIgnore, path string) bool {
	return m != nil && m.MatchesPath(path)
}

// CollectJSFiles collects JavaScript/TypeScript files from paths. Include and
// exclude patterns use gitignore syntax and are matched against the path
// relative to the directory being walked. Files named explicitly are only
// checked for their extension and size.
func (h *FileHelper) CollectJSFiles(paths []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	includes := compilePatterns(includePatterns)
	excludes := compilePatterns(excludePatterns)

	var files []string
	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, domain.NewFileNotFoundError(root, err)
		}

		if !info.IsDir() {
			if h.isJSFile(root) && h.withinSizeLimit(info) {
				add(root)
			}
			continue
		}

		gitignore := h.loadGitignore(root)
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(root, path)
			if err != nil || rel == "." {
				return nil
			}
			rel = filepath.ToSlash(rel)

			// Skip excluded directories early
			if d.IsDir() {
				if !recursive || matches(excludes, rel+"/") || matches(gitignore, rel+"/") {
					return filepath.SkipDir
				}
				return nil
			}

			if !h.isJSFile(path) || matches(excludes, rel) || matches(gitignore, rel) {
				return nil
			}
			if includes != nil && !includes.MatchesPath(rel) {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return err
			}
			if h.withinSizeLimit(info) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, domain.NewInvalidInputError("failed to walk "+root, err)
		}
	}

	return files, nil
}

// loadGitignore reads the .gitignore at the root of dir, if enabled and present
func (h *FileHelper) loadGitignore(dir string) *ignore.GitIgnore {
	if !h.respectGitignore {
		return nil
	}
	m, err := ignore.CompileIgnoreFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		return nil
	}
	return m
}

func (h *FileHelper) withinSizeLimit(info fs.FileInfo) bool {
	return h.maxFileSize <= 0 || info.Size() <= h.maxFileSize
}

// IsValidJSFile checks if a file is a valid JavaScript/TypeScript file
func (h *FileHelper) IsValidJSFile(path string) bool {
	return h.isJSFile(path)
}

// FileExists checks if a file exists
func (h *FileHelper) FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// ReadFile reads file content
func (h *FileHelper) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// isJSFile checks if a file is JavaScript/TypeScript based on extension
func (h *FileHelper) isJSFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".ts", ".jsx", ".tsx", ".mjs", ".cjs", ".mts", ".cts":
		return true
	}
	return false
}

// ResolveFilePaths resolves file paths, returning existing files directly
// or collecting files from directories
func ResolveFilePaths(
	reader domain.JSFileReader,
	paths []string,
	recursive bool,
	includePatterns []string,
	excludePatterns []string,
) ([]string, error) {
	// Check if all paths are already files
	allFiles := true
	for _, path := range paths {
		exists, err := reader.FileExists(path)
		if err != nil || !exists || !reader.IsValidJSFile(path) {
			allFiles = false
			break
		}
	}

	// If all paths are already files, no need to collect again
	if allFiles {
		return paths, nil
	}

	return reader.CollectJSFiles(paths, recursive, includePatterns, excludePatterns)
}
