package source

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/nbsearch/nbsearch/internal/config"
	interrors "github.com/nbsearch/nbsearch/internal/errors"
	"github.com/nbsearch/nbsearch/internal/logger"
)

// ignoreFileName lists glob patterns of files excluded from indexing;
// one file per directory, inherited by subdirectories.
const ignoreFileName = ".nbsearchignore"

// File describes one notebook found by the crawler. Path is relative
// to the base directory.
type File struct {
	Server string
	Path   string
	Owner  string
	MTime  string
	ATime  string
	CTime  string
}

// Local crawls a directory tree for notebooks.
type Local struct {
	baseDir      string
	server       string
	owner        string
	ownerPattern *regexp.Regexp
}

func NewLocal(cfg *config.Config) (*Local, error) {
	src := &Local{
		baseDir: cfg.BaseDirectory,
		server:  cfg.ServerURL,
		owner:   cfg.Owner,
	}
	if cfg.OwnerPattern != "" {
		pattern, err := regexp.Compile(cfg.OwnerPattern)
		if err != nil {
			return nil, fmt.Errorf("invalid owner pattern: %w", err)
		}
		src.ownerPattern = pattern
	}
	return src, nil
}

// Files walks the base directory and returns every notebook not
// excluded by an ignore file. Hidden files and directories are always
// skipped.
func (s *Local) Files() ([]File, error) {
	return s.files(s.baseDir, "", nil)
}

// Notebook reads the raw content of one crawled notebook. A server
// mismatch means the file belongs to another host.
func (s *Local) Notebook(server, relPath string) ([]byte, error) {
	if server != s.server {
		return nil, fmt.Errorf("%w: %s", interrors.ErrWrongServer, server)
	}
	data, err := os.ReadFile(filepath.Join(s.baseDir, filepath.FromSlash(relPath)))
	if err != nil {
		return nil, fmt.Errorf("failed to read notebook: %w", err)
	}
	return data, nil
}

type ignoreFunc func(relPath string) bool

func (s *Local) files(actualDir, relDir string, inherited ignoreFunc) ([]File, error) {
	ignore := s.loadIgnore(actualDir, relDir, inherited)

	entries, err := os.ReadDir(actualDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", actualDir, err)
	}

	var found []File
	for _, entry := range entries {
		name := entry.Name()
		actualPath := filepath.Join(actualDir, name)
		relPath := path.Join(relDir, name)
		if strings.HasPrefix(name, ".") {
			logger.Debug("ignore hidden file: %s", actualPath)
			continue
		}
		if ignore != nil && ignore(relPath) {
			logger.Debug("ignore file: %s", actualPath)
			continue
		}
		if entry.IsDir() {
			nested, err := s.files(actualPath, relPath, ignore)
			if err != nil {
				return nil, err
			}
			found = append(found, nested...)
			continue
		}
		if !strings.HasSuffix(strings.ToLower(name), ".ipynb") {
			logger.Debug("ignore file that is not ipynb: %s", actualPath)
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", actualPath, err)
		}
		found = append(found, File{
			Server: s.server,
			Path:   relPath,
			Owner:  s.ownerOf(actualPath),
			MTime:  info.ModTime().UTC().Format(time.RFC3339),
			ATime:  info.ModTime().UTC().Format(time.RFC3339),
			CTime:  info.ModTime().UTC().Format(time.RFC3339),
		})
	}
	return found, nil
}

// loadIgnore combines this directory's ignore patterns with those
// inherited from parents.
func (s *Local) loadIgnore(actualDir, relDir string, inherited ignoreFunc) ignoreFunc {
	patterns, err := readIgnorePatterns(filepath.Join(actualDir, ignoreFileName))
	if err != nil {
		logger.Warn("Failed to read %s in %s: %v", ignoreFileName, actualDir, err)
		return inherited
	}
	if len(patterns) == 0 {
		return inherited
	}

	local := func(relPath string) bool {
		offset := relPath
		if relDir != "" {
			offset = strings.TrimPrefix(relPath, relDir+"/")
		}
		base := path.Base(relPath)
		for _, pattern := range patterns {
			if matched, _ := path.Match(pattern, offset); matched {
				return true
			}
			if matched, _ := path.Match(pattern, base); matched {
				return true
			}
		}
		return false
	}
	if inherited == nil {
		return local
	}
	return func(relPath string) bool {
		return inherited(relPath) || local(relPath)
	}
}

func readIgnorePatterns(ignorePath string) ([]string, error) {
	f, err := os.Open(ignorePath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, scanner.Err()
}

func (s *Local) ownerOf(actualPath string) string {
	if s.owner != "" {
		return s.owner
	}
	if s.ownerPattern == nil {
		return ""
	}
	match := s.ownerPattern.FindStringSubmatch(actualPath)
	if match == nil {
		return ""
	}
	for i, name := range s.ownerPattern.SubexpNames() {
		if name == "owner" && i < len(match) {
			return match[i]
		}
	}
	return ""
}
