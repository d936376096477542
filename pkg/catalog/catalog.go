// Package catalog lists the files of a project directory that belong in a
// build artifact.
package catalog

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// DefaultExclusions are the names never packaged: the settings file, the
// secrets file and the build output directory.
var DefaultExclusions = []string{".env", "config.yml", ".tmp"}

// ContentExtensions and MediaExtensions together form the default allow-list.
var (
	ContentExtensions = []string{".html", ".json", ".css", ".scss", ".js"}
	MediaExtensions   = []string{
		".woff2", ".gif", ".ico", ".png", ".jpg", ".jpeg", ".svg", ".eot", ".tff", ".ttf", ".woff",
		".webp", ".mp4", ".webm", ".mp3", ".pdf",
	}
)

// defaultAllowedExtensions returns the content and media extensions.
func defaultAllowedExtensions() []string {
	exts := make([]string, 0, len(ContentExtensions)+len(MediaExtensions))
	exts = append(exts, ContentExtensions...)
	return append(exts, MediaExtensions...)
}

type options struct {
	exclusions        []string
	allowed           map[string]struct{}
	requiredExtension string
	ignoreFile        string
}

// Option configures List.
type Option func(*options)

// WithExclusions replaces the exclusion tokens. An entry whose name contains
// any token is skipped.
func WithExclusions(tokens ...string) Option {
	return func(o *options) {
		o.exclusions = tokens
	}
}

// WithAllowedExtensions replaces the allow-list used when no required
// extension is set.
func WithAllowedExtensions(exts ...string) Option {
	return func(o *options) {
		o.allowed = toSet(exts)
	}
}

// WithRequiredExtension keeps only files with exactly this extension.
func WithRequiredExtension(ext string) Option {
	return func(o *options) {
		o.requiredExtension = ext
	}
}

// WithIgnoreFile reads gitignore-style patterns from name in the root
// directory, if present.
func WithIgnoreFile(name string) Option {
	return func(o *options) {
		o.ignoreFile = name
	}
}

// List walks root recursively and returns the eligible files in directory
// listing order, each path joined onto root. Directories are always
// traversed. A directory already open on the current path is not entered
// again, so symlink cycles end while aliases of a directory are still listed.
func List(root string, opts ...Option) ([]string, error) {
	o := &options{
		exclusions: DefaultExclusions,
		allowed:    toSet(defaultAllowedExtensions()),
	}
	for _, opt := range opts {
		opt(o)
	}

	w := &walker{
		root:    root,
		opts:    o,
		ancestors: map[string]struct{}{},
	}

	if o.ignoreFile != "" {
		patterns, err := readIgnorePatterns(filepath.Join(root, o.ignoreFile))
		if err != nil {
			return nil, err
		}
		if len(patterns) > 0 {
			w.ignore = gitignore.NewMatcher(patterns)
		}
	}

	files := []string{}
	if err := w.walk(root, nil, &files); err != nil {
		return nil, err
	}
	return files, nil
}

type walker struct {
	root   string
	opts   *options
	ignore gitignore.Matcher
	// ancestors holds the real paths of the directories being walked.
	ancestors map[string]struct{}
}

func (w *walker) walk(dir string, rel []string, files *[]string) error {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return err
	}
	if _, open := w.ancestors[resolved]; open {
		return nil
	}
	w.ancestors[resolved] = struct{}{}
	defer delete(w.ancestors, resolved)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		if w.excluded(name) {
			continue
		}

		path := filepath.Join(dir, name)
		entryRel := append(append([]string{}, rel...), name)

		isDir := entry.IsDir()
		if entry.Type()&fs.ModeSymlink != 0 {
			follow, linkIsDir, err := w.resolveLink(path, entryRel)
			if err != nil {
				return err
			}
			if !follow {
				continue
			}
			isDir = linkIsDir
		}

		if w.ignore != nil && w.ignore.Match(entryRel, isDir) {
			continue
		}

		if isDir {
			if err := w.walk(path, entryRel, files); err != nil {
				return err
			}
			continue
		}

		if w.included(name) {
			*files = append(*files, path)
		}
	}
	return nil
}

// resolveLink reports whether a symlink should be followed. Links are
// resolved scoped to the root; dangling, cyclic and root-escaping links are
// skipped.
func (w *walker) resolveLink(path string, rel []string) (follow bool, isDir bool, err error) {
	scoped, err := securejoin.SecureJoin(w.root, filepath.Join(rel...))
	if err != nil {
		return false, false, nil
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return false, false, nil
	}
	resolvedScoped, err := filepath.EvalSymlinks(scoped)
	if err != nil || resolvedScoped != resolved {
		return false, false, nil
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return false, false, err
	}
	return true, info.IsDir(), nil
}

func (w *walker) excluded(name string) bool {
	for _, token := range w.opts.exclusions {
		if token != "" && strings.Contains(name, token) {
			return true
		}
	}
	return false
}

func (w *walker) included(name string) bool {
	ext := filepath.Ext(name)
	if w.opts.requiredExtension != "" {
		return ext == w.opts.requiredExtension
	}
	_, ok := w.opts.allowed[ext]
	return ok
}

func readIgnorePatterns(path string) ([]gitignore.Pattern, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var patterns []gitignore.Pattern
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return patterns, scanner.Err()
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
