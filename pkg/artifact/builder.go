// Package artifact builds zip artifacts from a project directory and picks the
// newest one for upload.
package artifact

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rzbill/nak/pkg/catalog"
	"github.com/rzbill/nak/pkg/log"
)

const (
	// Extension of every artifact.
	Extension = ".zip"
	// TimestampFormat renders the build time as YYYYMMDDhhmmss.
	TimestampFormat = "20060102150405"
	// IgnoreFileName lists gitignore-style patterns excluded from builds.
	IgnoreFileName = ".nakignore"

	outputDirMode = 0o755
)

// ProgressFunc is called after each file is written to the archive.
type ProgressFunc func(done, total int, file string)

// Builder writes artifacts named {app}-{timestamp}.zip. The timestamp is
// taken once, when the builder is created.
type Builder struct {
	logger         log.Logger
	stamp          string
	catalogOptions []catalog.Option
	progress       ProgressFunc
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithClock sets the time source used for the artifact timestamp.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.stamp = now().Format(TimestampFormat)
	}
}

// WithCatalogOptions replaces the options used to list project files.
func WithCatalogOptions(opts ...catalog.Option) BuilderOption {
	return func(b *Builder) {
		b.catalogOptions = opts
	}
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) BuilderOption {
	return func(b *Builder) {
		b.progress = fn
	}
}

// NewBuilder creates a builder.
func NewBuilder(logger log.Logger, opts ...BuilderOption) *Builder {
	b := &Builder{
		logger:         logger.WithComponent("builder"),
		stamp:          time.Now().Format(TimestampFormat),
		catalogOptions: []catalog.Option{catalog.WithIgnoreFile(IgnoreFileName)},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the artifact file name for appName.
func (b *Builder) Name(appName string) string {
	return fmt.Sprintf("%s-%s%s", appName, b.stamp, Extension)
}

// listFiles lists the project files a build of root would include.
func (b *Builder) listFiles(root string) ([]string, error) {
	return catalog.List(root, b.catalogOptions...)
}

// Build archives the eligible files of root into outputDir and returns the
// artifact path. Entries are named by their slash-separated path relative to
// root. A project without eligible files yields an empty archive.
func (b *Builder) Build(root, outputDir, appName string) (string, error) {
	files, err := b.listFiles(root)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(outputDir, outputDirMode); err != nil {
		return "", err
	}

	dest := filepath.Join(outputDir, b.Name(appName))
	if err := b.writeArchive(root, dest, files); err != nil {
		os.Remove(dest)
		return "", err
	}

	b.logger.Debug("Wrote artifact", log.Str("path", dest), log.Int("files", len(files)))
	return dest, nil
}

func (b *Builder) writeArchive(root, dest string, files []string) (err error) {
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	zw := zip.NewWriter(out)
	for i, file := range files {
		if err := addFile(zw, root, file); err != nil {
			zw.Close()
			return err
		}
		if b.progress != nil {
			b.progress(i+1, len(files), file)
		}
	}
	return zw.Close()
}

func addFile(zw *zip.Writer, root, file string) error {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return err
	}

	in, err := os.Open(file)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.ToSlash(rel)
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}
