package artifact

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// NoBuildArtifactError means there is nothing to upload: the output directory
// is missing or holds no artifact. Env, when set, prefixes the message.
type NoBuildArtifactError struct {
	Dir string
	Env string
}

func (e *NoBuildArtifactError) Error() string {
	const msg = "Please run build before push command."
	if e.Env == "" {
		return msg
	}
	return "[" + e.Env + "] " + msg
}

// IsNoBuildArtifact reports whether err is or wraps a NoBuildArtifactError.
func IsNoBuildArtifact(err error) bool {
	var target *NoBuildArtifactError
	return errors.As(err, &target)
}

// SelectLatest returns the artifact in outputDir with the newest modification
// time. Names only break ties between equal times.
func SelectLatest(outputDir string) (string, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &NoBuildArtifactError{Dir: outputDir}
		}
		return "", err
	}

	var (
		latest     string
		latestTime time.Time
	)
	for _, entry := range entries {
		if !entry.Type().IsRegular() || filepath.Ext(entry.Name()) != Extension {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", err
		}

		modTime := info.ModTime()
		if latest == "" || modTime.After(latestTime) ||
			(modTime.Equal(latestTime) && entry.Name() > filepath.Base(latest)) {
			latest = filepath.Join(outputDir, entry.Name())
			latestTime = modTime
		}
	}

	if latest == "" {
		return "", &NoBuildArtifactError{Dir: outputDir}
	}
	return latest, nil
}
