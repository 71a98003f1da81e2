package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

// CreateSQLMigration writes an empty goose migration named
// <dir>/<YYYYMMDDHHMMSS>_<slug>.sql and returns its path.
func CreateSQLMigration(dir string, name string) (string, error) {
	return createSQLMigrationAt(dir, name, time.Now().UTC())
}

func createSQLMigrationAt(dir, name string, at time.Time) (string, error) {
	if dir == "" {
		return "", errors.New("dir is required")
	}
	slug := slugify(name)
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	version := at.UTC().Format(versionLayout)
	latest, err := latestVersion(dir)
	if err != nil {
		return "", err
	}
	// goose applies files in version order, so a new file must sort last.
	if version <= latest {
		return "", fmt.Errorf("version %s is not newer than existing %s", version, latest)
	}

	path := filepath.Join(dir, version+"_"+slug+".sql")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration %q: %w", path, err)
	}
	// Bodies stay portable: the same file runs on postgres and sqlite3.
	_, err = fmt.Fprintf(f, "-- +goose Up\n-- %s\n\n-- +goose Down\n-- revert %s\n", slug, slug)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write migration %q: %w", path, err)
	}
	return path, nil
}

func slugify(name string) string {
	return strings.Trim(nonSlugRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

func latestVersion(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read %q: %w", dir, err)
	}
	latest := ""
	for _, entry := range entries {
		if m := sqlFileRe.FindStringSubmatch(entry.Name()); m != nil && m[1] > latest {
			latest = m[1]
		}
	}
	return latest, nil
}
