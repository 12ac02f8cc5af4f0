package extractor

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// NewFileID synthesizes the stable identity for a document: a slug of the
// filename, the upload timestamp and a short random suffix. The timestamp
// plus suffix makes concurrent ingestion collision-free in practice.
func NewFileID(filename string, ts time.Time) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	slug := slugUnsafe.ReplaceAllString(strings.ToLower(base), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "file"
	}
	if len(slug) > 40 {
		slug = slug[:40]
	}

	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return slug + "_" + ts.UTC().Format("20060102150405") + "_" + suffix
}
