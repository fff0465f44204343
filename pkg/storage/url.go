package storage

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// ReportsBucket holds every rendered report
const ReportsBucket = "reports"

// publicPrefix is the path under which buckets are served publicly
const publicPrefix = "/storage/v1/object/public/"

// ReportsPathSegment must appear in every trusted report URL
const ReportsPathSegment = publicPrefix + ReportsBucket + "/"

// Placeholder hosts left behind by unconfigured environments
var placeholderHosts = map[string]struct{}{
	"example.com":              {},
	"www.example.com":          {},
	"example.org":              {},
	"placeholder.com":          {},
	"your-project.supabase.co": {},
}

// IsValidPublicURL reports whether raw can be trusted as a downloadable report URL:
// it parses, uses http or https, names a real host, and points inside the reports bucket.
func IsValidPublicURL(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	if _, blocked := placeholderHosts[host]; blocked {
		return false
	}
	if len(u.Path) <= 1 {
		return false
	}
	return strings.Contains(u.Path, ReportsPathSegment)
}

// PublicURL joins a public base URL with the bucket-relative object path
func PublicURL(baseURL, bucket, path string) string {
	return strings.TrimRight(baseURL, "/") + publicPrefix + bucket + "/" + strings.TrimLeft(path, "/")
}

// ObjectPathFromURL extracts the bucket-relative path from a public URL
func ObjectPathFromURL(raw, bucket string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	prefix := publicPrefix + bucket + "/"
	i := strings.Index(u.Path, prefix)
	if i < 0 {
		return "", false
	}
	path := u.Path[i+len(prefix):]
	if path == "" {
		return "", false
	}
	return path, true
}

// ReportObjectPath generates a unique object path for a report PDF
func ReportObjectPath(businessID, reportID string) string {
	return fmt.Sprintf("%s/%s-%s.pdf", businessID, reportID, uuid.NewString())
}
