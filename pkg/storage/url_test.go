package storage

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidPublicURL_Examples(t *testing.T) {
	inputs := []string{
		"https://host/storage/v1/object/public/reports/x.pdf",
		"http://example.com/storage/v1/object/public/reports/x.pdf",
		"ftp://host/...",
		"https://host/x.pdf",
		"",
	}

	got := make([]bool, len(inputs))
	for i, in := range inputs {
		got[i] = IsValidPublicURL(in)
	}

	assert.Equal(t, []bool{true, false, false, false, false}, got)
}

func TestIsValidPublicURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"http is allowed", "http://localhost:8080/storage/v1/object/public/reports/b1/r1.pdf", true},
		{"placeholder host", "https://your-project.supabase.co/storage/v1/object/public/reports/x.pdf", false},
		{"placeholder host upper case", "https://WWW.EXAMPLE.COM/storage/v1/object/public/reports/x.pdf", false},
		{"placeholder.com", "https://placeholder.com/storage/v1/object/public/reports/x.pdf", false},
		{"example.org", "https://example.org/storage/v1/object/public/reports/x.pdf", false},
		{"subdomain of a placeholder is fine", "https://cdn.example.com/storage/v1/object/public/reports/x.pdf", true},
		{"other bucket", "https://host/storage/v1/object/public/avatars/x.png", false},
		{"root path", "https://host/", false},
		{"no host", "https:///storage/v1/object/public/reports/x.pdf", false},
		{"relative", "/storage/v1/object/public/reports/x.pdf", false},
		{"garbage", "://not a url", false},
		{"whitespace", "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidPublicURL(tt.raw))
		})
	}
}

func TestPublicURLRoundTrip(t *testing.T) {
	raw := PublicURL("https://files.greentrack.app/", ReportsBucket, "b1/r1-abc.pdf")

	assert.Equal(t, "https://files.greentrack.app/storage/v1/object/public/reports/b1/r1-abc.pdf", raw)
	assert.True(t, IsValidPublicURL(raw))

	path, ok := ObjectPathFromURL(raw, ReportsBucket)
	assert.True(t, ok)
	assert.Equal(t, "b1/r1-abc.pdf", path)

	_, ok = ObjectPathFromURL("https://host/x.pdf", ReportsBucket)
	assert.False(t, ok)
	_, ok = ObjectPathFromURL("https://host/storage/v1/object/public/reports/", ReportsBucket)
	assert.False(t, ok)
}

func TestReportObjectPath(t *testing.T) {
	a := ReportObjectPath("b1", "r1")
	b := ReportObjectPath("b1", "r1")

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "b1/r1-"))
	assert.Regexp(t, regexp.MustCompile(`^b1/r1-[0-9a-f-]{36}\.pdf$`), a)
}
