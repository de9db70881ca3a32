package paths

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDirectory(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"/", ""},
		{"docs", "docs/"},
		{"docs/", "docs/"},
		{"/docs/sub", "docs/sub/"},
		{`docs\sub\`, "docs/sub/"},
		{"  ///a/b/  ", "a/b/"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NormalizeDirectory(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := NormalizeDirectory(got)
			require.NoError(t, err)
			assert.Equal(t, got, again, "normalization must be idempotent")
		})
	}
}

func TestNormalizeFile(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"/docs/report.pdf", "docs/report.pdf"},
		{`docs\report.pdf`, "docs/report.pdf"},
		{" a/b/c.txt ", "a/b/c.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NormalizeFile(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := NormalizeFile(got)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"docs/", "docs"},
		{"/docs/sub//", "docs/sub"},
		{"report.pdf", "report.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NormalizePath(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := NormalizePath(got)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestRejectsUnsafeSegments(t *testing.T) {
	bad := []string{
		"a/../b",
		"../a",
		"./a",
		"a/./b",
		"a//b",
		"a/ /b",
	}

	for _, raw := range bad {
		t.Run(raw, func(t *testing.T) {
			_, err := NormalizeDirectory(raw)
			assert.ErrorIs(t, err, ErrInvalidPath)

			_, err = NormalizeFile(raw)
			assert.ErrorIs(t, err, ErrInvalidPath)

			_, err = NormalizePath(raw)
			assert.ErrorIs(t, err, ErrInvalidPath)

			_, err = NormalizeRelativeName(raw)
			assert.ErrorIs(t, err, ErrInvalidPath)
		})
	}
}

func TestNormalizeFile_RejectsBlankAndTrailingSlash(t *testing.T) {
	for _, raw := range []string{"", "   ", "/", "docs/"} {
		_, err := NormalizeFile(raw)
		assert.ErrorIs(t, err, ErrInvalidPath, "raw=%q", raw)
	}
}

func TestNormalizePath_RejectsBlank(t *testing.T) {
	for _, raw := range []string{"", "/", "///", "  "} {
		_, err := NormalizePath(raw)
		assert.ErrorIs(t, err, ErrInvalidPath, "raw=%q", raw)
	}
}

func TestNormalizeRelativeName(t *testing.T) {
	got, err := NormalizeRelativeName(`/photos\2024/cat.jpg`)
	require.NoError(t, err)
	assert.Equal(t, "photos/2024/cat.jpg", got)

	_, err = NormalizeRelativeName("")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestKeyHelpers(t *testing.T) {
	assert.Equal(t, "user-42-files/", UserRootPrefix(42))

	assert.Equal(t, "docs/", ParentDirectory("docs/report.pdf"))
	assert.Equal(t, "", ParentDirectory("report.pdf"))
	assert.Equal(t, "docs/sub/", ParentDirectory("docs/sub/"))

	assert.Equal(t, "report.pdf", FileName("docs/report.pdf"))
	assert.Equal(t, "report.pdf", FileName("report.pdf"))
	assert.Equal(t, "", FileName("docs/"))

	assert.Equal(t, "docs", RemoveTrailingSlash("docs/"))
	assert.Equal(t, "docs", RemoveTrailingSlash("docs"))
}

func TestIsDirectoryForm(t *testing.T) {
	assert.True(t, IsDirectoryForm("docs/"))
	assert.True(t, IsDirectoryForm(`docs\`))
	assert.True(t, IsDirectoryForm("docs/ "))
	assert.False(t, IsDirectoryForm("docs"))
	assert.False(t, IsDirectoryForm(""))
}
