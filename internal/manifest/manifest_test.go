package manifest

import (
	"testing"

	"fxlaunch/internal/apperr"
	"fxlaunch/internal/platform"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleChecksum = "sha256:0b3a4e42f0c7a4c5f7f4d2b0e8e7c1a6b2f3d4e5f60718293a4b5c6d7e8f9012"

const sampleManifest = `
schema = 1
publisher = "example"

[javafx."21.0.1"]
requires_java = 17

[javafx."21.0.1".platforms.linux-x64]
url = "https://example.invalid/openjfx-21.0.1_linux-x64_bin-sdk.zip"
checksum = "` + sampleChecksum + `"
size = 1024
mirror = "https://mirror.invalid/ignored.zip"

[javafx."21.0.1".platforms.darwin-aarch64]
url = "https://example.invalid/openjfx-21.0.1_osx-aarch64_bin-sdk.zip"
checksum_url = "https://example.invalid/openjfx-21.0.1_osx-aarch64_bin-sdk.zip.sha256"

[javafx."23.0.1".platforms.linux-amd64]
url = "https://example.invalid/openjfx-23.0.1_linux-x64_bin-sdk.zip"
checksum = "` + sampleChecksum + `"

[javafx."17.0.13".platforms.linux-x64]
url = "https://example.invalid/openjfx-17.0.13_linux-x64_bin-sdk.zip"
checksum = "` + sampleChecksum + `"
`

func TestParseCanonicalizesAndIgnoresUnknownFields(t *testing.T) {
	t.Parallel()

	m, err := Parse([]byte(sampleManifest))
	require.NoError(t, err)

	assert.Equal(t, []string{"23.0.1", "21.0.1", "17.0.13"}, m.Versions())
	assert.Equal(t, []platform.Key{{OS: "linux", Arch: "x64"}, {OS: "macos", Arch: "arm64"}}, m.Platforms("21.0.1"))

	desc, err := NewResolver(m).Resolve("21.0.1", platform.Key{OS: "linux", Arch: "x64"})
	require.NoError(t, err)
	assert.Equal(t, digest.Digest(sampleChecksum), desc.Checksum)
	assert.Equal(t, int64(1024), desc.SizeBytes)
	assert.Equal(t, 17, desc.RequiresJava)

	desc, err = NewResolver(m).Resolve("23.0.1", platform.Key{OS: "linux", Arch: "x64"})
	require.NoError(t, err)
	assert.Equal(t, 21, desc.RequiresJava, "default floor applies without requires_java")
}

func TestParseRejectsDuplicateCanonicalKeys(t *testing.T) {
	t.Parallel()

	doc := `
schema = 1
[javafx."21.0.1".platforms.linux-x64]
url = "https://example.invalid/a.zip"
checksum = "` + sampleChecksum + `"
[javafx."21.0.1".platforms.linux-amd64]
url = "https://example.invalid/b.zip"
checksum = "` + sampleChecksum + `"
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate platform linux-x64")
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "schema",
			doc:  "schema = 2\n[javafx.\"21.0.1\".platforms.linux-x64]\nurl = \"https://example.invalid/a.zip\"\nchecksum = \"" + sampleChecksum + "\"\n",
			want: "unsupported manifest schema 2",
		},
		{
			name: "missing url",
			doc:  "schema = 1\n[javafx.\"21.0.1\".platforms.linux-x64]\nchecksum = \"" + sampleChecksum + "\"\n",
			want: "url is required",
		},
		{
			name: "missing checksum",
			doc:  "schema = 1\n[javafx.\"21.0.1\".platforms.linux-x64]\nurl = \"https://example.invalid/a.zip\"\n",
			want: "checksum is required",
		},
		{
			name: "bad checksum",
			doc:  "schema = 1\n[javafx.\"21.0.1\".platforms.linux-x64]\nurl = \"https://example.invalid/a.zip\"\nchecksum = \"sha256:xyz\"\n",
			want: "invalid checksum",
		},
		{
			name: "bad version",
			doc:  "schema = 1\n[javafx.\"twenty-one\".platforms.linux-x64]\nurl = \"https://example.invalid/a.zip\"\nchecksum = \"" + sampleChecksum + "\"\n",
			want: "invalid JavaFX version",
		},
		{
			name: "bad platform",
			doc:  "schema = 1\n[javafx.\"21.0.1\".platforms.linux]\nurl = \"https://example.invalid/a.zip\"\nchecksum = \"" + sampleChecksum + "\"\n",
			want: "invalid platform key",
		},
		{
			name: "unknown architecture",
			doc:  "schema = 1\n[javafx.\"21.0.1\".platforms.linux-sparc]\nurl = \"https://example.invalid/a.zip\"\nchecksum = \"" + sampleChecksum + "\"\n",
			want: "unknown architecture",
		},
		{
			name: "not toml",
			doc:  "schema = = 1",
			want: "failed to decode manifest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDefaultManifestParses(t *testing.T) {
	t.Parallel()

	m, err := Default()
	require.NoError(t, err)
	assert.NotEmpty(t, m.Versions())

	r := NewResolver(m)
	desc, err := r.Resolve("21.0.1", platform.Key{OS: "linux", Arch: "x64"})
	require.NoError(t, err)
	assert.NotEmpty(t, desc.ChecksumURL)

	_, err = r.Resolve("21.0.1", platform.Key{OS: "windows", Arch: "arm64"})
	assert.Equal(t, apperr.UnsupportedPlatform, apperr.KindOf(err))
}
