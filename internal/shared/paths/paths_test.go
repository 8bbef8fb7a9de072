package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sid string

func (s sid) String() string { return string(s) }

func TestArtifactsLayout(t *testing.T) {
	a := NewArtifacts("artifacts/browser")
	id := sid("sess_01")

	assert.Equal(t, filepath.Join("artifacts/browser", "sess_01"), a.SessionDir(id))
	assert.Equal(t, filepath.Join("artifacts/browser", "sess_01", "operations.log"), a.AuditLog(id))
}

func TestScreenshotPath(t *testing.T) {
	a := NewArtifacts("/data")
	id := sid("sess_01")

	tests := []struct {
		name     string
		filename string
		want     string
		wantErr  bool
	}{
		{"default", "", "/data/sess_01/screenshot.png", false},
		{"plain", "checkout.png", "/data/sess_01/checkout.png", false},
		{"traversal", "../../etc/passwd", "/data/sess_01/passwd", false},
		{"absolute", "/tmp/shot.png", "/data/sess_01/shot.png", false},
		{"windows separators", `..\..\shot.png`, "/data/sess_01/shot.png", false},
		{"dot dot", "..", "", true},
		{"hidden", ".env", "", true},
		{"audit log", "operations.log", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Screenshot(id, tt.filename)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestCleanFilenameRejectsEmptyBase(t *testing.T) {
	for _, name := range []string{".", "/", `\`, "a/..", `a\..`, "./", "///"} {
		_, err := CleanFilename(name)
		assert.Error(t, err, name)
	}

	got, err := CleanFilename(`dir\shot.png`)
	require.NoError(t, err)
	assert.Equal(t, "shot.png", got)
}
