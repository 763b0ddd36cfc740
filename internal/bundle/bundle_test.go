package bundle

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestValidate(t *testing.T) {
	cases := []struct {
		name    string
		m       Manifest
		wantErr bool
	}{
		{"valid", Manifest{MinPlayers: 1, MaxPlayers: 2, ServerCmd: []string{"./server"}}, false},
		{"min below 1", Manifest{MinPlayers: 0, MaxPlayers: 2, ServerCmd: []string{"./server"}}, true},
		{"max below min", Manifest{MinPlayers: 3, MaxPlayers: 2, ServerCmd: []string{"./server"}}, true},
		{"missing server_cmd", Manifest{MinPlayers: 1, MaxPlayers: 2}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.m.Validate()
			if c.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestArchivePathAndVersionDir(t *testing.T) {
	vd := VersionDir("/storage", "demo", "1.0")
	assert.Equal(t, filepath.Join("/storage", "demo", "1.0"), vd)

	ap := ArchivePath("/storage", "demo", "1.0")
	assert.Equal(t, filepath.Join(vd, "game_1.0.zip"), ap)
}

func writeTestZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func TestExtractRoundTrip(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "game_1.0.zip")
	writeTestZip(t, zipPath, map[string]string{
		"game_config.json":  `{"name":"Demo","version":"1.0","min_players":1,"max_players":2,"server_cmd":["./server"],"run_cmd":["./client"]}`,
		"assets/readme.txt": "hello",
	})

	destDir := filepath.Join(dir, "extracted")
	require.NoError(t, Extract(zipPath, destDir))

	m, err := LoadManifest(destDir)
	require.NoError(t, err)
	assert.Equal(t, "Demo", m.Name)
	assert.Equal(t, "1.0", m.Version)

	_, err = os.Stat(filepath.Join(destDir, "assets", "readme.txt"))
	assert.NoError(t, err, "expected extracted asset file")
}

func TestExtractRejectsZipSlip(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "evil.zip")
	writeTestZip(t, zipPath, map[string]string{
		"../../etc/passwd": "pwned",
	})

	destDir := filepath.Join(dir, "extracted")
	err := Extract(zipPath, destDir)
	assert.Error(t, err, "expected zip-slip rejection")
}
