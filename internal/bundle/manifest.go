// Package bundle implements the on-disk game bundle layout: a storage tree
// of <storage>/<game_id>/<version>/ directories, each holding an extracted
// archive plus a game_config.json manifest that drives how the game server
// child is launched.
package bundle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// ManifestFile is the fixed name of a bundle's configuration manifest
// within its version directory.
const ManifestFile = "game_config.json"

// idPattern restricts game ids and versions to characters that can never
// escape a storage-root path segment (no "/", "..", or null bytes).
var idPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,128}$`)

// ValidID reports whether s is safe to use as a path segment under a
// bundle's storage root.
func ValidID(s string) bool {
	return idPattern.MatchString(s) && s != "." && s != ".."
}

// Manifest is a bundle's game_config.json.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	MinPlayers  int      `json:"min_players"`
	MaxPlayers  int      `json:"max_players"`
	ServerCmd   []string `json:"server_cmd"`
	RunCmd      []string `json:"run_cmd"`
}

// Validate checks a game's min/max player invariants: both >=1, max>=min.
func (m *Manifest) Validate() error {
	if m.MinPlayers < 1 {
		return fmt.Errorf("bundle: min_players must be >=1, got %d", m.MinPlayers)
	}
	if m.MaxPlayers < m.MinPlayers {
		return fmt.Errorf("bundle: max_players (%d) must be >= min_players (%d)", m.MaxPlayers, m.MinPlayers)
	}
	if len(m.ServerCmd) == 0 {
		return fmt.Errorf("bundle: server_cmd must not be empty")
	}
	return nil
}

// VersionDir returns <storageRoot>/<gameID>/<version>.
func VersionDir(storageRoot, gameID, version string) string {
	return filepath.Join(storageRoot, gameID, version)
}

// ArchivePath returns the canonical path for an uploaded archive:
// <STORAGE>/<game_id>/<version>/game_<version>.zip.
func ArchivePath(storageRoot, gameID, version string) string {
	return filepath.Join(VersionDir(storageRoot, gameID, version), fmt.Sprintf("game_%s.zip", version))
}

// LoadManifest reads and parses game_config.json from versionDir.
func LoadManifest(versionDir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(versionDir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("bundle: reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("bundle: parsing manifest: %w", err)
	}
	return &m, nil
}
