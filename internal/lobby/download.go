package lobby

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pixellobby/arcade/pkg/frame"
	"github.com/pixellobby/arcade/pkg/protocol"
)

// handleDownloadGame resolves a game's latest version via DB, fails
// GAME_NOT_FOUND/VERSION_NOT_FOUND/FILE_MISSING as applicable, then streams
// the archive in raw mode.
func (l *Lobby) handleDownloadGame(log *slog.Logger, c *frame.Conn, data map[string]any) error {
	gameID, _ := data["game_id"].(string)

	resp, err := l.db.Call(protocol.CollectionGames, protocol.ActionGet, map[string]any{"game_id": gameID})
	if err != nil {
		return c.WriteJSON(protocol.Fail(cmdDownloadGame, protocol.ReasonDBError))
	}
	if ok, _ := resp["ok"].(bool); !ok {
		return c.WriteJSON(protocol.Fail(cmdDownloadGame, protocol.ReasonGameNotFound))
	}

	latest, _ := resp["latest_version"].(string)
	if latest == "" {
		return c.WriteJSON(protocol.Fail(cmdDownloadGame, protocol.ReasonVersionNotFound))
	}

	versions, _ := resp["versions"].([]any)
	var filePath string
	for _, v := range versions {
		entry, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if ver, _ := entry["version"].(string); ver == latest {
			filePath, _ = entry["file_path"].(string)
		}
	}
	if filePath == "" {
		return c.WriteJSON(protocol.Fail(cmdDownloadGame, protocol.ReasonVersionNotFound))
	}

	info, statErr := os.Stat(filePath)
	if statErr != nil {
		return c.WriteJSON(protocol.Fail(cmdDownloadGame, protocol.ReasonFileMissing))
	}

	f, openErr := os.Open(filePath)
	if openErr != nil {
		return c.WriteJSON(protocol.Fail(cmdDownloadGame, protocol.ReasonFileMissing))
	}
	defer f.Close()

	if err := c.WriteJSON(map[string]any{
		"type": cmdDownloadGame, "status": protocol.StatusOK,
		"size": info.Size(), "version": latest, "filename": filepath.Base(filePath),
	}); err != nil {
		return err
	}

	if _, err := c.WriteRaw(f, info.Size()); err != nil {
		log.Warn("lobby: streaming archive failed", "game_id", gameID, "error", err)
		return err
	}
	return nil
}
