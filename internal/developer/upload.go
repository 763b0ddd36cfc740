package developer

import (
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/pixellobby/arcade/internal/bundle"
	"github.com/pixellobby/arcade/pkg/frame"
	"github.com/pixellobby/arcade/pkg/protocol"
)

// maxUploadSize caps a single bundle archive upload; it is well above any
// real game bundle and exists only to bound disk usage per upload.
const maxUploadSize = 256 << 20 // 256 MiB

// handleUploadInit rejects an unauthenticated session; computes the storage
// path; responds READY_TO_RECV; switches to raw mode and consumes exactly
// file_size bytes; extracts the archive; records the upload with DB; sends
// UPLOAD_COMPLETE.
func (s *Service) handleUploadInit(log *slog.Logger, c *frame.Conn, sess *Session, data map[string]any) error {
	if !sess.Authenticated() {
		return c.WriteJSON(protocol.Fail(cmdUploadInit, protocol.ReasonNotAuthenticated))
	}

	gameID, _ := data["game_id"].(string)
	version, _ := data["version"].(string)
	fileSize, _ := data["file_size"].(float64)
	metadata, _ := data["metadata"].(map[string]any)

	txID := uuid.New().String()
	log = log.With("upload_tx", txID, "game_id", gameID, "version", version)

	if !bundle.ValidID(gameID) || !bundle.ValidID(version) {
		return c.WriteJSON(protocol.Fail(cmdUploadInit, protocol.ReasonInvalidRequest))
	}
	if fileSize <= 0 || fileSize > maxUploadSize {
		return c.WriteJSON(protocol.Fail(cmdUploadInit, protocol.ReasonInvalidRequest))
	}

	versionDir := bundle.VersionDir(s.storageRoot, gameID, version)
	archivePath := bundle.ArchivePath(s.storageRoot, gameID, version)
	if err := os.MkdirAll(versionDir, 0o755); err != nil {
		log.Error("developer: creating version directory failed", "error", err)
		return c.WriteJSON(protocol.Fail(cmdUploadInit, protocol.ReasonLaunchFail))
	}

	if err := c.WriteJSON(map[string]any{"type": cmdUploadInit, "status": "READY_TO_RECV"}); err != nil {
		return err
	}

	f, err := os.OpenFile(archivePath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		log.Error("developer: creating archive file failed", "error", err)
		return c.WriteJSON(map[string]any{"type": "UPLOAD_COMPLETE", "status": protocol.StatusFail, "reason": string(protocol.ReasonBadZip)})
	}

	n, copyErr := c.ReadRaw(f, int64(fileSize))
	closeErr := f.Close()
	if copyErr != nil {
		return copyErr // transport-level failure: terminate the connection
	}
	if closeErr != nil {
		log.Error("developer: closing archive file failed", "error", closeErr)
	}
	if s.metrics != nil {
		s.metrics.UploadBytesSum.Add(float64(n))
	}

	if err := bundle.Extract(archivePath, versionDir); err != nil {
		log.Warn("developer: archive extraction failed", "error", err)
		if s.metrics != nil {
			s.metrics.ExtractFailures.Inc()
			s.metrics.UploadsTotal.WithLabelValues("fail").Inc()
		}
		return c.WriteJSON(map[string]any{"type": "UPLOAD_COMPLETE", "status": protocol.StatusFail, "reason": string(protocol.ReasonBadZip)})
	}

	resp, dbErr := s.db.Call(protocol.CollectionGames, protocol.ActionUpload, map[string]any{
		"game_id":     gameID,
		"author":      sess.Username,
		"name":        strOf(metadata, "name"),
		"description": strOf(metadata, "description"),
		"type":        strOf(metadata, "type"),
		"min_players": metadata["min_players"],
		"max_players": metadata["max_players"],
		"version_info": map[string]any{
			"version":   version,
			"file_path": archivePath,
		},
	})
	if dbErr != nil || !truthy(resp["ok"]) {
		log.Error("developer: recording upload with DB failed", "db_error", dbErr)
		if s.metrics != nil {
			s.metrics.UploadsTotal.WithLabelValues("fail").Inc()
		}
		return c.WriteJSON(map[string]any{"type": "UPLOAD_COMPLETE", "status": protocol.StatusFail, "reason": string(protocol.ReasonDBError)})
	}

	if s.metrics != nil {
		s.metrics.UploadsTotal.WithLabelValues("ok").Inc()
	}
	return c.WriteJSON(map[string]any{"type": "UPLOAD_COMPLETE", "status": protocol.StatusOK})
}

func strOf(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

func truthy(v any) bool {
	b, _ := v.(bool)
	return b
}
