package leads

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/skydesk/constants"
)

type FileResult struct {
	Path    string
	DraftID string
	Err     string
}

type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}

// IngestFile opens path and ingests it as a document of kind.
func (s *Service) IngestFile(ctx context.Context, kind constants.RecordType, path, notes string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return s.IngestDocument(ctx, kind, f, filepath.Base(path), notes)
}

// IngestDirectory walks root, skipping hidden entries when asked, and ingests every PDF
// it finds as a draft of kind. Per-file failures are collected rather than returned.
func (s *Service) IngestDirectory(ctx context.Context, kind constants.RecordType, root, notes string, skipHidden bool) ([]FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []FileResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !constants.IsAllowedUpload(path) {
			return nil
		}
		stats.Matched++

		id, err := s.IngestFile(ctx, kind, path, notes)
		if err != nil {
			results = append(results, FileResult{Path: path, Err: err.Error()})
			stats.Failed++
			return nil
		}
		results = append(results, FileResult{Path: path, DraftID: id})
		stats.Succeeded++
		return nil
	})

	s.logger.Info("leads.batch.done",
		"kind", string(kind),
		"root", root,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
	)
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
