package drafts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/skydesk/constants"
	"github.com/joseph-ayodele/skydesk/internal/common"
	"github.com/joseph-ayodele/skydesk/internal/entity"
)

// Store keeps drafts for one document kind under <root>/<id>/{draft.json,source.pdf}.
type Store struct {
	root   string
	logger *slog.Logger
}

func NewStore(root string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{root: root, logger: logger}
}

// SaveOptions carries the operator context saved alongside a draft.
type SaveOptions struct {
	Notes            string
	OriginalFilename string
	// SourcePDF is copied to the draft's source.pdf unless it already is that file.
	SourcePDF string
}

// NewID returns a random 32-hex draft id.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ValidID reports whether id looks like an id from NewID.
func ValidID(id string) bool {
	return len(id) == 32 && strings.ToLower(id) == id && common.UUID("draft_id", id) == nil
}

func (s *Store) Root() string {
	return s.root
}

func (s *Store) Dir(id string) string {
	return filepath.Join(s.root, id)
}

// PDFPath is where an upload for id should be staged before ingestion.
func (s *Store) PDFPath(id string) string {
	return filepath.Join(s.Dir(id), constants.DraftPDF)
}

// Stage creates the draft directory and writes the uploaded PDF into it.
func (s *Store) Stage(id string, upload io.Reader) (string, error) {
	if !ValidID(id) {
		return "", common.InvalidInputErrorf("invalid draft id %q", id)
	}
	if err := os.MkdirAll(s.Dir(id), 0o755); err != nil {
		return "", fmt.Errorf("create draft dir: %w", err)
	}
	path := s.PDFPath(id)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create draft pdf: %w", err)
	}
	if _, err := io.Copy(f, upload); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write draft pdf: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close draft pdf: %w", err)
	}
	return path, nil
}

// Save writes draft.json for id, overwriting any previous one.
func (s *Store) Save(id string, draft entity.Draft, opts SaveOptions) error {
	if !ValidID(id) {
		return common.InvalidInputErrorf("invalid draft id %q", id)
	}
	dir := s.Dir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create draft dir: %w", err)
	}

	target := s.PDFPath(id)
	if opts.SourcePDF != "" && !samePath(opts.SourcePDF, target) {
		if err := copyFile(opts.SourcePDF, target); err != nil {
			return fmt.Errorf("copy draft pdf: %w", err)
		}
	}

	stored := entity.StoredDraft{
		Draft:            draft,
		Notes:            opts.Notes,
		OriginalFilename: opts.OriginalFilename,
		PDFFilename:      constants.DraftPDF,
	}
	b, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, constants.DraftFile), b, 0o644); err != nil {
		return fmt.Errorf("write draft: %w", err)
	}
	s.logger.Info("drafts.save.ok", "draft_id", id, "root", s.root)
	return nil
}

// Load returns the draft only when draft.json and source.pdf both exist and draft.json parses.
// Anything else, including malformed ids, is reported as absent.
func (s *Store) Load(id string) (*entity.StoredDraft, bool) {
	if !ValidID(id) {
		return nil, false
	}
	if _, err := os.Stat(s.PDFPath(id)); err != nil {
		return nil, false
	}
	b, err := os.ReadFile(filepath.Join(s.Dir(id), constants.DraftFile))
	if err != nil {
		return nil, false
	}
	var stored entity.StoredDraft
	if err := json.Unmarshal(b, &stored); err != nil {
		s.logger.Warn("drafts.load.corrupt", "draft_id", id, "error", err)
		return nil, false
	}
	if stored.Parsed == nil {
		stored.Parsed = map[string]any{}
	}
	return &stored, true
}

// Delete removes the draft directory. Missing drafts are not an error.
func (s *Store) Delete(id string) error {
	if !ValidID(id) {
		return nil
	}
	if err := os.RemoveAll(s.Dir(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete draft %s: %w", id, err)
	}
	s.logger.Debug("drafts.delete.ok", "draft_id", id)
	return nil
}

func samePath(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	if err1 != nil || err2 != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return aa == bb
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
