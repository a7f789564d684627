package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/skydesk/constants"
	"github.com/joseph-ayodele/skydesk/internal/common"
	"github.com/joseph-ayodele/skydesk/internal/entity"
)

// timestampLayout is how every stored timestamp is written: UTC, seconds precision.
const timestampLayout = "2006-01-02T15:04:05Z"

// Store persists committed records as <root>/<kind>/<id>/record.json with
// documents/ and metadata.json alongside quotes and bookings.
type Store struct {
	root   string
	logger *slog.Logger
	now    func() time.Time
}

func NewStore(root string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{root: root, logger: logger, now: time.Now}
}

// Lead is one row of a record listing.
type Lead struct {
	ID      string
	Type    constants.RecordType
	Summary entity.Summary
}

func (s *Store) KindDir(kind constants.RecordType) string {
	return filepath.Join(s.root, string(kind))
}

func (s *Store) Dir(kind constants.RecordType, id string) string {
	return filepath.Join(s.KindDir(kind), id)
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(timestampLayout)
}

// Exists reports whether a record directory is present for id.
func (s *Store) Exists(kind constants.RecordType, id string) bool {
	if !ValidID(id) {
		return false
	}
	_, err := os.Stat(s.Dir(kind, id))
	return err == nil
}

// Commit creates the record directory for id and writes p, moves sourcePDF into
// documents/ and writes meta. An existing directory fails with ErrAlreadyExists and is left untouched.
// The payload is validated before anything is written. For quotes and bookings
// id must be the payload's lead id. If a later step fails the PDF is moved back
// and the directory removed, so the same id can be committed again.
func (s *Store) Commit(id string, p entity.Payload, sourcePDF string, meta entity.Metadata) error {
	kind := p.RecordType()
	log := s.logger.With("kind", string(kind), "record_id", id)

	if !ValidID(id) {
		return common.InvalidInputErrorf("invalid record id %q", id)
	}
	if s.Exists(kind, id) {
		log.Warn("records.commit.exists")
		return common.AlreadyExistsError(fmt.Sprintf("%s %s already exists", kind.Label(), id))
	}

	entity.Normalize(p)
	if kind.HasDocuments() && entity.LeadIDOf(p) != id {
		return common.InvalidInputErrorf("record id %q does not match lead id %q", id, entity.LeadIDOf(p))
	}
	if err := entity.Validate(p); err != nil {
		log.Warn("records.commit.invalid", "error", err)
		return err
	}
	data, err := entity.EncodePayload(p)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if meta.SavedAt == "" {
		meta.SavedAt = s.timestamp()
	}

	dir, err := s.createDir(kind, id)
	if err != nil {
		return err
	}
	moved, err := s.writeRecord(dir, kind, data, sourcePDF, meta)
	if err != nil {
		s.rollback(log, dir, moved, sourcePDF)
		return err
	}

	log.Info("records.commit.ok", "lead_id", entity.LeadIDOf(p))
	return nil
}

// writeRecord fills a freshly created record directory. It returns where the
// source PDF ended up once it has been moved.
func (s *Store) writeRecord(dir string, kind constants.RecordType, data []byte, sourcePDF string, meta entity.Metadata) (string, error) {
	if err := os.WriteFile(filepath.Join(dir, constants.RecordFile), data, 0o644); err != nil {
		return "", fmt.Errorf("write record: %w", err)
	}

	var moved string
	if sourcePDF != "" {
		name := SafeFilename(meta.OriginalFilename)
		if name == "" {
			name = string(kind) + ".pdf"
		}
		docs := filepath.Join(dir, constants.DocumentsDir)
		if err := os.MkdirAll(docs, 0o755); err != nil {
			return "", fmt.Errorf("create documents dir: %w", err)
		}
		dst := filepath.Join(docs, name)
		if err := moveFile(sourcePDF, dst); err != nil {
			return "", fmt.Errorf("move document: %w", err)
		}
		moved = dst
	}

	if err := writeJSON(filepath.Join(dir, constants.MetadataFile), meta); err != nil {
		return moved, fmt.Errorf("write metadata: %w", err)
	}
	return moved, nil
}

// rollback undoes a partial commit. When the PDF cannot be put back the
// directory is kept so the upload is not lost.
func (s *Store) rollback(log *slog.Logger, dir, moved, sourcePDF string) {
	if moved != "" {
		if err := moveFile(moved, sourcePDF); err != nil {
			log.Error("records.commit.restore_failed", "dir", dir, "document", moved, "error", err)
			return
		}
	}
	if err := os.RemoveAll(dir); err != nil {
		log.Error("records.commit.rollback_failed", "dir", dir, "error", err)
		return
	}
	log.Warn("records.commit.rolled_back", "dir", dir)
}

// CreateEnquiry stores a new enquiry under a generated, time-ordered id.
func (s *Store) CreateEnquiry(e *entity.Enquiry) (string, error) {
	now := s.now().UTC()
	id := now.Format("20060102T150405Z") + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if e.SubmittedAt == "" {
		e.SubmittedAt = now.Format(timestampLayout)
	}

	entity.Normalize(e)
	if err := entity.Validate(e); err != nil {
		return "", err
	}
	data, err := entity.EncodePayload(e)
	if err != nil {
		return "", fmt.Errorf("encode enquiry: %w", err)
	}
	dir, err := s.createDir(constants.Enquiry, id)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, constants.RecordFile), data, 0o644); err != nil {
		_ = os.RemoveAll(dir)
		return "", fmt.Errorf("write enquiry: %w", err)
	}
	s.logger.Info("records.enquiry.created", "record_id", id)
	return id, nil
}

// createDir makes the record directory, failing if another commit got there first.
func (s *Store) createDir(kind constants.RecordType, id string) (string, error) {
	if err := os.MkdirAll(s.KindDir(kind), 0o755); err != nil {
		return "", fmt.Errorf("create %s dir: %w", kind, err)
	}
	dir := s.Dir(kind, id)
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", common.AlreadyExistsError(fmt.Sprintf("%s %s already exists", kind.Label(), id))
		}
		return "", fmt.Errorf("create record dir: %w", err)
	}
	return dir, nil
}

// Load reads and decodes record.json.
func (s *Store) Load(kind constants.RecordType, id string) (entity.Payload, error) {
	if !ValidID(id) {
		return nil, common.NotFoundError(fmt.Sprintf("%s %q not found", kind, id))
	}
	data, err := os.ReadFile(filepath.Join(s.Dir(kind, id), constants.RecordFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.NotFoundError(fmt.Sprintf("%s %s not found", kind, id))
		}
		return nil, fmt.Errorf("read record: %w", err)
	}
	p, err := entity.DecodePayloadAs(kind, data)
	if err != nil {
		return nil, common.NewAppError(common.CodeNotFound, fmt.Sprintf("%s %s is unreadable", kind, id), errors.Join(common.ErrNotFound, err))
	}
	return p, nil
}

// List returns every readable record of kind, newest directory name first.
// Unreadable records are skipped.
func (s *Store) List(kind constants.RecordType) ([]Lead, error) {
	ids, err := s.ids(kind)
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))

	out := make([]Lead, 0, len(ids))
	for _, id := range ids {
		p, err := s.Load(kind, id)
		if err != nil {
			s.logger.Debug("records.list.skip", "kind", string(kind), "record_id", id, "error", err)
			continue
		}
		out = append(out, Lead{ID: id, Type: kind, Summary: p.Summary()})
	}
	return out, nil
}

func (s *Store) ids(kind constants.RecordType) ([]string, error) {
	entries, err := os.ReadDir(s.KindDir(kind))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s records: %w", kind, err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() && ValidID(e.Name()) {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// update loads the record, applies fn and rewrites record.json in full.
func (s *Store) update(kind constants.RecordType, id string, fn func(p entity.Payload) error) error {
	p, err := s.Load(kind, id)
	if err != nil {
		return err
	}
	if err := fn(p); err != nil {
		return err
	}
	data, err := entity.EncodePayload(p)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir(kind, id), constants.RecordFile), data, 0o644); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// LoadMetadata reads the ingestion provenance written at commit.
func (s *Store) LoadMetadata(kind constants.RecordType, id string) (*entity.Metadata, error) {
	if !ValidID(id) {
		return nil, common.NotFoundError(fmt.Sprintf("%s %q not found", kind, id))
	}
	data, err := os.ReadFile(filepath.Join(s.Dir(kind, id), constants.MetadataFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.NotFoundError(fmt.Sprintf("metadata for %s %s not found", kind, id))
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var meta entity.Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &meta, nil
}

// AddDocument stores an extra upload in documents/, never overwriting an existing file.
// It returns the stored file name.
func (s *Store) AddDocument(kind constants.RecordType, id string, r io.Reader, filename string) (string, error) {
	if !kind.HasDocuments() {
		return "", common.InvalidInputErrorf("%s records do not carry documents", kind)
	}
	if _, err := s.Load(kind, id); err != nil {
		return "", err
	}
	docs := filepath.Join(s.Dir(kind, id), constants.DocumentsDir)
	if err := os.MkdirAll(docs, 0o755); err != nil {
		return "", fmt.Errorf("create documents dir: %w", err)
	}

	name := SafeFilename(filename)
	if name == "" {
		name = string(kind) + ".pdf"
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		if _, err := os.Stat(filepath.Join(docs, name)); errors.Is(err, fs.ErrNotExist) {
			break
		}
		name = fmt.Sprintf("%s-%d%s", base, i, ext)
	}

	f, err := os.OpenFile(filepath.Join(docs, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write document: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close document: %w", err)
	}
	s.logger.Info("records.document.added", "kind", string(kind), "record_id", id, "file", name)
	return name, nil
}

// Documents lists the files in the record's documents/ directory by name.
func (s *Store) Documents(kind constants.RecordType, id string) ([]string, error) {
	if !ValidID(id) {
		return nil, common.NotFoundError(fmt.Sprintf("%s %q not found", kind, id))
	}
	entries, err := os.ReadDir(filepath.Join(s.Dir(kind, id), constants.DocumentsDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list documents: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// DocumentPath resolves a stored document, refusing names that are not plain file names.
func (s *Store) DocumentPath(kind constants.RecordType, id, name string) (string, error) {
	if !ValidID(id) || name == "" || SafeFilename(name) != name {
		return "", common.NotFoundError(fmt.Sprintf("document %q not found", name))
	}
	path := filepath.Join(s.Dir(kind, id), constants.DocumentsDir, name)
	if _, err := os.Stat(path); err != nil {
		return "", common.NotFoundError(fmt.Sprintf("document %q not found", name))
	}
	return path, nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// moveFile renames src to dst, falling back to copy and remove across filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		_ = in.Close()
		return err
	}
	_, copyErr := io.Copy(out, in)
	_ = in.Close()
	if closeErr := out.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		_ = os.Remove(dst)
		return copyErr
	}
	return os.Remove(src)
}
