package artifact

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/just-nibble/srs-tracker/internal/domain"
	"github.com/just-nibble/srs-tracker/internal/keylock"
	"github.com/just-nibble/srs-tracker/pkg/config"
	"github.com/just-nibble/srs-tracker/pkg/errcodes"
	"github.com/just-nibble/srs-tracker/pkg/validator"
)

const (
	requirementsFile        = "latest_extracted.csv"
	updatedRequirementsFile = "latest_extracted_updated.csv"
	sourceCodeFile          = "sourcecode.json"
	cloneDir                = "github_clone"
	stagedDir               = ".runs"
)

// Store keeps uploaded artifacts and analysis outputs on local disk.
//
//	<upload_dir>/<repo>/.runs/<id>_SRS<ext>      one per upload, never replaced
//	<upload_dir>/<repo>/SRS<ext>                 copy of the latest upload
//	<upload_dir>/<repo>/SourceCode<ext>
//	<upload_dir>/<repo>/github_clone/<run>/
//	<extracted_dir>/<repo>/latest_extracted.csv
//	<extracted_dir>/<repo>/sourcecode.json
//	<extracted_dir>/<repo>/comparison_results_<id>.json
type Store struct {
	uploadDir    string
	extractedDir string
	maxBytes     int64

	locks *keylock.Locker

	mu       sync.Mutex
	promoted map[string]int64
}

func NewStore(cfg config.UploadsConfig) *Store {
	return &Store{
		uploadDir:    cfg.UploadDir,
		extractedDir: cfg.ExtractedDir,
		maxBytes:     cfg.MaxBytes,
		locks:        keylock.New(),
		promoted:     make(map[string]int64),
	}
}

// Validate checks an upload before anything touches the disk.
func (s *Store) Validate(kind domain.ArtifactKind, originalName string, size int64) error {
	if kind != domain.KindSRS && kind != domain.KindSourceCode {
		return errcodes.ErrInvalidArtifactKind
	}
	if kind == domain.KindSourceCode && !validator.IsSourceCodeFile(originalName) {
		return errcodes.ErrInvalidFileType
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return errcodes.ErrFileTooLarge
	}
	return nil
}

// Stage writes src as the input of a single upload and returns its path.
// Staged files are never replaced, so an analysis reads exactly the bytes
// its own upload carried.
func (s *Store) Stage(ctx context.Context, repoName string, kind domain.ArtifactKind, src io.Reader, originalName string) (string, error) {
	if err := s.Validate(kind, originalName, 0); err != nil {
		return "", err
	}
	if ctx.Err() != nil {
		return "", errcodes.ErrContextCancelled
	}

	dir := filepath.Join(s.uploadDir, repoName, stagedDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create upload dir: %v", errcodes.ErrIO, err)
	}

	reader := src
	if s.maxBytes > 0 {
		reader = io.LimitReader(src, s.maxBytes+1)
	}
	dst := filepath.Join(dir, uuid.NewString()+"_"+baseName(kind)+strings.ToLower(filepath.Ext(originalName)))
	n, err := writeFile(dir, dst, reader)
	if err != nil {
		return "", err
	}
	if s.maxBytes > 0 && n > s.maxBytes {
		_ = os.Remove(dst)
		return "", errcodes.ErrFileTooLarge
	}
	return dst, nil
}

// LatestPath is where the copy of the latest upload of kind lives.
func (s *Store) LatestPath(repoName string, kind domain.ArtifactKind, originalName string) string {
	return filepath.Join(s.uploadDir, repoName, baseName(kind)+strings.ToLower(filepath.Ext(originalName)))
}

// Promote copies a staged upload to its LatestPath. seq is the history
// sequence of the upload; a promote older than one already done for the
// same repository and kind is skipped, so the copy always matches the
// newest entry whatever order the promotes arrive in.
func (s *Store) Promote(repoName string, kind domain.ArtifactKind, staged string, seq int64) (string, error) {
	unlock := s.locks.Lock(repoName)
	defer unlock()

	dst := s.LatestPath(repoName, kind, staged)
	key := repoName + "/" + string(kind)

	s.mu.Lock()
	newer := s.promoted[key] > seq
	s.mu.Unlock()
	if newer {
		return dst, nil
	}

	src, err := os.Open(staged)
	if err != nil {
		return "", fmt.Errorf("%w: open staged upload: %v", errcodes.ErrIO, err)
	}
	defer src.Close()

	dir := filepath.Dir(dst)
	if _, err := writeFile(dir, dst, src); err != nil {
		return "", err
	}

	// a latest copy with another extension is stale now
	others, _ := filepath.Glob(filepath.Join(dir, baseName(kind)+".*"))
	for _, other := range others {
		if other != dst {
			_ = os.Remove(other)
		}
	}

	s.mu.Lock()
	s.promoted[key] = seq
	s.mu.Unlock()
	return dst, nil
}

// Discard removes a staged upload or a run output that will not be used.
func (s *Store) Discard(path string) {
	_ = os.Remove(path)
	_ = os.Remove(updatedCompanion(path))
}

// PrepareClone creates the directory run runID clones a GitHub import into.
func (s *Store) PrepareClone(repoName, runID string) (string, error) {
	dir := filepath.Join(s.uploadDir, repoName, cloneDir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create clone dir: %v", errcodes.ErrIO, err)
	}
	return dir, nil
}

// ExtractedDir creates and returns the analysis output directory of repoName.
func (s *Store) ExtractedDir(repoName string) (string, error) {
	dir := filepath.Join(s.extractedDir, repoName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create extracted dir: %v", errcodes.ErrIO, err)
	}
	return dir, nil
}

// OutputPath is where the published analysis output of kind lives.
func (s *Store) OutputPath(repoName string, kind domain.ArtifactKind) string {
	name := requirementsFile
	if kind == domain.KindSourceCode {
		name = sourceCodeFile
	}
	return filepath.Join(s.extractedDir, repoName, name)
}

// UpdatedRequirementsPath is the hand-edited copy of the requirements
// extraction, if a client produced one.
func (s *Store) UpdatedRequirementsPath(repoName string) string {
	return filepath.Join(s.extractedDir, repoName, updatedRequirementsFile)
}

// ComparisonPath is where the raw output of comparison id is kept.
func (s *Store) ComparisonPath(repoName, id string) string {
	return filepath.Join(s.extractedDir, repoName, fmt.Sprintf("comparison_results_%s.json", id))
}

// RunOutputPath is a per-run scratch output. Runs never write the
// published file directly, so a failed run cannot clobber it.
func (s *Store) RunOutputPath(repoName string, kind domain.ArtifactKind, runID string) string {
	ext := filepath.Ext(s.OutputPath(repoName, kind))
	return filepath.Join(s.extractedDir, repoName, fmt.Sprintf(".run-%s%s", runID, ext))
}

// Publish moves a successful run's output over the published output of
// kind. Of two concurrent runs, the one that publishes last wins. The
// requirements script may also leave an "_updated" companion next to its
// output; it is published alongside.
func (s *Store) Publish(repoName string, kind domain.ArtifactKind, runOutput string) (string, error) {
	unlock := s.locks.Lock(repoName)
	defer unlock()

	dst := s.OutputPath(repoName, kind)
	if err := os.Rename(runOutput, dst); err != nil {
		return "", fmt.Errorf("%w: publish analysis output: %v", errcodes.ErrIO, err)
	}

	if kind == domain.KindSRS {
		companion := updatedCompanion(runOutput)
		if !Exists(companion) {
			// an older companion would shadow the new extraction
			_ = os.Remove(s.UpdatedRequirementsPath(repoName))
		} else if err := os.Rename(companion, s.UpdatedRequirementsPath(repoName)); err != nil {
			return "", fmt.Errorf("%w: publish updated requirements: %v", errcodes.ErrIO, err)
		}
	}
	return dst, nil
}

// RequirementsForComparison picks the reviewed requirements file when one
// exists and the raw extraction otherwise.
func (s *Store) RequirementsForComparison(repoName string) string {
	if updated := s.UpdatedRequirementsPath(repoName); Exists(updated) {
		return updated
	}
	return s.OutputPath(repoName, domain.KindSRS)
}

func updatedCompanion(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_updated" + ext
}

// Exists reports whether path is a regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func baseName(kind domain.ArtifactKind) string {
	if kind == domain.KindSRS {
		return "SRS"
	}
	return "SourceCode"
}

// writeFile writes r to dst through a temp file in dir and a rename.
func writeFile(dir, dst string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("%w: create temp file: %v", errcodes.ErrIO, err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("%w: write upload: %v", errcodes.ErrIO, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return 0, fmt.Errorf("%w: move upload into place: %v", errcodes.ErrIO, err)
	}
	return n, nil
}
