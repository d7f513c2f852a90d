package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/just-nibble/srs-tracker/internal/domain"
	"github.com/just-nibble/srs-tracker/pkg/config"
	"github.com/just-nibble/srs-tracker/pkg/errcodes"
)

func newTestStore(t *testing.T, maxBytes int64) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	return NewStore(config.UploadsConfig{
		UploadDir:    filepath.Join(root, "uploads"),
		ExtractedDir: filepath.Join(root, "extracted"),
		MaxBytes:     maxBytes,
	}), root
}

func TestStageKeepsEveryUpload(t *testing.T) {
	s, root := newTestStore(t, 1024)

	first, err := s.Stage(context.Background(), "alpha", domain.KindSRS, strings.NewReader("v1"), "spec.PDF")
	require.NoError(t, err)
	second, err := s.Stage(context.Background(), "alpha", domain.KindSRS, strings.NewReader("v2"), "other.pdf")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, filepath.Join(root, "uploads", "alpha", ".runs"), filepath.Dir(first))
	assert.True(t, strings.HasSuffix(first, "_SRS.pdf"))

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data), "a later upload leaves earlier inputs alone")

	entries, err := os.ReadDir(filepath.Dir(first))
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestPromoteFollowsHistoryOrder(t *testing.T) {
	s, root := newTestStore(t, 1024)
	older, err := s.Stage(context.Background(), "alpha", domain.KindSRS, strings.NewReader("v1"), "spec.pdf")
	require.NoError(t, err)
	newer, err := s.Stage(context.Background(), "alpha", domain.KindSRS, strings.NewReader("v2"), "spec.docx")
	require.NoError(t, err)

	latest, err := s.Promote("alpha", domain.KindSRS, newer, 2)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "uploads", "alpha", "SRS.docx"), latest)
	assert.Equal(t, s.LatestPath("alpha", domain.KindSRS, "x.DOCX"), latest)

	// the older upload finishing late does not roll the copy back
	_, err = s.Promote("alpha", domain.KindSRS, older, 1)
	require.NoError(t, err)

	data, err := os.ReadFile(latest)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
	assert.False(t, Exists(filepath.Join(root, "uploads", "alpha", "SRS.pdf")))

	third, err := s.Stage(context.Background(), "alpha", domain.KindSRS, strings.NewReader("v3"), "spec.pdf")
	require.NoError(t, err)
	latest, err = s.Promote("alpha", domain.KindSRS, third, 3)
	require.NoError(t, err)
	data, err = os.ReadFile(latest)
	require.NoError(t, err)
	assert.Equal(t, "v3", string(data))
	assert.False(t, Exists(filepath.Join(root, "uploads", "alpha", "SRS.docx")), "stale extension removed")
}

func TestStageRejectsDisallowedSourceExtension(t *testing.T) {
	s, root := newTestStore(t, 1024)

	_, err := s.Stage(context.Background(), "alpha", domain.KindSourceCode, strings.NewReader("MZ"), "main.exe")
	assert.ErrorIs(t, err, errcodes.ErrValidation)

	_, statErr := os.Stat(filepath.Join(root, "uploads", "alpha"))
	assert.True(t, os.IsNotExist(statErr), "nothing stored")
}

func TestStageRejectsOversizedUpload(t *testing.T) {
	s, root := newTestStore(t, 4)

	_, err := s.Stage(context.Background(), "alpha", domain.KindSourceCode, strings.NewReader("0123456789"), "main.py")
	assert.ErrorIs(t, err, errcodes.ErrFileTooLarge)
	entries, _ := os.ReadDir(filepath.Join(root, "uploads", "alpha", ".runs"))
	assert.Empty(t, entries)

	assert.ErrorIs(t, s.Validate(domain.KindSRS, "a.pdf", 5), errcodes.ErrFileTooLarge)
	assert.NoError(t, s.Validate(domain.KindSRS, "a.pdf", 4))
}

func TestStageUnwritableDestination(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "uploads")
	require.NoError(t, os.WriteFile(blocker, []byte("file, not dir"), 0o644))

	s := NewStore(config.UploadsConfig{UploadDir: blocker, ExtractedDir: root})
	_, err := s.Stage(context.Background(), "alpha", domain.KindSRS, strings.NewReader("x"), "a.pdf")
	assert.ErrorIs(t, err, errcodes.ErrIO)
}

func TestPrepareCloneIsPerRun(t *testing.T) {
	s, root := newTestStore(t, 0)

	dir, err := s.PrepareClone("alpha", "e1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "uploads", "alpha", "github_clone", "e1"), dir)

	_, err = s.PrepareClone("alpha", "e1")
	assert.NoError(t, err)

	other, err := s.PrepareClone("alpha", "e2")
	require.NoError(t, err)
	assert.NotEqual(t, dir, other)
}

func TestPublishReplacesOutput(t *testing.T) {
	s, root := newTestStore(t, 0)
	_, err := s.ExtractedDir("alpha")
	require.NoError(t, err)

	run := s.RunOutputPath("alpha", domain.KindSRS, "r1")
	require.NoError(t, os.WriteFile(run, []byte("File Name,Requirement Text\n"), 0o644))

	published, err := s.Publish("alpha", domain.KindSRS, run)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "extracted", "alpha", "latest_extracted.csv"), published)
	assert.True(t, Exists(published))
	assert.False(t, Exists(run))

	assert.Equal(t, filepath.Join(root, "extracted", "alpha", "sourcecode.json"), s.OutputPath("alpha", domain.KindSourceCode))
	assert.Equal(t, filepath.Join(root, "extracted", "alpha", "comparison_results_c1.json"), s.ComparisonPath("alpha", "c1"))
}

func TestPublishMovesUpdatedCompanion(t *testing.T) {
	s, _ := newTestStore(t, 0)
	_, err := s.ExtractedDir("alpha")
	require.NoError(t, err)

	assert.Equal(t, s.OutputPath("alpha", domain.KindSRS), s.RequirementsForComparison("alpha"))

	run := s.RunOutputPath("alpha", domain.KindSRS, "r1")
	require.NoError(t, os.WriteFile(run, []byte("Requirement Text\nA\n"), 0o644))
	require.NoError(t, os.WriteFile(updatedCompanion(run), []byte("Requirement Text\nA\nB\n"), 0o644))

	_, err = s.Publish("alpha", domain.KindSRS, run)
	require.NoError(t, err)

	assert.True(t, Exists(s.UpdatedRequirementsPath("alpha")))
	assert.Equal(t, s.UpdatedRequirementsPath("alpha"), s.RequirementsForComparison("alpha"))

	run = s.RunOutputPath("alpha", domain.KindSRS, "r2")
	require.NoError(t, os.WriteFile(run, []byte("Requirement Text\nC\n"), 0o644))
	_, err = s.Publish("alpha", domain.KindSRS, run)
	require.NoError(t, err)

	assert.False(t, Exists(s.UpdatedRequirementsPath("alpha")), "stale companion removed")
	assert.Equal(t, s.OutputPath("alpha", domain.KindSRS), s.RequirementsForComparison("alpha"))
}

func TestDiscardRemovesRunFiles(t *testing.T) {
	s, _ := newTestStore(t, 0)
	_, err := s.ExtractedDir("alpha")
	require.NoError(t, err)

	run := s.RunOutputPath("alpha", domain.KindSRS, "r1")
	require.NoError(t, os.WriteFile(run, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(updatedCompanion(run), []byte("x"), 0o644))

	s.Discard(run)
	assert.False(t, Exists(run))
	assert.False(t, Exists(updatedCompanion(run)))
}

// Runs with and without an "_updated" companion publishing at once must
// leave the two files from the same run.
func TestConcurrentPublishKeepsCompanionWithItsRun(t *testing.T) {
	s, _ := newTestStore(t, 0)
	_, err := s.ExtractedDir("alpha")
	require.NoError(t, err)

	const runs = 40
	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		run := s.RunOutputPath("alpha", domain.KindSRS, fmt.Sprintf("r%d", i))
		require.NoError(t, os.WriteFile(run, []byte(fmt.Sprintf("Requirement Text\nrun %d\n", i)), 0o644))
		if i%2 == 0 {
			require.NoError(t, os.WriteFile(updatedCompanion(run), []byte(fmt.Sprintf("Requirement Text\nrun %d\nreviewed\n", i)), 0o644))
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Publish("alpha", domain.KindSRS, run)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	published, err := os.ReadFile(s.OutputPath("alpha", domain.KindSRS))
	require.NoError(t, err)
	var winner int
	_, err = fmt.Sscanf(strings.Split(string(published), "\n")[1], "run %d", &winner)
	require.NoError(t, err)

	updated, err := os.ReadFile(s.UpdatedRequirementsPath("alpha"))
	if winner%2 == 1 {
		assert.True(t, os.IsNotExist(err), "run %d has no companion, found %q", winner, updated)
		return
	}
	require.NoError(t, err)
	assert.Contains(t, string(updated), fmt.Sprintf("run %d\n", winner))
}
