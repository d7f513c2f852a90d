package usecases

import (
	"context"
	"io"

	"github.com/just-nibble/srs-tracker/internal/domain"
)

// ArtifactStore is the on-disk layout of uploads and analysis outputs.
type ArtifactStore interface {
	Validate(kind domain.ArtifactKind, originalName string, size int64) error
	Stage(ctx context.Context, repoName string, kind domain.ArtifactKind, src io.Reader, originalName string) (string, error)
	LatestPath(repoName string, kind domain.ArtifactKind, originalName string) string
	Promote(repoName string, kind domain.ArtifactKind, staged string, seq int64) (string, error)
	PrepareClone(repoName, runID string) (string, error)
	ExtractedDir(repoName string) (string, error)
	OutputPath(repoName string, kind domain.ArtifactKind) string
	UpdatedRequirementsPath(repoName string) string
	RequirementsForComparison(repoName string) string
	ComparisonPath(repoName, id string) string
	RunOutputPath(repoName string, kind domain.ArtifactKind, runID string) string
	Publish(repoName string, kind domain.ArtifactKind, runOutput string) (string, error)
	Discard(path string)
}
