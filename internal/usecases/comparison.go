package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/just-nibble/srs-tracker/internal/analysis"
	"github.com/just-nibble/srs-tracker/internal/artifact"
	"github.com/just-nibble/srs-tracker/internal/coverage"
	"github.com/just-nibble/srs-tracker/internal/domain"
	"github.com/just-nibble/srs-tracker/internal/http/dtos"
	"github.com/just-nibble/srs-tracker/internal/repository"
	"github.com/just-nibble/srs-tracker/pkg/errcodes"
	"github.com/just-nibble/srs-tracker/pkg/log"
)

// ComparisonResult is a persisted comparison with the raw script output.
type ComparisonResult struct {
	Record       domain.ComparisonRecord
	Raw          json.RawMessage
	Unmatched    []string
	Undocumented []domain.Function
}

type ComparisonUsecase interface {
	Compare(ctx context.Context, user domain.User, repoID string) (*ComparisonResult, error)
	Comparisons(ctx context.Context, user domain.User, repoID string) ([]domain.ComparisonRecord, error)
	Extracted(ctx context.Context, user domain.User, repoID string, useUpdated bool) (*dtos.ExtractedResponse, error)
	// Wait blocks until every started comparison has been recorded.
	Wait()
}

type comparisonUsecase struct {
	repositoryStore repository.RepositoryStore
	artifacts       ArtifactStore
	runner          analysis.AnalysisRunner
	log             *log.Log
	now             func() time.Time
	inflight        sync.WaitGroup
}

func NewComparisonUsecase(repositoryStore repository.RepositoryStore, artifacts ArtifactStore, runner analysis.AnalysisRunner, log *log.Log) ComparisonUsecase {
	return &comparisonUsecase{
		repositoryStore: repositoryStore,
		artifacts:       artifacts,
		runner:          runner,
		log:             log,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

type inputs struct {
	requirementsPath string
	sourcePath       string
	requirements     domain.RequirementsArtifact
	code             domain.CodeArtifact
}

type comparisonDone struct {
	result *ComparisonResult
	err    error
}

// Compare runs the comparison over the latest published analyses and
// appends its record. Nothing is recorded when an input is missing.
func (uc *comparisonUsecase) Compare(ctx context.Context, user domain.User, repoID string) (*ComparisonResult, error) {
	repo, err := memberRepository(ctx, uc.repositoryStore, user, repoID)
	if err != nil {
		return nil, err
	}

	in, err := uc.load(ctx, repo.Name)
	if err != nil {
		return nil, err
	}

	if _, err := uc.artifacts.ExtractedDir(repo.Name); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	outputPath := uc.artifacts.ComparisonPath(repo.Name, id)
	logger := uc.log.Repo(repo.Name).WithField("comparison", id)

	detached := context.WithoutCancel(ctx)
	future := uc.runner.Compare(detached, repo.Name, in.requirementsPath, in.sourcePath, outputPath)

	done := make(chan comparisonDone, 1)
	uc.inflight.Add(1)
	go func() {
		defer uc.inflight.Done()
		res, err := uc.complete(detached, logger, repo.ID, user, id, outputPath, in, future)
		done <- comparisonDone{result: res, err: err}
	}()

	select {
	case d := <-done:
		return d.result, d.err
	case <-ctx.Done():
		logger.Warn("client stopped waiting, comparison continues")
		return nil, ctx.Err()
	}
}

func (uc *comparisonUsecase) Wait() { uc.inflight.Wait() }

// load reads both published analyses in parallel.
func (uc *comparisonUsecase) load(ctx context.Context, repoName string) (inputs, error) {
	in := inputs{
		requirementsPath: uc.artifacts.RequirementsForComparison(repoName),
		sourcePath:       uc.artifacts.OutputPath(repoName, domain.KindSourceCode),
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		if !artifact.Exists(in.requirementsPath) {
			return errcodes.ErrMissingRequirements
		}
		reqs, err := analysis.ParseRequirementsFile(in.requirementsPath)
		if err != nil {
			return fmt.Errorf("%w: %v", errcodes.ErrMissingRequirements, err)
		}
		in.requirements = reqs
		return nil
	})
	g.Go(func() error {
		if !artifact.Exists(in.sourcePath) {
			return errcodes.ErrMissingCodeAnalysis
		}
		data, err := os.ReadFile(in.sourcePath)
		if err != nil {
			return fmt.Errorf("%w: %v", errcodes.ErrIO, err)
		}
		code, err := analysis.ParseCodeAnalysis(data)
		if err != nil {
			return fmt.Errorf("%w: %v", errcodes.ErrMissingCodeAnalysis, err)
		}
		in.code = code
		return nil
	})

	if err := g.Wait(); err != nil {
		return inputs{}, err
	}
	return in, nil
}

func (uc *comparisonUsecase) complete(ctx context.Context, logger *logrus.Entry, repoID string, user domain.User, id, outputPath string, in inputs, future *analysis.Future) (*ComparisonResult, error) {
	outcome, err := future.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if err := outcome.Err(); err != nil {
		uc.markFailed(ctx, logger, repoID, outcome.Failure)
		return nil, err
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		failure := &analysis.Failure{Reason: analysis.ReasonMissingOutput, Err: err}
		uc.markFailed(ctx, logger, repoID, failure)
		return nil, failure
	}
	raw, err := analysis.ParseComparison(data)
	if err != nil {
		failure := &analysis.Failure{Reason: analysis.ReasonMalformedOutput, Stderr: outcome.Stderr, Err: err}
		uc.markFailed(ctx, logger, repoID, failure)
		return nil, failure
	}

	eval := coverage.Evaluate(in.requirements, in.code, raw)

	var record domain.ComparisonRecord
	_, err = uc.repositoryStore.Update(ctx, repoID, func(r *domain.Repository) error {
		record = r.AppendComparison(domain.ComparisonRecord{
			ID:          id,
			UserID:      user.ID,
			Timestamp:   uc.now(),
			ResultsPath: outputPath,
			Stats:       eval.Stats,
		})
		return nil
	})
	if err != nil {
		logger.WithError(err).Error("failed to record comparison")
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"coverage": record.Stats.Coverage,
		"total":    record.Stats.TotalRequirements,
	}).Info("comparison recorded")

	return &ComparisonResult{
		Record:       record,
		Raw:          raw.Raw,
		Unmatched:    eval.Unmatched,
		Undocumented: eval.Undocumented,
	}, nil
}

func (uc *comparisonUsecase) markFailed(ctx context.Context, logger *logrus.Entry, repoID string, failure *analysis.Failure) {
	_, err := uc.repositoryStore.Update(ctx, repoID, func(r *domain.Repository) error {
		r.MarkComparisonFailed()
		return nil
	})
	if err != nil {
		logger.WithError(err).Error("failed to mark comparison failed")
	}
	logger.WithField("reason", failure.Reason).Warn("comparison failed")
}

func (uc *comparisonUsecase) Comparisons(ctx context.Context, user domain.User, repoID string) ([]domain.ComparisonRecord, error) {
	repo, err := memberRepository(ctx, uc.repositoryStore, user, repoID)
	if err != nil {
		return nil, err
	}
	return repo.ComparisonsNewestFirst(), nil
}

// Extracted returns the latest extracted requirements. useUpdated prefers
// the labelled companion file when the extraction produced one.
func (uc *comparisonUsecase) Extracted(ctx context.Context, user domain.User, repoID string, useUpdated bool) (*dtos.ExtractedResponse, error) {
	repo, err := memberRepository(ctx, uc.repositoryStore, user, repoID)
	if err != nil {
		return nil, err
	}

	path := uc.artifacts.OutputPath(repo.Name, domain.KindSRS)
	if useUpdated {
		if updated := uc.artifacts.UpdatedRequirementsPath(repo.Name); artifact.Exists(updated) {
			path = updated
		}
	}
	if !artifact.Exists(path) {
		return nil, errcodes.ErrExtractedNotFound
	}

	reqs, err := analysis.ParseRequirementsFile(path)
	if err != nil {
		return nil, err
	}
	return &dtos.ExtractedResponse{Path: path, Requirements: reqs.Requirements}, nil
}
