package usecases

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/just-nibble/srs-tracker/internal/analysis"
	"github.com/just-nibble/srs-tracker/internal/domain"
	"github.com/just-nibble/srs-tracker/internal/repository"
	"github.com/just-nibble/srs-tracker/pkg/errcodes"
	"github.com/just-nibble/srs-tracker/pkg/github"
	"github.com/just-nibble/srs-tracker/pkg/log"
	"github.com/just-nibble/srs-tracker/pkg/validator"
)

// UploadInput carries either a file or a GitHub URL, never both.
type UploadInput struct {
	Kind      string
	File      io.Reader
	FileName  string
	Size      int64
	GitHubURL string
}

// UploadResult is the recorded history entry and the outcome of its analysis.
type UploadResult struct {
	Entry   domain.HistoryEntry
	Outcome analysis.Outcome
}

type UploadUsecase interface {
	Upload(ctx context.Context, user domain.User, repoID string, input UploadInput) (*UploadResult, error)
	// Wait blocks until every started analysis has been recorded.
	Wait()
}

type uploadUsecase struct {
	repositoryStore repository.RepositoryStore
	artifacts       ArtifactStore
	runner          analysis.AnalysisRunner
	github          github.RepositoryVerifier
	log             *log.Log
	now             func() time.Time
	inflight        sync.WaitGroup
}

// NewUploadUsecase wires uploads to analysis. verifier may be nil, in which
// case GitHub URLs are only checked for shape.
func NewUploadUsecase(repositoryStore repository.RepositoryStore, artifacts ArtifactStore, runner analysis.AnalysisRunner, verifier github.RepositoryVerifier, log *log.Log) UploadUsecase {
	return &uploadUsecase{
		repositoryStore: repositoryStore,
		artifacts:       artifacts,
		runner:          runner,
		github:          verifier,
		log:             log,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

type uploadDone struct {
	result *UploadResult
	err    error
}

// Upload stores the artifact, records it in the history ledger and runs its
// analysis. The analysis outcome is recorded against the entry even if ctx
// ends first; the caller then only loses the wait.
func (uc *uploadUsecase) Upload(ctx context.Context, user domain.User, repoID string, input UploadInput) (*UploadResult, error) {
	kind, err := domain.ParseArtifactKind(input.Kind)
	if err != nil {
		return nil, err
	}

	repo, err := memberRepository(ctx, uc.repositoryStore, user, repoID)
	if err != nil {
		return nil, err
	}

	action, ref, err := uc.store(ctx, repo, kind, input)
	if err != nil {
		return nil, err
	}
	staged := action != domain.ActionUploadedFromGitHub
	latest := ref
	if staged {
		latest = uc.artifacts.LatestPath(repo.Name, kind, ref)
	}

	var entry domain.HistoryEntry
	repo, err = uc.repositoryStore.Update(ctx, repo.ID, func(r *domain.Repository) error {
		if !r.IsMember(user.ID) {
			return errcodes.ErrNotMember
		}
		e, err := r.AppendHistory(domain.HistoryEntry{
			Kind:      kind,
			UserID:    user.ID,
			Action:    action,
			Artifact:  ref,
			Timestamp: uc.now(),
		})
		if err != nil {
			return err
		}
		r.SetLatestArtifact(kind, latest)
		entry = e
		return nil
	})
	if err != nil {
		if staged {
			uc.artifacts.Discard(ref)
		}
		return nil, err
	}

	logger := uc.log.Repo(repo.Name).WithFields(logrus.Fields{"entry": entry.ID, "kind": kind})
	logger.WithField("user", user.ID).Info("artifact uploaded")

	if staged {
		if _, err := uc.artifacts.Promote(repo.Name, kind, ref, entry.Seq); err != nil {
			logger.WithError(err).Warn("failed to refresh latest upload copy")
		}
	}

	detached := context.WithoutCancel(ctx)
	runOutput, future, err := uc.start(detached, repo.Name, kind, action, ref, entry.ID)
	if err != nil {
		uc.markFailed(detached, logger, repo.ID, entry.ID, err.Error())
		return nil, err
	}

	done := make(chan uploadDone, 1)
	uc.inflight.Add(1)
	go func() {
		defer uc.inflight.Done()
		res, err := uc.complete(detached, logger, repo, kind, entry, runOutput, future)
		done <- uploadDone{result: res, err: err}
	}()

	select {
	case d := <-done:
		return d.result, d.err
	case <-ctx.Done():
		logger.Warn("client stopped waiting, analysis continues")
		return nil, ctx.Err()
	}
}

func (uc *uploadUsecase) Wait() { uc.inflight.Wait() }

// store validates the upload and stages a file upload under its own name.
// It returns the history action and the artifact reference to record: the
// staged path, or the GitHub URL.
func (uc *uploadUsecase) store(ctx context.Context, repo *domain.Repository, kind domain.ArtifactKind, input UploadInput) (domain.HistoryAction, string, error) {
	if input.GitHubURL != "" && input.File != nil {
		return "", "", errcodes.ErrFileAndGitHubURL
	}
	if input.GitHubURL != "" {
		if kind != domain.KindSourceCode {
			return "", "", errcodes.ErrGitHubOnlySourceCode
		}
		owner, name, ok := validator.ParseGitHubURL(input.GitHubURL)
		if !ok {
			return "", "", errcodes.ErrInvalidGitHubURL
		}
		if uc.github != nil {
			if _, err := uc.github.VerifyRepository(ctx, owner, name); err != nil {
				return "", "", err
			}
		}
		return domain.ActionUploadedFromGitHub, input.GitHubURL, nil
	}

	if input.File == nil {
		return "", "", errcodes.ErrNoFileProvided
	}
	if err := uc.artifacts.Validate(kind, input.FileName, input.Size); err != nil {
		return "", "", err
	}
	path, err := uc.artifacts.Stage(ctx, repo.Name, kind, input.File, input.FileName)
	if err != nil {
		return "", "", err
	}
	return domain.ActionUploaded, path, nil
}

func (uc *uploadUsecase) start(ctx context.Context, repoName string, kind domain.ArtifactKind, action domain.HistoryAction, ref, entryID string) (string, *analysis.Future, error) {
	if _, err := uc.artifacts.ExtractedDir(repoName); err != nil {
		return "", nil, err
	}
	runOutput := uc.artifacts.RunOutputPath(repoName, kind, entryID)

	switch {
	case action == domain.ActionUploadedFromGitHub:
		cloneDir, err := uc.artifacts.PrepareClone(repoName, entryID)
		if err != nil {
			return "", nil, err
		}
		return runOutput, uc.runner.AnalyzeGitHub(ctx, repoName, ref, runOutput, cloneDir), nil
	case kind == domain.KindSRS:
		return runOutput, uc.runner.ExtractRequirements(ctx, repoName, ref, runOutput), nil
	default:
		return runOutput, uc.runner.AnalyzeSource(ctx, repoName, ref, runOutput), nil
	}
}

// complete waits for the analysis and records its result on entry. Success
// publishes the run output as the repository's latest analysis.
func (uc *uploadUsecase) complete(ctx context.Context, logger *logrus.Entry, repo *domain.Repository, kind domain.ArtifactKind, entry domain.HistoryEntry, runOutput string, future *analysis.Future) (*UploadResult, error) {
	outcome, err := future.Wait(ctx)
	if err != nil {
		return nil, err
	}
	res := &UploadResult{Entry: entry, Outcome: outcome}

	fail := func(reason string, cause error) (*UploadResult, error) {
		uc.artifacts.Discard(runOutput)
		uc.markFailed(ctx, logger, repo.ID, entry.ID, reason)
		res.Entry.AnalysisStatus = domain.AnalysisFailed
		res.Entry.FailureReason = reason
		return res, cause
	}

	if err := outcome.Err(); err != nil {
		return fail(string(outcome.Failure.Reason), err)
	}

	md, err := metadataFor(kind, runOutput)
	if err != nil {
		failure := &analysis.Failure{Reason: analysis.ReasonMalformedOutput, Stderr: outcome.Stderr, Err: err}
		res.Outcome.Failure = failure
		return fail(string(failure.Reason), failure)
	}

	published, err := uc.artifacts.Publish(repo.Name, kind, runOutput)
	if err != nil {
		return fail("PublishError", err)
	}
	md.OutputPath = published
	md.AnalyzedAt = uc.now()

	updated, err := uc.repositoryStore.Update(ctx, repo.ID, func(r *domain.Repository) error {
		return r.AttachMetadata(entry.ID, md)
	})
	if err != nil {
		logger.WithError(err).Error("failed to attach analysis metadata")
		return nil, err
	}

	if e, ok := updated.Entry(entry.ID); ok {
		res.Entry = e
	}
	res.Outcome.OutputPath = published
	logger.WithField("output", published).Info("analysis recorded")
	return res, nil
}

func (uc *uploadUsecase) markFailed(ctx context.Context, logger *logrus.Entry, repoID, entryID, reason string) {
	_, err := uc.repositoryStore.Update(ctx, repoID, func(r *domain.Repository) error {
		return r.MarkAnalysisFailed(entryID, reason)
	})
	if err != nil {
		logger.WithError(err).Error("failed to mark analysis failed")
		return
	}
	logger.WithField("reason", reason).Warn("analysis failed")
}

func metadataFor(kind domain.ArtifactKind, runOutput string) (domain.HistoryMetadata, error) {
	if kind == domain.KindSRS {
		reqs, err := analysis.ParseRequirementsFile(runOutput)
		if err != nil {
			return domain.HistoryMetadata{}, err
		}
		return domain.HistoryMetadata{ExtractedRequirements: len(reqs.Requirements)}, nil
	}

	data, err := os.ReadFile(runOutput)
	if err != nil {
		return domain.HistoryMetadata{}, fmt.Errorf("%w: %v", errcodes.ErrIO, err)
	}
	code, err := analysis.ParseCodeAnalysis(data)
	if err != nil {
		return domain.HistoryMetadata{}, err
	}
	return domain.HistoryMetadata{FilesAnalyzed: code.FilesAnalyzed, FunctionsFound: code.FunctionsFound}, nil
}
