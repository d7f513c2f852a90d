package usecases

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/just-nibble/srs-tracker/internal/analysis"
	"github.com/just-nibble/srs-tracker/internal/artifact"
	"github.com/just-nibble/srs-tracker/internal/domain"
	"github.com/just-nibble/srs-tracker/internal/repository/mocks"
	"github.com/just-nibble/srs-tracker/pkg/config"
	"github.com/just-nibble/srs-tracker/pkg/github"
)

var (
	owner    = domain.User{ID: "U1", Email: "u1@example.com"}
	outsider = domain.User{ID: "U2", Email: "u2@example.com"}
)

// fakeRunner writes canned output for each call instead of running a script.
// respond runs when the call is released, like a script opening its input
// only once it gets a slot.
type fakeRunner struct {
	mu      sync.Mutex
	calls   []string
	args    [][]string
	gates   []chan struct{}
	respond func(n int, kind, input string) string
	failure *analysis.Failure
}

func (r *fakeRunner) ExtractRequirements(ctx context.Context, repo, inputPath, outputPath string) *analysis.Future {
	return r.run(analysis.KindRequirements, outputPath, inputPath)
}

func (r *fakeRunner) AnalyzeSource(ctx context.Context, repo, inputPath, outputPath string) *analysis.Future {
	return r.run(analysis.KindSourceCode, outputPath, inputPath)
}

func (r *fakeRunner) AnalyzeGitHub(ctx context.Context, repo, url, outputPath, cloneDir string) *analysis.Future {
	return r.run(analysis.KindGitHub, outputPath, url, cloneDir)
}

func (r *fakeRunner) Compare(ctx context.Context, repo, requirementsPath, sourcePath, outputPath string) *analysis.Future {
	return r.run(analysis.KindComparison, outputPath, requirementsPath, sourcePath)
}

func (r *fakeRunner) run(kind, outputPath string, args ...string) *analysis.Future {
	r.mu.Lock()
	n := len(r.calls)
	r.calls = append(r.calls, kind)
	r.args = append(r.args, args)
	var gate chan struct{}
	if n < len(r.gates) {
		gate = r.gates[n]
	}
	failure := r.failure
	respond := r.respond
	r.mu.Unlock()

	return analysis.Go(func() analysis.Outcome {
		if gate != nil {
			<-gate
		}
		content := ""
		if respond != nil {
			content = respond(n, kind, args[0])
		}
		out := analysis.Outcome{RunID: fmt.Sprintf("run-%d", n), OutputPath: outputPath, StartedAt: time.Now()}
		if failure != nil {
			out.ExitCode = failure.ExitCode
			out.Stderr = failure.Stderr
			out.Failure = failure
			return out
		}
		if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
			out.Failure = &analysis.Failure{Reason: analysis.ReasonMissingOutput, Err: err}
		}
		return out
	})
}

func (r *fakeRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// GitHubVerifier mock
type GitHubVerifier struct {
	mock.Mock
}

func (m *GitHubVerifier) VerifyRepository(ctx context.Context, owner, name string) (*github.Repository, error) {
	args := m.Called(ctx, owner, name)
	repo, _ := args.Get(0).(*github.Repository)
	return repo, args.Error(1)
}

func newArtifactStore(t *testing.T) (*artifact.Store, string) {
	t.Helper()
	root := t.TempDir()
	return artifact.NewStore(config.UploadsConfig{
		UploadDir:    filepath.Join(root, "uploads"),
		ExtractedDir: filepath.Join(root, "extracted"),
		MaxBytes:     1024 * 1024,
	}), root
}

func newAlpha(t *testing.T) *domain.Repository {
	t.Helper()
	repo, err := domain.NewRepository("alpha", owner.ID, owner.Email, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return repo
}

// storeFor returns a mock store serving repo for every lookup and update.
func storeFor(repo *domain.Repository) *mocks.RepositoryStore {
	store := new(mocks.RepositoryStore)
	store.On("ByID", mock.Anything, repo.ID).Return(repo, nil)
	store.On("Update", mock.Anything, repo.ID, mock.Anything).Return(repo, nil)
	return store
}

// echoRequirements extracts one requirement per line of the uploaded file.
func echoRequirements(_ int, _ string, input string) string {
	data, err := os.ReadFile(input)
	if err != nil {
		return ""
	}
	return requirementsCSV(strings.Split(strings.TrimSpace(string(data)), "\n")...)
}

func requirementsCSV(texts ...string) string {
	var b strings.Builder
	b.WriteString("File Name,Requirement Text\n")
	for _, text := range texts {
		fmt.Fprintf(&b, "srs.pdf,%s\n", text)
	}
	return b.String()
}

func numbered(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s %d", prefix, i+1)
	}
	return out
}
