package analysis

import (
	"context"

	"github.com/just-nibble/srs-tracker/pkg/config"
)

const (
	KindRequirements = "requirements"
	KindSourceCode   = "source_code"
	KindGitHub       = "github"
	KindComparison   = "comparison"
)

// AnalysisRunner is the analysis capability the service depends on. Each
// method starts one analysis and returns its future.
type AnalysisRunner interface {
	ExtractRequirements(ctx context.Context, repo, inputPath, outputPath string) *Future
	AnalyzeSource(ctx context.Context, repo, inputPath, outputPath string) *Future
	AnalyzeGitHub(ctx context.Context, repo, url, outputPath, cloneDir string) *Future
	Compare(ctx context.Context, repo, requirementsPath, sourcePath, outputPath string) *Future
}

// ScriptRunner implements AnalysisRunner with the configured scripts.
type ScriptRunner struct {
	invoker *Invoker
	cfg     config.AnalysisConfig
}

func NewScriptRunner(invoker *Invoker, cfg config.AnalysisConfig) *ScriptRunner {
	return &ScriptRunner{invoker: invoker, cfg: cfg}
}

func (s *ScriptRunner) ExtractRequirements(ctx context.Context, repo, inputPath, outputPath string) *Future {
	return s.invoker.Start(ctx, Invocation{
		Repo:       repo,
		Kind:       KindRequirements,
		Script:     s.cfg.ScriptPath(s.cfg.RequirementsScript),
		Args:       []string{"--file", inputPath, "--output", outputPath},
		OutputPath: outputPath,
		Format:     FormatCSV,
	})
}

func (s *ScriptRunner) AnalyzeSource(ctx context.Context, repo, inputPath, outputPath string) *Future {
	return s.invoker.Start(ctx, Invocation{
		Repo:       repo,
		Kind:       KindSourceCode,
		Script:     s.cfg.ScriptPath(s.cfg.SourceCodeScript),
		Args:       []string{"--file", inputPath, "--output", outputPath},
		OutputPath: outputPath,
		Format:     FormatJSON,
	})
}

func (s *ScriptRunner) AnalyzeGitHub(ctx context.Context, repo, url, outputPath, cloneDir string) *Future {
	return s.invoker.Start(ctx, Invocation{
		Repo:       repo,
		Kind:       KindGitHub,
		Script:     s.cfg.ScriptPath(s.cfg.GitHubScript),
		Args:       []string{"--url", url, "--output", outputPath, "--clone-dir", cloneDir},
		OutputPath: outputPath,
		Format:     FormatJSON,
	})
}

func (s *ScriptRunner) Compare(ctx context.Context, repo, requirementsPath, sourcePath, outputPath string) *Future {
	return s.invoker.Start(ctx, Invocation{
		Repo:       repo,
		Kind:       KindComparison,
		Script:     s.cfg.ScriptPath(s.cfg.CompareScript),
		Args:       []string{"--requirements", requirementsPath, "--sourcecode", sourcePath, "--output", outputPath},
		OutputPath: outputPath,
		Format:     FormatJSON,
	})
}
