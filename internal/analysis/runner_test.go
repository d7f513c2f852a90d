package analysis

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/just-nibble/srs-tracker/pkg/config"
	"github.com/just-nibble/srs-tracker/pkg/log"
)

// argsScript records its arguments and writes body to the --output path.
const argsScript = `
echo "$@" > "$(dirname "$0")/args"
while [ $# -gt 0 ]; do
  case "$1" in
    --output) out="$2"; shift ;;
  esac
  shift
done
printf '%s' "$BODY" > "$out"
`

func newTestRunner(t *testing.T, body string) (*ScriptRunner, string) {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"req.sh", "src.sh", "gh.sh", "cmp.sh"} {
		writeScript(t, dir, name, "BODY='"+body+"'\n"+argsScript)
	}

	cfg := config.AnalysisConfig{
		Interpreter:        "/bin/sh",
		ScriptsDir:         dir,
		RequirementsScript: "req.sh",
		SourceCodeScript:   "src.sh",
		GitHubScript:       "gh.sh",
		CompareScript:      "cmp.sh",
		Timeout:            time.Minute,
		MaxConcurrent:      2,
	}
	return NewScriptRunner(NewInvoker(cfg, nil, log.Discard()), cfg), dir
}

func readArgs(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "args"))
	require.NoError(t, err)
	return string(data)
}

func TestScriptRunnerExtractRequirements(t *testing.T) {
	runner, dir := newTestRunner(t, "Requirement Text\nA\n")
	out := filepath.Join(dir, "latest.csv")

	outcome, err := runner.ExtractRequirements(context.Background(), "alpha", "SRS.pdf", out).Wait(context.Background())
	require.NoError(t, err)
	require.True(t, outcome.Succeeded(), "failure: %v", outcome.Err())
	assert.Equal(t, "--file SRS.pdf --output "+out+"\n", readArgs(t, dir))
}

func TestScriptRunnerGitHubAndCompare(t *testing.T) {
	runner, dir := newTestRunner(t, "{}")
	out := filepath.Join(dir, "source.json")

	outcome, err := runner.AnalyzeGitHub(context.Background(), "alpha", "https://github.com/o/r", out, "/tmp/clone").Wait(context.Background())
	require.NoError(t, err)
	require.True(t, outcome.Succeeded())
	assert.Equal(t, "--url https://github.com/o/r --output "+out+" --clone-dir /tmp/clone\n", readArgs(t, dir))

	cmp := filepath.Join(dir, "cmp.json")
	outcome, err = runner.Compare(context.Background(), "alpha", "req.csv", "src.json", cmp).Wait(context.Background())
	require.NoError(t, err)
	require.True(t, outcome.Succeeded())
	assert.Equal(t, "--requirements req.csv --sourcecode src.json --output "+cmp+"\n", readArgs(t, dir))
}

func TestScriptRunnerAnalyzeSourceMalformed(t *testing.T) {
	runner, dir := newTestRunner(t, "oops")

	outcome, err := runner.AnalyzeSource(context.Background(), "alpha", "SourceCode.zip", filepath.Join(dir, "s.json")).Wait(context.Background())
	require.NoError(t, err)
	require.NotNil(t, outcome.Failure)
	assert.Equal(t, ReasonMalformedOutput, outcome.Failure.Reason)
}
