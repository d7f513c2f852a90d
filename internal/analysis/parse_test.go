package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequirements(t *testing.T) {
	csv := "\ufeffRequirement Text,label,File Name\n" +
		"The system shall allow login,functional,spec.pdf\n" +
		"   ,functional,spec.pdf\n" +
		"\"Reports, exported as PDF\",non-functional,spec.pdf\n"

	got, err := ParseRequirements(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, got.Requirements, 2)

	assert.Equal(t, "The system shall allow login", got.Requirements[0].Text)
	assert.Equal(t, "functional", got.Requirements[0].Type)
	assert.Equal(t, "spec.pdf", got.Requirements[0].FileName)
	assert.Equal(t, "Reports, exported as PDF", got.Requirements[1].Text)
}

func TestParseRequirementsWithoutOptionalColumns(t *testing.T) {
	got, err := ParseRequirements(strings.NewReader("Requirement ID,Requirement Text\n1,Do a thing\n"))
	require.NoError(t, err)
	require.Len(t, got.Requirements, 1)
	assert.Empty(t, got.Requirements[0].FileName)
	assert.Empty(t, got.Requirements[0].Type)
}

func TestParseRequirementsErrors(t *testing.T) {
	_, err := ParseRequirements(strings.NewReader(""))
	assert.ErrorIs(t, err, errNoHeader)

	_, err = ParseRequirements(strings.NewReader("id,text\n1,x\n"))
	assert.ErrorIs(t, err, errNoRequirementText)
}

func TestParseCodeAnalysisTopLevelFunctions(t *testing.T) {
	data := []byte(`{
		"files_analyzed": 3,
		"functions_found": 2,
		"functions": [
			{"name": "login", "file": "auth.py", "start_line": 10, "language": "python"},
			{"name": "logout", "file": "auth.py", "line": 42, "language": "python"}
		]
	}`)

	got, err := ParseCodeAnalysis(data)
	require.NoError(t, err)
	assert.Equal(t, 3, got.FilesAnalyzed)
	assert.Equal(t, 2, got.FunctionsFound)
	require.Len(t, got.Functions, 2)
	assert.Equal(t, 10, got.Functions[0].Line)
	assert.Equal(t, 42, got.Functions[1].Line)
}

func TestParseCodeAnalysisPerFileResults(t *testing.T) {
	data := []byte(`{
		"source": "SourceCode.zip",
		"results": [
			{"filename": "a.py", "functions": ["f", "g"]},
			{"filename": "b.py", "functions": [{"name": "h", "line": 3}]}
		]
	}`)

	got, err := ParseCodeAnalysis(data)
	require.NoError(t, err)
	assert.Equal(t, 2, got.FilesAnalyzed)
	assert.Equal(t, 3, got.FunctionsFound)
	assert.Equal(t, "a.py", got.Functions[0].File)
	assert.Equal(t, "b.py", got.Functions[2].File)
	assert.Equal(t, 3, got.Functions[2].Line)
}

func TestParseCodeAnalysisRejectsNonObject(t *testing.T) {
	_, err := ParseCodeAnalysis([]byte(`[1, 2]`))
	assert.ErrorIs(t, err, errNotObject)

	_, err = ParseCodeAnalysis([]byte(`{"files_analyzed": `))
	assert.Error(t, err)
}

func TestParseComparisonStatsObject(t *testing.T) {
	data := []byte(`{
		"stats": {"total_requirements": 4, "implemented_requirements": 3, "missing_requirements": 1, "coverage_percentage": 75.0},
		"matches": [
			{"requirement": "login", "implemented": true, "locations": ["auth.py:login", {"file": "auth.py", "function": "check"}]},
			{"requirement": "export", "implemented": false}
		],
		"missing_requirements": [{"requirement": "export", "suggestion": "add it", "priority": "high"}]
	}`)

	got, err := ParseComparison(data)
	require.NoError(t, err)

	require.NotNil(t, got.Reported.Total)
	assert.Equal(t, 4, *got.Reported.Total)
	assert.Equal(t, 3, *got.Reported.Implemented)
	assert.Equal(t, 1, *got.Reported.Missing, "stats wins over the top level list")
	assert.Nil(t, got.Reported.Undocumented)
	assert.Equal(t, 75.0, *got.Reported.Coverage)

	require.Len(t, got.Matches, 2)
	assert.Equal(t, []string{"auth.py:login", "auth.py:check"}, got.Matches[0].Locations)
	assert.JSONEq(t, string(data), string(got.Raw))
}

func TestParseComparisonTopLevelLists(t *testing.T) {
	data := []byte(`{
		"coverage_percentage": 50,
		"implemented_requirements": ["a"],
		"missing_requirements": ["b"],
		"undocumented_functions": [{"name": "x"}, {"name": "y"}]
	}`)

	got, err := ParseComparison(data)
	require.NoError(t, err)
	assert.Nil(t, got.Reported.Total)
	assert.Equal(t, 1, *got.Reported.Implemented)
	assert.Equal(t, 1, *got.Reported.Missing)
	assert.Equal(t, 2, *got.Reported.Undocumented)
	assert.Equal(t, 50.0, *got.Reported.Coverage)
}

func TestParseComparisonBadCount(t *testing.T) {
	_, err := ParseComparison([]byte(`{"implemented_requirements": "many"}`))
	assert.Error(t, err)
}
