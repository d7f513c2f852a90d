package analysis

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/just-nibble/srs-tracker/internal/domain"
)

// Format is the shape an output file must have to count as a success.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

var (
	errNoHeader          = errors.New("csv output has no header row")
	errNoRequirementText = errors.New(`csv output has no "Requirement Text" column`)
	errNotObject         = errors.New("json output is not an object")
)

// ParseRequirementsFile reads a requirements extraction CSV from disk.
func ParseRequirementsFile(path string) (domain.RequirementsArtifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.RequirementsArtifact{}, err
	}
	defer f.Close()
	return ParseRequirements(f)
}

// ParseRequirements reads CSV rows keyed by the "Requirement Text" column.
// "File Name" and a type column are optional; rows with blank text are
// skipped.
func ParseRequirements(r io.Reader) (domain.RequirementsArtifact, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return domain.RequirementsArtifact{}, errNoHeader
	}
	if err != nil {
		return domain.RequirementsArtifact{}, err
	}

	textCol, fileCol, typeCol := -1, -1, -1
	for i, name := range header {
		switch normalizeHeader(name) {
		case "requirement text":
			textCol = i
		case "file name":
			fileCol = i
		case "type", "requirement type", "label":
			typeCol = i
		}
	}
	if textCol < 0 {
		return domain.RequirementsArtifact{}, errNoRequirementText
	}

	out := domain.RequirementsArtifact{Requirements: []domain.Requirement{}}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.RequirementsArtifact{}, err
		}

		text := strings.TrimSpace(field(record, textCol))
		if text == "" {
			continue
		}
		out.Requirements = append(out.Requirements, domain.Requirement{
			FileName: strings.TrimSpace(field(record, fileCol)),
			Text:     text,
			Type:     strings.TrimSpace(field(record, typeCol)),
		})
	}
	return out, nil
}

func normalizeHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.ToLower(strings.Trim(strings.TrimSpace(s), `"`))
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

type rawCodeAnalysis struct {
	FilesAnalyzed  *int              `json:"files_analyzed"`
	FunctionsFound *int              `json:"functions_found"`
	Functions      []json.RawMessage `json:"functions"`
	Results        []struct {
		Filename  string            `json:"filename"`
		Functions []json.RawMessage `json:"functions"`
	} `json:"results"`
}

type rawFunction struct {
	Name      string `json:"name"`
	File      string `json:"file"`
	Line      *int   `json:"line"`
	StartLine *int   `json:"start_line"`
	Language  string `json:"language"`
}

// ParseCodeAnalysis reads the JSON object written by a source analysis.
// Functions may be listed at the top level or per file under "results",
// either as objects or bare names.
func ParseCodeAnalysis(data []byte) (domain.CodeArtifact, error) {
	if err := requireObject(data); err != nil {
		return domain.CodeArtifact{}, err
	}

	var raw rawCodeAnalysis
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.CodeArtifact{}, err
	}

	out := domain.CodeArtifact{Functions: []domain.Function{}}
	for _, f := range raw.Functions {
		fn, err := decodeFunction(f, "")
		if err != nil {
			return domain.CodeArtifact{}, err
		}
		out.Functions = append(out.Functions, fn)
	}
	for _, res := range raw.Results {
		for _, f := range res.Functions {
			fn, err := decodeFunction(f, res.Filename)
			if err != nil {
				return domain.CodeArtifact{}, err
			}
			out.Functions = append(out.Functions, fn)
		}
	}

	out.FunctionsFound = len(out.Functions)
	if raw.FunctionsFound != nil {
		out.FunctionsFound = *raw.FunctionsFound
	}
	if raw.FilesAnalyzed != nil {
		out.FilesAnalyzed = *raw.FilesAnalyzed
	} else {
		out.FilesAnalyzed = len(raw.Results)
	}
	return out, nil
}

func decodeFunction(data json.RawMessage, file string) (domain.Function, error) {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		return domain.Function{Name: name, File: file}, nil
	}

	var raw rawFunction
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.Function{}, fmt.Errorf("invalid function record: %w", err)
	}
	fn := domain.Function{Name: raw.Name, File: raw.File, Language: raw.Language}
	if fn.File == "" {
		fn.File = file
	}
	switch {
	case raw.Line != nil:
		fn.Line = *raw.Line
	case raw.StartLine != nil:
		fn.Line = *raw.StartLine
	}
	return fn, nil
}

type rawStats struct {
	Total        json.RawMessage `json:"total_requirements"`
	Implemented  json.RawMessage `json:"implemented_requirements"`
	Missing      json.RawMessage `json:"missing_requirements"`
	Undocumented json.RawMessage `json:"undocumented_functions"`
	Coverage     *float64        `json:"coverage_percentage"`
}

type rawComparison struct {
	rawStats
	Stats   *rawStats `json:"stats"`
	Matches []struct {
		Requirement string            `json:"requirement"`
		Implemented bool              `json:"implemented"`
		Locations   []json.RawMessage `json:"locations"`
	} `json:"matches"`
}

// ParseComparison reads a comparison output. Figures come from the "stats"
// object when present, otherwise from the top level, and each may be given
// as a count or as a list.
func ParseComparison(data []byte) (domain.ComparisonArtifact, error) {
	if err := requireObject(data); err != nil {
		return domain.ComparisonArtifact{}, err
	}

	var raw rawComparison
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.ComparisonArtifact{}, err
	}

	out := domain.ComparisonArtifact{
		Raw:     append(json.RawMessage(nil), data...),
		Matches: []domain.RequirementMatch{},
	}
	for _, m := range raw.Matches {
		match := domain.RequirementMatch{Requirement: m.Requirement, Implemented: m.Implemented}
		for _, loc := range m.Locations {
			match.Locations = append(match.Locations, locationString(loc))
		}
		out.Matches = append(out.Matches, match)
	}

	var err error
	sources := []rawStats{raw.rawStats}
	if raw.Stats != nil {
		sources = []rawStats{*raw.Stats, raw.rawStats}
	}
	for _, s := range sources {
		if out.Reported.Total, err = firstCount(out.Reported.Total, s.Total); err != nil {
			return domain.ComparisonArtifact{}, err
		}
		if out.Reported.Implemented, err = firstCount(out.Reported.Implemented, s.Implemented); err != nil {
			return domain.ComparisonArtifact{}, err
		}
		if out.Reported.Missing, err = firstCount(out.Reported.Missing, s.Missing); err != nil {
			return domain.ComparisonArtifact{}, err
		}
		if out.Reported.Undocumented, err = firstCount(out.Reported.Undocumented, s.Undocumented); err != nil {
			return domain.ComparisonArtifact{}, err
		}
		if out.Reported.Coverage == nil && s.Coverage != nil {
			c := *s.Coverage
			out.Reported.Coverage = &c
		}
	}
	return out, nil
}

func firstCount(current *int, raw json.RawMessage) (*int, error) {
	if current != nil {
		return current, nil
	}
	return countOf(raw)
}

// countOf accepts a number or a list and returns the count, or nil when the
// value is absent.
func countOf(raw json.RawMessage) (*int, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var n float64
	if err := json.Unmarshal(trimmed, &n); err == nil {
		c := int(n)
		return &c, nil
	}

	var list []json.RawMessage
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, fmt.Errorf("expected a count or a list, got %s", string(trimmed))
	}
	c := len(list)
	return &c, nil
}

func locationString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		File     string `json:"file"`
		Function string `json:"function"`
		Name     string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		name := obj.Function
		if name == "" {
			name = obj.Name
		}
		if obj.File != "" {
			return obj.File + ":" + name
		}
		return name
	}
	return string(raw)
}

func requireObject(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
			return err
		}
		return errNotObject
	}
	return nil
}

// checkOutput verifies that path holds well formed output of format.
func checkOutput(path string, format Format) error {
	switch format {
	case FormatCSV:
		_, err := ParseRequirementsFile(path)
		return err
	case FormatJSON:
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return requireObject(data)
	}
	return nil
}
