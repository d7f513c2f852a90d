package domain

import (
	"encoding/json"
	"time"
)

// Requirement is one row of a requirements extraction.
type Requirement struct {
	FileName string `json:"fileName"`
	Text     string `json:"requirementText"`
	Type     string `json:"type,omitempty"`
}

type RequirementsArtifact struct {
	Requirements []Requirement `json:"requirements"`
}

type Function struct {
	Name     string `json:"name"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Language string `json:"language,omitempty"`
}

// CodeArtifact is the parsed output of a source code analysis.
type CodeArtifact struct {
	FilesAnalyzed  int        `json:"files_analyzed"`
	FunctionsFound int        `json:"functions_found"`
	Functions      []Function `json:"functions"`
}

// RequirementMatch is the external verdict for one requirement.
type RequirementMatch struct {
	Requirement string   `json:"requirement"`
	Implemented bool     `json:"implemented"`
	Locations   []string `json:"locations,omitempty"`
}

// ComparisonArtifact is the raw comparison output plus what could be
// parsed out of it. Raw is kept verbatim.
type ComparisonArtifact struct {
	Raw      json.RawMessage
	Matches  []RequirementMatch
	Reported ReportedCounts
}

// ReportedCounts holds the figures the script printed itself. Nil means
// the script did not report that figure.
type ReportedCounts struct {
	Total        *int
	Implemented  *int
	Missing      *int
	Undocumented *int
	Coverage     *float64
}

type ComparisonStats struct {
	TotalRequirements int     `json:"totalRequirements"`
	Implemented       int     `json:"implemented"`
	Missing           int     `json:"missing"`
	Undocumented      int     `json:"undocumented"`
	Coverage          float64 `json:"coverage"`
}

type ComparisonRecord struct {
	ID          string
	UserID      string
	Timestamp   time.Time
	ResultsPath string
	Stats       ComparisonStats
}
