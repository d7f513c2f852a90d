package dtos

import (
	"encoding/json"
	"time"

	"github.com/just-nibble/srs-tracker/internal/domain"
	"github.com/just-nibble/srs-tracker/internal/runlog"
)

type RepositoryInput struct {
	Name string `json:"name"`
}

type AccessRequestInput struct {
	UserID    string `json:"userId"`
	UserEmail string `json:"userEmail"`
}

type HandleRequestInput struct {
	RequestID string `json:"requestId"`
	Decision  string `json:"decision"`
}

type GitHubUploadInput struct {
	FileType  string `json:"fileType"`
	GitHubURL string `json:"githubUrl"`
}

type AccessRequest struct {
	ID          string     `json:"_id"`
	UserID      string     `json:"user"`
	Email       string     `json:"email"`
	Status      string     `json:"status"`
	RequestedAt time.Time  `json:"requestedAt"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
}

type HistoryEntry struct {
	ID             string                  `json:"_id"`
	Seq            int64                   `json:"seq"`
	Kind           string                  `json:"kind"`
	UserID         string                  `json:"user"`
	Action         string                  `json:"action"`
	Artifact       string                  `json:"file"`
	Timestamp      time.Time               `json:"timestamp"`
	Metadata       *domain.HistoryMetadata `json:"metadata,omitempty"`
	AnalysisStatus string                  `json:"analysisStatus"`
	FailureReason  string                  `json:"failureReason,omitempty"`
}

type ComparisonRecord struct {
	ID          string                 `json:"_id"`
	UserID      string                 `json:"user"`
	Timestamp   time.Time              `json:"timestamp"`
	ResultsPath string                 `json:"resultsPath"`
	Stats       domain.ComparisonStats `json:"stats"`
}

type Repository struct {
	ID                string             `json:"_id"`
	Name              string             `json:"name"`
	Owner             string             `json:"owner"`
	OwnerEmail        string             `json:"ownerEmail,omitempty"`
	Members           []string           `json:"members"`
	Requests          []AccessRequest    `json:"requests"`
	SRSHistory        []HistoryEntry     `json:"srsHistory"`
	SourceCodeHistory []HistoryEntry     `json:"sourceCodeHistory"`
	Comparisons       []ComparisonRecord `json:"comparisonHistory"`
	SRSFile           string             `json:"srsFile,omitempty"`
	SourceCodeFile    string             `json:"sourceCodeFile,omitempty"`
	LastCompared      *time.Time         `json:"lastCompared,omitempty"`
	ComparisonStatus  string             `json:"comparisonStatus"`
	TotalActivity     int                `json:"totalActivity"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

type RepositoryDetails struct {
	Repository          Repository `json:"repository"`
	TotalActivity       int        `json:"totalActivity"`
	ExtractedPath       string     `json:"extractedFilePath"`
	LatestExtracted     string     `json:"latest_extracted"`
	LatestExtractedEdit string     `json:"latest_extracted_updated"`
}

type RepositoryOwner struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type MultiRepositoriesResponse struct {
	Repositories []Repository `json:"repositories"`
	PageInfo     PagingInfo   `json:"page_info"`
}

type MultiHistoryResponse struct {
	History  []HistoryEntry `json:"history"`
	PageInfo PagingInfo     `json:"page_info"`
}

type UploadResponse struct {
	Message    string       `json:"message"`
	Entry      HistoryEntry `json:"entry"`
	OutputPath string       `json:"outputPath,omitempty"`
	Stdout     string       `json:"stdout,omitempty"`
}

type ComparisonResponse struct {
	Record       ComparisonRecord  `json:"record"`
	Results      json.RawMessage   `json:"results"`
	Unmatched    []string          `json:"unmatched,omitempty"`
	Undocumented []domain.Function `json:"undocumented,omitempty"`
}

type ExtractedResponse struct {
	Path         string               `json:"path"`
	Requirements []domain.Requirement `json:"requirements"`
}

type RunsResponse struct {
	Runs   []runlog.Run `json:"runs"`
	Failed int          `json:"failed"`
}

func ToRunsResponse(runs []runlog.Run) RunsResponse {
	out := RunsResponse{Runs: runs}
	for _, run := range runs {
		if !run.Succeeded() {
			out.Failed++
		}
	}
	return out
}

func ToRepository(repo *domain.Repository) Repository {
	out := Repository{
		ID:                repo.ID,
		Name:              repo.Name,
		Owner:             repo.OwnerID,
		OwnerEmail:        repo.OwnerEmail,
		Members:           repo.Members,
		Requests:          make([]AccessRequest, 0, len(repo.Requests)),
		SRSHistory:        ToHistory(repo.HistoryOf(domain.KindSRS)),
		SourceCodeHistory: ToHistory(repo.HistoryOf(domain.KindSourceCode)),
		Comparisons:       make([]ComparisonRecord, 0, len(repo.Comparisons)),
		SRSFile:           repo.SRSFile,
		SourceCodeFile:    repo.SourceCodeFile,
		LastCompared:      repo.LastCompared,
		ComparisonStatus:  string(repo.ComparisonStatus),
		TotalActivity:     repo.TotalActivity(),
		CreatedAt:         repo.CreatedAt,
		UpdatedAt:         repo.UpdatedAt,
	}
	if out.Members == nil {
		out.Members = []string{}
	}
	for _, r := range repo.Requests {
		out.Requests = append(out.Requests, ToAccessRequest(r))
	}
	for _, c := range repo.Comparisons {
		out.Comparisons = append(out.Comparisons, ToComparison(c))
	}
	return out
}

func ToRepositories(repos []domain.Repository) []Repository {
	out := make([]Repository, 0, len(repos))
	for i := range repos {
		out = append(out, ToRepository(&repos[i]))
	}
	return out
}

func ToAccessRequest(r domain.AccessRequest) AccessRequest {
	return AccessRequest{
		ID:          r.ID,
		UserID:      r.UserID,
		Email:       r.Email,
		Status:      string(r.Status),
		RequestedAt: r.RequestedAt,
		ProcessedAt: r.ProcessedAt,
	}
}

func ToAccessRequests(reqs []domain.AccessRequest) []AccessRequest {
	out := make([]AccessRequest, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, ToAccessRequest(r))
	}
	return out
}

func ToHistoryEntry(e domain.HistoryEntry) HistoryEntry {
	return HistoryEntry{
		ID:             e.ID,
		Seq:            e.Seq,
		Kind:           string(e.Kind),
		UserID:         e.UserID,
		Action:         string(e.Action),
		Artifact:       e.Artifact,
		Timestamp:      e.Timestamp,
		Metadata:       e.Metadata,
		AnalysisStatus: string(e.AnalysisStatus),
		FailureReason:  e.FailureReason,
	}
}

func ToHistory(entries []domain.HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, ToHistoryEntry(e))
	}
	return out
}

func ToComparison(c domain.ComparisonRecord) ComparisonRecord {
	return ComparisonRecord{
		ID:          c.ID,
		UserID:      c.UserID,
		Timestamp:   c.Timestamp,
		ResultsPath: c.ResultsPath,
		Stats:       c.Stats,
	}
}

func ToComparisons(records []domain.ComparisonRecord) []ComparisonRecord {
	out := make([]ComparisonRecord, 0, len(records))
	for _, c := range records {
		out = append(out, ToComparison(c))
	}
	return out
}
