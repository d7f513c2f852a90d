package repository

import (
	"time"

	"github.com/just-nibble/srs-tracker/internal/domain"
)

// Repository is the gorm row of a repository aggregate. Children are saved
// with it in one transaction.
type Repository struct {
	ID               string `gorm:"primaryKey;size:36"`
	Name             string `gorm:"uniqueIndex;size:100;not null"`
	OwnerID          string `gorm:"index;not null"`
	OwnerEmail       string
	SRSFile          string
	SourceCodeFile   string
	LastCompared     *time.Time
	ComparisonStatus string `gorm:"size:16;default:pending"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Members     []Member           `gorm:"foreignKey:RepositoryID;constraint:OnDelete:CASCADE"`
	Requests    []AccessRequest    `gorm:"foreignKey:RepositoryID;constraint:OnDelete:CASCADE"`
	History     []HistoryEntry     `gorm:"foreignKey:RepositoryID;constraint:OnDelete:CASCADE"`
	Comparisons []ComparisonRecord `gorm:"foreignKey:RepositoryID;constraint:OnDelete:CASCADE"`
}

type Member struct {
	RepositoryID string `gorm:"primaryKey;size:36"`
	UserID       string `gorm:"primaryKey"`
	Position     int
}

type AccessRequest struct {
	ID           string `gorm:"primaryKey;size:36"`
	RepositoryID string `gorm:"index;size:36;not null"`
	UserID       string `gorm:"index;not null"`
	Email        string
	Status       string `gorm:"size:16;not null"`
	RequestedAt  time.Time
	ProcessedAt  *time.Time
	Position     int
}

type HistoryEntry struct {
	ID             string                  `gorm:"primaryKey;size:36"`
	RepositoryID   string                  `gorm:"size:36;not null;uniqueIndex:idx_history_repo_seq"`
	Seq            int64                   `gorm:"not null;uniqueIndex:idx_history_repo_seq"`
	Kind           string                  `gorm:"size:16;index;not null"`
	UserID         string                  `gorm:"index"`
	Action         string                  `gorm:"size:32"`
	Artifact       string
	Timestamp      time.Time
	Metadata       *domain.HistoryMetadata `gorm:"serializer:json"`
	AnalysisStatus string                  `gorm:"size:16"`
	FailureReason  string
}

type ComparisonRecord struct {
	ID                string `gorm:"primaryKey;size:36"`
	RepositoryID      string `gorm:"index;size:36;not null"`
	UserID            string
	Timestamp         time.Time
	ResultsPath       string
	TotalRequirements int
	Implemented       int
	Missing           int
	Undocumented      int
	Coverage          float64
	Position          int
}

// Models lists every table for AutoMigrate.
func Models() []interface{} {
	return []interface{}{&Repository{}, &Member{}, &AccessRequest{}, &HistoryEntry{}, &ComparisonRecord{}}
}

func (r *Repository) ToDomain() *domain.Repository {
	repo := &domain.Repository{
		ID:               r.ID,
		Name:             r.Name,
		OwnerID:          r.OwnerID,
		OwnerEmail:       r.OwnerEmail,
		SRSFile:          r.SRSFile,
		SourceCodeFile:   r.SourceCodeFile,
		LastCompared:     r.LastCompared,
		ComparisonStatus: domain.ComparisonStatus(r.ComparisonStatus),
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
		Members:          make([]string, 0, len(r.Members)),
	}

	for _, m := range r.Members {
		repo.Members = append(repo.Members, m.UserID)
	}
	for _, req := range r.Requests {
		repo.Requests = append(repo.Requests, domain.AccessRequest{
			ID:          req.ID,
			UserID:      req.UserID,
			Email:       req.Email,
			Status:      domain.RequestStatus(req.Status),
			RequestedAt: req.RequestedAt,
			ProcessedAt: req.ProcessedAt,
		})
	}
	for _, h := range r.History {
		entry := h.ToDomain()
		if entry.Kind == domain.KindSRS {
			repo.SRSHistory = append(repo.SRSHistory, entry)
		} else {
			repo.SourceHistory = append(repo.SourceHistory, entry)
		}
	}
	for _, c := range r.Comparisons {
		repo.Comparisons = append(repo.Comparisons, c.ToDomain())
	}
	return repo
}

func (h HistoryEntry) ToDomain() domain.HistoryEntry {
	return domain.HistoryEntry{
		ID:             h.ID,
		Seq:            h.Seq,
		Kind:           domain.ArtifactKind(h.Kind),
		UserID:         h.UserID,
		Action:         domain.HistoryAction(h.Action),
		Artifact:       h.Artifact,
		Timestamp:      h.Timestamp,
		Metadata:       h.Metadata,
		AnalysisStatus: domain.AnalysisStatus(h.AnalysisStatus),
		FailureReason:  h.FailureReason,
	}
}

func (c ComparisonRecord) ToDomain() domain.ComparisonRecord {
	return domain.ComparisonRecord{
		ID:          c.ID,
		UserID:      c.UserID,
		Timestamp:   c.Timestamp,
		ResultsPath: c.ResultsPath,
		Stats: domain.ComparisonStats{
			TotalRequirements: c.TotalRequirements,
			Implemented:       c.Implemented,
			Missing:           c.Missing,
			Undocumented:      c.Undocumented,
			Coverage:          c.Coverage,
		},
	}
}

func ToGormRepository(repo *domain.Repository) *Repository {
	row := &Repository{
		ID:               repo.ID,
		Name:             repo.Name,
		OwnerID:          repo.OwnerID,
		OwnerEmail:       repo.OwnerEmail,
		SRSFile:          repo.SRSFile,
		SourceCodeFile:   repo.SourceCodeFile,
		LastCompared:     repo.LastCompared,
		ComparisonStatus: string(repo.ComparisonStatus),
		CreatedAt:        repo.CreatedAt,
		UpdatedAt:        repo.UpdatedAt,
	}

	for i, m := range repo.Members {
		row.Members = append(row.Members, Member{RepositoryID: repo.ID, UserID: m, Position: i})
	}
	for i, req := range repo.Requests {
		row.Requests = append(row.Requests, AccessRequest{
			ID:           req.ID,
			RepositoryID: repo.ID,
			UserID:       req.UserID,
			Email:        req.Email,
			Status:       string(req.Status),
			RequestedAt:  req.RequestedAt,
			ProcessedAt:  req.ProcessedAt,
			Position:     i,
		})
	}
	for _, h := range repo.History() {
		row.History = append(row.History, HistoryEntry{
			ID:             h.ID,
			RepositoryID:   repo.ID,
			Seq:            h.Seq,
			Kind:           string(h.Kind),
			UserID:         h.UserID,
			Action:         string(h.Action),
			Artifact:       h.Artifact,
			Timestamp:      h.Timestamp,
			Metadata:       h.Metadata,
			AnalysisStatus: string(h.AnalysisStatus),
			FailureReason:  h.FailureReason,
		})
	}
	for i, c := range repo.Comparisons {
		row.Comparisons = append(row.Comparisons, ComparisonRecord{
			ID:                c.ID,
			RepositoryID:      repo.ID,
			UserID:            c.UserID,
			Timestamp:         c.Timestamp,
			ResultsPath:       c.ResultsPath,
			TotalRequirements: c.Stats.TotalRequirements,
			Implemented:       c.Stats.Implemented,
			Missing:           c.Stats.Missing,
			Undocumented:      c.Stats.Undocumented,
			Coverage:          c.Stats.Coverage,
			Position:          i,
		})
	}
	return row
}
