package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/just-nibble/srs-tracker/pkg/errcodes"
	"github.com/just-nibble/srs-tracker/pkg/validator"
)

type ComparisonStatus string

const (
	ComparisonPending   ComparisonStatus = "pending"
	ComparisonCompleted ComparisonStatus = "completed"
	ComparisonFailed    ComparisonStatus = "failed"
)

// Repository is the aggregate root. Members, requests, history and
// comparisons are owned by it and change only through its methods.
type Repository struct {
	ID               string
	Name             string
	OwnerID          string
	OwnerEmail       string
	Members          []string
	Requests         []AccessRequest
	SRSHistory       []HistoryEntry
	SourceHistory    []HistoryEntry
	Comparisons      []ComparisonRecord
	SRSFile          string
	SourceCodeFile   string
	LastCompared     *time.Time
	ComparisonStatus ComparisonStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewRepository builds a repository owned (and joined) by ownerID.
func NewRepository(name, ownerID, ownerEmail string, now time.Time) (*Repository, error) {
	name = strings.TrimSpace(name)
	if !validator.IsRepositoryName(name) {
		return nil, errcodes.ErrInvalidRepositoryName
	}
	if ownerID == "" {
		return nil, errcodes.ErrInvalidUserID
	}

	return &Repository{
		ID:               uuid.NewString(),
		Name:             name,
		OwnerID:          ownerID,
		OwnerEmail:       ownerEmail,
		Members:          []string{ownerID},
		ComparisonStatus: ComparisonPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func (r *Repository) IsOwner(userID string) bool {
	return userID != "" && r.OwnerID == userID
}

// IsMember reports membership. The owner is always a member even if the
// stored set was loaded without it.
func (r *Repository) IsMember(userID string) bool {
	if r.IsOwner(userID) {
		return true
	}
	for _, m := range r.Members {
		if m == userID {
			return true
		}
	}
	return false
}

func (r *Repository) addMember(userID string) {
	if containsString(r.Members, userID) {
		return
	}
	r.Members = append(r.Members, userID)
}

// EnsureOwnerMember restores the owner in the member set.
func (r *Repository) EnsureOwnerMember() {
	if !containsString(r.Members, r.OwnerID) {
		r.Members = append([]string{r.OwnerID}, r.Members...)
	}
}

// TotalActivity is the number of recorded uploads and comparisons.
func (r *Repository) TotalActivity() int {
	return len(r.SRSHistory) + len(r.SourceHistory) + len(r.Comparisons)
}

// SetLatestArtifact points the repository at the most recently stored
// artifact of kind.
func (r *Repository) SetLatestArtifact(kind ArtifactKind, path string) {
	switch kind {
	case KindSRS:
		r.SRSFile = path
	case KindSourceCode:
		r.SourceCodeFile = path
	}
}

// AppendComparison records a finished comparison. Records are immutable
// once appended.
func (r *Repository) AppendComparison(rec ComparisonRecord) ComparisonRecord {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	r.Comparisons = append(r.Comparisons, rec)

	ts := rec.Timestamp
	r.LastCompared = &ts
	r.ComparisonStatus = ComparisonCompleted
	return rec
}

// MarkComparisonFailed records that the latest comparison attempt failed
// without producing a record.
func (r *Repository) MarkComparisonFailed() {
	r.ComparisonStatus = ComparisonFailed
}

// ComparisonsNewestFirst returns a copy of the comparison records, most
// recent first.
func (r *Repository) ComparisonsNewestFirst() []ComparisonRecord {
	out := make([]ComparisonRecord, 0, len(r.Comparisons))
	for i := len(r.Comparisons) - 1; i >= 0; i-- {
		out = append(out, r.Comparisons[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
