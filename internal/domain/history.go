package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/just-nibble/srs-tracker/pkg/errcodes"
)

// ArtifactKind distinguishes the two uploadable artifacts.
type ArtifactKind string

const (
	KindSRS        ArtifactKind = "srs"
	KindSourceCode ArtifactKind = "source_code"
)

// ParseArtifactKind accepts the wire names used by clients ("srs",
// "sourceCode") as well as the stored names.
func ParseArtifactKind(s string) (ArtifactKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "srs":
		return KindSRS, nil
	case "sourcecode", "source_code":
		return KindSourceCode, nil
	}
	return "", errcodes.ErrInvalidArtifactKind
}

type HistoryAction string

const (
	ActionUploaded           HistoryAction = "Uploaded"
	ActionModified           HistoryAction = "Modified"
	ActionDeleted            HistoryAction = "Deleted"
	ActionAnalyzed           HistoryAction = "Analyzed"
	ActionUploadedFromGitHub HistoryAction = "UploadedFromGitHub"
)

// Allowed reports whether action is valid for entries of kind. GitHub
// imports only exist for source code.
func (a HistoryAction) Allowed(kind ArtifactKind) bool {
	switch a {
	case ActionUploaded, ActionModified, ActionDeleted, ActionAnalyzed:
		return true
	case ActionUploadedFromGitHub:
		return kind == KindSourceCode
	}
	return false
}

type AnalysisStatus string

const (
	AnalysisPending   AnalysisStatus = "pending"
	AnalysisSucceeded AnalysisStatus = "succeeded"
	AnalysisFailed    AnalysisStatus = "failed"
)

// HistoryMetadata is what a successful analysis learned about the artifact.
type HistoryMetadata struct {
	FilesAnalyzed         int       `json:"filesAnalyzed,omitempty"`
	FunctionsFound        int       `json:"functionsFound,omitempty"`
	ExtractedRequirements int       `json:"extractedRequirements,omitempty"`
	AnalyzedAt            time.Time `json:"analyzedAt"`
	OutputPath            string    `json:"outputPath,omitempty"`
}

type HistoryEntry struct {
	ID             string
	Seq            int64
	Kind           ArtifactKind
	UserID         string
	Action         HistoryAction
	Artifact       string
	Timestamp      time.Time
	Metadata       *HistoryMetadata
	AnalysisStatus AnalysisStatus
	FailureReason  string
}

func (r *Repository) historyOf(kind ArtifactKind) *[]HistoryEntry {
	switch kind {
	case KindSRS:
		return &r.SRSHistory
	case KindSourceCode:
		return &r.SourceHistory
	}
	return nil
}

func (r *Repository) nextSeq() int64 {
	var max int64
	for _, e := range r.SRSHistory {
		if e.Seq > max {
			max = e.Seq
		}
	}
	for _, e := range r.SourceHistory {
		if e.Seq > max {
			max = e.Seq
		}
	}
	return max + 1
}

// AppendHistory adds entry to the ledger of its kind, assigning its ID and
// sequence number. The returned entry carries the assigned identity.
func (r *Repository) AppendHistory(entry HistoryEntry) (HistoryEntry, error) {
	list := r.historyOf(entry.Kind)
	if list == nil {
		return HistoryEntry{}, errcodes.ErrInvalidArtifactKind
	}
	if !entry.Action.Allowed(entry.Kind) {
		if entry.Action == ActionUploadedFromGitHub {
			return HistoryEntry{}, errcodes.ErrGitHubOnlySourceCode
		}
		return HistoryEntry{}, errcodes.ErrInvalidHistoryAction
	}

	entry.ID = uuid.NewString()
	entry.Seq = r.nextSeq()
	if entry.AnalysisStatus == "" {
		entry.AnalysisStatus = AnalysisPending
	}
	*list = append(*list, entry)
	if entry.Timestamp.After(r.UpdatedAt) {
		r.UpdatedAt = entry.Timestamp
	}
	return entry, nil
}

// LatestHistory returns the entry of kind with the highest sequence number.
func (r *Repository) LatestHistory(kind ArtifactKind) (HistoryEntry, bool) {
	list := r.historyOf(kind)
	if list == nil || len(*list) == 0 {
		return HistoryEntry{}, false
	}
	latest := (*list)[0]
	for _, e := range (*list)[1:] {
		if e.Seq > latest.Seq {
			latest = e
		}
	}
	return latest, true
}

// LatestAnalyzed returns the newest entry of kind whose analysis succeeded.
func (r *Repository) LatestAnalyzed(kind ArtifactKind) (HistoryEntry, bool) {
	var (
		found  bool
		latest HistoryEntry
	)
	for _, e := range r.HistoryOf(kind) {
		if e.AnalysisStatus == AnalysisSucceeded && e.Metadata != nil {
			latest, found = e, true
		}
	}
	return latest, found
}

// HistoryOf returns the entries of kind in insertion order.
func (r *Repository) HistoryOf(kind ArtifactKind) []HistoryEntry {
	list := r.historyOf(kind)
	if list == nil {
		return nil
	}
	return sortedBySeq(*list)
}

// History returns every entry of both kinds in insertion order.
func (r *Repository) History() []HistoryEntry {
	all := make([]HistoryEntry, 0, len(r.SRSHistory)+len(r.SourceHistory))
	all = append(all, r.SRSHistory...)
	all = append(all, r.SourceHistory...)
	return sortedBySeq(all)
}

// Entry finds a history entry by id.
func (r *Repository) Entry(entryID string) (HistoryEntry, bool) {
	if e := r.entry(entryID); e != nil {
		return *e, true
	}
	return HistoryEntry{}, false
}

func (r *Repository) entry(entryID string) *HistoryEntry {
	for i := range r.SRSHistory {
		if r.SRSHistory[i].ID == entryID {
			return &r.SRSHistory[i]
		}
	}
	for i := range r.SourceHistory {
		if r.SourceHistory[i].ID == entryID {
			return &r.SourceHistory[i]
		}
	}
	return nil
}

// AttachMetadata records a successful analysis on the entry with entryID.
// This is the only mutation of an existing entry.
func (r *Repository) AttachMetadata(entryID string, md HistoryMetadata) error {
	e := r.entry(entryID)
	if e == nil {
		return errcodes.ErrHistoryEntryNotFound
	}
	e.Metadata = &md
	e.AnalysisStatus = AnalysisSucceeded
	e.FailureReason = ""
	return nil
}

// MarkAnalysisFailed records why analysis of entryID failed. Metadata is
// left untouched.
func (r *Repository) MarkAnalysisFailed(entryID, reason string) error {
	e := r.entry(entryID)
	if e == nil {
		return errcodes.ErrHistoryEntryNotFound
	}
	e.AnalysisStatus = AnalysisFailed
	e.FailureReason = reason
	return nil
}

func sortedBySeq(in []HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}
