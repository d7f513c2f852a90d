package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/just-nibble/srs-tracker/pkg/errcodes"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Decision is the owner's verdict on a pending request.
type Decision string

const (
	DecisionApprove Decision = "approved"
	DecisionReject  Decision = "rejected"
)

func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

type AccessRequest struct {
	ID          string
	UserID      string
	Email       string
	Status      RequestStatus
	RequestedAt time.Time
	ProcessedAt *time.Time
}

// RequestAccess opens a pending request for userID. A user whose earlier
// request was rejected may ask again; that creates a new request.
func (r *Repository) RequestAccess(userID, email string, now time.Time) (AccessRequest, error) {
	if userID == "" {
		return AccessRequest{}, errcodes.ErrInvalidUserID
	}
	if r.IsMember(userID) {
		return AccessRequest{}, errcodes.ErrAlreadyMember
	}
	for _, req := range r.Requests {
		if req.UserID == userID && req.Status == RequestPending {
			return AccessRequest{}, errcodes.ErrDuplicatePending
		}
	}

	req := AccessRequest{
		ID:          uuid.NewString(),
		UserID:      userID,
		Email:       email,
		Status:      RequestPending,
		RequestedAt: now,
	}
	r.Requests = append(r.Requests, req)
	r.UpdatedAt = now
	return req, nil
}

// Decide moves a pending request to approved or rejected. Only the owner
// may decide; approval adds the requester to the member set.
func (r *Repository) Decide(requestID string, decision Decision, actingUser string, now time.Time) (AccessRequest, error) {
	if !r.IsOwner(actingUser) {
		return AccessRequest{}, errcodes.ErrNotOwner
	}
	if !decision.Valid() {
		return AccessRequest{}, errcodes.ErrInvalidDecision
	}

	for i := range r.Requests {
		req := &r.Requests[i]
		if req.ID != requestID {
			continue
		}
		if req.Status != RequestPending {
			return AccessRequest{}, errcodes.ErrAlreadyProcessed
		}

		processed := now
		req.ProcessedAt = &processed
		req.Status = RequestStatus(decision)
		if decision == DecisionApprove {
			r.addMember(req.UserID)
		}
		r.UpdatedAt = now
		return *req, nil
	}
	return AccessRequest{}, errcodes.ErrRequestNotFound
}

// PendingRequests lists requests still awaiting a decision.
func (r *Repository) PendingRequests() []AccessRequest {
	var out []AccessRequest
	for _, req := range r.Requests {
		if req.Status == RequestPending {
			out = append(out, req)
		}
	}
	return out
}
