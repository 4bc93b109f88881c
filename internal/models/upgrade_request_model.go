package models

import "time"

// RequestStatus is the adjudication state of an upgrade request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// UpgradeRequest is a user's claim of a manual payment awaiting admin review.
type UpgradeRequest struct {
	ID            string        `json:"id" firestore:"-"`
	UserID        string        `json:"userId" firestore:"userId"`
	UserEmail     string        `json:"userEmail" firestore:"userEmail"`
	NameOnPayment string        `json:"nameOnPayment" firestore:"nameOnPayment"`
	UTRNumber     string        `json:"utrNumber" firestore:"utrNumber"`
	Status        RequestStatus `json:"status" firestore:"status"`
	SubmittedAt   time.Time     `json:"submittedAt" firestore:"submittedAt"`
	ApprovedAt    *time.Time    `json:"approvedAt,omitempty" firestore:"approvedAt,omitempty"`
	RejectedAt    *time.Time    `json:"rejectedAt,omitempty" firestore:"rejectedAt,omitempty"`
}

// DecidedAt returns when the request left pending, or the zero time.
func (r *UpgradeRequest) DecidedAt() time.Time {
	switch {
	case r.ApprovedAt != nil:
		return *r.ApprovedAt
	case r.RejectedAt != nil:
		return *r.RejectedAt
	}
	return time.Time{}
}

// RequestPatch records a request leaving pending.
type RequestPatch struct {
	Status     RequestStatus
	ApprovedAt *time.Time
	RejectedAt *time.Time
}

// Apply returns a copy of r with the patch applied.
func (p RequestPatch) Apply(r UpgradeRequest) UpgradeRequest {
	r.Status = p.Status
	if p.ApprovedAt != nil {
		r.ApprovedAt = p.ApprovedAt
	}
	if p.RejectedAt != nil {
		r.RejectedAt = p.RejectedAt
	}
	return r
}
