// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names.  The routing key on the default exchange equals the name.
const (
	ApplicantSubmittedQueue     = "applicant.submitted"
	ApplicantStatusChangedQueue = "applicant.status_changed"
)

// ApplicationSubmittedEvent is published once a submission has committed.
// It contains enough information for downstream consumers to log or notify
// without querying the primary database.
type ApplicationSubmittedEvent struct {
	ApplicantID    uint64   `json:"applicant_id"`
	Email          string   `json:"email"`
	Name           string   `json:"name"`
	ReferenceCount int      `json:"reference_count"`
	LocationIDs    []uint64 `json:"location_ids"`
	SubmittedAt    string   `json:"submitted_at"`
}

// ApplicantStatusChangedEvent is published after an admin changes the
// review status or reviewer of an applicant.
type ApplicantStatusChangedEvent struct {
	ApplicantID        uint64  `json:"applicant_id"`
	Status             string  `json:"status"`
	AssignedEmployeeID *uint64 `json:"assigned_employee_id"`
	ChangedAt          string  `json:"changed_at"`
}
