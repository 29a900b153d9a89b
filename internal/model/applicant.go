package model

import "time"

// ApplicationStatus is the review state of an applicant.  The stored
// values contain spaces because the admin dashboard displays them as-is.
type ApplicationStatus string

const (
	StatusNotViewed ApplicationStatus = "not viewed"
	StatusInReview  ApplicationStatus = "in review"
	StatusAccepted  ApplicationStatus = "accepted"
	StatusRejected  ApplicationStatus = "rejected"
)

// Statuses lists every valid status in workflow order.
var Statuses = []ApplicationStatus{StatusNotViewed, StatusInReview, StatusAccepted, StatusRejected}

// Valid reports whether s is one of the four workflow states.
func (s ApplicationStatus) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// DualRelationship is the tri-state answer to the dual-relationship question.
type DualRelationship string

const (
	DualRelationshipNo     DualRelationship = "no"
	DualRelationshipYes    DualRelationship = "yes"
	DualRelationshipUnsure DualRelationship = "unsure"
)

// Applicant represents one submitted job application as stored in the
// `Applicant` table.  Optional free-text answers are pointers so that
// NULL survives a round trip.
//
// Fields:
//  ID                 – primary key identifier.
//  Email              – unique, lower-cased contact email.
//  USCitizen          – citizenship eligibility flag.
//  FelonyConviction   – felony flag; FelonyExplanation is only kept when true.
//  DualRelationships  – no/yes/unsure; the explanation is dropped for "no".
//  Populations        – populations of interest, stored JSON-encoded.
//  ResumePath         – public path of the uploaded PDF.
//  Status             – review workflow state.
//  AssignedEmployeeID – reviewer (User.id), nullable.
//  References         – populated only by detail queries.
//  Locations          – populated only by detail queries.
type Applicant struct {
	ID                            uint64            `json:"id"`                               // Applicant.id
	Email                         string            `json:"email"`                            // Applicant.email
	Name                          string            `json:"name"`                             // Applicant.name
	Address                       string            `json:"address"`                          // Applicant.address
	City                          string            `json:"city"`                             // Applicant.city
	State                         string            `json:"state"`                            // Applicant.state
	Zip                           string            `json:"zip"`                              // Applicant.zip
	Phone                         string            `json:"phone"`                            // Applicant.phone
	USCitizen                     bool              `json:"us_citizen"`                       // Applicant.us_citizen
	FelonyConviction              bool              `json:"felony_conviction"`                // Applicant.felony_conviction
	FelonyExplanation             *string           `json:"felony_explanation"`               // Applicant.felony_explanation (nullable)
	DualRelationships             DualRelationship  `json:"dual_relationships"`               // Applicant.dual_relationships
	DualRelationshipsExplanation  *string           `json:"dual_relationships_explanation"`   // Applicant.dual_relationships_explanation (nullable)
	Interests                     string            `json:"interests"`                        // Applicant.interests
	WhyJoshuaCenter               string            `json:"why_joshua_center"`                // Applicant.why_joshua_center
	EthicalFrameworkThoughts      string            `json:"ethical_framework_thoughts"`       // Applicant.ethical_framework_thoughts
	Populations                   []string          `json:"populations"`                      // Applicant.populations (JSON)
	Education                     string            `json:"education"`                        // Applicant.education
	PreviousEmployer              string            `json:"previous_employer"`                // Applicant.previous_employer
	PreviousEmployerAddress       string            `json:"previous_employer_address"`        // Applicant.previous_employer_address
	PreviousEmployerCity          string            `json:"previous_employer_city"`           // Applicant.previous_employer_city
	PreviousEmployerState         string            `json:"previous_employer_state"`          // Applicant.previous_employer_state
	PreviousEmployerZip           string            `json:"previous_employer_zip"`            // Applicant.previous_employer_zip
	PreviousEmployerPhone         string            `json:"previous_employer_phone"`          // Applicant.previous_employer_phone
	PreviousEmployerTitle         string            `json:"previous_employer_title"`          // Applicant.previous_employer_title
	PreviousEmployerLength        string            `json:"previous_employer_length"`         // Applicant.previous_employer_length
	PreviousEmployerReasonLeaving string            `json:"previous_employer_reason_leaving"` // Applicant.previous_employer_reason_leaving
	OtherEmployment               *string           `json:"other_employment"`                 // Applicant.other_employment (nullable)
	Languages                     string            `json:"languages"`                        // Applicant.languages
	Gender                        string            `json:"gender"`                           // Applicant.gender
	RaceEthnicity                 string            `json:"race_ethnicity"`                   // Applicant.race_ethnicity
	ResumePath                    string            `json:"resume_path"`                      // Applicant.resume_path
	Status                        ApplicationStatus `json:"application_status"`               // Applicant.application_status
	AssignedEmployeeID            *uint64           `json:"assigned_employee_id"`             // Applicant.assigned_employee_id (nullable)
	CreatedAt                     time.Time         `json:"created_at"`                       // Applicant.created_at
	References                    []Reference       `json:"references"`
	Locations                     []Location        `json:"locations"`
}

// ApplicantSummary is one row of the admin applicant list.  AssignedTo is
// the reviewer's full name when an employee is assigned.
type ApplicantSummary struct {
	ID                 uint64            `json:"id"`
	Email              string            `json:"email"`
	Name               string            `json:"name"`
	Status             ApplicationStatus `json:"application_status"`
	AssignedEmployeeID *uint64           `json:"assigned_employee_id"`
	AssignedTo         *string           `json:"assigned_to"`
}

// EmailMatch is what the public email check reveals about an existing
// application.
type EmailMatch struct {
	ID     uint64            `json:"id"`
	Name   string            `json:"name"`
	Status ApplicationStatus `json:"status"`
}
