package model

// ReferenceType classifies who is vouching for an applicant.
type ReferenceType string

const (
	ReferenceProfessional ReferenceType = "professional"
	ReferenceCharacter    ReferenceType = "character"
	ReferenceAcademic     ReferenceType = "academic"
	ReferenceOther        ReferenceType = "other"
)

// ReferenceTypes lists every accepted reference type.
var ReferenceTypes = []ReferenceType{ReferenceProfessional, ReferenceCharacter, ReferenceAcademic, ReferenceOther}

// RequiredReferenceTypes must each appear at least once in a submission.
var RequiredReferenceTypes = []ReferenceType{ReferenceProfessional, ReferenceCharacter, ReferenceAcademic}

// Valid reports whether t is a known reference type.
func (t ReferenceType) Valid() bool {
	for _, v := range ReferenceTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Reference mirrors a row of the `Reference` table.  References are
// written together with their applicant and never edited afterwards.
type Reference struct {
	ID           uint64        `json:"id"`           // Reference.id
	ApplicantID  uint64        `json:"applicant_id"` // Reference.applicant_id
	Name         string        `json:"name"`         // Reference.name
	Relationship string        `json:"relationship"` // Reference.relationship
	Phone        string        `json:"phone"`        // Reference.phone
	Email        string        `json:"email"`        // Reference.email
	Type         ReferenceType `json:"type"`         // Reference.type
}
