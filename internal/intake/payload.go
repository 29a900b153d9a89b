package intake

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/joshuacenter/applicant-intake/internal/model"
)

// Submission is the `data` part of the multipart form posted by the
// application wizard.  Unknown keys are ignored.
type Submission struct {
	Email                         string           `json:"email" validate:"required,email,max=191"`
	Name                          string           `json:"name" validate:"required,max=255"`
	Address                       string           `json:"address" validate:"max=255"`
	City                          string           `json:"city" validate:"max=100"`
	State                         string           `json:"state" validate:"max=100"`
	Zip                           string           `json:"zip" validate:"max=20"`
	Phone                         string           `json:"phone" validate:"required,max=50"`
	USCitizen                     Flag             `json:"usCitizen"`
	FelonyConviction              Flag             `json:"felonyConviction"`
	FelonyExplanation             string           `json:"felonyExplanation" validate:"maxbytes=65535"`
	DualRelationships             string           `json:"dualRelationships" validate:"required,oneof=no yes unsure"`
	DualRelationshipsExplanation  string           `json:"dualRelationshipsExplanation" validate:"maxbytes=65535"`
	Interests                     string           `json:"interests" validate:"maxbytes=65535"`
	WhyJoshuaCenter               string           `json:"whyJoshuaCenter" validate:"maxbytes=65535"`
	EthicalFrameworkThoughts      string           `json:"ethicalFrameworkThoughts" validate:"maxbytes=65535"`
	Populations                   []string         `json:"populations" validate:"max=50,dive,maxbytes=255"`
	Education                     string           `json:"education" validate:"maxbytes=65535"`
	PreviousEmployer              string           `json:"previousEmployer" validate:"max=255"`
	PreviousEmployerAddress       string           `json:"previousEmployerAddress" validate:"max=255"`
	PreviousEmployerCity          string           `json:"previousEmployerCity" validate:"max=100"`
	PreviousEmployerState         string           `json:"previousEmployerState" validate:"max=100"`
	PreviousEmployerZip           string           `json:"previousEmployerZip" validate:"max=20"`
	PreviousEmployerPhone         string           `json:"previousEmployerPhone" validate:"max=50"`
	PreviousEmployerTitle         string           `json:"previousEmployerTitle" validate:"max=255"`
	PreviousEmployerLength        string           `json:"previousEmployerLength" validate:"max=100"`
	PreviousEmployerReasonLeaving string           `json:"previousEmployerReasonLeaving" validate:"maxbytes=65535"`
	OtherEmployment               string           `json:"otherEmployment" validate:"maxbytes=65535"`
	Languages                     string           `json:"languages" validate:"max=255"`
	Gender                        string           `json:"gender" validate:"max=100"`
	RaceEthnicity                 string           `json:"raceEthnicity" validate:"max=100"`
	References                    []ReferenceInput `json:"references" validate:"dive"`
	Locations                     LocationIDs      `json:"locations"`
}

// ReferenceInput is one entry of Submission.References.
type ReferenceInput struct {
	Name         string `json:"name" validate:"required,max=255"`
	Relationship string `json:"relationship" validate:"max=255"`
	Phone        string `json:"phone" validate:"max=50"`
	Email        string `json:"email" validate:"omitempty,email,max=191"`
	Type         string `json:"type" validate:"required,reftype"`
}

// Document is the uploaded resume as received by the HTTP layer.
type Document struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// RawSubmission is an unparsed submission.  VerifiedEmail is the address
// proven by a verification token, or empty when none was presented.
type RawSubmission struct {
	Data          string
	Documents     []Document
	VerifiedEmail string
}

// Flag accepts the shapes the wizard sends for yes/no questions: JSON
// booleans, "yes"/"no", "true"/"false" and 0/1.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = false
		return nil
	}
	var s string
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		s = string(b)
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1", "on":
		*f = true
	case "false", "no", "0", "off", "":
		*f = false
	default:
		return fmt.Errorf("invalid yes/no value %s", b)
	}
	return nil
}

// LocationIDs accepts location ids as JSON numbers or numeric strings,
// since checkbox values arrive as strings.
type LocationIDs []uint64

func (l *LocationIDs) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	ids := make(LocationIDs, 0, len(raw))
	for _, r := range raw {
		s := strings.Trim(string(bytes.TrimSpace(r)), `"`)
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil || id == 0 {
			return fmt.Errorf("invalid location id %s", r)
		}
		ids = append(ids, id)
	}
	*l = ids
	return nil
}

// applicant converts a validated submission into the stored shape.
// Explanations are only kept when their gating answer calls for one.
func (s *Submission) applicant(resumePath string) *model.Applicant {
	a := &model.Applicant{
		Email:                         s.Email,
		Name:                          s.Name,
		Address:                       s.Address,
		City:                          s.City,
		State:                         s.State,
		Zip:                           s.Zip,
		Phone:                         s.Phone,
		USCitizen:                     bool(s.USCitizen),
		FelonyConviction:              bool(s.FelonyConviction),
		DualRelationships:             model.DualRelationship(s.DualRelationships),
		Interests:                     s.Interests,
		WhyJoshuaCenter:               s.WhyJoshuaCenter,
		EthicalFrameworkThoughts:      s.EthicalFrameworkThoughts,
		Populations:                   s.Populations,
		Education:                     s.Education,
		PreviousEmployer:              s.PreviousEmployer,
		PreviousEmployerAddress:       s.PreviousEmployerAddress,
		PreviousEmployerCity:          s.PreviousEmployerCity,
		PreviousEmployerState:         s.PreviousEmployerState,
		PreviousEmployerZip:           s.PreviousEmployerZip,
		PreviousEmployerPhone:         s.PreviousEmployerPhone,
		PreviousEmployerTitle:         s.PreviousEmployerTitle,
		PreviousEmployerLength:        s.PreviousEmployerLength,
		PreviousEmployerReasonLeaving: s.PreviousEmployerReasonLeaving,
		OtherEmployment:               optional(s.OtherEmployment),
		Languages:                     s.Languages,
		Gender:                        s.Gender,
		RaceEthnicity:                 s.RaceEthnicity,
		ResumePath:                    resumePath,
		Status:                        model.StatusNotViewed,
	}
	if a.Populations == nil {
		a.Populations = []string{}
	}
	if a.FelonyConviction {
		a.FelonyExplanation = optional(s.FelonyExplanation)
	}
	if a.DualRelationships != model.DualRelationshipNo {
		a.DualRelationshipsExplanation = optional(s.DualRelationshipsExplanation)
	}
	return a
}

func (s *Submission) references() []model.Reference {
	out := make([]model.Reference, len(s.References))
	for i, r := range s.References {
		out[i] = model.Reference{
			Name:         r.Name,
			Relationship: r.Relationship,
			Phone:        r.Phone,
			Email:        r.Email,
			Type:         model.ReferenceType(r.Type),
		}
	}
	return out
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
