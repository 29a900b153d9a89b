package intake

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/joshuacenter/applicant-intake/internal/apperr"
	"github.com/joshuacenter/applicant-intake/internal/model"
)

// MinReferences is the number of references every application must carry.
const MinReferences = 3

// maxTextBytes is the capacity of a MySQL TEXT column.  The limit is in
// bytes, so multi-byte input reaches it before the rune count does.
const maxTextBytes = 65535

var (
	ErrMalformedData    = apperr.Validation("application data is missing or is not valid JSON")
	ErrResumeCount      = apperr.Validation("exactly one resume must be attached")
	ErrResumeExtension  = apperr.Validation("resume must be a .pdf file")
	ErrResumeType       = apperr.Validation("resume must be uploaded as application/pdf")
	ErrResumeTooLarge   = apperr.Validation("resume exceeds the maximum allowed size")
	ErrTooFewReferences = apperr.Validation("at least three references are required")
	ErrNoLocations      = apperr.Validation("at least one location must be selected")
	ErrReferenceTypes   = apperr.Validation("references must include a professional, a character and an academic reference")
	ErrEmailNotVerified = apperr.Verification("the application email has not been verified")
)

// Validator runs the pre-write checks on a submission.  It has no side
// effects and is safe for concurrent use.
type Validator struct {
	validate             *validator.Validate
	maxResumeBytes       int64
	requireVerifiedEmail bool
}

// NewValidator returns a Validator.  When requireVerifiedEmail is set a
// submission is only accepted if its email matches RawSubmission.VerifiedEmail.
func NewValidator(maxResumeBytes int64, requireVerifiedEmail bool) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their wire names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// maxbytes bounds len(s) rather than the rune count checked by max
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= n
	})
	_ = v.RegisterValidation("reftype", func(fl validator.FieldLevel) bool {
		return model.ReferenceType(fl.Field().String()).Valid()
	})
	return &Validator{validate: v, maxResumeBytes: maxResumeBytes, requireVerifiedEmail: requireVerifiedEmail}
}

// Validate parses and checks raw.  Checks run in a fixed order and stop at
// the first failure, so the caller always learns the earliest violated
// precondition.  On success the normalized submission and the single
// resume are returned.
func (v *Validator) Validate(raw RawSubmission) (*Submission, *Document, error) {
	sub, err := v.parse(raw.Data)
	if err != nil {
		return nil, nil, err
	}
	doc, err := v.checkDocuments(raw.Documents)
	if err != nil {
		return nil, nil, err
	}
	if len(sub.References) < MinReferences {
		return nil, nil, ErrTooFewReferences
	}
	if len(sub.Locations) == 0 {
		return nil, nil, ErrNoLocations
	}

	normalize(sub)
	if err := v.validate.Struct(sub); err != nil {
		return nil, nil, fieldError(err)
	}
	if !coversRequiredTypes(sub.References) {
		return nil, nil, ErrReferenceTypes
	}
	if v.requireVerifiedEmail && !strings.EqualFold(strings.TrimSpace(raw.VerifiedEmail), sub.Email) {
		return nil, nil, ErrEmailNotVerified
	}
	return sub, doc, nil
}

func (v *Validator) parse(data string) (*Submission, error) {
	if strings.TrimSpace(data) == "" {
		return nil, ErrMalformedData
	}
	var sub Submission
	if err := json.Unmarshal([]byte(data), &sub); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, ErrMalformedData.Message, errors.Join(ErrMalformedData, err))
	}
	return &sub, nil
}

func (v *Validator) checkDocuments(docs []Document) (*Document, error) {
	if len(docs) != 1 {
		return nil, ErrResumeCount
	}
	d := docs[0]
	if !strings.EqualFold(filepath.Ext(d.Filename), ".pdf") {
		return nil, ErrResumeExtension
	}
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(d.ContentType, ";", 2)[0]))
	switch ct {
	case "", "application/pdf", "application/octet-stream":
	default:
		return nil, ErrResumeType
	}
	if d.Size > v.maxResumeBytes {
		return nil, ErrResumeTooLarge
	}
	return &d, nil
}

// normalize trims the identifying fields, lower-cases emails and drops
// repeated location ids while keeping the first occurrence.
func normalize(s *Submission) {
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	s.Name = strings.TrimSpace(s.Name)
	s.Phone = strings.TrimSpace(s.Phone)
	s.DualRelationships = strings.ToLower(strings.TrimSpace(s.DualRelationships))
	for i := range s.References {
		r := &s.References[i]
		r.Name = strings.TrimSpace(r.Name)
		r.Email = strings.ToLower(strings.TrimSpace(r.Email))
		r.Type = strings.ToLower(strings.TrimSpace(r.Type))
	}

	seen := make(map[uint64]bool, len(s.Locations))
	locs := s.Locations[:0]
	for _, id := range s.Locations {
		if !seen[id] {
			seen[id] = true
			locs = append(locs, id)
		}
	}
	s.Locations = locs
}

func coversRequiredTypes(refs []ReferenceInput) bool {
	have := make(map[model.ReferenceType]bool, len(refs))
	for _, r := range refs {
		have[model.ReferenceType(r.Type)] = true
	}
	for _, t := range model.RequiredReferenceTypes {
		if !have[t] {
			return false
		}
	}
	return true
}

func referenceTypeList() string {
	names := make([]string, len(model.ReferenceTypes))
	for i, t := range model.ReferenceTypes {
		names[i] = string(t)
	}
	return strings.Join(names, " ")
}

// fieldError turns the first validator failure into a client message
// such as "references[1].type: must be one of professional character
// academic other".
func fieldError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return apperr.Wrap(apperr.KindValidation, "application data is invalid", err)
	}
	fe := ve[0]
	field := strings.TrimPrefix(fe.Namespace(), "Submission.")
	var msg string
	switch fe.Tag() {
	case "required":
		msg = "is required"
	case "email":
		msg = "must be a valid email address"
	case "oneof":
		msg = "must be one of " + fe.Param()
	case "max":
		if fe.Kind() == reflect.Slice {
			msg = "must have at most " + fe.Param() + " entries"
		} else {
			msg = "must be at most " + fe.Param() + " characters"
		}
	case "reftype":
		msg = "must be one of " + referenceTypeList()
	case "maxbytes":
		msg = "must be at most " + fe.Param() + " bytes"
	default:
		msg = "is invalid"
	}
	return apperr.Wrap(apperr.KindValidation, fmt.Sprintf("%s: %s", field, msg), err)
}
