package intake

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuacenter/applicant-intake/internal/apperr"
	"github.com/joshuacenter/applicant-intake/internal/model"
)

func TestValidateOrder(t *testing.T) {
	v := NewValidator(1024, false)
	pdf := func(name, ct string, size int64) []Document {
		return []Document{{Filename: name, ContentType: ct, Size: size, Content: strings.NewReader(pdfBody)}}
	}

	cases := []struct {
		name string
		raw  RawSubmission
		want error
	}{
		{"empty data", RawSubmission{Data: "", Documents: resume()}, ErrMalformedData},
		{"bad json", RawSubmission{Data: "{", Documents: resume()}, ErrMalformedData},
		{"bad flag", RawSubmission{Data: payload(func(m map[string]any) { m["usCitizen"] = "maybe" }), Documents: resume()}, ErrMalformedData},
		{"bad location id", RawSubmission{Data: payload(func(m map[string]any) { m["locations"] = []any{"north"} }), Documents: resume()}, ErrMalformedData},
		{"no resume", RawSubmission{Data: payload(nil)}, ErrResumeCount},
		{"two resumes", RawSubmission{Data: payload(nil), Documents: append(resume(), resume()...)}, ErrResumeCount},
		{"docx", RawSubmission{Data: payload(nil), Documents: pdf("cv.docx", "application/pdf", 10)}, ErrResumeExtension},
		{"image type", RawSubmission{Data: payload(nil), Documents: pdf("cv.pdf", "image/png", 10)}, ErrResumeType},
		{"too large", RawSubmission{Data: payload(nil), Documents: pdf("cv.pdf", "application/pdf", 2048)}, ErrResumeTooLarge},
		// count checks come before field validation: the payload below is
		// also missing its email
		{"refs before fields", RawSubmission{Data: payload(func(m map[string]any) {
			m["email"] = ""
			m["references"] = []any{}
		}), Documents: resume()}, ErrTooFewReferences},
		{"locations before fields", RawSubmission{Data: payload(func(m map[string]any) {
			m["email"] = ""
			delete(m, "locations")
		}), Documents: resume()}, ErrNoLocations},
		{"types after fields", RawSubmission{Data: payload(func(m map[string]any) {
			m["references"] = []map[string]any{
				{"name": "A", "type": "professional"}, {"name": "B", "type": "professional"}, {"name": "C", "type": "other"},
			}
		}), Documents: resume()}, ErrReferenceTypes},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := v.Validate(tc.raw)
			require.ErrorIs(t, err, tc.want)
			assert.NotEqual(t, apperr.KindStorage, apperr.KindOf(err))
		})
	}
}

func TestValidateFieldMessages(t *testing.T) {
	v := NewValidator(1024, false)

	cases := map[string]struct {
		mut  func(m map[string]any)
		want string
	}{
		"missing email": {func(m map[string]any) { m["email"] = " " }, "email: is required"},
		"bad email":     {func(m map[string]any) { m["email"] = "jane" }, "email: must be a valid email address"},
		"dual enum": {func(m map[string]any) { m["dualRelationships"] = "perhaps" },
			"dualRelationships: must be one of no yes unsure"},
		"ref type": {func(m map[string]any) {
			refs := m["references"].([]map[string]any)
			refs[1]["type"] = "family"
		}, "references[1].type: must be one of professional character academic other"},
		"ref name": {func(m map[string]any) {
			refs := m["references"].([]map[string]any)
			refs[0]["name"] = ""
		}, "references[0].name: is required"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := v.Validate(RawSubmission{Data: payload(tc.mut), Documents: resume()})
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			assert.Equal(t, tc.want, apperr.PublicMessage(err))
		})
	}
}

func TestValidateTextLimitsAreBytes(t *testing.T) {
	v := NewValidator(1024, false)

	cases := map[string]struct {
		mut  func(m map[string]any)
		want string
	}{
		"long essay": {func(m map[string]any) { m["interests"] = strings.Repeat("a", 70000) },
			"interests: must be at most 65535 bytes"},
		// fewer runes than the limit but more bytes
		"multi-byte essay": {func(m map[string]any) { m["whyJoshuaCenter"] = strings.Repeat("é", 40000) },
			"whyJoshuaCenter: must be at most 65535 bytes"},
		"long explanation": {func(m map[string]any) {
			m["felonyConviction"] = true
			m["felonyExplanation"] = strings.Repeat("x", maxTextBytes+1)
		}, "felonyExplanation: must be at most 65535 bytes"},
		"too many populations": {func(m map[string]any) { m["populations"] = make([]string, 51) },
			"populations: must have at most 50 entries"},
		"long population": {func(m map[string]any) { m["populations"] = []string{strings.Repeat("p", 256)} },
			"populations[0]: must be at most 255 bytes"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := v.Validate(RawSubmission{Data: payload(tc.mut), Documents: resume()})
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			assert.Equal(t, tc.want, apperr.PublicMessage(err))
		})
	}

	_, _, err := v.Validate(RawSubmission{Data: payload(func(m map[string]any) {
		m["ethicalFrameworkThoughts"] = strings.Repeat("a", maxTextBytes)
	}), Documents: resume()})
	assert.NoError(t, err, "a value filling the column exactly is accepted")
}

func TestValidateNormalizes(t *testing.T) {
	v := NewValidator(1024, false)

	sub, doc, err := v.Validate(RawSubmission{
		Data: payload(func(m map[string]any) {
			m["email"] = "  Jane@X.COM "
			m["usCitizen"] = "yes"
			m["felonyConviction"] = "no"
			m["felonyExplanation"] = "should be dropped"
			m["dualRelationships"] = "Unsure"
			m["dualRelationshipsExplanation"] = "a cousin works there"
			m["locations"] = []any{"2", 1, 2, "3"}
		}),
		Documents: []Document{{Filename: "CV.PDF", ContentType: "application/octet-stream", Size: 10, Content: strings.NewReader(pdfBody)}},
	})
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Equal(t, "jane@x.com", sub.Email)
	assert.Equal(t, LocationIDs{2, 1, 3}, sub.Locations)

	a := sub.applicant("/uploads/x.pdf")
	assert.True(t, a.USCitizen)
	assert.False(t, a.FelonyConviction)
	assert.Nil(t, a.FelonyExplanation)
	assert.Equal(t, model.DualRelationshipUnsure, a.DualRelationships)
	require.NotNil(t, a.DualRelationshipsExplanation)
	assert.Equal(t, "a cousin works there", *a.DualRelationshipsExplanation)
	assert.Nil(t, a.OtherEmployment)
	assert.Equal(t, model.StatusNotViewed, a.Status)
}

func TestValidateExtraReferenceTypesAllowed(t *testing.T) {
	v := NewValidator(1024, false)

	sub, _, err := v.Validate(RawSubmission{Data: payload(func(m map[string]any) {
		refs := m["references"].([]map[string]any)
		m["references"] = append(refs, map[string]any{"name": "Kim", "type": "other"})
	}), Documents: resume()})
	require.NoError(t, err)
	assert.Len(t, sub.references(), 4)
}

func TestValidateAcceptsEveryReferenceType(t *testing.T) {
	v := NewValidator(1024, false)

	for _, rt := range model.ReferenceTypes {
		t.Run(string(rt), func(t *testing.T) {
			_, _, err := v.Validate(RawSubmission{Data: payload(func(m map[string]any) {
				refs := m["references"].([]map[string]any)
				m["references"] = append(refs, map[string]any{"name": "Kim", "type": strings.ToUpper(string(rt))})
			}), Documents: resume()})
			assert.NoError(t, err)
		})
	}
}
