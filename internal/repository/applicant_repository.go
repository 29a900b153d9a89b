package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/joshuacenter/applicant-intake/internal/model"
)

// ApplicantRepo provides the queries behind the intake form and the admin
// applicant pages.  Applicants are only ever created through
// WithSubmission so that an applicant row never exists without its
// references and applied locations.
type ApplicantRepo struct {
	db *sql.DB
}

// NewApplicantRepo returns a new ApplicantRepo bound to the given database.
func NewApplicantRepo(db *sql.DB) *ApplicantRepo { return &ApplicantRepo{db: db} }

// SubmissionWriter creates the rows of one application.  Implementations
// are bound to a single transaction; CreateReferences and
// CreateAppliedLocations may be called concurrently once the applicant id
// is known.
type SubmissionWriter interface {
	CreateApplicant(ctx context.Context, a *model.Applicant) (uint64, error)
	CreateReferences(ctx context.Context, applicantID uint64, refs []model.Reference) error
	CreateAppliedLocations(ctx context.Context, applicantID uint64, locationIDs []uint64) error
}

// WithSubmission runs fn inside one transaction.  The transaction commits
// only when fn returns nil; any error (or panic) rolls back every row fn
// wrote, so a failed submission leaves nothing behind.
func (r *ApplicantRepo) WithSubmission(ctx context.Context, fn func(ctx context.Context, w SubmissionWriter) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, &submissionTx{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return storageErr(err)
	}
	committed = true
	return nil
}

// applicantColumns lists the columns written at submission time, in the
// order used by both the INSERT and the detail SELECT.
const applicantColumns = `email, name, address, city, state, zip, phone, us_citizen, felony_conviction, felony_explanation,
	dual_relationships, dual_relationships_explanation, interests, why_joshua_center, ethical_framework_thoughts,
	populations, education, previous_employer, previous_employer_address, previous_employer_city,
	previous_employer_state, previous_employer_zip, previous_employer_phone, previous_employer_title,
	previous_employer_length, previous_employer_reason_leaving, other_employment, languages, gender,
	race_ethnicity, resume_path`

// submissionTx implements SubmissionWriter on top of a *sql.Tx.
type submissionTx struct {
	tx *sql.Tx
}

// CreateApplicant inserts the root row and returns its generated id.  A
// duplicate email is reported as ErrEmailExists.
func (s *submissionTx) CreateApplicant(ctx context.Context, a *model.Applicant) (uint64, error) {
	populations := a.Populations
	if populations == nil {
		populations = []string{}
	}
	pops, err := json.Marshal(populations)
	if err != nil {
		return 0, err
	}
	q := "INSERT INTO `Applicant` (" + applicantColumns + `) VALUES
		(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.tx.ExecContext(ctx, q,
		a.Email, a.Name, a.Address, a.City, a.State, a.Zip, a.Phone, a.USCitizen, a.FelonyConviction, a.FelonyExplanation,
		string(a.DualRelationships), a.DualRelationshipsExplanation, a.Interests, a.WhyJoshuaCenter, a.EthicalFrameworkThoughts,
		string(pops), a.Education, a.PreviousEmployer, a.PreviousEmployerAddress, a.PreviousEmployerCity,
		a.PreviousEmployerState, a.PreviousEmployerZip, a.PreviousEmployerPhone, a.PreviousEmployerTitle,
		a.PreviousEmployerLength, a.PreviousEmployerReasonLeaving, a.OtherEmployment, a.Languages, a.Gender,
		a.RaceEthnicity, a.ResumePath,
	)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		if isTooLong(err) {
			return 0, ErrValueTooLong
		}
		return 0, storageErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr(err)
	}
	return uint64(id), nil
}

// CreateReferences inserts all references of an applicant in a single
// statement.  Passing an empty slice has no effect.
func (s *submissionTx) CreateReferences(ctx context.Context, applicantID uint64, refs []model.Reference) error {
	if len(refs) == 0 {
		return nil
	}
	var q strings.Builder
	q.WriteString("INSERT INTO `Reference` (applicant_id, name, relationship, phone, email, type) VALUES ")
	args := make([]any, 0, len(refs)*6)
	for i, ref := range refs {
		if i > 0 {
			q.WriteString(",")
		}
		q.WriteString("(?, ?, ?, ?, ?, ?)")
		args = append(args, applicantID, ref.Name, ref.Relationship, ref.Phone, ref.Email, string(ref.Type))
	}
	if _, err := s.tx.ExecContext(ctx, q.String(), args...); err != nil {
		if isTooLong(err) {
			return ErrValueTooLong
		}
		return storageErr(err)
	}
	return nil
}

// CreateAppliedLocations links the applicant to every selected location in
// a single statement.  A location id without a Location row fails the
// whole statement with ErrUnknownLocation.
func (s *submissionTx) CreateAppliedLocations(ctx context.Context, applicantID uint64, locationIDs []uint64) error {
	if len(locationIDs) == 0 {
		return nil
	}
	var q strings.Builder
	q.WriteString("INSERT INTO `AppliedLoc` (applicant_id, location_id) VALUES ")
	args := make([]any, 0, len(locationIDs)*2)
	for i, id := range locationIDs {
		if i > 0 {
			q.WriteString(",")
		}
		q.WriteString("(?, ?)")
		args = append(args, applicantID, id)
	}
	if _, err := s.tx.ExecContext(ctx, q.String(), args...); err != nil {
		if isMissingParent(err) {
			return ErrUnknownLocation
		}
		return storageErr(err)
	}
	return nil
}

// List returns a summary of every applicant, newest first, with the
// assigned reviewer's full name when there is one.
func (r *ApplicantRepo) List(ctx context.Context) ([]model.ApplicantSummary, error) {
	const q = "SELECT a.id, a.email, a.name, a.application_status, a.assigned_employee_id," +
		" CONCAT(u.first_name, ' ', u.last_name)" +
		" FROM `Applicant` a LEFT JOIN `User` u ON u.id = a.assigned_employee_id" +
		" ORDER BY a.id DESC"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	out := []model.ApplicantSummary{}
	for rows.Next() {
		var (
			s          model.ApplicantSummary
			status     string
			employeeID sql.NullInt64
			assignedTo sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.Email, &s.Name, &status, &employeeID, &assignedTo); err != nil {
			return nil, storageErr(err)
		}
		s.Status = model.ApplicationStatus(status)
		if s.Status == "" {
			s.Status = model.StatusNotViewed
		}
		s.AssignedEmployeeID = nullUint64(employeeID)
		if assignedTo.Valid {
			name := assignedTo.String
			s.AssignedTo = &name
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}

// GetByID loads the full applicant record with its references and applied
// locations.  It returns ErrApplicantNotFound when no row matches.
func (r *ApplicantRepo) GetByID(ctx context.Context, id uint64) (*model.Applicant, error) {
	q := "SELECT id, " + applicantColumns + ", application_status, assigned_employee_id, created_at FROM `Applicant` WHERE id = ?"
	var (
		a          model.Applicant
		felonyExp  sql.NullString
		dual       string
		dualExp    sql.NullString
		pops       []byte
		otherEmp   sql.NullString
		status     string
		employeeID sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&a.ID, &a.Email, &a.Name, &a.Address, &a.City, &a.State, &a.Zip, &a.Phone, &a.USCitizen, &a.FelonyConviction, &felonyExp,
		&dual, &dualExp, &a.Interests, &a.WhyJoshuaCenter, &a.EthicalFrameworkThoughts,
		&pops, &a.Education, &a.PreviousEmployer, &a.PreviousEmployerAddress, &a.PreviousEmployerCity,
		&a.PreviousEmployerState, &a.PreviousEmployerZip, &a.PreviousEmployerPhone, &a.PreviousEmployerTitle,
		&a.PreviousEmployerLength, &a.PreviousEmployerReasonLeaving, &otherEmp, &a.Languages, &a.Gender,
		&a.RaceEthnicity, &a.ResumePath, &status, &employeeID, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrApplicantNotFound
		}
		return nil, storageErr(err)
	}
	a.FelonyExplanation = nullString(felonyExp)
	a.DualRelationships = model.DualRelationship(dual)
	a.DualRelationshipsExplanation = nullString(dualExp)
	a.OtherEmployment = nullString(otherEmp)
	a.Status = model.ApplicationStatus(status)
	a.AssignedEmployeeID = nullUint64(employeeID)
	// A malformed populations column is shown as an empty list rather than
	// hiding the whole application.
	if err := json.Unmarshal(pops, &a.Populations); err != nil || a.Populations == nil {
		a.Populations = []string{}
	}

	if a.References, err = r.references(ctx, a.ID); err != nil {
		return nil, err
	}
	if a.Locations, err = r.appliedLocations(ctx, a.ID); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ApplicantRepo) references(ctx context.Context, applicantID uint64) ([]model.Reference, error) {
	const q = "SELECT id, applicant_id, name, relationship, phone, email, type FROM `Reference` WHERE applicant_id = ? ORDER BY id"
	rows, err := r.db.QueryContext(ctx, q, applicantID)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	out := []model.Reference{}
	for rows.Next() {
		var (
			ref model.Reference
			typ string
		)
		if err := rows.Scan(&ref.ID, &ref.ApplicantID, &ref.Name, &ref.Relationship, &ref.Phone, &ref.Email, &typ); err != nil {
			return nil, storageErr(err)
		}
		ref.Type = model.ReferenceType(typ)
		out = append(out, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}

func (r *ApplicantRepo) appliedLocations(ctx context.Context, applicantID uint64) ([]model.Location, error) {
	const q = "SELECT l.id, l.name FROM `AppliedLoc` al JOIN `Location` l ON l.id = al.location_id" +
		" WHERE al.applicant_id = ? ORDER BY l.name"
	rows, err := r.db.QueryContext(ctx, q, applicantID)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	out := []model.Location{}
	for rows.Next() {
		var l model.Location
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, storageErr(err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}

// UpdateReview sets the review status and assigned employee of an
// applicant.  A nil employeeID clears the assignment.
func (r *ApplicantRepo) UpdateReview(ctx context.Context, id uint64, status model.ApplicationStatus, employeeID *uint64) error {
	const q = "UPDATE `Applicant` SET application_status = ?, assigned_employee_id = ? WHERE id = ?"
	var employee any
	if employeeID != nil {
		employee = *employeeID
	}
	res, err := r.db.ExecContext(ctx, q, string(status), employee, id)
	if err != nil {
		if isMissingParent(err) {
			return ErrUnknownEmployee
		}
		return storageErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrApplicantNotFound
	}
	return nil
}

// FindByEmail looks up an existing application by its normalized email.
func (r *ApplicantRepo) FindByEmail(ctx context.Context, email string) (*model.EmailMatch, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	const q = "SELECT id, name, application_status FROM `Applicant` WHERE email = ? LIMIT 1"
	var (
		m      model.EmailMatch
		status string
	)
	if err := r.db.QueryRowContext(ctx, q, email).Scan(&m.ID, &m.Name, &status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrApplicantNotFound
		}
		return nil, storageErr(err)
	}
	m.Status = model.ApplicationStatus(status)
	return &m, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullUint64(n sql.NullInt64) *uint64 {
	if !n.Valid {
		return nil
	}
	v := uint64(n.Int64)
	return &v
}
