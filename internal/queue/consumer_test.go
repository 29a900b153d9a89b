package queue

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSubmitted(t *testing.T) {
	body, err := json.Marshal(ApplicationSubmittedEvent{
		ApplicantID: 12, Email: "jane@x.com", Name: "Jane Doe",
		ReferenceCount: 3, LocationIDs: []uint64{1, 2}, SubmittedAt: "2026-05-01T09:00:00Z",
	})
	require.NoError(t, err)

	line, err := FormatEvent(ApplicantSubmittedQueue, body)
	require.NoError(t, err)
	assert.Equal(t,
		"[2026-05-01T09:00:00Z] Application submitted | applicant_id=12 | email=\"jane@x.com\" | name=\"Jane Doe\" | references=3 | locations=[1,2]\n",
		line)
}

func TestFormatStatusChanged(t *testing.T) {
	emp := uint64(4)
	body, err := json.Marshal(ApplicantStatusChangedEvent{ApplicantID: 12, Status: "in review", AssignedEmployeeID: &emp, ChangedAt: "t"})
	require.NoError(t, err)

	line, err := FormatEvent(ApplicantStatusChangedQueue, body)
	require.NoError(t, err)
	assert.Contains(t, line, `status="in review"`)
	assert.Contains(t, line, "assigned_employee_id=4")
}

func TestFormatRejectsGarbage(t *testing.T) {
	_, err := FormatEvent(ApplicantSubmittedQueue, []byte("{"))
	assert.Error(t, err)
	_, err = FormatEvent("other.queue", []byte("{}"))
	assert.Error(t, err)
}

func TestHandleAppendsToLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	c := &Consumer{LogDir: dir, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	body, _ := json.Marshal(ApplicantStatusChangedEvent{ApplicantID: 1, Status: "accepted"})
	require.NoError(t, c.handle(ApplicantStatusChangedQueue, body))
	require.NoError(t, c.handle(ApplicantStatusChangedQueue, body))

	data, err := os.ReadFile(filepath.Join(dir, "intake.log"))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}
