package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incidenthq/api/pkg/domain/rbac"
	"github.com/incidenthq/api/pkg/domain/report"
	"github.com/incidenthq/api/pkg/domain/shared"
	"github.com/incidenthq/api/pkg/logger"
)

type evidenceFixture struct {
	svc   *EvidenceService
	files *memEvidenceRepo

	report    *report.Report
	eventID   shared.ID
	reporter  shared.ID
	responder shared.ID
	admin     shared.ID
	outsider  shared.ID
}

func newEvidenceFixture(t *testing.T) *evidenceFixture {
	t.Helper()

	clock := shared.FixedClock{T: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
	f := &evidenceFixture{
		files:     &memEvidenceRepo{},
		eventID:   shared.NewID(),
		reporter:  shared.NewID(),
		responder: shared.NewID(),
		admin:     shared.NewID(),
		outsider:  shared.NewID(),
	}

	assignments := &memAssignments{grants: []rbac.Assignment{
		{UserID: f.reporter, Role: rbac.RoleReporter, EventID: &f.eventID},
		{UserID: f.responder, Role: rbac.RoleResponder, EventID: &f.eventID},
		{UserID: f.admin, Role: rbac.RoleEventAdmin, EventID: &f.eventID},
	}}

	reports := newMemReportRepo()
	r, err := report.NewReport(f.eventID, &f.reporter, "Incident", "Something happened.", report.TypeOther, clock.Now())
	require.NoError(t, err)
	require.NoError(t, reports.Create(context.Background(), r))
	f.report = r

	f.svc = NewEvidenceService(f.files, reports, rbac.NewResolver(assignments), clock, logger.NewNop())
	return f
}

func (f *evidenceFixture) upload(t *testing.T, actor shared.ID) *report.EvidenceFile {
	t.Helper()
	file, err := f.svc.UploadEvidence(context.Background(), actor, UploadEvidenceInput{
		ReportID: f.report.ID().String(),
		Filename: "photo.jpg",
		Mimetype: "image/jpeg",
		Data:     []byte("jpeg-bytes"),
	})
	require.NoError(t, err)
	return file
}

func TestUploadEvidence(t *testing.T) {
	ctx := context.Background()

	t.Run("reporter uploads to own report", func(t *testing.T) {
		f := newEvidenceFixture(t)

		file := f.upload(t, f.reporter)

		assert.Equal(t, "photo.jpg", file.Filename())
		assert.True(t, file.UploaderID().Equals(f.reporter))
	})

	t.Run("outsider forbidden", func(t *testing.T) {
		f := newEvidenceFixture(t)

		_, err := f.svc.UploadEvidence(ctx, f.outsider, UploadEvidenceInput{
			ReportID: f.report.ID().String(),
			Filename: "photo.jpg",
			Data:     []byte("x"),
		})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestGetAndListEvidence(t *testing.T) {
	ctx := context.Background()
	f := newEvidenceFixture(t)
	file := f.upload(t, f.reporter)

	t.Run("responder reads file", func(t *testing.T) {
		got, err := f.svc.GetEvidence(ctx, f.responder, file.ID().String())
		require.NoError(t, err)
		assert.Equal(t, []byte("jpeg-bytes"), got.Data())
	})

	t.Run("outsider forbidden", func(t *testing.T) {
		_, err := f.svc.GetEvidence(ctx, f.outsider, file.ID().String())
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("list returns metadata", func(t *testing.T) {
		files, err := f.svc.ListEvidence(ctx, f.reporter, f.report.ID().String())
		require.NoError(t, err)
		assert.Len(t, files, 1)
	})
}

func TestDeleteEvidence(t *testing.T) {
	ctx := context.Background()

	t.Run("uploader deletes own file", func(t *testing.T) {
		f := newEvidenceFixture(t)
		file := f.upload(t, f.reporter)

		require.NoError(t, f.svc.DeleteEvidence(ctx, f.reporter, file.ID().String()))
		assert.Empty(t, f.files.files)
	})

	t.Run("event admin deletes any file", func(t *testing.T) {
		f := newEvidenceFixture(t)
		file := f.upload(t, f.reporter)

		require.NoError(t, f.svc.DeleteEvidence(ctx, f.admin, file.ID().String()))
	})

	t.Run("unrelated reporter cannot delete", func(t *testing.T) {
		f := newEvidenceFixture(t)
		file := f.upload(t, f.responder)

		err := f.svc.DeleteEvidence(ctx, f.reporter, file.ID().String())
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}
