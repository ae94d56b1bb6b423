package record

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jevencare/api/internal/blobstore"
	"github.com/jevencare/api/internal/model"
	"github.com/jevencare/api/internal/repository/memory"
	"github.com/jevencare/api/pkg/auth"
	apperrors "github.com/jevencare/api/pkg/errors"
	"github.com/jevencare/api/pkg/pagination"
)

type fixture struct {
	svc     *Service
	blobs   *blobstore.MemoryStore
	patient auth.Identity
	doctor  auth.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	users := memory.NewUserRepository(store)
	blobs := blobstore.NewMemoryStore("/files")

	mk := func(phone string, role model.Role) auth.Identity {
		u := &model.User{Base: model.NewBase(time.Now()), Phone: phone, Name: "U" + phone, Role: role}
		require.NoError(t, users.CreateWithProfile(context.Background(), u, nil))
		return auth.Identity{UserID: u.ID, Phone: phone, Role: string(role)}
	}

	return &fixture{
		svc:     NewService(memory.NewHealthRecordRepository(store), users, blobs, 0),
		blobs:   blobs,
		patient: mk("9000000001", model.RolePatient),
		doctor:  mk("9000000002", model.RoleDoctor),
	}
}

func pdf() *model.UploadedFile {
	return &model.UploadedFile{Name: "Report.PDF", ContentType: "application/pdf", Size: 4, Data: []byte("%PDF")}
}

func TestValidateFile(t *testing.T) {
	svc := newFixture(t).svc

	assert.NoError(t, svc.ValidateFile("scan.jpg", "image/jpeg", 100))
	assert.NoError(t, svc.ValidateFile("notes.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", 100))
	assert.Error(t, svc.ValidateFile("evil.exe", "application/octet-stream", 100))
	assert.Error(t, svc.ValidateFile("fake.pdf", "image/png", 100))
	assert.Error(t, svc.ValidateFile("big.pdf", "application/pdf", DefaultMaxFileSize+1))
}

func TestUploadAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Upload(ctx, f.patient, &model.CreateRecordRequest{
		Type:        model.RecordTypeLabReport,
		Title:       "CBC",
		Description: "blood work",
		DoctorID:    f.doctor.UserID.String(),
		Date:        "2030-01-15",
	}, pdf())
	require.NoError(t, err)
	require.NotNil(t, rec.FileURL)
	assert.Contains(t, *rec.FileURL, "/files/records/")
	assert.Equal(t, time.Date(2030, 1, 15, 0, 0, 0, 0, time.UTC), rec.Date)
	require.NotNil(t, rec.Doctor)
	assert.Equal(t, 1, f.blobs.Len())

	got, err := f.svc.Get(ctx, f.doctor, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	err = f.svc.Delete(ctx, f.doctor, rec.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrForbidden))

	require.NoError(t, f.svc.Delete(ctx, f.patient, rec.ID))
	assert.Equal(t, 0, f.blobs.Len())

	_, err = f.svc.Get(ctx, f.patient, rec.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
}

func TestUploadRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := &model.CreateRecordRequest{Type: model.RecordTypeScan, Title: "MRI", Description: "knee"}

	_, err := f.svc.Upload(ctx, f.doctor, req, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrForbidden))

	bad := *req
	bad.DoctorID = "not-a-uuid"
	_, err = f.svc.Upload(ctx, f.patient, &bad, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest))

	_, err = f.svc.Upload(ctx, f.patient, req, &model.UploadedFile{Name: "x.exe", ContentType: "application/x-msdownload", Size: 1})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest))
	assert.Equal(t, 0, f.blobs.Len())

	rec, err := f.svc.Upload(ctx, f.patient, req, nil)
	require.NoError(t, err)
	assert.Nil(t, rec.FileURL)
}

func TestListScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, typ := range []model.RecordType{model.RecordTypeLabReport, model.RecordTypeScan} {
		_, err := f.svc.Upload(ctx, f.patient, &model.CreateRecordRequest{
			Type: typ, Title: "t", Description: "d", DoctorID: f.doctor.UserID.String(),
		}, nil)
		require.NoError(t, err)
	}
	_, err := f.svc.Upload(ctx, f.patient, &model.CreateRecordRequest{Type: model.RecordTypeOther, Title: "t", Description: "d"}, nil)
	require.NoError(t, err)

	recs, meta, err := f.svc.List(ctx, f.patient, "", pagination.New(1, 10, 0))
	require.NoError(t, err)
	assert.Len(t, recs, 3)
	assert.Equal(t, 3, meta.Total)

	recs, _, err = f.svc.List(ctx, f.doctor, "", pagination.New(1, 10, 0))
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	recs, _, err = f.svc.List(ctx, f.patient, "scan", pagination.New(1, 10, 0))
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	_, _, err = f.svc.List(ctx, auth.Identity{UserID: uuid.New(), Role: "pharmacy"}, "", pagination.New(1, 10, 0))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrForbidden))
}
