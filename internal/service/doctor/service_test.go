package doctor

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jevencare/api/internal/model"
	"github.com/jevencare/api/internal/repository/memory"
	apperrors "github.com/jevencare/api/pkg/errors"
	"github.com/jevencare/api/pkg/pagination"
)

func seed(t *testing.T) (*Service, []*model.DoctorProfile) {
	t.Helper()
	store := memory.NewStore()
	users := memory.NewUserRepository(store)

	specs := []struct {
		name, spec string
		fee, rate  float64
		available  bool
		langs      []string
	}{
		{"Dr. Rajesh Kumar", "General Physician", 300, 4.5, true, []string{"English", "Hindi"}},
		{"Dr. Priya Sharma", "Pediatrician", 400, 4.8, true, []string{"English", "Tamil"}},
		{"Dr. Amit Patel", "Cardiologist", 800, 4.9, true, []string{"English"}},
		{"Dr. Off Duty", "Cardiologist", 500, 5, false, []string{"English"}},
	}

	var out []*model.DoctorProfile
	for i, sp := range specs {
		u := &model.User{Base: model.NewBase(time.Now()), Phone: "900000000" + string(rune('1'+i)), Name: sp.name, Role: model.RoleDoctor}
		p := &model.DoctorProfile{
			Base:            model.NewBase(time.Now()),
			UserID:          u.ID,
			Specialization:  sp.spec,
			ConsultationFee: sp.fee,
			Rating:          sp.rate,
			IsAvailable:     sp.available,
			Languages:       pq.StringArray(sp.langs),
		}
		require.NoError(t, users.CreateWithProfile(context.Background(), u, p))
		out = append(out, p)
	}
	return NewService(memory.NewDoctorRepository(store)), out
}

func TestListFiltersAndSorts(t *testing.T) {
	svc, _ := seed(t)
	ctx := context.Background()
	all := pagination.New(1, 10, 0)

	docs, meta, err := svc.List(ctx, model.DoctorFilter{}, all)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, 3, meta.Total)
	assert.Equal(t, "Cardiologist", docs[0].Specialization)
	require.NotNil(t, docs[0].User)
	assert.Equal(t, "Dr. Amit Patel", docs[0].User.Name)

	docs, _, err = svc.List(ctx, model.DoctorFilter{Specialization: "pedia"}, all)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	docs, _, err = svc.List(ctx, model.DoctorFilter{Language: "Hindi"}, all)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	min, max := 350.0, 900.0
	docs, _, err = svc.List(ctx, model.DoctorFilter{MinFee: &min, MaxFee: &max}, all)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, _, err = svc.List(ctx, model.DoctorFilter{Search: "rajesh"}, all)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	_, _, err = svc.List(ctx, model.DoctorFilter{MinFee: &max, MaxFee: &min}, all)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest))
}

func TestSpecializations(t *testing.T) {
	svc, _ := seed(t)
	specs, err := svc.Specializations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Cardiologist", "General Physician", "Pediatrician"}, specs)
}

func TestUpdateProfile(t *testing.T) {
	svc, docs := seed(t)
	ctx := context.Background()

	fee := 450.0
	avail := false
	p, err := svc.UpdateProfile(ctx, docs[0].UserID, &model.UpdateDoctorProfileRequest{ConsultationFee: &fee, IsAvailable: &avail})
	require.NoError(t, err)
	assert.Equal(t, 450.0, p.ConsultationFee)

	got, err := svc.Get(ctx, docs[0].ID)
	require.NoError(t, err)
	assert.False(t, got.IsAvailable)

	neg := -1.0
	_, err = svc.UpdateProfile(ctx, docs[0].UserID, &model.UpdateDoctorProfileRequest{ConsultationFee: &neg})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest))

	_, err = svc.MyProfile(ctx, uuid.New())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
}
