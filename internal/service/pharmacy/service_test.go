package pharmacy

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jevencare/api/internal/model"
	"github.com/jevencare/api/internal/repository/memory"
	apperrors "github.com/jevencare/api/pkg/errors"
	"github.com/jevencare/api/pkg/pagination"
)

type fixture struct {
	svc   *Service
	open  *model.PharmacyProfile
	shut  *model.PharmacyProfile
	store *memory.Store
}

func setup(t *testing.T) fixture {
	t.Helper()
	store := memory.NewStore()
	users := memory.NewUserRepository(store)
	meds := memory.NewMedicineRepository(store)
	ctx := context.Background()

	mk := func(phone, name string, open bool) *model.PharmacyProfile {
		u := &model.User{Base: model.NewBase(time.Now()), Phone: phone, Name: name, Role: model.RolePharmacy}
		p := &model.PharmacyProfile{Base: model.NewBase(time.Now()), UserID: u.ID, PharmacyName: name, IsOpen: open}
		require.NoError(t, users.CreateWithProfile(ctx, u, p))
		return p
	}
	open := mk("9000000001", "Apollo Pharmacy", true)
	shut := mk("9000000002", "MedPlus", false)

	for i, stock := range []int{5, 0, 12} {
		m := &model.Medicine{
			Base:        model.NewBase(time.Now()),
			PharmacyID:  open.UserID,
			Name:        []string{"Dolo 650", "Cetirizine", "ORS"}[i],
			Category:    "General",
			Stock:       stock,
			IsAvailable: i != 1,
		}
		require.NoError(t, meds.Create(ctx, m))
	}

	return fixture{
		svc:   NewService(memory.NewPharmacyRepository(store), meds),
		open:  open,
		shut:  shut,
		store: store,
	}
}

func TestListCountsMedicines(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	list, meta, err := f.svc.List(ctx, model.PharmacyFilter{}, pagination.New(1, 10, 10))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 2, meta.Total)
	assert.Equal(t, "Apollo Pharmacy", list[0].PharmacyName)
	require.NotNil(t, list[0].MedicineCount)
	assert.Equal(t, 2, *list[0].MedicineCount)
	assert.Equal(t, 0, *list[1].MedicineCount)

	open := true
	list, _, err = f.svc.List(ctx, model.PharmacyFilter{IsOpen: &open}, pagination.New(1, 10, 10))
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, _, err = f.svc.List(ctx, model.PharmacyFilter{Search: "medp"}, pagination.New(1, 10, 10))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, f.shut.ID, list[0].ID)
}

func TestGetIncludesInventory(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	p, err := f.svc.Get(ctx, f.open.ID)
	require.NoError(t, err)
	require.Len(t, p.Medicines, 2)
	assert.Equal(t, "ORS", p.Medicines[0].Name)

	p, err = f.svc.Get(ctx, f.shut.ID)
	require.NoError(t, err)
	assert.NotNil(t, p.Medicines)
	assert.Empty(t, p.Medicines)

	_, err = f.svc.Get(ctx, uuid.New())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
}

func TestUpdateProfile(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	open := true
	addr := "12 MG Road, Bengaluru"
	p, err := f.svc.UpdateProfile(ctx, f.shut.UserID, &model.UpdatePharmacyProfileRequest{IsOpen: &open, Address: &addr})
	require.NoError(t, err)
	assert.True(t, p.IsOpen)

	mine, err := f.svc.MyProfile(ctx, f.shut.UserID)
	require.NoError(t, err)
	assert.Equal(t, addr, mine.Address)

	_, err = f.svc.UpdateProfile(ctx, f.shut.UserID, &model.UpdatePharmacyProfileRequest{Location: &model.Location{Latitude: 91}})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest))
}
