package medicine

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jevencare/api/internal/model"
	"github.com/jevencare/api/internal/repository"
	"github.com/jevencare/api/internal/repository/memory"
	"github.com/jevencare/api/pkg/auth"
	apperrors "github.com/jevencare/api/pkg/errors"
	"github.com/jevencare/api/pkg/pagination"
)

func pharmacy(t *testing.T, users repository.UserRepository, phone string) auth.Identity {
	t.Helper()
	u := &model.User{Base: model.NewBase(time.Now()), Phone: phone, Name: "Pharmacy " + phone, Role: model.RolePharmacy}
	require.NoError(t, users.CreateWithProfile(context.Background(), u, nil))
	return auth.Identity{UserID: u.ID, Phone: phone, Role: string(model.RolePharmacy)}
}

func TestOwnershipRules(t *testing.T) {
	store := memory.NewStore()
	users := memory.NewUserRepository(store)
	svc := NewService(memory.NewMedicineRepository(store))
	ctx := context.Background()

	owner := pharmacy(t, users, "9000000001")
	other := pharmacy(t, users, "9000000002")

	m, err := svc.Create(ctx, owner, &model.CreateMedicineRequest{Name: "Paracetamol", Category: "Pain Relief", Price: 25, Stock: 100})
	require.NoError(t, err)
	assert.Equal(t, owner.UserID, m.PharmacyID)
	assert.True(t, m.IsAvailable)

	price := 30.0
	_, err = svc.Update(ctx, other, m.ID, &model.UpdateMedicineRequest{Price: &price})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrForbidden))

	updated, err := svc.Update(ctx, owner, m.ID, &model.UpdateMedicineRequest{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, 30.0, updated.Price)

	assert.True(t, apperrors.HasCode(svc.Delete(ctx, other, m.ID), apperrors.ErrForbidden))
	require.NoError(t, svc.Delete(ctx, owner, m.ID))

	_, err = svc.Get(ctx, m.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))

	patient := auth.Identity{UserID: uuid.New(), Role: string(model.RolePatient)}
	_, err = svc.Create(ctx, patient, &model.CreateMedicineRequest{Name: "X", Category: "Y"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrForbidden))
}

func TestListFilters(t *testing.T) {
	store := memory.NewStore()
	users := memory.NewUserRepository(store)
	svc := NewService(memory.NewMedicineRepository(store))
	ctx := context.Background()
	owner := pharmacy(t, users, "9000000001")

	generic := "acetaminophen"
	for _, req := range []*model.CreateMedicineRequest{
		{Name: "Crocin", GenericName: &generic, Category: "Pain Relief", Price: 30, Stock: 10},
		{Name: "Amoxil", Category: "Antibiotics", Price: 120, Stock: 0},
		{Name: "Benadryl", Category: "Cough & Cold", Price: 90, Stock: 50},
	} {
		_, err := svc.Create(ctx, owner, req)
		require.NoError(t, err)
	}
	page := pagination.New(1, DefaultLimit, DefaultLimit)

	meds, meta, err := svc.List(ctx, model.MedicineFilter{}, page)
	require.NoError(t, err)
	assert.Equal(t, 3, meta.Total)
	assert.Equal(t, "Benadryl", meds[0].Name)

	meds, _, err = svc.List(ctx, model.MedicineFilter{Search: "ACETA"}, page)
	require.NoError(t, err)
	require.Len(t, meds, 1)
	assert.Equal(t, "Crocin", meds[0].Name)

	meds, _, err = svc.List(ctx, model.MedicineFilter{InStock: true}, page)
	require.NoError(t, err)
	assert.Len(t, meds, 2)

	max := 100.0
	meds, _, err = svc.List(ctx, model.MedicineFilter{MaxPrice: &max, Category: "cold"}, page)
	require.NoError(t, err)
	assert.Len(t, meds, 1)

	cats, err := svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Antibiotics", "Cough & Cold", "Pain Relief"}, cats)
}
