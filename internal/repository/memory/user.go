package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jevencare/api/internal/model"
	"github.com/jevencare/api/internal/repository"
)

type userRepository struct {
	s *Store
}

func NewUserRepository(s *Store) repository.UserRepository {
	return &userRepository{s: s}
}

func (r *userRepository) CreateWithProfile(_ context.Context, user *model.User, profile model.RoleProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.phones[user.Phone]; ok {
		return repository.ErrDuplicate
	}
	if profile != nil && profile.OwnerID() != user.ID {
		return fmt.Errorf("profile owner %s does not match user %s", profile.OwnerID(), user.ID)
	}

	switch p := profile.(type) {
	case nil:
	case *model.PatientProfile:
		cp := *p
		r.s.patients[user.ID] = &cp
	case *model.DoctorProfile:
		cp := *p
		r.s.doctors[cp.ID] = &cp
	case *model.PharmacyProfile:
		cp := *p
		r.s.pharmacies[cp.ID] = &cp
	default:
		return fmt.Errorf("unsupported profile type %T", profile)
	}

	cp := *user
	r.s.users[user.ID] = &cp
	r.s.phones[user.Phone] = user.ID
	return nil
}

func (r *userRepository) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *userRepository) GetByPhone(_ context.Context, phone string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.phones[phone]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r.s.users[id]
	return &cp, nil
}

func (r *userRepository) GetSummaries(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.UserSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[uuid.UUID]*model.UserSummary, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out[id] = u.Summary()
		}
	}
	return out, nil
}

func (r *userRepository) Update(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Email = user.Email
	existing.Name = user.Name
	existing.Language = user.Language
	existing.Address = user.Address
	existing.ProfileImage = user.ProfileImage
	existing.UpdatedAt = user.UpdatedAt
	return nil
}

func (r *userRepository) MarkVerified(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsVerified = true
	return nil
}

func (r *userRepository) SetRefreshToken(_ context.Context, id uuid.UUID, token *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if token == nil {
		u.RefreshToken = nil
		return nil
	}
	t := *token
	u.RefreshToken = &t
	return nil
}
