// Package memory is an in-process implementation of the repository
// interfaces. It backs tests and the "memory" database driver.
package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jevencare/api/internal/model"
)

// Store holds every collection behind a single lock.
type Store struct {
	mu sync.RWMutex

	users      map[uuid.UUID]*model.User
	phones     map[string]uuid.UUID
	patients   map[uuid.UUID]*model.PatientProfile
	doctors    map[uuid.UUID]*model.DoctorProfile
	pharmacies map[uuid.UUID]*model.PharmacyProfile
	appts      map[uuid.UUID]*model.Appointment
	apptEvents map[uuid.UUID][]*model.AppointmentEvent
	records    map[uuid.UUID]*model.HealthRecord
	medicines  map[uuid.UUID]*model.Medicine
}

func NewStore() *Store {
	return &Store{
		users:      make(map[uuid.UUID]*model.User),
		phones:     make(map[string]uuid.UUID),
		patients:   make(map[uuid.UUID]*model.PatientProfile),
		doctors:    make(map[uuid.UUID]*model.DoctorProfile),
		pharmacies: make(map[uuid.UUID]*model.PharmacyProfile),
		appts:      make(map[uuid.UUID]*model.Appointment),
		apptEvents: make(map[uuid.UUID][]*model.AppointmentEvent),
		records:    make(map[uuid.UUID]*model.HealthRecord),
		medicines:  make(map[uuid.UUID]*model.Medicine),
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset > len(items) {
		offset = len(items)
	}
	end := len(items)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}
	return items[offset:end]
}

func distinctSorted(values []string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
