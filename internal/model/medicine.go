package model

import (
	"time"

	"github.com/google/uuid"
)

type Medicine struct {
	Base
	PharmacyID           uuid.UUID  `json:"pharmacyId" db:"pharmacy_id"`
	Name                 string     `json:"name" db:"name"`
	GenericName          *string    `json:"genericName,omitempty" db:"generic_name"`
	Manufacturer         *string    `json:"manufacturer,omitempty" db:"manufacturer"`
	Description          *string    `json:"description,omitempty" db:"description"`
	Price                float64    `json:"price" db:"price"`
	Stock                int        `json:"stock" db:"stock"`
	Category             string     `json:"category" db:"category"`
	RequiresPrescription bool       `json:"requiresPrescription" db:"requires_prescription"`
	ExpiryDate           *time.Time `json:"expiryDate,omitempty" db:"expiry_date"`
	ImageURL             *string    `json:"imageUrl,omitempty" db:"image_url"`
	IsAvailable          bool       `json:"isAvailable" db:"is_available"`

	Pharmacy *UserSummary `json:"pharmacy,omitempty" db:"-"`
}

type MedicineFilter struct {
	Search     string
	Category   string
	PharmacyID *uuid.UUID
	MinPrice   *float64
	MaxPrice   *float64
	InStock    bool
	Offset     int
	Limit      int
}

type CreateMedicineRequest struct {
	Name                 string     `json:"name" binding:"required,min=1,max=200"`
	GenericName          *string    `json:"genericName" binding:"omitempty,max=200"`
	Manufacturer         *string    `json:"manufacturer" binding:"omitempty,max=200"`
	Description          *string    `json:"description" binding:"omitempty,max=2000"`
	Price                float64    `json:"price" binding:"gte=0"`
	Stock                int        `json:"stock" binding:"gte=0"`
	Category             string     `json:"category" binding:"required,min=1,max=100"`
	RequiresPrescription bool       `json:"requiresPrescription"`
	ExpiryDate           *time.Time `json:"expiryDate"`
	ImageURL             *string    `json:"imageUrl" binding:"omitempty,url"`
}

type UpdateMedicineRequest struct {
	Name                 *string    `json:"name" binding:"omitempty,min=1,max=200"`
	GenericName          *string    `json:"genericName" binding:"omitempty,max=200"`
	Manufacturer         *string    `json:"manufacturer" binding:"omitempty,max=200"`
	Description          *string    `json:"description" binding:"omitempty,max=2000"`
	Price                *float64   `json:"price" binding:"omitempty,gte=0"`
	Stock                *int       `json:"stock" binding:"omitempty,gte=0"`
	Category             *string    `json:"category" binding:"omitempty,min=1,max=100"`
	RequiresPrescription *bool      `json:"requiresPrescription"`
	ExpiryDate           *time.Time `json:"expiryDate"`
	ImageURL             *string    `json:"imageUrl" binding:"omitempty,url"`
	IsAvailable          *bool      `json:"isAvailable"`
}

func (r *UpdateMedicineRequest) Apply(m *Medicine) {
	if r.Name != nil {
		m.Name = *r.Name
	}
	if r.GenericName != nil {
		m.GenericName = r.GenericName
	}
	if r.Manufacturer != nil {
		m.Manufacturer = r.Manufacturer
	}
	if r.Description != nil {
		m.Description = r.Description
	}
	if r.Price != nil {
		m.Price = *r.Price
	}
	if r.Stock != nil {
		m.Stock = *r.Stock
	}
	if r.Category != nil {
		m.Category = *r.Category
	}
	if r.RequiresPrescription != nil {
		m.RequiresPrescription = *r.RequiresPrescription
	}
	if r.ExpiryDate != nil {
		m.ExpiryDate = r.ExpiryDate
	}
	if r.ImageURL != nil {
		m.ImageURL = r.ImageURL
	}
	if r.IsAvailable != nil {
		m.IsAvailable = *r.IsAvailable
	}
}
