package model

import (
	"regexp"
)

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// ValidPhone reports whether phone is a bare 10 digit number.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

type RegisterRequest struct {
	Phone    string  `json:"phone" binding:"required,phone"`
	Name     string  `json:"name" binding:"required,min=1,max=100"`
	Role     Role    `json:"role" binding:"required,oneof=patient doctor pharmacy"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Language string  `json:"language" binding:"omitempty,max=50"`
	Address  *string `json:"address" binding:"omitempty,max=500"`

	// Doctor
	Specialization  string   `json:"specialization" binding:"omitempty,max=100"`
	Experience      *int     `json:"experience" binding:"omitempty,gte=0,lte=80"`
	ConsultationFee *float64 `json:"consultationFee" binding:"omitempty,gte=0"`
	Qualifications  []string `json:"qualifications" binding:"omitempty,dive,min=1"`
	Languages       []string `json:"languages" binding:"omitempty,dive,min=1"`

	// Pharmacy
	PharmacyName string    `json:"pharmacyName" binding:"omitempty,max=200"`
	Location     *Location `json:"location"`

	// Patient
	BloodGroup       *string  `json:"bloodGroup" binding:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	EmergencyContact *string  `json:"emergencyContact" binding:"omitempty,max=100"`
	MedicalHistory   *string  `json:"medicalHistory" binding:"omitempty,max=2000"`
	Allergies        []string `json:"allergies" binding:"omitempty,dive,min=1"`
}

type SendOTPRequest struct {
	Phone string `json:"phone" binding:"required,phone"`
}

type VerifyOTPRequest struct {
	Phone string `json:"phone" binding:"required,phone"`
	OTP   string `json:"otp" binding:"required,len=6,numeric"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type AuthResponse struct {
	User         *User       `json:"user"`
	Profile      RoleProfile `json:"profile,omitempty"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type MeResponse struct {
	User    *User       `json:"user"`
	Profile RoleProfile `json:"profile,omitempty"`
}
