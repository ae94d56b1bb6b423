package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/jevencare/api/internal/model"
	"github.com/jevencare/api/internal/repository"
	"github.com/jevencare/api/internal/service/otp"
	"github.com/jevencare/api/pkg/auth"
	apperrors "github.com/jevencare/api/pkg/errors"
)

const (
	msgInvalidOTP     = "Invalid or expired OTP"
	msgOTPSendFailed  = "Failed to send OTP. Please try again."
	msgUserExists     = "User with this phone number already exists"
	msgInvalidRefresh = "Invalid refresh token"
)

// OTPIssuer is the part of the OTP service used for login.
type OTPIssuer interface {
	Issue(ctx context.Context, phone string) error
	Verify(ctx context.Context, phone, code string) (bool, error)
}

type Service struct {
	users      repository.UserRepository
	patients   repository.PatientRepository
	doctors    repository.DoctorRepository
	pharmacies repository.PharmacyRepository
	otp        OTPIssuer
	jwtSvc     auth.JWTService
	now        func() time.Time
}

func NewService(users repository.UserRepository, patients repository.PatientRepository,
	doctors repository.DoctorRepository, pharmacies repository.PharmacyRepository,
	otpSvc OTPIssuer, jwtSvc auth.JWTService) *Service {
	return &Service{
		users:      users,
		patients:   patients,
		doctors:    doctors,
		pharmacies: pharmacies,
		otp:        otpSvc,
		jwtSvc:     jwtSvc,
		now:        time.Now,
	}
}

// Register creates the user and its role profile, then sends a login code.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if req.Role == model.RoleAdmin || !req.Role.Valid() {
		return nil, apperrors.BadRequest("role must be one of patient, doctor, pharmacy", nil)
	}

	if _, err := s.users.GetByPhone(ctx, req.Phone); err == nil {
		return nil, apperrors.Conflict(msgUserExists, nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check phone: %w", err)
	}

	now := s.now().UTC()
	user := &model.User{
		Base:     model.NewBase(now),
		Phone:    req.Phone,
		Email:    req.Email,
		Name:     strings.TrimSpace(req.Name),
		Role:     req.Role,
		IsActive: true,
		Language: req.Language,
		Address:  req.Address,
	}
	if user.Language == "" {
		user.Language = model.DefaultLanguage
	}

	profile := newProfile(req, user, now)
	if err := s.users.CreateWithProfile(ctx, user, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict(msgUserExists, err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().Str("user_id", user.ID.String()).Str("role", string(user.Role)).Msg("user registered")

	if err := s.otp.Issue(ctx, user.Phone); err != nil {
		return nil, otpError(err)
	}
	return user, nil
}

func newProfile(req *model.RegisterRequest, user *model.User, now time.Time) model.RoleProfile {
	switch req.Role {
	case model.RoleDoctor:
		p := &model.DoctorProfile{
			Base:            model.NewBase(now),
			UserID:          user.ID,
			Specialization:  model.DefaultSpecialization,
			Qualifications:  pq.StringArray{},
			Languages:       append(pq.StringArray{}, model.DefaultDoctorLanguages...),
			ConsultationFee: model.DefaultConsultationFee,
			AvailableSlots:  model.Slots{},
			IsAvailable:     true,
		}
		if req.Specialization != "" {
			p.Specialization = req.Specialization
		}
		if req.Experience != nil {
			p.Experience = *req.Experience
		}
		if req.ConsultationFee != nil {
			p.ConsultationFee = *req.ConsultationFee
		}
		if len(req.Qualifications) > 0 {
			p.Qualifications = req.Qualifications
		}
		if len(req.Languages) > 0 {
			(&model.UpdateDoctorProfileRequest{Languages: req.Languages}).Apply(p)
		}
		return p
	case model.RolePharmacy:
		p := &model.PharmacyProfile{
			Base:         model.NewBase(now),
			UserID:       user.ID,
			PharmacyName: user.Name,
			IsOpen:       true,
		}
		if req.PharmacyName != "" {
			p.PharmacyName = req.PharmacyName
		}
		if user.Address != nil {
			p.Address = *user.Address
		}
		if req.Location != nil {
			p.Location = *req.Location
		}
		return p
	default:
		p := &model.PatientProfile{
			Base:             model.NewBase(now),
			UserID:           user.ID,
			BloodGroup:       req.BloodGroup,
			EmergencyContact: req.EmergencyContact,
			MedicalHistory:   req.MedicalHistory,
			Allergies:        pq.StringArray{},
		}
		if len(req.Allergies) > 0 {
			p.Allergies = req.Allergies
		}
		return p
	}
}

// SendOTP issues a login code for an existing user.
func (s *Service) SendOTP(ctx context.Context, phone string) error {
	if _, err := s.userByPhone(ctx, phone); err != nil {
		return err
	}
	if err := s.otp.Issue(ctx, phone); err != nil {
		return otpError(err)
	}
	return nil
}

// VerifyOTP checks the code, marks the user verified and starts a session.
// The new refresh token replaces any previous one.
func (s *Service) VerifyOTP(ctx context.Context, phone, code string) (*model.AuthResponse, error) {
	user, err := s.userByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	ok, err := s.otp.Verify(ctx, phone, code)
	if err != nil {
		return nil, fmt.Errorf("failed to verify otp: %w", err)
	}
	if !ok {
		return nil, apperrors.BadRequest(msgInvalidOTP, nil)
	}

	if !user.IsVerified {
		if err := s.users.MarkVerified(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("failed to mark user verified: %w", err)
		}
		user.IsVerified = true
	}

	id := identity(user)
	access, err := s.jwtSvc.GenerateAccessToken(id)
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwtSvc.GenerateRefreshToken(id)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRefreshToken(ctx, user.ID, &refresh); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	profile, err := s.profile(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", user.ID.String()).Msg("user logged in")
	return &model.AuthResponse{
		User:         user,
		Profile:      profile,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// Refresh issues a new access token for the stored refresh token. The
// refresh token itself is not rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	if refreshToken == "" {
		return nil, apperrors.BadRequest("Refresh token is required", nil)
	}

	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized(msgInvalidRefresh, err)
	}
	id, err := claims.Identity()
	if err != nil {
		return nil, apperrors.Unauthorized(msgInvalidRefresh, err)
	}

	user, err := s.users.Get(ctx, id.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Unauthorized(msgInvalidRefresh, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		return nil, apperrors.Unauthorized(msgInvalidRefresh, nil)
	}

	access, err := s.jwtSvc.GenerateAccessToken(identity(user))
	if err != nil {
		return nil, err
	}
	return &model.TokenResponse{AccessToken: access}, nil
}

// Logout clears the stored refresh token.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.SetRefreshToken(ctx, userID, nil); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("user", err)
		}
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return nil
}

func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*model.MeResponse, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profile(ctx, user)
	if err != nil {
		return nil, err
	}
	return &model.MeResponse{User: user, Profile: profile}, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req *model.UpdateUserRequest) (*model.User, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	req.Apply(user)
	user.Name = strings.TrimSpace(user.Name)
	if user.Name == "" {
		return nil, apperrors.BadRequest("name cannot be empty", nil)
	}
	user.UpdatedAt = s.now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (s *Service) user(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("user", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (s *Service) userByPhone(ctx context.Context, phone string) (*model.User, error) {
	user, err := s.users.GetByPhone(ctx, phone)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("user", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// profile loads the role profile. Admins have none.
func (s *Service) profile(ctx context.Context, user *model.User) (model.RoleProfile, error) {
	var (
		p   model.RoleProfile
		err error
	)
	switch user.Role {
	case model.RolePatient:
		p, err = s.patients.GetByUser(ctx, user.ID)
	case model.RoleDoctor:
		p, err = s.doctors.GetByUser(ctx, user.ID)
	case model.RolePharmacy:
		p, err = s.pharmacies.GetByUser(ctx, user.ID)
	default:
		return nil, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return p, nil
}

func identity(u *model.User) auth.Identity {
	return auth.Identity{UserID: u.ID, Phone: u.Phone, Role: string(u.Role)}
}

func otpError(err error) error {
	if errors.Is(err, otp.ErrDelivery) {
		return apperrors.Delivery(msgOTPSendFailed, err)
	}
	return fmt.Errorf("failed to issue otp: %w", err)
}
