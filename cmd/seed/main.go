package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jevencare/api/internal/app"
	"github.com/jevencare/api/internal/config"
	"github.com/jevencare/api/internal/model"
	"github.com/jevencare/api/internal/repository"
	"github.com/jevencare/api/pkg/logger"
)

type seedDoctor struct {
	Name           string
	Phone          string
	Email          string
	Specialization string
	Experience     int
	Qualifications []string
	Languages      []string
	Fee            float64
	Slots          model.Slots
}

var fixedDoctors = []seedDoctor{
	{
		Name: "Dr. Rajesh Kumar", Phone: "9876543210", Email: "rajesh@jevencare.com",
		Specialization: "General Physician", Experience: 15,
		Qualifications: []string{"MBBS", "MD"}, Languages: []string{"Hindi", "English", "Punjabi"},
		Fee: 300,
		Slots: model.Slots{
			{Day: "Monday", StartTime: "09:00", EndTime: "17:00"},
			{Day: "Wednesday", StartTime: "09:00", EndTime: "17:00"},
		},
	},
	{
		Name: "Dr. Priya Sharma", Phone: "9876543211", Email: "priya@jevencare.com",
		Specialization: "Pediatrician", Experience: 10,
		Qualifications: []string{"MBBS", "MD Pediatrics"}, Languages: []string{"Hindi", "English", "Marathi"},
		Fee: 400,
		Slots: model.Slots{
			{Day: "Tuesday", StartTime: "10:00", EndTime: "18:00"},
			{Day: "Thursday", StartTime: "10:00", EndTime: "18:00"},
		},
	},
	{
		Name: "Dr. Amit Patel", Phone: "9876543212", Email: "amit@jevencare.com",
		Specialization: "Cardiologist", Experience: 20,
		Qualifications: []string{"MBBS", "MD", "DM Cardiology"}, Languages: []string{"Gujarati", "Hindi", "English"},
		Fee: 800,
		Slots: model.Slots{
			{Day: "Monday", StartTime: "11:00", EndTime: "16:00"},
			{Day: "Friday", StartTime: "11:00", EndTime: "16:00"},
		},
	},
}

var (
	specializations = []string{"General Physician", "Pediatrician", "Cardiologist", "Dermatologist", "Gynecologist", "Orthopedic", "ENT Specialist", "Psychiatrist"}
	languages       = []string{"English", "Hindi", "Tamil", "Telugu", "Marathi", "Bengali", "Gujarati", "Kannada"}
	weekdays        = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	categories      = []string{"Pain Relief", "Antibiotics", "Cough & Cold", "Diabetes", "Vitamins", "Digestive", "Allergy", "Skin Care"}
	medicineNames   = []string{"Paracetamol", "Ibuprofen", "Amoxicillin", "Azithromycin", "Cetirizine", "Metformin", "Omeprazole", "Vitamin D3", "Dolo 650", "Benadryl", "ORS", "Pantoprazole"}
)

func main() {
	var doctors, pharmacies, medicines int

	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Seed doctors, pharmacies and medicines",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), doctors, pharmacies, medicines)
		},
	}
	cmd.Flags().IntVar(&doctors, "doctors", 20, "number of generated doctors in addition to the fixed ones")
	cmd.Flags().IntVar(&pharmacies, "pharmacies", 5, "number of generated pharmacies")
	cmd.Flags().IntVar(&medicines, "medicines", 15, "medicines per pharmacy")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("seed failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, doctors, pharmacies, medicines int) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger.Setup(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	if cfg.Database.Driver != "postgres" {
		return errors.New("seed requires the postgres driver")
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	db, err := app.OpenDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	repos := app.PostgresRepositories(db)

	gofakeit.Seed(time.Now().UnixNano())

	s := &seeder{repos: repos, now: time.Now().UTC()}
	for _, d := range fixedDoctors {
		if err := s.doctor(ctx, d, 4.5, 100); err != nil {
			return err
		}
	}
	for i := 0; i < doctors; i++ {
		if err := s.doctor(ctx, fakeDoctor(), round(gofakeit.Float64Range(3.5, 5), 1), gofakeit.Number(0, 500)); err != nil {
			return err
		}
	}
	for i := 0; i < pharmacies; i++ {
		if err := s.pharmacy(ctx, medicines); err != nil {
			return err
		}
	}

	log.Info().
		Int("created", s.created).
		Int("skipped", s.skipped).
		Msg("seed complete")
	return nil
}

type seeder struct {
	repos   app.Repositories
	now     time.Time
	created int
	skipped int
}

func (s *seeder) doctor(ctx context.Context, d seedDoctor, rating float64, totalRatings int) error {
	email := d.Email
	user := &model.User{
		Base:       model.NewBase(s.now),
		Phone:      d.Phone,
		Email:      &email,
		Name:       d.Name,
		Role:       model.RoleDoctor,
		IsVerified: true,
		IsActive:   true,
		Language:   model.DefaultLanguage,
	}
	profile := &model.DoctorProfile{
		Base:            model.NewBase(s.now),
		UserID:          user.ID,
		Specialization:  d.Specialization,
		Experience:      d.Experience,
		Qualifications:  pq.StringArray(d.Qualifications),
		Languages:       pq.StringArray(d.Languages),
		ConsultationFee: d.Fee,
		AvailableSlots:  d.Slots,
		IsAvailable:     true,
		Rating:          rating,
		TotalRatings:    totalRatings,
	}
	_, err := s.create(ctx, user, profile)
	return err
}

func (s *seeder) pharmacy(ctx context.Context, medicines int) error {
	name := gofakeit.Company() + " Pharmacy"
	user := &model.User{
		Base:       model.NewBase(s.now),
		Phone:      gofakeit.Numerify("9#########"),
		Name:       name,
		Role:       model.RolePharmacy,
		IsVerified: true,
		IsActive:   true,
		Language:   model.DefaultLanguage,
	}
	profile := &model.PharmacyProfile{
		Base:         model.NewBase(s.now),
		UserID:       user.ID,
		PharmacyName: name,
		Address:      fmt.Sprintf("%s, %s", gofakeit.Street(), gofakeit.City()),
		Location:     model.Location{Latitude: gofakeit.Latitude(), Longitude: gofakeit.Longitude()},
		IsOpen:       gofakeit.Bool(),
	}
	created, err := s.create(ctx, user, profile)
	if err != nil || !created {
		return err
	}

	for i := 0; i < medicines; i++ {
		generic := gofakeit.RandomString(medicineNames)
		maker := gofakeit.Company()
		m := &model.Medicine{
			Base:                 model.NewBase(s.now),
			PharmacyID:           user.ID,
			Name:                 fmt.Sprintf("%s %dmg", generic, gofakeit.RandomInt([]int{100, 250, 500, 650})),
			GenericName:          &generic,
			Manufacturer:         &maker,
			Price:                round(gofakeit.Float64Range(10, 900), 2),
			Stock:                gofakeit.Number(0, 300),
			Category:             gofakeit.RandomString(categories),
			RequiresPrescription: gofakeit.Bool(),
			IsAvailable:          true,
		}
		if err := s.repos.Medicines.Create(ctx, m); err != nil {
			return fmt.Errorf("create medicine: %w", err)
		}
		s.created++
	}
	return nil
}

// create skips users whose phone already exists so reseeding is safe.
func (s *seeder) create(ctx context.Context, user *model.User, profile model.RoleProfile) (bool, error) {
	err := s.repos.Users.CreateWithProfile(ctx, user, profile)
	if errors.Is(err, repository.ErrDuplicate) {
		log.Info().Str("phone", user.Phone).Msg("already seeded, skipping")
		s.skipped++
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create %s %s: %w", user.Role, user.Name, err)
	}
	s.created++
	log.Info().Str("role", string(user.Role)).Str("name", user.Name).Msg("created")
	return true, nil
}

func fakeDoctor() seedDoctor {
	langs := []string{"English", gofakeit.RandomString(languages)}
	if langs[1] == "English" {
		langs = langs[:1]
	}
	return seedDoctor{
		Name:           "Dr. " + gofakeit.Name(),
		Phone:          gofakeit.Numerify("8#########"),
		Email:          gofakeit.Email(),
		Specialization: gofakeit.RandomString(specializations),
		Experience:     gofakeit.Number(1, 35),
		Qualifications: []string{"MBBS"},
		Languages:      langs,
		Fee:            float64(gofakeit.Number(2, 15) * 100),
		Slots: model.Slots{{
			Day:       gofakeit.RandomString(weekdays),
			StartTime: "09:00",
			EndTime:   "17:00",
		}},
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
