// Package app assembles the HTTP server and its background workers from config.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jevencare/api/internal/blobstore"
	"github.com/jevencare/api/internal/config"
	"github.com/jevencare/api/internal/email"
	apthandler "github.com/jevencare/api/internal/handler/appointment"
	authhandler "github.com/jevencare/api/internal/handler/auth"
	doctorhandler "github.com/jevencare/api/internal/handler/doctor"
	"github.com/jevencare/api/internal/handler/health"
	medicinehandler "github.com/jevencare/api/internal/handler/medicine"
	pharmacyhandler "github.com/jevencare/api/internal/handler/pharmacy"
	recordhandler "github.com/jevencare/api/internal/handler/record"
	symptomhandler "github.com/jevencare/api/internal/handler/symptom"
	"github.com/jevencare/api/internal/middleware"
	"github.com/jevencare/api/internal/redisclient"
	"github.com/jevencare/api/internal/repository"
	"github.com/jevencare/api/internal/repository/memory"
	"github.com/jevencare/api/internal/repository/postgres"
	"github.com/jevencare/api/internal/router"
	"github.com/jevencare/api/internal/service/appointment"
	authsvc "github.com/jevencare/api/internal/service/auth"
	"github.com/jevencare/api/internal/service/consult"
	"github.com/jevencare/api/internal/service/doctor"
	"github.com/jevencare/api/internal/service/medicine"
	"github.com/jevencare/api/internal/service/notification"
	"github.com/jevencare/api/internal/service/otp"
	"github.com/jevencare/api/internal/service/payment"
	"github.com/jevencare/api/internal/service/pharmacy"
	"github.com/jevencare/api/internal/service/record"
	"github.com/jevencare/api/internal/service/symptom"
	"github.com/jevencare/api/internal/worker"
	"github.com/jevencare/api/pkg/auth"
	"github.com/jevencare/api/pkg/metrics"
	"github.com/jevencare/api/pkg/security"
)

const notificationQueueSize = 256

// Repositories groups one implementation of every store.
type Repositories struct {
	Users        repository.UserRepository
	Patients     repository.PatientRepository
	Doctors      repository.DoctorRepository
	Pharmacies   repository.PharmacyRepository
	Appointments repository.AppointmentRepository
	Records      repository.HealthRecordRepository
	Medicines    repository.MedicineRepository
}

func PostgresRepositories(db *sqlx.DB) Repositories {
	return Repositories{
		Users:        postgres.NewUserRepository(db),
		Patients:     postgres.NewPatientRepository(db),
		Doctors:      postgres.NewDoctorRepository(db),
		Pharmacies:   postgres.NewPharmacyRepository(db),
		Appointments: postgres.NewAppointmentRepository(db),
		Records:      postgres.NewHealthRecordRepository(db),
		Medicines:    postgres.NewMedicineRepository(db),
	}
}

func MemoryRepositories() Repositories {
	s := memory.NewStore()
	return Repositories{
		Users:        memory.NewUserRepository(s),
		Patients:     memory.NewPatientRepository(s),
		Doctors:      memory.NewDoctorRepository(s),
		Pharmacies:   memory.NewPharmacyRepository(s),
		Appointments: memory.NewAppointmentRepository(s),
		Records:      memory.NewHealthRecordRepository(s),
		Medicines:    memory.NewMedicineRepository(s),
	}
}

type App struct {
	cfg     *config.Config
	server  *http.Server
	worker  *worker.NotificationWorker
	queue   chan email.Message
	closers []func() error
}

// OpenDB connects to Postgres and applies pending migrations when enabled.
func OpenDB(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := postgres.NewDB(ctx, postgres.Config{
		URL:             cfg.URL,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		n, err := postgres.Migrate(ctx, db)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		log.Info().Int("applied", n).Msg("database migrations applied")
	}
	return db, nil
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg}
	if err := a.build(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg := a.cfg
	checks := map[string]health.Check{}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(cfg.Metrics.Namespace)
	m.MustRegister(reg)

	var repos Repositories
	switch cfg.Database.Driver {
	case "memory":
		log.Warn().Msg("using in-memory storage; data is lost on restart")
		repos = MemoryRepositories()
	default:
		db, err := OpenDB(ctx, cfg.Database)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, db.Close)
		checks["database"] = db.PingContext
		repos = PostgresRepositories(db)
	}

	var rdb *redis.Client
	locker := redisclient.NewNoopLocker()
	if cfg.Redis.Enabled() {
		var err error
		rdb, err = redisclient.NewClient(ctx, redisclient.Config{URL: cfg.Redis.URL, PoolSize: cfg.Redis.PoolSize})
		if err != nil {
			return err
		}
		a.closers = append(a.closers, rdb.Close)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		locker = redisclient.NewRedisSlotLocker(rdb, cfg.Redis.LockTTL)
	}

	accessTTL, err := cfg.JWT.AccessTTL()
	if err != nil {
		return err
	}
	refreshTTL, err := cfg.JWT.RefreshTTL()
	if err != nil {
		return err
	}
	jwt := auth.NewJWTService(auth.Config{
		AccessSecret:  cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
		Issuer:        cfg.JWT.Issuer,
	})

	otpSvc := otp.NewService(otp.Config{
		TestMode:    cfg.OTP.TestMode,
		FixedCode:   cfg.OTP.FixedCode,
		TTL:         cfg.OTP.TTL,
		CountryCode: cfg.OTP.DefaultCountryCode,
	}, otpStore(cfg, rdb), smsSender(cfg), security.NewBcryptHasher(cfg.OTP.BcryptCost), m,
		otp.WithLogger(log.With().Str("component", "otp").Logger()))
	if cfg.OTP.TestMode {
		log.Warn().Msg("otp test mode enabled; a fixed code is accepted and no SMS is sent")
	}

	mailer := email.NewNoopService()
	if cfg.SMTP.Enabled() {
		mailer = email.NewSMTPService(email.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}
	a.queue = make(chan email.Message, notificationQueueSize)
	a.worker = worker.NewNotificationWorker(a.queue, mailer, worker.NotificationWorkerConfig{}, m)

	blobs, err := blobstore.NewLocalStore(cfg.Storage.Dir, cfg.Storage.BaseURL)
	if err != nil {
		return err
	}

	aptSvc := appointment.NewService(repos.Appointments, repos.Doctors, repos.Users,
		payment.NewMockProcessor(), locker, notification.NewService(repos.Users, a.queue, m),
		consult.NewStubProvider(), m)

	authMw := middleware.NewAuthMiddleware(jwt)
	engine, err := router.New(router.Config{
		Production:       cfg.App.IsProduction(),
		ClientURL:        cfg.CORS.ClientURL,
		RateLimit:        rate.Limit(cfg.Server.RateLimit),
		RateBurst:        cfg.Server.RateBurst,
		OTPRateLimit:     rate.Limit(cfg.Server.OTPRateLimit),
		OTPRateBurst:     cfg.Server.OTPRateBurst,
		MetricsNamespace: cfg.Metrics.Namespace,
		Registry:         reg,
		FilesDir:         cfg.Storage.Dir,
	}, authMw, router.Handlers{
		Auth:   authhandler.NewHandler(authsvc.NewService(repos.Users, repos.Patients, repos.Doctors, repos.Pharmacies, otpSvc, jwt)),
		Health: health.NewHandler(checks),
		Domain: []router.Handler{
			apthandler.NewHandler(aptSvc),
			doctorhandler.NewHandler(doctor.NewService(repos.Doctors)),
			pharmacyhandler.NewHandler(pharmacy.NewService(repos.Pharmacies, repos.Medicines)),
			medicinehandler.NewHandler(medicine.NewService(repos.Medicines)),
			recordhandler.NewHandler(record.NewService(repos.Records, repos.Users, blobs, cfg.Storage.MaxFileSize), cfg.Storage.MaxFileSize),
			symptomhandler.NewHandler(symptom.NewCannedAnalyzer()),
		},
	})
	if err != nil {
		return err
	}

	a.server = newServer(cfg.Server, engine)
	return nil
}

func otpStore(cfg *config.Config, rdb *redis.Client) otp.Store {
	if cfg.OTP.Store == "redis" && rdb != nil {
		return otp.NewRedisStore(rdb)
	}
	return otp.NewMemoryStore(time.Minute)
}

func smsSender(cfg *config.Config) otp.Sender {
	if cfg.OTP.TestMode || !cfg.Twilio.Enabled() {
		return otp.NewLogSender(log.With().Str("component", "sms").Logger())
	}
	return otp.NewTwilioSender(otp.TwilioConfig{
		AccountSID:  cfg.Twilio.AccountSID,
		AuthToken:   cfg.Twilio.AuthToken,
		PhoneNumber: cfg.Twilio.PhoneNumber,
		BaseURL:     cfg.Twilio.BaseURL,
		Timeout:     cfg.Twilio.Timeout,
	})
}

func newServer(cfg config.ServerConfig, engine *gin.Engine) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		a.worker.Start(workerCtx)
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", a.server.Addr).Str("env", a.cfg.App.Env).Msg("server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	log.Info().Msg("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	stopWorker()
	<-workerDone
	return serveErr
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("close failed")
		}
	}
	a.closers = nil
}
