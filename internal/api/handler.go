package api

import (
	"errors"
	"time"

	"github.com/terraincognita07/cyclecast/internal/db"
	"github.com/terraincognita07/cyclecast/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	authCookieName       = "cyclecast_auth"
	contextUserKey       = "current_user"
	defaultAuthTokenTTL  = 7 * 24 * time.Hour
	rememberAuthTokenTTL = 30 * 24 * time.Hour
)

type Dependencies struct {
	Auth     *services.AuthService
	Days     *services.DayService
	Profiles *services.ProfileService
	Cycles   *services.CycleService
}

type Options struct {
	SecretKey    string
	Location     *time.Location
	CookieSecure bool
	Logger       *zap.Logger
}

type Handler struct {
	authService    *services.AuthService
	dayService     *services.DayService
	profileService *services.ProfileService
	cycleService   *services.CycleService

	secretKey    []byte
	location     *time.Location
	cookieSecure bool
	logger       *zap.Logger
	loginLimiter *attemptLimiter
	now          func() time.Time
}

func NewHandler(deps Dependencies, options Options) (*Handler, error) {
	if deps.Auth == nil || deps.Days == nil || deps.Profiles == nil || deps.Cycles == nil {
		return nil, errors.New("all services are required")
	}
	if len(options.SecretKey) == 0 {
		return nil, errors.New("secret key is required")
	}
	if options.Location == nil {
		options.Location = time.UTC
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}

	return &Handler{
		authService:    deps.Auth,
		dayService:     deps.Days,
		profileService: deps.Profiles,
		cycleService:   deps.Cycles,
		secretKey:      []byte(options.SecretKey),
		location:       options.Location,
		cookieSecure:   options.CookieSecure,
		logger:         options.Logger.Named("api"),
		loginLimiter:   newAttemptLimiter(),
		now:            time.Now,
	}, nil
}

// NewHandlerWithDatabase wires the gorm repositories and services behind a handler.
func NewHandlerWithDatabase(database *gorm.DB, enricher services.Enricher, options Options) (*Handler, error) {
	if database == nil {
		return nil, errors.New("database is required")
	}
	return NewHandler(NewDependencies(db.NewRepositories(database), enricher, options.Location, options.Logger), options)
}

func NewDependencies(repositories *db.Repositories, enricher services.Enricher, location *time.Location, logger *zap.Logger) Dependencies {
	return Dependencies{
		Auth:     services.NewAuthService(repositories.Users),
		Days:     services.NewDayService(repositories.DailyLogs, repositories.Users),
		Profiles: services.NewProfileService(repositories.Users),
		Cycles:   services.NewCycleService(repositories.DailyLogs, repositories.Users, enricher, location, logger),
	}
}

func (handler *Handler) today() time.Time {
	return services.DateAtLocation(handler.now(), handler.location)
}
