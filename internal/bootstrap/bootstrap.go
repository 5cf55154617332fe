package bootstrap

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/phdtrack/internal/app/auth"
	appControllers "github.com/yigit/phdtrack/internal/app/controllers"
	appMigrations "github.com/yigit/phdtrack/internal/app/migrations"
	appRepos "github.com/yigit/phdtrack/internal/app/repositories"
	appRoutes "github.com/yigit/phdtrack/internal/app/routes"
	appServices "github.com/yigit/phdtrack/internal/app/services"
	"github.com/yigit/phdtrack/internal/config"
	"github.com/yigit/phdtrack/internal/db"
	appMiddleware "github.com/yigit/phdtrack/internal/middleware"
	pkgAuth "github.com/yigit/phdtrack/internal/pkg/auth"
	"github.com/yigit/phdtrack/internal/pkg/filestorage"
	"github.com/yigit/phdtrack/internal/pkg/helpers"
	"github.com/yigit/phdtrack/internal/pkg/logger"
)

// DefaultConfigPath is read when no --config flag is given
const DefaultConfigPath = "configs/config.yaml"

// Dependencies holds all the application dependencies
type Dependencies struct {
	Database      *db.Database
	Repos         *appRepos.Repositories
	FileStorage   *filestorage.LocalStorage
	RecordService appServices.RecordService
	AuthService   appServices.AuthService
	JWTService    *pkgAuth.JWTService
	AuthzService  *appAuth.AuthorizationService

	AuthController    *appControllers.AuthController
	StudentController *appControllers.StudentController
	FileController    *appControllers.FileController
	ExportController  *appControllers.ExportController
	AuthMiddleware    *appMiddleware.AuthMiddleware

	Logger zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
// A non-empty levelOverride wins over the configured level.
func LoadConfigAndSetupLogger(configPath, levelOverride string) (*config.Config, zerolog.Logger, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}
	if levelOverride != "" {
		cfg.Logging.Level = levelOverride
	}
	return cfg, SetupLogger(cfg), nil
}

// SetupLogger configures the package logger from cfg and returns it.
func SetupLogger(cfg *config.Config) zerolog.Logger {
	logLevel := logger.ParseLevel(cfg.Logging.Level)
	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})

	lgr := logger.Get()
	lgr.Debug().
		Str("logLevel", string(logLevel)).
		Str("logFormat", cfg.Logging.Format).
		Strs("envOverrides", cfg.EnvOverrides).
		Msg("Logger configured")
	return lgr
}

// SetupDatabase opens the store and brings its schema up to date.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.Database, error) {
	lgr.Info().Str("driver", cfg.Database.Driver).Msg("Establishing database connection...")
	database, err := db.Open(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}

	steps, err := appMigrations.NewMigrator(database).EnsureSchema(ctx)
	if err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	if len(steps) > 0 {
		lgr.Info().Strs("steps", steps).Msg("Database schema updated")
	} else {
		lgr.Debug().Msg("Database schema already up to date")
	}
	return database, nil
}

// BuildCore wires the record layer: repositories, file storage and services.
// Both the HTTP server and the command line use it.
func BuildCore(cfg *config.Config, database *db.Database, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Database: database, Logger: lgr}

	var err error
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Storage.UploadRoot)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.Repos = appRepos.NewRepositories(database)
	deps.RecordService = appServices.NewRecordService(database, deps.Repos, deps.FileStorage, cfg.Storage.ReleaseReplacedFiles)
	deps.AuthzService = appAuth.NewAuthorizationService(deps.RecordService)

	ensureJWTSecret(cfg, lgr)
	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 8*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	deps.AuthService, err = appServices.NewAuthService(
		deps.Repos.Students,
		deps.JWTService,
		appServices.AdminCredentials{
			Username:     cfg.Admin.Username,
			Password:     cfg.Admin.Password,
			PasswordHash: cfg.Admin.PasswordHash,
		},
		logger.Component("auth"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}
	return deps, nil
}

// BuildDependencies adds the HTTP layer on top of BuildCore.
func BuildDependencies(cfg *config.Config, database *db.Database, lgr zerolog.Logger) (*Dependencies, error) {
	if cfg.JWT.Secret == "" {
		lgr.Warn().Msg("jwt.secret is not set, using a random secret for this process")
	}
	deps, err := BuildCore(cfg, database, lgr)
	if err != nil {
		return nil, err
	}

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.AuthService)
	httpLog := logger.Component("http")
	deps.AuthController = appControllers.NewAuthController(deps.AuthService, deps.RecordService, httpLog)
	deps.StudentController = appControllers.NewStudentController(deps.RecordService, deps.AuthzService, httpLog)
	deps.FileController = appControllers.NewFileController(deps.FileStorage, deps.AuthzService, httpLog)
	deps.ExportController = appControllers.NewExportController(deps.RecordService, httpLog)
	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestLogger())

	if origins := cfg.AllowedOrigins(); len(origins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			ExposeHeaders:    []string{"Content-Disposition", "X-Export-Rows"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
		lgr.Info().Strs("origins", origins).Msg("CORS enabled")
	}

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.StudentController,
		deps.FileController,
		deps.ExportController,
		deps.AuthMiddleware,
	)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}

// ensureJWTSecret fills in a random per-process secret when none is configured.
// Tokens signed with it stop validating once the process exits.
func ensureJWTSecret(cfg *config.Config, lgr zerolog.Logger) {
	if cfg.JWT.Secret != "" {
		return
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		lgr.Fatal().Err(err).Msg("Failed to generate JWT secret")
	}
	cfg.JWT.Secret = hex.EncodeToString(buf)
	lgr.Debug().Msg("Generated a random JWT secret")
}
