package portal

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/courseforge-portal/internal/api"
	"github.com/noah-isme/courseforge-portal/internal/config"
	"github.com/noah-isme/courseforge-portal/internal/dto"
	"github.com/noah-isme/courseforge-portal/internal/handler"
	"github.com/noah-isme/courseforge-portal/internal/httpclient"
	"github.com/noah-isme/courseforge-portal/internal/middleware"
	"github.com/noah-isme/courseforge-portal/internal/router"
	"github.com/noah-isme/courseforge-portal/internal/service"
	"github.com/noah-isme/courseforge-portal/internal/session"
	"github.com/noah-isme/courseforge-portal/internal/storage"
)

// Portal owns one CourseForge session and every component bound to it.
type Portal struct {
	Config      config.Config
	Logger      zerolog.Logger
	Validator   *validator.Validate
	Client      *httpclient.Client
	Auth        *api.Auth
	Courseworks *api.Courseworks
	Subjects    *api.Subjects
	Users       *api.Users
	Departments *api.Departments
	Session     *session.Store

	CourseworkState service.CourseworkState
	SubjectsState   service.SubjectsState
	AdminStats      service.AdminStats

	nats *nats.Conn
}

// Options overrides pieces of the runtime, mostly for tests.
type Options struct {
	Store storage.Store
	Now   func() time.Time
}

// New wires the backend client, the session store and the state objects.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger, opts Options) (*Portal, error) {
	client, err := httpclient.New(httpclient.Config{
		BaseURL:   cfg.APIBaseURL,
		Timeout:   cfg.RequestTimeout,
		UserAgent: cfg.AppName,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create backend client: %w", err)
	}

	kv := opts.Store
	if kv == nil {
		kv, err = storage.Open(ctx, storage.Config{
			Driver:    cfg.StorageDriver,
			Path:      cfg.StoragePath,
			RedisURL:  cfg.RedisURL,
			Namespace: cfg.Namespace,
		})
		if err != nil {
			return nil, fmt.Errorf("open session storage: %w", err)
		}
	}

	p := &Portal{
		Config:      cfg,
		Logger:      logger,
		Validator:   dto.NewValidator(),
		Client:      client,
		Auth:        api.NewAuth(client),
		Courseworks: api.NewCourseworks(client),
		Subjects:    api.NewSubjects(client),
		Users:       api.NewUsers(client),
		Departments: api.NewDepartments(client),
	}

	sessionOpts := []session.Option{}
	if opts.Now != nil {
		sessionOpts = append(sessionOpts, session.WithClock(opts.Now))
	}
	if cfg.NATSURL != "" {
		conn, err := session.ConnectNATS(cfg.NATSURL)
		if err != nil {
			logger.Warn().Err(err).Str("url", cfg.NATSURL).Msg("session events disabled, nats unreachable")
		} else {
			p.nats = conn
			sessionOpts = append(sessionOpts, session.WithNotifier(session.NewNATSNotifier(conn, cfg.NATSSubject)))
		}
	}

	store, err := session.NewStore(ctx, p.Auth, kv, p.Validator, logger, sessionOpts...)
	if err != nil {
		_ = kv.Close()
		p.closeNATS()
		return nil, fmt.Errorf("create session store: %w", err)
	}
	p.Session = store
	client.Bind(store)

	p.CourseworkState = service.NewCourseworkState(p.Courseworks, store, p.Validator, logger)
	p.SubjectsState = service.NewSubjectsState(p.Subjects, logger)
	p.AdminStats = service.NewAdminStats(p.Users, p.Subjects, logger)

	return p, nil
}

// App builds the fiber application that serves the portal surface.
func (p *Portal) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               p.Config.AppName,
		ServerHeader:          p.Config.AppName,
		DisableStartupMessage: true,
	})

	requestLogger := p.Logger.With().Str("component", "http").Logger()
	middleware.Register(app, middleware.Config{
		Logger:        &requestLogger,
		DefaultLocale: p.Config.Locale,
		AccessLog:     p.Config.AccessLog,
		AllowOrigins:  p.Config.AllowOrigins,
	})

	router.Register(app, p.Config, router.Dependencies{
		Session:           p.Session,
		AuthHandler:       handler.NewAuthHandler(p.Session, p.Logger),
		DashboardHandler:  handler.NewDashboardHandler(p.Session, p.CourseworkState, p.AdminStats, p.Logger),
		CourseworkHandler: handler.NewCourseworkHandler(p.Courseworks, p.CourseworkState, p.SubjectsState, p.Logger),
		SubjectHandler:    handler.NewSubjectAdminHandler(p.Subjects, p.SubjectsState, p.AdminStats, p.Validator, p.Logger),
		DepartmentHandler: handler.NewDepartmentHandler(p.Departments, p.Logger),
		AuthLimiter:       middleware.AuthRateLimit(10, time.Minute),
	})

	return app
}

// Close releases the session storage and the event connection.
func (p *Portal) Close() error {
	p.closeNATS()
	if p.Session == nil {
		return nil
	}
	return p.Session.Close()
}

func (p *Portal) closeNATS() {
	if p.nats != nil {
		p.nats.Close()
		p.nats = nil
	}
}
