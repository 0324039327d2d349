package setup

import (
	"net/http"
	"time"

	"github.com/curator-cms/curator/internal/behavior"
	"github.com/curator-cms/curator/internal/config"
	"github.com/curator-cms/curator/internal/handler"
	"github.com/curator-cms/curator/internal/jwt"
	"github.com/curator-cms/curator/internal/middleware"
	"github.com/curator-cms/curator/internal/registry"
	"github.com/curator-cms/curator/internal/relation"
	"github.com/curator-cms/curator/internal/service"
	"github.com/curator-cms/curator/internal/storage/fs"
	"github.com/curator-cms/curator/internal/storage/pg"
	"github.com/curator-cms/curator/internal/validation"
)

// Dependencies holds all initialized dependencies.
type Dependencies struct {
	Config            *config.Config
	Storage           *pg.Storage
	Handler           *handler.Handler
	AuthMiddleware    *middleware.Auth
	Engine            *behavior.Engine
	Registry          *registry.Registry
	PublicStorageRoot string
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(cfg)
	if err != nil {
		return nil, err
	}

	media, err := fs.New(cfg.Public.Storage)
	if err != nil {
		return nil, err
	}

	reg := registry.New()
	docs, err := relation.LoadSite(cfg.Public.RelationConfig, reg)
	if err != nil {
		return nil, err
	}
	engine := behavior.New(reg, docs, behavior.NewExtensions())

	validator := validation.New(cfg.Public.Attachments)
	client := &http.Client{Timeout: 30 * time.Second}
	attachments := service.NewAttachment(storage, media, validator, reg, client, cfg.Public.Attachments.VariantMaxPx)

	jwtService := jwt.New(cfg.JwtKey(), cfg.JwtTTL())
	auth := service.NewAuth(storage, jwtService)
	authMw := middleware.NewAuth(jwtService, cfg.Public.SecureCookies)

	h := handler.New(auth, attachments, engine, cfg)

	return &Dependencies{
		Config:            cfg,
		Storage:           storage,
		Handler:           h,
		AuthMiddleware:    authMw,
		Engine:            engine,
		Registry:          reg,
		PublicStorageRoot: media.PublicRoot(),
	}, nil
}
