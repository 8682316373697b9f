// Package modelparams reads and maintains the hyperparameter and KPI files
// stored with models in a remote model-management service.
package modelparams

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"model-parameters/internal/adapters/secondary/cas"
	"model-parameters/internal/adapters/secondary/modelrepository"
	"model-parameters/internal/adapters/secondary/session"
	"model-parameters/internal/config"
	"model-parameters/internal/core/domain"
	"model-parameters/internal/core/services"
)

type (
	Config                 = config.Config
	ServiceConfig          = config.ServiceConfig
	KPIConfig              = config.KPIConfig
	LoggerConfig           = config.LoggerConfig
	Ref                    = domain.Ref
	Model                  = domain.Model
	Project                = domain.Project
	ModelFile              = domain.ModelFile
	Estimator              = domain.Estimator
	HyperparameterDocument = domain.HyperparameterDocument
	KPIQuery               = domain.KPIQuery
	KPITable               = domain.KPITable
	KPIRow                 = domain.KPIRow
	KPIError               = domain.KPIError
	UpdateSummary          = services.UpdateSummary
	SkippedModel           = services.SkippedModel
	StatusError            = session.StatusError
)

var (
	RefByID     = domain.RefByID
	RefByName   = domain.RefByName
	RefByRecord = domain.RefByRecord
	ParseRef    = domain.ParseRef
	IsValidID   = domain.IsValidID

	ParseHyperparameterDocument = domain.ParseHyperparameterDocument
	NewHyperparameterDocument   = domain.NewHyperparameterDocument
)

var (
	ErrModelNotFound     = domain.ErrModelNotFound
	ErrProjectNotFound   = domain.ErrProjectNotFound
	ErrFileNotFound      = domain.ErrFileNotFound
	ErrInvalidRef        = domain.ErrInvalidRef
	ErrInvalidModelID    = domain.ErrInvalidModelID
	ErrMalformedDocument = domain.ErrMalformedDocument
	ErrUnsupportedModel  = domain.ErrUnsupportedModel
	ErrNoKPITable        = domain.ErrNoKPITable
	ErrNoKPIData         = domain.ErrNoKPIData
	ErrInvalidFilter     = domain.ErrInvalidFilter
)

// Client wires one session to the hyperparameter and KPI services.
type Client struct {
	resolver  *services.Resolver
	locator   *services.FileLocator
	hp        *services.HyperparameterService
	kpis      *services.KPIService
	generator *services.HyperparameterGenerator
}

type Option func(*options)

type options struct {
	fs afero.Fs
}

// WithFs sets the filesystem GenerateHyperparameters writes to.
func WithFs(fs afero.Fs) Option {
	return func(o *options) { o.fs = fs }
}

func New(cfg *Config, opts ...Option) *Client {
	o := options{fs: afero.NewOsFs()}
	for _, opt := range opts {
		opt(&o)
	}

	s := session.New(&cfg.Service)
	repo := modelrepository.NewModelRepository(s)
	store := cas.NewTableStore(s, cfg.KPI.RowLimit)

	kpis := services.NewKPIService(store, repo, services.KPIDefaults{
		Server:   cfg.KPI.Server,
		Caslib:   cfg.KPI.Caslib,
		RowLimit: cfg.KPI.RowLimit,
	})

	return &Client{
		resolver:  services.NewResolver(repo),
		locator:   services.NewFileLocator(repo),
		hp:        services.NewHyperparameterService(repo, kpis),
		kpis:      kpis,
		generator: services.NewHyperparameterGenerator(o.fs),
	}
}

// NewFromEnv loads configuration from the environment, configures the
// package logger and returns a Client.
func NewFromEnv(opts ...Option) (*Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	initLogger(cfg)
	return New(cfg, opts...), nil
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func (c *Client) GetHyperparameters(ctx context.Context, model Ref) (*HyperparameterDocument, string, error) {
	return c.hp.Get(ctx, model)
}

// AddHyperparameters upserts pairs into the model's stored hyperparameters.
func (c *Client) AddHyperparameters(ctx context.Context, model Ref, pairs map[string]any) error {
	return c.hp.Add(ctx, model, pairs)
}

// UpdateKPIs merges the project's KPI history into the hyperparameter file of
// every model that appears in it. Models that cannot be updated are reported
// in the summary.
func (c *Client) UpdateKPIs(ctx context.Context, project Ref, q KPIQuery) (*UpdateSummary, error) {
	return c.hp.UpdateKPIs(ctx, project, q)
}

func (c *Client) GetProjectKPIs(ctx context.Context, project Ref, q KPIQuery) (*KPITable, error) {
	return c.kpis.GetProjectKPIs(ctx, project, q)
}

// GenerateHyperparameters writes <prefix>Hyperparameters.json into outputDir
// and returns its path.
func (c *Client) GenerateHyperparameters(model any, prefix, outputDir string) (string, error) {
	return c.generator.Generate(model, prefix, outputDir)
}

// FindFile returns the content and stored name of the first file of the model
// whose name contains fragment, ignoring case.
func (c *Client) FindFile(ctx context.Context, model Ref, fragment string) ([]byte, string, error) {
	modelID, err := c.resolver.ResolveModel(ctx, model)
	if err != nil {
		return nil, "", err
	}
	return c.locator.FindFile(ctx, modelID, fragment)
}
