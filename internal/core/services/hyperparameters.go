package services

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"model-parameters/internal/core/domain"
	"model-parameters/internal/core/ports/output"
)

// HyperparameterService reads and rewrites the hyperparameter file stored
// with a model.
type HyperparameterService struct {
	repo     ports.ModelRepository
	resolver *Resolver
	locator  *FileLocator
	kpis     *KPIService
}

func NewHyperparameterService(repo ports.ModelRepository, kpis *KPIService) *HyperparameterService {
	return &HyperparameterService{
		repo:     repo,
		resolver: NewResolver(repo),
		locator:  NewFileLocator(repo),
		kpis:     kpis,
	}
}

// Get returns the model's hyperparameter document and the file name it is
// stored under.
func (s *HyperparameterService) Get(ctx context.Context, model domain.Ref) (*domain.HyperparameterDocument, string, error) {
	modelID, err := s.resolver.ResolveModel(ctx, model)
	if err != nil {
		return nil, "", err
	}
	return s.getByID(ctx, modelID)
}

// Add upserts pairs into the model's hyperparameters and uploads the file
// back under its original name.
func (s *HyperparameterService) Add(ctx context.Context, model domain.Ref, pairs map[string]any) error {
	modelID, err := s.resolver.ResolveModel(ctx, model)
	if err != nil {
		return err
	}

	doc, fileName, err := s.getByID(ctx, modelID)
	if err != nil {
		return err
	}
	for k, v := range pairs {
		doc.Set(k, v)
	}

	if err := s.put(ctx, modelID, doc, fileName); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"model_id": modelID,
		"file":     fileName,
		"keys":     len(pairs),
	}).Info("hyperparameters added")

	return nil
}

// SkippedModel is a model the batch KPI update could not write.
type SkippedModel struct {
	ModelID   string
	ModelName string
	Err       error
}

// UpdateSummary reports what a batch KPI update did.
type UpdateSummary struct {
	Updated []string
	Skipped []SkippedModel
}

// Err aggregates the causes of every skipped model, or returns nil.
func (s *UpdateSummary) Err() error {
	errs := make([]error, 0, len(s.Skipped))
	for _, sk := range s.Skipped {
		errs = append(errs, fmt.Errorf("model %s: %w", sk.ModelID, sk.Err))
	}
	return utilerrors.NewAggregate(errs)
}

// UpdateKPIs merges the project's KPI table into the hyperparameter file of
// every model that appears in it, one model at a time. A model that fails is
// logged and skipped; only a failure to read the KPI table or a cancelled
// context stops the batch.
func (s *HyperparameterService) UpdateKPIs(ctx context.Context, project domain.Ref, q domain.KPIQuery) (*UpdateSummary, error) {
	table, err := s.kpis.GetProjectKPIs(ctx, project, q)
	if err != nil {
		return nil, err
	}

	summary := &UpdateSummary{}
	for _, modelID := range table.ModelIDs() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if err := s.updateModelKPIs(ctx, modelID, table); err != nil {
			name := table.ModelName(modelID)
			log.WithError(err).WithFields(log.Fields{
				"model_id":   modelID,
				"model_name": name,
			}).Warn("no hyperparameter file updated for model, continuing with next model")
			summary.Skipped = append(summary.Skipped, SkippedModel{ModelID: modelID, ModelName: name, Err: err})
			continue
		}
		summary.Updated = append(summary.Updated, modelID)
	}

	log.WithFields(log.Fields{
		"updated": len(summary.Updated),
		"skipped": len(summary.Skipped),
	}).Info("KPI update finished")

	return summary, nil
}

func (s *HyperparameterService) updateModelKPIs(ctx context.Context, modelID string, table *domain.KPITable) error {
	doc, fileName, err := s.getByID(ctx, modelID)
	if err != nil {
		return err
	}
	return s.put(ctx, modelID, MergeKPIs(modelID, doc, table), fileName)
}

func (s *HyperparameterService) getByID(ctx context.Context, modelID string) (*domain.HyperparameterDocument, string, error) {
	content, fileName, err := s.locator.FindFile(ctx, modelID, domain.HyperparametersFileFragment)
	if err != nil {
		return nil, "", err
	}
	doc, err := domain.ParseHyperparameterDocument(content)
	if err != nil {
		return nil, "", fmt.Errorf("parse %s: %w", fileName, err)
	}
	return doc, fileName, nil
}

func (s *HyperparameterService) put(ctx context.Context, modelID string, doc *domain.HyperparameterDocument, fileName string) error {
	content, err := doc.Encode()
	if err != nil {
		return err
	}
	return s.repo.UploadFileContent(ctx, modelID, content, fileName)
}
