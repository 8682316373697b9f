package services

import (
	"fmt"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"model-parameters/internal/core/domain"
)

// HyperparameterGenerator writes a trained model's parameters to
// <prefix>Hyperparameters.json on a local filesystem.
type HyperparameterGenerator struct {
	fs afero.Fs
}

func NewHyperparameterGenerator(fs afero.Fs) *HyperparameterGenerator {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &HyperparameterGenerator{fs: fs}
}

// Generate returns the path it wrote. Models that are not a domain.Estimator
// are rejected with domain.ErrUnsupportedModel.
func (g *HyperparameterGenerator) Generate(model any, prefix, outputDir string) (string, error) {
	est, ok := model.(domain.Estimator)
	if !ok {
		return "", fmt.Errorf("%w: %T", domain.ErrUnsupportedModel, model)
	}

	content, err := domain.NewHyperparameterDocument(est.GetParams()).Encode()
	if err != nil {
		return "", err
	}

	path := filepath.Join(outputDir, prefix+domain.HyperparametersFileSuffix)
	if err := afero.WriteFile(g.fs, path, content, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	log.WithFields(log.Fields{
		"estimator_type": est.EstimatorType(),
		"path":           path,
	}).Info("hyperparameters generated")

	return path, nil
}
