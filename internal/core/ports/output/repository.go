package ports

import (
	"context"

	"model-parameters/internal/core/domain"
)

// ModelRepository is the model-management service's repository API.
type ModelRepository interface {
	// ListModelFiles returns the model's stored files in server order.
	ListModelFiles(ctx context.Context, modelID string) ([]domain.ModelFile, error)
	GetFileContent(ctx context.Context, modelID, fileID string) ([]byte, error)
	// UploadFileContent replaces the content of the model file called fileName,
	// creating it if it does not exist yet.
	UploadFileContent(ctx context.Context, modelID string, content []byte, fileName string) error

	// GetModel and GetProject accept an id or a display name. A missing target
	// yields domain.ErrModelNotFound or domain.ErrProjectNotFound.
	GetModel(ctx context.Context, idOrName string) (*domain.Model, error)
	GetProject(ctx context.Context, idOrName string) (*domain.Project, error)
}
