package services

import (
	"context"
	"fmt"
	"strings"

	"model-parameters/internal/core/domain"
	"model-parameters/internal/core/ports/output"
)

type FileLocator struct {
	repo ports.ModelRepository
}

func NewFileLocator(repo ports.ModelRepository) *FileLocator {
	return &FileLocator{repo: repo}
}

// FindFile returns the content and exact name of the first model file, in
// listing order, whose name contains fragment regardless of case.
func (l *FileLocator) FindFile(ctx context.Context, modelID, fragment string) ([]byte, string, error) {
	if modelID == "" {
		return nil, "", domain.ErrInvalidModelID
	}

	files, err := l.repo.ListModelFiles(ctx, modelID)
	if err != nil {
		return nil, "", err
	}

	needle := strings.ToLower(fragment)
	for _, f := range files {
		if !strings.Contains(strings.ToLower(f.Name), needle) {
			continue
		}
		content, err := l.repo.GetFileContent(ctx, modelID, f.ID)
		if err != nil {
			return nil, "", err
		}
		return content, f.Name, nil
	}

	return nil, "", fmt.Errorf("%w: no file containing %q exists within the files of model %s",
		domain.ErrFileNotFound, fragment, modelID)
}
