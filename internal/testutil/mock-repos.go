package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"model-parameters/internal/core/domain"
)

// MockModelRepository is a mock of ModelRepository.
type MockModelRepository struct {
	mock.Mock
}

func (m *MockModelRepository) ListModelFiles(ctx context.Context, modelID string) ([]domain.ModelFile, error) {
	args := m.Called(ctx, modelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ModelFile), args.Error(1)
}

func (m *MockModelRepository) GetFileContent(ctx context.Context, modelID, fileID string) ([]byte, error) {
	args := m.Called(ctx, modelID, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockModelRepository) UploadFileContent(ctx context.Context, modelID string, content []byte, fileName string) error {
	args := m.Called(ctx, modelID, content, fileName)
	return args.Error(0)
}

func (m *MockModelRepository) GetModel(ctx context.Context, idOrName string) (*domain.Model, error) {
	args := m.Called(ctx, idOrName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Model), args.Error(1)
}

func (m *MockModelRepository) GetProject(ctx context.Context, idOrName string) (*domain.Project, error) {
	args := m.Called(ctx, idOrName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

// MockKPITableStore is a mock of KPITableStore.
type MockKPITableStore struct {
	mock.Mock
}

func (m *MockKPITableStore) ListColumns(ctx context.Context, loc domain.TableLocation) ([]domain.Column, error) {
	args := m.Called(ctx, loc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Column), args.Error(1)
}

func (m *MockKPITableStore) ListRows(ctx context.Context, loc domain.TableLocation, q domain.RowQuery) ([][]any, error) {
	args := m.Called(ctx, loc, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]any), args.Error(1)
}
