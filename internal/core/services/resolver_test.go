package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"model-parameters/internal/core/domain"
	"model-parameters/internal/testutil"
)

const (
	testModelID   = "6f1d7c3e-2b4a-4c8e-9d0f-1a2b3c4d5e6f"
	testProjectID = "a0b1c2d3-e4f5-4a6b-8c7d-9e0f1a2b3c4d"
)

func TestResolver_ResolveModel_ByID(t *testing.T) {
	repo := new(testutil.MockModelRepository)
	r := NewResolver(repo)

	id, err := r.ResolveModel(context.Background(), domain.RefByID("opaque-id"))
	assert.NoError(t, err)
	assert.Equal(t, "opaque-id", id)
	repo.AssertNotCalled(t, "GetModel", mock.Anything, mock.Anything)
}

func TestResolver_ResolveModel_ByRecord(t *testing.T) {
	repo := new(testutil.MockModelRepository)
	r := NewResolver(repo)

	id, err := r.ResolveModel(context.Background(), domain.RefByRecord(map[string]any{"id": "m1", "name": "Forest"}))
	assert.NoError(t, err)
	assert.Equal(t, "m1", id)
	repo.AssertNotCalled(t, "GetModel", mock.Anything, mock.Anything)
}

func TestResolver_ResolveModel_RecordWithoutID(t *testing.T) {
	repo := new(testutil.MockModelRepository)
	r := NewResolver(repo)

	repo.On("GetModel", mock.Anything, "Forest").Return(&domain.Model{ID: "m1", Name: "Forest"}, nil).Once()

	id, err := r.ResolveModel(context.Background(), domain.RefByRecord(map[string]any{"name": "Forest"}))
	assert.NoError(t, err)
	assert.Equal(t, "m1", id)
	repo.AssertExpectations(t)
}

func TestResolver_ResolveModel_ByName(t *testing.T) {
	repo := new(testutil.MockModelRepository)
	r := NewResolver(repo)

	repo.On("GetModel", mock.Anything, "Forest").Return(&domain.Model{ID: testModelID, Name: "Forest"}, nil).Once()

	id, err := r.ResolveModel(context.Background(), domain.RefByName("Forest"))
	assert.NoError(t, err)
	assert.Equal(t, testModelID, id)
	repo.AssertNumberOfCalls(t, "GetModel", 1)
}

func TestResolver_ResolveModel_IDShapedName(t *testing.T) {
	repo := new(testutil.MockModelRepository)
	r := NewResolver(repo)

	id, err := r.ResolveModel(context.Background(), domain.RefByName(testModelID))
	assert.NoError(t, err)
	assert.Equal(t, testModelID, id)
	repo.AssertNotCalled(t, "GetModel", mock.Anything, mock.Anything)
}

func TestResolver_ResolveModel_NotFound(t *testing.T) {
	repo := new(testutil.MockModelRepository)
	r := NewResolver(repo)

	repo.On("GetModel", mock.Anything, "Ghost").Return(nil, domain.ErrModelNotFound)

	_, err := r.ResolveModel(context.Background(), domain.RefByName("Ghost"))
	assert.ErrorIs(t, err, domain.ErrModelNotFound)
}

func TestResolver_ResolveModel_EmptyRef(t *testing.T) {
	repo := new(testutil.MockModelRepository)
	r := NewResolver(repo)

	_, err := r.ResolveModel(context.Background(), domain.RefByName(""))
	assert.ErrorIs(t, err, domain.ErrInvalidRef)

	_, err = r.ResolveModel(context.Background(), domain.RefByRecord(map[string]any{}))
	assert.ErrorIs(t, err, domain.ErrInvalidRef)

	_, err = r.ResolveModel(context.Background(), domain.RefByID(""))
	assert.ErrorIs(t, err, domain.ErrInvalidRef)
}

func TestResolver_ResolveProject(t *testing.T) {
	repo := new(testutil.MockModelRepository)
	r := NewResolver(repo)

	repo.On("GetProject", mock.Anything, "Churn").Return(&domain.Project{ID: testProjectID, Name: "Churn"}, nil).Once()

	id, err := r.ResolveProject(context.Background(), domain.RefByName("Churn"))
	assert.NoError(t, err)
	assert.Equal(t, testProjectID, id)

	id, err = r.ResolveProject(context.Background(), domain.ParseRef(testProjectID))
	assert.NoError(t, err)
	assert.Equal(t, testProjectID, id)

	repo.AssertNumberOfCalls(t, "GetProject", 1)
}

func TestResolver_ResolveProject_EmptyID(t *testing.T) {
	repo := new(testutil.MockModelRepository)
	r := NewResolver(repo)

	repo.On("GetProject", mock.Anything, "Churn").Return(&domain.Project{Name: "Churn"}, nil)

	_, err := r.ResolveProject(context.Background(), domain.RefByName("Churn"))
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}
