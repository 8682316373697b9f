package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"model-parameters/internal/core/domain"
	"model-parameters/internal/testutil"
)

func setupHyperparameterService() (*testutil.MockModelRepository, *testutil.MockKPITableStore, *HyperparameterService) {
	repo := new(testutil.MockModelRepository)
	store := new(testutil.MockKPITableStore)
	svc := NewHyperparameterService(repo, NewKPIService(store, repo, testDefaults))
	return repo, store, svc
}

func expectHyperparameterFile(repo *testutil.MockModelRepository, modelID, fileName, content string) {
	repo.On("ListModelFiles", mock.Anything, modelID).Return([]domain.ModelFile{
		{ID: "score", Name: "score.py"},
		{ID: "hp-" + modelID, Name: fileName},
	}, nil)
	repo.On("GetFileContent", mock.Anything, modelID, "hp-"+modelID).Return([]byte(content), nil)
}

func TestHyperparameterService_Get(t *testing.T) {
	repo, _, svc := setupHyperparameterService()
	expectHyperparameterFile(repo, testModelID, "ForestHyperparameters.json", `{"hyperparameters":{"C":1.0}}`)

	doc, name, err := svc.Get(context.Background(), domain.RefByID(testModelID))
	require.NoError(t, err)
	assert.Equal(t, "ForestHyperparameters.json", name)
	assert.Contains(t, doc.Hyperparameters, "C")
}

func TestHyperparameterService_Get_ByName(t *testing.T) {
	repo, _, svc := setupHyperparameterService()
	repo.On("GetModel", mock.Anything, "Forest").Return(&domain.Model{ID: testModelID, Name: "Forest"}, nil).Once()
	expectHyperparameterFile(repo, testModelID, "ForestHyperparameters.json", `{"hyperparameters":{}}`)

	_, _, err := svc.Get(context.Background(), domain.RefByName("Forest"))
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestHyperparameterService_Get_NoFile(t *testing.T) {
	repo, _, svc := setupHyperparameterService()
	repo.On("ListModelFiles", mock.Anything, testModelID).Return([]domain.ModelFile{{ID: "s", Name: "score.py"}}, nil)

	_, _, err := svc.Get(context.Background(), domain.RefByID(testModelID))
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
}

func TestHyperparameterService_Get_Malformed(t *testing.T) {
	repo, _, svc := setupHyperparameterService()
	expectHyperparameterFile(repo, testModelID, "ForestHyperparameters.json", `{"params":{}}`)

	_, _, err := svc.Get(context.Background(), domain.RefByID(testModelID))
	assert.ErrorIs(t, err, domain.ErrMalformedDocument)
	assert.Contains(t, err.Error(), "ForestHyperparameters.json")
}

func TestHyperparameterService_Add(t *testing.T) {
	repo, _, svc := setupHyperparameterService()
	expectHyperparameterFile(repo, testModelID, "ForestHyperparameters.json", `{"hyperparameters":{"C":1.0}}`)

	var uploaded []byte
	repo.On("UploadFileContent", mock.Anything, testModelID, mock.AnythingOfType("[]uint8"), "ForestHyperparameters.json").
		Run(func(args mock.Arguments) { uploaded = args.Get(2).([]byte) }).
		Return(nil)

	err := svc.Add(context.Background(), domain.RefByID(testModelID), map[string]any{"max_depth": 5})
	require.NoError(t, err)

	assert.JSONEq(t, `{"hyperparameters":{"C":1.0,"max_depth":5}}`, string(uploaded))
	assert.Contains(t, string(uploaded), "\n    \"hyperparameters\": {\n        \"C\": 1.0,")
	repo.AssertExpectations(t)
}

func TestHyperparameterService_Add_Overwrites(t *testing.T) {
	repo, _, svc := setupHyperparameterService()
	expectHyperparameterFile(repo, testModelID, "hp.json", `{"hyperparameters":{"C":1.0},"kpis":{"2023-01":{"AUC":"0.9"}}}`)

	var uploaded []byte
	repo.On("UploadFileContent", mock.Anything, testModelID, mock.Anything, "hp.json").
		Run(func(args mock.Arguments) { uploaded = args.Get(2).([]byte) }).
		Return(nil)

	err := svc.Add(context.Background(), domain.RefByID(testModelID), map[string]any{"C": 0.1})
	require.NoError(t, err)

	doc, err := domain.ParseHyperparameterDocument(uploaded)
	require.NoError(t, err)
	assert.Equal(t, json.Number("0.1"), doc.Hyperparameters["C"])
	assert.Equal(t, "0.9", doc.KPIs["2023-01"]["AUC"])
}

func TestHyperparameterService_Add_UploadError(t *testing.T) {
	repo, _, svc := setupHyperparameterService()
	expectHyperparameterFile(repo, testModelID, "hp.json", `{"hyperparameters":{}}`)

	uploadErr := errors.New("403 forbidden")
	repo.On("UploadFileContent", mock.Anything, testModelID, mock.Anything, "hp.json").Return(uploadErr)

	err := svc.Add(context.Background(), domain.RefByID(testModelID), map[string]any{"a": 1})
	assert.ErrorIs(t, err, uploadErr)
}

func TestHyperparameterService_UpdateKPIs(t *testing.T) {
	repo, store, svc := setupHyperparameterService()

	m1 := testModelID
	m2 := "11111111-2222-4333-8444-555555555555"
	m3 := "99999999-8888-4777-8666-555555555555"

	store.On("ListColumns", mock.Anything, testLocation()).Return([]domain.Column{
		{Name: domain.ColumnModelUUID}, {Name: domain.ColumnModelName}, {Name: domain.ColumnTimeLabel}, {Name: "AUC"},
	}, nil)
	store.On("ListRows", mock.Anything, testLocation(), mock.Anything).Return([][]any{
		{m1, "Forest", "2023-01", "0.9"},
		{m2, "Boost", "2023-01", "0.8"},
		{m1, "Forest", "2023-02", "0.85"},
		{m3, "Tree", "2023-01", "0.7"},
	}, nil)

	expectHyperparameterFile(repo, m1, "ForestHyperparameters.json", `{"hyperparameters":{"C":1.0}}`)
	repo.On("ListModelFiles", mock.Anything, m2).Return([]domain.ModelFile{{ID: "s", Name: "score.py"}}, nil)
	expectHyperparameterFile(repo, m3, "TreeHyperparameters.json", `{"hyperparameters":{}}`)

	uploads := map[string][]byte{}
	repo.On("UploadFileContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { uploads[args.String(1)] = args.Get(2).([]byte) }).
		Return(nil)

	summary, err := svc.UpdateKPIs(context.Background(), domain.RefByID(testProjectID), domain.KPIQuery{})
	require.NoError(t, err)

	assert.Equal(t, []string{m1, m3}, summary.Updated)
	require.Len(t, summary.Skipped, 1)
	assert.Equal(t, m2, summary.Skipped[0].ModelID)
	assert.Equal(t, "Boost", summary.Skipped[0].ModelName)
	assert.ErrorIs(t, summary.Skipped[0].Err, domain.ErrFileNotFound)
	assert.ErrorIs(t, summary.Err(), domain.ErrFileNotFound)

	assert.JSONEq(t, `{
		"hyperparameters": {"C": 1.0},
		"kpis": {
			"2023-01": {"ModelName": "Forest", "AUC": "0.9"},
			"2023-02": {"ModelName": "Forest", "AUC": "0.85"}
		}
	}`, string(uploads[m1]))
	assert.JSONEq(t, `{"hyperparameters":{},"kpis":{"2023-01":{"ModelName":"Tree","AUC":"0.7"}}}`, string(uploads[m3]))
	assert.NotContains(t, uploads, m2)
}

func TestHyperparameterService_UpdateKPIs_UploadFailureIsSkipped(t *testing.T) {
	repo, store, svc := setupHyperparameterService()

	store.On("ListColumns", mock.Anything, testLocation()).Return([]domain.Column{
		{Name: domain.ColumnModelUUID}, {Name: domain.ColumnTimeLabel}, {Name: "AUC"},
	}, nil)
	store.On("ListRows", mock.Anything, testLocation(), mock.Anything).Return([][]any{{testModelID, "2023-01", "0.9"}}, nil)
	expectHyperparameterFile(repo, testModelID, "hp.json", `{"hyperparameters":{}}`)
	repo.On("UploadFileContent", mock.Anything, testModelID, mock.Anything, "hp.json").Return(errors.New("503"))

	summary, err := svc.UpdateKPIs(context.Background(), domain.RefByID(testProjectID), domain.KPIQuery{})
	require.NoError(t, err)
	assert.Empty(t, summary.Updated)
	assert.Len(t, summary.Skipped, 1)
	assert.Error(t, summary.Err())
}

func TestHyperparameterService_UpdateKPIs_TableErrorIsFatal(t *testing.T) {
	repo, store, svc := setupHyperparameterService()

	store.On("ListColumns", mock.Anything, testLocation()).Return([]domain.Column{}, nil)
	repo.On("GetProject", mock.Anything, testProjectID).Return(&domain.Project{ID: testProjectID, Name: "Churn"}, nil)

	summary, err := svc.UpdateKPIs(context.Background(), domain.RefByID(testProjectID), domain.KPIQuery{})
	assert.Nil(t, summary)
	assert.ErrorIs(t, err, domain.ErrNoKPITable)
}

func TestHyperparameterService_UpdateKPIs_Cancelled(t *testing.T) {
	_, store, svc := setupHyperparameterService()

	store.On("ListColumns", mock.Anything, testLocation()).Return([]domain.Column{{Name: domain.ColumnModelUUID}}, nil)
	store.On("ListRows", mock.Anything, testLocation(), mock.Anything).Return([][]any{{testModelID}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := svc.UpdateKPIs(ctx, domain.RefByID(testProjectID), domain.KPIQuery{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, summary.Updated)
	assert.Empty(t, summary.Skipped)
}

func TestUpdateSummary_Err_Empty(t *testing.T) {
	s := &UpdateSummary{Updated: []string{"m1"}}
	assert.NoError(t, s.Err())
}
