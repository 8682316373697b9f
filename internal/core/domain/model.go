package domain

// Model is the subset of a registered model the helpers need.
type Model struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ProjectID   string `json:"projectId,omitempty"`
	ProjectName string `json:"projectName,omitempty"`
}

// Project groups models in the model-management service.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ModelFile is a named content blob attached to one model.
type ModelFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Estimator is implemented by trained models whose parameters can be
// exported, in the manner of a scikit-learn estimator.
type Estimator interface {
	EstimatorType() string
	GetParams() map[string]any
}
