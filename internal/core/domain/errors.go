package domain

import (
	"errors"
	"fmt"
)

// ============================================================================
// Lookup Errors
// ============================================================================

// Not found errors
var (
	ErrModelNotFound   = errors.New("model not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrFileNotFound    = errors.New("model file not found")
)

// Validation errors
var (
	ErrInvalidRef     = errors.New("reference has neither an id nor a name")
	ErrInvalidModelID = errors.New("model ID is required")
)

// ============================================================================
// Hyperparameter Errors
// ============================================================================

var (
	ErrMalformedDocument = errors.New("hyperparameter document is malformed")
	ErrUnsupportedModel  = errors.New("this model type is not currently supported for hyperparameter generation")
)

// ============================================================================
// KPI Table Errors
// ============================================================================

var (
	ErrNoKPITable    = errors.New("no KPI table")
	ErrNoKPIData     = errors.New("no KPI data")
	ErrInvalidFilter = errors.New("invalid KPI filter")
)

// KPIError reports that a project's KPI table, or the rows asked for, do not
// exist. It unwraps to ErrNoKPITable or ErrNoKPIData.
type KPIError struct {
	Err          error
	Project      string
	FilterColumn string
	FilterValue  string
}

func (e *KPIError) Error() string {
	switch {
	case errors.Is(e.Err, ErrNoKPITable):
		return fmt.Sprintf("No KPI table exists for project %s. Please confirm that the performance "+
			"definition completed or custom KPIs have been uploaded successfully.", e.Project)
	case e.FilterColumn != "" && e.FilterValue != "":
		return fmt.Sprintf("No KPIs were found when filtering with %s='%s'.", e.FilterColumn, e.FilterValue)
	default:
		return fmt.Sprintf("No KPIs were found for project %s.", e.Project)
	}
}

func (e *KPIError) Unwrap() error { return e.Err }
