package ports

import (
	"context"

	"model-parameters/internal/core/domain"
)

// KPITableStore reads tables from the remote tabular-analytics store.
type KPITableStore interface {
	// ListColumns returns the table schema in server order. A table that does
	// not exist yields an empty slice and no error.
	ListColumns(ctx context.Context, loc domain.TableLocation) ([]domain.Column, error)

	// ListRows returns each row's cells in server order. A missing table, or a response
	// without rows, yields an empty slice and no error.
	ListRows(ctx context.Context, loc domain.TableLocation, q domain.RowQuery) ([][]any, error)
}
