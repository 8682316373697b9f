package cas

import (
	"context"
	"fmt"
	"strconv"

	"model-parameters/internal/adapters/secondary/session"
	"model-parameters/internal/core/domain"
	ports "model-parameters/internal/core/ports/output"
)

const (
	columnsURI = "/casManagement/servers/{server}/caslibs/{caslib}/tables/{table}/columns"
	rowsURI    = "/casRowSets/servers/{server}/caslibs/{caslib}/tables/{table}/rows"
)

type columnsResponse struct {
	Items []domain.Column `json:"items"`
}

type rowsResponse struct {
	Items []struct {
		Cells []any `json:"cells"`
	} `json:"items"`
}

type tableStore struct {
	session     *session.Session
	columnLimit int
}

// NewTableStore creates the REST adapter reading tables through the
// casManagement and casRowSets services. columnLimit bounds the schema fetch.
func NewTableStore(s *session.Session, columnLimit int) ports.KPITableStore {
	if columnLimit <= 0 {
		columnLimit = domain.DefaultRowLimit
	}
	return &tableStore{session: s, columnLimit: columnLimit}
}

func pathParams(loc domain.TableLocation) map[string]string {
	return map[string]string{
		"server": loc.Server,
		"caslib": loc.Caslib,
		"table":  loc.Table,
	}
}

func (s *tableStore) ListColumns(ctx context.Context, loc domain.TableLocation) ([]domain.Column, error) {
	var out columnsResponse
	resp, err := s.session.R(ctx).
		SetPathParams(pathParams(loc)).
		SetQueryParam("limit", strconv.Itoa(s.columnLimit)).
		SetResult(&out).
		Get(columnsURI)
	if err := session.Check(resp, err); err != nil {
		if session.IsNotFound(err) {
			return []domain.Column{}, nil
		}
		return nil, fmt.Errorf("list columns of %s: %w", loc.Table, err)
	}

	if out.Items == nil {
		return []domain.Column{}, nil
	}
	return out.Items, nil
}

func (s *tableStore) ListRows(ctx context.Context, loc domain.TableLocation, q domain.RowQuery) ([][]any, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = domain.DefaultRowLimit
	}

	req := s.session.R(ctx).
		SetPathParams(pathParams(loc)).
		SetQueryParam("limit", strconv.Itoa(limit))
	if q.Where != "" {
		req.SetQueryParam("where", q.Where)
	}

	var out rowsResponse
	resp, err := req.SetResult(&out).Get(rowsURI)
	if err := session.Check(resp, err); err != nil {
		if session.IsNotFound(err) {
			return [][]any{}, nil
		}
		return nil, fmt.Errorf("list rows of %s: %w", loc.Table, err)
	}

	rows := make([][]any, 0, len(out.Items))
	for _, item := range out.Items {
		if item.Cells == nil {
			continue
		}
		rows = append(rows, item.Cells)
	}
	return rows, nil
}
