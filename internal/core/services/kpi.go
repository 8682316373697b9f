package services

import (
	"context"

	log "github.com/sirupsen/logrus"

	"model-parameters/internal/core/domain"
	"model-parameters/internal/core/ports/output"
)

// KPIDefaults fills in the parts of a KPIQuery a caller leaves empty.
type KPIDefaults struct {
	Server   string
	Caslib   string
	RowLimit int
}

// KPIService reads a project's standard KPI table from the tabular store.
type KPIService struct {
	store    ports.KPITableStore
	repo     ports.ModelRepository
	resolver *Resolver
	defaults KPIDefaults
}

func NewKPIService(store ports.KPITableStore, repo ports.ModelRepository, defaults KPIDefaults) *KPIService {
	if defaults.RowLimit <= 0 {
		defaults.RowLimit = domain.DefaultRowLimit
	}
	return &KPIService{
		store:    store,
		repo:     repo,
		resolver: NewResolver(repo),
		defaults: defaults,
	}
}

// GetProjectKPIs fetches the schema and then the rows of the project's
// MM_STD_KPI table and rebuilds them as a KPITable with missing values as nil.
func (s *KPIService) GetProjectKPIs(ctx context.Context, project domain.Ref, q domain.KPIQuery) (*domain.KPITable, error) {
	where, err := q.WhereClause()
	if err != nil {
		return nil, err
	}
	if q.Server == "" {
		q.Server = s.defaults.Server
	}
	if q.Caslib == "" {
		q.Caslib = s.defaults.Caslib
	}

	projectID, err := s.resolver.ResolveProject(ctx, project)
	if err != nil {
		return nil, err
	}

	loc := domain.TableLocation{
		Server: q.Server,
		Caslib: q.Caslib,
		Table:  domain.StandardKPITableFor(projectID),
	}

	columns, err := s.store.ListColumns(ctx, loc)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, &domain.KPIError{
			Err:     domain.ErrNoKPITable,
			Project: s.projectName(ctx, project, projectID),
		}
	}

	cells, err := s.store.ListRows(ctx, loc, domain.RowQuery{Limit: s.defaults.RowLimit, Where: where})
	if err != nil {
		return nil, err
	}
	if len(cells) == 0 {
		kpiErr := &domain.KPIError{Err: domain.ErrNoKPIData}
		if q.Filtered() {
			kpiErr.FilterColumn = q.FilterColumn
			kpiErr.FilterValue = q.FilterValue
		} else {
			kpiErr.Project = s.projectName(ctx, project, projectID)
		}
		return nil, kpiErr
	}

	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	table := domain.NewKPITable(names, cells)
	table.Normalize()

	log.WithFields(log.Fields{
		"project_id": projectID,
		"table":      loc.Table,
		"columns":    len(names),
		"rows":       table.Len(),
		"filtered":   q.Filtered(),
	}).Debug("fetched KPI table")

	return table, nil
}

// projectName looks up a display name for error messages, falling back to
// whatever the caller passed in.
func (s *KPIService) projectName(ctx context.Context, project domain.Ref, projectID string) string {
	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil || p.Name == "" {
		log.WithError(err).WithField("project_id", projectID).Warn("could not look up project name")
		if project.Name() != "" {
			return project.Name()
		}
		return projectID
	}
	return p.Name
}
