package services

import (
	"model-parameters/internal/core/domain"
)

// MergeKPIs replaces doc.KPIs with the rows of table that belong to modelID,
// keyed by time label. ModelUUID is left out since the document already
// belongs to one model. When no row of the model carries a time label, doc is
// returned untouched.
// When two rows share a time label the later one wins.
func MergeKPIs(modelID string, doc *domain.HyperparameterDocument, table *domain.KPITable) *domain.HyperparameterDocument {
	rows := table.RowsWhere(domain.ColumnModelUUID, modelID)
	if len(rows) == 0 {
		return doc
	}
	labelIdx := table.ColumnIndex(domain.ColumnTimeLabel)
	if labelIdx < 0 {
		return doc
	}

	kpis := make(map[string]map[string]any, len(rows))
	for _, i := range rows {
		row := table.Rows[i]
		if row[labelIdx] == nil {
			continue
		}
		entry := make(map[string]any, len(table.Columns))
		for c, name := range table.Columns {
			if c == labelIdx || name == domain.ColumnModelUUID {
				continue
			}
			entry[name] = row[c]
		}
		kpis[domain.CellString(row[labelIdx])] = entry
	}
	if len(kpis) == 0 {
		return doc
	}

	doc.KPIs = kpis
	return doc
}
