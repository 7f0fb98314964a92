package handler

import (
	"net/http"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	"github.com/FACorreiaa/income-tracker/internal/api"
	"github.com/FACorreiaa/income-tracker/internal/auth"
	"github.com/FACorreiaa/income-tracker/internal/domain/income/repository"
)

// exportRow is the flattened CSV shape of a record.
type exportRow struct {
	Date        string `csv:"date"`
	Amount      string `csv:"amount"`
	Currency    string `csv:"currency"`
	Source      string `csv:"source"`
	Category    string `csv:"category"`
	Customer    string `csv:"customer"`
	Description string `csv:"description"`
}

// exportPageSize keeps each storage round trip bounded while the export
// walks the full result set.
const exportPageSize = 500

// Export handles GET /income/export: stream the user's records as a CSV
// download, honoring the same filters as the list endpoint.
func (h *IncomeHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	params, err := parseListParams(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	sourceNames, err := h.sourceNameIndex(r, userID)
	if err != nil {
		h.writeError(w, err, http.StatusInternalServerError)
		return
	}

	var rows []exportRow
	params.Limit = exportPageSize
	params.Offset = 0
	for {
		page, err := h.svc.ListRecords(r.Context(), userID, params)
		if err != nil {
			h.writeError(w, err, http.StatusInternalServerError)
			return
		}
		for _, record := range page.Records {
			rows = append(rows, toExportRow(record, sourceNames))
		}
		params.Offset += exportPageSize
		if params.Offset >= page.Total || len(page.Records) == 0 {
			break
		}
	}

	filename := "income-" + time.Now().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := gocsv.Marshal(&rows, w); err != nil {
		h.logger.Error("failed to write CSV export", "error", err)
	}
}

func (h *IncomeHandler) sourceNameIndex(r *http.Request, userID uuid.UUID) (map[uuid.UUID]string, error) {
	sources, err := h.svc.ListSources(r.Context(), userID)
	if err != nil {
		return nil, err
	}
	index := make(map[uuid.UUID]string, len(sources))
	for _, s := range sources {
		index[s.ID] = s.Name
	}
	return index, nil
}

func toExportRow(record *repository.Record, sourceNames map[uuid.UUID]string) exportRow {
	row := exportRow{
		Date:     record.TransactionDate.Format("2006-01-02"),
		Amount:   record.Amount.String(),
		Currency: record.CurrencyCode,
	}
	if record.SourceID != nil {
		row.Source = sourceNames[*record.SourceID]
	}
	if record.Category != nil {
		row.Category = *record.Category
	}
	if record.Customer != nil {
		row.Customer = *record.Customer
	}
	if record.Description != nil {
		row.Description = *record.Description
	}
	return row
}
