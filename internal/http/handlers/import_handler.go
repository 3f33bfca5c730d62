package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"householdmeter/internal/importer"
)

const maxImportMemory = 10 << 20 // 10 MiB

type importResponse struct {
	CreatedCount int `json:"created_count"`
}

// NewImportReadingsHandler returns POST /v1/meter-readings/import handler.
// It accepts a multipart upload with a "file" part holding the CSV.
func NewImportReadingsHandler(csvImporter *importer.CSVImporter, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxImportMemory); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing file part")
			return
		}
		defer file.Close()

		logger.Info("csv import upload received", zap.String("filename", header.Filename))

		created, err := csvImporter.ImportFromReader(r.Context(), file)
		if err != nil {
			logger.Error("csv import failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, importResponse{CreatedCount: 0})
			return
		}

		writeJSON(w, http.StatusOK, importResponse{CreatedCount: created})
	}
}
