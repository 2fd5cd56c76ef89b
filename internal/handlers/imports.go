package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tealeg/xlsx/v3"

	"equiptrack-api/internal/models"
	"equiptrack-api/pkg/importer"
)

// Template and export share the fixed column set.
var exportColumns = []string{"Equipment Name", "Code", "Category", "Location", "Status", "Description"}

// ImportsHandler handles Excel import, template and export operations
type ImportsHandler struct {
	Pool      *pgxpool.Pool
	DB        *sql.DB
	MaxBytes  int64
	AliasPath string

	// Optional metric hooks, nil-safe.
	RowsImported func(rows int)
	FileRejected func()
}

// NewImportsHandler creates a new imports handler
func NewImportsHandler(pool *pgxpool.Pool, db *sql.DB) *ImportsHandler {
	return &ImportsHandler{
		Pool:     pool,
		DB:       db,
		MaxBytes: 20 << 20, // 20 MB
	}
}

// UploadExcel handles Excel file uploads for equipment import
func (h *ImportsHandler) UploadExcel(w http.ResponseWriter, r *http.Request) {
	// Limit body size
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)

	// Require multipart
	if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		http.Error(w, "content-type must be multipart/form-data", http.StatusBadRequest)
		return
	}

	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		http.Error(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	// Optional explicit column mapping, a JSON object of field -> column
	var columnMap map[string]string
	if v := r.FormValue("column_map"); v != "" {
		if err := json.Unmarshal([]byte(v), &columnMap); err != nil {
			http.Error(w, "column_map must be a JSON object: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	// File
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !isExcel(header) {
		http.Error(w, "only .xlsx and .xls files are accepted", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	count, rejections, impErr := importer.Import(r.Context(), h.Pool, data, importer.Options{
		ColumnMap: columnMap,
		AliasPath: h.AliasPath,
	})
	if impErr != nil {
		var parseErr *importer.ParseError
		switch {
		case errors.Is(impErr, importer.ErrEmptyFile):
			h.rejected()
			http.Error(w, "Uploaded file is empty.", http.StatusBadRequest)
		case errors.As(impErr, &parseErr):
			h.rejected()
			http.Error(w, "Failed to read Excel: "+parseErr.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "Failed to save import: "+impErr.Error(), http.StatusInternalServerError)
		}
		return
	}
	if len(rejections) > 0 {
		h.rejected()
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"errors": rejections,
		})
		return
	}

	if h.RowsImported != nil {
		h.RowsImported(count)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Imported %d items successfully.", count),
	})
}

// DownloadTemplate serves a starter workbook with the expected headers and
// two sample rows.
func (h *ImportsHandler) DownloadTemplate(w http.ResponseWriter, r *http.Request) {
	wb := xlsx.NewFile()
	sheet, err := wb.AddSheet("Equipment")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	addRow(sheet, exportColumns...)
	addRow(sheet, "Laptop X", "EQ-001", "Computers", "London", "Active", "Dell Latitude 7420")
	addRow(sheet, "Forklift A", "EQ-002", "Vehicles", "Warehouse A", "Repair", "Hydraulic leak")

	serveWorkbook(w, wb, "equipment_template.xlsx")
}

// ExportEquipment streams the whole inventory as a workbook. Dynamic fields
// travel in a single JSON column so re-import round-trips are explicit
// rather than accidental.
func (h *ImportsHandler) ExportEquipment(w http.ResponseWriter, r *http.Request) {
	rows, err := h.DB.QueryContext(r.Context(), `
		SELECT equipment_name, equipment_code, category, location, status, description, extra
		FROM equipment ORDER BY id`)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	wb := xlsx.NewFile()
	sheet, err := wb.AddSheet("Equipment")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	addRow(sheet, append(append([]string{}, exportColumns...), "Extra")...)

	for rows.Next() {
		var name, code, category, location, status, description string
		var extra models.ExtraMap
		if err := rows.Scan(&name, &code, &category, &location, &status, &description, &extra); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		extraCell := ""
		if len(extra) > 0 {
			if b, err := json.Marshal(extra); err == nil {
				extraCell = string(b)
			}
		}
		addRow(sheet, name, code, category, location, status, description, extraCell)
	}
	if err := rows.Err(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("equipment_export_%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	serveWorkbook(w, wb, filename)
}

func (h *ImportsHandler) rejected() {
	if h.FileRejected != nil {
		h.FileRejected()
	}
}

func addRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func serveWorkbook(w http.ResponseWriter, wb *xlsx.File, filename string) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := wb.Write(w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// isExcel checks if the uploaded file carries a spreadsheet extension
func isExcel(h *multipart.FileHeader) bool {
	name := strings.ToLower(h.Filename)
	return strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xls")
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
