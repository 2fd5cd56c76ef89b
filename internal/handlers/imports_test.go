package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"
)

func newTestHandler() *ImportsHandler {
	// No database: these paths reject before any storage access.
	return NewImportsHandler(nil, nil)
}

func TestImportsHandler_UploadExcel(t *testing.T) {
	t.Run("Rejects non-multipart content type", func(t *testing.T) {
		handler := newTestHandler()

		req := httptest.NewRequest("POST", "/api/equipment/import", nil)
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		handler.UploadExcel(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "content-type must be multipart/form-data")
	})

	t.Run("Rejects missing file", func(t *testing.T) {
		handler := newTestHandler()

		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		writer.Close()

		req := httptest.NewRequest("POST", "/api/equipment/import", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())

		w := httptest.NewRecorder()
		handler.UploadExcel(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "file is required")
	})

	t.Run("Rejects wrong extension", func(t *testing.T) {
		handler := newTestHandler()

		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		fileWriter, _ := writer.CreateFormFile("file", "inventory.csv")
		fileWriter.Write([]byte("name,code\n"))
		writer.Close()

		req := httptest.NewRequest("POST", "/api/equipment/import", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())

		w := httptest.NewRecorder()
		handler.UploadExcel(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "only .xlsx and .xls files are accepted")
	})

	t.Run("Rejects invalid column_map", func(t *testing.T) {
		handler := newTestHandler()

		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		writer.WriteField("column_map", "not json")
		fileWriter, _ := writer.CreateFormFile("file", "inventory.xlsx")
		fileWriter.Write([]byte("whatever"))
		writer.Close()

		req := httptest.NewRequest("POST", "/api/equipment/import", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())

		w := httptest.NewRecorder()
		handler.UploadExcel(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "column_map must be a JSON object")
	})

	t.Run("Rejects empty file", func(t *testing.T) {
		handler := newTestHandler()
		rejected := false
		handler.FileRejected = func() { rejected = true }

		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		_, err := writer.CreateFormFile("file", "inventory.xlsx")
		require.NoError(t, err)
		writer.Close()

		req := httptest.NewRequest("POST", "/api/equipment/import", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())

		w := httptest.NewRecorder()
		handler.UploadExcel(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Uploaded file is empty.")
		assert.True(t, rejected)
	})

	t.Run("Rejects unreadable workbook", func(t *testing.T) {
		handler := newTestHandler()

		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		fileWriter, _ := writer.CreateFormFile("file", "inventory.xlsx")
		fileWriter.Write([]byte("this is not a zip archive"))
		writer.Close()

		req := httptest.NewRequest("POST", "/api/equipment/import", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())

		w := httptest.NewRecorder()
		handler.UploadExcel(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Failed to read Excel")
	})
}

func TestImportsHandler_DownloadTemplate(t *testing.T) {
	handler := newTestHandler()

	req := httptest.NewRequest("GET", "/api/equipment/template", nil)
	w := httptest.NewRecorder()
	handler.DownloadTemplate(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "equipment_template.xlsx")

	// The payload must be a readable workbook with the template headers.
	wb, err := xlsx.OpenBinary(w.Body.Bytes())
	require.NoError(t, err)
	require.NotEmpty(t, wb.Sheets)

	sheet := wb.Sheets[0]
	row, err := sheet.Row(0)
	require.NoError(t, err)
	assert.Equal(t, "Equipment Name", row.GetCell(0).String())
	assert.Equal(t, "Code", row.GetCell(1).String())
	assert.Equal(t, "Status", row.GetCell(4).String())
}
