package internal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"equiptrack-api/internal/models"

	"github.com/go-chi/chi/v5"
)

// commentCountJoin aggregates live comment counts per equipment record.
// The left join keeps zero-comment records in every result set.
const commentCountJoin = `
	FROM equipment e
	LEFT JOIN (
		SELECT equipment_id, COUNT(*) AS cnt
		FROM comments
		GROUP BY equipment_id
	) cc ON cc.equipment_id = e.id`

// buildEquipmentFilter composes the WHERE clause from the list parameters.
// Free text matches name, code or location; category and status are exact;
// comment_count selects 0, exactly 1 or 2, or 3-and-more.
func buildEquipmentFilter(params listParams) (string, []interface{}) {
	clauses := []string{}
	args := []interface{}{}
	arg := 1

	if params.q != "" {
		clauses = append(clauses, fmt.Sprintf(
			"(e.equipment_name ILIKE $%d OR e.equipment_code ILIKE $%d OR e.location ILIKE $%d)", arg, arg, arg))
		args = append(args, "%"+params.q+"%")
		arg++
	}
	if params.category != "" {
		clauses = append(clauses, fmt.Sprintf("e.category = $%d", arg))
		args = append(args, params.category)
		arg++
	}
	if params.status != "" {
		clauses = append(clauses, fmt.Sprintf("e.status = $%d", arg))
		args = append(args, params.status)
		arg++
	}
	if params.commentCount != nil {
		switch cc := *params.commentCount; {
		case cc == 0:
			clauses = append(clauses, "cc.cnt IS NULL")
		case cc == 1 || cc == 2:
			clauses = append(clauses, fmt.Sprintf("cc.cnt = $%d", arg))
			args = append(args, cc)
			arg++
		default: // 3 or more
			clauses = append(clauses, "cc.cnt >= 3")
		}
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// collectDynamicHeaders returns the union of extra keys across the page, in
// first-seen order, excluding names that shadow fixed response fields.
func collectDynamicHeaders(items []models.EquipmentListItem) []string {
	reserved := map[string]bool{"id": true, "created_at": true, "updated_at": true}
	seen := map[string]bool{}
	headers := []string{}
	for _, it := range items {
		for _, key := range it.Extra.Keys() {
			if reserved[key] || seen[key] {
				continue
			}
			seen[key] = true
			headers = append(headers, key)
		}
	}
	return headers
}

// LIST with filters, comment-count aggregate and pagination
func (s *Server) listEquipment(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)
	where, args := buildEquipmentFilter(params)

	// Total count runs without the page window so requests past the last
	// page still report the true total.
	var total int
	countSQL := "SELECT COUNT(*)" + commentCountJoin + where
	if err := s.DB.QueryRowContext(r.Context(), countSQL, args...).Scan(&total); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	pageSQL := `
		SELECT e.id, e.equipment_name, e.equipment_code, e.category, e.location,
		       e.status, e.description, COALESCE(cc.cnt, 0), e.extra, e.updated_at` +
		commentCountJoin + where +
		fmt.Sprintf(" ORDER BY e.updated_at DESC, e.id ASC LIMIT %d OFFSET %d",
			params.perPage, (params.page-1)*params.perPage)

	rows, err := s.DB.QueryContext(r.Context(), pageSQL, args...)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	items := []models.EquipmentListItem{}
	for rows.Next() {
		var it models.EquipmentListItem
		if err := rows.Scan(
			&it.ID, &it.EquipmentName, &it.EquipmentCode, &it.Category, &it.Location,
			&it.Status, &it.Description, &it.CommentCount, &it.Extra, &it.UpdatedAt,
		); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":       items,
		"page":        params.page,
		"per_page":    params.perPage,
		"total":       total,
		"total_pages": totalPages(total, params.perPage),
		"filters": map[string]interface{}{
			"statuses": models.StatusNames(),
		},
		"dynamic_headers": collectDynamicHeaders(items),
	})
}

func (s *Server) getEquipment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var e models.Equipment
	err := s.DB.QueryRowContext(r.Context(), `
		SELECT id, equipment_name, equipment_code, category, location, status,
		       description, imported_at, extra, created_at, updated_at
		FROM equipment WHERE id = $1`, id).Scan(
		&e.ID, &e.EquipmentName, &e.EquipmentCode, &e.Category, &e.Location,
		&e.Status, &e.Description, &e.ImportedAt, &e.Extra, &e.CreatedAt, &e.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) updateEquipment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var in models.UpdateEquipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if in.Status != nil && !models.IsValidStatus(*in.Status) {
		http.Error(w, fmt.Sprintf("invalid status '%s'. Allowed: %s",
			*in.Status, strings.Join(models.StatusNames(), ", ")), http.StatusBadRequest)
		return
	}

	type set struct {
		sql string
		val interface{}
	}
	sets := make([]set, 0, 6)
	if in.EquipmentName != nil {
		sets = append(sets, set{"equipment_name = $%d", *in.EquipmentName})
	}
	if in.Category != nil {
		sets = append(sets, set{"category = $%d", *in.Category})
	}
	if in.Location != nil {
		sets = append(sets, set{"location = $%d", *in.Location})
	}
	if in.Status != nil {
		sets = append(sets, set{"status = $%d", *in.Status})
	}
	if in.Description != nil {
		sets = append(sets, set{"description = $%d", *in.Description})
	}
	if len(sets) == 0 {
		http.Error(w, "no fields to update", http.StatusBadRequest)
		return
	}

	args := make([]interface{}, 0, len(sets)+2)
	sqlStr := "UPDATE equipment SET "
	for i, sset := range sets {
		if i > 0 {
			sqlStr += ", "
		}
		sqlStr += fmt.Sprintf(sset.sql, i+1)
		args = append(args, sset.val)
	}
	sqlStr += fmt.Sprintf(", updated_at = $%d WHERE id = $%d", len(args)+1, len(args)+2)
	args = append(args, time.Now().UTC(), id)

	res, err := s.DB.ExecContext(r.Context(), sqlStr, args...)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Updated."})
}

func (s *Server) deleteEquipment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// Comments go with the record via the FK cascade.
	res, err := s.DB.ExecContext(r.Context(), `DELETE FROM equipment WHERE id = $1`, id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted."})
}
