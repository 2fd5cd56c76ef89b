package importer

import (
	"fmt"
	"strings"
	"time"

	"equiptrack-api/internal/models"
)

// ImportRow is a canonical record built from one spreadsheet row. It never
// reaches storage directly; the pipeline consumes it within one import.
type ImportRow struct {
	EquipmentName string
	EquipmentCode string
	Category      string
	Location      string
	Status        string
	Description   string
	Extra         models.ExtraMap
	ImportedAt    time.Time
}

// literalFallbacks are header spellings tried directly against the extra
// bag when a field has no resolved column.
var literalFallbacks = map[string][]string{
	FieldName:        {"Equipment Name", "Name", "Asset Name"},
	FieldCode:        {"Code", "ID", "Asset ID"},
	FieldCategory:    {"Category", "Type"},
	FieldLocation:    {"Location"},
	FieldStatus:      {"Status"},
	FieldDescription: {"Description", "Notes"},
}

// ValidateRows applies the resolution to every sheet row, producing canonical
// rows plus the accumulated error list. Row numbers in errors are 1-indexed
// with a +1 header offset. Codes equal to "" or "0" are exempt from the
// in-file duplicate check. A non-empty error list means the whole batch must
// be rejected.
func ValidateRows(sheet *Sheet, resolved ColumnResolution, now time.Time) ([]ImportRow, []string) {
	var errs []string
	rows := make([]ImportRow, 0, len(sheet.Rows))
	seenCodes := make(map[string]bool)

	for idx, raw := range sheet.Rows {
		rowNum := idx + 2 // 1-indexed plus the header row

		extra := make(models.ExtraMap, 0, len(sheet.Columns))
		for _, col := range sheet.Columns {
			extra.Set(col, strings.TrimSpace(raw[col]))
		}

		getv := func(field string) string {
			if col, ok := resolved[field]; ok {
				return strings.TrimSpace(raw[col])
			}
			return ""
		}
		fallback := func(field string) string {
			for _, header := range literalFallbacks[field] {
				if v, ok := extra.Get(header); ok && v != "" {
					return v
				}
			}
			return ""
		}
		pick := func(field, def string) string {
			if v := getv(field); v != "" {
				return v
			}
			if v := fallback(field); v != "" {
				return v
			}
			return def
		}

		row := ImportRow{
			EquipmentName: pick(FieldName, fmt.Sprintf("Item %d", idx+1)),
			EquipmentCode: pick(FieldCode, ""),
			Category:      pick(FieldCategory, ""),
			Location:      pick(FieldLocation, ""),
			Status:        pick(FieldStatus, models.StatusActive),
			Description:   pick(FieldDescription, ""),
			Extra:         extra,
			ImportedAt:    now,
		}

		if row.Status != "" && !models.IsValidStatus(row.Status) {
			errs = append(errs, fmt.Sprintf("Row %d: invalid status '%s'. Allowed: %s",
				rowNum, row.Status, strings.Join(models.StatusNames(), ", ")))
		}

		code := strings.TrimSpace(row.EquipmentCode)
		if seenCodes[code] {
			errs = append(errs, fmt.Sprintf("Row %d: duplicate equipment_code '%s' in file", rowNum, code))
		} else if code != "" && code != "0" {
			seenCodes[code] = true
		}

		rows = append(rows, row)
	}

	return rows, errs
}
