package importer

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"equiptrack-api/internal/models"
)

// Canonical fields a spreadsheet column can map to.
const (
	FieldName        = "equipment_name"
	FieldCode        = "equipment_code"
	FieldCategory    = "category"
	FieldLocation    = "location"
	FieldStatus      = "status"
	FieldDescription = "description"
)

// CanonicalFields lists the canonical fields in template column order.
var CanonicalFields = []string{
	FieldName, FieldCode, FieldCategory, FieldLocation, FieldStatus, FieldDescription,
}

// AliasConfig maps canonical fields to the header spellings recognized for
// them. It can be overridden from a YAML file.
type AliasConfig struct {
	Version int                 `yaml:"version"`
	Aliases map[string][]string `yaml:"aliases"`
}

// DefaultAliasConfig returns the built-in alias table.
func DefaultAliasConfig() *AliasConfig {
	return &AliasConfig{
		Version: 1,
		Aliases: map[string][]string{
			FieldName:        {"equipment name", "name", "equipment", "item name", "asset name"},
			FieldCode:        {"code", "equipment code", "asset code", "id", "sku", "asset id"},
			FieldCategory:    {"category", "type", "equipment type"},
			FieldLocation:    {"location", "site", "place"},
			FieldStatus:      {"status", "state"},
			FieldDescription: {"description", "notes", "note", "details"},
		},
	}
}

// LoadAliasConfig reads an alias table from a YAML file. An empty path
// returns the built-in table. Fields missing from the file keep their
// built-in aliases.
func LoadAliasConfig(path string) (*AliasConfig, error) {
	cfg := DefaultAliasConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var loaded AliasConfig
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, err
	}
	if loaded.Version != 0 {
		cfg.Version = loaded.Version
	}
	for field, aliases := range loaded.Aliases {
		if len(aliases) > 0 {
			cfg.Aliases[field] = aliases
		}
	}
	return cfg, nil
}

// ColumnResolution maps canonical fields to the sheet column that supplies
// them. A missing key means the field stayed unresolved; the validator then
// falls back to literal header lookups or defaults.
type ColumnResolution map[string]string

// statusSampleSize bounds how many non-blank values the status sniffer
// inspects per column.
const statusSampleSize = 20

// headerResolver tries an ordered list of strategies per canonical field.
type headerResolver struct {
	sheet    *Sheet
	override map[string]string
	aliases  map[string][]string
	byLower  map[string]string // lower-cased header -> original header
}

// ResolveColumns maps canonical fields onto the sheet's columns. Precedence
// per field: caller override, alias table, positional fallback, status
// content sniffing. It never fails; unresolved fields are simply absent.
func ResolveColumns(sheet *Sheet, override map[string]string, cfg *AliasConfig) ColumnResolution {
	if cfg == nil {
		cfg = DefaultAliasConfig()
	}
	r := &headerResolver{
		sheet:    sheet,
		override: override,
		aliases:  cfg.Aliases,
		byLower:  make(map[string]string, len(sheet.Columns)),
	}
	for _, col := range sheet.Columns {
		key := strings.ToLower(strings.TrimSpace(col))
		if _, seen := r.byLower[key]; !seen {
			r.byLower[key] = col
		}
	}

	strategies := []func(field string) (string, bool){
		r.fromOverride,
		r.fromAlias,
		r.fromPosition,
		r.fromStatusSample,
	}

	resolved := ColumnResolution{}
	for _, field := range CanonicalFields {
		for _, try := range strategies {
			if col, ok := try(field); ok {
				resolved[field] = col
				break
			}
		}
	}
	return resolved
}

// fromOverride honors an explicit caller mapping when the named column
// exists in the sheet.
func (r *headerResolver) fromOverride(field string) (string, bool) {
	col, ok := r.override[field]
	if !ok || col == "" {
		return "", false
	}
	for _, have := range r.sheet.Columns {
		if have == col {
			return col, true
		}
	}
	return "", false
}

// fromAlias matches the alias table case-insensitively.
func (r *headerResolver) fromAlias(field string) (string, bool) {
	for _, alias := range r.aliases[field] {
		if col, ok := r.byLower[strings.ToLower(alias)]; ok {
			return col, true
		}
	}
	return "", false
}

// fromPosition falls back to column 1 for the name and column 2 for the
// code, mirroring the most common sheet shape.
func (r *headerResolver) fromPosition(field string) (string, bool) {
	switch field {
	case FieldName:
		if len(r.sheet.Columns) >= 1 {
			return r.sheet.Columns[0], true
		}
	case FieldCode:
		if len(r.sheet.Columns) >= 2 {
			return r.sheet.Columns[1], true
		}
	}
	return "", false
}

// fromStatusSample adopts a column as the status when every sampled
// non-blank value belongs to the status set.
func (r *headerResolver) fromStatusSample(field string) (string, bool) {
	if field != FieldStatus {
		return "", false
	}
	for _, col := range r.sheet.Columns {
		sampled := 0
		allValid := true
		for _, row := range r.sheet.Rows {
			if sampled >= statusSampleSize {
				break
			}
			v := strings.TrimSpace(row[col])
			if v == "" {
				continue
			}
			sampled++
			if !models.IsValidStatus(v) {
				allValid = false
				break
			}
		}
		if sampled > 0 && allValid {
			return col, true
		}
	}
	return "", false
}

// headerSynonyms is the broad pool used to detect sheets whose real header
// sits in the second row (row 1 being a title or merged banner).
var headerSynonyms = map[string]bool{
	"equipment name": true, "name": true, "equipment": true, "item name": true,
	"asset name": true, "code": true, "equipment code": true, "asset code": true,
	"id": true, "sku": true, "status": true, "state": true, "category": true,
	"type": true, "location": true, "site": true, "place": true,
	"description": true, "notes": true,
}

// looksLikeHeader reports whether any of the row's values is a known header
// synonym.
func looksLikeHeader(values []string) bool {
	for _, v := range values {
		if headerSynonyms[strings.ToLower(strings.TrimSpace(v))] {
			return true
		}
	}
	return false
}
