package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tealeg/xlsx/v3"
)

// Sheet is a decoded worksheet: the header columns in sheet order plus the
// data rows keyed by header. Blank cells are empty strings.
type Sheet struct {
	Columns []string
	Rows    []map[string]string
}

// Options configures one import invocation.
type Options struct {
	// ColumnMap is an explicit canonical-field -> column override supplied
	// by the caller. Entries naming columns absent from the sheet are
	// ignored.
	ColumnMap map[string]string
	// AliasPath optionally points at a YAML alias table; empty uses the
	// built-in one.
	AliasPath string
	// Now is the imported_at stamp; zero means time.Now().UTC().
	Now time.Time
}

// ErrEmptyFile is returned for zero-byte uploads.
var ErrEmptyFile = errors.New("uploaded file is empty")

// ParseError marks a failure to decode the uploaded workbook or its alias
// table, as opposed to a storage failure. Callers map it to a client error.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

// ParseWorkbook decodes the first worksheet of an xlsx payload. Row 1 is
// the header; if the first data row's values match known header synonyms it
// is promoted to the header instead (sheets with a banner row above the
// real header). Fully blank data rows are dropped.
func ParseWorkbook(data []byte) (*Sheet, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	xlFile, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	if len(xlFile.Sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	ws := xlFile.Sheets[0]

	var grid [][]string
	for r := 0; r < ws.MaxRow; r++ {
		row, err := ws.Row(r)
		if err != nil {
			break
		}
		vals := make([]string, ws.MaxCol)
		blank := true
		for c := 0; c < ws.MaxCol; c++ {
			v := strings.TrimSpace(row.GetCell(c).String())
			vals[c] = v
			if v != "" {
				blank = false
			}
		}
		if blank && r > 0 {
			continue
		}
		grid = append(grid, vals)
	}
	if len(grid) == 0 {
		return nil, errors.New("worksheet is empty")
	}

	header := grid[0]
	body := grid[1:]
	if len(body) > 0 && looksLikeHeader(body[0]) {
		header = body[0]
		body = body[1:]
	}

	// Keep non-empty headers, remembering each column's position.
	columns := make([]string, 0, len(header))
	positions := make([]int, 0, len(header))
	for i, name := range header {
		if name == "" {
			continue
		}
		columns = append(columns, name)
		positions = append(positions, i)
	}

	sheet := &Sheet{Columns: columns}
	for _, vals := range body {
		row := make(map[string]string, len(columns))
		for i, col := range columns {
			pos := positions[i]
			if pos < len(vals) {
				row[col] = vals[pos]
			} else {
				row[col] = ""
			}
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}

// Import runs the whole pipeline over an uploaded workbook: resolve headers,
// validate rows, pre-check codes against storage, reconcile codes, then
// bulk-insert inside a single transaction. It returns the inserted count, or
// a non-empty rejection list (validation errors or duplicate-code
// conflicts), or an error for parse/storage failures. Rejections and errors
// both leave storage untouched.
func Import(ctx context.Context, db *pgxpool.Pool, data []byte, opts Options) (int, []string, error) {
	sheet, err := ParseWorkbook(data)
	if err != nil {
		return 0, nil, &ParseError{Err: err}
	}

	cfg, err := LoadAliasConfig(opts.AliasPath)
	if err != nil {
		return 0, nil, &ParseError{Err: fmt.Errorf("failed to load alias config: %w", err)}
	}

	resolved := ResolveColumns(sheet, opts.ColumnMap, cfg)

	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	rows, verrs := ValidateRows(sheet, resolved, now)
	if len(verrs) > 0 {
		return 0, verrs, nil
	}

	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	existing, err := loadCodes(ctx, tx)
	if err != nil {
		return 0, nil, err
	}

	if dups := DuplicateCodesInStore(rows, existing); len(dups) > 0 {
		return 0, []string{fmt.Sprintf("Duplicate codes in database: %s", strings.Join(dups, ", "))}, nil
	}

	AssignCodes(rows, existing)

	for _, row := range rows {
		_, err := tx.Exec(ctx, `
			INSERT INTO equipment (equipment_name, equipment_code, category, location, status, description, imported_at, extra)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			row.EquipmentName, row.EquipmentCode, row.Category, row.Location,
			row.Status, row.Description, row.ImportedAt, row.Extra,
		)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to insert row with code %s: %w", row.EquipmentCode, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, nil, fmt.Errorf("failed to commit import: %w", err)
	}
	return len(rows), nil, nil
}

// loadCodes reads every persisted equipment code within the import's
// transaction so the pre-check and the reconciler see a consistent set.
func loadCodes(ctx context.Context, tx pgx.Tx) (map[string]bool, error) {
	rows, err := tx.Query(ctx, "SELECT equipment_code FROM equipment")
	if err != nil {
		return nil, fmt.Errorf("failed to read existing codes: %w", err)
	}
	defer rows.Close()

	codes := make(map[string]bool)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes[code] = true
	}
	return codes, rows.Err()
}
