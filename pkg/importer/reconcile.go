package importer

import (
	"encoding/hex"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// isPlaceholderCode reports whether a code counts as "no code provided".
func isPlaceholderCode(code string) bool {
	return code == "" || code == "0"
}

// DuplicateCodesInStore returns the batch's explicit codes that already
// exist in storage, sorted. Any hit rejects the whole import before
// anything is persisted.
func DuplicateCodesInStore(rows []ImportRow, existing map[string]bool) []string {
	seen := make(map[string]bool)
	var dups []string
	for _, row := range rows {
		code := strings.TrimSpace(row.EquipmentCode)
		if isPlaceholderCode(code) || seen[code] {
			continue
		}
		seen[code] = true
		if existing[code] {
			dups = append(dups, code)
		}
	}
	sort.Strings(dups)
	return dups
}

// AssignCodes finalizes equipment codes in file order. Blank, "0",
// storage-colliding and batch-reused codes get a generated AUTO- code;
// everything else is kept and marked used. existing is extended as codes
// are claimed so later rows cannot collide with earlier ones.
func AssignCodes(rows []ImportRow, existing map[string]bool) {
	usedInBatch := make(map[string]bool)
	for i := range rows {
		code := strings.TrimSpace(rows[i].EquipmentCode)
		if isPlaceholderCode(code) || existing[code] || usedInBatch[code] {
			code = generateCode(func(c string) bool {
				return existing[c] || usedInBatch[c]
			})
			rows[i].EquipmentCode = code
			usedInBatch[code] = true
			continue
		}
		rows[i].EquipmentCode = code
		usedInBatch[code] = true
		existing[code] = true
	}
}

// generateCode produces an AUTO- prefixed code of 8 uppercase hex digits.
// Collisions are vanishingly unlikely at 32 random bits, but the generated
// code is still checked against taken and regenerated on a hit.
func generateCode(taken func(string) bool) string {
	for {
		id := uuid.New()
		code := "AUTO-" + strings.ToUpper(hex.EncodeToString(id[:4]))
		if !taken(code) {
			return code
		}
	}
}
