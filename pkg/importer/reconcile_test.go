package importer

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var autoCodeRe = regexp.MustCompile(`^AUTO-[0-9A-F]{8}$`)

func rowsWithCodes(codes ...string) []ImportRow {
	rows := make([]ImportRow, len(codes))
	for i, code := range codes {
		rows[i] = ImportRow{EquipmentCode: code}
	}
	return rows
}

func TestDuplicateCodesInStore(t *testing.T) {
	rows := rowsWithCodes("EQ-3", "EQ-1", "", "0", "EQ-2", "EQ-1")
	existing := map[string]bool{"EQ-1": true, "EQ-3": true}

	dups := DuplicateCodesInStore(rows, existing)

	// Sorted, deduplicated, placeholders ignored.
	assert.Equal(t, []string{"EQ-1", "EQ-3"}, dups)
}

func TestDuplicateCodesInStore_NoConflicts(t *testing.T) {
	rows := rowsWithCodes("EQ-1", "")
	assert.Empty(t, DuplicateCodesInStore(rows, map[string]bool{"EQ-9": true}))
}

func TestAssignCodes_GeneratesForPlaceholders(t *testing.T) {
	rows := rowsWithCodes("", "0", "EQ-1")

	AssignCodes(rows, map[string]bool{})

	assert.Regexp(t, autoCodeRe, rows[0].EquipmentCode)
	assert.Regexp(t, autoCodeRe, rows[1].EquipmentCode)
	assert.Equal(t, "EQ-1", rows[2].EquipmentCode)
	assert.NotEqual(t, rows[0].EquipmentCode, rows[1].EquipmentCode)
}

func TestAssignCodes_ReplacesStorageCollisions(t *testing.T) {
	rows := rowsWithCodes("EQ-1")

	AssignCodes(rows, map[string]bool{"EQ-1": true})

	assert.Regexp(t, autoCodeRe, rows[0].EquipmentCode)
}

func TestAssignCodes_FirstOccurrenceKeepsCode(t *testing.T) {
	rows := rowsWithCodes("EQ-1", "EQ-1")

	AssignCodes(rows, map[string]bool{})

	assert.Equal(t, "EQ-1", rows[0].EquipmentCode)
	assert.Regexp(t, autoCodeRe, rows[1].EquipmentCode)
}

func TestGenerateCode_RetriesOnCollision(t *testing.T) {
	calls := 0
	code := generateCode(func(c string) bool {
		calls++
		return calls == 1 // reject the first candidate
	})

	require.GreaterOrEqual(t, calls, 2)
	assert.Regexp(t, autoCodeRe, code)
}
