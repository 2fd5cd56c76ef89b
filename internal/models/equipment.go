package models

import (
	"sort"
	"time"
)

// Equipment statuses form a closed set; anything else is rejected at import
// and update time.
const (
	StatusActive  = "Active"
	StatusBroken  = "Broken"
	StatusRepair  = "Repair"
	StatusRetired = "Retired"
)

// ValidStatuses is the allowed status set.
var ValidStatuses = map[string]bool{
	StatusActive:  true,
	StatusBroken:  true,
	StatusRepair:  true,
	StatusRetired: true,
}

// IsValidStatus reports whether s is a member of the status set.
func IsValidStatus(s string) bool {
	return ValidStatuses[s]
}

// StatusNames returns the status set sorted alphabetically, for error
// messages and the list endpoint's filter metadata.
func StatusNames() []string {
	names := make([]string, 0, len(ValidStatuses))
	for s := range ValidStatuses {
		names = append(names, s)
	}
	sort.Strings(names)
	return names
}

// Equipment is a tracked inventory record. EquipmentCode is unique across
// the whole table. Extra preserves spreadsheet columns that have no
// canonical field.
type Equipment struct {
	ID            int64      `json:"id"`
	EquipmentName string     `json:"equipment_name"`
	EquipmentCode string     `json:"equipment_code"`
	Category      string     `json:"category"`
	Location      string     `json:"location"`
	Status        string     `json:"status"`
	Description   string     `json:"description"`
	ImportedAt    *time.Time `json:"imported_at,omitempty"`
	Extra         ExtraMap   `json:"extra"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// EquipmentListItem is one row of the list endpoint: the record plus its
// live comment count.
type EquipmentListItem struct {
	ID            int64     `json:"id"`
	EquipmentName string    `json:"equipment_name"`
	EquipmentCode string    `json:"equipment_code"`
	Category      string    `json:"category"`
	Location      string    `json:"location"`
	Status        string    `json:"status"`
	Description   string    `json:"description"`
	CommentCount  int64     `json:"comment_count"`
	Extra         ExtraMap  `json:"extra"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UpdateEquipmentRequest carries the fixed fields a direct mutation may
// touch. Extra is never updated through the API; it only comes from import.
type UpdateEquipmentRequest struct {
	EquipmentName *string `json:"equipment_name,omitempty"`
	Category      *string `json:"category,omitempty"`
	Location      *string `json:"location,omitempty"`
	Status        *string `json:"status,omitempty"`
	Description   *string `json:"description,omitempty"`
}
