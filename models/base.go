package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Money is emitted as JSON numbers, not quoted strings.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// ensureID fills an empty primary key before insert.
func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
