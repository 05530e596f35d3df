package models

import "time"

type MappingStatus string

const (
	MappingSuccess  MappingStatus = "success"
	MappingNotFound MappingStatus = "not_found"
)

// MappingDetail is the per-symbol outcome of a symbol-mapping update. ID and
// Name are only set when Status is MappingSuccess.
type MappingDetail struct {
	Symbol string        `json:"symbol"`
	Status MappingStatus `json:"status"`
	ID     string        `json:"id,omitempty"`
	Name   string        `json:"name,omitempty"`
}

func Resolved(symbol, id, name string) MappingDetail {
	return MappingDetail{Symbol: symbol, Status: MappingSuccess, ID: id, Name: name}
}

func Unresolved(symbol string) MappingDetail {
	return MappingDetail{Symbol: symbol, Status: MappingNotFound}
}

type MappingResult struct {
	Mapping   map[string]string `json:"mapping"`
	Details   []MappingDetail   `json:"details"`
	Failed    []string          `json:"failed"`
	UpdatedAt *time.Time        `json:"updatedAt"`
}
