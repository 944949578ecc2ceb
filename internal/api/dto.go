package api

import (
	"github.com/starford/recordbook/internal/journal"
	"github.com/starford/recordbook/internal/models"
)

// Record is the record representation in API responses.
type Record = models.Record

// CreateRecordRequest is the request body for adding a record.
type CreateRecordRequest struct {
	ID      *int   `json:"id" example:"1" validate:"required"`
	Name    string `json:"name" example:"Alice" validate:"required"`
	Age     *int   `json:"age" example:"30" validate:"required"`
	Address string `json:"address" example:"1 Main St" validate:"required"`
}

// EditRecordRequest is the request body for changing one field.
type EditRecordRequest struct {
	Field string `json:"field" example:"address" enums:"name,age,address" validate:"required"`
	Value string `json:"value" example:"2 High St" validate:"required"`
}

// FileRequest names a file inside the backup directory.
type FileRequest struct {
	Name string `json:"name" example:"backup.txt" validate:"required"`
}

// RecordListResponse wraps a list of records.
type RecordListResponse struct {
	Records []Record `json:"records" validate:"required"`
	Total   int      `json:"total" example:"3" validate:"required"`
}

// DeleteResponse reports how many records were removed.
type DeleteResponse struct {
	Deleted int `json:"deleted" example:"1" validate:"required"`
}

// HistoryResponse wraps journal entries.
type HistoryResponse struct {
	Entries []journal.Entry `json:"entries" validate:"required"`
}
