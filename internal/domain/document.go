package domain

import "time"

// Document owns one block tree rooted at a page block.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	RootID    string    `json:"rootId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DocumentExport is the file format used for export and import.
type DocumentExport struct {
	Document Document   `json:"document"`
	Blocks   []BlockDTO `json:"blocks"`
}
