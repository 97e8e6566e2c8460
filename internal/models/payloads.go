package models

// These structs define the JSON payloads for HTTP requests and responses
// of the document functions.

// ExportRequest is the input for the document-export function.
type ExportRequest struct {
	DocumentID  string `json:"documentId"`
	Format      string `json:"format"`      // "image" or "pdf"
	PageSize    string `json:"pageSize"`    // "A4", "Letter", "Legal"
	Orientation string `json:"orientation"` // "portrait" or "landscape"
	Quality     int    `json:"quality"`
}

// ExportResponse is the output of the document-export function.
type ExportResponse struct {
	Status      string `json:"status"`
	ObjectURI   string `json:"objectUri"`
	MIMEType    string `json:"mimeType"`
	SizeInBytes int    `json:"sizeInBytes"`
}

// LibraryListRequest is the query of the document-library function.
type LibraryListRequest struct {
	Search string `json:"search"`
	SortBy string `json:"sortBy"` // "date", "name" or "pages"
}

// LibraryEntry summarizes one stored document for the dashboard.
type LibraryEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PageCount int    `json:"pageCount"`
	CreatedAt string `json:"createdAt"`
	HasText   bool   `json:"hasText"`
}

// LibraryListResponse is the output of a list call.
type LibraryListResponse struct {
	Status    string         `json:"status"`
	Documents []LibraryEntry `json:"documents"`
}

// LibraryDeleteResponse is the output of a delete call.
type LibraryDeleteResponse struct {
	Status     string `json:"status"`
	DocumentID string `json:"documentId"`
}

// IngestResponse summarizes a headless scan run.
type IngestResponse struct {
	Status     string `json:"status"`
	DocumentID string `json:"documentId"`
	TextLength int    `json:"textLength"`
}
