package dto

// UploadDocumentResponse acknowledges an accepted ingestion batch. The
// actual work happens asynchronously; poll the task id for progress.
type UploadDocumentResponse struct {
	TaskId  string `json:"task_id"`
	Message string `json:"message"`
}

// DocumentInfo is one entry of the per-collection document listing.
type DocumentInfo struct {
	DocumentName string `json:"document_name"`
	ChunkCount   int64  `json:"chunk_count"`
}

// DeleteDocumentsRequest is the body of DELETE /api/document/v1.
type DeleteDocumentsRequest struct {
	CollectionName string   `json:"collection_name" validate:"required"`
	DocumentNames  []string `json:"document_names" validate:"required,min=1"`
}

// PublishIngestDocumentMessage travels over the ingestion topic from the
// upload handler to the consumer that embeds and persists the document.
type PublishIngestDocumentMessage struct {
	TaskId         string `json:"task_id"`
	CollectionName string `json:"collection_name"`
	DocumentName   string `json:"document_name"`
	Content        string `json:"content"`
}

// TaskDocumentResult reports the per-document outcome of an ingestion task.
type TaskDocumentResult struct {
	DocumentName string `json:"document_name"`
	Status       string `json:"status"`
	Error        string `json:"error_message,omitempty"`
}

// TaskStatusResponse is the body of GET /api/document/v1/status/:taskId.
type TaskStatusResponse struct {
	TaskId    string               `json:"task_id"`
	State     string               `json:"state"`
	Documents []TaskDocumentResult `json:"documents"`
}

// SummaryResponse carries the generated summary for one ingested document.
type SummaryResponse struct {
	CollectionName string `json:"collection_name"`
	DocumentName   string `json:"document_name"`
	Summary        string `json:"summary"`
}
