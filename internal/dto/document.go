package dto

type DocumentResponse struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	FileType    string `json:"file_type"`
	FileSize    int64  `json:"file_size"`
	Status      string `json:"status"`
	Preview     string `json:"preview,omitempty"`
	TotalChunks int    `json:"total_chunks,omitempty"`
	SourceURL   string `json:"source_url,omitempty"`
	Error       string `json:"error,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type CrawlURLRequest struct {
	URL string `json:"url" validate:"required,url"`
}

type SearchRequest struct {
	Query string `json:"query" validate:"required"`
	Limit int    `json:"limit"`
}

type SearchMatch struct {
	ID         string  `json:"id"`
	Filename   string  `json:"filename"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

type SearchResponse struct {
	Query   string        `json:"query"`
	Results []SearchMatch `json:"results"`
}
