package models

type UploadResponse struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	FileType     string `json:"file_type"`
	Preview      string `json:"preview,omitempty"`
}

type AnalyzeRequest struct {
	ResumeDocumentID         string `json:"resume_document_id"`
	JobDescriptionDocumentID string `json:"job_description_document_id"`
	JobDescriptionText       string `json:"job_description_text"`
}

type AnalyzeResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type ExtractResponse struct {
	Text     string     `json:"text"`
	Sections SectionMap `json:"sections"`
}

type ResultResponse struct {
	ID           string       `json:"id"`
	Status       string       `json:"status"`
	Verdict      string       `json:"verdict,omitempty"`
	Result       *MatchReport `json:"result,omitempty"`
	Sections     *SectionMap  `json:"sections,omitempty"`
	ErrorMessage *string      `json:"error_message,omitempty"`
}

type SuggestionResponse struct {
	AnalysisID  string `json:"analysis_id"`
	Section     string `json:"section"`
	Suggestions string `json:"suggestions"`
}
