package models

// Request is one OCR submission: the document and an optional API key.
// An empty APIKey means the api_key field is left out of the payload.
// OutputFilename names the produced document; only the two-step flow sends it.
type Request struct {
	Document       *Document
	APIKey         string
	OutputFilename string
}

// Response is the body returned by the OCR endpoint on success.
// Only DownloadURL is expected to be present; everything else is optional.
type Response struct {
	Preview        string `json:"preview,omitempty" msgpack:"preview,omitempty"`
	DownloadURL    string `json:"download_url" msgpack:"download_url"`
	TextPreview    string `json:"text_preview,omitempty" msgpack:"text_preview,omitempty"`
	Status         string `json:"status,omitempty" msgpack:"status,omitempty"`
	Message        string `json:"message,omitempty" msgpack:"message,omitempty"`
	OutputFilename string `json:"output_filename,omitempty" msgpack:"output_filename,omitempty"`
	PageCount      *int   `json:"page_count,omitempty" msgpack:"page_count,omitempty"`
	WordCount      *int   `json:"word_count,omitempty" msgpack:"word_count,omitempty"`
}

// PreviewText returns the preview, falling back to text_preview, which the
// commit endpoint of the OCR server uses for the same content.
func (r *Response) PreviewText() string {
	if r.Preview != "" {
		return r.Preview
	}
	return r.TextPreview
}

// UploadReceipt is the answer of the upload step of the two-step flow.
type UploadReceipt struct {
	Status    string                 `json:"status,omitempty" msgpack:"status,omitempty"`
	FileID    string                 `json:"file_id" msgpack:"file_id"`
	PageCount int                    `json:"page_count,omitempty" msgpack:"page_count,omitempty"`
	File      map[string]interface{} `json:"file,omitempty" msgpack:"file,omitempty"`
}

// CommitRequest is the JSON body of the commit step of the two-step flow.
type CommitRequest struct {
	FileID         string `json:"file_id"`
	APIKey         string `json:"api_key,omitempty"`
	OutputFilename string `json:"output_filename,omitempty"`
}
