package upload

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/howplatform/ocr-client/internal/models"
)

// Multipart field names of the OCR endpoint.
const (
	FieldFile   = "file"
	FieldAPIKey = "api_key"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// multipartBody is a streamed multipart/form-data payload: the file part
// headers, the file bytes, then the optional api_key part and the closing
// boundary. Length is -1 when the document size is unknown.
type multipartBody struct {
	reader      io.Reader
	contentType string
	length      int64
}

func newMultipartBody(req *models.Request) (*multipartBody, error) {
	doc := req.Document

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	contentType := doc.ContentType
	if contentType == "" {
		contentType = models.ContentTypeFor(doc.Name)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, FieldFile, quoteEscaper.Replace(doc.Name)))
	h.Set("Content-Type", contentType)
	if _, err := mw.CreatePart(h); err != nil {
		return nil, fmt.Errorf("writing file part header: %w", err)
	}
	preamble := append([]byte(nil), buf.Bytes()...)
	buf.Reset()

	if req.APIKey != "" {
		if err := mw.WriteField(FieldAPIKey, req.APIKey); err != nil {
			return nil, fmt.Errorf("writing api_key field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}
	epilogue := append([]byte(nil), buf.Bytes()...)

	length := int64(-1)
	if doc.Size >= 0 {
		length = int64(len(preamble)) + doc.Size + int64(len(epilogue))
	}

	return &multipartBody{
		reader:      io.MultiReader(bytes.NewReader(preamble), doc.Body, bytes.NewReader(epilogue)),
		contentType: mw.FormDataContentType(),
		length:      length,
	}, nil
}
