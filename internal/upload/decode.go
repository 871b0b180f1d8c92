package upload

import (
	"encoding/json"
	"mime"

	"github.com/howplatform/ocr-client/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

// MIMEApplicationMsgpack is the content type of msgpack response bodies.
const MIMEApplicationMsgpack = "application/msgpack"

// decodeBody decodes a 200 body into v. msgpack bodies are recognised by
// content type; anything else is treated as JSON.
func decodeBody(contentType string, data []byte, v interface{}) error {
	mediaType, _, _ := mime.ParseMediaType(contentType)

	switch mediaType {
	case MIMEApplicationMsgpack, "application/x-msgpack", "application/vnd.msgpack":
		return msgpack.Unmarshal(data, v)
	default:
		return json.Unmarshal(data, v)
	}
}

func decodeResponse(contentType string, data []byte) (*models.Response, error) {
	var resp models.Response
	if err := decodeBody(contentType, data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func decodeReceipt(contentType string, data []byte) (*models.UploadReceipt, error) {
	var receipt models.UploadReceipt
	if err := decodeBody(contentType, data, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}
