package grader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	defaultFileField   = "file"
	defaultFileName    = "upload"
	defaultContentType = "application/octet-stream"
	jsonContentType    = "application/json"
)

// UploadRequest is the file payload for SubmitOCRUpload. Content is streamed
// into the multipart body without being inspected.
type UploadRequest struct {
	FieldName   string
	FileName    string
	ContentType string
	Content     io.Reader
	Fields      map[string]string
}

// GradeRequest is the payload for SubmitGrading.
type GradeRequest struct {
	Text string `json:"text"`
}

// NewUploadFromFile reads path into an UploadRequest using the "file" field.
func NewUploadFromFile(path string) (UploadRequest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return UploadRequest{}, fmt.Errorf("read upload file: %w", err)
	}
	name := filepath.Base(path)
	return UploadRequest{
		FieldName:   defaultFileField,
		FileName:    name,
		ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(name))),
		Content:     bytes.NewReader(raw),
	}, nil
}

// encodeMultipart renders req as a multipart/form-data body.
func encodeMultipart(req UploadRequest) ([]byte, string, error) {
	if req.Content == nil {
		return nil, "", errors.New("upload content is nil")
	}

	field := strings.TrimSpace(req.FieldName)
	if field == "" {
		field = defaultFileField
	}
	name := strings.TrimSpace(req.FileName)
	if name == "" {
		name = defaultFileName
	}
	ct := strings.TrimSpace(req.ContentType)
	if ct == "" {
		ct = defaultContentType
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	// Extra fields go first in a stable order so bodies are reproducible.
	keys := make([]string, 0, len(req.Fields))
	for k := range req.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, req.Fields[k]); err != nil {
			return nil, "", fmt.Errorf("write field %q: %w", k, err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(name)))
	h.Set("Content-Type", ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, req.Content); err != nil {
		return nil, "", fmt.Errorf("copy file content: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// encodeJSON renders v as a JSON request body.
func encodeJSON(v any) ([]byte, string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, "", err
	}
	return raw, jsonContentType, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")
