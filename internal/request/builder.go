package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/sciencetwins/twins/internal/types"
)

const (
	// FieldMode is the form/JSON field carrying the analysis mode
	FieldMode = "mode"
	// FieldText is the JSON field carrying the pasted text
	FieldText = "text"
	// FieldFile is the multipart field carrying the PDF
	FieldFile = "file"

	contentTypeJSON = "application/json"
	contentTypePDF  = "application/pdf"
)

// jsonBody is the text-mode payload
type jsonBody struct {
	Text string     `json:"text"`
	Mode types.Mode `json:"mode"`
}

// Build turns user input into a request body for the analysis service.
//
// A file always wins over text: the multipart payload cannot carry raw text
// next to the file, so when file is non-nil the text is dropped. Without a
// file the text is sent as-is (untrimmed). Callers must check
// AnalysisInput.Ready before calling Build; it is not re-checked here.
func Build(text string, mode types.Mode, file *types.File) (*types.AnalysisRequest, error) {
	if file != nil {
		return buildMultipart(mode, file)
	}
	return buildJSON(text, mode)
}

// BuildInput is Build for an AnalysisInput
func BuildInput(in types.AnalysisInput) (*types.AnalysisRequest, error) {
	return Build(in.Text, in.Mode, in.File)
}

func buildJSON(text string, mode types.Mode) (*types.AnalysisRequest, error) {
	body, err := json.Marshal(jsonBody{Text: text, Mode: mode})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	return &types.AnalysisRequest{
		Encoding:    types.EncodingJSON,
		Mode:        mode,
		Body:        body,
		ContentType: contentTypeJSON,
		Headers: map[string]string{
			"Content-Type": contentTypeJSON,
		},
	}, nil
}

func buildMultipart(mode types.Mode, file *types.File) (*types.AnalysisRequest, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField(FieldMode, string(mode)); err != nil {
		return nil, fmt.Errorf("failed to write mode field: %w", err)
	}

	partType := file.ContentType
	if partType == "" {
		partType = contentTypePDF
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, FieldFile, escapeQuotes(UploadName(file.Name))))
	header.Set("Content-Type", partType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, fmt.Errorf("failed to write file part: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	// No explicit Content-Type header: the boundary-bearing value comes
	// from the writer and is applied by the client.
	return &types.AnalysisRequest{
		Encoding:    types.EncodingMultipart,
		Mode:        mode,
		Body:        buf.Bytes(),
		ContentType: writer.FormDataContentType(),
		Headers:     map[string]string{},
		FileName:    file.Name,
	}, nil
}

// UploadName is the file name sent to the service. Files are accepted by
// content, but the service only takes uploads named *.pdf, so the suffix is
// added when missing.
func UploadName(name string) string {
	if name == "" {
		return "document.pdf"
	}
	if strings.HasSuffix(strings.ToLower(name), ".pdf") {
		return name
	}
	return name + ".pdf"
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
