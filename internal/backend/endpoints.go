package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// ErrMalformed is returned when a history response lacks its data array.
var ErrMalformed = errors.New("malformed response")

// StartResponse is the identifier triple returned by /start.
// Fields the backend omits are left empty.
type StartResponse struct {
	ThreadID      string
	AssistantID   string
	VectorStoreID string
}

// File is one multipart file part. Open is called once per request.
type File struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// ChatRequest is one user turn.
type ChatRequest struct {
	Message       string
	ThreadID      string
	AssistantID   string
	VectorStoreID string
	Files         []File
}

// Start creates a new backend session.
func (c *Client) Start(ctx context.Context) (*StartResponse, error) {
	body, err := c.getJSON(ctx, "start", "/start", nil)
	if err != nil {
		return nil, err
	}
	return parseStart(body), nil
}

// ListAssistants returns the assistant ids the backend knows about.
func (c *Client) ListAssistants(ctx context.Context) ([]string, error) {
	body, err := c.getJSON(ctx, "listAssistants", "/listAssistants", nil)
	if err != nil {
		return nil, err
	}
	return parseAssistantIDs(body), nil
}

// ThreadHistory fetches the assistant-thread form of the transcript.
func (c *Client) ThreadHistory(ctx context.Context, threadID string) ([]Record, error) {
	body, err := c.getJSON(ctx, "threadHistory", "/threadHistory", url.Values{"thread_id": {threadID}})
	if err != nil {
		return nil, err
	}
	records, ok := parseThreadHistory(body)
	if !ok {
		return nil, fmt.Errorf("threadHistory: %w", ErrMalformed)
	}
	return records, nil
}

// History fetches the simple {role, content} form of the transcript.
func (c *Client) History(ctx context.Context, conversationID string) ([]Record, error) {
	body, err := c.getJSON(ctx, "history", "/history", url.Values{"conversation_id": {conversationID}})
	if err != nil {
		return nil, err
	}
	records, ok := parseSimpleHistory(body)
	if !ok {
		return nil, fmt.Errorf("history: %w", ErrMalformed)
	}
	return records, nil
}

// ReadTextFile fetches the generated document's preview text.
func (c *Client) ReadTextFile(ctx context.Context, threadID string) (string, error) {
	body, err := c.getJSON(ctx, "readTextFile", "/readTextFile", url.Values{"thread_id": {threadID}})
	if err != nil {
		return "", err
	}
	return stringField(body, "response"), nil
}

// Chat sends one turn and returns the assistant's reply text.
func (c *Client) Chat(ctx context.Context, r ChatRequest) (string, error) {
	fields := [][2]string{
		{"message", r.Message},
		{"thread_id", r.ThreadID},
		// The simple backend keys conversations by conversation_id.
		{"conversation_id", r.ThreadID},
		{"assistant_id", r.AssistantID},
		{"vector_store_id", r.VectorStoreID},
	}
	body, err := c.postMultipart(ctx, "chat", "/chat", fields, r.Files)
	if err != nil {
		return "", err
	}
	return stringField(body, "response"), nil
}

// Upload ingests files into the conversation outside of a chat turn and
// returns the backend's status message.
func (c *Client) Upload(ctx context.Context, conversationID string, files []File) (string, error) {
	fields := [][2]string{{"conversation_id", conversationID}}
	body, err := c.postMultipart(ctx, "upload", "/upload", fields, files)
	if err != nil {
		return "", err
	}
	return stringField(body, "message"), nil
}

// ModifyDocument replaces one named section of the generated document.
func (c *Client) ModifyDocument(ctx context.Context, conversationID, section, content string) error {
	payload, err := json.Marshal(map[string]string{
		"conversation_id": conversationID,
		"section":         section,
		"content":         content,
	})
	if err != nil {
		return fmt.Errorf("modifyLatex: marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL("/modifyLatex", nil), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("modifyLatex: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	_, err = c.readBody(ctx, "modifyLatex", req)
	return err
}

// artifactPath is the predictable per-conversation document location.
func artifactPath(id string) string {
	e := url.PathEscape(id)
	return "/pdf/" + e + "/" + e + ".pdf"
}

// ArtifactURL returns the absolute URL of the conversation's document.
func (c *Client) ArtifactURL(id string) string {
	return c.endpointURL(artifactPath(id), nil)
}

// ArtifactExists reports whether the generated document is available.
// A non-2xx answer is a definite "no"; transport failures return an error.
func (c *Client) ArtifactExists(ctx context.Context, id string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.ArtifactURL(id), nil)
	if err != nil {
		return false, fmt.Errorf("pdf: build request: %w", err)
	}
	req.Header.Set("Accept", "application/pdf")
	resp, err := c.do(ctx, "pdf", req)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			return false, nil
		}
		return false, err
	}
	resp.Body.Close()
	return true, nil
}

// DownloadArtifact streams the generated document into w.
func (c *Client) DownloadArtifact(ctx context.Context, id string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ArtifactURL(id), nil)
	if err != nil {
		return 0, fmt.Errorf("pdf: build request: %w", err)
	}
	req.Header.Set("Accept", "application/pdf")
	resp, err := c.do(ctx, "pdf", req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("pdf: copy body: %w", err)
	}
	return n, nil
}

// postMultipart builds a multipart/form-data body from fields and files
// (all under the "files" part name, in order) and posts it.
func (c *Client) postMultipart(ctx context.Context, endpoint, path string, fields [][2]string, files []File) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("%s: write field %s: %w", endpoint, f[0], err)
		}
	}
	for _, f := range files {
		if err := writeFilePart(mw, f); err != nil {
			return nil, fmt.Errorf("%s: %w", endpoint, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("%s: close multipart: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL(path, nil), &buf)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.readBody(ctx, endpoint, req)
}

func writeFilePart(mw *multipart.Writer, f File) error {
	if f.Open == nil {
		return fmt.Errorf("file %s: no content", f.Name)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	part, err := mw.CreateFormFile("files", f.Name)
	if err != nil {
		return fmt.Errorf("create part %s: %w", f.Name, err)
	}
	if _, err := io.Copy(part, rc); err != nil {
		return fmt.Errorf("copy %s: %w", f.Name, err)
	}
	return nil
}
