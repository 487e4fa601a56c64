package chat

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"
)

const twoRecordHistory = `{"data":[
	{"role":"user","content":[{"text":{"value":"What is claimed?"}}]},
	{"role":"assistant","content":[{"text":{"value":"A widget."}}]}
]}`

func TestLoadFreshClient(t *testing.T) {
	f, c, _ := newTestClient(t)

	restored, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if restored {
		t.Error("nothing stored, so nothing to restore")
	}
	if f.count("listAssistants") != 0 {
		t.Error("validator should fail closed without calling the backend")
	}
	if f.count("threadHistory") != 0 {
		t.Error("history must be skipped for a new session")
	}
	sess := c.Session()
	if sess == nil || sess.ConversationID != "t1" || sess.AssistantID != "a1" || sess.VectorStoreID != "v1" {
		t.Fatalf("session = %+v", sess)
	}
	if c.Transcript().Len() != 0 {
		t.Error("transcript should be empty")
	}

	// A second load validates the stored session and restores it.
	f.mu.Lock()
	f.history = twoRecordHistory
	f.preview = "Title: Widget"
	f.mu.Unlock()

	restored, err = c.Load(context.Background())
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if !restored {
		t.Fatal("expected restore on second load")
	}
	msgs := c.Transcript().Messages()
	if len(msgs) != 2 || msgs[0].Role != "user" || msgs[0].Content != "What is claimed?" ||
		msgs[1].Role != "assistant" || msgs[1].Content != "A widget." {
		t.Errorf("restored transcript = %+v", msgs)
	}
	if c.Preview() != "Title: Widget" {
		t.Errorf("Preview = %q", c.Preview())
	}
	if f.count("pdf") == 0 {
		t.Error("artifact should be checked after restore")
	}
}

func TestLoadStaleAssistant(t *testing.T) {
	f, c, kv := newTestClient(t)
	storedSession(t, kv, "t_old", "a_old", "v_old")
	f.start = map[string]string{"thread_id": "t2", "assistant_id": "a1", "vector_store_id": "v2"}

	restored, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if restored {
		t.Error("stale session must not be restored")
	}
	if f.count("threadHistory") != 0 {
		t.Error("history must not be fetched for a stale session")
	}
	if sess := c.Session(); sess == nil || sess.ConversationID != "t2" {
		t.Errorf("expected replacement session, got %+v", sess)
	}
}

func TestLoadBootstrapFailure(t *testing.T) {
	f, c, _ := newTestClient(t)
	f.startCode = http.StatusInternalServerError

	restored, err := c.Load(context.Background())
	if restored || !errors.Is(err, ErrBootstrap) {
		t.Fatalf("Load = %v, %v", restored, err)
	}
	if c.Session() != nil || c.Transcript().Len() != 0 {
		t.Error("failed bootstrap should leave no session and an empty transcript")
	}
}

func TestRestoreReplaces(t *testing.T) {
	f, c, kv := newTestClient(t)
	storedSession(t, kv, "t1", "a1", "v1")

	f.history = twoRecordHistory
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	f.mu.Lock()
	f.history = `{"data":[{"role":"assistant","content":[{"text":{"value":"Only this"}}]}]}`
	f.mu.Unlock()
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	msgs := c.Transcript().Messages()
	if len(msgs) != 1 || msgs[0].Content != "Only this" {
		t.Errorf("transcript = %+v, want only the second response", msgs)
	}
}

func TestRestoreFailureKeepsState(t *testing.T) {
	f, c, kv := newTestClient(t)
	storedSession(t, kv, "t1", "a1", "v1")
	f.history = twoRecordHistory
	f.preview = "v1 text"
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	f.mu.Lock()
	f.history = `{"error":"thread not found"}`
	f.preview = "v2 text"
	f.mu.Unlock()

	err := c.Refresh(context.Background())
	if err == nil {
		t.Fatal("expected history error")
	}
	if c.Transcript().Len() != 2 {
		t.Errorf("transcript len = %d, want prior 2", c.Transcript().Len())
	}
	if c.Preview() != "v2 text" {
		t.Errorf("preview fetch is independent, got %q", c.Preview())
	}
}

func TestSimpleHistorySource(t *testing.T) {
	f, be := newFakeServer(t)
	kvc := newMemoryKVWithSession(t)
	c := NewClient(be, kvc, Options{HistorySource: SourceSimple})
	f.history = `{"data":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]}`

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if f.count("history") != 1 || f.count("threadHistory") != 0 {
		t.Errorf("calls = %v", f.calls)
	}
	if m, ok := c.Transcript().LastAssistant(); !ok || m.Content != "hello" {
		t.Errorf("LastAssistant = %+v", m)
	}
}

func TestUpload(t *testing.T) {
	f, c, kv := newTestClient(t)
	storedSession(t, kv, "t1", "a1", "v1")
	f.uploadMsg = "Files uploaded"

	if _, err := c.Upload(context.Background()); !errors.Is(err, ErrNothingStaged) {
		t.Errorf("empty Upload err = %v", err)
	}

	c.Stager().Add(Attachment{Name: "notes.txt", Data: []byte("n")})
	msg, err := c.Upload(context.Background())
	if err != nil || msg != "Files uploaded" {
		t.Fatalf("Upload = %q, %v", msg, err)
	}
	if f.uploadID != "t1" {
		t.Errorf("conversation_id = %q", f.uploadID)
	}
	if c.Stager().Len() != 0 {
		t.Error("stager should be cleared after upload")
	}
	if c.Transcript().Len() != 0 {
		t.Error("upload must not touch the transcript")
	}
}

func TestNewSession(t *testing.T) {
	f, c, kv := newTestClient(t)
	storedSession(t, kv, "t_old", "a1", "v1")
	c.Transcript().Append(Message{Role: RoleUser, Content: "old"})
	f.start = map[string]string{"thread_id": "t_new", "assistant_id": "a1", "vector_store_id": "v9"}

	if err := c.NewSession(context.Background()); err != nil {
		t.Fatal(err)
	}
	if sess := c.Session(); sess == nil || sess.ConversationID != "t_new" {
		t.Errorf("session = %+v", sess)
	}
	if c.Transcript().Len() != 0 {
		t.Error("transcript should be cleared with the old session")
	}
}

func TestModifySectionAndDownload(t *testing.T) {
	f, c, kv := newTestClient(t)
	storedSession(t, kv, "t1", "a1", "v1")
	f.preview = "updated preview"
	f.pdfExists = true

	if err := c.ModifySection(context.Background(), "Abstract", "New abstract"); err != nil {
		t.Fatal(err)
	}
	if f.modified["section"] != "Abstract" || f.modified["content"] != "New abstract" || f.modified["conversation_id"] != "t1" {
		t.Errorf("modify body = %v", f.modified)
	}
	if c.Preview() != "updated preview" || !c.ArtifactExists() {
		t.Error("preview and artifact should be refreshed")
	}

	var buf bytes.Buffer
	n, err := c.DownloadArtifact(context.Background(), &buf)
	if err != nil || n == 0 || !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Errorf("DownloadArtifact = %d, %v, %q", n, err, buf.String())
	}
}

func TestOperationsWithoutSession(t *testing.T) {
	_, c, _ := newTestClient(t)
	ctx := context.Background()
	if err := c.Refresh(ctx); !errors.Is(err, ErrNoSession) {
		t.Errorf("Refresh err = %v", err)
	}
	if err := c.ModifySection(ctx, "a", "b"); !errors.Is(err, ErrNoSession) {
		t.Errorf("ModifySection err = %v", err)
	}
	if _, err := c.DownloadArtifact(ctx, &bytes.Buffer{}); !errors.Is(err, ErrNoSession) {
		t.Errorf("DownloadArtifact err = %v", err)
	}
	if c.CheckArtifact(ctx) {
		t.Error("no session means no artifact")
	}
}
