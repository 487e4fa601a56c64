package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL + "/")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestNewTrimsTrailingSlash(t *testing.T) {
	c := New("http://example.test/api/")
	if c.BaseURL() != "http://example.test/api" {
		t.Errorf("BaseURL = %q", c.BaseURL())
	}
	if got := c.ArtifactURL("abc"); got != "http://example.test/api/pdf/abc/abc.pdf" {
		t.Errorf("ArtifactURL = %q", got)
	}
}

func TestStart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/start" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID")
		}
		writeJSON(w, map[string]string{
			"thread_id":       "t1",
			"assistant_id":    "a1",
			"vector_store_id": "v1",
		})
	})

	res, err := c.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if res.ThreadID != "t1" || res.AssistantID != "a1" || res.VectorStoreID != "v1" {
		t.Errorf("unexpected triple: %+v", res)
	}
}

func TestStartConversationIDFallback(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"conversation_id": "c9", "assistant_id": "a1"})
	})
	res, err := c.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if res.ThreadID != "c9" {
		t.Errorf("ThreadID = %q, want c9", res.ThreadID)
	}
	if res.VectorStoreID != "" {
		t.Errorf("VectorStoreID = %q, want empty", res.VectorStoreID)
	}
}

func TestStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	_, err := c.Start(context.Background())
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != 500 || se.Endpoint != "start" || se.Body != "boom" {
		t.Errorf("unexpected StatusError: %+v", se)
	}
}

func TestListAssistantsShapes(t *testing.T) {
	cases := map[string]string{
		"strings": `["a1","a2"]`,
		"objects": `[{"id":"a1"},{"id":"a2"}]`,
		"wrapped": `{"data":[{"id":"a1"},{"id":"a2"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, body)
			})
			ids, err := c.ListAssistants(context.Background())
			if err != nil {
				t.Fatalf("ListAssistants: %v", err)
			}
			if len(ids) != 2 || ids[0] != "a1" || ids[1] != "a2" {
				t.Errorf("ids = %v", ids)
			}
		})
	}
}

func TestThreadHistory(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("thread_id"); got != "t1" {
			t.Errorf("thread_id = %q", got)
		}
		io.WriteString(w, `{"data":[
			{"role":"user","content":[{"text":{"value":"hi"}}]},
			{"role":"assistant","content":[]}
		]}`)
	})
	records, err := c.ThreadHistory(context.Background(), "t1")
	if err != nil {
		t.Fatalf("ThreadHistory: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len = %d", len(records))
	}
	if records[0] != (Record{Role: "user", Text: "hi"}) {
		t.Errorf("records[0] = %+v", records[0])
	}
	if records[1] != (Record{Role: "assistant", Text: ""}) {
		t.Errorf("records[1] = %+v", records[1])
	}
}

func TestHistoryMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"error":"nope"}`)
	})
	_, err := c.History(context.Background(), "t1")
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestHistorySimple(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("conversation_id"); got != "c1" {
			t.Errorf("conversation_id = %q", got)
		}
		io.WriteString(w, `{"data":[{"role":"user","content":"q"},{"role":"assistant","content":"a"}]}`)
	})
	records, err := c.History(context.Background(), "c1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(records) != 2 || records[1].Text != "a" {
		t.Errorf("records = %+v", records)
	}
}

func TestReadTextFile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"response": "preview"})
	})
	text, err := c.ReadTextFile(context.Background(), "t1")
	if err != nil || text != "preview" {
		t.Errorf("ReadTextFile = %q, %v", text, err)
	}
}

func TestChatMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		want := map[string]string{
			"message":         "hello",
			"thread_id":       "t1",
			"conversation_id": "t1",
			"assistant_id":    "a1",
			"vector_store_id": "v1",
		}
		for k, v := range want {
			if got := r.FormValue(k); got != v {
				t.Errorf("%s = %q, want %q", k, got, v)
			}
		}
		files := r.MultipartForm.File["files"]
		if len(files) != 2 || files[0].Filename != "a.txt" || files[1].Filename != "b.txt" {
			t.Errorf("unexpected files: %d", len(files))
		}
		writeJSON(w, map[string]string{"response": "hi back"})
	})

	reply, err := c.Chat(context.Background(), ChatRequest{
		Message:       "hello",
		ThreadID:      "t1",
		AssistantID:   "a1",
		VectorStoreID: "v1",
		Files: []File{
			memFile("a.txt", "aaa"),
			memFile("b.txt", "bbb"),
		},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply != "hi back" {
		t.Errorf("reply = %q", reply)
	}
}

func TestChatMissingResponseField(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"other": "x"})
	})
	reply, err := c.Chat(context.Background(), ChatRequest{Message: "m"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply != "" {
		t.Errorf("reply = %q, want empty", reply)
	}
}

func TestChatOpenFailure(t *testing.T) {
	var called bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	_, err := c.Chat(context.Background(), ChatRequest{
		Message: "m",
		Files: []File{{Name: "x", Open: func() (io.ReadCloser, error) {
			return nil, errors.New("gone")
		}}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if called {
		t.Error("request should not be sent when a file cannot be opened")
	}
}

func TestUpload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		if r.FormValue("conversation_id") != "t1" {
			t.Errorf("conversation_id = %q", r.FormValue("conversation_id"))
		}
		writeJSON(w, map[string]string{"message": "Files uploaded"})
	})
	msg, err := c.Upload(context.Background(), "t1", []File{memFile("a.txt", "a")})
	if err != nil || msg != "Files uploaded" {
		t.Errorf("Upload = %q, %v", msg, err)
	}
}

func TestModifyDocument(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/modifyLatex" || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s %s", r.URL.Path, r.Header.Get("Content-Type"))
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["section"] != "Background" || body["content"] != "new text" || body["conversation_id"] != "t1" {
			t.Errorf("body = %v", body)
		}
		writeJSON(w, map[string]string{"status": "ok"})
	})
	if err := c.ModifyDocument(context.Background(), "t1", "Background", "new text"); err != nil {
		t.Fatalf("ModifyDocument: %v", err)
	}
}

func TestArtifactExists(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/pdf/ready/ready.pdf" {
			w.Header().Set("Content-Type", "application/pdf")
			return
		}
		http.NotFound(w, r)
	})

	ok, err := c.ArtifactExists(context.Background(), "ready")
	if err != nil || !ok {
		t.Errorf("ready: ok=%v err=%v", ok, err)
	}
	ok, err = c.ArtifactExists(context.Background(), "missing")
	if err != nil || ok {
		t.Errorf("missing: ok=%v err=%v", ok, err)
	}
}

func TestArtifactExistsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c := New(srv.URL)
	srv.Close()

	if _, err := c.ArtifactExists(context.Background(), "x"); err == nil {
		t.Error("expected transport error")
	}
}

func TestDownloadArtifact(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "%PDF-1.4")
	})
	var buf bytes.Buffer
	n, err := c.DownloadArtifact(context.Background(), "t1", &buf)
	if err != nil {
		t.Fatalf("DownloadArtifact: %v", err)
	}
	if n != 8 || !strings.HasPrefix(buf.String(), "%PDF") {
		t.Errorf("n=%d body=%q", n, buf.String())
	}
}

func memFile(name, content string) File {
	return File{Name: name, Open: func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(content)), nil
	}}
}
