package chat

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/aictl/idchat/internal/backend"
	"github.com/aictl/idchat/internal/session"
)

// fakeServer is an in-process stand-in for the chat backend. Handlers
// read the fields under mu, so tests can change them between
// calls.
type fakeServer struct {
	mu sync.Mutex

	start      map[string]string
	startCode  int
	assistants []string
	history    string // raw JSON body for /threadHistory and /history
	preview    string
	reply      string
	chatCode   int
	pdfExists  bool
	uploadMsg  string

	calls      map[string]int
	chatFields map[string]string
	chatFiles  []string
	uploadID   string
	modified   map[string]string
}

func newFakeServer(t *testing.T) (*fakeServer, *backend.Client) {
	t.Helper()
	f := &fakeServer{
		start:      map[string]string{"thread_id": "t1", "assistant_id": "a1", "vector_store_id": "v1"},
		assistants: []string{"a1"},
		history:    `{"data":[]}`,
		calls:      map[string]int{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/start", f.handleStart)
	mux.HandleFunc("/listAssistants", f.handleList)
	mux.HandleFunc("/threadHistory", f.handleHistory)
	mux.HandleFunc("/history", f.handleHistory)
	mux.HandleFunc("/readTextFile", f.handlePreview)
	mux.HandleFunc("/chat", f.handleChat)
	mux.HandleFunc("/upload", f.handleUpload)
	mux.HandleFunc("/modifyLatex", f.handleModify)
	mux.HandleFunc("/pdf/", f.handlePDF)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, backend.New(srv.URL)
}

func (f *fakeServer) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeServer) hit(name string) {
	f.calls[name]++
}

func respond(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (f *fakeServer) handleStart(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hit("start")
	if f.startCode != 0 {
		w.WriteHeader(f.startCode)
		return
	}
	respond(w, f.start)
}

func (f *fakeServer) handleList(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hit("listAssistants")
	respond(w, f.assistants)
}

func (f *fakeServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hit(r.URL.Path[1:])
	io.WriteString(w, f.history)
}

func (f *fakeServer) handlePreview(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hit("readTextFile")
	respond(w, map[string]string{"response": f.preview})
}

func (f *fakeServer) handleChat(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hit("chat")
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.chatFields = map[string]string{}
	for k, v := range r.MultipartForm.Value {
		f.chatFields[k] = v[0]
	}
	f.chatFiles = nil
	for _, fh := range r.MultipartForm.File["files"] {
		f.chatFiles = append(f.chatFiles, fh.Filename)
	}
	if f.chatCode != 0 {
		w.WriteHeader(f.chatCode)
		return
	}
	respond(w, map[string]string{"response": f.reply})
}

func (f *fakeServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hit("upload")
	r.ParseMultipartForm(1 << 20)
	f.uploadID = r.FormValue("conversation_id")
	respond(w, map[string]string{"message": f.uploadMsg})
}

func (f *fakeServer) handleModify(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hit("modifyLatex")
	json.NewDecoder(r.Body).Decode(&f.modified)
	respond(w, map[string]string{"status": "ok"})
}

func (f *fakeServer) handlePDF(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hit("pdf")
	if !f.pdfExists {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	if r.Method == http.MethodGet {
		io.WriteString(w, "%PDF-1.4 fake")
	}
}

// storedSession writes a triple directly into kv.
func storedSession(t *testing.T, kv session.KV, thread, assistant, vector string) {
	t.Helper()
	store := session.NewStore(kv)
	if err := store.Set(&session.Session{ConversationID: thread, AssistantID: assistant, VectorStoreID: vector}, 0); err != nil {
		t.Fatalf("seed session: %v", err)
	}
}

func newMemoryKVWithSession(t *testing.T) session.KV {
	t.Helper()
	kv := session.NewMemoryKV()
	storedSession(t, kv, "t1", "a1", "v1")
	return kv
}
