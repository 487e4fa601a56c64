package repl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aictl/idchat/internal/chat"
	"github.com/aictl/idchat/internal/tui"
)

const helpText = `Commands:
  /attach <path>...          stage files for the next message
  /files                     list staged files
  /detach <n>                unstage file n (see /files)
  /upload                    upload staged files without sending a message
  /new                       drop this session and start a new one
  /refresh                   reload history and document state
  /session                   show session identifiers
  /doc                       show the generated document text
  /pdf [path]                download the generated PDF
  /section <name> <content>  replace one section of the document
  /copy                      copy the last reply to the clipboard
  /history                   print the transcript
  /quit                      exit`

// handleSlashCommand processes built-in commands. Returns true to quit.
func (r *REPL) handleSlashCommand(ctx context.Context, input string) bool {
	parts := strings.SplitN(strings.TrimSpace(input), " ", 2)
	cmd := parts[0]
	arg := ""
	if len(parts) > 1 {
		arg = strings.TrimSpace(parts[1])
	}

	switch cmd {
	case "/quit", "/exit", "/q":
		r.io.SystemMessage("Bye.")
		return true
	case "/help", "/?":
		r.io.SystemMessage(helpText)
	case "/attach":
		r.handleAttach(arg)
	case "/files":
		r.handleFiles()
	case "/detach":
		r.handleDetach(arg)
	case "/upload":
		r.handleUpload(ctx)
	case "/new":
		r.handleNew(ctx)
	case "/refresh":
		r.handleRefresh(ctx)
	case "/session":
		r.handleSession()
	case "/doc":
		r.handleDoc()
	case "/pdf":
		r.handlePDF(ctx, arg)
	case "/section":
		r.handleSection(ctx, arg)
	case "/copy":
		r.handleCopy()
	case "/history":
		r.io.SystemMessage(formatHistory(r.client.Transcript().Messages()))
	default:
		r.io.Error(fmt.Sprintf("Unknown command %s. Type /help for a list.", cmd))
	}
	return false
}

func (r *REPL) handleAttach(arg string) {
	paths := strings.Fields(arg)
	if len(paths) == 0 {
		r.io.SystemMessage("Usage: /attach <path>...")
		return
	}
	for i, p := range paths {
		paths[i] = expandHome(p)
	}
	before := r.client.Stager().Len()
	if err := r.client.Stager().AddPaths(paths...); err != nil {
		r.io.Error(err.Error())
		return
	}
	added := r.client.Stager().List()[before:]
	var sb strings.Builder
	for _, a := range added {
		fmt.Fprintf(&sb, "Staged %s (%s)\n", a.Name, tui.FormatSize(a.Size))
	}
	r.io.SystemMessage(strings.TrimRight(sb.String(), "\n"))
}

func (r *REPL) handleFiles() {
	r.io.SystemMessage(formatStaged(r.client.Stager().List()))
}

func (r *REPL) handleDetach(arg string) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		r.io.SystemMessage("Usage: /detach <n>  (numbers from /files)")
		return
	}
	list := r.client.Stager().List()
	if err := r.client.Stager().RemoveAt(n - 1); err != nil {
		r.io.Error(err.Error())
		return
	}
	r.io.SystemMessage("Removed " + list[n-1].Name + ".")
}

func (r *REPL) handleUpload(ctx context.Context) {
	r.io.ThinkingStart()
	msg, err := r.client.Upload(ctx)
	r.io.ThinkingDone()
	if err != nil {
		r.io.Error(err.Error())
		return
	}
	if msg == "" {
		msg = "Upload complete."
	}
	r.io.SystemMessage(msg)
}

func (r *REPL) handleNew(ctx context.Context) {
	r.io.ThinkingStart()
	err := r.client.NewSession(ctx)
	r.io.ThinkingDone()
	if err != nil {
		r.io.Error(err.Error())
		return
	}
	r.io.SystemMessage("Started new session " + r.sessionID() + ".")
}

func (r *REPL) handleRefresh(ctx context.Context) {
	r.io.ThinkingStart()
	err := r.client.Refresh(ctx)
	r.io.ThinkingDone()
	if errors.Is(err, chat.ErrNoSession) {
		r.io.Error("No active session.")
		return
	}
	r.replayTranscript()
	if err != nil {
		r.io.Error(err.Error())
	}
	r.io.SystemMessage(fmt.Sprintf("Refreshed (%d messages).", r.client.Transcript().Len()))
}

func (r *REPL) handleSession() {
	sess := r.client.Session()
	if sess == nil {
		r.io.SystemMessage("No active session.")
		return
	}
	r.io.SystemMessage(fmt.Sprintf("Thread:       %s\nAssistant:    %s\nVector store: %s\nExpiry:       %s",
		sess.ConversationID, sess.AssistantID, sess.VectorStoreID, tui.FormatExpiry(sess.ExpiresAt)))
}

func (r *REPL) handleDoc() {
	text := r.client.Preview()
	if strings.TrimSpace(text) == "" {
		r.io.SystemMessage("No document text yet. Try /refresh after the assistant drafts one.")
		return
	}
	r.io.AssistantMessage(text)
}

func (r *REPL) handlePDF(ctx context.Context, arg string) {
	sess := r.client.Session()
	if sess == nil {
		r.io.Error("No active session.")
		return
	}
	if !r.client.CheckArtifact(ctx) {
		r.io.SystemMessage("No document has been generated for this session yet.")
		return
	}

	path := expandHome(arg)
	if path == "" {
		path = filepath.Join(r.downloadDir, sess.ConversationID+".pdf")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			r.io.Error(err.Error())
			return
		}
	}
	f, err := os.Create(path)
	if err != nil {
		r.io.Error(err.Error())
		return
	}
	n, err := r.client.DownloadArtifact(ctx, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		r.io.Error("Download failed: " + err.Error())
		return
	}
	r.io.SystemMessage(fmt.Sprintf("Saved %s (%s).", path, tui.FormatSize(n)))
}

func (r *REPL) handleSection(ctx context.Context, arg string) {
	parts := strings.SplitN(arg, " ", 2)
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		r.io.SystemMessage("Usage: /section <name> <content>")
		return
	}
	r.io.ThinkingStart()
	err := r.client.ModifySection(ctx, parts[0], strings.TrimSpace(parts[1]))
	r.io.ThinkingDone()
	if err != nil {
		r.io.Error(err.Error())
		return
	}
	r.io.SystemMessage("Section " + parts[0] + " updated.")
}

func (r *REPL) handleCopy() {
	m, ok := r.client.Transcript().LastAssistant()
	if !ok {
		r.io.SystemMessage("Nothing to copy yet.")
		return
	}
	if err := r.copyFn(m.Content); err != nil {
		r.io.Error("Copy failed: " + err.Error())
		return
	}
	r.io.SystemMessage("Copied last reply to clipboard.")
}

func formatStaged(atts []chat.Attachment) string {
	if len(atts) == 0 {
		return "No files staged."
	}
	var sb strings.Builder
	for i, a := range atts {
		fmt.Fprintf(&sb, "  %d. %s", i+1, a.Name)
		if a.Size > 0 {
			fmt.Fprintf(&sb, " (%s)", tui.FormatSize(a.Size))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatHistory(msgs []chat.Message) string {
	if len(msgs) == 0 {
		return "No messages yet."
	}
	var sb strings.Builder
	for i, m := range msgs {
		fmt.Fprintf(&sb, "[%d] %s: %s", i+1, m.Role, tui.Truncate(strings.ReplaceAll(m.Content, "\n", " "), 100))
		if len(m.Attachments) > 0 {
			fmt.Fprintf(&sb, " [%s]", strings.Join(refNames(m.Attachments), ", "))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
