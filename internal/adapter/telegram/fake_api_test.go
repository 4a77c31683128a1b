package telegram

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

const testToken = "123:secret"

type apiCall struct {
	Method string
	Fields map[string]string
	File   []byte
}

// markup decodes the inline keyboard sent with a message.
func (c apiCall) markup(t *testing.T) [][]map[string]any {
	t.Helper()
	var markup struct {
		InlineKeyboard [][]map[string]any `json:"inline_keyboard"`
	}
	if err := json.Unmarshal([]byte(c.Fields["reply_markup"]), &markup); err != nil {
		t.Fatalf("decode reply_markup: %v", err)
	}
	return markup.InlineKeyboard
}

type fakeAPI struct {
	t      *testing.T
	server *httptest.Server

	mu        sync.Mutex
	calls     []apiCall
	responses map[string]func(w http.ResponseWriter)
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{t: t, responses: make(map[string]func(http.ResponseWriter))}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAPI) client() *Client {
	f.t.Helper()
	c, err := NewClient(f.server.URL, testToken, testLogger())
	if err != nil {
		f.t.Fatalf("new client: %v", err)
	}
	return c
}

func (f *fakeAPI) respond(method string, fn func(w http.ResponseWriter)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[method] = fn
}

func (f *fakeAPI) respondJSON(method string, status int, body string) {
	f.respond(method, func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

func (f *fakeAPI) Calls() []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiCall(nil), f.calls...)
}

func (f *fakeAPI) CallsTo(method string) []apiCall {
	var out []apiCall
	for _, c := range f.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	prefix := "/bot" + testToken + "/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.NotFound(w, r)
		return
	}
	call := apiCall{Method: strings.TrimPrefix(r.URL.Path, prefix)}

	call.Fields = make(map[string]string)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			f.t.Errorf("parse multipart: %v", err)
		}
		for k, v := range r.MultipartForm.Value {
			call.Fields[k] = v[0]
		}
		if files := r.MultipartForm.File["photo"]; len(files) > 0 {
			file, err := files[0].Open()
			if err == nil {
				call.File, _ = io.ReadAll(file)
				file.Close()
			}
		}
	} else {
		if err := r.ParseForm(); err != nil {
			f.t.Errorf("parse form: %v", err)
		}
		for k, v := range r.PostForm {
			call.Fields[k] = v[0]
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	respond := f.responses[call.Method]
	f.mu.Unlock()

	if respond != nil {
		respond(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch call.Method {
	case "sendMessage", "sendPhoto":
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":1,"chat":{"id":1,"type":"private"}}}`)
	case "createChatInviteLink":
		_, _ = io.WriteString(w, `{"ok":true,"result":{"invite_link":"https://t.me/+abc","member_limit":1}}`)
	case "getUpdates":
		_, _ = io.WriteString(w, `{"ok":true,"result":[]}`)
	default:
		_, _ = io.WriteString(w, `{"ok":true,"result":true}`)
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
