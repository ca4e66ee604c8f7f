package chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-go-golems/docchat/pkg/api"
	"github.com/go-go-golems/docchat/pkg/session"
	"github.com/stretchr/testify/require"
)

// fakeBackend is an httptest server speaking the backend's wire contract.
type fakeBackend struct {
	srv *httptest.Server

	mu              sync.Mutex
	count           int
	countStatus     int
	countCalls      int
	customerName    string
	infoCalls       int
	healthStatus    int
	documentsStatus int
	documentsDelay  time.Duration
	documents       []api.Document
	files           map[string]string
	askCalls        int
	askHandler      func(w http.ResponseWriter, question string)
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{
		countStatus:     http.StatusOK,
		healthStatus:    http.StatusOK,
		documentsStatus: http.StatusOK,
		files:           map[string]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc(api.PathInteractionCount, func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		fb.countCalls++
		status, count := fb.countStatus, fb.count
		fb.mu.Unlock()
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"count": count})
	})
	mux.HandleFunc(api.PathTokenInfo, func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		fb.infoCalls++
		name := fb.customerName
		fb.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"customer_name": name, "email": ""})
	})
	mux.HandleFunc(api.PathHealth, func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		status := fb.healthStatus
		fb.mu.Unlock()
		writeJSON(w, status, map[string]string{"status": "ok"})
	})
	mux.HandleFunc(api.PathDocuments, func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		status, docs, delay := fb.documentsStatus, append([]api.Document{}, fb.documents...), fb.documentsDelay
		fb.mu.Unlock()
		time.Sleep(delay)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		writeJSON(w, http.StatusOK, api.DocumentList{Documents: docs})
	})
	mux.HandleFunc(api.PathData, func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, api.PathData)
		fb.mu.Lock()
		content, ok := fb.files[name]
		fb.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(content))
	})
	mux.HandleFunc(api.PathAsk, func(w http.ResponseWriter, r *http.Request) {
		var req api.AskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
			return
		}
		fb.mu.Lock()
		fb.askCalls++
		h := fb.askHandler
		fb.mu.Unlock()
		if h == nil {
			writeJSON(w, http.StatusOK, api.AskResponse{Answer: "answer to " + req.Question})
			return
		}
		h(w, req.Question)
	})

	fb.srv = httptest.NewServer(mux)
	t.Cleanup(fb.srv.Close)
	return fb
}

func (fb *fakeBackend) set(f func(fb *fakeBackend)) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	f(fb)
}

func (fb *fakeBackend) calls() (count, info, ask int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.countCalls, fb.infoCalls, fb.askCalls
}

func (fb *fakeBackend) client(token string) *api.Client {
	return api.NewClient(session.Context{BaseURL: fb.srv.URL, Token: session.NewToken(token)})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestController(t *testing.T, fb *fakeBackend, token string, options ...Option) *Controller {
	t.Helper()
	fixed := time.Date(2026, 10, 14, 13, 7, 0, 0, time.Local)
	options = append([]Option{WithClock(func() time.Time { return fixed })}, options...)
	c := New(fb.client(token), session.NewToken(token), options...)
	t.Cleanup(c.Stop)
	return c
}

func botMessages(s State) []string {
	var ret []string
	for _, m := range s.Messages() {
		if !m.IsUser {
			ret = append(ret, m.Text)
		}
	}
	return ret
}

func countContaining(msgs []Message, substr string) int {
	n := 0
	for _, m := range msgs {
		if strings.Contains(m.Text, substr) {
			n++
		}
	}
	return n
}

func eventually(t *testing.T, c *Controller, cond func(s State) bool) State {
	t.Helper()
	var last State
	require.Eventually(t, func() bool {
		last = c.Snapshot()
		return cond(last)
	}, 2*time.Second, 5*time.Millisecond)
	return last
}
