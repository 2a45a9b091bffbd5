package amvnews

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

// fakeSite 是站点的最小替身：按查询参数路由，并记录每类请求的次数。
type fakeSite struct {
	t *testing.T

	mu       sync.Mutex
	hits     map[string]int
	params   map[string]url.Values // 每类请求最近一次的查询参数
	form     url.Values            // 最近一次登录表单
	rawLogin string                // 最近一次登录请求体（未解码）
	ua       []string
	cookies  []string

	detail   map[int]string
	featured string
	fileList string
}

func newFakeSite(t *testing.T) (*fakeSite, *httptest.Server) {
	t.Helper()
	s := &fakeSite{
		t:        t,
		hits:     map[string]int{},
		params:   map[string]url.Values{},
		detail:   map[int]string{101: fixture(t, "detail.html"), 202: fixture(t, "detail.html")},
		featured: fixture(t, "featured.html"),
		fileList: fixture(t, "filelist.html"),
	}

	r := mux.NewRouter()
	r.HandleFunc("/index.php", s.login).Methods(http.MethodPost).Queries("go", "Members")
	r.HandleFunc("/index.php", s.view).Methods(http.MethodGet).
		Queries("go", "Files", "in", "view", "id", "{id:[0-9]+}")
	r.HandleFunc("/index.php", s.ok("vote")).Methods(http.MethodGet).
		Queries("go", "Files", "in", "ajaxreiting", "id", "{id:[0-9]+}", "vote", "{vote:[1-5]}")
	r.HandleFunc("/index.php", s.ok("addfav")).Methods(http.MethodGet).
		Queries("go", "Files", "in", "addfav", "id", "{id:[0-9]+}")
	r.HandleFunc("/index.php", s.ok("delfav")).Methods(http.MethodGet).
		Queries("go", "Files", "in", "delfav", "id", "{id:[0-9]+}")
	r.HandleFunc("/index.php", s.page("myvotes", s.fileList)).Methods(http.MethodGet).
		Queries("go", "Files", "in", "myvotes", "page", "{page:[0-9]+}")
	r.HandleFunc("/index.php", s.page("myfav", s.fileList)).Methods(http.MethodGet).
		Queries("go", "Files", "in", "myfav", "page", "{page:[0-9]+}")
	r.HandleFunc("/index.php", s.page("featured", s.featured)).Methods(http.MethodGet).
		Queries("go", "News", "in", "cat", "id", "1", "page", "{page:[0-9]+}")

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return s, srv
}

func (s *fakeSite) record(kind string, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits[kind]++
	s.params[kind] = r.URL.Query()
	s.ua = append(s.ua, r.UserAgent())
	if c, err := r.Cookie("sid"); err == nil {
		s.cookies = append(s.cookies, c.Value)
	}
}

func (s *fakeSite) count(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[kind]
}

func (s *fakeSite) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.hits {
		n += v
	}
	return n
}

func (s *fakeSite) last(kind string) url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params[kind]
}

func (s *fakeSite) login(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.rawLogin = string(raw)
	s.form, _ = url.ParseQuery(string(raw))
	s.mu.Unlock()

	s.record("login", r)
	http.SetCookie(w, &http.Cookie{Name: "sid", Value: "session-1", Path: "/"})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte("<html>ok</html>"))
}

func (s *fakeSite) view(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	s.record("view:"+strconv.Itoa(id), r)

	s.mu.Lock()
	html, ok := s.detail[id]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	_, _ = w.Write([]byte(html))
}

func (s *fakeSite) ok(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.record(kind, r)
		_, _ = w.Write([]byte("ok"))
	}
}

func (s *fakeSite) page(kind, html string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.record(kind, r)
		_, _ = w.Write([]byte(html))
	}
}

func newTestClient(t *testing.T, srv *httptest.Server, username string) *Client {
	t.Helper()
	c, err := NewClient(context.Background(), Options{
		BaseURL:  srv.URL + "/index.php",
		Username: username,
		Password: "secret",
	})
	require.NoError(t, err)
	return c
}
