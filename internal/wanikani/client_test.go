package wanikani

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/wanikanji/internal/models"
)

// fakeAPI serves a chain of kanji pages and counts requests.
type fakeAPI struct {
	mu       sync.Mutex
	calls    int
	paths    []string
	headers  []http.Header
	tooMany  int // number of 429 replies before serving normally
	status   int // when non-zero, every request fails with this status
	malform  bool
	srv      *httptest.Server
	perPage  int
	numPages int
}

func newFakeAPI(t *testing.T, numPages int) *fakeAPI {
	t.Helper()
	f := &fakeAPI{numPages: numPages, perPage: 2}

	r := chi.NewRouter()
	r.Get("/subjects", f.page)
	// The last page is linked from an unrelated path to prove next_url is
	// followed verbatim rather than rebuilt.
	r.Get("/elsewhere/last", f.page)

	f.srv = httptest.NewServer(r)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) page(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls++
	f.paths = append(f.paths, r.URL.RequestURI())
	f.headers = append(f.headers, r.Header.Clone())
	if f.tooMany > 0 {
		f.tooMany--
		f.mu.Unlock()
		w.WriteHeader(http.StatusTooManyRequests)
		return
	}
	f.mu.Unlock()

	if f.status != 0 {
		w.WriteHeader(f.status)
		return
	}
	if f.malform {
		_, _ = io.WriteString(w, `{"data": [`)
		return
	}

	n := 1
	if p := r.URL.Query().Get("page"); p != "" {
		_, _ = fmt.Sscanf(p, "%d", &n)
	}
	if r.URL.Path == "/elsewhere/last" {
		n = f.numPages
	}

	var next string
	switch {
	case n+1 == f.numPages && f.numPages > 1:
		next = fmt.Sprintf(`"%s/elsewhere/last"`, f.srv.URL)
	case n < f.numPages:
		next = fmt.Sprintf(`"%s/subjects?types=kanji&page=%d"`, f.srv.URL, n+1)
	default:
		next = "null"
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(w, `{"object":"collection","url":"%s","total_count":%d,"pages":{"per_page":%d,"next_url":%s,"previous_url":null},"data":[`,
		r.URL.String(), f.numPages*f.perPage, f.perPage, next)
	for i := range f.perPage {
		id := (n-1)*f.perPage + i + 1
		if i > 0 {
			_, _ = io.WriteString(w, ",")
		}
		_, _ = fmt.Fprintf(w, `{"id":%d,"object":"kanji","url":"https://api.wanikani.com/v2/subjects/%d","data_updated_at":"2024-01-01T00:00:00Z","data":{"characters":"字%d","slug":"s%d","document_url":"https://www.wanikani.com/kanji/%d","meaning_mnemonic":"mm","reading_mnemonic":"rm","meanings":[{"meaning":"m%d","primary":true,"accepted_answer":true}],"readings":[{"reading":"r%d","primary":true,"accepted_answer":true,"type":"onyomi"}]}}`,
			id, id, id, id, id, id, id)
	}
	_, _ = io.WriteString(w, "]}")
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(f *fakeAPI, opts ...Option) *Client {
	base := []Option{WithBaseURL(f.srv.URL), WithLogger(quietLogger())}
	return New(append(base, opts...)...)
}

func TestListKanji_FollowsAllPages(t *testing.T) {
	f := newFakeAPI(t, 3)
	c := testClient(f, WithToken("secret"))

	kanji, err := c.ListKanji(context.Background())
	if err != nil {
		t.Fatalf("ListKanji: %v", err)
	}
	if f.calls != 3 {
		t.Errorf("GET calls = %d, want 3", f.calls)
	}
	if len(kanji) != 6 {
		t.Fatalf("records = %d, want 6", len(kanji))
	}
	for i, k := range kanji {
		if k.ID != i+1 {
			t.Errorf("record %d has id %d; page order not preserved", i, k.ID)
		}
	}
	if f.paths[2] != "/elsewhere/last" {
		t.Errorf("third request = %q, want the server-provided next_url", f.paths[2])
	}
	if kanji[0].Object != "kanji" || kanji[0].URL == "" || kanji[0].DataUpdatedAt == "" {
		t.Errorf("envelope metadata not copied: %+v", kanji[0].Subject)
	}
	if kanji[0].Characters == nil || *kanji[0].Characters != "字1" {
		t.Errorf("characters = %v", kanji[0].Characters)
	}
}

func TestListKanji_SinglePage(t *testing.T) {
	f := newFakeAPI(t, 1)
	kanji, err := testClient(f).ListKanji(context.Background())
	if err != nil {
		t.Fatalf("ListKanji: %v", err)
	}
	if f.calls != 1 || len(kanji) != 2 {
		t.Errorf("calls=%d records=%d, want 1 and 2", f.calls, len(kanji))
	}
}

func TestHeaders(t *testing.T) {
	f := newFakeAPI(t, 1)
	if _, err := testClient(f, WithToken("secret")).ListKanji(context.Background()); err != nil {
		t.Fatalf("ListKanji: %v", err)
	}
	h := f.headers[0]
	if got := h.Get("Authorization"); got != "Bearer secret" {
		t.Errorf("Authorization = %q", got)
	}
	if got := h.Get("Wanikani-Revision"); got != DefaultRevision {
		t.Errorf("Wanikani-Revision = %q", got)
	}
}

func TestNoTokenSendsNoAuthorization(t *testing.T) {
	f := newFakeAPI(t, 1)
	if _, err := testClient(f).ListKanji(context.Background()); err != nil {
		t.Fatalf("ListKanji: %v", err)
	}
	if got := f.headers[0].Get("Authorization"); got != "" {
		t.Errorf("Authorization = %q, want none", got)
	}
}

func TestRateLimitCooldownThenSuccess(t *testing.T) {
	f := newFakeAPI(t, 2)
	f.tooMany = 1

	c := testClient(f)
	var slept []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	kanji, err := c.ListKanji(context.Background())
	if err != nil {
		t.Fatalf("ListKanji: %v", err)
	}
	if len(slept) != 1 || slept[0] != 60*time.Second {
		t.Errorf("slept = %v, want one 60s cool-down", slept)
	}
	if len(kanji) != 4 {
		t.Errorf("records = %d, want 4", len(kanji))
	}
	if f.calls != 3 {
		t.Errorf("calls = %d, want 3 (one retried)", f.calls)
	}
	if f.paths[0] != f.paths[1] {
		t.Errorf("retry changed the request: %q then %q", f.paths[0], f.paths[1])
	}
}

func TestRateLimitRetriesWithoutCap(t *testing.T) {
	f := newFakeAPI(t, 1)
	f.tooMany = 25

	c := testClient(f, WithCooldown(time.Second))
	sleeps := 0
	c.sleep = func(_ context.Context, d time.Duration) error {
		if d != time.Second {
			t.Errorf("cool-down = %v, want fixed 1s", d)
		}
		sleeps++
		return nil
	}
	if _, err := c.ListKanji(context.Background()); err != nil {
		t.Fatalf("ListKanji: %v", err)
	}
	if sleeps != 25 {
		t.Errorf("sleeps = %d, want 25", sleeps)
	}
}

func TestRateLimitInterruptedByContext(t *testing.T) {
	f := newFakeAPI(t, 1)
	f.tooMany = 1

	ctx, cancel := context.WithCancel(context.Background())
	c := testClient(f)
	c.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}
	_, err := c.ListKanji(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestQueryFailed(t *testing.T) {
	f := newFakeAPI(t, 1)
	f.status = http.StatusUnauthorized

	_, err := testClient(f).ListKanji(context.Background())
	var qf *QueryFailedError
	if !errors.As(err, &qf) {
		t.Fatalf("err = %v, want QueryFailedError", err)
	}
	if qf.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d", qf.StatusCode)
	}
	if f.calls != 1 {
		t.Errorf("calls = %d, non-429 failures must not retry", f.calls)
	}
}

func TestMalformedBody(t *testing.T) {
	f := newFakeAPI(t, 1)
	f.malform = true
	_, err := testClient(f).ListKanji(context.Background())
	if !errors.Is(err, ErrDecode) {
		t.Errorf("err = %v, want ErrDecode", err)
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(WithBaseURL(url), WithLogger(quietLogger()))
	_, err := c.ListVocabulary(context.Background())
	if !errors.Is(err, ErrHTTP) {
		t.Errorf("err = %v, want ErrHTTP", err)
	}
}

func TestSubjectsURL(t *testing.T) {
	c := New()
	if got := c.SubjectsURL("vocabulary"); got != "https://api.wanikani.com/v2/subjects?types=vocabulary" {
		t.Errorf("SubjectsURL = %q", got)
	}
}

func TestFetchAll_EmptyCollection(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/subjects", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"object":"collection","total_count":0,"pages":{"per_page":1000,"next_url":null},"data":[]}`)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := New(WithBaseURL(srv.URL), WithLogger(quietLogger()))
	got, err := FetchAll[models.Vocabulary](context.Background(), c, c.SubjectsURL("vocabulary"))
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %#v, want empty non-nil slice", got)
	}
}
