package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const (
	linkA = "trojan://pw@a.example.com:443#A"
	linkB = "ss://YWVzLTI1Ni1nY206cGFzc3dvcmQ@b.example.com:8388#B"
)

type doc struct {
	Proxies []map[string]any `yaml:"proxies"`
	Rules   []string         `yaml:"rules"`
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apiError {
	t.Helper()
	var resp struct {
		Error apiError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealthz(t *testing.T) {
	rec := do(t, NewHandler(Options{}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestConvert_GET(t *testing.T) {
	h := NewMux(Options{})
	q := url.Values{}
	q.Add("link", linkA)
	q.Add("link", linkB)
	q.Add("link", "vmess://nope")
	q.Set("mode", "blacklist")
	q.Set("detail", "simple")

	rec := do(t, h, http.MethodGet, "/convert?"+q.Encode(), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/yaml; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "1", rec.Header().Get(headerSkipped))

	var d doc
	require.NoError(t, yaml.Unmarshal(rec.Body.Bytes(), &d))
	assert.Len(t, d.Proxies, 2)
	assert.Equal(t, "MATCH,DIRECT", d.Rules[len(d.Rules)-1])
}

func TestConvert_POST(t *testing.T) {
	h := NewMux(Options{})
	body := base64.StdEncoding.EncodeToString([]byte(linkA + "\n" + linkB))

	rec := do(t, h, http.MethodPost, "/convert", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "0", rec.Header().Get(headerSkipped))

	var d doc
	require.NoError(t, yaml.Unmarshal(rec.Body.Bytes(), &d))
	assert.Len(t, d.Proxies, 2)
	assert.Equal(t, "MATCH,Auto", d.Rules[len(d.Rules)-1])

	rec = do(t, h, http.MethodPost, "/convert?format=links", linkA+"\n")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "trojan://"))
}

func TestConvert_Subscription(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sub" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(base64.StdEncoding.EncodeToString([]byte(linkA + "\n" + linkB))))
	}))
	defer upstream.Close()

	h := NewMux(Options{})
	rec := do(t, h, http.MethodGet, "/convert?sub="+url.QueryEscape(upstream.URL+"/sub")+"&link="+url.QueryEscape(linkA), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var d doc
	require.NoError(t, yaml.Unmarshal(rec.Body.Bytes(), &d))
	assert.Len(t, d.Proxies, 3)

	rec = do(t, h, http.MethodGet, "/convert?sub="+url.QueryEscape(upstream.URL+"/missing"), "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "FETCH_FAILED", decodeError(t, rec).Code)
}

func TestConvert_Validation(t *testing.T) {
	h := NewMux(Options{MaxSubscriptions: 1})
	link := url.QueryEscape(linkA)

	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{"no input", "/convert", http.StatusBadRequest, "MISSING_INPUT"},
		{"bad mode", "/convert?mode=greylist&link=" + link, http.StatusBadRequest, "INVALID_MODE"},
		{"bad detail", "/convert?detail=tiny&link=" + link, http.StatusBadRequest, "INVALID_DETAIL"},
		{"bad format", "/convert?format=json&link=" + link, http.StatusBadRequest, "INVALID_FORMAT"},
		{"too many subs", "/convert?sub=http://a.example.com&sub=http://b.example.com", http.StatusBadRequest, "TOO_MANY_SUBS"},
		{"nothing parsed", "/convert?link=vmess%3A%2F%2Fx&link=garbage", http.StatusUnprocessableEntity, "NO_NODES"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target, "")
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}

	rec := do(t, h, http.MethodGet, "/convert?link=vmess%3A%2F%2Fx&link=garbage", "")
	assert.Equal(t, "2", rec.Header().Get(headerSkipped))
}

func TestConvert_BodyTooLarge(t *testing.T) {
	h := NewMux(Options{MaxBodyBytes: 16})
	rec := do(t, h, http.MethodPost, "/convert", strings.Repeat(linkA+"\n", 4))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestMetrics(t *testing.T) {
	h := NewMux(Options{})
	do(t, h, http.MethodGet, "/convert?link="+url.QueryEscape(linkA), "")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "trojan")
}

func TestAccessLog_StatusWriter(t *testing.T) {
	h := withAccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))
	rec := do(t, h, http.MethodGet, "/anything?token=secret", "")
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
}
