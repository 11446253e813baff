package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"academia/pkg/requestcontext"
)

func TestClientIPFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded chain", headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, remote: "10.0.0.2:1234", want: "203.0.113.7"},
		{name: "single forwarded", headers: map[string]string{"X-Forwarded-For": " 203.0.113.8 "}, want: "203.0.113.8"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "198.51.100.3"}, remote: "10.0.0.2:1234", want: "198.51.100.3"},
		{name: "remote addr v4", remote: "192.0.2.1:5555", want: "192.0.2.1"},
		{name: "remote addr v6", remote: "[::1]:5555", want: "[::1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIPFromRequest(req))
		})
	}
}

func TestClientMetadataMiddleware(t *testing.T) {
	var gotIP, gotUA string
	h := ClientMetadata(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotIP = requestcontext.ClientIP(r.Context())
		gotUA = requestcontext.UserAgent(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:4000"
	req.Header.Set("User-Agent", "curl/8.0")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "192.0.2.10", gotIP)
	assert.Equal(t, "curl/8.0", gotUA)
}

func TestParseBrowser(t *testing.T) {
	t.Run("empty header", func(t *testing.T) {
		b := ParseBrowser("")
		assert.Equal(t, Browser{}, b)
		assert.Equal(t, "unknown", b.String())
	})

	t.Run("desktop firefox", func(t *testing.T) {
		b := ParseBrowser("Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0")
		assert.Equal(t, "Firefox", b.Name)
		assert.Equal(t, "121.0", b.Version)
		assert.False(t, b.Mobile)
		assert.False(t, b.Bot)
		assert.Contains(t, b.String(), "Firefox 121.0")
	})

	t.Run("bot", func(t *testing.T) {
		b := ParseBrowser("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")
		assert.True(t, b.Bot)
	})
}
