package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/paul-lee-attorney/sm4trace/internal/config"
	"github.com/paul-lee-attorney/sm4trace/pipeline"
)

const stdKey = "0123456789abcdeffedcba9876543210"

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
	return v
}

type traceResponse struct {
	Output     string   `json:"output"`
	RoundKeys  []string `json:"roundKeys"`
	TotalSteps int      `json:"totalSteps"`
	Steps      []struct {
		Title string `json:"title"`
	} `json:"steps"`
	Blocks []struct {
		Index  int    `json:"index"`
		Output string `json:"output"`
		Rounds []struct {
			Round     int      `json:"round"`
			SBoxBytes [4]uint8 `json:"sboxBytes"`
		} `json:"rounds"`
	} `json:"blocks"`
}

func TestEncryptDecrypt(t *testing.T) {
	h := New(config.Default())

	rec := post(t, h, "/api/encrypt", cipherRequest{
		Text:   "Hello, SM4 trace!",
		Key:    stdKey,
		IV:     "000102030405060708090a0b0c0d0e0f",
		Config: pipeline.Config{Mode: "CBC"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("encrypt status %d: %s", rec.Code, rec.Body)
	}
	enc := decode[traceResponse](t, rec)
	if enc.Output != "593a7c932a3b5041fabcdca7734feef8b06a30cfa73e542a8268d61ab47ef28a" {
		t.Fatalf("output = %s", enc.Output)
	}
	if len(enc.RoundKeys) != 32 || enc.RoundKeys[0] != "f12186f9" {
		t.Errorf("roundKeys = %v", enc.RoundKeys)
	}
	if len(enc.Blocks) != 0 {
		t.Error("blocks returned without trace")
	}
	if len(enc.Steps) != 6 || enc.TotalSteps != 64 {
		t.Errorf("steps = %d, totalSteps = %d", len(enc.Steps), enc.TotalSteps)
	}

	rec = post(t, h, "/api/decrypt", cipherRequest{
		Text:   enc.Output,
		Key:    stdKey,
		IV:     "000102030405060708090a0b0c0d0e0f",
		Config: pipeline.Config{Mode: "CBC"},
		Trace:  true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("decrypt status %d: %s", rec.Code, rec.Body)
	}
	dec := decode[traceResponse](t, rec)
	if dec.Output != "Hello, SM4 trace!" {
		t.Errorf("output = %q", dec.Output)
	}
	if len(dec.Blocks) != 2 || len(dec.Blocks[1].Rounds) != 32 || dec.Blocks[1].Rounds[31].Round != 31 {
		t.Fatalf("unexpected trace: %+v", dec.Blocks)
	}
}

func TestEncryptBase64Trace(t *testing.T) {
	h := New(config.Default())
	rec := post(t, h, "/api/encrypt", map[string]any{
		"text":   "hello",
		"key":    stdKey,
		"config": map[string]string{"mode": "ECB", "padding": "PKCS7", "outputFormat": "base64", "encoding": "ascii"},
		"trace":  true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	res := decode[traceResponse](t, rec)
	if len(res.Blocks) != 1 || len(res.Blocks[0].Output) != 32 {
		t.Fatalf("blocks = %+v", res.Blocks)
	}
	if len(res.Output) != 24 || !strings.HasSuffix(res.Output, "==") {
		t.Errorf("output %q is not one base64 block", res.Output)
	}
}

func TestErrors(t *testing.T) {
	h := New(config.Default())
	tests := []struct {
		name string
		body any
		kind string
	}{
		{"bad key", cipherRequest{Text: "x", Key: "abcd"}, "key-length"},
		{"bad mode", cipherRequest{Text: "x", Key: stdKey, Config: pipeline.Config{Mode: "OFB"}}, "unsupported-config"},
		{"missing iv", cipherRequest{Text: "x", Key: stdKey, Config: pipeline.Config{Mode: "CBC"}}, "iv-length"},
		{"not json", "{", "request"},
	}
	for _, tt := range tests {
		rec := post(t, h, "/api/encrypt", tt.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d", tt.name, rec.Code)
			continue
		}
		got := decode[errorResponse](t, rec)
		if got.Kind != tt.kind {
			t.Errorf("%s: kind %q (%s), want %q", tt.name, got.Kind, got.Error, tt.kind)
		}
	}

	rec := post(t, h, "/api/decrypt", cipherRequest{Text: "00112233", Key: stdKey})
	if got := decode[errorResponse](t, rec); rec.Code != http.StatusBadRequest || got.Kind != "invalid-length" {
		t.Errorf("short ciphertext: %d %+v", rec.Code, got)
	}
}

func TestBodyLimit(t *testing.T) {
	cfg := config.Default()
	cfg.MaxInputBytes = 64
	h := New(cfg)
	rec := post(t, h, "/api/encrypt", cipherRequest{Text: strings.Repeat("a", 200), Key: stdKey})
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status %d", rec.Code)
	}
	if got := decode[errorResponse](t, rec); got.Kind != "too-large" {
		t.Errorf("kind = %q", got.Kind)
	}
}

func TestDefaultsAndHealth(t *testing.T) {
	h := New(config.Default())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/defaults", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if got := decode[pipeline.Config](t, rec); got != pipeline.DefaultConfig() {
		t.Errorf("defaults = %+v", got)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/encrypt", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/encrypt = %d", rec.Code)
	}
}
