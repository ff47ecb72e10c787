package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"id": "123", "name": "test", "amount": 42.5, "flag": true}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !parser.IsJSON() {
		t.Error("Expected IsJSON() to be true")
	}

	tests := map[string]string{"id": "123", "name": "test", "amount": "42.5", "flag": "true", "missing": ""}
	for key, want := range tests {
		if got := parser.Get(key); got != want {
			t.Errorf("Get(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "email=ada%40example.com&password=secret+phrase"
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if parser.IsJSON() {
		t.Error("Expected IsJSON() to be false for form data")
	}
	if got := parser.Get("email"); got != "ada@example.com" {
		t.Errorf("Get('email') = %q", got)
	}
	if got := parser.Get("password"); got != "secret phrase" {
		t.Errorf("Get('password') = %q", got)
	}

	var v struct{}
	if err := parser.Decode(&v); err == nil {
		t.Error("Decode() should reject form bodies")
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(""))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if val := parser.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}

	v := struct{ Name string }{Name: "kept"}
	if err := parser.Decode(&v); err != nil || v.Name != "kept" {
		t.Errorf("Decode() on empty body = %v, %+v", err, v)
	}
}

func TestRequestBodyParser_SanitizesControlCharacters(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"title": "  a\u0000b\tc  "}`))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatal(err)
	}
	if got := parser.Get("title"); got != "ab\tc" {
		t.Errorf("Get('title') = %q, want %q", got, "ab\tc")
	}
}

func TestDecodeOrFail(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"valid", `{"title": "x"}`, 0},
		{"malformed", `{"title": `, http.StatusBadRequest},
		{"wrong type", `{"title": 5}`, http.StatusBadRequest},
		{"too large", `{"title": "` + strings.Repeat("a", maxBodyBytes) + `"}`, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tt.body))
			var v struct {
				Title string `json:"title"`
			}
			res := DecodeOrFail(req, &v)
			if tt.wantCode == 0 {
				if res != nil {
					t.Fatalf("unexpected error response %+v", res)
				}
				return
			}
			if res == nil {
				t.Fatal("expected an error response")
			}
			w := httptest.NewRecorder()
			res.Write(w)
			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}
