package httpx

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

type passwordBody struct {
	Password *string `json:"password"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantErr  string
		wantPass *string
	}{
		{name: "password set", body: `{"password":"s3cret"}`, wantPass: strPtr("s3cret")},
		{name: "password null", body: `{"password":null}`},
		{name: "empty object", body: `{}`},
		{name: "empty body", body: "", wantErr: "request body is empty"},
		{name: "malformed JSON", body: `{"password":"x",}`, wantErr: "malformed JSON"},
		{name: "truncated JSON", body: `{"password":`, wantErr: "malformed JSON"},
		{name: "unknown field", body: `{"pass":"x"}`, wantErr: "unknown field"},
		{name: "wrong type", body: `{"password":42}`, wantErr: "invalid value for field"},
		{name: "multiple objects", body: `{}{}`, wantErr: "multiple JSON objects"},
		{name: "too large", body: `{"password":"` + strings.Repeat("x", MaxRequestBodySize) + `"}`, wantErr: "request body too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/custom-uri/k/1", strings.NewReader(tt.body))

			got, err := DecodeJSON[passwordBody](req)

			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
				}
				if got.Password != nil {
					t.Error("expected zero value on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (got.Password == nil) != (tt.wantPass == nil) {
				t.Fatalf("Password = %v, want %v", got.Password, tt.wantPass)
			}
			if tt.wantPass != nil && *got.Password != *tt.wantPass {
				t.Errorf("Password = %q, want %q", *got.Password, *tt.wantPass)
			}
		})
	}
}

func TestDecodeJSON_ClosesBody(t *testing.T) {
	body := &testReadCloser{Reader: strings.NewReader(`{}`)}

	if _, err := DecodeJSON[passwordBody](httptest.NewRequest("POST", "/", body)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !body.closed {
		t.Error("expected body to be closed")
	}
}

func TestDecodeOptionalJSON(t *testing.T) {
	t.Run("empty body is no body", func(t *testing.T) {
		got, err := DecodeOptionalJSON[passwordBody](httptest.NewRequest("POST", "/", strings.NewReader("")))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Password != nil {
			t.Errorf("Password = %v, want nil", got.Password)
		}
	})

	t.Run("nil body is no body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", nil)
		req.Body = nil
		if _, err := DecodeOptionalJSON[passwordBody](req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("bad body still fails", func(t *testing.T) {
		_, err := DecodeOptionalJSON[passwordBody](httptest.NewRequest("POST", "/", strings.NewReader("nope")))
		if err == nil || errors.Is(err, ErrEmptyBody) {
			t.Fatalf("error = %v, want decode failure", err)
		}
	})
}

func TestFormValue(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantValue   string
		wantPresent bool
	}{
		{"present", "password=hunter2", "hunter2", true},
		{"present but empty", "password=", "", true},
		{"absent", "other=1", "", false},
		{"empty body", "", "", false},
		{"encoded", "password=a%26b%3Dc", "a&b=c", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/asset/x", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rr := httptest.NewRecorder()

			got, present, err := FormValue(rr, req, "password")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.wantValue || present != tt.wantPresent {
				t.Errorf("FormValue() = (%q, %v), want (%q, %v)", got, present, tt.wantValue, tt.wantPresent)
			}
		})
	}
}

func TestFormValue_IgnoresQueryString(t *testing.T) {
	req := httptest.NewRequest("POST", "/asset/x?password=fromquery", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	_, present, err := FormValue(httptest.NewRecorder(), req, "password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if present {
		t.Error("password in the query string must not count as submitted")
	}
}

func strPtr(s string) *string { return &s }

type testReadCloser struct {
	io.Reader
	closed bool
}

func (t *testReadCloser) Close() error {
	t.closed = true
	return nil
}
