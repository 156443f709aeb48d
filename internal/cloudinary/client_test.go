package cloudinary

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"staffattendance/internal/apperr"
)

func TestNewRequiresCredentials(t *testing.T) {
	if New("demo", "", "secret", "") != nil {
		t.Fatal("client built without api key")
	}
	if New("demo", "key", "secret", "") == nil {
		t.Fatal("client missing with full credentials")
	}
}

func TestSign(t *testing.T) {
	c := &Client{APISecret: "abcd"}
	got := c.sign(map[string]string{"timestamp": "1315060510", "folder": "", "api_key": "k", "public_id": "sample"})
	// sha1("public_id=sample&timestamp=1315060510abcd")
	want := "c3470533147774275dd37996cc4d0e68fd03cd4f"
	if got != want {
		t.Fatalf("sign = %s, want %s", got, want)
	}
}

func TestUploadDataURL(t *testing.T) {
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/demo/image/upload" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		form = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			form[k] = v[0]
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"public_id":"att/x","secure_url":"https://res.cloudinary.com/demo/x.jpg","width":10}`))
	}))
	defer srv.Close()

	c := New("demo", "key", "secret", "att")
	c.BaseURL = srv.URL
	c.Now = func() time.Time { return time.Unix(1710900000, 0) }

	res, err := c.UploadDataURL(context.Background(), "data:image/png;base64,iVBORw0KGgo=")
	if err != nil {
		t.Fatal(err)
	}
	if res.SecureURL != "https://res.cloudinary.com/demo/x.jpg" {
		t.Fatalf("result = %+v", res)
	}
	if form["file"] != "data:image/png;base64,iVBORw0KGgo=" || form["folder"] != "att" || form["timestamp"] != "1710900000" {
		t.Fatalf("form = %+v", form)
	}
	if form["signature"] != c.sign(map[string]string{"timestamp": "1710900000", "folder": "att"}) {
		t.Fatal("signature mismatch")
	}
}

func TestUploadErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"Invalid Signature"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New("demo", "key", "secret", "")
	c.BaseURL = srv.URL

	if _, err := c.UploadDataURL(context.Background(), "https://example.com/x.jpg"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("plain url err = %v", err)
	}
	if _, err := c.UploadBytes(context.Background(), nil, "x.jpg"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("empty bytes err = %v", err)
	}
	if _, err := c.UploadBytes(context.Background(), []byte{1, 2, 3}, "x.jpg"); err == nil {
		t.Fatal("expected upstream error")
	}
}
