package store

import (
	"errors"
	"io"
	"log"
	"strings"
	"testing"
)

type item struct {
	ID   int64  `json:"id" validate:"gte=0"`
	Name string `json:"name" validate:"required"`
}

var quiet = log.New(io.Discard, "", 0)

func TestEnvelopeRoundTrip(t *testing.T) {
	raw, err := Encode([]item{{ID: 1, Name: "Jane"}, {ID: 2, Name: "Ali"}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"version":1`) {
		t.Fatalf("missing version: %s", raw)
	}
	got, err := Decode[item](raw, "k", quiet)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Name != "Jane" || got[1].ID != 2 {
		t.Fatalf("got %+v", got)
	}
}

func TestEncodeNilIsEmptyList(t *testing.T) {
	raw, err := Encode[item](nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"items":[]`) {
		t.Fatalf("got %s", raw)
	}
}

func TestEncodeRejectsInvalidItem(t *testing.T) {
	if _, err := Encode([]item{{ID: 1}}); err == nil {
		t.Fatal("expected validation error for empty name")
	}
}

func TestDecodeLegacyArray(t *testing.T) {
	got, err := Decode[item]([]byte(` [{"id":5,"name":"Old"}] `), "k", quiet)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != 5 {
		t.Fatalf("got %+v", got)
	}
}

func TestDecodeSkipsInvalidItems(t *testing.T) {
	raw := `{"version":1,"items":[{"id":1,"name":"ok"},{"id":2,"name":""},{"id":"x","name":"bad type"}]}`
	got, err := Decode[item]([]byte(raw), "k", quiet)
	if !errors.Is(err, ErrPartial) {
		t.Fatalf("err = %v, want ErrPartial", err)
	}
	if len(got) != 1 || got[0].Name != "ok" {
		t.Fatalf("got %+v", got)
	}
}

func TestDecodeCorrupt(t *testing.T) {
	for _, raw := range []string{`{not json`, `[1,2`, `{"version":9,"items":[]}`} {
		if _, err := Decode[item]([]byte(raw), "k", quiet); !errors.Is(err, ErrCorrupt) {
			t.Errorf("Decode(%q) err = %v, want ErrCorrupt", raw, err)
		}
	}
}

func TestDecodeEmpty(t *testing.T) {
	got, err := Decode[item]([]byte("  "), "k", quiet)
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v %v", got, err)
	}
}

type stamped struct {
	Date string `json:"date" validate:"caldate"`
	At   string `json:"at" validate:"clock"`
}

func TestCalendarTags(t *testing.T) {
	raw := `[{"date":"2024-03-20","at":"09:05"},{"date":"2024-03-20","at":"9:05"},{"date":"2024-3-20","at":"09:05"}]`
	got, err := Decode[stamped]([]byte(raw), "k", quiet)
	if !errors.Is(err, ErrPartial) {
		t.Fatalf("err = %v, want ErrPartial", err)
	}
	if len(got) != 1 || got[0].At != "09:05" {
		t.Fatalf("got %+v", got)
	}
	if _, err := Encode([]stamped{{Date: "2024-03-20", At: "9:05"}}); err == nil {
		t.Fatal("unpadded clock encoded")
	}
}
