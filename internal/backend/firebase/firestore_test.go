package firebase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/mmcdole/watchlist/internal/domain"
)

type staticToken string

func (s staticToken) IDToken(context.Context) (string, error) { return string(s), nil }

const docsPath = "/projects/demo/databases/(default)/documents"

func newTestFirestore(t *testing.T, handler http.HandlerFunc) *Firestore {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewFirestore("demo", Endpoints{Firestore: srv.URL}, staticToken("tok"), testLogger())
}

func TestFirestore_QueryByEquality(t *testing.T) {
	fs := newTestFirestore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != docsPath+":runQuery" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req runQueryRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		ff := req.StructuredQuery.Where.FieldFilter
		if ff.Field.FieldPath != "userId" || ff.Value.StringValue == nil || *ff.Value.StringValue != "u1" {
			t.Errorf("filter = %+v", ff)
		}
		_, _ = w.Write([]byte(`[
			{"document": {"name": "projects/demo/databases/(default)/documents/items/abc",
			  "fields": {"title": {"stringValue": "Frieren"}, "rating": {"integerValue": "4"},
			             "favorite": {"booleanValue": true}, "season": {"nullValue": null}}},
			 "readTime": "2024-01-01T00:00:00Z"},
			{"readTime": "2024-01-01T00:00:00Z"}
		]`))
	})

	docs, err := fs.QueryByEquality(context.Background(), "items", "userId", "u1")
	if err != nil {
		t.Fatalf("QueryByEquality() error = %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d docs, want 1", len(docs))
	}
	want := domain.Document{ID: "abc", Fields: map[string]any{
		"title": "Frieren", "rating": int64(4), "favorite": true, "season": nil,
	}}
	if !reflect.DeepEqual(docs[0], want) {
		t.Errorf("doc = %#v, want %#v", docs[0], want)
	}
}

func TestFirestore_CreateUpdateDelete(t *testing.T) {
	var patchMask []string
	var patchBody Document
	fs := newTestFirestore(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			_, _ = w.Write([]byte(`{"name": "projects/demo/databases/(default)/documents/items/new-id", "fields": {}}`))
		case http.MethodPatch:
			patchMask = r.URL.Query()["updateMask.fieldPaths"]
			if r.URL.Query().Get("currentDocument.exists") != "true" {
				t.Error("patch without existence precondition")
			}
			_ = json.NewDecoder(r.Body).Decode(&patchBody)
			_, _ = w.Write([]byte(`{}`))
		case http.MethodDelete:
			if strings.HasSuffix(r.URL.Path, "/gone") {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write([]byte(`{}`))
		}
	})
	ctx := context.Background()

	id, err := fs.Create(ctx, "items", map[string]any{"title": "New title"})
	if err != nil || id != "new-id" {
		t.Fatalf("Create() = %q, %v", id, err)
	}

	if err := fs.Update(ctx, "items", id, map[string]any{"title": "Mushishi", "season": nil}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !reflect.DeepEqual(patchMask, []string{"season", "title"}) {
		t.Errorf("update mask = %v", patchMask)
	}
	if v := patchBody.Fields["season"]; v.NullValue == nil {
		t.Errorf("cleared field encoded as %+v, want nullValue", v)
	}

	if err := fs.Delete(ctx, "items", id); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if err := fs.Delete(ctx, "items", "gone"); !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("Delete(gone) error = %v, want ErrItemNotFound", err)
	}
}

func TestFirestore_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	fs := NewFirestore("demo", Endpoints{Firestore: srv.URL}, staticToken("tok"), testLogger())
	if _, err := fs.QueryByEquality(context.Background(), "items", "userId", "u1"); !errors.Is(err, domain.ErrAuthFailed) {
		t.Errorf("error = %v, want ErrAuthFailed", err)
	}
}

func TestEncodeValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"string", "a", "a"},
		{"int", 3, int64(3)},
		{"whole float", float64(5), int64(5)},
		{"fraction", 2.5, 2.5},
		{"bool", true, true},
		{"nil", nil, nil},
		{"map", map[string]any{"k": "v"}, map[string]any{"k": "v"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := EncodeValue(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if got := DecodeValue(v); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("round trip = %#v, want %#v", got, tt.want)
			}
		})
	}

	if _, err := EncodeValue(struct{}{}); err == nil {
		t.Error("EncodeValue(struct) expected error")
	}
}
