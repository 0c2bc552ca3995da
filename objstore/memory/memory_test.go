package memory

import (
	"context"
	"io"
	"testing"

	"github.com/kbukum/archivekit/objstore"
)

func seeded(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	s.CreateContainer("data")
	ctx := context.Background()
	if err := s.PutObject(ctx, "data", "raw/a.txt", []byte("alpha"), "text/plain"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.PutObject(ctx, "data", "raw/b.bin", []byte{0x01, 0x02}, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func TestStore_AccountAndHead(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	infos, err := s.Account(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("expected 1 container, got %d", len(infos))
	}
	if infos[0].Name != "data" || infos[0].Count != 2 || infos[0].Bytes != 7 {
		t.Errorf("unexpected container info: %+v", infos[0])
	}

	meta, err := s.HeadContainer(ctx, "data")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta["x-container-object-count"] != "2" {
		t.Errorf("expected count header 2, got %q", meta["x-container-object-count"])
	}
	if meta["x-container-bytes-used"] != "7" {
		t.Errorf("expected bytes header 7, got %q", meta["x-container-bytes-used"])
	}

	if _, err := s.HeadContainer(ctx, "missing"); !objstore.IsNotFound(err) {
		t.Errorf("expected not-found for missing container, got %v", err)
	}
}

func TestStore_ListObjects_Sorted(t *testing.T) {
	s := seeded(t)
	infos, err := s.ListObjects(context.Background(), "data")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(infos))
	}
	if infos[0].Key != "raw/a.txt" || infos[1].Key != "raw/b.bin" {
		t.Errorf("expected sorted keys, got %q, %q", infos[0].Key, infos[1].Key)
	}
	if infos[0].ContentType != "text/plain" {
		t.Errorf("expected text/plain, got %q", infos[0].ContentType)
	}
	if infos[1].ContentType != "application/octet-stream" {
		t.Errorf("expected default content type, got %q", infos[1].ContentType)
	}
	if infos[0].Hash == "" {
		t.Error("expected hash to be computed")
	}
}

func TestStore_StatObject(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	info, ok, err := s.StatObject(ctx, "data", "raw/a.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected object to exist")
	}
	if info.Bytes != 5 {
		t.Errorf("expected 5 bytes, got %d", info.Bytes)
	}

	info, ok, err = s.StatObject(ctx, "data", "raw/missing")
	if err != nil {
		t.Fatalf("absence should not be an error: %v", err)
	}
	if ok || info != nil {
		t.Error("expected (nil, false) for missing object")
	}

	if _, _, err := s.StatObject(ctx, "nope", "k"); !objstore.IsNotFound(err) {
		t.Errorf("expected not-found for missing container, got %v", err)
	}
}

func TestStore_GetObject_CopyIsolation(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	meta, data, err := s.GetObject(ctx, "data", "raw/a.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "alpha" {
		t.Errorf("expected alpha, got %q", string(data))
	}
	if meta["content-type"] != "text/plain" {
		t.Errorf("expected text/plain, got %q", meta["content-type"])
	}

	// Mutating the returned slice must not corrupt the store.
	data[0] = 'X'
	_, again, _ := s.GetObject(ctx, "data", "raw/a.txt")
	if string(again) != "alpha" {
		t.Errorf("store content was mutated: %q", string(again))
	}

	if _, _, err := s.GetObject(ctx, "data", "missing"); !objstore.IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestStore_GetObjectStream(t *testing.T) {
	s := seeded(t)
	_, body, err := s.GetObjectStream(context.Background(), "data", "raw/a.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer body.Close()
	got, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "alpha" {
		t.Errorf("expected alpha, got %q", string(got))
	}
}

func TestStore_CopyObject(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	s.CreateContainer("backup")

	if err := s.CopyObject(ctx, "data", "raw/a.txt", "backup", "copied/a.txt"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, data, err := s.GetObject(ctx, "backup", "copied/a.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "alpha" {
		t.Errorf("expected alpha, got %q", string(data))
	}

	// Source is untouched.
	if _, ok, _ := s.StatObject(ctx, "data", "raw/a.txt"); !ok {
		t.Error("source object should still exist after copy")
	}

	if err := s.CopyObject(ctx, "data", "missing", "backup", "x"); !objstore.IsNotFound(err) {
		t.Errorf("expected not-found for missing source, got %v", err)
	}
}

func TestStore_DeleteObject(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	if err := s.DeleteObject(ctx, "data", "raw/a.txt"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, _ := s.StatObject(ctx, "data", "raw/a.txt"); ok {
		t.Error("object should be gone after delete")
	}
	if err := s.DeleteObject(ctx, "data", "raw/a.txt"); !objstore.IsNotFound(err) {
		t.Errorf("expected not-found for double delete, got %v", err)
	}
}

func TestStore_UpdateContainer(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	err := s.UpdateContainer(ctx, "data", objstore.Metadata{"x-container-read": "proj:user1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	meta, _ := s.HeadContainer(ctx, "data")
	if meta["x-container-read"] != "proj:user1" {
		t.Errorf("expected acl header, got %q", meta["x-container-read"])
	}

	// Empty value removes the key.
	if err := s.UpdateContainer(ctx, "data", objstore.Metadata{"x-container-read": ""}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	meta, _ = s.HeadContainer(ctx, "data")
	if _, ok := meta["x-container-read"]; ok {
		t.Error("expected acl header to be removed")
	}
}

func TestStore_CreateContainer_Idempotent(t *testing.T) {
	s := NewStore()
	s.CreateContainer("c")
	if err := s.PutObject(context.Background(), "c", "k", []byte("v"), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.CreateContainer("c")
	if _, ok, _ := s.StatObject(context.Background(), "c", "k"); !ok {
		t.Error("re-creating a container must not drop its objects")
	}
}
