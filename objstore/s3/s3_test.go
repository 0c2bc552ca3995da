package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/kbukum/archivekit/objstore"
)

func newTestConnection(t *testing.T, handler http.HandlerFunc) *Connection {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	conn, err := NewConnection(context.Background(), objstore.Config{
		Provider: objstore.ProviderS3,
		Endpoint: srv.URL,
	}, &Config{
		Region:    "us-east-1",
		AccessKey: "test",
		SecretKey: "test",
	}, nil)
	if err != nil {
		t.Fatalf("NewConnection failed: %v", err)
	}
	return conn
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	if cfg.Region != DefaultRegion {
		t.Errorf("expected default region %q, got %q", DefaultRegion, cfg.Region)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid full", Config{Region: "eu-west-1", AccessKey: "a", SecretKey: "s"}, false},
		{"valid chain creds", Config{Region: "eu-west-1"}, false},
		{"missing region", Config{}, true},
		{"access key without secret", Config{Region: "eu-west-1", AccessKey: "a"}, true},
		{"secret without access key", Config{Region: "eu-west-1", SecretKey: "s"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestAccount(t *testing.T) {
	conn := newTestConnection(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<ListAllMyBucketsResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Owner><ID>test</ID><DisplayName>test</DisplayName></Owner>
  <Buckets>
    <Bucket><Name>sandbox</Name><CreationDate>2016-03-10T08:34:34.000Z</CreationDate></Bucket>
    <Bucket><Name>images</Name><CreationDate>2016-03-11T09:00:00.000Z</CreationDate></Bucket>
  </Buckets>
</ListAllMyBucketsResult>`))
	})

	infos, err := conn.Account(context.Background())
	if err != nil {
		t.Fatalf("Account failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(infos))
	}
	if infos[0].Name != "sandbox" || infos[1].Name != "images" {
		t.Errorf("unexpected bucket names: %+v", infos)
	}
}

func TestStatObject_Missing(t *testing.T) {
	conn := newTestConnection(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	info, found, err := conn.StatObject(context.Background(), "sandbox", "nope.txt")
	if err != nil {
		t.Fatalf("expected absence without error, got %v", err)
	}
	if found || info != nil {
		t.Errorf("expected not found, got found=%v info=%+v", found, info)
	}
}

func TestGetObject(t *testing.T) {
	conn := newTestConnection(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sandbox/hello.txt") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("ETag", `"abc123"`)
		_, _ = w.Write([]byte("hello world"))
	})

	md, data, err := conn.GetObject(context.Background(), "sandbox", "hello.txt")
	if err != nil {
		t.Fatalf("GetObject failed: %v", err)
	}
	if string(data) != "hello world" {
		t.Errorf("expected body, got %q", data)
	}
	if md["content-type"] != "text/plain" {
		t.Errorf("expected content-type metadata, got %v", md)
	}
	if md["etag"] != "abc123" {
		t.Errorf("expected unquoted etag, got %v", md)
	}
}

func TestGetObjectStream(t *testing.T) {
	conn := newTestConnection(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("streamed"))
	})

	_, body, err := conn.GetObjectStream(context.Background(), "sandbox", "big.dat")
	if err != nil {
		t.Fatalf("GetObjectStream failed: %v", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("reading stream failed: %v", err)
	}
	if string(data) != "streamed" {
		t.Errorf("expected streamed body, got %q", data)
	}
}

func TestPutObject(t *testing.T) {
	var gotBody []byte
	conn := newTestConnection(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			gotBody, _ = io.ReadAll(r.Body)
		}
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	})

	err := conn.PutObject(context.Background(), "sandbox", "new.json", []byte(`{"a":1}`), "application/json")
	if err != nil {
		t.Fatalf("PutObject failed: %v", err)
	}
	if string(gotBody) != `{"a":1}` {
		t.Errorf("expected body uploaded, got %q", gotBody)
	}
}

func TestDeleteObject_Missing(t *testing.T) {
	conn := newTestConnection(t, func(w http.ResponseWriter, r *http.Request) {
		// The existence probe sees a 404; DELETE must never arrive.
		if r.Method == http.MethodDelete {
			t.Error("unexpected DELETE for missing object")
		}
		w.WriteHeader(http.StatusNotFound)
	})

	err := conn.DeleteObject(context.Background(), "sandbox", "ghost.txt")
	if !objstore.IsNotFound(err) {
		t.Errorf("expected not-found sentinel, got %v", err)
	}
}

func TestFactoryRegistration(t *testing.T) {
	conn, err := objstore.New(context.Background(), objstore.Config{
		Provider: objstore.ProviderS3,
	}, &Config{Region: "us-east-1", AccessKey: "a", SecretKey: "s"}, nil)
	if err != nil {
		t.Fatalf("objstore.New failed: %v", err)
	}
	if _, ok := conn.(*Connection); !ok {
		t.Fatalf("expected *s3.Connection, got %T", conn)
	}
}

func TestFactoryRejectsWrongProviderConfig(t *testing.T) {
	_, err := objstore.New(context.Background(), objstore.Config{
		Provider: objstore.ProviderS3,
	}, "bogus", nil)
	if err == nil {
		t.Fatal("expected error for wrong provider config type")
	}
	if !strings.Contains(err.Error(), "expected *s3.Config") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no such key", &types.NoSuchKey{}, objstore.ErrNotFound},
		{"no such bucket", &types.NoSuchBucket{}, objstore.ErrNotFound},
		{"not found", &types.NotFound{}, objstore.ErrNotFound},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, objstore.ErrForbidden},
		{"bad access key", &smithy.GenericAPIError{Code: "InvalidAccessKeyId"}, objstore.ErrUnauthorized},
		{"bad signature", &smithy.GenericAPIError{Code: "SignatureDoesNotMatch"}, objstore.ErrUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := mapError("op", tc.err)
			if !errors.Is(got, tc.want) {
				t.Errorf("mapError(%v) = %v, want sentinel %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestMapErrorPassthrough(t *testing.T) {
	underlying := fmt.Errorf("connection reset")
	got := mapError("op", underlying)
	if !errors.Is(got, underlying) {
		t.Errorf("expected underlying error preserved, got %v", got)
	}
	if objstore.IsNotFound(got) || objstore.IsForbidden(got) || objstore.IsUnauthorized(got) {
		t.Errorf("expected no sentinel classification, got %v", got)
	}
}

func TestIsNoSuchTagSet(t *testing.T) {
	if !isNoSuchTagSet(&smithy.GenericAPIError{Code: "NoSuchTagSet"}) {
		t.Error("expected NoSuchTagSet to match")
	}
	if isNoSuchTagSet(&smithy.GenericAPIError{Code: "AccessDenied"}) {
		t.Error("expected AccessDenied not to match")
	}
	if isNoSuchTagSet(fmt.Errorf("plain")) {
		t.Error("expected plain error not to match")
	}
}
