// Package httpclient provides a configurable HTTP client with built-in
// authentication, TLS, typed error classification, and streaming support.
//
// It is the transport layer under the identity and objstore packages.
// Requests describe method, path, headers, query, and body; responses
// carry the status, flattened headers, and raw body. Non-2xx statuses
// are returned as *Error values classified by code.
//
// # Basic Usage
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL: "https://storage.example.org/v1/AUTH_abc123",
//	    Timeout: 30 * time.Second,
//	    Auth:    httpclient.TokenAuth("my-token"),
//	})
//
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodGet,
//	    Path:   "/my-container",
//	    Query:  map[string]string{"format": "json"},
//	})
package httpclient
