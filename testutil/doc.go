// Package testutil provides shared fixtures for exercising the archive
// client: a pre-seeded development server, a matching client
// configuration, and deterministic in-memory stores.
//
// # Quick Start
//
// Integration tests boot a seeded server and open a session against it:
//
//	func TestUploadDownload(t *testing.T) {
//	    srv, _ := testutil.StartSeededServer(t)
//	    arc, err := archivekit.Open(context.Background(), testutil.ClientConfig(srv))
//	    if err != nil {
//	        t.Fatalf("unexpected error: %v", err)
//	    }
//	    // ...
//	}
//
// The server is stopped automatically when the test ends. Tests that
// need no HTTP round trips can seed an in-memory store directly with
// SeededStore.
package testutil
