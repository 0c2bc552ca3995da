// Package archivekit is a client for project-scoped archival object
// storage. It authenticates against a V3 identity service, exchanges
// the session token for project-scoped tokens on demand, and presents
// each project's containers with directory semantics emulated over the
// store's flat slash-delimited object keys.
//
// The hierarchy is Archive → Project → Container → File. Everything
// below the initial authentication is lazy and memoized: storage
// connections, container sets, user maps, and container metadata are
// fetched on first use and cached until invalidated.
//
// # Usage
//
//	cfg := config.Config{
//	    Username: "alice",
//	    AuthURL:  "https://identity.example.org/v3",
//	}
//	arc, err := archivekit.Open(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	container, err := arc.FindContainer(ctx, "measurements")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	local, err := container.Download(ctx, "2024/run-117/trace.json", archivekit.DownloadOptions{})
//
// World-readable containers need no credentials at all:
//
//	pub, err := archivekit.NewPublicContainer("https://storage.example.org/v1/AUTH_abc/shared", nil)
//	files, err := pub.List(ctx)
//
// Failures carry a coarse classification inspectable with the Is
// predicates (IsNotFound, IsAuth, IsConflict, ...); the full cause
// chain stays available through errors.Is and errors.As.
package archivekit
