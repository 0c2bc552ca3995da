// Package devserver runs an in-process emulator of the identity and
// object-storage services the library talks to. It exists for
// integration tests and local development: seed users, projects, and
// containers programmatically, point a client config at URL(), and the
// whole stack works without external infrastructure.
//
// The identity side speaks the V3 token protocol (password and token
// proofs, project scoping, X-Subject-Token) and issues HS256-signed
// JWTs. The storage side speaks the flat Swift-style API (JSON
// listings, COPY with a Destination header, container metadata via
// POST) backed by one in-memory store per project. Containers whose
// read ACL carries ".r:*" serve object reads without a token, and
// ".rlistings" does the same for listings.
//
//	srv, _ := devserver.New(devserver.Config{}, log)
//	uid, _ := srv.AddUser("alice", "correct horse")
//	_ = srv.AddProject(identity.ProjectRef{ID: "p-1", Name: "sandbox"}, uid)
//	_ = srv.Start(ctx)
//	defer srv.Stop(ctx)
//
//	cfg := config.Config{Username: "alice", Password: "correct horse", AuthURL: srv.URL()}
package devserver
