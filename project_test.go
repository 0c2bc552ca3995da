package archivekit

import (
	"context"
	"testing"

	"github.com/kbukum/archivekit/objstore/memory"
)

func TestProjectContainers(t *testing.T) {
	s := memory.NewStore()
	s.CreateContainer("alpha")
	s.CreateContainer("alpha_versions")
	s.CreateContainer("beta")
	p := testProject(t, s)

	containers, err := p.Containers(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(containers) != 2 {
		t.Fatalf("expected 2 containers, got %d", len(containers))
	}
	if containers[0].Name != "alpha" || containers[1].Name != "beta" {
		t.Errorf("versioning containers should be hidden, got %v", containers)
	}

	names, err := p.ContainerNames(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("expected [alpha beta], got %v", names)
	}
}

func TestProjectContainersMemoized(t *testing.T) {
	s := memory.NewStore()
	s.CreateContainer("alpha")
	p := testProject(t, s)
	ctx := context.Background()

	if _, err := p.Containers(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.CreateContainer("late")

	containers, err := p.Containers(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(containers) != 1 {
		t.Errorf("expected the memoized listing of 1 container, got %d", len(containers))
	}
}

func TestProjectContainer(t *testing.T) {
	s := memory.NewStore()
	s.CreateContainer("alpha")
	p := testProject(t, s)
	ctx := context.Background()

	c, err := p.Container(ctx, "alpha")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Name != "alpha" {
		t.Errorf("expected alpha, got %q", c.Name)
	}

	again, err := p.Container(ctx, "alpha")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again != c {
		t.Error("expected the cached instance on repeat lookups")
	}

	_, err = p.Container(ctx, "ghost")
	if !IsNotFound(err) {
		t.Errorf("expected a not-found error, got %v", err)
	}
}

func TestProjectContainerSharedWithListing(t *testing.T) {
	s := memory.NewStore()
	s.CreateContainer("alpha")
	p := testProject(t, s)
	ctx := context.Background()

	containers, err := p.Containers(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c, err := p.Container(ctx, "alpha")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if containers[0] != c {
		t.Error("the listing and the lookup should share one instance")
	}
}

func TestProjectUsers(t *testing.T) {
	s := memory.NewStore()
	s.CreateContainer("project_info")
	s.CreateContainer("data")
	doc := "export of project members\ngenerated 2024-03-01\n# user ids\nu1 alice\nu2 bob\nbroken line with extras\n"
	if err := s.PutObject(context.Background(), "project_info", "user_ids", []byte(doc), "application/octet-stream"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := testProject(t, s)

	users, err := p.Users(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 2 || users["u1"] != "alice" || users["u2"] != "bob" {
		t.Errorf("unexpected user map: %v", users)
	}
}

func TestProjectUsersMemoized(t *testing.T) {
	s := memory.NewStore()
	s.CreateContainer("project_info")
	ctx := context.Background()
	if err := s.PutObject(ctx, "project_info", "user_ids", []byte("# user ids\nu1 alice\n"), "application/octet-stream"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := testProject(t, s)

	if _, err := p.Users(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.PutObject(ctx, "project_info", "user_ids", []byte("# user ids\nu9 mallory\n"), "application/octet-stream"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	users, err := p.Users(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := users["u9"]; ok {
		t.Error("expected the memoized map, not a re-read")
	}
}

func TestProjectUsersNoProjectInfo(t *testing.T) {
	s := memory.NewStore()
	s.CreateContainer("data")
	p := testProject(t, s)

	users, err := p.Users(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if users == nil || len(users) != 0 {
		t.Errorf("expected an empty map, got %v", users)
	}
}

func TestProjectUsersMissingDocument(t *testing.T) {
	s := memory.NewStore()
	s.CreateContainer("project_info")
	p := testProject(t, s)

	_, err := p.Users(context.Background())
	if !IsNotFound(err) {
		t.Errorf("expected a not-found error for the missing document, got %v", err)
	}
}

func TestParseUserMap(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want map[string]string
	}{
		{
			name: "pairs after marker",
			doc:  "# user ids\nu1 alice\nu2 bob",
			want: map[string]string{"u1": "alice", "u2": "bob"},
		},
		{
			name: "preamble ignored",
			doc:  "u0 eve\nnotes\n# user ids\nu1 alice",
			want: map[string]string{"u1": "alice"},
		},
		{
			name: "malformed lines skipped",
			doc:  "# user ids\nu1 alice extra\nsolo\nu2 bob",
			want: map[string]string{"u2": "bob"},
		},
		{
			name: "no marker",
			doc:  "u1 alice\nu2 bob",
			want: map[string]string{},
		},
		{
			name: "empty",
			doc:  "",
			want: map[string]string{},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := parseUserMap(tc.doc)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for id, name := range tc.want {
				if got[id] != name {
					t.Errorf("expected %s=%s, got %q", id, name, got[id])
				}
			}
		})
	}
}
