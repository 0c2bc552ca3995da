package devserver

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kbukum/archivekit/identity"
)

// Credential outcomes, mapped onto identity-service status codes by the
// token handler: unknown users are 404, rejected secrets are 401.
var (
	errUnknownUser = errors.New("devserver: unknown user")
	errBadSecret   = errors.New("devserver: invalid password")
)

// Minimum cost keeps seeding fast; the store exercises the credential
// path, it does not protect real secrets.
const hashCost = bcrypt.MinCost

type userRecord struct {
	id   string
	name string
	hash []byte
}

// accounts is the in-memory principal and project registry.
type accounts struct {
	mu       sync.RWMutex
	byID     map[string]*userRecord
	byName   map[string]*userRecord
	projects map[string]identity.ProjectRef
	members  map[string]map[string]bool
}

func newAccounts() *accounts {
	return &accounts{
		byID:     make(map[string]*userRecord),
		byName:   make(map[string]*userRecord),
		projects: make(map[string]identity.ProjectRef),
		members:  make(map[string]map[string]bool),
	}
}

// addUser registers a principal and returns its generated id.
func (a *accounts) addUser(name, password string) (string, error) {
	if name == "" {
		return "", errors.New("devserver: user name is required")
	}
	if len(password) < 8 {
		return "", errors.New("devserver: minimum password length is 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", fmt.Errorf("devserver: hash password: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.byName[name]; ok {
		return "", fmt.Errorf("devserver: user %q already exists", name)
	}
	u := &userRecord{id: uuid.NewString(), name: name, hash: hash}
	a.byID[u.id] = u
	a.byName[name] = u
	return u.id, nil
}

// authenticate verifies a password credential.
func (a *accounts) authenticate(name, password string) (*userRecord, error) {
	a.mu.RLock()
	u, ok := a.byName[name]
	a.mu.RUnlock()
	if !ok {
		return nil, errUnknownUser
	}
	if bcrypt.CompareHashAndPassword(u.hash, []byte(password)) != nil {
		return nil, errBadSecret
	}
	return u, nil
}

func (a *accounts) userByID(id string) (*userRecord, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	u, ok := a.byID[id]
	return u, ok
}

// addProject registers a project and its member users.
func (a *accounts) addProject(ref identity.ProjectRef, memberIDs ...string) error {
	if ref.ID == "" || ref.Name == "" {
		return errors.New("devserver: project id and name are required")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.projects[ref.ID]; ok {
		return fmt.Errorf("devserver: project %q already exists", ref.ID)
	}
	for _, id := range memberIDs {
		if _, ok := a.byID[id]; !ok {
			return fmt.Errorf("devserver: unknown user %q", id)
		}
	}

	a.projects[ref.ID] = ref
	set := make(map[string]bool, len(memberIDs))
	for _, id := range memberIDs {
		set[id] = true
	}
	a.members[ref.ID] = set
	return nil
}

func (a *accounts) project(id string) (identity.ProjectRef, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ref, ok := a.projects[id]
	return ref, ok
}

func (a *accounts) isMember(projectID, userID string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.members[projectID][userID]
}

// projectsFor lists the projects a user is a member of, sorted by name.
func (a *accounts) projectsFor(userID string) []identity.ProjectRef {
	a.mu.RLock()
	defer a.mu.RUnlock()

	refs := make([]identity.ProjectRef, 0, len(a.projects))
	for id, set := range a.members {
		if set[userID] {
			refs = append(refs, a.projects[id])
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs
}

func (a *accounts) counts() (users, projects int) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.byID), len(a.projects)
}
