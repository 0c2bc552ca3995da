package archivekit

import (
	"context"
	"strings"
	"sync"

	"github.com/kbukum/archivekit/identity"
	"github.com/kbukum/archivekit/logger"
	"github.com/kbukum/archivekit/objstore"
)

// versionsSuffix marks the store's internal object-versioning
// containers, which listings hide.
const versionsSuffix = "_versions"

// userMapContainer and userMapObject locate the well-known membership
// document maintained alongside a project's data.
const (
	userMapContainer = "project_info"
	userMapObject    = "user_ids"
)

// Project is one storage project the authenticated user belongs to. Its
// storage connection, container set and user map are each established
// lazily on first use and memoized; a failed attempt leaves the cell
// unset so the next call retries.
type Project struct {
	// ID is the opaque project id used for token scoping and ACL
	// entries.
	ID string
	// Name is the human-readable project name.
	Name string

	archive *Archive
	log     *logger.Logger

	mu     sync.Mutex
	conn   objstore.Connection
	byName map[string]*Container
	listed []*Container
	users  map[string]string
}

func newProject(archive *Archive, ref identity.ProjectRef) *Project {
	return &Project{
		ID:      ref.ID,
		Name:    ref.Name,
		archive: archive,
		log: archive.log.WithFields(map[string]interface{}{
			logger.FieldProject: ref.Name,
		}),
		byName: make(map[string]*Container),
	}
}

func (p *Project) String() string {
	return p.Name
}

// connection returns the project-scoped storage connection, establishing
// it on first use: the archive's root token is exchanged for a
// project-scoped token, then a store connection is built against the
// scoped token's endpoint.
func (p *Project) connection(ctx context.Context) (objstore.Connection, error) {
	p.mu.Lock()
	if p.conn != nil {
		conn := p.conn
		p.mu.Unlock()
		return conn, nil
	}
	p.mu.Unlock()

	scoped, err := p.archive.identity.ScopeToken(ctx, p.archive.token.Value, p.ID)
	if err != nil {
		return nil, wrapError(ErrCodeScope, err, "scoping token to project %q", p.Name)
	}
	conn, err := p.archive.connector(ctx, scoped)
	if err != nil {
		return nil, wrapError(ErrCodeTransport, err, "connecting to storage for project %q", p.Name)
	}

	p.mu.Lock()
	if p.conn == nil {
		p.conn = conn
		p.log.Debug("storage connection established")
	}
	conn = p.conn
	p.mu.Unlock()
	return conn, nil
}

// Containers lists the project's containers, hiding the store's internal
// versioning containers. Instances are cached by name: repeated calls
// and later Container lookups return the same *Container.
func (p *Project) Containers(ctx context.Context) ([]*Container, error) {
	p.mu.Lock()
	if p.listed != nil {
		listed := p.listed
		p.mu.Unlock()
		return listed, nil
	}
	p.mu.Unlock()

	conn, err := p.connection(ctx)
	if err != nil {
		return nil, err
	}
	infos, err := conn.Account(ctx)
	if err != nil {
		return nil, storeError(err, "listing containers of project %q", p.Name)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.listed == nil {
		listed := make([]*Container, 0, len(infos))
		for _, info := range infos {
			if strings.HasSuffix(info.Name, versionsSuffix) {
				continue
			}
			c, ok := p.byName[info.Name]
			if !ok {
				c = newContainer(p, info.Name)
				p.byName[info.Name] = c
			}
			listed = append(listed, c)
		}
		p.listed = listed
	}
	return p.listed, nil
}

// ContainerNames returns the names of the project's containers.
func (p *Project) ContainerNames(ctx context.Context) ([]string, error) {
	containers, err := p.Containers(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(containers))
	for i, c := range containers {
		names[i] = c.Name
	}
	return names, nil
}

// Container returns the named container: the cached instance when one
// exists, otherwise a new one validated by a metadata probe.
func (p *Project) Container(ctx context.Context, name string) (*Container, error) {
	p.mu.Lock()
	if c, ok := p.byName[name]; ok {
		p.mu.Unlock()
		return c, nil
	}
	p.mu.Unlock()

	c := newContainer(p, name)
	if _, err := c.Metadata(ctx); err != nil {
		if IsNotFound(err) {
			return nil, newError(ErrCodeNotFound, "container %q does not exist in project %q", name, p.Name)
		}
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.byName[name]; ok {
		return existing, nil
	}
	p.byName[name] = c
	return c, nil
}

// Users returns the project's membership map (user id to username),
// read from the well-known project_info/user_ids document. Projects
// without a project_info container yield an empty map. The map is
// memoized.
func (p *Project) Users(ctx context.Context) (map[string]string, error) {
	p.mu.Lock()
	if p.users != nil {
		users := p.users
		p.mu.Unlock()
		return users, nil
	}
	p.mu.Unlock()

	containers, err := p.Containers(ctx)
	if err != nil {
		return nil, err
	}
	var info *Container
	for _, c := range containers {
		if c.Name == userMapContainer {
			info = c
			break
		}
	}

	users := make(map[string]string)
	if info != nil {
		content, err := info.Read(ctx, userMapObject, ReadOptions{
			Accept: []string{"application/octet-stream"},
		})
		if err != nil {
			return nil, err
		}
		doc := content.Text
		if !content.Decoded {
			doc = string(content.Bytes)
		}
		users = parseUserMap(doc)
	}

	p.mu.Lock()
	if p.users == nil {
		p.users = users
	}
	users = p.users
	p.mu.Unlock()
	return users, nil
}

// parseUserMap reads the user_ids document: everything before a line
// starting "# user ids" is preamble, each line after is an
// "<id> <name>" pair. Malformed lines are skipped.
func parseUserMap(doc string) map[string]string {
	users := make(map[string]string)
	inList := false
	for _, line := range strings.Split(doc, "\n") {
		switch {
		case line == "":
		case strings.HasPrefix(line, "# user ids"):
			inList = true
		case inList:
			fields := strings.Fields(line)
			if len(fields) == 2 {
				users[fields[0]] = fields[1]
			}
		}
	}
	return users
}
