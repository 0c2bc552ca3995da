package archivekit

import (
	"context"
	"sort"
	"sync"

	"github.com/kbukum/archivekit/config"
	"github.com/kbukum/archivekit/identity"
	"github.com/kbukum/archivekit/logger"
	"github.com/kbukum/archivekit/objstore"
	"github.com/kbukum/archivekit/version"

	// Storage backends selectable through Config.Backend register
	// themselves on import.
	_ "github.com/kbukum/archivekit/objstore/memory"
	_ "github.com/kbukum/archivekit/objstore/s3"
)

// Connector builds a storage connection from a project-scoped token.
// The default connector targets the configured backend; tests and
// alternate deployments may substitute their own through WithConnector.
type Connector func(ctx context.Context, token *identity.Token) (objstore.Connection, error)

// Option customizes Open.
type Option func(*openOptions)

type openOptions struct {
	log       *logger.Logger
	connector Connector
}

// WithLogger replaces the logger built from Config.Logging.
func WithLogger(log *logger.Logger) Option {
	return func(o *openOptions) { o.log = log }
}

// WithConnector replaces how project-scoped storage connections are
// built.
func WithConnector(c Connector) Option {
	return func(o *openOptions) { o.connector = c }
}

// Archive is an authenticated session with the archival storage.
// Opening one authenticates the principal and fetches the set of
// projects it may use; everything below that (storage connections,
// container sets, user maps) is established lazily.
type Archive struct {
	// Username and UserID identify the authenticated principal.
	Username string
	UserID   string

	cfg       config.Config
	identity  *identity.Client
	token     *identity.Token
	connector Connector
	log       *logger.Logger

	mu       sync.Mutex
	refs     []identity.ProjectRef
	projects map[string]*Project
}

// Open authenticates against the configured identity service and
// returns a session. A configured token is used as-is; otherwise the
// username is paired with a password resolved from the config, the
// ARCHIVE_PASSWORD environment variable, or an interactive prompt, in
// that order.
func Open(ctx context.Context, cfg config.Config, opts ...Option) (*Archive, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, wrapError(ErrCodeValidation, err, "invalid configuration")
	}

	var options openOptions
	for _, opt := range opts {
		opt(&options)
	}
	log := options.log
	if log == nil {
		log = logger.New(&cfg.Logging, "archivekit")
	}

	idc, err := identity.New(identity.Config{
		AuthURL: cfg.AuthURL,
		Timeout: cfg.Timeout,
	}, log)
	if err != nil {
		return nil, wrapError(ErrCodeValidation, err, "building identity client")
	}

	creds := identity.Credentials{Token: cfg.Token}
	if cfg.Token == "" {
		password, err := cfg.ResolvePassword()
		if err != nil {
			return nil, wrapError(ErrCodeAuth, err, "resolving password for user %q", cfg.Username)
		}
		creds = identity.Credentials{Username: cfg.Username, Password: password}
	}

	token, err := idc.Authenticate(ctx, creds)
	if err != nil {
		return nil, wrapError(ErrCodeAuth, err, "authenticating")
	}

	refs, err := idc.Projects(ctx, token.Value, token.UserID)
	if err != nil {
		return nil, wrapError(ErrCodeTransport, err, "listing authorized projects")
	}

	connector := options.connector
	if connector == nil {
		connector = defaultConnector(cfg, log)
	}

	a := &Archive{
		Username:  token.UserName,
		UserID:    token.UserID,
		cfg:       cfg,
		identity:  idc,
		token:     token,
		connector: connector,
		log:       log,
		refs:      refs,
		projects:  make(map[string]*Project),
	}
	log.Info("authenticated", map[string]interface{}{
		"username":        a.Username,
		logger.FieldCount: len(refs),
	})
	return a, nil
}

// defaultConnector targets the configured storage backend, preferring
// an explicitly configured endpoint over the one carried by the scoped
// token's catalog.
func defaultConnector(cfg config.Config, log *logger.Logger) Connector {
	return func(ctx context.Context, token *identity.Token) (objstore.Connection, error) {
		endpoint := cfg.StorageURL
		if endpoint == "" {
			endpoint = token.StorageURL
		}
		return objstore.New(ctx, objstore.Config{
			Provider:  cfg.Backend,
			Endpoint:  endpoint,
			Token:     token.Value,
			Timeout:   cfg.Timeout,
			UserAgent: version.UserAgent(),
		}, nil, log)
	}
}

// Projects returns the authorized projects, sorted by name. Instances
// are created on first use and cached, one per project.
func (a *Archive) Projects() []*Project {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]*Project, 0, len(a.refs))
	for _, ref := range a.refs {
		out = append(out, a.projectLocked(ref))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Project returns the named project. Names outside the authorized set
// are a not-found error.
func (a *Archive) Project(name string) (*Project, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, ref := range a.refs {
		if ref.Name == name {
			return a.projectLocked(ref), nil
		}
	}
	return nil, newError(ErrCodeNotFound, "project %q is not in your authorized project list", name)
}

func (a *Archive) projectLocked(ref identity.ProjectRef) *Project {
	if p, ok := a.projects[ref.Name]; ok {
		return p
	}
	p := newProject(a, ref)
	a.projects[ref.Name] = p
	return p
}

// FindContainer searches every authorized project for the named
// container. Projects that cannot be probed are skipped; an exhausted
// search is a not-found error.
func (a *Archive) FindContainer(ctx context.Context, name string) (*Container, error) {
	for _, p := range a.Projects() {
		c, err := p.Container(ctx, name)
		if err == nil {
			return c, nil
		}
		if !IsNotFound(err) {
			a.log.Warn("skipping project during container search", map[string]interface{}{
				logger.FieldProject: p.Name,
				logger.FieldError:   err.Error(),
			})
		}
	}
	return nil, newError(ErrCodeNotFound, "container %q was not found in any of your projects, check your access permissions", name)
}
