package devserver

import (
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/archivekit/objstore"
	"github.com/kbukum/archivekit/objstore/memory"
)

// Listing timestamps carry microseconds and no zone, matching the
// storage service's wire format.
const listingTimeLayout = "2006-01-02T15:04:05.000000"

// Referrer-style ACL grants for anonymous callers.
const (
	aclPublicRead = ".r:*"
	aclListings   = ".rlistings"
)

const accountPrefix = "AUTH_"

type containerListing struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
	Bytes int64  `json:"bytes"`
}

type objectListing struct {
	Name         string `json:"name"`
	Bytes        int64  `json:"bytes"`
	ContentType  string `json:"content_type"`
	Hash         string `json:"hash"`
	LastModified string `json:"last_modified"`
}

// storeFor resolves the {account} path parameter to a project store.
func (s *Server) storeFor(c *gin.Context) (*memory.Store, string, bool) {
	account := c.Param("account")
	projectID := strings.TrimPrefix(account, accountPrefix)
	if projectID == account || projectID == "" {
		c.String(http.StatusNotFound, "account not found")
		return nil, "", false
	}
	st := s.Store(projectID)
	if st == nil {
		c.String(http.StatusNotFound, "account not found")
		return nil, "", false
	}
	return st, projectID, true
}

// callerClaims parses the X-Auth-Token header. Anonymous and invalid
// tokens both come back nil; access checks treat them alike.
func (s *Server) callerClaims(c *gin.Context) *sessionClaims {
	raw := c.GetHeader("X-Auth-Token")
	if raw == "" {
		return nil
	}
	claims, err := s.tokens.verify(raw)
	if err != nil {
		return nil
	}
	return claims
}

// allowOwner grants access when the token is scoped to the account's
// own project.
func allowOwner(claims *sessionClaims, projectID string) bool {
	return claims != nil && claims.ProjectID == projectID
}

// aclEntries splits a container ACL header value into its entries.
func aclEntries(md objstore.Metadata, header string) []string {
	raw := md[header]
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	entries := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			entries = append(entries, p)
		}
	}
	return entries
}

// aclAllows reports whether the ACL entries admit the caller. The
// referrer grant named by anonymous admits callers without a token;
// "project:user" pairs match the token subject.
func aclAllows(entries []string, claims *sessionClaims, anonymous string) bool {
	for _, e := range entries {
		if anonymous != "" && e == anonymous {
			return true
		}
		if claims == nil || strings.HasPrefix(e, ".") {
			continue
		}
		if strings.HasSuffix(e, ":"+claims.Subject) {
			return true
		}
	}
	return false
}

// authorizeRead gates reads on a container: the owning project, a
// read-ACL grantee, or the anonymous grant named by sentinel.
func (s *Server) authorizeRead(c *gin.Context, st *memory.Store, projectID, container, sentinel string) bool {
	claims := s.callerClaims(c)
	if allowOwner(claims, projectID) {
		return true
	}
	md, err := st.HeadContainer(c.Request.Context(), container)
	if err == nil && aclAllows(aclEntries(md, "x-container-read"), claims, sentinel) {
		return true
	}
	c.String(http.StatusUnauthorized, "access denied")
	return false
}

// authorizeWrite gates writes on a container: the owning project or a
// write-ACL grantee. There is no anonymous write grant.
func (s *Server) authorizeWrite(c *gin.Context, st *memory.Store, projectID, container string) bool {
	claims := s.callerClaims(c)
	if allowOwner(claims, projectID) {
		return true
	}
	md, err := st.HeadContainer(c.Request.Context(), container)
	if err == nil && aclAllows(aclEntries(md, "x-container-write"), claims, "") {
		return true
	}
	c.String(http.StatusUnauthorized, "access denied")
	return false
}

// requireOwner gates account and metadata operations.
func (s *Server) requireOwner(c *gin.Context, projectID string) bool {
	if allowOwner(s.callerClaims(c), projectID) {
		return true
	}
	c.String(http.StatusUnauthorized, "access denied")
	return false
}

// storeError maps store failures onto storage API statuses.
func storeError(c *gin.Context, err error) {
	if objstore.IsNotFound(err) {
		c.String(http.StatusNotFound, "not found")
		return
	}
	c.String(http.StatusInternalServerError, err.Error())
}

// wantsJSON reports whether the caller asked for a JSON listing, via
// either the format query parameter or the Accept header.
func wantsJSON(c *gin.Context) bool {
	if c.Query("format") == "json" {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// plainListing renders the plain-text form of a listing: one name per
// line. Empty listings respond 204.
func plainListing(c *gin.Context, names []string) {
	if len(names) == 0 {
		c.Status(http.StatusNoContent)
		return
	}
	c.String(http.StatusOK, strings.Join(names, "\n")+"\n")
}

// objectKey extracts the object key from the wildcard path parameter.
func objectKey(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("key"), "/")
}

// parseDestination splits a Destination header into container and key.
func parseDestination(raw string) (container, key string, ok bool) {
	unescaped, err := url.PathUnescape(raw)
	if err != nil {
		return "", "", false
	}
	container, key, found := strings.Cut(strings.TrimPrefix(unescaped, "/"), "/")
	if !found || container == "" || key == "" {
		return "", "", false
	}
	return container, key, true
}

// collectContainerHeaders extracts x-container-* request headers as
// store metadata, lower-cased.
func collectContainerHeaders(c *gin.Context) objstore.Metadata {
	headers := make(objstore.Metadata)
	for k, vs := range c.Request.Header {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "x-container-") && len(vs) > 0 {
			headers[lk] = vs[0]
		}
	}
	return headers
}

// handleAccount implements GET /v1/AUTH_{project}: the container
// listing of the project's account.
func (s *Server) handleAccount(c *gin.Context) {
	st, projectID, ok := s.storeFor(c)
	if !ok {
		return
	}
	if !s.requireOwner(c, projectID) {
		return
	}

	infos, err := st.Account(c.Request.Context())
	if err != nil {
		storeError(c, err)
		return
	}

	if !wantsJSON(c) {
		names := make([]string, len(infos))
		for i, info := range infos {
			names[i] = info.Name
		}
		plainListing(c, names)
		return
	}

	entries := make([]containerListing, len(infos))
	for i, info := range infos {
		entries[i] = containerListing{Name: info.Name, Count: info.Count, Bytes: info.Bytes}
	}
	c.JSON(http.StatusOK, entries)
}

// handleContainerPut creates a container, applying any x-container-*
// headers as initial metadata. Re-creating an existing container is
// accepted without change.
func (s *Server) handleContainerPut(c *gin.Context) {
	st, projectID, ok := s.storeFor(c)
	if !ok {
		return
	}
	if !s.requireOwner(c, projectID) {
		return
	}
	container := c.Param("container")

	status := http.StatusCreated
	if _, err := st.HeadContainer(c.Request.Context(), container); err == nil {
		status = http.StatusAccepted
	}

	st.CreateContainer(container)
	if headers := collectContainerHeaders(c); len(headers) > 0 {
		if err := st.UpdateContainer(c.Request.Context(), container, headers); err != nil {
			storeError(c, err)
			return
		}
	}
	c.Status(status)
}

// handleContainerHead reports container metadata as response headers.
func (s *Server) handleContainerHead(c *gin.Context) {
	st, projectID, ok := s.storeFor(c)
	if !ok {
		return
	}
	container := c.Param("container")
	if !s.authorizeRead(c, st, projectID, container, aclListings) {
		return
	}

	md, err := st.HeadContainer(c.Request.Context(), container)
	if err != nil {
		storeError(c, err)
		return
	}
	for k, v := range md {
		c.Header(k, v)
	}
	c.Status(http.StatusNoContent)
}

// handleContainerPost merges x-container-* request headers into the
// container metadata. Empty values remove the key.
func (s *Server) handleContainerPost(c *gin.Context) {
	st, projectID, ok := s.storeFor(c)
	if !ok {
		return
	}
	if !s.requireOwner(c, projectID) {
		return
	}

	container := c.Param("container")
	if err := st.UpdateContainer(c.Request.Context(), container, collectContainerHeaders(c)); err != nil {
		storeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleContainerGet lists the container's objects.
func (s *Server) handleContainerGet(c *gin.Context) {
	st, projectID, ok := s.storeFor(c)
	if !ok {
		return
	}
	container := c.Param("container")
	if !s.authorizeRead(c, st, projectID, container, aclListings) {
		return
	}

	infos, err := st.ListObjects(c.Request.Context(), container)
	if err != nil {
		storeError(c, err)
		return
	}

	if !wantsJSON(c) {
		names := make([]string, len(infos))
		for i, info := range infos {
			names[i] = info.Key
		}
		plainListing(c, names)
		return
	}

	entries := make([]objectListing, len(infos))
	for i, info := range infos {
		entries[i] = objectListing{
			Name:         info.Key,
			Bytes:        info.Bytes,
			ContentType:  info.ContentType,
			Hash:         info.Hash,
			LastModified: info.LastModified.UTC().Format(listingTimeLayout),
		}
	}
	c.JSON(http.StatusOK, entries)
}

// handleContainerDelete removes an empty container.
func (s *Server) handleContainerDelete(c *gin.Context) {
	st, projectID, ok := s.storeFor(c)
	if !ok {
		return
	}
	if !s.requireOwner(c, projectID) {
		return
	}

	container := c.Param("container")
	infos, err := st.ListObjects(c.Request.Context(), container)
	if err != nil {
		storeError(c, err)
		return
	}
	if len(infos) > 0 {
		c.String(http.StatusConflict, "container is not empty")
		return
	}
	st.DeleteContainer(container)
	c.Status(http.StatusNoContent)
}

// handleObjectGet serves an object's content.
func (s *Server) handleObjectGet(c *gin.Context) {
	st, projectID, ok := s.storeFor(c)
	if !ok {
		return
	}
	container := c.Param("container")
	if !s.authorizeRead(c, st, projectID, container, aclPublicRead) {
		return
	}

	md, data, err := st.GetObject(c.Request.Context(), container, objectKey(c))
	if err != nil {
		storeError(c, err)
		return
	}

	c.Header("Etag", md["etag"])
	if t, perr := time.Parse(time.RFC1123, md["last-modified"]); perr == nil {
		c.Header("Last-Modified", t.UTC().Format(http.TimeFormat))
	}
	c.Data(http.StatusOK, md["content-type"], data)
}

// handleObjectHead reports an object's metadata without its content.
func (s *Server) handleObjectHead(c *gin.Context) {
	st, projectID, ok := s.storeFor(c)
	if !ok {
		return
	}
	container := c.Param("container")
	if !s.authorizeRead(c, st, projectID, container, aclPublicRead) {
		return
	}

	info, found, err := st.StatObject(c.Request.Context(), container, objectKey(c))
	if err != nil {
		storeError(c, err)
		return
	}
	if !found {
		c.String(http.StatusNotFound, "not found")
		return
	}

	c.Header("Content-Type", info.ContentType)
	c.Header("Content-Length", strconv.FormatInt(info.Bytes, 10))
	c.Header("Etag", info.Hash)
	if !info.LastModified.IsZero() {
		c.Header("Last-Modified", info.LastModified.UTC().Format(http.TimeFormat))
	}
	c.Status(http.StatusOK)
}

// handleObjectPut stores an object from the request body. The raw
// Content-Type header is preserved, including charset parameters.
func (s *Server) handleObjectPut(c *gin.Context) {
	st, projectID, ok := s.storeFor(c)
	if !ok {
		return
	}
	container := c.Param("container")
	if !s.authorizeWrite(c, st, projectID, container) {
		return
	}

	key := objectKey(c)
	if key == "" {
		c.String(http.StatusBadRequest, "object name required")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.maxObject))
	if err != nil {
		c.String(http.StatusRequestEntityTooLarge, "object exceeds size limit")
		return
	}

	if err := st.PutObject(c.Request.Context(), container, key, body, c.GetHeader("Content-Type")); err != nil {
		storeError(c, err)
		return
	}
	if info, found, _ := st.StatObject(c.Request.Context(), container, key); found {
		c.Header("Etag", info.Hash)
	}
	c.Status(http.StatusCreated)
}

// handleObjectCopy implements the COPY method: the Destination header
// names the target as /container/key. The caller needs read access on
// the source container and write access on the destination.
func (s *Server) handleObjectCopy(c *gin.Context) {
	st, projectID, ok := s.storeFor(c)
	if !ok {
		return
	}

	dstContainer, dstKey, ok := parseDestination(c.GetHeader("Destination"))
	if !ok {
		c.String(http.StatusPreconditionFailed, "Destination header must name /<container>/<object>")
		return
	}

	srcContainer := c.Param("container")
	if !s.authorizeRead(c, st, projectID, srcContainer, "") {
		return
	}
	if !s.authorizeWrite(c, st, projectID, dstContainer) {
		return
	}

	if err := st.CopyObject(c.Request.Context(), srcContainer, objectKey(c), dstContainer, dstKey); err != nil {
		storeError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

// handleObjectDelete removes an object.
func (s *Server) handleObjectDelete(c *gin.Context) {
	st, projectID, ok := s.storeFor(c)
	if !ok {
		return
	}
	container := c.Param("container")
	if !s.authorizeWrite(c, st, projectID, container) {
		return
	}

	if err := st.DeleteObject(c.Request.Context(), container, objectKey(c)); err != nil {
		storeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
