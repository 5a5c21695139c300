package gitea

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"backend/pkg/apperr"
)

const serviceName = "Gitea"

// TemplateRepo points at a language-specific template repository that
// new mission repositories are seeded from.
type TemplateRepo struct {
	Owner string
	Repo  string
}

// Config holds everything needed to talk to the Gitea API as the
// platform admin account.
type Config struct {
	BaseURL       string // e.g. http://gitea:3000/api/v1
	AdminUsername string
	AdminPassword string
	Templates     map[string]TemplateRepo // keyed by template language, e.g. "javascript"
}

// Client is a synchronous client for the Gitea REST API. All repository
// operations run under the admin account; cadets only ever get
// collaborator access on repositories the admin owns.
type Client struct {
	baseURL       string
	adminUsername string
	authHeader    string
	templates     map[string]TemplateRepo
	httpClient    *http.Client
}

func NewClient(cfg Config) *Client {
	creds := base64.StdEncoding.EncodeToString([]byte(cfg.AdminUsername + ":" + cfg.AdminPassword))
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		adminUsername: cfg.AdminUsername,
		authHeader:    "Basic " + creds,
		templates:     cfg.Templates,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}
}

// AdminUsername returns the Gitea account that owns mission repositories.
func (c *Client) AdminUsername() string {
	return c.adminUsername
}

// ContentEntry is one entry of a repository contents listing.
type ContentEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"` // "file" or "dir"
	SHA         string `json:"sha"`
	Content     string `json:"content"` // base64, only populated for single-file fetches
	DownloadURL string `json:"download_url"`
}

// CreateUser creates a Gitea account and returns its numeric ID.
func (c *Client) CreateUser(ctx context.Context, username, email, password string) (int64, error) {
	log.Printf("Creating Gitea user: %s", username)
	body := map[string]any{
		"username":             username,
		"email":                email,
		"password":             password,
		"login_name":           username,
		"must_change_password": false,
		"send_notify":          false,
	}

	var resp struct {
		ID int64 `json:"id"`
	}
	status, err := c.do(ctx, http.MethodPost, "/admin/users", body, &resp)
	if err != nil {
		return 0, err
	}
	if status == http.StatusConflict {
		return 0, apperr.External(serviceName, fmt.Sprintf("user '%s' already exists", username), nil)
	}
	if status < 200 || status >= 300 || resp.ID == 0 {
		return 0, apperr.External(serviceName, fmt.Sprintf("failed to create user '%s' (status %d)", username, status), nil)
	}
	log.Printf("Created Gitea user %s with ID %d", username, resp.ID)
	return resp.ID, nil
}

// DeleteUser removes a Gitea account. A missing account is not an error.
func (c *Client) DeleteUser(ctx context.Context, username string) error {
	status, err := c.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(username), nil, nil)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		log.Printf("Gitea user '%s' not found, skipping deletion", username)
		return nil
	}
	if status < 200 || status >= 300 {
		return apperr.External(serviceName, fmt.Sprintf("failed to delete user '%s' (status %d)", username, status), nil)
	}
	return nil
}

// CreateRepository creates an empty repository under the admin account
// and returns its clone URL.
func (c *Client) CreateRepository(ctx context.Context, name string, private bool) (string, error) {
	log.Printf("Creating Gitea repository '%s'", name)
	body := map[string]any{
		"name":      name,
		"private":   private,
		"auto_init": false,
	}

	var resp struct {
		CloneURL string `json:"clone_url"`
	}
	status, err := c.do(ctx, http.MethodPost, "/user/repos", body, &resp)
	if err != nil {
		return "", err
	}
	if status == http.StatusConflict {
		return "", apperr.External(serviceName, fmt.Sprintf("repository '%s' already exists", name), nil)
	}
	if status < 200 || status >= 300 || resp.CloneURL == "" {
		return "", apperr.External(serviceName, fmt.Sprintf("failed to create repository '%s' (status %d)", name, status), nil)
	}
	return resp.CloneURL, nil
}

// DeleteRepository removes a repository. A missing repository is not an
// error; callers treat deletion as best-effort cleanup.
func (c *Client) DeleteRepository(ctx context.Context, owner, repo string) error {
	status, err := c.do(ctx, http.MethodDelete, "/repos/"+url.PathEscape(owner)+"/"+url.PathEscape(repo), nil, nil)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		log.Printf("Gitea repository '%s/%s' not found, skipping deletion", owner, repo)
		return nil
	}
	if status < 200 || status >= 300 {
		return apperr.External(serviceName, fmt.Sprintf("failed to delete repository '%s/%s' (status %d)", owner, repo, status), nil)
	}
	return nil
}

// DeleteAdminRepository removes a repository owned by the admin account.
func (c *Client) DeleteAdminRepository(ctx context.Context, repo string) error {
	return c.DeleteRepository(ctx, c.adminUsername, repo)
}

// ListContents returns a directory listing. A missing path yields an
// empty listing rather than an error.
func (c *Client) ListContents(ctx context.Context, owner, repo, path string) ([]ContentEntry, error) {
	var entries []ContentEntry
	status, err := c.do(ctx, http.MethodGet, contentsPath(owner, repo, path), nil, &entries)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status < 200 || status >= 300 {
		return nil, apperr.External(serviceName, fmt.Sprintf("failed to list contents of %s/%s/%s (status %d)", owner, repo, path, status), nil)
	}
	return entries, nil
}

// GetFileContent fetches one file and returns its decoded content. The
// second return value is false when the file does not exist.
func (c *Client) GetFileContent(ctx context.Context, owner, repo, path string) (string, bool, error) {
	var entry ContentEntry
	status, err := c.do(ctx, http.MethodGet, contentsPath(owner, repo, path), nil, &entry)
	if err != nil {
		return "", false, err
	}
	if status == http.StatusNotFound {
		return "", false, nil
	}
	if status < 200 || status >= 300 {
		return "", false, apperr.External(serviceName, fmt.Sprintf("failed to get file %s/%s/%s (status %d)", owner, repo, path, status), nil)
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(entry.Content, "\n", ""))
	if err != nil {
		return "", false, apperr.External(serviceName, fmt.Sprintf("invalid base64 content for %s/%s/%s", owner, repo, path), err)
	}
	return string(decoded), true, nil
}

// UploadFile creates or updates a file. Updates need the current blob
// SHA, so an existing file is looked up first and its SHA included.
func (c *Client) UploadFile(ctx context.Context, owner, repo, path, content string) error {
	body := map[string]any{
		"content": base64.StdEncoding.EncodeToString([]byte(content)),
		"message": "Update " + path,
	}

	sha, exists, err := c.fileSHA(ctx, owner, repo, path)
	if err != nil {
		return err
	}

	method := http.MethodPost
	if exists {
		method = http.MethodPut
		body["sha"] = sha
	}

	status, err := c.do(ctx, method, contentsPath(owner, repo, path), body, nil)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return apperr.External(serviceName, fmt.Sprintf("failed to upload file %s/%s/%s (status %d)", owner, repo, path, status), nil)
	}
	return nil
}

func (c *Client) fileSHA(ctx context.Context, owner, repo, path string) (string, bool, error) {
	var entry ContentEntry
	status, err := c.do(ctx, http.MethodGet, contentsPath(owner, repo, path), nil, &entry)
	if err != nil {
		return "", false, err
	}
	if status == http.StatusNotFound {
		return "", false, nil
	}
	if status < 200 || status >= 300 {
		return "", false, apperr.External(serviceName, fmt.Sprintf("failed to stat file %s/%s/%s (status %d)", owner, repo, path, status), nil)
	}
	return entry.SHA, true, nil
}

// CopyRepositoryContents copies every file from the source repository
// into the admin-owned target repository. Directories are traversed via
// an explicit worklist, so arbitrarily deep template trees cannot blow
// the call stack.
func (c *Client) CopyRepositoryContents(ctx context.Context, sourceOwner, sourceRepo, targetRepo string) error {
	log.Printf("Copying contents from %s/%s to admin's %s", sourceOwner, sourceRepo, targetRepo)

	dirs := []string{""}
	for len(dirs) > 0 {
		dir := dirs[len(dirs)-1]
		dirs = dirs[:len(dirs)-1]

		entries, err := c.ListContents(ctx, sourceOwner, sourceRepo, dir)
		if err != nil {
			return apperr.External(serviceName, fmt.Sprintf("failed to copy repository contents from %s/%s", sourceOwner, sourceRepo), err)
		}
		for _, entry := range entries {
			switch entry.Type {
			case "file":
				content, ok, err := c.GetFileContent(ctx, sourceOwner, sourceRepo, entry.Path)
				if err != nil {
					return err
				}
				if !ok {
					log.Printf("File vanished during copy: %s/%s/%s", sourceOwner, sourceRepo, entry.Path)
					continue
				}
				if err := c.UploadFile(ctx, c.adminUsername, targetRepo, entry.Path, content); err != nil {
					return err
				}
			case "dir":
				dirs = append(dirs, entry.Path)
			}
		}
	}
	return nil
}

// AddCollaborator grants a user the given permission ("read", "write"
// or "admin") on an admin-owned repository.
func (c *Client) AddCollaborator(ctx context.Context, repo, username, permission string) error {
	body := map[string]any{"permission": permission}
	path := "/repos/" + url.PathEscape(c.adminUsername) + "/" + url.PathEscape(repo) + "/collaborators/" + url.PathEscape(username)
	status, err := c.do(ctx, http.MethodPut, path, body, nil)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return apperr.External(serviceName, fmt.Sprintf("failed to add collaborator '%s' to '%s' (status %d)", username, repo, status), nil)
	}
	return nil
}

// CreateMissionRepository provisions a private repository named repoName
// from the template matching templateLanguage, and grants collaborator
// write access to the mission owner's Gitea account.
func (c *Client) CreateMissionRepository(ctx context.Context, repoName, templateLanguage, ownerUsername string) (string, error) {
	template, ok := c.templates[strings.ToLower(templateLanguage)]
	if !ok {
		return "", apperr.BadRequest("unsupported template language: " + templateLanguage)
	}

	cloneURL, err := c.CreateRepository(ctx, repoName, true)
	if err != nil {
		return "", err
	}
	if err := c.CopyRepositoryContents(ctx, template.Owner, template.Repo, repoName); err != nil {
		return "", err
	}
	if err := c.AddCollaborator(ctx, repoName, ownerUsername, "write"); err != nil {
		return "", err
	}
	log.Printf("Mission repository '%s' created from '%s' template", repoName, templateLanguage)
	return cloneURL, nil
}

// RepoNameFromURL extracts the repository name from a clone URL,
// e.g. "http://gitea:3000/admin/abc123.git" -> "abc123".
func RepoNameFromURL(cloneURL string) string {
	if cloneURL == "" {
		return ""
	}
	name := cloneURL[strings.LastIndex(cloneURL, "/")+1:]
	return strings.TrimSuffix(name, ".git")
}

func contentsPath(owner, repo, path string) string {
	p := "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo) + "/contents"
	if path != "" {
		for _, segment := range strings.Split(path, "/") {
			p += "/" + url.PathEscape(segment)
		}
	}
	return p
}

// do performs one API call. Transport failures become External errors;
// HTTP error statuses are returned to the caller to classify, since 404
// is an expected answer for several operations.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, apperr.External(serviceName, "failed to encode request body", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, apperr.External(serviceName, "failed to build request", err)
	}
	req.Header.Set("Authorization", c.authHeader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, apperr.External(serviceName, "request failed: "+method+" "+path, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return resp.StatusCode, apperr.External(serviceName, "failed to decode response for "+path, err)
		}
	}
	return resp.StatusCode, nil
}
