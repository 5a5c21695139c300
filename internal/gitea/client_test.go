package gitea

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"backend/pkg/apperr"

	"github.com/stretchr/testify/require"
)

// fakeGitea is a minimal in-memory stand-in for the Gitea REST API,
// covering just the endpoints the client uses.
type fakeGitea struct {
	t     *testing.T
	repos map[string]map[string]string // "owner/repo" -> path -> content (plain)
	users map[string]int64

	requests []string // "METHOD path" log for assertions
}

func newFakeGitea(t *testing.T) *fakeGitea {
	return &fakeGitea{
		t:     t,
		repos: make(map[string]map[string]string),
		users: map[string]int64{},
	}
}

func (f *fakeGitea) addRepo(owner, repo string, files map[string]string) {
	f.repos[owner+"/"+repo] = files
}

func (f *fakeGitea) countRequests(prefix string) int {
	n := 0
	for _, r := range f.requests {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeGitea) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/admin/users":
		var body struct {
			Username string `json:"username"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.users[body.Username] = int64(len(f.users) + 1)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": f.users[body.Username]})

	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/admin/users/"):
		username := strings.TrimPrefix(r.URL.Path, "/admin/users/")
		if _, ok := f.users[username]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		delete(f.users, username)
		w.WriteHeader(http.StatusNoContent)

	case r.Method == http.MethodPost && r.URL.Path == "/user/repos":
		var body struct {
			Name string `json:"name"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.addRepo("forge_admin", body.Name, map[string]string{})
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"clone_url": "http://gitea.local/forge_admin/" + body.Name + ".git",
		})

	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/repos/"):
		key := f.repoKey(r.URL.Path)
		if _, ok := f.repos[key]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		delete(f.repos, key)
		w.WriteHeader(http.StatusNoContent)

	case r.Method == http.MethodPut && strings.Contains(r.URL.Path, "/collaborators/"):
		w.WriteHeader(http.StatusNoContent)

	case strings.Contains(r.URL.Path, "/contents"):
		f.serveContents(w, r)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// repoKey extracts "owner/repo" from paths like /repos/owner/repo/...
func (f *fakeGitea) repoKey(path string) string {
	parts := strings.SplitN(strings.TrimPrefix(path, "/repos/"), "/", 3)
	return parts[0] + "/" + parts[1]
}

func (f *fakeGitea) serveContents(w http.ResponseWriter, r *http.Request) {
	key := f.repoKey(r.URL.Path)
	files, ok := f.repos[key]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	rest := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/repos/"), "/contents", 2)[1]
	filePath := strings.TrimPrefix(rest, "/")

	switch r.Method {
	case http.MethodGet:
		if content, ok := files[filePath]; ok {
			_ = json.NewEncoder(w).Encode(ContentEntry{
				Name:    filePath,
				Path:    filePath,
				Type:    "file",
				SHA:     "sha-" + filePath,
				Content: base64.StdEncoding.EncodeToString([]byte(content)),
			})
			return
		}
		// Directory listing: direct children of filePath.
		var entries []ContentEntry
		seen := map[string]bool{}
		for p := range files {
			if filePath != "" && !strings.HasPrefix(p, filePath+"/") {
				continue
			}
			rel := p
			if filePath != "" {
				rel = strings.TrimPrefix(p, filePath+"/")
			}
			if idx := strings.Index(rel, "/"); idx >= 0 {
				dir := rel[:idx]
				full := dir
				if filePath != "" {
					full = filePath + "/" + dir
				}
				if !seen[full] {
					seen[full] = true
					entries = append(entries, ContentEntry{Name: dir, Path: full, Type: "dir"})
				}
			} else {
				entries = append(entries, ContentEntry{Name: rel, Path: p, Type: "file", SHA: "sha-" + p})
			}
		}
		if filePath != "" && len(entries) == 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(entries)

	case http.MethodPost, http.MethodPut:
		var body struct {
			Content string `json:"content"`
			SHA     string `json:"sha"`
		}
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		_, exists := files[filePath]
		if r.Method == http.MethodPut {
			require.True(f.t, exists, "PUT for a file that does not exist: %s", filePath)
			require.Equal(f.t, "sha-"+filePath, body.SHA, "update must carry the current blob SHA")
		} else {
			require.False(f.t, exists, "POST for a file that already exists: %s", filePath)
		}
		decoded, err := base64.StdEncoding.DecodeString(body.Content)
		require.NoError(f.t, err)
		files[filePath] = string(decoded)
		w.WriteHeader(http.StatusCreated)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T, fake *fakeGitea) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:       srv.URL,
		AdminUsername: "forge_admin",
		AdminPassword: "secret",
		Templates: map[string]TemplateRepo{
			"javascript": {Owner: "forge_admin", Repo: "template-javascript"},
		},
	})
}

func TestUploadFileCreatesThenUpdates(t *testing.T) {
	fake := newFakeGitea(t)
	fake.addRepo("forge_admin", "m1", map[string]string{})
	client := newTestClient(t, fake)

	// New file: stat misses, upload goes out as POST without a SHA.
	require.NoError(t, client.UploadFile(context.Background(), "forge_admin", "m1", "README.md", "v1"))
	require.Equal(t, 1, fake.countRequests("POST /repos/forge_admin/m1/contents/README.md"))

	// Existing file: stat hits, upload goes out as PUT with the SHA.
	require.NoError(t, client.UploadFile(context.Background(), "forge_admin", "m1", "README.md", "v2"))
	require.Equal(t, 1, fake.countRequests("PUT /repos/forge_admin/m1/contents/README.md"))
	require.Equal(t, "v2", fake.repos["forge_admin/m1"]["README.md"])
}

func TestGetFileContentDecodesBase64(t *testing.T) {
	fake := newFakeGitea(t)
	fake.addRepo("forge_admin", "m1", map[string]string{"src/main.js": "console.log('launch')"})
	client := newTestClient(t, fake)

	content, ok, err := client.GetFileContent(context.Background(), "forge_admin", "m1", "src/main.js")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "console.log('launch')", content)

	_, ok, err = client.GetFileContent(context.Background(), "forge_admin", "m1", "missing.txt")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCopyRepositoryContentsWalksDirectories(t *testing.T) {
	fake := newFakeGitea(t)
	fake.addRepo("forge_admin", "template-javascript", map[string]string{
		"README.md":          "# Template",
		"src/main.js":        "main",
		"src/lib/helpers.js": "helpers",
	})
	fake.addRepo("forge_admin", "m1", map[string]string{})
	client := newTestClient(t, fake)

	require.NoError(t, client.CopyRepositoryContents(context.Background(), "forge_admin", "template-javascript", "m1"))

	require.Equal(t, map[string]string{
		"README.md":          "# Template",
		"src/main.js":        "main",
		"src/lib/helpers.js": "helpers",
	}, fake.repos["forge_admin/m1"])
}

func TestCreateMissionRepository(t *testing.T) {
	fake := newFakeGitea(t)
	fake.addRepo("forge_admin", "template-javascript", map[string]string{"README.md": "# Template"})
	client := newTestClient(t, fake)

	cloneURL, err := client.CreateMissionRepository(context.Background(), "mission-1", "JavaScript", "nova")
	require.NoError(t, err)
	require.Equal(t, "http://gitea.local/forge_admin/mission-1.git", cloneURL)
	require.Equal(t, "# Template", fake.repos["forge_admin/mission-1"]["README.md"])
	require.Equal(t, 1, fake.countRequests("PUT /repos/forge_admin/mission-1/collaborators/nova"))
}

func TestCreateMissionRepositoryUnknownTemplate(t *testing.T) {
	fake := newFakeGitea(t)
	client := newTestClient(t, fake)

	_, err := client.CreateMissionRepository(context.Background(), "mission-1", "cobol", "nova")
	require.True(t, apperr.IsKind(err, apperr.KindBadRequest))
	require.Empty(t, fake.requests, "no API call for an unsupported template")
}

func TestDeleteToleratesMissingTargets(t *testing.T) {
	fake := newFakeGitea(t)
	client := newTestClient(t, fake)

	require.NoError(t, client.DeleteUser(context.Background(), "ghost"))
	require.NoError(t, client.DeleteAdminRepository(context.Background(), "ghost-repo"))
}

func TestListContentsMissingRepoYieldsEmpty(t *testing.T) {
	fake := newFakeGitea(t)
	client := newTestClient(t, fake)

	entries, err := client.ListContents(context.Background(), "forge_admin", "nope", "")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestRepoNameFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"http://gitea:3000/admin/abc123.git", "abc123"},
		{"http://gitea:3000/admin/abc123", "abc123"},
		{"abc123.git", "abc123"},
		{"", ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, RepoNameFromURL(tt.url), tt.url)
	}
}
