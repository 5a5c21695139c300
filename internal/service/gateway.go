package service

import (
	"context"

	"backend/internal/gitea"
)

// GiteaGateway is the slice of the Gitea client the services depend on.
// *gitea.Client satisfies it; tests substitute a stub.
type GiteaGateway interface {
	AdminUsername() string
	CreateUser(ctx context.Context, username, email, password string) (int64, error)
	DeleteUser(ctx context.Context, username string) error
	CreateRepository(ctx context.Context, name string, private bool) (string, error)
	DeleteAdminRepository(ctx context.Context, repo string) error
	CreateMissionRepository(ctx context.Context, repoName, templateLanguage, ownerUsername string) (string, error)
	CopyRepositoryContents(ctx context.Context, sourceOwner, sourceRepo, targetRepo string) error
	AddCollaborator(ctx context.Context, repo, username, permission string) error
	UploadFile(ctx context.Context, owner, repo, path, content string) error
	ListContents(ctx context.Context, owner, repo, path string) ([]gitea.ContentEntry, error)
	GetFileContent(ctx context.Context, owner, repo, path string) (string, bool, error)
}
