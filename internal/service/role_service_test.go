package service

import (
	"context"
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memRoleRepo struct {
	roles map[uuid.UUID]*model.Role
	perms map[uuid.UUID]*model.Permission
}

func newMemRoleRepo() *memRoleRepo {
	return &memRoleRepo{
		roles: make(map[uuid.UUID]*model.Role),
		perms: make(map[uuid.UUID]*model.Permission),
	}
}

func (r *memRoleRepo) Create(_ context.Context, role *model.Role) error {
	if role.ID == uuid.Nil {
		role.ID = uuid.New()
	}
	cp := *role
	cp.Permissions = append([]model.Permission(nil), role.Permissions...)
	r.roles[role.ID] = &cp
	return nil
}

func (r *memRoleRepo) Update(_ context.Context, role *model.Role) error {
	if _, ok := r.roles[role.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *role
	cp.Permissions = append([]model.Permission(nil), role.Permissions...)
	r.roles[role.ID] = &cp
	return nil
}

func (r *memRoleRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.roles, id)
	return nil
}

func (r *memRoleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *role
	return &cp, nil
}

func (r *memRoleRepo) FindByIDWithPermissions(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	return r.FindByID(ctx, id)
}

func (r *memRoleRepo) FindByName(_ context.Context, name string) (*model.Role, error) {
	for _, role := range r.roles {
		if role.Name == name {
			cp := *role
			cp.Permissions = append([]model.Permission(nil), role.Permissions...)
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memRoleRepo) ListAll(_ context.Context) ([]model.Role, error) {
	out := make([]model.Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, *role)
	}
	return out, nil
}

func (r *memRoleRepo) ListPermissions(_ context.Context) ([]model.Permission, error) {
	out := make([]model.Permission, 0, len(r.perms))
	for _, p := range r.perms {
		out = append(out, *p)
	}
	return out, nil
}

func (r *memRoleRepo) FindPermissionsByIDs(_ context.Context, ids []uuid.UUID) ([]model.Permission, error) {
	var out []model.Permission
	for _, id := range ids {
		if p, ok := r.perms[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memRoleRepo) ReplacePermissions(_ context.Context, role *model.Role, perms []model.Permission) error {
	stored, ok := r.roles[role.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Permissions = append([]model.Permission(nil), perms...)
	return nil
}

func (r *memRoleRepo) ClearPermissions(ctx context.Context, role *model.Role) error {
	return r.ReplacePermissions(ctx, role, nil)
}

func (r *memRoleRepo) FindOrCreatePermission(_ context.Context, perm *model.Permission) error {
	for _, p := range r.perms {
		if p.Name == perm.Name {
			*perm = *p
			return nil
		}
	}
	if perm.ID == uuid.Nil {
		perm.ID = uuid.New()
	}
	cp := *perm
	r.perms[perm.ID] = &cp
	return nil
}

func permissionNames(role *model.Role) []string {
	names := make([]string, 0, len(role.Permissions))
	for _, p := range role.Permissions {
		names = append(names, p.Name)
	}
	return names
}

func TestSeedGrantsOneTokenPerCadetVerb(t *testing.T) {
	roles := newMemRoleRepo()
	svc := NewRoleService(roles, nil, &stubAudit{}, passTx{})

	require.NoError(t, svc.SeedDefaultRolesAndPermissions(context.Background()))

	admin, err := roles.FindByName(context.Background(), model.RoleAdmin)
	require.NoError(t, err)
	names := permissionNames(admin)
	for _, want := range []string{"cadet:read", "cadet:create", "cadet:edit", "cadet:delete"} {
		require.Contains(t, names, want)
	}
}

func TestSeedCadetRoleStaysMinimal(t *testing.T) {
	roles := newMemRoleRepo()
	svc := NewRoleService(roles, nil, &stubAudit{}, passTx{})

	require.NoError(t, svc.SeedDefaultRolesAndPermissions(context.Background()))

	cadet, err := roles.FindByName(context.Background(), model.RoleCadet)
	require.NoError(t, err)
	require.ElementsMatch(t,
		[]string{"mission:read", "mission:start", "starsystem:read"},
		permissionNames(cadet))
}

func TestSeedIsIdempotent(t *testing.T) {
	roles := newMemRoleRepo()
	svc := NewRoleService(roles, nil, &stubAudit{}, passTx{})

	require.NoError(t, svc.SeedDefaultRolesAndPermissions(context.Background()))
	firstPerms, err := roles.ListPermissions(context.Background())
	require.NoError(t, err)

	require.NoError(t, svc.SeedDefaultRolesAndPermissions(context.Background()))

	secondPerms, err := roles.ListPermissions(context.Background())
	require.NoError(t, err)
	require.Len(t, secondPerms, len(firstPerms))

	all, err := roles.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
}
