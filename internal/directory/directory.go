// Package directory owns admin accounts and role assignment. All mutations
// and listing are gated on the caller holding the super_admin role, and the
// bootstrap "admin" account can never be deleted or demoted.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"biometric-device-console/internal/storage"
)

// BootstrapUsername is the distinguished seed account.
const BootstrapUsername = "admin"

var (
	ErrForbidden          = errors.New("forbidden")
	ErrInvariantViolation = errors.New("operation violates account protection")
	ErrUnauthorized       = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation failed")
)

// Caller is a resolved authenticated identity. Role-gated operations take
// it explicitly; nothing in this package reads ambient session state.
type Caller struct {
	Username string       `json:"username"`
	Role     storage.Role `json:"role"`
}

type Directory struct {
	store  storage.Provider
	logger *slog.Logger

	now func() time.Time
}

func New(store storage.Provider) *Directory {
	return &Directory{
		store:  store,
		logger: slog.With("component", "directory"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func requireSuperAdmin(caller Caller) error {
	if caller.Role != storage.RoleSuperAdmin {
		return fmt.Errorf("%w: %s is not super_admin", ErrForbidden, caller.Username)
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// List returns all admin accounts. Credential material never leaves the
// directory: the PasswordHash field is cleared before return.
func (d *Directory) List(ctx context.Context, caller Caller) ([]storage.AdminUser, error) {
	if err := requireSuperAdmin(caller); err != nil {
		return nil, err
	}
	users, err := d.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (d *Directory) Create(ctx context.Context, caller Caller, username string, role storage.Role, password string) (*storage.AdminUser, error) {
	if err := requireSuperAdmin(caller); err != nil {
		return nil, err
	}
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrValidation)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: invalid role %q", ErrValidation, role)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := storage.AdminUser{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    d.now(),
	}

	audit := storage.AdminUserLog{
		Username:      username,
		ChangeType:    storage.ChangeCreate,
		ChangeDetails: fmt.Sprintf("Account created with role %s", role),
		Timestamp:     user.CreatedAt,
		AdminUser:     caller.Username,
	}

	id, err := d.store.CreateUser(ctx, user, audit)
	if err != nil {
		return nil, err
	}
	user.ID = id
	user.PasswordHash = ""

	d.logger.Info("Admin account created", "username", username, "role", role, "actor", caller.Username)
	return &user, nil
}

// UpdateRequest carries the optional fields of an account update. Nil
// fields are left unchanged, not cleared.
type UpdateRequest struct {
	Role     *storage.Role
	Password *string
}

func (d *Directory) Update(ctx context.Context, caller Caller, id int64, req UpdateRequest) error {
	if err := requireSuperAdmin(caller); err != nil {
		return err
	}

	user, err := d.store.GetUser(ctx, id)
	if err != nil {
		return err
	}

	var changed []string
	if req.Role != nil && *req.Role != user.Role {
		if !req.Role.Valid() {
			return fmt.Errorf("%w: invalid role %q", ErrValidation, *req.Role)
		}
		// The bootstrap account role is floored at super_admin.
		if user.Username == BootstrapUsername && *req.Role != storage.RoleSuperAdmin {
			return fmt.Errorf("%w: cannot demote the bootstrap account", ErrInvariantViolation)
		}
		user.Role = *req.Role
		changed = append(changed, fmt.Sprintf("role=%s", user.Role))
	}
	if req.Password != nil {
		if *req.Password == "" {
			return fmt.Errorf("%w: password must not be empty", ErrValidation)
		}
		hash, err := hashPassword(*req.Password)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
		changed = append(changed, "password")
	}

	if len(changed) == 0 {
		return nil
	}

	audit := storage.AdminUserLog{
		Username:      user.Username,
		ChangeType:    storage.ChangeUpdate,
		ChangeDetails: fmt.Sprintf("Account updated: %s", strings.Join(changed, ", ")),
		Timestamp:     d.now(),
		AdminUser:     caller.Username,
	}

	if err := d.store.UpdateUser(ctx, *user, audit); err != nil {
		return err
	}

	d.logger.Info("Admin account updated", "username", user.Username, "actor", caller.Username)
	return nil
}

func (d *Directory) Delete(ctx context.Context, caller Caller, id int64) error {
	if err := requireSuperAdmin(caller); err != nil {
		return err
	}

	user, err := d.store.GetUser(ctx, id)
	if err != nil {
		return err
	}

	if user.Username == BootstrapUsername {
		return fmt.Errorf("%w: the bootstrap account cannot be deleted", ErrInvariantViolation)
	}
	if user.Username == caller.Username {
		return fmt.Errorf("%w: accounts cannot delete themselves", ErrInvariantViolation)
	}

	audit := storage.AdminUserLog{
		Username:      user.Username,
		ChangeType:    storage.ChangeDelete,
		ChangeDetails: "Account deleted",
		Timestamp:     d.now(),
		AdminUser:     caller.Username,
	}

	if err := d.store.DeleteUser(ctx, id, audit); err != nil {
		return err
	}

	d.logger.Info("Admin account deleted", "username", user.Username, "actor", caller.Username)
	return nil
}

// Authenticate verifies a username/password pair and returns the resolved
// identity. Failures are indistinguishable between unknown user and wrong
// password.
func (d *Directory) Authenticate(ctx context.Context, username, password string) (*Caller, error) {
	user, err := d.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrUnauthorized
	}

	return &Caller{Username: user.Username, Role: user.Role}, nil
}

// Seed creates the bootstrap super_admin account when the directory is
// empty. Safe to call on every startup.
func (d *Directory) Seed(ctx context.Context, password string) error {
	count, err := d.store.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if password == "" {
		return fmt.Errorf("%w: bootstrap password is required for an empty directory", ErrValidation)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}

	user := storage.AdminUser{
		Username:     BootstrapUsername,
		PasswordHash: hash,
		Role:         storage.RoleSuperAdmin,
		CreatedAt:    d.now(),
	}
	audit := storage.AdminUserLog{
		Username:      BootstrapUsername,
		ChangeType:    storage.ChangeCreate,
		ChangeDetails: "Bootstrap account created",
		Timestamp:     user.CreatedAt,
		AdminUser:     "system",
	}

	if _, err := d.store.CreateUser(ctx, user, audit); err != nil {
		return err
	}

	d.logger.Info("Bootstrap account seeded", "username", BootstrapUsername)
	return nil
}

// Logs returns the audit history for an account, newest first.
func (d *Directory) Logs(ctx context.Context, caller Caller, username string) ([]storage.AdminUserLog, error) {
	if err := requireSuperAdmin(caller); err != nil {
		return nil, err
	}
	return d.store.ListUserLogs(ctx, username)
}
