package command

import (
	"context"
	"fmt"

	"github.com/schoolhub/school-hub/internal/domain/shared"
	"github.com/schoolhub/school-hub/internal/domain/user"
	"github.com/schoolhub/school-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER USER COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// RegisterUserCommand contains the account data.
type RegisterUserCommand struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// RegisterUserHandler handles account registration.
type RegisterUserHandler struct {
	users  user.Repository
	hasher PasswordHasher
	ids    IDGenerator
	clock  timeutil.Clock
}

// NewRegisterUserHandler creates a new handler.
func NewRegisterUserHandler(users user.Repository, hasher PasswordHasher, ids IDGenerator, clock timeutil.Clock) *RegisterUserHandler {
	if clock == nil {
		clock = timeutil.SystemClock{}
	}
	return &RegisterUserHandler{users: users, hasher: hasher, ids: ids, clock: clock}
}

// Handle registers the user. Returns ErrUserAlreadyExists for a taken email.
func (h *RegisterUserHandler) Handle(ctx context.Context, cmd RegisterUserCommand) (*user.User, error) {
	if len(cmd.Password) < MinPasswordLength {
		return nil, shared.Validationf("command", "RegisterUser", "password must be at least %d characters", MinPasswordLength)
	}
	if _, err := user.ParseRole(cmd.Role); err != nil {
		return nil, err
	}

	hash, err := h.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("register user: hash password: %w", err)
	}

	u, err := user.NewUser(user.NewUserParams{
		ID:           h.ids.GenerateID(),
		Name:         cmd.Name,
		Email:        cmd.Email,
		PasswordHash: hash,
		Role:         cmd.Role,
		Now:          h.clock.Now(),
	})
	if err != nil {
		return nil, err
	}

	if err := h.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
