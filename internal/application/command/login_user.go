package command

import (
	"context"
	"fmt"

	"github.com/schoolhub/school-hub/internal/domain/shared"
	"github.com/schoolhub/school-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOGIN USER COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// LoginUserCommand contains the credentials.
type LoginUserCommand struct {
	Email    string
	Password string
}

// LoginUserResult contains the issued bearer token.
type LoginUserResult struct {
	Token  string `json:"token"`
	Role   string `json:"role"`
	UserID string `json:"userId"`
}

// TokenIssuer issues bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID string, role user.Role) (string, error)
}

// LoginUserHandler handles login.
type LoginUserHandler struct {
	users  user.Repository
	hasher PasswordHasher
	tokens TokenIssuer
}

// NewLoginUserHandler creates a new handler.
func NewLoginUserHandler(users user.Repository, hasher PasswordHasher, tokens TokenIssuer) *LoginUserHandler {
	return &LoginUserHandler{users: users, hasher: hasher, tokens: tokens}
}

// Handle verifies credentials and issues a token.
// Unknown email and wrong password both return ErrInvalidCredentials.
func (h *LoginUserHandler) Handle(ctx context.Context, cmd LoginUserCommand) (*LoginUserResult, error) {
	u, err := h.users.GetByEmail(ctx, user.NormalizeEmail(cmd.Email))
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := h.hasher.Compare(u.PasswordHash, cmd.Password); err != nil {
		return nil, shared.ErrInvalidCredentials
	}

	token, err := h.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, fmt.Errorf("login: issue token: %w", err)
	}

	return &LoginUserResult{Token: token, Role: u.Role.String(), UserID: u.ID}, nil
}
