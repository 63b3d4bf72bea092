package upstream

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/branchledger/dashboard/internal/core/domain"
)

// IdentityClient talks to the identity service.
type IdentityClient struct {
	*client
}

func NewIdentityClient(baseURL string, timeout time.Duration, log zerolog.Logger) (*IdentityClient, error) {
	c, err := newClient("identity", baseURL, timeout, log)
	if err != nil {
		return nil, err
	}
	return &IdentityClient{client: c}, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	BranchID int    `json:"branch_id"`
}

// updateUserRequest only carries the fields the operator filled in.
type updateUserRequest struct {
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role,omitempty"`
	BranchID *int   `json:"branch_id,omitempty"`
}

// Login posts the credentials and returns the access token.
func (c *IdentityClient) Login(ctx context.Context, email, password string) (string, error) {
	var out tokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/login", "", nil, loginRequest{Email: email, Password: password}, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("%w: login response carried no access token", domain.ErrAuthRequired)
	}
	return out.AccessToken, nil
}

// Me resolves the operator behind token.
func (c *IdentityClient) Me(ctx context.Context, token string) (domain.Identity, error) {
	var out domain.Identity
	if err := c.doJSON(ctx, http.MethodGet, "/users/me", token, nil, nil, &out); err != nil {
		return domain.Identity{}, err
	}
	out.Role = domain.NormalizeRole(string(out.Role))
	return out, nil
}

func (c *IdentityClient) ListUsers(ctx context.Context, token string) ([]domain.User, error) {
	var out []domain.User
	if err := c.doJSON(ctx, http.MethodGet, "/users", token, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *IdentityClient) CreateUser(ctx context.Context, token string, in domain.UserInput) (domain.User, error) {
	req := createUserRequest{Email: in.Email, Password: in.Password, Role: string(in.Role)}
	if in.BranchID != nil {
		req.BranchID = *in.BranchID
	}
	var out domain.User
	if err := c.doJSON(ctx, http.MethodPost, "/users", token, nil, req, &out); err != nil {
		return domain.User{}, err
	}
	return out, nil
}

// UpdateUser sends a partial update for in.ID.
func (c *IdentityClient) UpdateUser(ctx context.Context, token string, in domain.UserInput) (domain.User, error) {
	req := updateUserRequest{
		Email:    in.Email,
		Password: in.Password,
		Role:     string(in.Role),
		BranchID: in.BranchID,
	}
	var out domain.User
	if err := c.doJSON(ctx, http.MethodPut, "/users/"+strconv.Itoa(in.ID), token, nil, req, &out); err != nil {
		return domain.User{}, err
	}
	return out, nil
}

func (c *IdentityClient) DeleteUser(ctx context.Context, token string, id int) error {
	return c.doJSON(ctx, http.MethodDelete, "/users/"+strconv.Itoa(id), token, nil, nil, nil)
}
