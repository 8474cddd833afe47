package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/sadopc/techflow/internal/model"
)

var ErrNoToken = errors.New("login response carried no token")

// Register creates an account. It does not log the user in.
func (c *Client) Register(ctx context.Context, email, password, name string) (model.User, error) {
	var resp struct {
		model.User
		Nested *model.User `json:"user"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/auth/register", nil, credentials{Email: email, Password: password, Name: name}, &resp)
	if err != nil {
		return model.User{}, err
	}
	if resp.Nested != nil {
		return *resp.Nested, nil
	}
	return resp.User, nil
}

// Login authenticates and persists the token and user snapshot.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var resp LoginResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", nil, credentials{Email: email, Password: password}, &resp)
	if err != nil {
		return LoginResponse{}, err
	}
	if resp.Token == "" {
		return resp, ErrNoToken
	}
	if c.tokens != nil {
		if err := c.tokens.Save(resp.Token, resp.User); err != nil {
			return resp, err
		}
	}
	c.log.WithField("user", resp.User.Email).Info("logged in")
	return resp, nil
}

func (c *Client) Profile(ctx context.Context) (model.User, error) {
	var u model.User
	err := c.doJSON(ctx, http.MethodGet, "/auth/profile", nil, nil, &u)
	return u, err
}

// Logout only forgets the local session; the backend keeps no session state.
func (c *Client) Logout() error {
	if c.tokens == nil {
		return nil
	}
	return c.tokens.Clear()
}
