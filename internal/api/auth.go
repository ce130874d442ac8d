package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type SignupRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	Name           string `json:"name"`
	SecurityAnswer string `json:"security_answer"`
}

type PasswordReset struct {
	Email          string `json:"email"`
	SecurityAnswer string `json:"security_answer"`
	NewPassword    string `json:"new_password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

var ErrEmptyToken = errors.New("backend returned an empty token")

func (c *Client) Signup(ctx context.Context, req SignupRequest) (string, error) {
	var msg string
	if err := c.do(ctx, http.MethodPost, "/api/signup", "", req, &msg); err != nil {
		return "", err
	}
	return msg, nil
}

// Login exchanges email and password for a credential.
func (c *Client) Login(ctx context.Context, email, password string) (Credential, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/api/login", "", loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(resp.Token)
	if token == "" {
		return "", ErrEmptyToken
	}
	return Credential(token), nil
}

func (c *Client) Logout(ctx context.Context, cred Credential) error {
	return c.doAuth(ctx, http.MethodPost, "/api/logout", cred, nil, nil)
}

func (c *Client) ForgotPassword(ctx context.Context, req PasswordReset) (string, error) {
	var msg string
	if err := c.do(ctx, http.MethodPost, "/api/forgot-password", "", req, &msg); err != nil {
		return "", err
	}
	return msg, nil
}
