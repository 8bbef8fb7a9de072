package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/GriffinCanCode/browser-gateway/internal/domain/credential"
	"github.com/GriffinCanCode/browser-gateway/internal/shared/utils"
)

// AuthRequest is the body of /auth.
type AuthRequest struct {
	Type             string `json:"type"`
	PasswordSelector string `json:"passwordSelector"`
	SubmitSelector   string `json:"submitSelector"`
	Password         string `json:"password"`
}

// AuthResult is a completed password submission.
type AuthResult struct {
	Requires2FA        bool
	ShouldSavePassword bool
	EnvVarName         string
	Message            string
	URL                string
}

// Auth resolves the secret for the auth type and submits it on the current
// page. When no secret is available the error carries the env var name the
// caller should supply.
func (g *Gateway) Auth(ctx context.Context, req AuthRequest) (*AuthResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	detail := map[string]any{
		"type":             req.Type,
		"passwordSelector": req.PasswordSelector,
	}
	if req.Type == "" {
		return nil, g.finish("auth", detail, validationError("Auth type is required"))
	}
	if err := utils.ValidateAuthType(req.Type); err != nil {
		return nil, g.finish("auth", detail, invalid(err))
	}
	if err := utils.ValidateSelector(req.PasswordSelector, "passwordSelector", false); err != nil {
		return nil, g.finish("auth", detail, invalid(err))
	}
	if err := utils.ValidateSelector(req.SubmitSelector, "submitSelector", false); err != nil {
		return nil, g.finish("auth", detail, invalid(err))
	}
	if err := utils.ValidateSecret(req.Password, "password", false); err != nil {
		return nil, g.finish("auth", detail, invalid(err))
	}

	page, err := g.session.Page()
	if err != nil {
		return nil, g.finish("auth", detail, err)
	}

	binding, err := g.handshake.Resolve(req.Type, req.Password)
	if err != nil {
		detail["envVarName"] = g.handshake.EnvVarName(req.Type)
		return nil, g.finish("auth", detail, err)
	}
	detail["envVarName"] = binding.EnvVarName
	detail["fromCaller"] = binding.FromCaller

	res, err := g.handshake.Submit(ctx, page, binding, credential.AuthRequest{
		Type:             req.Type,
		PasswordSelector: req.PasswordSelector,
		SubmitSelector:   req.SubmitSelector,
	})
	if err != nil {
		return nil, g.finish("auth", detail, err)
	}

	detail["passwordSelector"] = res.PasswordSelector
	detail["submitted"] = res.Submitted
	detail["requires2FA"] = res.Requires2FA
	if err := g.finish("auth", detail, nil); err != nil {
		return nil, err
	}

	if res.Requires2FA {
		if err := g.finish("auth_2fa_detected", map[string]any{"type": req.Type, "url": res.URL}, nil); err != nil {
			return nil, err
		}
	}

	return &AuthResult{
		Requires2FA:        res.Requires2FA,
		ShouldSavePassword: res.ShouldSavePassword(),
		EnvVarName:         binding.EnvVarName,
		Message:            res.Message,
		URL:                res.URL,
	}, nil
}

// WaitFor2FARequest is the body of /auth/wait-2fa. Timeout is in
// milliseconds.
type WaitFor2FARequest struct {
	Timeout            int    `json:"timeout"`
	ExpectedURLPattern string `json:"expectedUrlPattern"`
}

// WaitFor2FAResult reports whether the second factor completed.
type WaitFor2FAResult struct {
	Completed bool
	URL       string
	Message   string
	Elapsed   time.Duration
}

// WaitFor2FA polls the page until the operator finishes the second factor
// or the timeout passes. A timeout is a result, not an error.
func (g *Gateway) WaitFor2FA(ctx context.Context, req WaitFor2FARequest) (*WaitFor2FAResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	timeout := credential.ClampTwoFactorTimeout(time.Duration(req.Timeout) * time.Millisecond)
	detail := map[string]any{"timeoutMs": timeout.Milliseconds()}
	if req.ExpectedURLPattern != "" {
		detail["expectedUrlPattern"] = req.ExpectedURLPattern
	}

	if err := utils.ValidateString(req.ExpectedURLPattern, "expectedUrlPattern", 0, utils.MaxPatternLength, false); err != nil {
		return nil, g.finish("auth_2fa_wait", detail, invalid(err))
	}
	expected, err := credential.CompilePattern(req.ExpectedURLPattern)
	if err != nil {
		return nil, g.finish("auth_2fa_wait", detail, err)
	}

	page, err := g.session.Page()
	if err != nil {
		return nil, g.finish("auth_2fa_wait", detail, err)
	}

	res, err := g.handshake.WaitFor2FA(ctx, page, timeout, expected)
	if err != nil {
		return nil, g.finish("auth_2fa_wait", detail, err)
	}

	detail["url"] = res.URL
	detail["elapsedMs"] = res.Elapsed.Milliseconds()
	op := "auth_2fa_timeout"
	if res.Completed {
		op = "auth_2fa_completed"
	}
	if err := g.finish(op, detail, nil); err != nil {
		return nil, err
	}

	return &WaitFor2FAResult{
		Completed: res.Completed,
		URL:       res.URL,
		Message:   res.Message,
		Elapsed:   res.Elapsed,
	}, nil
}

// SaveRequest is the body of /auth/save.
type SaveRequest struct {
	EnvVarName string `json:"envVarName"`
	Password   string `json:"password"`
}

// SavePassword persists a secret to the env file and the process
// environment. It needs no browser.
func (g *Gateway) SavePassword(ctx context.Context, req SaveRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	detail := map[string]any{"envVarName": req.EnvVarName}
	if req.EnvVarName == "" || req.Password == "" {
		return "", g.finish("auth_save", detail, validationError("envVarName and password are required"))
	}
	if err := ctx.Err(); err != nil {
		return "", g.finish("auth_save", detail, err)
	}

	if err := g.handshake.Save(req.EnvVarName, req.Password); err != nil {
		return "", g.finish("auth_save", detail, err)
	}
	if err := g.finish("auth_save", detail, nil); err != nil {
		return "", err
	}
	return fmt.Sprintf("Password saved to .env as %s", req.EnvVarName), nil
}
