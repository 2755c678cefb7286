package dataaccess

import (
	"context"
	"net/http"

	"github.com/finsite/backend/internal/domain/shared"
	"github.com/finsite/backend/internal/infrastructure/restclient"
)

// LoginResult is the outcome of a credential or second-factor step
type LoginResult struct {
	shared.WriteResult
	RequiresSecondFactor bool   `json:"requires2FA"`
	TempToken            string `json:"-"`
	AccessToken          string `json:"-"`
}

type loginResponse struct {
	Requires2FA bool   `json:"requires2FA"`
	TempToken   string `json:"tempToken"`
	AccessToken string `json:"accessToken"`
	Token       string `json:"token"`
	Message     string `json:"message"`
}

func (r loginResponse) accessToken() string {
	return firstNonEmpty(r.AccessToken, r.Token)
}

// Login submits staff credentials. The result is always populated; the
// service may answer with an access token or demand a second factor.
func (s *Store) Login(ctx context.Context, email, password string) (LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	lr, status, err := s.authCall(ctx, "auth.login", "/auth/login", body)
	if err != nil {
		return LoginResult{WriteResult: shared.ResultFromError(err, "")}, err
	}

	result := LoginResult{
		WriteResult:          shared.WriteResult{Success: true, Message: firstNonEmpty(lr.Message, "Login successful"), StatusCode: status},
		RequiresSecondFactor: lr.Requires2FA,
		TempToken:            lr.TempToken,
		AccessToken:          lr.accessToken(),
	}
	if !result.RequiresSecondFactor && result.AccessToken == "" {
		err := s.fail(ctx, &shared.AccessError{Op: "auth.login", Kind: shared.KindUnknown, StatusCode: status, Message: "login response carried no token"})
		return LoginResult{WriteResult: shared.ResultFromError(err, "")}, err
	}
	return result, nil
}

// VerifySecondFactor exchanges the temporary token and code for an access token
func (s *Store) VerifySecondFactor(ctx context.Context, tempToken, code string) (LoginResult, error) {
	body := map[string]string{"tempToken": tempToken, "code": code}
	lr, status, err := s.authCall(ctx, "auth.verify_2fa", "/auth/verify-2fa", body)
	if err != nil {
		return LoginResult{WriteResult: shared.ResultFromError(err, "")}, err
	}
	if lr.accessToken() == "" {
		err := s.fail(ctx, &shared.AccessError{Op: "auth.verify_2fa", Kind: shared.KindUnknown, StatusCode: status, Message: "verification response carried no token"})
		return LoginResult{WriteResult: shared.ResultFromError(err, "")}, err
	}
	return LoginResult{
		WriteResult: shared.WriteResult{Success: true, Message: firstNonEmpty(lr.Message, "Verified"), StatusCode: status},
		AccessToken: lr.accessToken(),
	}, nil
}

func (s *Store) authCall(ctx context.Context, op, path string, body any) (loginResponse, int, error) {
	var lr loginResponse
	resp, err := s.call(ctx, op, restclient.Request{Method: http.MethodPost, Path: path, Body: body})
	if err != nil {
		return lr, 0, err
	}
	if err := resp.Decode(&lr); err != nil {
		return lr, resp.StatusCode, s.decodeFailure(ctx, op, resp.StatusCode, err)
	}
	return lr, resp.StatusCode, nil
}
