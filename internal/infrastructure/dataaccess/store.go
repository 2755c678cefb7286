// Package dataaccess owns every call to the external persistence service.
// It maps wire shapes to domain entities and normalizes failures into
// *shared.AccessError so call sites can choose their own degradation.
package dataaccess

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/finsite/backend/internal/domain/shared"
	"github.com/finsite/backend/internal/infrastructure/logger"
	"github.com/finsite/backend/internal/infrastructure/restclient"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Doer is the transport the store sends requests through
type Doer interface {
	Do(ctx context.Context, req restclient.Request) (*restclient.Response, error)
}

// Store is the persistence service client
type Store struct {
	client Doer
	logger *zap.Logger
	token  string
}

// New creates a Store
func New(client Doer, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		client: client,
		logger: logger.Named("dataaccess"),
	}
}

// WithToken returns a copy of the store that sends token as a bearer credential
func (s *Store) WithToken(token string) *Store {
	cp := *s
	cp.token = token
	return &cp
}

// call executes req and converts transport failures and non-2xx statuses into AccessErrors
func (s *Store) call(ctx context.Context, op string, req restclient.Request) (*restclient.Response, error) {
	if req.Token == "" {
		req.Token = s.token
	}
	resp, err := s.client.Do(ctx, req)
	if err != nil {
		var accessErr *shared.AccessError
		if errors.Is(err, restclient.ErrMarshal) {
			accessErr = &shared.AccessError{Op: op, Kind: shared.KindUnknown, Message: "could not encode request", Err: err}
		} else {
			accessErr = shared.NewTransportError(op, err)
		}
		return nil, s.fail(ctx, accessErr)
	}
	if !resp.IsSuccess() {
		return nil, s.fail(ctx, shared.NewStatusError(op, resp.StatusCode, resp.ErrorMessage()))
	}
	return resp, nil
}

func (s *Store) fail(ctx context.Context, err *shared.AccessError) error {
	logger.WithLogger(ctx, s.logger).Warn("Persistence call failed", logger.ErrorFields(err)...)
	return err
}

func (s *Store) decodeFailure(ctx context.Context, op string, status int, err error) error {
	return s.fail(ctx, shared.NewDecodeError(op, status, err))
}

// titleCase normalizes enum-like strings from the wire ("real estate" -> "Real Estate").
// A Caser is not safe for concurrent use, so each call builds its own.
func titleCase(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return v
	}
	return cases.Title(language.English).String(v)
}

// decodeList accepts either a bare array or {"data": [...]}
func decodeList[W any](body []byte) ([]W, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var items []W
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
	var wrapped struct {
		Data []W `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Data, nil
}

// decodeOne accepts either a bare object or {"data": {...}}. ok is false for an empty body.
func decodeOne[W any](body []byte) (w W, ok bool, err error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return w, false, nil
	}
	var wrapped struct {
		Data *W `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err == nil && wrapped.Data != nil {
		return *wrapped.Data, true, nil
	}
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return w, false, err
	}
	return w, true, nil
}
