package logger

import (
	"errors"

	"github.com/finsite/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrorFields returns the structured fields for err. Access errors are
// broken out into op, kind and status.
func ErrorFields(err error) []zap.Field {
	var accessErr *shared.AccessError
	if errors.As(err, &accessErr) {
		fields := []zap.Field{
			zap.String("op", accessErr.Op),
			zap.String("kind", string(accessErr.Kind)),
			zap.String("message", accessErr.Message),
		}
		if accessErr.StatusCode > 0 {
			fields = append(fields, zap.Int("status", accessErr.StatusCode))
		}
		if accessErr.Err != nil {
			fields = append(fields, zap.Error(accessErr.Err))
		}
		return fields
	}
	return []zap.Field{zap.Error(err)}
}
