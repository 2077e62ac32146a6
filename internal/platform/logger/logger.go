// Package logger builds the service-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	zpkgerrors "github.com/rs/zerolog/pkgerrors"
)

// New returns the JSON logger every tabwatch binary starts from. Duration
// fields are logged in milliseconds, the unit all timing totals use, and
// error events carry a pkg/errors stack when .Stack() is requested.
func New(serviceName string) zerolog.Logger {
	return newLogger(os.Stdout, serviceName)
}

func newLogger(w io.Writer, serviceName string) zerolog.Logger {
	zerolog.DurationFieldUnit = time.Millisecond

	// Errors without a pkg/errors stack get one attached at the logging
	// boundary so .Stack() renders something useful for std errors too.
	zerolog.ErrorStackMarshaler = func(err error) interface{} {
		type stackTracer interface{ StackTrace() pkgerrors.StackTrace }
		if _, ok := err.(stackTracer); !ok {
			err = pkgerrors.WithStack(err)
		}
		return zpkgerrors.MarshalStack(err)
	}
	zerolog.ErrorMarshalFunc = func(err error) interface{} {
		type stackTracer interface{ StackTrace() pkgerrors.StackTrace }
		if _, ok := err.(stackTracer); ok {
			return err
		}
		return pkgerrors.WithStack(err)
	}

	return zerolog.New(w).With().
		Str("service", serviceName).
		Timestamp().
		Logger()
}
