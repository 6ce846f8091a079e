package synapse

import (
	"regexp"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/pkg/errors"
)

// ErrTableNotFound is returned by ListColumns when the table does not exist
// in the requested schema.
var ErrTableNotFound = errors.New("table not found")

var (
	// e.g. SQLSTATE[42000]: [Microsoft][ODBC Driver 17 for SQL Server][SQL Server]
	odbcPrefix = regexp.MustCompile(`(?i)^SQLSTATE\[.+\[SQL Server\]`)

	driverPrefix = "mssql: "
)

// CleanMessage returns the root-cause message of err without driver
// decoration. Server errors yield the message reported by the warehouse;
// anything else yields the message of the innermost wrapped error.
//
// Example:
//
//	_, err := client.Exec(ctx, "SELECT * INTO t FROM missing")
//	synapse.CleanMessage(err) // Invalid object name 'missing'.
func CleanMessage(err error) string {
	if err == nil {
		return ""
	}

	msg := errors.Cause(err).Error()

	var serverErr mssql.Error
	var serverErrPtr *mssql.Error
	switch {
	case errors.As(err, &serverErr):
		msg = serverErr.Message
	case errors.As(err, &serverErrPtr) && serverErrPtr != nil:
		msg = serverErrPtr.Message
	}

	msg = strings.TrimSpace(msg)
	msg = strings.TrimPrefix(msg, driverPrefix)
	msg = odbcPrefix.ReplaceAllString(msg, "")

	return strings.TrimSpace(msg)
}
