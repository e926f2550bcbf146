package sink

import "github.com/rotisserie/eris"

// ErrNotListable is returned when no configured sink can list entries.
var ErrNotListable = eris.New("sink: no listable sink configured")

// Drivers accepted by Open.
const (
	DriverXLSX     = "xlsx"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverLog      = "log"
)

// ValidDriver reports whether name is a known sink driver.
func ValidDriver(name string) bool {
	switch name {
	case DriverXLSX, DriverSQLite, DriverPostgres, DriverLog:
		return true
	}
	return false
}
