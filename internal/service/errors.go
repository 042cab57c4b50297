package service

import (
	"database/sql"
	"database/sql/driver"
	"ecole_backend/internal/util"
	"errors"
	"fmt"
	"net"
)

// dbError marks connectivity failures as ErrDatabaseUnavailable and passes
// every other error through.
func dbError(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", util.ErrDatabaseUnavailable, err)
	}
	return err
}
