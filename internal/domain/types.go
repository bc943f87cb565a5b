package domain

import (
	"database/sql/driver"

	"github.com/lib/pq"
)

// StringList maps a Postgres text[] column onto a plain string slice.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	return pq.StringArray(l).Value()
}

func (l *StringList) Scan(src interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	*l = StringList(arr)
	return nil
}
