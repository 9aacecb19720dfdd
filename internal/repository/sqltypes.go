package repository

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/lib/pq"
)

// jsonbArg marshals any value into a JSONB parameter
type jsonbArg struct {
	v interface{}
}

// Value implements driver.Valuer
func (a jsonbArg) Value() (driver.Value, error) {
	if a.v == nil {
		return nil, nil
	}
	return json.Marshal(a.v)
}

// int64Array adapts a Go slice to a Postgres bigint[] parameter
func int64Array(ids []int64) interface{} {
	return pq.Array(ids)
}
