package postgresql

import (
	"fmt"
	"reflect"
)

// stubRow copies values into Scan destinations positionally. A nil value
// leaves the destination at its zero value.
type stubRow struct {
	values []interface{}
	err    error
}

func (s stubRow) Scan(dest ...interface{}) error {
	if s.err != nil {
		return s.err
	}
	if len(dest) != len(s.values) {
		return fmt.Errorf("scan: got %d destinations, have %d values", len(dest), len(s.values))
	}
	for i, d := range dest {
		if s.values[i] == nil {
			continue
		}
		target := reflect.ValueOf(d).Elem()
		value := reflect.ValueOf(s.values[i])
		if !value.Type().AssignableTo(target.Type()) {
			return fmt.Errorf("scan: column %d: cannot assign %s to %s", i, value.Type(), target.Type())
		}
		target.Set(value)
	}
	return nil
}
