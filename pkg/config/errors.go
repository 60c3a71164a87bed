package config

import "fmt"

// Error reports a failed config operation.
type Error struct {
	Op  string // read, unmarshal, validate, marshal, write
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s error: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
