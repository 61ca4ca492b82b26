package base

import (
	"errors"
	"fmt"
)

var errEmptyPath = errors.New("empty connection path")

func errTableNotFound(table string) error {
	return fmt.Errorf("table %q not found or has no columns", table)
}
