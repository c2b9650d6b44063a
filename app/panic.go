package app

import (
	"fmt"
	"runtime/debug"
	"strings"

	"changeblind/hal"
)

// guard turns a panic inside step into an error, after logging the panic
// and its stack line by line.
func guard(l hal.Logger, step func() error) func() error {
	return func() (err error) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if l != nil {
				l.WriteLineString(fmt.Sprintf("changeblind panic: %v", v))
				for _, line := range strings.Split(string(debug.Stack()), "\n") {
					if line == "" {
						continue
					}
					l.WriteLineString(line)
				}
			}
			err = fmt.Errorf("panic: %v", v)
		}()
		return step()
	}
}
