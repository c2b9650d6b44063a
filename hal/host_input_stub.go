//go:build !cgo

package hal

func (in *hostInput) poll() {
	// No input support without the window backend.
}
