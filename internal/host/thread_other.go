//go:build !windows

package host

func initRenderThread() (func(), error) {
	return func() {}, nil
}
