//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package memprobe

func newRusage() (Probe, bool) {
	return nil, false
}
