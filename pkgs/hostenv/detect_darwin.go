//go:build darwin

package hostenv

import "golang.org/x/sys/unix"

func hostOSVersion() string {
	v, err := unix.Sysctl("kern.osproductversion")
	if err != nil {
		return ""
	}
	return trimVersion(v)
}
