//go:build linux

package hostenv

import "golang.org/x/sys/unix"

func hostOSVersion() string {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return ""
	}
	return trimVersion(unix.ByteSliceToString(u.Release[:]))
}
