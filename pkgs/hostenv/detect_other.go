//go:build !darwin && !linux

package hostenv

func hostOSVersion() string {
	return ""
}
