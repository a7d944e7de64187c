package hostenv

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// releases maps macOS release names to their versions.
var releases = map[string]string{
	"tiger":         "10.4",
	"leopard":       "10.5",
	"snow_leopard":  "10.6",
	"lion":          "10.7",
	"mountain_lion": "10.8",
	"mavericks":     "10.9",
	"yosemite":      "10.10",
	"el_capitan":    "10.11",
	"sierra":        "10.12",
	"high_sierra":   "10.13",
	"mojave":        "10.14",
	"catalina":      "10.15",
	"big_sur":       "11",
	"monterey":      "12",
	"ventura":       "13",
	"sonoma":        "14",
	"sequoia":       "15",
}

// NormalizeOS returns the dotted form of an OS version given either as a
// version ("10.9", "10.9.5") or a release name ("mavericks").
func NormalizeOS(v string) (string, error) {
	v = strings.TrimSpace(v)
	if ver, ok := releases[strings.ToLower(strings.ReplaceAll(v, " ", "_"))]; ok {
		return ver, nil
	}
	v = strings.TrimPrefix(v, "v")
	if !semver.IsValid("v"+v) || semver.Prerelease("v"+v) != "" || semver.Build("v"+v) != "" {
		return "", fmt.Errorf("invalid OS version %q", v)
	}
	return v, nil
}

// CompareOS compares two OS versions. Invalid versions sort before valid
// ones, as golang.org/x/mod/semver does.
func CompareOS(a, b string) int {
	return semver.Compare("v"+a, "v"+b)
}

// ReleaseName returns the release name of an OS version, or "". Since 11
// a release spans a whole major version.
func ReleaseName(v string) string {
	mm := strings.TrimPrefix(semver.MajorMinor("v"+v), "v")
	major := strings.TrimPrefix(semver.Major("v"+v), "v")
	for name, ver := range releases {
		if ver == mm || (!strings.Contains(ver, ".") && ver == major) {
			return name
		}
	}
	return ""
}

// MajorMinor returns the major.minor prefix of an OS version, "10.9" for
// "10.9.5".
func MajorMinor(v string) string {
	return strings.TrimPrefix(semver.MajorMinor("v"+v), "v")
}
