package mstodo

import (
	"os"
	"strings"
	"time"
)

const zoneinfoMarker = "zoneinfo/"

// LocalZoneName resolves the IANA name of the local time zone, falling back
// to UTC when it cannot be determined. $TZ is only used when it names a
// zone in the tz database; POSIX rules such as "UTC0" are skipped.
func LocalZoneName() string {
	if tz := os.Getenv("TZ"); tz != "" && tz != "Local" {
		name := zoneFromPath(strings.TrimPrefix(tz, ":"))
		if _, err := time.LoadLocation(name); err == nil {
			return name
		}
	}
	if target, err := os.Readlink("/etc/localtime"); err == nil {
		if name := zoneFromPath(target); name != target {
			return name
		}
	}
	if name := time.Local.String(); name != "" && name != "Local" {
		return name
	}
	return "UTC"
}

// zoneFromPath strips a zoneinfo directory prefix, so
// /usr/share/zoneinfo/Europe/Berlin becomes Europe/Berlin.
func zoneFromPath(p string) string {
	if i := strings.LastIndex(p, zoneinfoMarker); i >= 0 {
		return p[i+len(zoneinfoMarker):]
	}
	return p
}
