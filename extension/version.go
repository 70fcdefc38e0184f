package extension

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Version is an extension version packed as major<<16 | minor.
type Version uint32

// NewVersion packs major and minor into a Version.
func NewVersion(major, minor uint16) Version {
	return Version(major)<<16 | Version(minor)
}

// ParseVersion reads a "major.minor" string.
func ParseVersion(s string) (Version, error) {
	majorStr, minorStr, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok {
		return 0, errors.Newf("invalid version %q", s)
	}
	major, err := strconv.ParseUint(majorStr, 10, 16)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid version %q", s)
	}
	minor, err := strconv.ParseUint(minorStr, 10, 16)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid version %q", s)
	}
	return NewVersion(uint16(major), uint16(minor)), nil
}

func (v Version) Major() uint16 { return uint16(v >> 16) }
func (v Version) Minor() uint16 { return uint16(v) }

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major(), v.Minor())
}

// FilenameVersions holds the versions named by a script file. An install
// script names one version, so From and To are equal; an update script
// "name--1.0--1.1.sql" goes from 1.0 to 1.1.
type FilenameVersions struct {
	From Version
	To   Version
}

// IsUpdate reports whether the file is an update script.
func (fv FilenameVersions) IsUpdate() bool {
	return fv.From != fv.To
}

// DecodeFilenameVersions extracts the versions from an extension's script or
// secondary control file name. It returns false for files that do not follow
// the "<name>--<from>[--<to>].sql" pattern.
func DecodeFilenameVersions(name, fileName string) (FilenameVersions, bool) {
	rest, ok := strings.CutPrefix(fileName, name+"--")
	if !ok {
		return FilenameVersions{}, false
	}
	if trimmed, ok := strings.CutSuffix(rest, ".sql"); ok {
		rest = trimmed
	} else if trimmed, ok := strings.CutSuffix(rest, ".control"); ok {
		rest = trimmed
	} else {
		return FilenameVersions{}, false
	}
	fromStr, toStr, isUpdate := strings.Cut(rest, "--")
	if !isUpdate {
		toStr = fromStr
	}
	from, err := ParseVersion(fromStr)
	if err != nil {
		return FilenameVersions{}, false
	}
	to, err := ParseVersion(toStr)
	if err != nil {
		return FilenameVersions{}, false
	}
	return FilenameVersions{From: from, To: to}, true
}
