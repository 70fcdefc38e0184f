package extension

import (
	"fmt"
	"runtime"
	"strconv"

	"github.com/cockroachdb/errors"
)

// Platform is the three-letter code of the platform this process runs on.
// Libraries are only usable on the platform they were registered from, since
// Datum layouts differ between them.
var Platform = platformCode(runtime.GOOS)

func platformCode(goos string) string {
	switch goos {
	case "linux":
		return "lnx"
	case "darwin":
		return "mac"
	case "windows":
		return "win"
	default:
		return "unk"
	}
}

// LibraryIdentifier names one extension library build. Version 0 identifiers
// are laid out as
//
//	00 PPP VVVVVVVVVV NAME
//
// a two-digit format version, the platform code, the packed library version
// as ten decimal digits, and the extension name.
type LibraryIdentifier string

const (
	identifierFormat = "00"
	identifierHeader = len(identifierFormat) + 3 + 10
)

// NewLibraryIdentifier builds the identifier for the named extension at
// version on the current platform.
func NewLibraryIdentifier(name string, version Version) LibraryIdentifier {
	return LibraryIdentifier(fmt.Sprintf("%s%s%010d%s", identifierFormat, Platform, uint32(version), name))
}

// Validate checks the identifier's structure.
func (id LibraryIdentifier) Validate() error {
	if len(id) <= identifierHeader {
		return errors.Newf("library identifier %q is too short", string(id))
	}
	if string(id[:2]) != identifierFormat {
		return errors.Newf("library identifier %q has unknown format %q", string(id), string(id[:2]))
	}
	if _, err := strconv.ParseUint(string(id[5:15]), 10, 32); err != nil {
		return errors.Wrapf(err, "library identifier %q", string(id))
	}
	return nil
}

// Platform returns the platform the identifier was created on.
func (id LibraryIdentifier) Platform() string {
	if len(id) < 5 {
		return ""
	}
	return string(id[2:5])
}

// Version returns the library version, or 0 for a malformed identifier.
func (id LibraryIdentifier) Version() Version {
	if len(id) < identifierHeader {
		return 0
	}
	v, err := strconv.ParseUint(string(id[5:15]), 10, 32)
	if err != nil {
		return 0
	}
	return Version(v)
}

// ExtensionName returns the extension the identifier refers to.
func (id LibraryIdentifier) ExtensionName() string {
	if len(id) < identifierHeader {
		return ""
	}
	return string(id[identifierHeader:])
}

// DisplayString formats the identifier as "name--1.0:lnx".
func (id LibraryIdentifier) DisplayString() string {
	return fmt.Sprintf("%s--%s:%s", id.ExtensionName(), id.Version(), id.Platform())
}

// InvalidReason says why an identifier cannot be used here.
type InvalidReason uint8

const (
	MismatchedPlatform InvalidReason = iota
	MissingLibrary
	InvalidVersion
	MalformedIdentifier
)

func (r InvalidReason) String() string {
	switch r {
	case MismatchedPlatform:
		return "mismatched platform"
	case MissingLibrary:
		return "missing library"
	case InvalidVersion:
		return "invalid version"
	case MalformedIdentifier:
		return "malformed identifier"
	default:
		return fmt.Sprintf("InvalidReason(%d)", uint8(r))
	}
}

// InvalidIdentifier pairs an unusable identifier with the reason.
type InvalidIdentifier struct {
	Identifier LibraryIdentifier
	Reason     InvalidReason
}
