package extension

import (
	"bufio"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
)

// Control is the parsed content of an extension's .control file.
type Control struct {
	Directory      string
	DefaultVersion Version
	Comment        string
	Encoding       string
	ModulePathname string
	Requires       []string
	Superuser      bool
	Trusted        bool
	Relocatable    bool
	Schema         string
	// Extra holds parameters this package does not interpret.
	Extra map[string]string
}

// ErrMalformedControl is returned for control files that cannot be parsed.
var ErrMalformedControl = errors.New("malformed control file")

// ParseControl reads a control file. Each non-empty line is "key = value";
// "#" starts a comment and string values may be single-quoted.
func ParseControl(name string, r io.Reader) (Control, error) {
	ctl := Control{
		Superuser: true,
		Extra:     make(map[string]string),
	}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return Control{}, errors.Wrapf(ErrMalformedControl, "%s.control line %d: %q", name, lineNo, scanner.Text())
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		malformed := func() error {
			return errors.Wrapf(ErrMalformedControl, "%s.control line %d: bad %s %q", name, lineNo, key, value)
		}
		switch key {
		case "directory":
			ctl.Directory = unquote(value)
		case "default_version":
			v, err := ParseVersion(unquote(value))
			if err != nil {
				return Control{}, malformed()
			}
			ctl.DefaultVersion = v
		case "comment":
			ctl.Comment = unquote(value)
		case "encoding":
			ctl.Encoding = unquote(value)
		case "module_pathname":
			ctl.ModulePathname = unquote(value)
		case "requires":
			ctl.Requires = nil
			for _, req := range strings.Split(unquote(value), ",") {
				if req = strings.TrimSpace(req); req != "" {
					ctl.Requires = append(ctl.Requires, req)
				}
			}
		case "superuser", "trusted", "relocatable":
			b, ok := parseBool(value)
			if !ok {
				return Control{}, malformed()
			}
			switch key {
			case "superuser":
				ctl.Superuser = b
			case "trusted":
				ctl.Trusted = b
			default:
				ctl.Relocatable = b
			}
		case "schema":
			ctl.Schema = unquote(value)
		default:
			ctl.Extra[key] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return Control{}, errors.Wrapf(err, "reading %s.control", name)
	}
	return ctl, nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	}
	return s
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(unquote(s)) {
	case "true", "on", "yes", "1":
		return true, true
	case "false", "off", "no", "0":
		return false, true
	}
	return false, false
}
