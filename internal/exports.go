package internal

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// EntryPoints are the error reporting functions extension libraries link
// against. The host binary must export them for dlopen to succeed.
var EntryPoints = []string{"errstart", "errstart_cold", "errmsg", "errmsg_internal", "errfinish"}

// VerifyExports checks that every entry point resolves in the process's
// global symbol scope.
func VerifyExports() error {
	var missing []string
	for _, name := range EntryPoints {
		if _, err := HostSymbol(name); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return errors.Newf("host does not export %s; link with -rdynamic", strings.Join(missing, ", "))
	}
	return nil
}
