// Package scripts embeds the Risor query scripts bundled with zenls.
package scripts

import (
	"embed"
	"io/fs"
)

// FS holds the bundled scripts under queries/.
//
//go:embed queries/*.risor
var FS embed.FS

// Path returns the location in FS of the bundled script name, e.g.
// "outline".
func Path(name string) string {
	return "queries/" + name + ".risor"
}

// Has reports whether name is a bundled script.
func Has(name string) bool {
	_, err := fs.Stat(FS, Path(name))
	return err == nil
}
