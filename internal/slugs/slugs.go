// Package slugs turns operator-supplied names into file and identifier
// components, built on gosimple/slug.
package slugs

import (
	"strings"

	goslug "github.com/gosimple/slug"
)

// ComponentSlug converts a label to a slug usable as a path component or a
// category identifier.
func ComponentSlug(s string) string {
	s = strings.TrimSpace(s)
	slugged := goslug.Make(s)
	if slugged == "" {
		slugged = strings.ToLower(strings.ReplaceAll(s, " ", "-"))
	}
	return slugged
}

// ExportFileName returns the file name an object export is written to.
func ExportFileName(objectID, ext string) string {
	name := ComponentSlug(objectID)
	if name == "" {
		name = "object"
	}
	return name + "." + strings.TrimPrefix(ext, ".")
}
