// Package schemas embeds the JSON Schema documents for persisted and exported survey data.
package schemas

import "embed"

// Names of the embedded schema documents.
const (
	Snapshot = "snapshot.schema.json"
	Export   = "export.schema.json"
)

//go:embed *.schema.json
var FS embed.FS

// Read returns the named schema document.
func Read(name string) ([]byte, error) {
	return FS.ReadFile(name)
}
