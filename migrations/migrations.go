// Package migrations embeds the SQL schema so tests and tooling can apply it
// without a filesystem path to the repo.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Schema returns the full schema, files concatenated in lexical order.
func Schema() (string, error) {
	entries, err := FS.ReadDir(".")
	if err != nil {
		return "", err
	}
	var out []byte
	for _, e := range entries {
		b, err := FS.ReadFile(e.Name())
		if err != nil {
			return "", err
		}
		out = append(out, b...)
		out = append(out, '\n')
	}
	return string(out), nil
}
