package main

import (
	"path/filepath"

	"SiloDB/storage/catalog"
	"SiloDB/storage/tuple"
)

// peopleSchema is the sample table siloctl seeds and scans. A real catalog
// would persist table schemas; this one hardcodes the single demo table so
// seed and scan agree on its shape without a schema file, per DESIGN.md's
// note on catalog persistence being out of scope.
func peopleSchema() *tuple.Schema {
	return tuple.NewSchema(
		tuple.IntField("id"),
		tuple.StringField("name", 16),
		tuple.IntField("age"),
	)
}

func openCatalog(dir string) (*catalog.Catalog, int, error) {
	cat := catalog.New()
	tableId, err := cat.AddTable("people", filepath.Join(dir, "people.dat"), peopleSchema())
	if err != nil {
		return nil, 0, err
	}
	return cat, tableId, nil
}
