package trackerdb

import (
	"bytes"
	_ "embed"
	"sync"
)

//go:embed seed.json
var seedJSON []byte

var (
	defaultOnce sync.Once
	defaultDB   *DB
)

// Default returns the knowledge base built from the embedded seed table.
// It is loaded once on first use and shared afterwards.
func Default() *DB {
	defaultOnce.Do(func() {
		db, err := Load(bytes.NewReader(seedJSON))
		if err != nil {
			// The seed is compiled into the binary; failing to decode it is a build defect.
			panic("trackerdb: invalid embedded seed table: " + err.Error())
		}
		defaultDB = db
	})
	return defaultDB
}
