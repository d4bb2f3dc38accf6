// Package fixture builds the in-memory dataset every benchmark target
// resolves against. A Dataset is created once at startup and only ever read.
package fixture

import (
	mrand "math/rand"
	"time"
)

// DefaultSize is the number of records in the default dataset.
const DefaultSize = 2000

// Record is a single row of the test dataset.
type Record struct {
	ID    float64 `json:"id"`
	Value float64 `json:"value"`
}

// Dataset is an immutable set of records shared by all targets of a run.
type Dataset struct {
	records []Record
	seed    int64
}

// New builds a dataset of size records. IDs are the record index and values
// are pseudo-random in [0,1). A zero seed derives one from the current time.
func New(size int, seed int64) *Dataset {
	if size < 0 {
		size = 0
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	rng := mrand.New(mrand.NewSource(seed))
	records := make([]Record, size)

	for i := range records {
		records[i] = Record{
			ID:    float64(i),
			Value: rng.Float64(),
		}
	}

	return &Dataset{
		records: records,
		seed:    seed,
	}
}

// Records returns the dataset rows. Callers must not modify the slice.
func (d *Dataset) Records() []Record {
	return d.records
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Seed returns the seed the dataset was generated from.
func (d *Dataset) Seed() int64 {
	return d.seed
}
