package schema

import (
	"context"
	"fmt"

	"github.com/ethpandaops/stitchoor/pkg/fixture"
	"github.com/ethpandaops/stitchoor/pkg/harness"
	"github.com/tidwall/gjson"
)

// queryResolver resolves the root Query type straight from the dataset.
type queryResolver struct {
	records []fixture.Record
}

func (r *queryResolver) Test() *[]*recordResolver {
	return newRecordResolvers(r.records)
}

type recordResolver struct {
	rec *fixture.Record
}

func (r *recordResolver) ID() float64 {
	return r.rec.ID
}

func (r *recordResolver) Value() float64 {
	return r.rec.Value
}

func newRecordResolvers(records []fixture.Record) *[]*recordResolver {
	out := make([]*recordResolver, len(records))
	for i := range records {
		out[i] = &recordResolver{rec: &records[i]}
	}

	return &out
}

// delegatingResolver resolves the root Query type by forwarding a sub-query
// to another executable and decoding its response.
type delegatingResolver struct {
	subschema harness.Executable
	query     string
}

func (r *delegatingResolver) Test(ctx context.Context) (*[]*recordResolver, error) {
	resp, err := r.subschema.Execute(ctx, r.query)
	if err != nil {
		return nil, fmt.Errorf("delegating to subschema: %w", err)
	}

	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("subschema returned errors: %s", resp.Errors[0].Message)
	}

	records, ok := decodeRecords(resp.Data, "test")
	if !ok {
		return nil, nil
	}

	return newRecordResolvers(records), nil
}

// decodeRecords reads the record list stored under field in a data payload.
// It reports false when the field is absent or null.
func decodeRecords(data []byte, field string) ([]fixture.Record, bool) {
	list := gjson.GetBytes(data, field)
	if !list.Exists() || list.Type == gjson.Null {
		return nil, false
	}

	records := make([]fixture.Record, 0, int(list.Get("#").Int()))

	list.ForEach(func(_, item gjson.Result) bool {
		records = append(records, fixture.Record{
			ID:    item.Get("id").Float(),
			Value: item.Get("value").Float(),
		})

		return true
	})

	return records, true
}
