package analyses

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/analysis.schema.json
var analysisSchemaJSON []byte

var (
	analysisSchemaOnce sync.Once
	analysisSchema     *gojsonschema.Schema
	analysisSchemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	analysisSchemaOnce.Do(func() {
		analysisSchema, analysisSchemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(analysisSchemaJSON))
	})
	return analysisSchema, analysisSchemaErr
}

// SchemaDrift lists the ways body departs from the reply contract.
// An empty result means the reply matched. Drift never fails normalization.
func SchemaDrift(body string) ([]string, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile analysis schema: %w", err)
	}
	res, err := schema.Validate(gojsonschema.NewStringLoader(body))
	if err != nil {
		return nil, fmt.Errorf("validate analysis reply: %w", err)
	}
	if res.Valid() {
		return nil, nil
	}
	drift := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		drift = append(drift, e.String())
	}
	return drift, nil
}
