package schemas_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/jonathan/cover-letter-generator/internal/schemas"
	rootschemas "github.com/jonathan/cover-letter-generator/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var schemaFiles = []string{
	rootschemas.JobInfo,
	rootschemas.ResumeProfile,
}

func TestAllSchemaFiles_ValidJSON(t *testing.T) {
	for _, schemaFile := range schemaFiles {
		t.Run(schemaFile, func(t *testing.T) {
			data, err := rootschemas.Files.ReadFile(schemaFile)
			require.NoError(t, err, "should be able to read schema file")

			var v interface{}
			err = json.Unmarshal(data, &v)
			assert.NoError(t, err, "schema file should be valid JSON: %s", schemaFile)
		})
	}
}

func TestSchemaFiles_ValidJSONSchema(t *testing.T) {
	for _, schemaFile := range schemaFiles {
		t.Run(schemaFile, func(t *testing.T) {
			data, err := rootschemas.Files.ReadFile(schemaFile)
			require.NoError(t, err)

			var schemaObj map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &schemaObj))

			assert.Equal(t, "http://json-schema.org/draft-07/schema#", schemaObj["$schema"])
			assert.Equal(t, "object", schemaObj["type"])
			_, hasProps := schemaObj["properties"]
			assert.True(t, hasProps, "schema should declare properties")
		})
	}
}

func TestSchemaFiles_CompileWithValidator(t *testing.T) {
	// An empty object exercises schema loading without depending on required fields.
	for _, schemaFile := range schemaFiles {
		t.Run(schemaFile, func(t *testing.T) {
			err := schemas.ValidateEmbedded(schemaFile, `{}`)
			var loadErr *schemas.SchemaLoadError
			assert.False(t, errors.As(err, &loadErr), "schema should compile: %v", err)
		})
	}
}
