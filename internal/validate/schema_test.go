package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONAgainstMap(t *testing.T) {
	schema := map[string]any{
		"type":     "object",
		"required": []string{"text"},
		"properties": map[string]any{
			"text": map[string]any{"type": "string"},
		},
	}

	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{name: "valid", data: `{"text":"abc"}`},
		{name: "missing required", data: `{}`, wantErr: true},
		{name: "wrong type", data: `{"text":3}`, wantErr: true},
		{name: "not json", data: `{`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := JSONAgainstMap(schema, []byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCompileRejectsBadSchema(t *testing.T) {
	_, err := Compile("bad.json", map[string]any{"$ref": "#/$defs/missing"})
	require.Error(t, err)
}
