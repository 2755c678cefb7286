package docs

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag/v2"
)

type document struct {
	BasePath            string                                `json:"basePath"`
	Paths               map[string]map[string]json.RawMessage `json:"paths"`
	Definitions         map[string]json.RawMessage            `json:"definitions"`
	SecurityDefinitions map[string]json.RawMessage            `json:"securityDefinitions"`
}

func readDocument(t *testing.T) (string, document) {
	t.Helper()
	raw, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var doc document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return raw, doc
}

func TestSwaggerDocument(t *testing.T) {
	raw, doc := readDocument(t)

	assert.Equal(t, "/api/v1", doc.BasePath)
	assert.Contains(t, doc.SecurityDefinitions, "BearerAuth")

	routes := map[string]string{
		"/wizard/{id}/submit":              "post",
		"/admin/records/{kind}/{id}":       "delete",
		"/admin/forms/{kind}/image/upload": "post",
		"/admin/applications/{id}/status":  "patch",
		"/chat/sessions/{id}/messages":     "post",
		"/content/ticker":                  "get",
		"/newsletter":                      "post",
	}
	for path, method := range routes {
		ops, ok := doc.Paths[path]
		if assert.True(t, ok, path) {
			assert.Contains(t, ops, method, path)
		}
	}

	for _, ref := range strings.Split(raw, `"$ref": "#/definitions/`)[1:] {
		name := ref[:strings.Index(ref, `"`)]
		assert.Contains(t, doc.Definitions, name)
	}
}

func TestSwaggerInfo_Overrides(t *testing.T) {
	host := SwaggerInfo.Host
	t.Cleanup(func() { SwaggerInfo.Host = host })

	SwaggerInfo.Host = "finsite.example.com"
	raw, _ := readDocument(t)
	assert.Contains(t, raw, `"host": "finsite.example.com"`)
}
