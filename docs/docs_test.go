package docs

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

type document struct {
	BasePath    string                                `json:"basePath"`
	Paths       map[string]map[string]json.RawMessage `json:"paths"`
	Definitions map[string]json.RawMessage            `json:"definitions"`
}

func readDocument(t *testing.T) (document, string) {
	t.Helper()
	raw, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var doc document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc, raw
}

func TestDocumentListsAPIRoutes(t *testing.T) {
	doc, _ := readDocument(t)
	assert.Equal(t, "/api/v1", doc.BasePath)

	routes := map[string][]string{
		"/login/":                         {"post"},
		"/token/refresh/":                 {"post"},
		"/trip/start/":                    {"post"},
		"/trip/end/":                      {"post"},
		"/trip/update-location/":          {"post"},
		"/trip/bus-location/{id}/":        {"get"},
		"/trip/bus-location/{id}/ws":      {"get"},
		"/dashboard/student/board/":       {"post"},
		"/dashboard/driver/qr.png":        {"get"},
		"/dashboard/driver/broadcast/":    {"get", "post"},
		"/dashboard/complaints/{id}/":     {"patch"},
		"/student/complaints/":            {"get", "post"},
		"/parent/complaints/":             {"get", "post"},
		"/users/{id}/toggle-block/":       {"post"},
		"/teacher/student/update-status/": {"post"},
	}
	for path, methods := range routes {
		ops, ok := doc.Paths[path]
		if !assert.True(t, ok, "missing path %s", path) {
			continue
		}
		for _, m := range methods {
			assert.Contains(t, ops, m, "missing %s %s", m, path)
		}
	}
}

func TestDocumentReferencesResolve(t *testing.T) {
	doc, raw := readDocument(t)

	refs := regexp.MustCompile(`"#/definitions/([^"]+)"`).FindAllStringSubmatch(raw, -1)
	require.NotEmpty(t, refs)
	for _, ref := range refs {
		assert.Contains(t, doc.Definitions, ref[1])
	}
}
