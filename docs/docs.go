// Package docs registers the swagger spec for the query API served under
// /swagger/*any. Regenerate with `swag init -g cmd/mdc/main.go` whenever
// internal/httpapi's route annotations change.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/v1/orderbook": {
            "get": {
                "produces": ["application/json"],
                "summary": "Get the latest order book",
                "description": "Returns the most recently emitted order book state for the configured instrument, optionally truncated to a requested depth.",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "maximum number of levels per side",
                        "name": "depth",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "order book not yet initialized"}
                }
            }
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "mdc query API",
	Description:      "Read-only HTTP view of the order book maintained by mdc.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
