//go:build swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

const swaggerTemplate = `{
  "swagger": "2.0",
  "info": {"title": "{{.Title}}", "description": "{{escape .Description}}", "version": "{{.Version}}"},
  "basePath": "{{.BasePath}}",
  "schemes": {{ marshal .Schemes }},
  "paths": {
    "/status": {"get": {"summary": "Loop status", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
    "/healthz": {"get": {"summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}},
    "/readyz": {"get": {"summary": "Readiness probe", "responses": {"200": {"description": "ticking"}, "503": {"description": "stopped"}}}},
    "/metrics": {"get": {"summary": "Prometheus metrics", "responses": {"200": {"description": "OK"}}}}
  }
}`

// swaggerInfo is registered with swag so http-swagger can serve doc.json.
var swaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "tickd API",
	Description:      "Observability API of the tickd tick loop.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  swaggerTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(swaggerInfo.InstanceName(), swaggerInfo)
}

// MountSwagger serves the swagger UI under /swagger/.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
