// Package docs holds the Swagger description served at /swagger.
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
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["meta"],
                "summary": "Liveness message",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.MessageResponse"}}
                }
            },
            "head": {
                "tags": ["meta"],
                "summary": "Liveness probe for HEAD requests",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.MessageResponse"}}
                }
            }
        },
        "/display": {
            "get": {
                "description": "Validates a Discord CDN attachment URL with its is/hm signature, fetches it and serves it as HTML",
                "produces": ["text/html", "application/json"],
                "tags": ["relay"],
                "summary": "Relay a Discord HTML attachment",
                "parameters": [
                    {"type": "string", "description": "Attachment URL", "name": "url", "in": "query", "required": true},
                    {"type": "string", "description": "Signature issue timestamp", "name": "is", "in": "query", "required": true},
                    {"type": "string", "description": "Signature HMAC", "name": "hm", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "Attachment content", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Reports whether the optional Redis and NATS sinks are reachable",
                "produces": ["application/json"],
                "tags": ["meta"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.HealthResponse"}}
                }
            }
        },
        "/stats": {
            "get": {
                "security": [{"BasicAuth": []}],
                "produces": ["application/json"],
                "tags": ["meta"],
                "summary": "Display outcome counters",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.StatsResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "models.HealthResponse": {
            "type": "object",
            "properties": {
                "nats": {"type": "boolean"},
                "redis": {"type": "boolean"},
                "status": {"type": "string"}
            }
        },
        "models.MessageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "models.StatsResponse": {
            "type": "object",
            "properties": {
                "outcomes": {"type": "object", "additionalProperties": {"type": "integer"}}
            }
        }
    },
    "securityDefinitions": {
        "BasicAuth": {"type": "basic"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8000",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Discord HTML Relay API",
	Description:      "Same-origin relay that serves Discord CDN HTML attachments",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
