// Package docs registers the OpenAPI description served under /swagger/.
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
        "/health": {
            "get": {
                "tags": ["health"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}, "500": {"description": "Store unreachable"}}
            }
        },
        "/sensors": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["sensors"],
                "summary": "List sensors",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/sensors/stats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["sensors"],
                "summary": "Sensor statistics",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/sensors/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["sensors"],
                "summary": "Get a sensor",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}
            }
        },
        "/sensors/{id}/readings": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["sensors"],
                "summary": "Delete all readings of a sensor",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}
            }
        },
        "/readings": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["readings"],
                "summary": "List readings",
                "parameters": [
                    {"type": "array", "items": {"type": "string"}, "name": "sensor_id", "in": "query"},
                    {"type": "string", "name": "start", "in": "query"},
                    {"type": "string", "name": "end", "in": "query"},
                    {"type": "string", "name": "cursor", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["readings"],
                "summary": "Submit a reading",
                "parameters": [{"name": "reading", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.ReadingSubmission"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["readings"],
                "summary": "Prune readings",
                "parameters": [{"type": "string", "name": "before", "in": "query", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/readings/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["readings"],
                "summary": "Get a reading",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["readings"],
                "summary": "Correct a reading",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"name": "correction", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.ReadingCorrection"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["readings"],
                "summary": "Delete a reading",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}
            }
        },
        "/query": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["readings"],
                "summary": "Query readings",
                "parameters": [
                    {"type": "array", "items": {"type": "string"}, "name": "sensor_id", "in": "query", "required": true},
                    {"type": "string", "name": "start", "in": "query", "required": true},
                    {"type": "string", "name": "end", "in": "query", "required": true},
                    {"enum": ["minute", "hour", "day"], "type": "string", "name": "bucket", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}
            }
        },
        "/export": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/zip"],
                "tags": ["readings"],
                "summary": "Export readings",
                "parameters": [
                    {"type": "array", "items": {"type": "string"}, "name": "sensor_id", "in": "query", "required": true},
                    {"type": "string", "name": "start", "in": "query", "required": true},
                    {"type": "string", "name": "end", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            }
        },
        "/files": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["files"],
                "summary": "List files",
                "parameters": [{"enum": ["video", "file"], "type": "string", "name": "kind", "in": "query"}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "tags": ["files"],
                "summary": "Upload a file",
                "parameters": [
                    {"type": "string", "name": "kind", "in": "formData", "required": true},
                    {"type": "file", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            }
        },
        "/files/usage": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["files"],
                "summary": "Storage usage",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/files/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/octet-stream"],
                "tags": ["files"],
                "summary": "Download a file",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["files"],
                "summary": "Delete a file",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}
            }
        },
        "/owners/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["owners"],
                "summary": "Delete an owner's data",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            }
        }
    },
    "definitions": {
        "models.ReadingSubmission": {
            "type": "object",
            "required": ["sensor_name", "start_time", "value"],
            "properties": {
                "sensor_name": {"type": "string"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "value": {"type": "number"},
                "unit": {"type": "string"}
            }
        },
        "models.ReadingCorrection": {
            "type": "object",
            "required": ["value"],
            "properties": {
                "value": {"type": "number"},
                "unit": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Sensor Data Warehouse API",
	Description:      "Ingestion, range queries and export of owner-scoped sensor readings and files.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
