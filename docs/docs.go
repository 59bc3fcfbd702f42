// Package docs registers the OpenAPI description served at /swagger/*any.
// Keep it in sync with the handler annotations (swag init -g cmd/main.go).
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
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}}
            }
        },
        "/api/dashboard/status": {
            "get": {
                "description": "Latest temperature, applied fan speed, power draw and control mode.",
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Current status",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Status"}}}
            }
        },
        "/api/dashboard/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Telemetry history",
                "parameters": [
                    {"enum": ["1h", "6h", "24h", "7d"], "type": "string", "default": "1h", "description": "Lookback window", "name": "range", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.HistoryResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/api/dashboard/restore-auto": {
            "post": {
                "description": "Hands fan control back to the iDRAC until the next settings change.",
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Restore automatic fan control",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/successResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/api/curve": {
            "get": {
                "produces": ["application/json"],
                "tags": ["curve"],
                "summary": "Get fan curve",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.CurveRequest"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            },
            "put": {
                "description": "At least 2 points; temp and speed in 0..100; temperatures unique.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["curve"],
                "summary": "Replace fan curve",
                "parameters": [
                    {"description": "Curve points", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CurveRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/successResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/api/settings": {
            "get": {
                "description": "The stored password is returned as ******.",
                "produces": ["application/json"],
                "tags": ["settings"],
                "summary": "Get controller settings",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ControlConfig"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            },
            "put": {
                "description": "Partial update; omitted fields keep their value. interval must be 5..300 seconds.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["settings"],
                "summary": "Update controller settings",
                "parameters": [
                    {"description": "Fields to change", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.ControlConfig"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/successResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/api/settings/retention": {
            "get": {
                "produces": ["application/json"],
                "tags": ["settings"],
                "summary": "Get retention policy",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RetentionResponse"}}}
            },
            "put": {
                "description": "Applies from the next daily cleanup.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["settings"],
                "summary": "Update retention policy",
                "parameters": [
                    {"description": "Retention in days", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RetentionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/successResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/ws": {
            "get": {
                "description": "WebSocket stream of {\"type\":\"status_update\"|\"log\",\"data\":...} messages.",
                "tags": ["system"],
                "summary": "Live events",
                "responses": {"101": {"description": "Switching Protocols"}}
            }
        }
    },
    "definitions": {
        "errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "successResponse": {
            "type": "object",
            "properties": {"success": {"type": "boolean"}}
        },
        "models.CurvePoint": {
            "type": "object",
            "properties": {"temp": {"type": "integer"}, "speed": {"type": "integer"}}
        },
        "models.ControlConfig": {
            "type": "object",
            "properties": {
                "ip_address": {"type": "string"},
                "username": {"type": "string"},
                "password": {"type": "string"},
                "interval": {"type": "integer"}
            }
        },
        "models.Status": {
            "type": "object",
            "properties": {
                "cpu_temp": {"type": "number"},
                "fan_speed": {"type": "integer"},
                "power": {"type": "integer"},
                "control_mode": {"type": "string", "enum": ["auto", "manual"]},
                "last_update": {"type": "string", "format": "date-time"}
            }
        },
        "models.TelemetryReading": {
            "type": "object",
            "properties": {
                "cpu_temp": {"type": "number"},
                "fan_speed": {"type": "integer"},
                "power": {"type": "integer"},
                "time": {"type": "string", "format": "date-time"}
            }
        },
        "handlers.CurveRequest": {
            "type": "object",
            "required": ["points"],
            "properties": {"points": {"type": "array", "items": {"$ref": "#/definitions/models.CurvePoint"}}}
        },
        "handlers.HistoryResponse": {
            "type": "object",
            "properties": {"data": {"type": "array", "items": {"$ref": "#/definitions/models.TelemetryReading"}}}
        },
        "handlers.RetentionRequest": {
            "type": "object",
            "required": ["retention_days"],
            "properties": {"retention_days": {"type": "integer", "example": 90}}
        },
        "handlers.RetentionResponse": {
            "type": "object",
            "properties": {
                "retention_days": {"type": "integer", "example": 30},
                "allowed": {"type": "array", "items": {"type": "integer"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "iDRAC fan controller API",
	Description:      "Curve-driven fan control for Dell servers over racadm and IPMI.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
