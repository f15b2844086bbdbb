package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Biblioteca Catalog API",
        "description": "Searchable book catalog backed by a Google Spreadsheet",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Catalog", "description": "Catalog search and listing"},
        {"name": "Captcha", "description": "Challenge generation and verification"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/search": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Search the catalog",
                "parameters": [
                    {"name": "q", "in": "query", "type": "string", "required": true},
                    {"name": "category", "in": "query", "type": "string"},
                    {"name": "captcha", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid query"},
                    "403": {"description": "Captcha required or failed"},
                    "429": {"description": "Rate limited"},
                    "503": {"description": "Catalog source unavailable"}
                }
            }
        },
        "/api/books": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List the full catalog",
                "parameters": [
                    {"name": "category", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Rate limited"},
                    "503": {"description": "Catalog source unavailable"}
                }
            }
        },
        "/api/categories": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List catalog categories",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/captcha/generate": {
            "get": {
                "tags": ["Captcha"],
                "summary": "Issue a new captcha challenge",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Rate limited"}
                }
            }
        },
        "/api/captcha/verify": {
            "get": {
                "tags": ["Captcha"],
                "summary": "Verify a captcha answer",
                "parameters": [
                    {"name": "code", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Malformed answer"},
                    "403": {"description": "Expired or exhausted"},
                    "429": {"description": "Rate limited"}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
