package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "ABANS Joining Form API",
        "description": "Multi-section employee and intern onboarding form service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Sessions", "description": "Form session lifecycle and navigation"},
        {"name": "Uploads", "description": "Photo and document slot attachments"},
        {"name": "Admin", "description": "Reviewer login and submission review"}
    ],
    "paths": {
        "/sessions": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Start or resume a form session",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/OpenSessionRequest"}}
                ],
                "responses": {
                    "200": {"description": "Session state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Get the current session state",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Session state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown session"}
                }
            },
            "delete": {
                "tags": ["Sessions"],
                "summary": "Discard a live session and its staged uploads",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Dropped"}
                }
            }
        },
        "/sessions/{id}/fields": {
            "patch": {
                "tags": ["Sessions"],
                "summary": "Apply a partial field update to the draft record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "Session state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/navigate": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Jump to a section by id",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NavigateRequest"}}
                ],
                "responses": {
                    "200": {"description": "Session state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown section"}
                }
            }
        },
        "/sessions/{id}/proceed": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Validate the current section and advance",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Session state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Section validation failed"}
                }
            }
        },
        "/sessions/{id}/submit": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Submit the completed form",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Submission result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Record validation failed"},
                    "409": {"description": "Already submitted or in progress"},
                    "503": {"description": "Backend not configured"}
                }
            }
        },
        "/sessions/{id}/photo": {
            "post": {
                "tags": ["Uploads"],
                "summary": "Attach the applicant photo",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "Session state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Rejected by the upload policy"}
                }
            },
            "delete": {
                "tags": ["Uploads"],
                "summary": "Remove the staged applicant photo",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Session state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/documents/{slot}": {
            "post": {
                "tags": ["Uploads"],
                "summary": "Attach one or more files to a document slot",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "slot", "in": "path", "required": true, "type": "string"},
                    {"name": "files", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "Session state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Rejected by the upload policy"}
                }
            },
            "delete": {
                "tags": ["Uploads"],
                "summary": "Clear a document slot and delete its staged files",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "slot", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Session state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown slot"}
                }
            }
        },
        "/admin/login": {
            "post": {
                "tags": ["Admin"],
                "summary": "Authenticate the reviewer account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Access token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"},
                    "503": {"description": "Admin review not enabled"}
                }
            }
        },
        "/admin/submissions": {
            "get": {
                "tags": ["Admin"],
                "summary": "List submitted records",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "department", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Submission summaries", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/submissions/export": {
            "get": {
                "tags": ["Admin"],
                "summary": "Export the submission roster as CSV",
                "produces": ["text/csv"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "department", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "CSV file"}
                }
            }
        },
        "/admin/submissions/{id}": {
            "get": {
                "tags": ["Admin"],
                "summary": "Get a submitted record",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Full record", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/admin/submissions/{id}/summary-link": {
            "get": {
                "tags": ["Admin"],
                "summary": "Issue a short-lived signed link for the PDF summary",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Signed link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Summary not generated yet"}
                }
            }
        },
        "/admin/submissions/{id}/summary": {
            "get": {
                "tags": ["Admin"],
                "summary": "Download the PDF summary via signed token",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF file"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "definitions": {
        "OpenSessionRequest": {
            "type": "object",
            "properties": {
                "session_id": {"type": "string"}
            }
        },
        "NavigateRequest": {
            "type": "object",
            "required": ["section"],
            "properties": {
                "section": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
