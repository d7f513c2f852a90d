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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/repos/create": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["repositories"],
                "summary": "Create a repository owned by the caller",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/dtos.RepositoryInput"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Invalid or duplicate name"}
                }
            }
        },
        "/repos/my-repos": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["repositories"],
                "summary": "List repositories the caller owns or belongs to",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/repos/all": {
            "get": {
                "produces": ["application/json"],
                "tags": ["repositories"],
                "summary": "List all repositories, paged",
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "string", "name": "sort", "in": "query"},
                    {"type": "string", "name": "direction", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/repos/{id}/details": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["repositories"],
                "summary": "Repository details with activity count",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Not a member"}}
            }
        },
        "/repos/{id}/owner": {
            "get": {
                "produces": ["application/json"],
                "tags": ["repositories"],
                "summary": "Owner of a repository",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/repos/{id}/history": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["history"],
                "summary": "Upload history, newest first",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "kind", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/repos/{id}/upload": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data", "application/json"],
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Upload an SRS or source code and analyse it",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "file", "name": "file", "in": "formData"},
                    {"type": "string", "name": "fileType", "in": "formData", "required": true},
                    {"type": "string", "name": "githubUrl", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "Analysed"},
                    "400": {"description": "Validation error"},
                    "500": {"description": "Analysis failed"}
                }
            }
        },
        "/repos/{id}/compare": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Compare the latest requirements against the latest code analysis",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Missing artifact"},
                    "500": {"description": "Analysis failed"}
                }
            }
        },
        "/repos/{id}/comparisons": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Comparison records, newest first",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/repos/{id}/extracted": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Latest extracted requirements",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "boolean", "name": "useUpdated", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Nothing extracted yet"}}
            }
        },
        "/repos/{id}/runs": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Analysis run journal",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/repos/{id}/request-access": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["access"],
                "summary": "Ask to join a repository",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "body", "schema": {"$ref": "#/definitions/dtos.AccessRequestInput"}}
                ],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Already a member or pending"}}
            }
        },
        "/repos/{id}/requests": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["access"],
                "summary": "Access requests of a repository (owner only)",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Not the owner"}}
            }
        },
        "/repos/{id}/handle-request": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["access"],
                "summary": "Approve or reject an access request (owner only)",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/dtos.HandleRequestInput"}}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Not the owner"}}
            }
        }
    },
    "definitions": {
        "dtos.RepositoryInput": {
            "type": "object",
            "properties": {"name": {"type": "string"}}
        },
        "dtos.AccessRequestInput": {
            "type": "object",
            "properties": {"userId": {"type": "string"}, "userEmail": {"type": "string"}}
        },
        "dtos.HandleRequestInput": {
            "type": "object",
            "properties": {
                "requestId": {"type": "string"},
                "decision": {"type": "string", "enum": ["approved", "rejected"]}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "SRS Tracker API",
	Description:      "Tracks SRS documents and source code per repository and compares requirement coverage.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
