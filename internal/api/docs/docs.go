// Package docs holds the OpenAPI description served under /swagger.
// Regenerate with: swag init -g internal/api/router.go -o internal/api/docs
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
            "get": {"produces": ["application/json"], "tags": ["health"], "summary": "Liveness check", "responses": {"200": {"description": "OK"}}}
        },
        "/health/ready": {
            "get": {"produces": ["application/json"], "tags": ["health"], "summary": "Readiness check", "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}
        },
        "/session": {
            "get": {"security": [{"DaemonKey": []}], "produces": ["application/json"], "tags": ["session"], "summary": "Current session", "responses": {"200": {"description": "OK"}}}
        },
        "/session/login": {
            "post": {"security": [{"DaemonKey": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["session"], "summary": "Login",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/service.LoginInput"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}, "504": {"description": "Gateway Timeout"}}}
        },
        "/session/signup": {
            "post": {"security": [{"DaemonKey": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["session"], "summary": "Register",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/service.SignupInput"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}
        },
        "/session/logout": {
            "post": {"security": [{"DaemonKey": []}], "tags": ["session"], "summary": "Logout", "responses": {"204": {"description": "No Content"}}}
        },
        "/session/refresh": {
            "post": {"security": [{"DaemonKey": []}], "produces": ["application/json"], "tags": ["session"], "summary": "Refresh session", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "502": {"description": "Bad Gateway"}}}
        },
        "/session/profile": {
            "patch": {"security": [{"DaemonKey": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["session"], "summary": "Update profile", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}}
        },
        "/session/password": {
            "put": {"security": [{"DaemonKey": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["session"], "summary": "Change password", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}}
        },
        "/session/avatar": {
            "post": {"security": [{"DaemonKey": []}], "consumes": ["multipart/form-data"], "produces": ["application/json"], "tags": ["session"], "summary": "Upload profile picture",
                "parameters": [{"type": "file", "in": "formData", "name": "file", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}}
        },
        "/auth/google/callback": {
            "get": {"produces": ["application/json"], "tags": ["session"], "summary": "Google sign-in callback",
                "parameters": [{"type": "string", "in": "query", "name": "token", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}}
        },
        "/wallet": {
            "get": {"security": [{"DaemonKey": []}], "produces": ["application/json"], "tags": ["wallet"], "summary": "Wallet overview", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/wallet/history": {
            "get": {"security": [{"DaemonKey": []}], "produces": ["application/json"], "tags": ["wallet"], "summary": "Transaction history",
                "parameters": [{"type": "string", "in": "query", "name": "type", "enum": ["all", "recharge", "transfer", "receive"]}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/wallet/recharge": {
            "post": {"security": [{"DaemonKey": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["wallet"], "summary": "Start a recharge",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/service.RechargeInput"}}],
                "responses": {"202": {"description": "Accepted"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}}
        },
        "/wallet/recharge/confirm": {
            "post": {"security": [{"DaemonKey": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["wallet"], "summary": "Confirm a recharge", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/wallet/recharge/{id}": {
            "get": {"security": [{"DaemonKey": []}], "produces": ["application/json"], "tags": ["wallet"], "summary": "Recharge state",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"security": [{"DaemonKey": []}], "tags": ["wallet"], "summary": "Stop following a recharge",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}}
        },
        "/wallet/recharge/{id}/await": {
            "post": {"security": [{"DaemonKey": []}], "produces": ["application/json"], "tags": ["wallet"], "summary": "Wait for a recharge",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "422": {"description": "Unprocessable Entity"}, "504": {"description": "Gateway Timeout"}}}
        },
        "/wallet/transfer": {
            "post": {"security": [{"DaemonKey": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["wallet"], "summary": "Transfer funds",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/service.TransferInput"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "422": {"description": "Unprocessable Entity"}}}
        },
        "/wallet/receive-code": {
            "get": {"security": [{"DaemonKey": []}], "produces": ["application/json"], "tags": ["wallet"], "summary": "Receive-money QR code", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/wallet/receive-code/scan": {
            "post": {"security": [{"DaemonKey": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["wallet"], "summary": "Decode a scanned QR code", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}}
        },
        "/fedapay/callback": {
            "get": {"produces": ["application/json"], "tags": ["wallet"], "summary": "Payment provider callback",
                "parameters": [
                    {"type": "string", "in": "query", "name": "status"},
                    {"type": "string", "in": "query", "name": "transaction_id"},
                    {"type": "string", "in": "query", "name": "id"},
                    {"type": "string", "in": "query", "name": "reference"}
                ],
                "responses": {"200": {"description": "OK"}, "422": {"description": "Unprocessable Entity"}}}
        },
        "/admin/session": {
            "get": {"security": [{"DaemonKey": []}], "produces": ["application/json"], "tags": ["admin"], "summary": "Current admin session", "responses": {"200": {"description": "OK"}}}
        },
        "/admin/session/login": {
            "post": {"security": [{"DaemonKey": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["admin"], "summary": "Admin login", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/admin/session/register": {
            "post": {"security": [{"DaemonKey": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["admin"], "summary": "Admin registration", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/admin/session/logout": {
            "post": {"security": [{"DaemonKey": []}], "tags": ["admin"], "summary": "Admin logout", "responses": {"204": {"description": "No Content"}}}
        },
        "/admin/last-error": {
            "get": {"security": [{"DaemonKey": []}], "produces": ["application/json"], "tags": ["admin"], "summary": "Last admin API failure", "responses": {"200": {"description": "OK"}}}
        },
        "/admin/profile": {
            "get": {"security": [{"DaemonKey": []}], "produces": ["application/json"], "tags": ["admin"], "summary": "Admin profile", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}},
            "put": {"security": [{"DaemonKey": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["admin"], "summary": "Update admin profile", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/admin/password": {
            "put": {"security": [{"DaemonKey": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["admin"], "summary": "Change admin password", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}}
        },
        "/admin/dashboard": {
            "get": {"security": [{"DaemonKey": []}], "produces": ["application/json"], "tags": ["admin"], "summary": "Admin dashboard",
                "parameters": [{"type": "integer", "in": "query", "name": "days"}],
                "responses": {"200": {"description": "OK"}, "504": {"description": "Gateway Timeout"}}}
        },
        "/admin/users": {
            "get": {"security": [{"DaemonKey": []}], "produces": ["application/json"], "tags": ["admin"], "summary": "List users", "responses": {"200": {"description": "OK"}}}
        },
        "/admin/users/{id}/status": {
            "patch": {"security": [{"DaemonKey": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["admin"], "summary": "Set user status",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/admin/transactions": {
            "get": {"security": [{"DaemonKey": []}], "produces": ["application/json"], "tags": ["admin"], "summary": "List transactions", "responses": {"200": {"description": "OK"}}}
        },
        "/admin/payments": {
            "get": {"security": [{"DaemonKey": []}], "produces": ["application/json"], "tags": ["admin"], "summary": "List payments", "responses": {"200": {"description": "OK"}}}
        },
        "/admin/stats": {
            "get": {"security": [{"DaemonKey": []}], "produces": ["application/json"], "tags": ["admin"], "summary": "Statistics",
                "parameters": [{"type": "integer", "in": "query", "name": "days"}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/admin/config": {
            "get": {"security": [{"DaemonKey": []}], "produces": ["application/json"], "tags": ["admin"], "summary": "Payment configuration", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "post": {"security": [{"DaemonKey": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["admin"], "summary": "Save payment configuration", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        }
    },
    "definitions": {
        "service.LoginInput": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "service.SignupInput": {
            "type": "object",
            "required": ["email", "fullName", "password", "phoneNumber"],
            "properties": {
                "email": {"type": "string"},
                "fullName": {"type": "string"},
                "password": {"type": "string", "minLength": 6},
                "phoneNumber": {"type": "string"},
                "profileImageUrl": {"type": "string"}
            }
        },
        "service.RechargeInput": {
            "type": "object",
            "properties": {"amount": {"type": "number", "minimum": 500}, "callbackUrl": {"type": "string"}}
        },
        "service.TransferInput": {
            "type": "object",
            "required": ["receiverPhone"],
            "properties": {
                "amount": {"type": "number"},
                "description": {"type": "string", "maxLength": 255},
                "network": {"type": "string"},
                "receiverPhone": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "DaemonKey": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "walletd",
	Description:      "Local session daemon for the mobile-money wallet backend.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
