package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Student ID Card API",
        "description": "Logs students in against the academic records API and renders their ID card",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Card sessions"},
        {"name": "Card", "description": "Card state, theming and assets"},
        {"name": "Export", "description": "PNG and PDF downloads"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Log in with school credentials",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Credentials"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Rejected credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Too many attempts", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Records API unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Close the card session",
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "Closed"}}
            }
        },
        "/card": {
            "get": {
                "tags": ["Card"],
                "summary": "Current card",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/card/themes": {
            "get": {
                "tags": ["Card"],
                "summary": "List theme presets",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/card/theme": {
            "post": {
                "tags": ["Card"],
                "summary": "Apply a theme preset",
                "description": "Unknown names leave the scheme unchanged and report applied=false in meta",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ThemeRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/card/scheme": {
            "put": {
                "tags": ["Card"],
                "summary": "Replace the color scheme",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ColorScheme"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/card/colors/{channel}": {
            "patch": {
                "tags": ["Card"],
                "summary": "Set one color channel",
                "description": "Accepts hex, rgb(), lab(), lch(), oklab() and oklch(); anything else becomes white",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "channel", "in": "path", "required": true, "type": "string", "enum": ["primary", "secondary", "accent", "text"]},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ColorRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown channel", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/card/flip": {
            "post": {
                "tags": ["Card"],
                "summary": "Flip the card",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/card/avatar/refresh": {
            "post": {
                "tags": ["Card"],
                "summary": "Pick a new random avatar",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/card/avatar.svg": {
            "get": {
                "tags": ["Card"],
                "summary": "Vector avatar",
                "produces": ["image/svg+xml"],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "SVG image"}}
            }
        },
        "/card/avatar.png": {
            "get": {
                "tags": ["Card"],
                "summary": "Raster avatar",
                "produces": ["image/png"],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "PNG image"}, "503": {"description": "Avatar unavailable"}}
            }
        },
        "/card/qr.png": {
            "get": {
                "tags": ["Card"],
                "summary": "Verification QR code",
                "produces": ["image/png"],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "PNG image"}}
            }
        },
        "/card/export/{face}": {
            "get": {
                "tags": ["Export"],
                "summary": "Download a face as PNG or both faces as PDF",
                "produces": ["image/png", "application/pdf"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "face", "in": "path", "required": true, "type": "string", "enum": ["front", "back", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "student_front.png, student_back.png or student_card.pdf"},
                    "500": {"description": "Failed to download image. Please try again.", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/card/export/links": {
            "post": {
                "tags": ["Export"],
                "summary": "Store exports and return signed download links",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/card/downloads/{token}": {
            "get": {
                "tags": ["Export"],
                "summary": "Fetch a stored export",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "File"}, "404": {"description": "Expired or invalid link"}}
            }
        }
    },
    "definitions": {
        "Credentials": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string", "format": "password"}
            }
        },
        "ThemeRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {"name": {"type": "string", "enum": ["purple", "blue", "green", "red", "orange", "dark"]}}
        },
        "ColorRequest": {
            "type": "object",
            "required": ["value"],
            "properties": {"value": {"type": "string", "example": "oklch(0.7 0.15 250)"}}
        },
        "ColorScheme": {
            "type": "object",
            "properties": {
                "primary": {"type": "string"},
                "secondary": {"type": "string"},
                "accent": {"type": "string"},
                "text": {"type": "string"}
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
