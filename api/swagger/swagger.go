package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "BrightPath Coach Admin API",
        "description": "Enrollment lifecycle, coach payouts and tax withholding",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and token refresh"},
        {"name": "Enrollments", "description": "Tutoring program enrollments"},
        {"name": "Risk", "description": "Derived enrollment risk categories"},
        {"name": "Settlements", "description": "Coach payouts and batch settlement"},
        {"name": "Reports", "description": "Quarterly withholding reports"},
        {"name": "Audit", "description": "Compliance audit trail"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrollments",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "coachId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments/{id}": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Get enrollment detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/enrollments/{id}/complete": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Complete an enrollment and issue a certificate",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CompleteEnrollmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already completed"},
                    "412": {"description": "Contracted sessions not completed"}
                }
            }
        },
        "/enrollments/{id}/extend": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Extend program end date",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExtendEnrollmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments/{id}/risk": {
            "get": {
                "tags": ["Risk"],
                "summary": "Classify a single enrollment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "asOf", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/risk/board": {
            "get": {
                "tags": ["Risk"],
                "summary": "Risk board, most urgent first",
                "parameters": [
                    {"name": "coachId", "in": "query", "type": "string"},
                    {"name": "asOf", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/risk/sweep": {
            "post": {
                "tags": ["Risk"],
                "summary": "Run a risk sweep over active enrollments",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payouts": {
            "get": {
                "tags": ["Settlements"],
                "summary": "List payouts",
                "parameters": [
                    {"name": "coachId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Settlements"],
                "summary": "Schedule a payout",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SchedulePayoutRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/settlements/batch": {
            "post": {
                "tags": ["Settlements"],
                "summary": "Settle a payout batch (mark paid or cancel)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ProcessBatchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Batch contains items not in a processable state"}
                }
            }
        },
        "/reports/withholding": {
            "get": {
                "tags": ["Reports"],
                "summary": "Quarterly withholding report",
                "parameters": [
                    {"name": "quarter", "in": "query", "required": true, "type": "string"},
                    {"name": "fiscalYear", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/withholding/csv": {
            "get": {
                "tags": ["Reports"],
                "summary": "Quarterly withholding report as CSV",
                "parameters": [
                    {"name": "quarter", "in": "query", "required": true, "type": "string"},
                    {"name": "fiscalYear", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "CSV payload"}
                }
            }
        },
        "/reports/withholding/pdf": {
            "get": {
                "tags": ["Reports"],
                "summary": "Quarterly withholding report as PDF",
                "parameters": [
                    {"name": "quarter", "in": "query", "required": true, "type": "string"},
                    {"name": "fiscalYear", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF payload"}
                }
            }
        },
        "/audit": {
            "get": {
                "tags": ["Audit"],
                "summary": "Audit trail for a resource",
                "parameters": [
                    {"name": "resource", "in": "query", "required": true, "type": "string"},
                    {"name": "limit", "in": "query", "required": false, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing resource"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "RefreshTokenRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            },
            "required": ["refresh_token"]
        },
        "CompleteEnrollmentRequest": {
            "type": "object",
            "properties": {
                "force": {"type": "boolean"}
            }
        },
        "ExtendEnrollmentRequest": {
            "type": "object",
            "properties": {
                "new_end_date": {"type": "string", "format": "date-time"}
            },
            "required": ["new_end_date"]
        },
        "SchedulePayoutRequest": {
            "type": "object",
            "properties": {
                "coach_id": {"type": "string"},
                "gross_amount": {"type": "integer", "description": "Gross amount in paise"},
                "scheduled_for": {"type": "string", "format": "date-time"}
            },
            "required": ["coach_id", "gross_amount", "scheduled_for"]
        },
        "ProcessBatchRequest": {
            "type": "object",
            "properties": {
                "payout_ids": {"type": "array", "items": {"type": "string"}},
                "action": {"type": "string", "enum": ["mark_paid", "cancel"]},
                "payment_method": {"type": "string"},
                "payment_reference": {"type": "string"}
            },
            "required": ["payout_ids", "action"]
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
                "status": {"type": "integer"},
                "details": {"type": "object"}
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
