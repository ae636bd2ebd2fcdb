package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Hagwon Timetable API",
        "description": "Weekly timetable materialization and conflict resolution for a tutoring academy",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Timetable", "description": "Materialized weekly views"},
        {"name": "Classes", "description": "Class mutations, overrides, and status history"},
        {"name": "Import", "description": "Bulk roster import"},
        {"name": "Compatibility", "description": "Class-type compatibility rules"}
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
                    "200": {"description": "Ready"},
                    "503": {"description": "Degraded"}
                }
            }
        },
        "/timetable/week": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Materialized weekly timetable",
                "parameters": [
                    {"name": "week_start", "in": "query", "type": "string", "required": true, "description": "Monday of the requested week (YYYY-MM-DD)"},
                    {"name": "instructor_id", "in": "query", "type": "string", "description": "Narrow to one instructor (staff only)"},
                    {"name": "student_id", "in": "query", "type": "string", "description": "Narrow to one student (staff only)"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/check-conflict": {
            "post": {
                "tags": ["Classes"],
                "summary": "Dry-run conflict check for a candidate class",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateClassRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes": {
            "post": {
                "tags": ["Classes"],
                "summary": "Create a class with its initial enrollment",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateClassRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict or capacity exceeded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{id}/status": {
            "patch": {
                "tags": ["Classes"],
                "summary": "Transition a class's status",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{id}/move": {
            "post": {
                "tags": ["Classes"],
                "summary": "Move a class to a new slot",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MoveSlotRequest"}}
                ],
                "responses": {
                    "200": {"description": "Moved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Destination slot conflicts", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{id}/overrides/{date}": {
            "put": {
                "tags": ["Classes"],
                "summary": "Create or replace a per-date override",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "date", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetOverrideRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Classes"],
                "summary": "Remove a per-date override",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "date", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/classes/{id}/logs": {
            "get": {
                "tags": ["Classes"],
                "summary": "Status history of a class",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/import/classes": {
            "post": {
                "tags": ["Import"],
                "summary": "Bulk import class rows",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ImportRequest"}}
                ],
                "responses": {
                    "200": {"description": "Summary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/compatibility-rules": {
            "get": {
                "tags": ["Compatibility"],
                "summary": "List compatibility rules",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Compatibility"],
                "summary": "Create or replace a compatibility rule",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertCompatibilityRuleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateClassRequest": {
            "type": "object",
            "required": ["mode", "instructor_id", "subject_code", "class_type_code", "start_time", "end_time", "student_ids"],
            "properties": {
                "mode": {"type": "string", "enum": ["RECURRING", "ONE_OFF"]},
                "instructor_id": {"type": "string"},
                "subject_code": {"type": "string"},
                "class_type_code": {"type": "string"},
                "weekday": {"type": "integer", "minimum": 1, "maximum": 7},
                "date": {"type": "string", "format": "date"},
                "start_time": {"type": "string", "example": "14:30"},
                "end_time": {"type": "string", "example": "16:00"},
                "active_from": {"type": "string", "format": "date"},
                "active_to": {"type": "string", "format": "date"},
                "student_ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "UpdateStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["SCHEDULED", "COMPLETED", "CANCELED", "NO_SHOW"]},
                "reason": {"type": "string"}
            }
        },
        "MoveSlotRequest": {
            "type": "object",
            "required": ["start_time", "week_start"],
            "properties": {
                "weekday": {"type": "integer", "minimum": 1, "maximum": 7},
                "date": {"type": "string", "format": "date"},
                "start_time": {"type": "string", "example": "10:00"},
                "week_start": {"type": "string", "format": "date"}
            }
        },
        "SetOverrideRequest": {
            "type": "object",
            "required": ["action"],
            "properties": {
                "action": {"type": "string", "enum": ["CANCEL", "RESCHEDULE", "STATUS_ONLY"]},
                "alt_instructor_id": {"type": "string"},
                "alt_start_time": {"type": "string", "example": "15:00"},
                "alt_end_time": {"type": "string", "example": "16:30"},
                "alt_status": {"type": "string", "enum": ["SCHEDULED", "COMPLETED", "CANCELED", "NO_SHOW"]}
            }
        },
        "ImportRequest": {
            "type": "object",
            "required": ["rows"],
            "properties": {
                "rows": {"type": "array", "items": {"$ref": "#/definitions/ImportRow"}}
            }
        },
        "ImportRow": {
            "type": "object",
            "required": ["mode", "instructor_id", "subject_code", "class_type_code", "start_time", "end_time", "student_id"],
            "properties": {
                "mode": {"type": "string", "enum": ["RECURRING", "ONE_OFF"]},
                "instructor_id": {"type": "string"},
                "subject_code": {"type": "string"},
                "class_type_code": {"type": "string"},
                "weekday": {"type": "integer", "minimum": 1, "maximum": 7},
                "date": {"type": "string", "format": "date"},
                "start_time": {"type": "string", "example": "09:00"},
                "end_time": {"type": "string", "example": "10:30"},
                "active_from": {"type": "string", "format": "date"},
                "active_to": {"type": "string", "format": "date"},
                "student_id": {"type": "string"}
            }
        },
        "UpsertCompatibilityRuleRequest": {
            "type": "object",
            "required": ["type_a", "type_b"],
            "properties": {
                "type_a": {"type": "string"},
                "type_b": {"type": "string"},
                "compatible": {"type": "boolean"},
                "reason": {"type": "string"}
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
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
