// Package docs registers the OpenAPI document served at /openapi.json.
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
        "/api/analyze-job": {
            "post": {
                "description": "Score a job posting for fraud signals",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Jobs"],
                "summary": "Analyze a job posting",
                "parameters": [
                    {
                        "description": "job posting",
                        "name": "posting",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/jobfraud.Posting"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/jobs.AnalyzeResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}
                }
            }
        },
        "/api/detect-deepfake": {
            "post": {
                "description": "Upload an image, GIF or video and receive a heuristic fake probability",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Detection"],
                "summary": "Detect manipulated media",
                "parameters": [
                    {"type": "file", "description": "media file", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/detect.DetectResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}
                }
            }
        },
        "/api/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["History"],
                "summary": "List analyses",
                "parameters": [
                    {"type": "integer", "description": "maximum records (default 50)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}
                }
            }
        },
        "/api/history/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["History"],
                "summary": "History store statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}
                }
            }
        },
        "/api/history/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["History"],
                "summary": "Get an analysis",
                "parameters": [
                    {"type": "string", "description": "analysis id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["History"],
                "summary": "Delete an analysis",
                "parameters": [
                    {"type": "string", "description": "analysis id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}
                }
            }
        },
        "/api/models/info": {
            "get": {
                "produces": ["application/json"],
                "tags": ["System"],
                "summary": "Scorer metadata",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {"$ref": "#/definitions/system.ModelInfo"}
                        }
                    }
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["System"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/system.HealthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "detect.DetectResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "analysis_id": {"type": "string"},
                "result": {"type": "string", "enum": ["Fake", "Real"]},
                "riskScore": {"type": "integer"},
                "probability": {"type": "number"},
                "explanation": {"type": "string"},
                "details": {"$ref": "#/definitions/detect.Details"}
            }
        },
        "detect.Details": {
            "type": "object",
            "properties": {
                "media_type": {"type": "string"},
                "blur_detection": {"type": "number"},
                "artifact_detection": {"type": "number"},
                "consistency_check": {"type": "number"},
                "frames_analyzed": {"type": "integer"},
                "average_score": {"type": "number"},
                "peak_score": {"type": "number"},
                "suspicious_frames": {"type": "integer"},
                "frame_indices": {"type": "array", "items": {"type": "integer"}},
                "frame_scores": {"type": "array", "items": {"type": "number"}}
            }
        },
        "httptransport.APIResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {},
                "message": {"type": "string"},
                "error": {"type": "string"},
                "code": {"type": "integer"}
            }
        },
        "jobfraud.Posting": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "company": {"type": "string"},
                "requirements": {"type": "string"},
                "salary": {"type": "string"},
                "location": {"type": "string"}
            }
        },
        "jobfraud.Stats": {
            "type": "object",
            "properties": {
                "keyword_matches": {"type": "integer"},
                "text_length": {"type": "integer"},
                "legitimate_signals": {"type": "integer"}
            }
        },
        "jobs.AnalyzeResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "analysis_id": {"type": "string"},
                "is_fraudulent": {"type": "boolean"},
                "risk_score": {"type": "integer"},
                "confidence": {"type": "number"},
                "fraud_indicators": {"type": "array", "items": {"type": "string"}},
                "explanation": {"type": "string"},
                "details": {"$ref": "#/definitions/jobfraud.Stats"}
            }
        },
        "system.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "service": {"type": "string"},
                "version": {"type": "string"},
                "timestamp": {"type": "string"},
                "uptime": {"type": "string"},
                "models": {"type": "object", "additionalProperties": {"type": "string"}},
                "history": {"type": "object"},
                "images": {"type": "object"},
                "host": {"type": "object"}
            }
        },
        "system.ModelInfo": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "version": {"type": "string"},
                "description": {"type": "string"},
                "capabilities": {"type": "array", "items": {"type": "string"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "TrustLens API",
	Description:      "Heuristic media authenticity and job-fraud scoring.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
