// Package docs holds the OpenAPI document served at /swagger.
// Regenerate with: swag init -g cmd/api/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/dashboard/add-bus/": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "consumes": [
                    "multipart/form-data"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "buses"
                ],
                "summary": "Add bus",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Bus number",
                        "name": "bus_number",
                        "in": "formData",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Evening destination",
                        "name": "destination",
                        "in": "formData"
                    },
                    {
                        "type": "string",
                        "description": "Number plate",
                        "name": "number_plate",
                        "in": "formData"
                    },
                    {
                        "type": "string",
                        "description": "HH:MM",
                        "name": "morning_trip_end_time",
                        "in": "formData"
                    },
                    {
                        "type": "string",
                        "description": "HH:MM",
                        "name": "evening_trip_start_time",
                        "in": "formData"
                    },
                    {
                        "type": "file",
                        "description": "Bus photo",
                        "name": "photo",
                        "in": "formData"
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Bus created",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.BusResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Bus number required or invalid photo",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Permission denied",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/dashboard/buses/": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "buses"
                ],
                "summary": "List buses",
                "responses": {
                    "200": {
                        "description": "Buses",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "type": "array",
                                            "items": {
                                                "$ref": "#/definitions/dto.BusResponse"
                                            }
                                        }
                                    }
                                }
                            ]
                        }
                    }
                }
            }
        },
        "/dashboard/buses/{id}/": {
            "put": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "consumes": [
                    "multipart/form-data"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "buses"
                ],
                "summary": "Update bus",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Bus ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Bus number",
                        "name": "bus_number",
                        "in": "formData"
                    },
                    {
                        "type": "string",
                        "description": "Evening destination",
                        "name": "destination",
                        "in": "formData"
                    },
                    {
                        "type": "string",
                        "description": "Number plate",
                        "name": "number_plate",
                        "in": "formData"
                    },
                    {
                        "type": "string",
                        "description": "HH:MM",
                        "name": "morning_trip_end_time",
                        "in": "formData"
                    },
                    {
                        "type": "string",
                        "description": "HH:MM",
                        "name": "evening_trip_start_time",
                        "in": "formData"
                    },
                    {
                        "type": "file",
                        "description": "Bus photo",
                        "name": "photo",
                        "in": "formData"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Bus updated",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.BusResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "404": {
                        "description": "Bus not found or permission denied",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            },
            "delete": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "buses"
                ],
                "summary": "Delete bus",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Bus ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Bus deleted",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.MessageResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "404": {
                        "description": "Bus not found or permission denied",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/dashboard/complaints/": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "management"
                ],
                "summary": "List complaints",
                "responses": {
                    "200": {
                        "description": "Complaints",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "type": "array",
                                            "items": {
                                                "$ref": "#/definitions/dto.ManagementComplaintEntry"
                                            }
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "403": {
                        "description": "Permission denied",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/dashboard/complaints/{id}/": {
            "patch": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "management"
                ],
                "summary": "Update complaint",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Complaint ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Status and response",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.UpdateComplaintRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Complaint updated",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.MessageResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Invalid status",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Complaint of another management's member",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Complaint not found",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/dashboard/driver/broadcast/": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Emails and pushes the message to every student of the bus and their parents. Delivery failures are not reported.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "driver"
                ],
                "summary": "Broadcast an alert",
                "parameters": [
                    {
                        "description": "Alert",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.BroadcastRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Broadcast sent",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.MessageResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Message required or no bus assigned",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Not a driver",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            },
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "driver"
                ],
                "summary": "Broadcast history",
                "responses": {
                    "200": {
                        "description": "Latest notifications",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "type": "array",
                                            "items": {
                                                "$ref": "#/definitions/dto.BroadcastHistoryEntry"
                                            }
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "403": {
                        "description": "Not a driver",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/dashboard/driver/qr.png": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Renders a freshly signed boarding token for the driver's bus as a PNG image",
                "produces": [
                    "image/png"
                ],
                "tags": [
                    "driver"
                ],
                "summary": "Boarding QR code image",
                "responses": {
                    "200": {
                        "description": "QR code",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "400": {
                        "description": "No bus assigned",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Not a driver",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/dashboard/driver/stats/": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Returns the bus, the current or predicted trip, the route, boarding counts, the student list, alerts and a freshly signed QR token valid for 35 seconds",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "driver"
                ],
                "summary": "Driver dashboard",
                "responses": {
                    "200": {
                        "description": "Driver dashboard",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.DriverStatsResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "403": {
                        "description": "Not a driver",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/dashboard/grades/": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "management"
                ],
                "summary": "List grades",
                "responses": {
                    "200": {
                        "description": "Grades",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "type": "array",
                                            "items": {
                                                "$ref": "#/definitions/dto.GradeEntry"
                                            }
                                        }
                                    }
                                }
                            ]
                        }
                    }
                }
            }
        },
        "/dashboard/stats/": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "A superuser sees global totals with a per-management breakdown. A manager sees their own members.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "management"
                ],
                "summary": "Management stats",
                "responses": {
                    "200": {
                        "description": "Stats",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.ManagementStatsResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "403": {
                        "description": "Permission denied",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/dashboard/student/board/": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Verifies the scanned token and logs the boarding against the bus's active trip. A retried scan for the same trip answers 200 with status already_boarded.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "boarding"
                ],
                "summary": "Board a bus",
                "parameters": [
                    {
                        "description": "Scanned token and optional position",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.BoardRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Already boarded",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.BoardResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "201": {
                        "description": "Boarding recorded",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.BoardResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Expired or invalid token, no active trip, wrong bus",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Not a student",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Bus not found",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/login/": {
            "post": {
                "description": "Authenticates a user by username or email and returns access and refresh tokens with the profile",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "auth"
                ],
                "summary": "User login",
                "parameters": [
                    {
                        "description": "Login credentials",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.LoginRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Login successful",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.AuthResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Invalid request format or blocked account",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Invalid credentials",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/logout/": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Revokes all refresh tokens of the authenticated user",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "auth"
                ],
                "summary": "Logout",
                "responses": {
                    "200": {
                        "description": "Logged out",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.MessageResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/parent/complaints/": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "student",
                    "parent"
                ],
                "summary": "List my complaints",
                "responses": {
                    "200": {
                        "description": "Complaints",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "type": "array",
                                            "items": {
                                                "$ref": "#/definitions/dto.ComplaintEntry"
                                            }
                                        }
                                    }
                                }
                            ]
                        }
                    }
                }
            },
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "student",
                    "parent"
                ],
                "summary": "File a complaint",
                "parameters": [
                    {
                        "description": "Complaint",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.CreateComplaintRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Complaint submitted",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.MessageResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Title and description required",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/parent/dashboard/": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "parent"
                ],
                "summary": "Parent dashboard",
                "responses": {
                    "200": {
                        "description": "Parent dashboard",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.ParentDashboardResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "403": {
                        "description": "Not a parent",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/password-reset/reset-with-otp/": {
            "post": {
                "description": "Sets the new password, deletes the code and revokes the account's refresh tokens",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "auth"
                ],
                "summary": "Reset password with OTP",
                "parameters": [
                    {
                        "description": "Email, code and new password",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.ResetPasswordOTPRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Password reset",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.MessageResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Invalid or expired OTP",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/password-reset/send-otp/": {
            "post": {
                "description": "Creates a 6-digit one-time code for the account and emails it. The code is valid for 10 minutes.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "auth"
                ],
                "summary": "Send password reset OTP",
                "parameters": [
                    {
                        "description": "Account email",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.SendOTPRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OTP sent",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.MessageResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Invalid request format",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Unknown email",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Email could not be sent",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/password-reset/verify-otp/": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "auth"
                ],
                "summary": "Verify password reset OTP",
                "parameters": [
                    {
                        "description": "Email and code",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.VerifyOTPRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OTP verified",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.MessageResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Invalid or expired OTP",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/register/management/": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "management"
                ],
                "summary": "Register management",
                "parameters": [
                    {
                        "description": "Management account",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.RegisterManagementRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Management created",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.MessageResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Missing fields or username taken",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Permission denied",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/register/member/": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Creates the account with a generated password and emails the credentials. A student also gets a linked parent account.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "management"
                ],
                "summary": "Register member",
                "parameters": [
                    {
                        "description": "Member",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.RegisterMemberRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Member created",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.RegisterMemberResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Missing fields, invalid role or username taken",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Permission denied",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/student/complaints/": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "student",
                    "parent"
                ],
                "summary": "List my complaints",
                "responses": {
                    "200": {
                        "description": "Complaints",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "type": "array",
                                            "items": {
                                                "$ref": "#/definitions/dto.ComplaintEntry"
                                            }
                                        }
                                    }
                                }
                            ]
                        }
                    }
                }
            },
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "student",
                    "parent"
                ],
                "summary": "File a complaint",
                "parameters": [
                    {
                        "description": "Complaint",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.CreateComplaintRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Complaint submitted",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.MessageResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Title and description required",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/student/dashboard/": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "student"
                ],
                "summary": "Student dashboard",
                "responses": {
                    "200": {
                        "description": "Student dashboard",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.StudentDashboardResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "403": {
                        "description": "Not a student",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/teacher/alerts/": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "teacher"
                ],
                "summary": "Teacher alerts",
                "responses": {
                    "200": {
                        "description": "Alerts",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "type": "array",
                                            "items": {
                                                "$ref": "#/definitions/dto.TeacherAlertEntry"
                                            }
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "403": {
                        "description": "Not a teacher",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/teacher/dashboard/stats/": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "teacher"
                ],
                "summary": "Teacher dashboard stats",
                "responses": {
                    "200": {
                        "description": "Class boarding stats",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.TeacherStatsResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "403": {
                        "description": "Not a teacher",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/teacher/student/update-status/": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "teacher"
                ],
                "summary": "Update student status",
                "parameters": [
                    {
                        "description": "Student and status",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.UpdateStudentStatusRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Status updated",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.UpdateStudentStatusResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Invalid request",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Not a teacher or student not in class",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Student not found",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/teacher/students/": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "teacher"
                ],
                "summary": "Teacher student list",
                "responses": {
                    "200": {
                        "description": "Students",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "type": "array",
                                            "items": {
                                                "$ref": "#/definitions/dto.TeacherStudentEntry"
                                            }
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "403": {
                        "description": "Not a teacher",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/token/refresh/": {
            "post": {
                "description": "Rotates a valid refresh token and returns a new token pair",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "auth"
                ],
                "summary": "Refresh access token",
                "parameters": [
                    {
                        "description": "Refresh token",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.RefreshTokenRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Token refreshed successfully",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.TokenResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Invalid request format",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Invalid, expired or revoked refresh token",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/trip/bus-location/{id}/": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Drivers, students and teachers may track their own bus, parents their children's buses, and administrators the buses they manage",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "trip"
                ],
                "summary": "Get bus location",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Bus ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Bus location",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.BusLocationResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Invalid bus ID",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Not allowed to track this bus",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Bus not found",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/trip/bus-location/{id}/ws": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Upgrades the connection to a WebSocket that receives a JSON location update every time the driver reports a position. The token may be passed as the ` + "`" + `token` + "`" + ` query parameter.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "trip",
                    "websocket"
                ],
                "summary": "Subscribe to live bus locations",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Bus ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "JWT access token",
                        "name": "token",
                        "in": "query"
                    }
                ],
                "responses": {
                    "101": {
                        "description": "Switching Protocols to WebSocket",
                        "schema": {
                            "$ref": "#/definitions/websocket.LocationUpdate"
                        }
                    },
                    "400": {
                        "description": "Invalid bus ID",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Not allowed to track this bus",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Bus not found",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/trip/end/": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "trip"
                ],
                "summary": "End the active trip",
                "responses": {
                    "200": {
                        "description": "Trip ended",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.MessageResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "No bus assigned or no active trip",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Not a driver",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/trip/start/": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Starts a morning or evening trip for the driver's bus, chosen by the bus's evening start time. Any trip still active on the bus is closed first.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "trip"
                ],
                "summary": "Start a trip",
                "responses": {
                    "200": {
                        "description": "Trip started",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.StartTripResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "No bus assigned",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Not a driver",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/trip/update-location/": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "trip"
                ],
                "summary": "Update bus location",
                "parameters": [
                    {
                        "description": "Current coordinates",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.UpdateLocationRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Location updated",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.MessageResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Missing coordinates or no bus assigned",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Not a driver",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/users/": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "management"
                ],
                "summary": "List users",
                "responses": {
                    "200": {
                        "description": "Users",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "type": "array",
                                            "items": {
                                                "$ref": "#/definitions/dto.UserListEntry"
                                            }
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "403": {
                        "description": "Permission denied",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/users/me/": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Returns the profile with the resolved organization name, the class in charge and, for parents, the children",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "users"
                ],
                "summary": "Get current user profile",
                "responses": {
                    "200": {
                        "description": "Profile retrieved successfully",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.UserProfile"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "401": {
                        "description": "Unauthorized - Invalid or missing token",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "User not found",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            },
            "put": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Updates names, contact details, push token and schedule. Absent fields are left unchanged.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "users"
                ],
                "summary": "Update current user profile",
                "parameters": [
                    {
                        "description": "Profile fields",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.UpdateProfileRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Profile updated successfully",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.UserProfile"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Invalid request format",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/users/{id}/delete/": {
            "delete": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "management"
                ],
                "summary": "Delete user",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "User ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "User deleted",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.MessageResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Cannot delete your own account",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Not your member",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "User not found",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/users/{id}/toggle-block/": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "management"
                ],
                "summary": "Block or unblock user",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "User ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "New state",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.ToggleBlockResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Cannot block your own account",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Not your member",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "User not found",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/users/{id}/update/": {
            "put": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Updates common fields, schedule, class and bus links and the parent of a student. A null class_in_charge or bus clears the link.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "management"
                ],
                "summary": "Update member",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "User ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Fields to change, plus optional class_in_charge and bus ids",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.UpdateMemberRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Member updated",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.MessageResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Invalid request",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Not your member",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "User not found",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "dto.APIResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {
                    "$ref": "#/definitions/dto.ErrorDetail"
                },
                "timestamp": {
                    "type": "string",
                    "example": "2025-04-23T12:01:05.123Z"
                }
            }
        },
        "dto.AuthResponse": {
            "type": "object",
            "properties": {
                "token": {
                    "$ref": "#/definitions/dto.TokenResponse"
                },
                "user": {
                    "$ref": "#/definitions/dto.UserProfile"
                }
            }
        },
        "dto.BoardRequest": {
            "type": "object",
            "properties": {
                "latitude": {
                    "type": "number"
                },
                "longitude": {
                    "type": "number"
                },
                "qr_token": {
                    "type": "string",
                    "example": "3:1a2B3c:Zm9vYmFy"
                }
            }
        },
        "dto.BoardResponse": {
            "type": "object",
            "properties": {
                "bus": {
                    "type": "string",
                    "example": "BUS-12"
                },
                "message": {
                    "type": "string",
                    "example": "Boarding successful!"
                },
                "status": {
                    "type": "string",
                    "example": "already_boarded"
                },
                "time": {
                    "type": "string",
                    "example": "08:05 AM"
                }
            }
        },
        "dto.BoardingCounts": {
            "type": "object",
            "properties": {
                "boarded": {
                    "type": "integer"
                },
                "expected": {
                    "type": "integer"
                }
            }
        },
        "dto.BoardingState": {
            "type": "object",
            "properties": {
                "status": {
                    "type": "string",
                    "example": "Not Boarded"
                }
            }
        },
        "dto.BroadcastHistoryEntry": {
            "type": "object",
            "properties": {
                "created_at": {
                    "type": "string",
                    "example": "Jan 02, 03:04 PM"
                },
                "id": {
                    "type": "integer"
                },
                "message": {
                    "type": "string"
                },
                "title": {
                    "type": "string"
                },
                "type": {
                    "type": "string"
                }
            }
        },
        "dto.BroadcastRequest": {
            "type": "object",
            "properties": {
                "message": {
                    "type": "string",
                    "example": "Running 10 minutes late"
                },
                "phone": {
                    "type": "string",
                    "example": "+15550100"
                },
                "type": {
                    "type": "string",
                    "example": "Delay"
                }
            }
        },
        "dto.BusLocationResponse": {
            "type": "object",
            "properties": {
                "bus_id": {
                    "type": "integer",
                    "example": 3
                },
                "bus_number": {
                    "type": "string",
                    "example": "BUS-12"
                },
                "is_active_trip": {
                    "type": "boolean"
                },
                "last_update": {
                    "type": "string"
                },
                "latitude": {
                    "type": "number"
                },
                "longitude": {
                    "type": "number"
                }
            }
        },
        "dto.BusResponse": {
            "type": "object",
            "properties": {
                "bus_number": {
                    "type": "string"
                },
                "destination": {
                    "type": "string"
                },
                "evening_trip_start_time": {
                    "type": "string"
                },
                "id": {
                    "type": "integer"
                },
                "management": {
                    "type": "integer"
                },
                "morning_trip_end_time": {
                    "type": "string"
                },
                "number_plate": {
                    "type": "string"
                },
                "photo": {
                    "type": "string"
                }
            }
        },
        "dto.ChildStatus": {
            "type": "object",
            "properties": {
                "boarding": {
                    "$ref": "#/definitions/dto.BoardingState"
                },
                "bus": {
                    "$ref": "#/definitions/dto.RiderBusInfo"
                },
                "id": {
                    "type": "integer"
                },
                "name": {
                    "type": "string"
                },
                "trip": {
                    "$ref": "#/definitions/dto.TripStatus"
                }
            }
        },
        "dto.ChildSummary": {
            "type": "object",
            "properties": {
                "bus_id": {
                    "type": "integer"
                },
                "first_name": {
                    "type": "string"
                },
                "id": {
                    "type": "integer"
                },
                "last_name": {
                    "type": "string"
                },
                "username": {
                    "type": "string"
                }
            }
        },
        "dto.ComplaintEntry": {
            "type": "object",
            "properties": {
                "date": {
                    "type": "string",
                    "example": "02 Jan 2006"
                },
                "description": {
                    "type": "string"
                },
                "id": {
                    "type": "integer"
                },
                "response": {
                    "type": "string"
                },
                "status": {
                    "$ref": "#/definitions/models.ComplaintStatus"
                },
                "title": {
                    "type": "string"
                }
            }
        },
        "dto.CreateComplaintRequest": {
            "type": "object",
            "properties": {
                "description": {
                    "type": "string",
                    "example": "The morning bus was 20 minutes late on Monday."
                },
                "title": {
                    "type": "string",
                    "example": "Bus arrived late"
                }
            }
        },
        "dto.DriverBusInfo": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                },
                "number": {
                    "type": "string"
                },
                "plate": {
                    "type": "string"
                },
                "status": {
                    "type": "string",
                    "example": "Active"
                }
            }
        },
        "dto.DriverStatsResponse": {
            "type": "object",
            "properties": {
                "alerts": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.NotificationEntry"
                    }
                },
                "boarding": {
                    "$ref": "#/definitions/dto.BoardingCounts"
                },
                "bus": {
                    "$ref": "#/definitions/dto.DriverBusInfo"
                },
                "location": {
                    "$ref": "#/definitions/dto.LocationInfo"
                },
                "qr_token": {
                    "type": "string"
                },
                "route": {
                    "$ref": "#/definitions/dto.RouteInfo"
                },
                "students": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.DriverStudentEntry"
                    }
                },
                "trip": {
                    "$ref": "#/definitions/dto.TripStatus"
                }
            }
        },
        "dto.DriverStudentEntry": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                },
                "name": {
                    "type": "string"
                },
                "status": {
                    "type": "string",
                    "example": "Boarded"
                },
                "time": {
                    "type": "string",
                    "example": "08:05 AM"
                }
            }
        },
        "dto.ErrorCode": {
            "type": "string",
            "enum": [
                "AUTH_001",
                "AUTH_002",
                "AUTH_003",
                "AUTH_005",
                "AUTH_006",
                "AUTH_007",
                "AUTH_008",
                "AUTH_009",
                "RES_001",
                "RES_002",
                "RES_004",
                "BUS_001",
                "BUS_002",
                "BUS_003",
                "BUS_004",
                "BUS_005",
                "BUS_006",
                "VAL_001",
                "VAL_002",
                "SRV_001",
                "SRV_002",
                "SRV_003"
            ],
            "x-enum-varnames": [
                "ErrorCodeInvalidCredentials",
                "ErrorCodeAccountBlocked",
                "ErrorCodeInvalidOTP",
                "ErrorCodeInvalidToken",
                "ErrorCodeExpiredToken",
                "ErrorCodeTokenNotFound",
                "ErrorCodeUnauthorized",
                "ErrorCodeForbidden",
                "ErrorCodeResourceNotFound",
                "ErrorCodeResourceAlreadyExists",
                "ErrorCodeConflict",
                "ErrorCodeNoBusAssigned",
                "ErrorCodeNoActiveTrip",
                "ErrorCodeQRExpired",
                "ErrorCodeQRInvalid",
                "ErrorCodeNotAssignedBus",
                "ErrorCodeMissingLocation",
                "ErrorCodeValidationFailed",
                "ErrorCodeBadRequest",
                "ErrorCodeInternalServer",
                "ErrorCodeDatabaseError",
                "ErrorCodeExternalServiceError"
            ]
        },
        "dto.ErrorDetail": {
            "type": "object",
            "properties": {
                "code": {
                    "allOf": [
                        {
                            "$ref": "#/definitions/dto.ErrorCode"
                        }
                    ],
                    "example": "BUS_002"
                },
                "details": {},
                "field": {
                    "type": "string",
                    "example": "qr_token"
                },
                "message": {
                    "type": "string",
                    "example": "No active trip for this bus."
                },
                "severity": {
                    "allOf": [
                        {
                            "$ref": "#/definitions/dto.ErrorSeverity"
                        }
                    ],
                    "example": "ERROR"
                }
            }
        },
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "$ref": "#/definitions/dto.ErrorDetail"
                },
                "success": {
                    "type": "boolean",
                    "example": false
                },
                "timestamp": {
                    "type": "string",
                    "example": "2025-04-23T12:01:05.123Z"
                }
            }
        },
        "dto.ErrorSeverity": {
            "type": "string",
            "enum": [
                "INFO",
                "WARNING",
                "ERROR",
                "CRITICAL"
            ],
            "x-enum-varnames": [
                "ErrorSeverityInfo",
                "ErrorSeverityWarning",
                "ErrorSeverityError",
                "ErrorSeverityCritical"
            ]
        },
        "dto.GradeEntry": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                },
                "name": {
                    "type": "string",
                    "example": "10 - A"
                }
            }
        },
        "dto.LocationInfo": {
            "type": "object",
            "properties": {
                "gps": {
                    "type": "boolean"
                },
                "lastUpdated": {
                    "type": "string",
                    "example": "08:15 AM"
                }
            }
        },
        "dto.LoginRequest": {
            "type": "object",
            "required": [
                "password",
                "username"
            ],
            "properties": {
                "password": {
                    "type": "string"
                },
                "username": {
                    "type": "string"
                }
            }
        },
        "dto.ManagementBreakdownEntry": {
            "type": "object",
            "properties": {
                "active_users": {
                    "type": "integer"
                },
                "email": {
                    "type": "string"
                },
                "id": {
                    "type": "integer"
                },
                "username": {
                    "type": "string"
                }
            }
        },
        "dto.ManagementComplaintEntry": {
            "type": "object",
            "properties": {
                "date": {
                    "type": "string",
                    "example": "2006-01-02"
                },
                "description": {
                    "type": "string"
                },
                "id": {
                    "type": "integer"
                },
                "response": {
                    "type": "string"
                },
                "status": {
                    "$ref": "#/definitions/models.ComplaintStatus"
                },
                "student_email": {
                    "type": "string"
                },
                "student_id": {
                    "type": "integer"
                },
                "student_name": {
                    "type": "string"
                },
                "title": {
                    "type": "string"
                }
            }
        },
        "dto.ManagementStatsResponse": {
            "type": "object",
            "properties": {
                "active_users": {
                    "type": "integer"
                },
                "management_breakdown": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.ManagementBreakdownEntry"
                    }
                },
                "management_users": {
                    "type": "integer"
                },
                "open_complaints": {
                    "type": "integer"
                },
                "pending_institutions": {
                    "type": "integer"
                },
                "revenue": {
                    "type": "integer"
                },
                "total_buses": {
                    "type": "integer"
                },
                "total_users": {
                    "type": "integer"
                },
                "verified_institutions": {
                    "type": "integer"
                }
            }
        },
        "dto.MessageResponse": {
            "type": "object",
            "properties": {
                "message": {
                    "type": "string",
                    "example": "Trip ended"
                }
            }
        },
        "dto.NotificationEntry": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                },
                "message": {
                    "type": "string"
                },
                "time": {
                    "type": "string",
                    "example": "08:05 AM"
                },
                "title": {
                    "type": "string"
                }
            }
        },
        "dto.ParentDashboardResponse": {
            "type": "object",
            "properties": {
                "any_boarded": {
                    "type": "boolean"
                },
                "children": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.ChildStatus"
                    }
                },
                "notifications": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.NotificationEntry"
                    }
                }
            }
        },
        "dto.ParentDetails": {
            "type": "object",
            "required": [
                "email",
                "name"
            ],
            "properties": {
                "email": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                }
            }
        },
        "dto.RefreshTokenRequest": {
            "type": "object",
            "required": [
                "refresh"
            ],
            "properties": {
                "refresh": {
                    "type": "string"
                }
            }
        },
        "dto.RegisterManagementRequest": {
            "type": "object",
            "properties": {
                "email": {
                    "type": "string"
                },
                "organization_name": {
                    "type": "string"
                },
                "phone": {
                    "type": "string"
                },
                "username": {
                    "type": "string"
                }
            }
        },
        "dto.RegisterMemberRequest": {
            "type": "object",
            "properties": {
                "bus": {
                    "type": "integer"
                },
                "class_in_charge": {
                    "type": "integer"
                },
                "email": {
                    "type": "string"
                },
                "parent_details": {
                    "$ref": "#/definitions/dto.ParentDetails"
                },
                "phone": {
                    "type": "string"
                },
                "role": {
                    "type": "string"
                },
                "username": {
                    "type": "string"
                }
            }
        },
        "dto.RegisterMemberResponse": {
            "type": "object",
            "properties": {
                "member_password": {
                    "type": "string"
                },
                "member_username": {
                    "type": "string"
                },
                "message": {
                    "type": "string",
                    "example": "Student account created successfully"
                },
                "parent_password": {
                    "type": "string"
                },
                "parent_username": {
                    "type": "string"
                }
            }
        },
        "dto.ResetPasswordOTPRequest": {
            "type": "object",
            "required": [
                "email",
                "otp",
                "password"
            ],
            "properties": {
                "email": {
                    "type": "string"
                },
                "otp": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                }
            }
        },
        "dto.RiderBusInfo": {
            "type": "object",
            "properties": {
                "driver_name": {
                    "type": "string",
                    "example": "N/A"
                },
                "id": {
                    "type": "integer"
                },
                "number": {
                    "type": "string"
                },
                "plate": {
                    "type": "string"
                }
            }
        },
        "dto.RouteInfo": {
            "type": "object",
            "properties": {
                "end": {
                    "type": "string",
                    "example": "College Campus"
                },
                "name": {
                    "type": "string",
                    "example": "Morning Pickup"
                },
                "start": {
                    "type": "string",
                    "example": "Pickups"
                }
            }
        },
        "dto.SendOTPRequest": {
            "type": "object",
            "required": [
                "email"
            ],
            "properties": {
                "email": {
                    "type": "string"
                }
            }
        },
        "dto.StartTripResponse": {
            "type": "object",
            "properties": {
                "message": {
                    "type": "string",
                    "example": "Morning Trip started"
                },
                "trip_id": {
                    "type": "integer",
                    "example": 12
                },
                "trip_type": {
                    "allOf": [
                        {
                            "$ref": "#/definitions/models.TripType"
                        }
                    ],
                    "example": "morning"
                }
            }
        },
        "dto.StudentDashboardResponse": {
            "type": "object",
            "properties": {
                "boarding": {
                    "$ref": "#/definitions/dto.BoardingState"
                },
                "bus": {
                    "$ref": "#/definitions/dto.RiderBusInfo"
                },
                "notifications": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.NotificationEntry"
                    }
                },
                "trip": {
                    "$ref": "#/definitions/dto.TripStatus"
                }
            }
        },
        "dto.TeacherAlertEntry": {
            "type": "object",
            "properties": {
                "details": {
                    "type": "string"
                },
                "id": {
                    "type": "integer"
                },
                "student": {
                    "type": "string"
                },
                "time": {
                    "type": "string",
                    "example": "04:00 PM"
                },
                "type": {
                    "type": "string",
                    "example": "warning"
                }
            }
        },
        "dto.TeacherStatsResponse": {
            "type": "object",
            "properties": {
                "boarded": {
                    "type": "integer"
                },
                "pending_alerts": {
                    "type": "integer"
                },
                "total_students": {
                    "type": "integer"
                },
                "trip_status": {
                    "type": "string",
                    "example": "Morning Trip Ongoing"
                },
                "trip_type": {
                    "type": "string",
                    "example": "morning"
                }
            }
        },
        "dto.TeacherStudentEntry": {
            "type": "object",
            "properties": {
                "class": {
                    "type": "string",
                    "example": "10 - A"
                },
                "id": {
                    "type": "integer"
                },
                "image": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "status": {
                    "type": "string",
                    "example": "Boarded"
                },
                "time": {
                    "type": "string"
                }
            }
        },
        "dto.ToggleBlockResponse": {
            "type": "object",
            "properties": {
                "is_active": {
                    "type": "boolean"
                },
                "message": {
                    "type": "string",
                    "example": "User blocked successfully"
                }
            }
        },
        "dto.TokenResponse": {
            "type": "object",
            "properties": {
                "access": {
                    "type": "string"
                },
                "expires_in": {
                    "type": "integer"
                },
                "refresh": {
                    "type": "string"
                },
                "refresh_expires_in": {
                    "type": "integer"
                },
                "token_type": {
                    "type": "string",
                    "example": "Bearer"
                }
            }
        },
        "dto.TripStatus": {
            "type": "object",
            "properties": {
                "status": {
                    "type": "string",
                    "example": "Ongoing"
                },
                "type": {
                    "type": "string",
                    "example": "Morning"
                }
            }
        },
        "dto.UpdateComplaintRequest": {
            "type": "object",
            "properties": {
                "response": {
                    "type": "string"
                },
                "status": {
                    "$ref": "#/definitions/models.ComplaintStatus"
                }
            }
        },
        "dto.UpdateLocationRequest": {
            "type": "object",
            "properties": {
                "latitude": {
                    "type": "number",
                    "example": 12.9716
                },
                "longitude": {
                    "type": "number",
                    "example": 77.5946
                }
            }
        },
        "dto.UpdateMemberRequest": {
            "type": "object",
            "properties": {
                "email": {
                    "type": "string"
                },
                "evening_departure_time": {
                    "type": "string"
                },
                "morning_arrival_time": {
                    "type": "string"
                },
                "organization_name": {
                    "type": "string"
                },
                "parent_details": {
                    "$ref": "#/definitions/dto.UpdateParentDetails"
                },
                "phone": {
                    "type": "string"
                },
                "username": {
                    "type": "string"
                }
            }
        },
        "dto.UpdateParentDetails": {
            "type": "object",
            "properties": {
                "email": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                }
            }
        },
        "dto.UpdateProfileRequest": {
            "type": "object",
            "properties": {
                "email": {
                    "type": "string"
                },
                "evening_departure_time": {
                    "type": "string"
                },
                "first_name": {
                    "type": "string"
                },
                "last_name": {
                    "type": "string"
                },
                "morning_arrival_time": {
                    "type": "string"
                },
                "organization_name": {
                    "type": "string"
                },
                "phone": {
                    "type": "string"
                },
                "push_token": {
                    "type": "string"
                }
            }
        },
        "dto.UpdateStudentStatusRequest": {
            "type": "object",
            "required": [
                "status",
                "student_id"
            ],
            "properties": {
                "status": {
                    "type": "string"
                },
                "student_id": {
                    "type": "integer"
                }
            }
        },
        "dto.UpdateStudentStatusResponse": {
            "type": "object",
            "properties": {
                "message": {
                    "type": "string",
                    "example": "Status updated to Absent"
                },
                "success": {
                    "type": "boolean"
                }
            }
        },
        "dto.UserListEntry": {
            "type": "object",
            "properties": {
                "email": {
                    "type": "string"
                },
                "id": {
                    "type": "integer"
                },
                "is_active": {
                    "type": "boolean"
                },
                "organization_name": {
                    "type": "string"
                },
                "phone": {
                    "type": "string"
                },
                "role": {
                    "$ref": "#/definitions/models.Role"
                },
                "username": {
                    "type": "string"
                }
            }
        },
        "dto.UserProfile": {
            "type": "object",
            "properties": {
                "bus_id": {
                    "type": "integer"
                },
                "children": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.ChildSummary"
                    }
                },
                "class_in_charge_name": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "evening_departure_time": {
                    "type": "string"
                },
                "first_name": {
                    "type": "string"
                },
                "id": {
                    "type": "integer"
                },
                "last_name": {
                    "type": "string"
                },
                "morning_arrival_time": {
                    "type": "string"
                },
                "phone": {
                    "type": "string"
                },
                "push_token": {
                    "type": "string"
                },
                "resolved_organization_name": {
                    "type": "string"
                },
                "role": {
                    "$ref": "#/definitions/models.Role"
                },
                "username": {
                    "type": "string"
                }
            }
        },
        "dto.VerifyOTPRequest": {
            "type": "object",
            "required": [
                "email",
                "otp"
            ],
            "properties": {
                "email": {
                    "type": "string"
                },
                "otp": {
                    "type": "string"
                }
            }
        },
        "models.ComplaintStatus": {
            "type": "string",
            "enum": [
                "submitted",
                "in_action",
                "resolved"
            ],
            "x-enum-varnames": [
                "ComplaintSubmitted",
                "ComplaintInAction",
                "ComplaintResolved"
            ]
        },
        "models.Role": {
            "type": "string",
            "enum": [
                "superuser",
                "management",
                "driver",
                "teacher",
                "student",
                "parent"
            ],
            "x-enum-varnames": [
                "RoleSuperuser",
                "RoleManagement",
                "RoleDriver",
                "RoleTeacher",
                "RoleStudent",
                "RoleParent"
            ]
        },
        "models.TripType": {
            "type": "string",
            "enum": [
                "morning",
                "evening"
            ],
            "x-enum-varnames": [
                "TripMorning",
                "TripEvening"
            ]
        },
        "websocket.LocationUpdate": {
            "type": "object",
            "properties": {
                "bus_id": {
                    "type": "integer"
                },
                "bus_number": {
                    "type": "string"
                },
                "is_active_trip": {
                    "type": "boolean"
                },
                "last_update": {
                    "type": "string"
                },
                "latitude": {
                    "type": "number"
                },
                "longitude": {
                    "type": "number"
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT token for authorization",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "EduTransit API",
	Description:      "School bus tracking: trips, QR boarding, live locations, alerts and administration",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
