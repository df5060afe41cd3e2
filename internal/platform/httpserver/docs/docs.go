// Package docs registers the leadership API description with swag so that
// http-swagger can serve it at /swagger/doc.json.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/v1/elections": {
            "get": {"summary": "List elections", "tags": ["elections"], "responses": {"200": {"description": "OK"}}},
            "post": {"summary": "Create an election", "tags": ["elections"], "responses": {"201": {"description": "Created"}, "400": {"description": "Invalid input or window"}, "404": {"description": "Position not found"}}}
        },
        "/v1/elections/{election_id}": {
            "get": {"summary": "Get an election", "tags": ["elections"], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}
        },
        "/v1/elections/{election_id}/status": {
            "post": {"summary": "Transition election status", "tags": ["elections"], "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid transition"}}}
        },
        "/v1/elections/{election_id}/candidates": {
            "get": {"summary": "List candidates", "tags": ["candidates"], "responses": {"200": {"description": "OK"}}},
            "post": {"summary": "Nominate a candidate", "tags": ["candidates"], "responses": {"201": {"description": "Created"}, "400": {"description": "Nominations closed or duplicate"}}}
        },
        "/v1/candidates/{candidate_id}/review": {
            "post": {"summary": "Approve or reject a candidate", "tags": ["candidates"], "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid review state"}}}
        },
        "/v1/candidates/{candidate_id}/withdraw": {
            "post": {"summary": "Withdraw a candidate", "tags": ["candidates"], "responses": {"200": {"description": "OK"}}}
        },
        "/v1/elections/{election_id}/votes": {
            "post": {"summary": "Cast a vote", "tags": ["votes"], "responses": {"201": {"description": "Created"}, "400": {"description": "Voting closed or invalid candidate"}, "409": {"description": "Already voted"}}}
        },
        "/v1/elections/{election_id}/results": {
            "get": {"summary": "Tally an election", "tags": ["votes"], "responses": {"200": {"description": "OK"}}}
        },
        "/v1/elections/{election_id}/finalize": {
            "post": {"summary": "Finalize an election and appoint the winner", "tags": ["elections"], "responses": {"200": {"description": "OK"}, "409": {"description": "Already finalized or position occupied"}}}
        },
        "/v1/appointments": {
            "get": {"summary": "List appointments", "tags": ["appointments"], "responses": {"200": {"description": "OK"}}},
            "post": {"summary": "Create a manual appointment", "tags": ["appointments"], "responses": {"201": {"description": "Created"}, "409": {"description": "Position occupied"}}}
        },
        "/v1/appointments/{appointment_id}": {
            "get": {"summary": "Get an appointment", "tags": ["appointments"], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "delete": {"summary": "Hard-delete an appointment", "tags": ["appointments"], "responses": {"204": {"description": "Deleted"}, "403": {"description": "Operator capability required"}}}
        },
        "/v1/appointments/{appointment_id}/terminate": {
            "post": {"summary": "Terminate an appointment", "tags": ["appointments"], "responses": {"200": {"description": "OK"}, "409": {"description": "Not active"}}}
        },
        "/v1/appointments/{appointment_id}/remove": {
            "post": {"summary": "Remove an appointment holder", "tags": ["appointments"], "responses": {"200": {"description": "OK"}, "409": {"description": "Not active"}}}
        },
        "/v1/positions": {
            "get": {"summary": "List positions", "tags": ["positions"], "responses": {"200": {"description": "OK"}}}
        },
        "/v1/positions/{position_id}/holder": {
            "get": {"summary": "Current holder of a seat", "tags": ["positions"], "responses": {"200": {"description": "OK"}}}
        },
        "/v1/positions/{position_id}/history": {
            "get": {"summary": "Appointment history of a seat", "tags": ["positions"], "responses": {"200": {"description": "OK"}}}
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Leadership Service API",
	Description:      "Elections, candidacies, votes and leadership appointments.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
