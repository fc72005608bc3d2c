// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petstoreYAML = `
openapi: 3.0.3
info:
  title: Petstore
  version: 1.0.0
  description: A small pet store API
servers:
  - url: https://api.example.com/v1
paths:
  /pets:
    get:
      summary: List pets
      operationId: listPets
      tags: [pets]
      parameters:
        - name: limit
          in: query
          required: false
          schema:
            type: integer
      responses:
        "200":
          description: A list of pets
          content:
            application/json:
              schema:
                type: array
              examples:
                default:
                  summary: two pets
                  value: [{"id": 1}, {"id": 2}]
        "400":
          description: Bad request
    post:
      summary: Create a pet
      tags: [pets]
      requestBody:
        content:
          application/json:
            schema:
              type: object
      responses:
        "201":
          description: Created
  /pets/{petId}:
    delete:
      summary: Delete a pet
      parameters:
        - name: petId
          in: path
          required: true
          schema:
            type: string
      responses:
        "204":
          description: Deleted
`

func TestParseYAML(t *testing.T) {
	doc, err := Parse([]byte(petstoreYAML))
	require.NoError(t, err)

	assert.Equal(t, "Petstore", doc.Title)
	assert.Equal(t, "1.0.0", doc.Version)
	assert.Equal(t, "A small pet store API", doc.Description)
	assert.Equal(t, "https://api.example.com/v1", doc.BaseURL)
	assert.Len(t, doc.Endpoints, 3)
}

func TestParseJSON(t *testing.T) {
	content := `{
		"openapi": "3.0.1",
		"info": {"title": "JSON API", "version": "2.0"},
		"paths": {
			"/ping": {
				"get": {"summary": "Ping", "responses": {"200": {"description": "pong"}}}
			}
		}
	}`
	doc, err := Parse([]byte(content))
	require.NoError(t, err)
	assert.Equal(t, "JSON API", doc.Title)
	require.Len(t, doc.Endpoints, 1)
	assert.Equal(t, "GET /ping", doc.Endpoints[0].ID())
}

func TestParseEndpointDetails(t *testing.T) {
	doc, err := Parse([]byte(petstoreYAML))
	require.NoError(t, err)

	var list *Endpoint
	for i := range doc.Endpoints {
		if doc.Endpoints[i].ID() == "GET /pets" {
			list = &doc.Endpoints[i]
		}
	}
	require.NotNil(t, list)

	assert.Equal(t, "listPets", list.OperationID)
	assert.Equal(t, []string{"pets"}, list.Tags)

	limit, ok := list.QueryParams["limit"]
	require.True(t, ok)
	assert.False(t, limit.Required)
	assert.Equal(t, "integer", limit.Schema["type"])

	require.Contains(t, list.Responses, "200")
	require.Contains(t, list.ResponseExamples, "200")
	assert.Equal(t, "default", list.ResponseExamples["200"][0].Name)
	assert.Equal(t, "application/json", list.ResponseExamples["200"][0].MediaType)

	var del *Endpoint
	for i := range doc.Endpoints {
		if doc.Endpoints[i].Method == MethodDelete {
			del = &doc.Endpoints[i]
		}
	}
	require.NotNil(t, del)
	petID, ok := del.PathParams["petId"]
	require.True(t, ok)
	assert.True(t, petID.Required)
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "not yaml or json",
			content: "{{{{",
			wantErr: ErrInvalidFormat,
		},
		{
			name:    "missing openapi field",
			content: `{"info": {"title": "t", "version": "1"}, "paths": {}}`,
			wantErr: ErrMissingField,
		},
		{
			name:    "missing paths",
			content: `{"openapi": "3.0.0", "info": {"title": "t", "version": "1"}}`,
			wantErr: ErrMissingField,
		},
		{
			name:    "missing info title",
			content: `{"openapi": "3.0.0", "info": {"version": "1"}, "paths": {}}`,
			wantErr: ErrMissingField,
		},
		{
			name:    "swagger 2.0 rejected",
			content: `{"openapi": "2.0", "info": {"title": "t", "version": "1"}, "paths": {}}`,
			wantErr: ErrUnsupportedVersion,
		},
		{
			name:    "openapi 3.1 rejected",
			content: `{"openapi": "3.1.0", "info": {"title": "t", "version": "1"}, "paths": {}}`,
			wantErr: ErrUnsupportedVersion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseSkipsMalformedPathItems(t *testing.T) {
	content := `
openapi: 3.0.0
info:
  title: Mixed
  version: "1"
paths:
  /ok:
    get:
      summary: fine
      responses:
        "200":
          description: ok
  /broken: "not an object"
`
	doc, err := Parse([]byte(content))
	require.NoError(t, err)
	require.Len(t, doc.Endpoints, 1)
	assert.Equal(t, "GET /ok", doc.Endpoints[0].ID())
}

func TestParseIgnoresNonOperationKeys(t *testing.T) {
	content := `
openapi: 3.0.2
info:
  title: Keys
  version: "1"
paths:
  /thing:
    parameters:
      - name: shared
        in: query
    description: a path level description
    get:
      responses:
        "200":
          description: ok
`
	doc, err := Parse([]byte(content))
	require.NoError(t, err)
	assert.Len(t, doc.Endpoints, 1)
}

func TestSplitMarkdown(t *testing.T) {
	md := "# API Guide\n\nIntro paragraph.\n\n## Authentication\n\nUse a bearer token.\n\n## Endpoints\n\nGET /pets returns pets."
	chunks, err := SplitMarkdown(md)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	joined := ""
	for _, c := range chunks {
		joined += c
	}
	assert.Contains(t, joined, "Authentication")
}
