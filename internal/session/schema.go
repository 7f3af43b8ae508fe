package session

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/noah-isme/courseforge-portal/internal/models"
)

//go:embed user.schema.json
var userSchemaSource string

const userSchemaURL = "https://courseforge.local/schemas/session-user.json"

func compileUserSchema() (*jsonschema.Schema, error) {
	schema, err := jsonschema.CompileString(userSchemaURL, userSchemaSource)
	if err != nil {
		return nil, fmt.Errorf("compile session user schema: %w", err)
	}
	return schema, nil
}

// decodeUser parses a persisted user blob, rejecting anything the schema does not accept.
func decodeUser(schema *jsonschema.Schema, raw string) (models.User, error) {
	var doc interface{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return models.User{}, fmt.Errorf("parse persisted user: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return models.User{}, fmt.Errorf("persisted user does not match schema: %w", err)
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return models.User{}, fmt.Errorf("decode persisted user: %w", err)
	}
	return user, nil
}
