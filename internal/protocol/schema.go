package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"pathways_backend/internal/model"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const (
	submissionSchemaName = "submission"
	sessionSchemaName    = "session"
	gradeSchemaName      = "grade"
	progressSchemaName   = "progress"
)

const moduleProgressDef = `{
	"type": "object",
	"required": ["moduleBadge", "moduleName", "progBar", "progress", "tada"],
	"properties": {
		"moduleBadge": {"type": "string"},
		"moduleName": {"type": "string"},
		"progBar": {"type": "integer", "minimum": 0, "maximum": 100},
		"progress": {"type": "string"},
		"nextUnitHRef": {"type": ["string", "null"]},
		"nextUnitName": {"type": ["string", "null"]},
		"tada": {"type": "boolean"}
	}
}`

var schemaSources = map[string]string{
	submissionSchemaName: `{
		"type": "object",
		"maxProperties": 256,
		"additionalProperties": {
			"type": "array",
			"maxItems": 64,
			"items": {"type": "string", "minLength": 1, "maxLength": 64}
		}
	}`,
	sessionSchemaName: `{
		"type": "object",
		"required": ["complete", "assessType", "points"],
		"properties": {
			"complete": {"type": "boolean"},
			"assessType": {"enum": ["quiz", "lab"]},
			"points": {"type": "integer", "minimum": 0},
			"questions": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["id", "text", "count", "answers"],
					"properties": {
						"id": {"type": "string"},
						"text": {"type": "string"},
						"count": {"type": "integer", "minimum": 1},
						"answers": {
							"type": "array",
							"items": {
								"type": "object",
								"required": ["id", "text"],
								"properties": {"id": {"type": "string"}, "text": {"type": "string"}}
							}
						}
					}
				}
			},
			"setup": {"type": "string"},
			"activity": {"type": "string"},
			"moduleProgress": ` + moduleProgressDef + `
		},
		"if": {"properties": {"complete": {"const": true}}},
		"then": {"required": ["moduleProgress"]}
	}`,
	gradeSchemaName: `{
		"type": "object",
		"required": ["status", "points"],
		"properties": {
			"status": {"enum": ["correct", "error"]},
			"points": {"type": "integer", "minimum": 0},
			"errors": {"type": "integer", "minimum": 0},
			"errorMsg": {"type": "string"},
			"incorrect": {
				"type": "object",
				"additionalProperties": {"type": "array", "items": {"type": "string"}}
			},
			"moduleProgress": ` + moduleProgressDef + `
		},
		"if": {"properties": {"status": {"const": "correct"}}},
		"then": {"required": ["moduleProgress"]},
		"else": {"required": ["incorrect"]}
	}`,
	// success envelope around a progress snapshot
	progressSchemaName: `{
		"type": "object",
		"required": ["code", "data"],
		"properties": {
			"code": {"const": 200},
			"message": {"type": "string"},
			"data": {
				"type": "object",
				"required": ["percentComplete", "earnedTime", "totalTime", "earnedPoints", "totalPoints", "label"],
				"properties": {
					"percentComplete": {"type": "integer", "minimum": 0, "maximum": 100},
					"earnedTime": {"type": "integer", "minimum": 0},
					"totalTime": {"type": "integer", "minimum": 0},
					"earnedPoints": {"type": "integer", "minimum": 0},
					"totalPoints": {"type": "integer", "minimum": 0},
					"label": {"type": "string"}
				}
			}
		}
	}`,
}

// compiled schemas by name
var schemaCache sync.Map

// ValidationError reports a payload rejected at the trust boundary.
type ValidationError struct {
	Schema string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s payload invalid: %v", e.Schema, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func getCompiledSchema(name string) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	src, ok := schemaSources[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(src)))
	if err != nil {
		return nil, fmt.Errorf("parse schema %q: %w", name, err)
	}

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://pathways/%s.json", name)
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	schemaCache.Store(name, compiled)
	return compiled, nil
}

// decode validates raw against the named schema and then decodes it into out.
func decode(name string, raw []byte, out any) error {
	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &ValidationError{Schema: name, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	compiled, err := getCompiledSchema(name)
	if err != nil {
		return err
	}
	if err := compiled.Validate(parsed); err != nil {
		return &ValidationError{Schema: name, Err: err}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &ValidationError{Schema: name, Err: err}
	}
	return nil
}

// ParseSubmission validates a grading request body. An empty body is an empty submission.
func ParseSubmission(raw []byte) (Submission, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Submission{}, nil
	}
	sub := Submission{}
	if err := decode(submissionSchemaName, raw, &sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func ParseSessionView(raw []byte) (SessionView, error) {
	var view SessionView
	err := decode(sessionSchemaName, raw, &view)
	return view, err
}

func ParseGradeResponse(raw []byte) (GradeResponse, error) {
	var resp GradeResponse
	err := decode(gradeSchemaName, raw, &resp)
	return resp, err
}

func ParseProgress(raw []byte) (model.ProgressSnapshot, error) {
	var env struct {
		Code int                    `json:"code"`
		Data model.ProgressSnapshot `json:"data"`
	}
	if err := decode(progressSchemaName, raw, &env); err != nil {
		return model.ProgressSnapshot{}, err
	}
	return env.Data, nil
}
