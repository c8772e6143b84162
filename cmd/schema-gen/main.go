package main

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/safedep/safeguard/core/check"
	"github.com/safedep/safeguard/core/report"
)

const schemaOutputPath = "schema/outcome.schema.json"

type jsonSchema struct {
	Schema      string                `json:"$schema"`
	ID          string                `json:"$id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Type        string                `json:"type"`
	Properties  map[string]property   `json:"properties"`
	Required    []string              `json:"required"`
	Defs        map[string]definition `json:"$defs,omitempty"`
}

type property struct {
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	Format      string   `json:"format,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Ref         string   `json:"$ref,omitempty"`
	Items       *items   `json:"items,omitempty"`
}

type items struct {
	Type string `json:"type,omitempty"`
	Ref  string `json:"$ref,omitempty"`
}

type definition struct {
	Type        string              `json:"type"`
	Description string              `json:"description,omitempty"`
	Properties  map[string]property `json:"properties"`
	Required    []string            `json:"required,omitempty"`
}

const reportRef = "#/$defs/report"

func main() {
	schema := generateOutcomeSchema()

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal schema: %v\n", err)
		os.Exit(1)
	}

	data = append(data, '\n')

	if err := os.MkdirAll("schema", 0755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create schema directory: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(schemaOutputPath, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Schema written to %s\n", schemaOutputPath)
}

func generateOutcomeSchema() jsonSchema {
	props, required := structProperties(reflect.TypeOf(report.Outcome{}))

	props["operation"] = property{
		Type:        "string",
		Description: "The caller operation that triggered the run.",
		Enum:        operationValues(),
	}
	props["kind"] = property{
		Type:        "string",
		Description: "The check kind of a single-check run.",
		Enum:        kindValues(),
	}
	props["primary"] = property{
		Ref:         reportRef,
		Description: "The report that best summarises the run.",
	}
	props["reports"] = property{
		Type:        "array",
		Description: "Every disclosed violation in detection order.",
		Items:       &items{Ref: reportRef},
	}

	reportProps, reportRequired := structProperties(reflect.TypeOf(report.Report{}))
	reportProps["kind"] = property{Type: "string", Enum: kindValues()}
	reportProps["type"] = property{Type: "string", Enum: severityValues()}

	return jsonSchema{
		Schema:      "https://json-schema.org/draft/2020-12/schema",
		ID:          report.OutcomeSchemaURL,
		Title:       "Safeguard Outcome",
		Description: "The single result delivered for every triggered integrity check operation.",
		Type:        "object",
		Properties:  props,
		Required:    required,
		Defs: map[string]definition{
			"report": {
				Type:        "object",
				Description: "One disclosed violation.",
				Properties:  reportProps,
				Required:    reportRequired,
			},
		},
	}
}

func structProperties(t reflect.Type) (map[string]property, []string) {
	props := make(map[string]property)
	var required []string

	for i := range t.NumField() {
		field := t.Field(i)
		jsonTag := field.Tag.Get("json")
		if jsonTag == "" || jsonTag == "-" {
			continue
		}

		name, opts := parseJSONTag(jsonTag)
		props[name] = fieldToProperty(field)

		if !strings.Contains(opts, "omitempty") {
			required = append(required, name)
		}
	}

	return props, required
}

func parseJSONTag(tag string) (string, string) {
	name, opts, _ := strings.Cut(tag, ",")
	return name, opts
}

func fieldToProperty(field reflect.StructField) property {
	prop := property{}

	switch field.Type {
	case reflect.TypeOf(uuid.UUID{}):
		prop.Type = "string"
		prop.Format = "uuid"
	case reflect.TypeOf(time.Time{}):
		prop.Type = "string"
		prop.Format = "date-time"
	default:
		switch field.Type.Kind() {
		case reflect.String:
			prop.Type = "string"
		case reflect.Int, reflect.Int64:
			prop.Type = "integer"
		case reflect.Bool:
			prop.Type = "boolean"
		case reflect.Slice:
			prop.Type = "array"
		case reflect.Ptr, reflect.Struct:
			prop.Type = "object"
		}
	}

	return prop
}

func kindValues() []string {
	all := check.All()
	values := make([]string, len(all))
	for i, k := range all {
		values[i] = k.Key()
	}
	return values
}

func operationValues() []string {
	return []string{
		string(report.OperationStart),
		string(report.OperationCheckAll),
		string(report.OperationCheck),
	}
}

func severityValues() []string {
	return []string{
		string(report.SeverityWarning),
		string(report.SeverityError),
	}
}
