package extraction

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrMalformedResponse is returned when backend output cannot be read as an
// extraction object at all.
var ErrMalformedResponse = errors.New("malformed extraction response")

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://readmebot.local/schemas/extraction.json"

var schema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		panic(fmt.Sprintf("adding extraction schema: %v", err))
	}
	s, err := c.Compile(schemaURL)
	if err != nil {
		panic(fmt.Sprintf("compiling extraction schema: %v", err))
	}
	return s
}

// Defect records a top-level field that failed the schema and was dropped.
type Defect struct {
	Field  string
	Reason string
}

func (d Defect) String() string { return d.Field + ": " + d.Reason }

// Parse decodes raw backend output into a Result. Output that is not a JSON
// object fails with ErrMalformedResponse. Fields that violate the schema are
// reported as defects and treated as empty; the rest of the object is kept.
func Parse(raw string) (Result, []Defect, error) {
	body := CleanJSONBlock(raw)

	var doc map[string]any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return Result{}, nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if doc == nil {
		return Result{}, nil, fmt.Errorf("%w: not an object", ErrMalformedResponse)
	}

	defects, err := checkSchema(doc)
	if err != nil {
		return Result{}, nil, err
	}
	for _, d := range defects {
		delete(doc, d.Field)
	}

	clean, err := json.Marshal(doc)
	if err != nil {
		return Result{}, nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	var r Result
	if err := json.Unmarshal(clean, &r); err != nil {
		return Result{}, nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return r, defects, nil
}

// checkSchema groups schema violations by the top-level key they occur under.
func checkSchema(doc map[string]any) ([]Defect, error) {
	err := schema.Validate(doc)
	if err == nil {
		return nil, nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return nil, fmt.Errorf("validating extraction: %w", err)
	}

	byField := make(map[string]string)
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			if field := topLevelKey(e.InstanceLocation); field != "" {
				if _, ok := byField[field]; !ok {
					byField[field] = e.Message
				}
			} else {
				byField[""] = e.Message
			}
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(verr)

	if msg, ok := byField[""]; ok {
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, msg)
	}
	defects := make([]Defect, 0, len(byField))
	for field, reason := range byField {
		defects = append(defects, Defect{Field: field, Reason: reason})
	}
	sort.Slice(defects, func(i, j int) bool { return defects[i].Field < defects[j].Field })
	return defects, nil
}

func topLevelKey(pointer string) string {
	pointer = strings.TrimPrefix(pointer, "#")
	pointer = strings.TrimPrefix(pointer, "/")
	key, _, _ := strings.Cut(pointer, "/")
	return strings.NewReplacer("~1", "/", "~0", "~").Replace(key)
}

// CleanJSONBlock strips markdown code fences and any prose around the
// outermost JSON object.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "{") {
		return text
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}
