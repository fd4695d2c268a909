package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

var compiled sync.Map // schema name -> *jsonschema.Schema

// checkAnswer parses raw and validates it against s. A nil schema only
// requires valid JSON.
func checkAnswer(s *Schema, raw json.RawMessage) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return &MalformedError{Content: raw, Err: fmt.Errorf("not json: %w", err)}
	}
	if s == nil {
		return nil
	}
	sch, err := compileSchema(s)
	if err != nil {
		return &MalformedError{Content: raw, Err: err}
	}
	if err := sch.Validate(v); err != nil {
		return &MalformedError{Content: raw, Err: fmt.Errorf("schema %s: %w", s.Name, err)}
	}
	return nil
}

func compileSchema(s *Schema) (*jsonschema.Schema, error) {
	if v, ok := compiled.Load(s.Name); ok {
		return v.(*jsonschema.Schema), nil
	}
	// jsonschema wants decoded JSON values, so []string and friends in a Go
	// literal have to round-trip first.
	b, err := json.Marshal(s.Definition)
	if err != nil {
		return nil, fmt.Errorf("encode schema %s: %w", s.Name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("decode schema %s: %w", s.Name, err)
	}
	url := "mem://" + s.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", s.Name, err)
	}
	sch, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", s.Name, err)
	}
	compiled.Store(s.Name, sch)
	return sch, nil
}
