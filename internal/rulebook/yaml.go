package rulebook

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/polygenea/internal/ir"
)

// yamlFile is the YAML rule file layout:
//
//	rules:
//	  - name: nickname
//	    antecedents:
//	      - {"!class": Thing}
//	      - {"!class": Property, key: name, value: Jane, subject: 0}
//	    consequents:
//	      - {"!class": Property, subject: 0, key: nickname, value: Jenny}
type yamlFile struct {
	Rules []yamlRule `yaml:"rules"`
}

type yamlRule struct {
	Name        string           `yaml:"name"`
	Antecedents []map[string]any `yaml:"antecedents"`
	Consequents []map[string]any `yaml:"consequents"`
}

// ParseYAML reads a YAML rule file. Unknown fields are rejected.
func ParseYAML(file string, data []byte, opts ...Option) ([]Entry, error) {
	o := newOptions(opts)

	var doc yamlFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, &Error{File: file, Err: ir.Wrap(ir.ErrMalformedInput, err, "failed to parse YAML")}
	}

	var b book
	for i, r := range doc.Rules {
		name := r.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}
		obj := ir.IRObject{}
		for _, attr := range []string{"antecedents", "consequents"} {
			list := r.Antecedents
			if attr == "consequents" {
				list = r.Consequents
			}
			if list == nil {
				continue
			}
			arr, err := patterns(attr, list)
			if err != nil {
				return nil, &Error{File: file, Rule: name, Err: err}
			}
			obj[attr] = arr
		}
		if err := b.add(o, r.Name, obj); err != nil {
			return nil, &Error{File: file, Rule: name, Err: err}
		}
	}
	return b.finish(file)
}

func patterns(attr string, list []map[string]any) (ir.IRArray, error) {
	out := make(ir.IRArray, len(list))
	for i, m := range list {
		v, err := ir.FromGo(m)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", attr, i, err)
		}
		out[i] = v
	}
	return out, nil
}
