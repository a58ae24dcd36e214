package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the parsed per-account configuration. Fields keep whatever
// the author wrote; the validator owns all type and shape judgments.
type Document struct {
	AccountID        Value
	Environment      Value
	SecurityGroups   Value // []GroupEntry when a mapping, raw value otherwise
	BaselineProfiles Value
	Tags             Value

	// UnknownKeys lists top-level keys outside the recognized set, in
	// document order.
	UnknownKeys []string
}

// GroupEntry is one named security group in document order.
type GroupEntry struct {
	Name  string
	Value any // *SecurityGroup when a mapping, raw value otherwise
}

// SecurityGroup is one group definition.
type SecurityGroup struct {
	Description Value
	Ingress     Value // []any of *Rule or raw values when a sequence
	Egress      Value
	Tags        Value
	Type        Value

	UnknownKeys []string
}

// Rule is one ingress or egress rule.
type Rule struct {
	Protocol       Value
	FromPort       Value
	ToPort         Value
	CIDRBlocks     Value
	IPv6CIDRBlocks Value
	SecurityGroups Value
	PrefixListIDs  Value
	Self           Value
	Description    Value

	UnknownKeys []string
}

// LoadError is a fatal document failure. Rule carries the finding rule id
// so callers can report it in the standard shape.
type LoadError struct {
	Rule    string
	Message string
}

func (e *LoadError) Error() string { return e.Message }

// LoadDocument reads and parses a configuration document. Failures here are
// fatal: without a parsed mapping there is nothing to validate.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &LoadError{Rule: "file_exists", Message: fmt.Sprintf("configuration file not found: %s", path)}
		}
		return nil, &LoadError{Rule: "file_exists", Message: fmt.Sprintf("configuration file not readable: %s: %v", path, err)}
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &LoadError{Rule: "yaml_syntax", Message: fmt.Sprintf("invalid YAML syntax: %v", err)}
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, &LoadError{Rule: "yaml_content", Message: "configuration file is empty"}
	}

	body := root.Content[0]
	if body.Kind != yaml.MappingNode {
		return nil, &LoadError{Rule: "yaml_content", Message: fmt.Sprintf("configuration must be a mapping, got %s", kindName(body))}
	}

	doc := &Document{}
	if err := doc.fromNode(body); err != nil {
		return nil, &LoadError{Rule: "yaml_syntax", Message: fmt.Sprintf("invalid YAML structure: %v", err)}
	}
	return doc, nil
}

func (d *Document) fromNode(node *yaml.Node) error {
	return walkMapping(node, func(key string, value *yaml.Node) error {
		switch key {
		case "account_id":
			return decodeValue(value, &d.AccountID)
		case "environment":
			return decodeValue(value, &d.Environment)
		case "security_groups":
			return decodeSecurityGroups(value, &d.SecurityGroups)
		case "baseline_profiles":
			return decodeValue(value, &d.BaselineProfiles)
		case "tags":
			return decodeValue(value, &d.Tags)
		default:
			d.UnknownKeys = append(d.UnknownKeys, key)
			return nil
		}
	})
}

func decodeSecurityGroups(node *yaml.Node, out *Value) error {
	if node.Kind != yaml.MappingNode {
		return decodeValue(node, out)
	}
	var entries []GroupEntry
	err := walkMapping(node, func(name string, value *yaml.Node) error {
		if value.Kind != yaml.MappingNode {
			var raw any
			if err := value.Decode(&raw); err != nil {
				return err
			}
			entries = append(entries, GroupEntry{Name: name, Value: raw})
			return nil
		}
		sg := &SecurityGroup{}
		if err := sg.fromNode(value); err != nil {
			return err
		}
		entries = append(entries, GroupEntry{Name: name, Value: sg})
		return nil
	})
	if err != nil {
		return err
	}
	out.Set = true
	out.Data = entries
	return nil
}

func (s *SecurityGroup) fromNode(node *yaml.Node) error {
	return walkMapping(node, func(key string, value *yaml.Node) error {
		switch key {
		case "description":
			return decodeValue(value, &s.Description)
		case "ingress":
			return decodeRules(value, &s.Ingress)
		case "egress":
			return decodeRules(value, &s.Egress)
		case "tags":
			return decodeValue(value, &s.Tags)
		case "type":
			return decodeValue(value, &s.Type)
		default:
			s.UnknownKeys = append(s.UnknownKeys, key)
			return nil
		}
	})
}

func decodeRules(node *yaml.Node, out *Value) error {
	if node.Kind != yaml.SequenceNode {
		return decodeValue(node, out)
	}
	items := make([]any, 0, len(node.Content))
	for _, item := range node.Content {
		if item.Kind != yaml.MappingNode {
			var raw any
			if err := item.Decode(&raw); err != nil {
				return err
			}
			items = append(items, raw)
			continue
		}
		rule := &Rule{}
		if err := rule.fromNode(item); err != nil {
			return err
		}
		items = append(items, rule)
	}
	out.Set = true
	out.Data = items
	return nil
}

func (r *Rule) fromNode(node *yaml.Node) error {
	return walkMapping(node, func(key string, value *yaml.Node) error {
		switch key {
		case "protocol":
			return decodeValue(value, &r.Protocol)
		case "from_port":
			return decodeValue(value, &r.FromPort)
		case "to_port":
			return decodeValue(value, &r.ToPort)
		case "cidr_blocks":
			return decodeValue(value, &r.CIDRBlocks)
		case "ipv6_cidr_blocks":
			return decodeValue(value, &r.IPv6CIDRBlocks)
		case "security_groups":
			return decodeValue(value, &r.SecurityGroups)
		case "prefix_list_ids":
			return decodeValue(value, &r.PrefixListIDs)
		case "self":
			return decodeValue(value, &r.Self)
		case "description":
			return decodeValue(value, &r.Description)
		default:
			r.UnknownKeys = append(r.UnknownKeys, key)
			return nil
		}
	})
}

// walkMapping visits the key/value pairs of a mapping node in document
// order. Non-scalar keys are skipped.
func walkMapping(node *yaml.Node, visit func(key string, value *yaml.Node) error) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		if keyNode.Kind != yaml.ScalarNode {
			continue
		}
		if err := visit(keyNode.Value, node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func decodeValue(node *yaml.Node, out *Value) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	out.Set = true
	out.Data = raw
	return nil
}

func kindName(node *yaml.Node) string {
	switch node.Kind {
	case yaml.SequenceNode:
		return "list"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	default:
		return "unknown"
	}
}
