package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "security-groups.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDocument(t *testing.T) {
	path := writeDoc(t, `
account_id: "123456789012"
environment: prod
tags:
  Owner: platform-team
security_groups:
  web-sg:
    description: Web tier
    type: web
    ingress:
      - protocol: tcp
        from_port: 443
        to_port: 443
        cidr_blocks:
          - 10.0.0.0/16
    egress:
      - protocol: tcp
        from_port: 443
        to_port: 443
        cidr_blocks:
          - 0.0.0.0/0
  db-sg:
    description: Database tier
`)

	doc, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}

	if id, _ := doc.AccountID.String(); id != "123456789012" {
		t.Errorf("account_id = %q", id)
	}
	if env, _ := doc.Environment.String(); env != "prod" {
		t.Errorf("environment = %q", env)
	}

	entries, ok := doc.SecurityGroups.Data.([]GroupEntry)
	if !ok {
		t.Fatalf("security_groups decoded as %T", doc.SecurityGroups.Data)
	}
	// Insertion order must survive parsing.
	if entries[0].Name != "web-sg" || entries[1].Name != "db-sg" {
		t.Errorf("group order = [%s, %s]", entries[0].Name, entries[1].Name)
	}

	web, ok := entries[0].Value.(*SecurityGroup)
	if !ok {
		t.Fatalf("web-sg decoded as %T", entries[0].Value)
	}
	if desc, _ := web.Description.String(); desc != "Web tier" {
		t.Errorf("description = %q", desc)
	}

	ingress, ok := web.Ingress.Data.([]any)
	if !ok || len(ingress) != 1 {
		t.Fatalf("ingress = %#v", web.Ingress.Data)
	}
	rule, ok := ingress[0].(*Rule)
	if !ok {
		t.Fatalf("rule decoded as %T", ingress[0])
	}
	if proto, _ := rule.Protocol.String(); proto != "tcp" {
		t.Errorf("protocol = %q", proto)
	}
	if from, _ := rule.FromPort.Int(); from != 443 {
		t.Errorf("from_port = %d", from)
	}
	if cidrs, ok := rule.CIDRBlocks.List(); !ok || len(cidrs) != 1 {
		t.Errorf("cidr_blocks = %#v", rule.CIDRBlocks.Data)
	}
}

func TestLoadDocumentUnknownKeys(t *testing.T) {
	path := writeDoc(t, `
account_id: "123456789012"
environment: dev
regoin: us-east-1
security_groups:
  app-sg:
    description: App
    descripton: typo
    ingress:
      - protocol: tcp
        from_port: 80
        to_port: 80
        cidr_block: 10.0.0.0/8
`)

	doc, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}

	if len(doc.UnknownKeys) != 1 || doc.UnknownKeys[0] != "regoin" {
		t.Errorf("top-level unknown keys = %v", doc.UnknownKeys)
	}

	entries := doc.SecurityGroups.Data.([]GroupEntry)
	sg := entries[0].Value.(*SecurityGroup)
	if len(sg.UnknownKeys) != 1 || sg.UnknownKeys[0] != "descripton" {
		t.Errorf("group unknown keys = %v", sg.UnknownKeys)
	}

	rule := sg.Ingress.Data.([]any)[0].(*Rule)
	if len(rule.UnknownKeys) != 1 || rule.UnknownKeys[0] != "cidr_block" {
		t.Errorf("rule unknown keys = %v", rule.UnknownKeys)
	}
}

func TestLoadDocumentGracefulTypes(t *testing.T) {
	// Wrong-typed values must survive parsing so the validator can report
	// the author's actual type.
	path := writeDoc(t, `
account_id: 123456789012
environment: 42
security_groups:
  web-sg:
    description: true
    ingress: not-a-list
`)

	doc, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}

	if _, ok := doc.AccountID.String(); ok {
		t.Error("integer account_id should not read as string")
	}
	if TypeName(doc.Environment.Data) != "integer" {
		t.Errorf("environment type = %s", TypeName(doc.Environment.Data))
	}

	sg := doc.SecurityGroups.Data.([]GroupEntry)[0].Value.(*SecurityGroup)
	if _, ok := sg.Description.String(); ok {
		t.Error("boolean description should not read as string")
	}
	if !sg.Ingress.Set {
		t.Error("ingress should be recorded as set")
	}
	if _, ok := sg.Ingress.Data.([]any); ok {
		t.Error("scalar ingress should not decode as a list")
	}
}

func TestLoadDocumentFatalTier(t *testing.T) {
	tests := []struct {
		name     string
		path     func(t *testing.T) string
		wantRule string
	}{
		{
			name:     "missing file",
			path:     func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") },
			wantRule: "file_exists",
		},
		{
			name:     "syntax error",
			path:     func(t *testing.T) string { return writeDoc(t, "account_id: [unclosed\n") },
			wantRule: "yaml_syntax",
		},
		{
			name:     "empty document",
			path:     func(t *testing.T) string { return writeDoc(t, "") },
			wantRule: "yaml_content",
		},
		{
			name:     "non-mapping document",
			path:     func(t *testing.T) string { return writeDoc(t, "- a\n- b\n") },
			wantRule: "yaml_content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDocument(tt.path(t))
			var loadErr *LoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("expected *LoadError, got %v", err)
			}
			if loadErr.Rule != tt.wantRule {
				t.Errorf("rule = %q, want %q", loadErr.Rule, tt.wantRule)
			}
		})
	}
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "null"},
		{"x", "string"},
		{true, "boolean"},
		{7, "integer"},
		{1.5, "float"},
		{[]any{}, "list"},
		{map[string]any{}, "mapping"},
		{&SecurityGroup{}, "mapping"},
		{&Rule{}, "mapping"},
		{[]GroupEntry{}, "mapping"},
	}
	for _, tt := range tests {
		if got := TypeName(tt.in); got != tt.want {
			t.Errorf("TypeName(%T) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
