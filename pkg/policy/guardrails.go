package policy

// Guardrails is the organization-wide policy applied to every account
// configuration. The YAML document nests its sections; loading flattens
// them into this struct so every default is declared in one place.
type Guardrails struct {
	BlockedCIDRs    []string
	BlockedPorts    []int
	MaxRangeSize    int
	MaxIngressRules int
	MaxEgressRules  int
	NamingPattern   string
	MaxNameLength   int
	RequiredTags    []string
	TypeOverrides   map[string]TypeOverride
	Quotas          Quotas
}

// TypeOverride scopes policy to an inferred security-group type.
type TypeOverride struct {
	AllowedProtocols []string `yaml:"allowed_protocols"`
	RequiredEgress   []Flow   `yaml:"required_egress"`

	// MaxRules, when set, replaces the generic per-direction ceilings
	// with a combined total for groups of this type.
	MaxRules *int `yaml:"max_rules"`
}

// Flow is one expected traffic shape inside a type override.
type Flow struct {
	Protocol   string   `yaml:"protocol"`
	FromPort   *int     `yaml:"from_port"`
	ToPort     *int     `yaml:"to_port"`
	CIDRBlocks []string `yaml:"cidr_blocks"`
}

// AllowsProtocol reports whether protocol passes the override's allow
// list. An absent list allows everything.
func (t TypeOverride) AllowsProtocol(protocol string) bool {
	if len(t.AllowedProtocols) == 0 {
		return true
	}
	for _, p := range t.AllowedProtocols {
		if p == protocol {
			return true
		}
	}
	return false
}

// Quotas carries the account-level limits checked by the quota command.
type Quotas struct {
	SecurityGroupsPerVPC     int
	RulesPerSecurityGroup    int
	SecurityGroupsPerAccount int
}

// DefaultGuardrails returns the built-in policy used when the guardrails
// document omits a field. This is the single place defaults are declared.
func DefaultGuardrails() *Guardrails {
	return &Guardrails{
		BlockedCIDRs:    []string{},
		BlockedPorts:    []int{},
		MaxRangeSize:    1000,
		MaxIngressRules: 60,
		MaxEgressRules:  60,
		NamingPattern:   `^[a-z0-9][a-z0-9-]*[a-z0-9]$`,
		MaxNameLength:   63,
		RequiredTags:    []string{},
		TypeOverrides:   map[string]TypeOverride{},
		Quotas: Quotas{
			SecurityGroupsPerVPC:     2500,
			RulesPerSecurityGroup:    120,
			SecurityGroupsPerAccount: 10000,
		},
	}
}

// Override returns the type override for sgType, if one is configured.
func (g *Guardrails) Override(sgType string) (TypeOverride, bool) {
	o, ok := g.TypeOverrides[sgType]
	return o, ok
}

// IsBlockedPort reports whether port appears in the blocked list.
func (g *Guardrails) IsBlockedPort(port int) bool {
	for _, p := range g.BlockedPorts {
		if p == port {
			return true
		}
	}
	return false
}

// IsBlockedCIDR reports whether cidr appears verbatim in the blocked list.
func (g *Guardrails) IsBlockedCIDR(cidr string) bool {
	for _, c := range g.BlockedCIDRs {
		if c == cidr {
			return true
		}
	}
	return false
}

// guardrailsDoc mirrors the nested document layout. Pointer fields let an
// absent key be told apart from a zero value during the overlay.
type guardrailsDoc struct {
	Validation *struct {
		BlockedCIDRs *[]string `yaml:"blocked_cidrs"`
		BlockedPorts *[]int    `yaml:"blocked_ports"`
		PortRanges   *struct {
			MaxRangeSize *int `yaml:"max_range_size"`
		} `yaml:"port_ranges"`
		Rules *struct {
			MaxIngressRules *int `yaml:"max_ingress_rules"`
			MaxEgressRules  *int `yaml:"max_egress_rules"`
		} `yaml:"rules"`
		Naming *struct {
			SecurityGroupPattern *string   `yaml:"security_group_pattern"`
			MaxNameLength        *int      `yaml:"max_name_length"`
			RequiredTags         *[]string `yaml:"required_tags"`
		} `yaml:"naming"`
	} `yaml:"validation"`
	TypeOverrides map[string]TypeOverride `yaml:"type_overrides"`
	Quotas        *struct {
		SecurityGroupsPerVPC     *int `yaml:"security_groups_per_vpc"`
		RulesPerSecurityGroup    *int `yaml:"rules_per_security_group"`
		SecurityGroupsPerAccount *int `yaml:"security_groups_per_account"`
	} `yaml:"quotas"`
}

func (g *Guardrails) overlay(doc *guardrailsDoc) {
	if doc == nil {
		return
	}
	if v := doc.Validation; v != nil {
		if v.BlockedCIDRs != nil {
			g.BlockedCIDRs = *v.BlockedCIDRs
		}
		if v.BlockedPorts != nil {
			g.BlockedPorts = *v.BlockedPorts
		}
		if v.PortRanges != nil && v.PortRanges.MaxRangeSize != nil {
			g.MaxRangeSize = *v.PortRanges.MaxRangeSize
		}
		if v.Rules != nil {
			if v.Rules.MaxIngressRules != nil {
				g.MaxIngressRules = *v.Rules.MaxIngressRules
			}
			if v.Rules.MaxEgressRules != nil {
				g.MaxEgressRules = *v.Rules.MaxEgressRules
			}
		}
		if v.Naming != nil {
			if v.Naming.SecurityGroupPattern != nil {
				g.NamingPattern = *v.Naming.SecurityGroupPattern
			}
			if v.Naming.MaxNameLength != nil {
				g.MaxNameLength = *v.Naming.MaxNameLength
			}
			if v.Naming.RequiredTags != nil {
				g.RequiredTags = *v.Naming.RequiredTags
			}
		}
	}
	if doc.TypeOverrides != nil {
		g.TypeOverrides = doc.TypeOverrides
	}
	if q := doc.Quotas; q != nil {
		if q.SecurityGroupsPerVPC != nil {
			g.Quotas.SecurityGroupsPerVPC = *q.SecurityGroupsPerVPC
		}
		if q.RulesPerSecurityGroup != nil {
			g.Quotas.RulesPerSecurityGroup = *q.RulesPerSecurityGroup
		}
		if q.SecurityGroupsPerAccount != nil {
			g.Quotas.SecurityGroupsPerAccount = *q.SecurityGroupsPerAccount
		}
	}
}
