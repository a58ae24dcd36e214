package validator

import (
	"fmt"
	"net/netip"
	"sort"
	"strconv"
	"strings"

	"github.com/sg-platform/sgctl/pkg/config"
	"github.com/sg-platform/sgctl/pkg/finding"
)

var validProtocols = []string{"tcp", "udp", "icmp", "icmpv6", "ah", "esp", "gre", "all", "-1"}

// Supernets that grant access to entire private address spaces. Ingress
// from these is flagged as overly broad.
var broadInternalCIDRs = []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}

func (v *Validator) checkRule(sgName, direction string, index int, item any, summary *finding.Summary) {
	context := fmt.Sprintf("security_group.%s.%s[%d]", sgName, direction, index)

	rule, ok := item.(*config.Rule)
	if !ok {
		summary.Add(finding.Errorf("rule_required_protocol", context,
			"Rule in %s %s[%d] is missing 'protocol'", sgName, direction, index))
		return
	}

	if !rule.Protocol.Set {
		summary.Add(finding.Errorf("rule_required_protocol", context,
			"Rule in %s %s[%d] is missing 'protocol'", sgName, direction, index))
		return
	}

	protocol, _ := rule.Protocol.String()
	if !validProtocol(rule.Protocol.Data) {
		summary.Add(finding.Errorf("rule_invalid_protocol", context,
			"Invalid protocol '%v' in %s %s[%d]", rule.Protocol.Data, sgName, direction, index))
	}

	if protocol == "tcp" || protocol == "udp" {
		v.checkPortRange(sgName, direction, index, rule, summary)
	}

	v.checkRuleSources(sgName, direction, index, rule, summary)
}

// validProtocol accepts the fixed protocol name set plus protocol numbers
// 0 through 255.
func validProtocol(value any) bool {
	switch p := value.(type) {
	case string:
		if contains(validProtocols, p) {
			return true
		}
		n, err := strconv.Atoi(p)
		return err == nil && n >= 0 && n <= 255
	case int:
		return p >= 0 && p <= 255
	default:
		return false
	}
}

func (v *Validator) checkPortRange(sgName, direction string, index int, rule *config.Rule, summary *finding.Summary) {
	context := fmt.Sprintf("security_group.%s.%s[%d]", sgName, direction, index)

	if !rule.FromPort.Set || !rule.ToPort.Set || rule.FromPort.Data == nil || rule.ToPort.Data == nil {
		summary.Add(finding.Errorf("rule_required_ports", context,
			"TCP/UDP rule in %s %s[%d] requires 'from_port' and 'to_port'", sgName, direction, index))
		return
	}

	ports := [2]int{}
	for i, field := range []struct {
		name  string
		value any
	}{
		{"from_port", rule.FromPort.Data},
		{"to_port", rule.ToPort.Data},
	} {
		n, ok := asPort(field.value)
		if !ok {
			summary.Add(finding.Errorf("rule_invalid_port_type", context,
				"Invalid %s '%v' in %s %s[%d] (must be a number)", field.name, field.value, sgName, direction, index))
			return
		}
		if n < 0 || n > 65535 {
			summary.Add(finding.Errorf("rule_invalid_port", context,
				"Invalid %s '%v' in %s %s[%d] (must be 0-65535)", field.name, field.value, sgName, direction, index))
		}
		ports[i] = n
	}

	fromPort, toPort := ports[0], ports[1]

	if fromPort > toPort {
		summary.Add(finding.Errorf("rule_invalid_port_range", context,
			"Invalid port range in %s %s[%d]: from_port (%d) > to_port (%d)", sgName, direction, index, fromPort, toPort))
		return
	}

	rangeSize := toPort - fromPort + 1
	if rangeSize > v.guardrails.MaxRangeSize {
		summary.Add(finding.Errorf("rule_port_range_too_large", context,
			"❌ Port range %d-%d is too broad (%d ports, max %d) — this effectively opens all ports.\n   → Narrow to specific ports your application needs (e.g., 443, 8080).\n   → If this is for EKS node communication, set type: \"eks-nodes\" to allow ephemeral ranges.",
			fromPort, toPort, rangeSize, v.guardrails.MaxRangeSize))
	}

	for _, port := range sortedBlockedPortsIn(v.guardrails.BlockedPorts, fromPort, toPort) {
		summary.Add(finding.Errorf("rule_blocked_port", context,
			"❌ Port %s is blocked — %s.\n   → %s", portDescription(port), blockedPortReason(port), blockedPortSuggestion(port)))
	}

	cidrs := ruleCIDRStrings(rule.CIDRBlocks)
	hasCIDRSource := len(cidrs) > 0

	if direction == "ingress" && hasCIDRSource {
		if fromPort <= 22 && 22 <= toPort {
			summary.Add(finding.Warnf("high_risk_pattern", context,
				"⚠️ HIGH: SSH (port 22) ingress from CIDR — any host in that range gets SSH access. PCI DSS Req 1.3.2"))
		}
		if fromPort <= 3389 && 3389 <= toPort {
			summary.Add(finding.Warnf("high_risk_pattern", context,
				"⚠️ HIGH: RDP (port 3389) ingress from CIDR — any host in that range gets RDP access. PCI DSS Req 1.3.2"))
		}
		for _, db := range dbPorts {
			if fromPort <= db.port && db.port <= toPort {
				summary.Add(finding.Warnf("high_risk_pattern", context,
					"⚠️ HIGH: %s (port %d) ingress from CIDR — CIDR-based database access is a common audit finding. PCI DSS Req 1.3.1",
					db.name, db.port))
			}
		}
	}

	if direction == "ingress" && anyBroadCIDR(cidrs) {
		summary.Add(finding.Warnf("broad_cidr_pattern", context,
			"⚠️ MEDIUM: Ingress from overly broad internal CIDR (e.g. 10.0.0.0/8) — scope to specific VPC or subnet CIDRs. PCI DSS Req 1.2.1"))
	}
}

// asPort converts a decoded YAML value to a port number. Numeric strings
// and floats are accepted the way the rest of the tooling accepts them.
func asPort(value any) (int, bool) {
	switch n := value.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func sortedBlockedPortsIn(blocked []int, fromPort, toPort int) []int {
	var hits []int
	for _, port := range blocked {
		if fromPort <= port && port <= toPort {
			hits = append(hits, port)
		}
	}
	sort.Ints(hits)
	return hits
}

func blockedPortReason(port int) string {
	switch port {
	case 135, 139:
		return "commonly exploited for lateral movement attacks. Not needed for cloud workloads"
	case 23:
		return "transmits data in plain text, easily intercepted by attackers"
	case 3389:
		return "commonly brute-forced and vulnerable to exploits"
	case 21, 25:
		return "insecure protocols that transmit credentials in plain text"
	default:
		return "blocked for security reasons"
	}
}

func blockedPortSuggestion(port int) string {
	switch port {
	case 135, 139:
		return "Remove this rule. If you need Windows RPC, contact the security team."
	case 23:
		return "Use SSH (port 22) or AWS Systems Manager Session Manager instead."
	case 3389:
		return "Use AWS Systems Manager Session Manager for Windows access."
	case 21, 25:
		return "Use secure alternatives (SFTP, encrypted email protocols)."
	default:
		return "Remove this rule or contact the security team if required."
	}
}

// ruleCIDRStrings returns the rule's IPv4 CIDR values as strings. A bare
// string counts as a single-element list so risk checks still see it.
func ruleCIDRStrings(value config.Value) []string {
	if !value.Set {
		return nil
	}
	switch data := value.Data.(type) {
	case string:
		return []string{data}
	case []any:
		var out []string
		for _, item := range data {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func anyBroadCIDR(cidrs []string) bool {
	for _, cidr := range cidrs {
		if contains(broadInternalCIDRs, cidr) {
			return true
		}
	}
	return false
}

func (v *Validator) checkRuleSources(sgName, direction string, index int, rule *config.Rule, summary *finding.Summary) {
	context := fmt.Sprintf("security_group.%s.%s[%d]", sgName, direction, index)

	hasSource := rule.CIDRBlocks.Set || rule.IPv6CIDRBlocks.Set || rule.SecurityGroups.Set ||
		rule.Self.Set || rule.PrefixListIDs.Set
	if !hasSource {
		summary.Add(finding.Errorf("rule_missing_source", context,
			"Rule in %s %s[%d] must specify at least one source/destination", sgName, direction, index))
		return
	}

	for _, cidrField := range []struct {
		name  string
		value config.Value
		ipv6  bool
	}{
		{"cidr_blocks", rule.CIDRBlocks, false},
		{"ipv6_cidr_blocks", rule.IPv6CIDRBlocks, true},
	} {
		if !cidrField.value.Set {
			continue
		}
		switch data := cidrField.value.Data.(type) {
		case string:
			summary.Add(finding.Errorf("rule_cidr_type", context,
				"❌ '%s' in %s %s[%d] must be a list, not a bare string.\n   → Change: %s: \"%s\"\n   → To:     %s: [\"%s\"]",
				cidrField.name, sgName, direction, index, cidrField.name, data, cidrField.name, data))
			// Still validate the bare value so the author gets both signals.
			v.checkCIDRBlock(sgName, direction, index, data, cidrField.ipv6, rule, summary)
		case []any:
			for _, item := range data {
				cidr, ok := item.(string)
				if !ok {
					summary.Add(finding.Errorf("rule_cidr_item_type", context,
						"CIDR block in %s %s[%d] must be a string, got %s: %v",
						sgName, direction, index, config.TypeName(item), item))
					continue
				}
				v.checkCIDRBlock(sgName, direction, index, cidr, cidrField.ipv6, rule, summary)
			}
		default:
			summary.Add(finding.Errorf("rule_cidr_type", context,
				"'%s' in %s %s[%d] must be a list, got %s",
				cidrField.name, sgName, direction, index, config.TypeName(data)))
		}
	}

	if rule.Self.Set {
		if _, ok := rule.Self.Bool(); !ok {
			summary.Add(finding.Errorf("rule_self_type", context,
				"'self' in %s %s[%d] must be true or false, got \"%v\"", sgName, direction, index, rule.Self.Data))
		}
	}

	if rule.SecurityGroups.Set {
		refs, ok := rule.SecurityGroups.List()
		if !ok {
			summary.Add(finding.Errorf("rule_sg_ref_type", context,
				"'security_groups' in %s %s[%d] must be a list", sgName, direction, index))
		} else {
			for _, ref := range refs {
				v.checkSecurityGroupReference(sgName, direction, index, ref, summary)
			}
		}
	}

	if rule.PrefixListIDs.Set {
		ids, ok := rule.PrefixListIDs.List()
		if !ok {
			summary.Add(finding.Errorf("rule_prefix_list_type", context,
				"'prefix_list_ids' in %s %s[%d] must be a list", sgName, direction, index))
		} else {
			for _, id := range ids {
				v.checkPrefixListReference(sgName, direction, index, id, summary)
			}
		}
	}
}

func (v *Validator) checkCIDRBlock(sgName, direction string, index int, cidr string, ipv6 bool, rule *config.Rule, summary *finding.Summary) {
	context := fmt.Sprintf("security_group.%s.%s[%d]", sgName, direction, index)

	if err := parseCIDR(cidr, ipv6); err != nil {
		summary.Add(finding.Errorf("rule_invalid_cidr", context,
			"Invalid CIDR block '%s' in %s %s[%d]: %v", cidr, sgName, direction, index, err))
		return
	}

	if v.guardrails.IsBlockedCIDR(cidr) {
		if direction == "ingress" {
			summary.Add(finding.Errorf("rule_blocked_cidr", context,
				"❌ %s ingress is not allowed — this opens the port to the entire internet.\n   → Use a specific CIDR, security group reference, or prefix list instead.\n   → Example: prefix_list_ids: [\"corporate-networks\"]",
				cidr))
		} else {
			summary.Add(finding.Errorf("rule_blocked_cidr", context,
				"❌ %s egress detected — unrestricted outbound access. Consider scoping to specific CIDRs or prefix lists.\n   → Use security group references or prefix_list_ids: [\"corporate-networks\"]",
				cidr))
		}
	}

	openInternet := (!ipv6 && cidr == "0.0.0.0/0") || (ipv6 && cidr == "::/0")
	if !openInternet {
		return
	}

	sgType := inferGroupType(sgName)
	if override, ok := v.guardrails.Override(sgType); ok && direction == "egress" {
		for _, required := range override.RequiredEgress {
			if len(required.CIDRBlocks) == 1 && required.CIDRBlocks[0] == "0.0.0.0/0" {
				// Documented egress exception for this group type.
				return
			}
		}
	}

	if direction == "ingress" {
		summary.Add(finding.Errorf("rule_open_internet", context,
			"❌ %s ingress is not allowed — this opens the port to the entire internet.\n   → Use a specific CIDR, security group reference, or prefix list instead.\n   → Example: prefix_list_ids: [\"corporate-networks\"]",
			cidr))
		return
	}

	fromPort, _ := asPort(rule.FromPort.Data)
	toPort, _ := asPort(rule.ToPort.Data)
	if fromPort == 443 && toPort == 443 {
		// HTTPS egress to the internet is normal.
		return
	}
	portDisplay := fmt.Sprintf("port %d", fromPort)
	if fromPort != toPort {
		portDisplay = fmt.Sprintf("ports %d-%d", fromPort, toPort)
	}
	summary.Add(finding.Warnf("rule_open_egress", context,
		"⚠️ MEDIUM: Egress to %s on %s — unrestricted non-HTTPS outbound. PCI DSS Req 1.3.4", cidr, portDisplay))
}

// parseCIDR validates address-family syntax. Bare addresses are accepted
// as host routes, matching what the provisioning layer tolerates.
func parseCIDR(cidr string, ipv6 bool) error {
	var addr netip.Addr
	if strings.Contains(cidr, "/") {
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			return err
		}
		addr = prefix.Addr()
	} else {
		parsed, err := netip.ParseAddr(cidr)
		if err != nil {
			return err
		}
		addr = parsed
	}
	if ipv6 && addr.Is4() {
		return fmt.Errorf("'%s' does not appear to be an IPv6 network", cidr)
	}
	if !ipv6 && !addr.Is4() {
		return fmt.Errorf("'%s' does not appear to be an IPv4 network", cidr)
	}
	return nil
}

func (v *Validator) checkSecurityGroupReference(sgName, direction string, index int, ref any, summary *finding.Summary) {
	context := fmt.Sprintf("security_group.%s.%s[%d]", sgName, direction, index)

	s, ok := ref.(string)
	if !ok || !(strings.HasPrefix(s, "sg-") || isAlphanumeric(s) || strings.Contains(s, "-")) {
		summary.Add(finding.Warnf("rule_sg_reference_format", context,
			"Security group reference '%v' in %s %s[%d] may be invalid", ref, sgName, direction, index))
	}
}

func (v *Validator) checkPrefixListReference(sgName, direction string, index int, id any, summary *finding.Summary) {
	context := fmt.Sprintf("security_group.%s.%s[%d]", sgName, direction, index)

	s, ok := id.(string)
	if !ok {
		summary.Add(finding.Errorf("rule_undefined_prefix_list", context,
			"Undefined prefix list '%v' in %s %s[%d]", id, sgName, direction, index))
		return
	}

	if strings.HasPrefix(s, "pl-") {
		summary.Add(finding.Infof("rule_aws_prefix_list", context,
			"Using AWS managed prefix list '%s' in %s %s[%d]", s, sgName, direction, index))
		return
	}

	if !v.prefixLists.Contains(s) {
		summary.Add(finding.Errorf("rule_undefined_prefix_list", context,
			"Undefined prefix list '%s' in %s %s[%d]", s, sgName, direction, index))
	}
}

func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9') {
			return false
		}
	}
	return true
}
