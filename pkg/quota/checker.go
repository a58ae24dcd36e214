package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/servicequotas"
	sqtypes "github.com/aws/aws-sdk-go-v2/service/servicequotas/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"golang.org/x/sync/errgroup"

	"github.com/sg-platform/sgctl/pkg/config"
	"github.com/sg-platform/sgctl/pkg/policy"
)

// AWS Service Quotas codes for the EC2 limits this checker cares about.
const (
	quotaCodeSecurityGroupsPerVPC = "L-E79EC296"
	quotaCodeRulesPerGroup        = "L-0EA8095F"
)

// vpcCheckConcurrency bounds the per-VPC usage fan-out.
const vpcCheckConcurrency = 4

// EC2Client is the subset of the EC2 API the checker uses.
type EC2Client interface {
	DescribeSecurityGroups(ctx context.Context, params *ec2.DescribeSecurityGroupsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error)
	DescribeVpcs(ctx context.Context, params *ec2.DescribeVpcsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error)
}

// QuotasClient is the subset of the Service Quotas API the checker uses.
type QuotasClient interface {
	GetServiceQuota(ctx context.Context, params *servicequotas.GetServiceQuotaInput, optFns ...func(*servicequotas.Options)) (*servicequotas.GetServiceQuotaOutput, error)
}

// STSClient is the subset of the STS API the checker uses.
type STSClient interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Checker pre-checks AWS security-group quota limits against the proposed
// configuration so a deployment cannot fail halfway on a limit.
type Checker struct {
	accountID  string
	accountDir string
	region     string
	vpcID      string
	guardrails *policy.Guardrails

	ec2Client    EC2Client
	quotasClient QuotasClient
	stsClient    STSClient

	identityOnce sync.Once
	identityErr  error
}

// Option represents a checker option.
type Option func(*Checker)

// WithRegion sets the AWS region. Defaults to AWS_DEFAULT_REGION, then
// us-east-1.
func WithRegion(region string) Option {
	return func(c *Checker) {
		if region != "" {
			c.region = region
		}
	}
}

// WithVPCID restricts the check to one VPC instead of all available ones.
func WithVPCID(vpcID string) Option {
	return func(c *Checker) {
		c.vpcID = vpcID
	}
}

// WithAccountDir sets the directory holding the proposed configuration.
// Defaults to accounts/<account-id> under the working directory.
func WithAccountDir(dir string) Option {
	return func(c *Checker) {
		if dir != "" {
			c.accountDir = dir
		}
	}
}

// WithGuardrails overrides the guardrails used for fallback limits.
func WithGuardrails(g *policy.Guardrails) Option {
	return func(c *Checker) {
		if g != nil {
			c.guardrails = g
		}
	}
}

// WithClients injects API clients, used by tests.
func WithClients(ec2Client EC2Client, quotasClient QuotasClient, stsClient STSClient) Option {
	return func(c *Checker) {
		c.ec2Client = ec2Client
		c.quotasClient = quotasClient
		c.stsClient = stsClient
	}
}

// New creates a quota checker for the given 12-digit account id.
func New(ctx context.Context, accountID string, opts ...Option) (*Checker, error) {
	if !policy.IsAccountID(accountID) {
		return nil, fmt.Errorf("invalid account id %q (must be 12 digits)", accountID)
	}

	c := &Checker{
		accountID:  accountID,
		accountDir: filepath.Join("accounts", accountID),
		region:     defaultRegion(),
		guardrails: loadGuardrailsOrDefault(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.ec2Client == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(c.region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		c.ec2Client = ec2.NewFromConfig(cfg)
		c.quotasClient = servicequotas.NewFromConfig(cfg)
		c.stsClient = sts.NewFromConfig(cfg)
	}

	return c, nil
}

func defaultRegion() string {
	if region := os.Getenv("AWS_DEFAULT_REGION"); region != "" {
		return region
	}
	return "us-east-1"
}

// loadGuardrailsOrDefault searches upward from the working directory. A
// missing guardrails document degrades to defaults here; quota checks can
// run outside the configuration repository.
func loadGuardrailsOrDefault() *policy.Guardrails {
	wd, err := os.Getwd()
	if err != nil {
		return policy.DefaultGuardrails()
	}
	root, err := policy.FindRepoRoot(wd)
	if err != nil {
		return policy.DefaultGuardrails()
	}
	g, err := policy.LoadGuardrails(root)
	if err != nil {
		return policy.DefaultGuardrails()
	}
	return g
}

// Region returns the region the checker queries.
func (c *Checker) Region() string {
	return c.region
}

// VPCID returns the VPC restriction, if any.
func (c *Checker) VPCID() string {
	return c.vpcID
}

// Check runs every quota check and returns the results in deterministic
// order: per-VPC checks sorted by VPC id, then account-level checks.
func (c *Checker) Check(ctx context.Context) ([]Result, error) {
	proposed, err := c.loadProposedUsage()
	if err != nil {
		return nil, err
	}

	if proposed.groups == 0 {
		return []Result{{
			Service:   "ec2",
			QuotaName: "No Changes",
			Level:     LevelOK,
			Message:   "No security group changes proposed",
		}}, nil
	}

	c.verifyIdentity(ctx)

	vpcIDs, err := c.vpcsToCheck(ctx)
	if err != nil {
		return nil, err
	}

	perVPC := make([][]Result, len(vpcIDs))
	var g errgroup.Group
	g.SetLimit(vpcCheckConcurrency)
	for i, vpcID := range vpcIDs {
		i, vpcID := i, vpcID
		g.Go(func() error {
			results, err := c.checkVPCQuotas(ctx, vpcID, proposed)
			if err != nil {
				// One VPC failing must not silence the rest.
				perVPC[i] = []Result{checkFailureResult(
					fmt.Sprintf("Security Groups per VPC (%s)", vpcID), err)}
				return nil
			}
			perVPC[i] = results
			return nil
		})
	}
	_ = g.Wait()

	var results []Result
	for _, r := range perVPC {
		results = append(results, r...)
	}

	accountResults, err := c.checkAccountQuotas(ctx, proposed)
	if err != nil {
		accountResults = []Result{checkFailureResult("Security Groups per Account", err)}
	}
	results = append(results, accountResults...)

	return results, nil
}

func checkFailureResult(quotaName string, err error) Result {
	return Result{
		Service:   "ec2",
		QuotaName: quotaName,
		Level:     LevelError,
		Message:   fmt.Sprintf("Quota check failed: %v", err),
	}
}

// verifyIdentity confirms the active credentials belong to the target
// account. A mismatch is logged, not fatal: read-only checks against the
// wrong account still produce a useful signal in CI logs.
func (c *Checker) verifyIdentity(ctx context.Context) {
	c.identityOnce.Do(func() {
		out, err := c.stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
		if err != nil {
			c.identityErr = err
			slog.Warn("unable to verify caller identity", "error", err)
			return
		}
		if caller := aws.ToString(out.Account); caller != c.accountID {
			slog.Warn("caller identity does not match target account",
				"caller_account", caller, "target_account", c.accountID)
		}
	})
}

func (c *Checker) vpcsToCheck(ctx context.Context) ([]string, error) {
	if c.vpcID != "" {
		return []string{c.vpcID}, nil
	}

	out, err := c.ec2Client.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to discover VPCs: %w", err)
	}

	var ids []string
	for _, vpc := range out.Vpcs {
		if vpc.State == ec2types.VpcStateAvailable {
			ids = append(ids, aws.ToString(vpc.VpcId))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (c *Checker) checkVPCQuotas(ctx context.Context, vpcID string, proposed proposedUsage) ([]Result, error) {
	current, err := c.vpcUsage(ctx, vpcID)
	if err != nil {
		return nil, err
	}

	var results []Result

	limit := c.quotaLimit(ctx, quotaCodeSecurityGroupsPerVPC, c.guardrails.Quotas.SecurityGroupsPerVPC)
	newUsage := current.groups + proposed.groups
	utilization := percent(newUsage, limit)

	r := Result{
		Service:            "ec2",
		QuotaName:          fmt.Sprintf("Security Groups per VPC (%s)", vpcID),
		CurrentUsage:       current.groups,
		ProposedUsage:      newUsage,
		QuotaLimit:         limit,
		UtilizationPercent: utilization,
	}
	switch {
	case newUsage > limit:
		r.Level = LevelError
		r.Message = fmt.Sprintf("Would exceed security groups per VPC limit in %s", vpcID)
	case utilization >= 80:
		r.Level = LevelWarning
		r.Message = fmt.Sprintf("Approaching security groups per VPC limit in %s (%.1f%%)", vpcID, utilization)
	default:
		r.Level = LevelOK
		r.Message = fmt.Sprintf("Security groups per VPC usage in %s is within limits", vpcID)
	}
	results = append(results, r)

	if proposed.maxRulesPerGroup > 0 {
		limit := c.quotaLimit(ctx, quotaCodeRulesPerGroup, c.guardrails.Quotas.RulesPerSecurityGroup)
		utilization := percent(proposed.maxRulesPerGroup, limit)

		r := Result{
			Service:            "ec2",
			QuotaName:          "Rules per Security Group",
			ProposedUsage:      proposed.maxRulesPerGroup,
			QuotaLimit:         limit,
			UtilizationPercent: utilization,
		}
		switch {
		case proposed.maxRulesPerGroup > limit:
			r.Level = LevelError
			r.Message = fmt.Sprintf("Proposed security group would exceed rules per SG limit (%d > %d)", proposed.maxRulesPerGroup, limit)
		case utilization >= 80:
			r.Level = LevelWarning
			r.Message = fmt.Sprintf("Largest proposed security group approaches rules per SG limit (%.1f%%)", utilization)
		default:
			r.Level = LevelOK
			r.Message = "Rules per security group usage is within limits"
		}
		results = append(results, r)
	}

	return results, nil
}

func (c *Checker) checkAccountQuotas(ctx context.Context, proposed proposedUsage) ([]Result, error) {
	current, err := c.accountUsage(ctx)
	if err != nil {
		return nil, err
	}

	limit := c.quotaLimit(ctx, quotaCodeSecurityGroupsPerVPC, c.guardrails.Quotas.SecurityGroupsPerAccount)
	newUsage := current.groups + proposed.groups
	utilization := percent(newUsage, limit)

	r := Result{
		Service:            "ec2",
		QuotaName:          "Security Groups per Account",
		CurrentUsage:       current.groups,
		ProposedUsage:      newUsage,
		QuotaLimit:         limit,
		UtilizationPercent: utilization,
	}
	switch {
	case newUsage > limit:
		r.Level = LevelError
		r.Message = "Would exceed security groups per account limit"
	case utilization >= 80:
		r.Level = LevelWarning
		r.Message = fmt.Sprintf("Approaching security groups per account limit (%.1f%%)", utilization)
	default:
		r.Level = LevelOK
		r.Message = "Security groups per account usage is within limits"
	}

	return []Result{r}, nil
}

// quotaLimit asks the Service Quotas API for the live limit and falls back
// to the guardrails value when the quota is unknown or the call fails.
func (c *Checker) quotaLimit(ctx context.Context, quotaCode string, fallback int) int {
	out, err := c.quotasClient.GetServiceQuota(ctx, &servicequotas.GetServiceQuotaInput{
		ServiceCode: aws.String("ec2"),
		QuotaCode:   aws.String(quotaCode),
	})
	if err != nil {
		var notFound *sqtypes.NoSuchResourceException
		if !errors.As(err, &notFound) {
			slog.Debug("service quota lookup failed, using fallback",
				"quota_code", quotaCode, "fallback", fallback, "error", err)
		}
		return fallback
	}
	if out.Quota == nil || out.Quota.Value == nil {
		return fallback
	}
	return int(*out.Quota.Value)
}

type currentUsage struct {
	groups     int
	totalRules int
}

func (c *Checker) vpcUsage(ctx context.Context, vpcID string) (currentUsage, error) {
	input := &ec2.DescribeSecurityGroupsInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("vpc-id"), Values: []string{vpcID}},
		},
	}
	usage, err := c.describeUsage(ctx, input)
	if err != nil {
		return currentUsage{}, fmt.Errorf("failed to get VPC usage for %s: %w", vpcID, err)
	}
	return usage, nil
}

func (c *Checker) accountUsage(ctx context.Context) (currentUsage, error) {
	usage, err := c.describeUsage(ctx, &ec2.DescribeSecurityGroupsInput{})
	if err != nil {
		return currentUsage{}, fmt.Errorf("failed to get account usage: %w", err)
	}
	return usage, nil
}

func (c *Checker) describeUsage(ctx context.Context, input *ec2.DescribeSecurityGroupsInput) (currentUsage, error) {
	var usage currentUsage
	paginator := ec2.NewDescribeSecurityGroupsPaginator(c.ec2Client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return currentUsage{}, err
		}
		for _, sg := range page.SecurityGroups {
			usage.groups++
			usage.totalRules += len(sg.IpPermissions) + len(sg.IpPermissionsEgress)
		}
	}
	return usage, nil
}

type proposedUsage struct {
	groups           int
	totalRules       int
	maxRulesPerGroup int
}

// loadProposedUsage reads the account's proposed configuration. A missing
// document means no changes are proposed.
func (c *Checker) loadProposedUsage() (proposedUsage, error) {
	path := filepath.Join(c.accountDir, policy.SecurityGroupsFileName)
	if _, err := os.Stat(path); err != nil {
		return proposedUsage{}, nil
	}

	doc, err := config.LoadDocument(path)
	if err != nil {
		return proposedUsage{}, fmt.Errorf("failed to load proposed changes: %w", err)
	}

	var usage proposedUsage
	entries, _ := doc.SecurityGroups.Data.([]config.GroupEntry)
	for _, entry := range entries {
		usage.groups++
		sg, ok := entry.Value.(*config.SecurityGroup)
		if !ok {
			continue
		}
		rules := listLen(sg.Ingress.Data) + listLen(sg.Egress.Data)
		usage.totalRules += rules
		if rules > usage.maxRulesPerGroup {
			usage.maxRulesPerGroup = rules
		}
	}
	return usage, nil
}

func listLen(v any) int {
	list, ok := v.([]any)
	if !ok {
		return 0
	}
	return len(list)
}

func percent(usage, limit int) float64 {
	if limit <= 0 {
		return 0
	}
	return float64(usage) / float64(limit) * 100
}
