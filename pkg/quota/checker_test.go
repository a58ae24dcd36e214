package quota

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/servicequotas"
	sqtypes "github.com/aws/aws-sdk-go-v2/service/servicequotas/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sg-platform/sgctl/pkg/policy"
)

type fakeEC2 struct {
	vpcs              []ec2types.Vpc
	groupsPerVPC      int
	groupsPerAccount  int
	rulesPerGroup     int
	describeVpcsCalls int
	failVPC           string
	failErr           error
}

func (f *fakeEC2) DescribeVpcs(_ context.Context, _ *ec2.DescribeVpcsInput, _ ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error) {
	f.describeVpcsCalls++
	return &ec2.DescribeVpcsOutput{Vpcs: f.vpcs}, nil
}

func (f *fakeEC2) DescribeSecurityGroups(_ context.Context, params *ec2.DescribeSecurityGroupsInput, _ ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error) {
	count := f.groupsPerAccount
	if len(params.Filters) > 0 {
		count = f.groupsPerVPC
		if f.failVPC != "" {
			for _, v := range params.Filters[0].Values {
				if v == f.failVPC {
					return nil, f.failErr
				}
			}
		}
	}
	groups := make([]ec2types.SecurityGroup, count)
	for i := range groups {
		groups[i] = ec2types.SecurityGroup{
			IpPermissions: make([]ec2types.IpPermission, f.rulesPerGroup),
		}
	}
	return &ec2.DescribeSecurityGroupsOutput{SecurityGroups: groups}, nil
}

type fakeQuotas struct {
	value float64
	err   error
}

func (f *fakeQuotas) GetServiceQuota(_ context.Context, _ *servicequotas.GetServiceQuotaInput, _ ...func(*servicequotas.Options)) (*servicequotas.GetServiceQuotaOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &servicequotas.GetServiceQuotaOutput{
		Quota: &sqtypes.ServiceQuota{Value: aws.Float64(f.value)},
	}, nil
}

type fakeSTS struct {
	account string
}

func (f *fakeSTS) GetCallerIdentity(_ context.Context, _ *sts.GetCallerIdentityInput, _ ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return &sts.GetCallerIdentityOutput{Account: aws.String(f.account)}, nil
}

const proposedConfig = `
account_id: "123456789012"
security_groups:
  app-sg:
    description: App
    ingress:
      - protocol: tcp
        from_port: 443
        to_port: 443
        cidr_blocks: ["10.0.0.0/16"]
    egress:
      - protocol: tcp
        from_port: 443
        to_port: 443
        cidr_blocks: ["10.0.0.0/16"]
  web-sg:
    description: Web
    ingress:
      - protocol: tcp
        from_port: 443
        to_port: 443
        cidr_blocks: ["10.0.0.0/16"]
`

func writeProposed(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if content != "" {
		err := os.WriteFile(filepath.Join(dir, policy.SecurityGroupsFileName), []byte(content), 0o644)
		require.NoError(t, err)
	}
	return dir
}

func testGuardrails() *policy.Guardrails {
	g := policy.DefaultGuardrails()
	g.Quotas = policy.Quotas{
		SecurityGroupsPerVPC:     60,
		RulesPerSecurityGroup:    120,
		SecurityGroupsPerAccount: 500,
	}
	return g
}

func newTestChecker(t *testing.T, accountDir string, ec2Client EC2Client, quotas QuotasClient) *Checker {
	t.Helper()
	c, err := New(context.Background(), "123456789012",
		WithRegion("us-west-2"),
		WithAccountDir(accountDir),
		WithGuardrails(testGuardrails()),
		WithClients(ec2Client, quotas, &fakeSTS{account: "123456789012"}),
	)
	require.NoError(t, err)
	return c
}

func TestNewRejectsBadAccountID(t *testing.T) {
	_, err := New(context.Background(), "12345",
		WithClients(&fakeEC2{}, &fakeQuotas{}, &fakeSTS{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "12 digits")
}

func TestCheckNoProposedChanges(t *testing.T) {
	dir := writeProposed(t, "")
	c := newTestChecker(t, dir, &fakeEC2{}, &fakeQuotas{value: 100})

	results, err := c.Check(context.Background())
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "No Changes", results[0].QuotaName)
	assert.Equal(t, LevelOK, results[0].Level)
	assert.Equal(t, 0, ExitCode(results))
}

func TestCheckWithinLimits(t *testing.T) {
	dir := writeProposed(t, proposedConfig)
	ec2Client := &fakeEC2{
		vpcs: []ec2types.Vpc{
			{VpcId: aws.String("vpc-bbb"), State: ec2types.VpcStateAvailable},
			{VpcId: aws.String("vpc-aaa"), State: ec2types.VpcStateAvailable},
			{VpcId: aws.String("vpc-gone"), State: ec2types.VpcStatePending},
		},
		groupsPerVPC:     10,
		groupsPerAccount: 25,
	}
	c := newTestChecker(t, dir, ec2Client, &fakeQuotas{value: 100})

	results, err := c.Check(context.Background())
	require.NoError(t, err)

	// Two per-VPC checks plus a rules-per-group check each, then the
	// account-level check. Pending VPCs are skipped.
	require.Len(t, results, 5)
	assert.Contains(t, results[0].QuotaName, "vpc-aaa")
	assert.Equal(t, "Rules per Security Group", results[1].QuotaName)
	assert.Contains(t, results[2].QuotaName, "vpc-bbb")
	assert.Equal(t, "Security Groups per Account", results[4].QuotaName)

	for _, r := range results {
		assert.Equal(t, LevelOK, r.Level, r.QuotaName)
	}
	assert.Equal(t, 12, results[0].ProposedUsage)
	assert.Equal(t, 100, results[0].QuotaLimit)
	assert.Equal(t, 0, ExitCode(results))
}

func TestCheckExceedsVPCLimit(t *testing.T) {
	dir := writeProposed(t, proposedConfig)
	ec2Client := &fakeEC2{
		vpcs:             []ec2types.Vpc{{VpcId: aws.String("vpc-aaa"), State: ec2types.VpcStateAvailable}},
		groupsPerVPC:     99,
		groupsPerAccount: 99,
	}
	c := newTestChecker(t, dir, ec2Client, &fakeQuotas{value: 100})

	results, err := c.Check(context.Background())
	require.NoError(t, err)

	assert.Equal(t, LevelError, results[0].Level)
	assert.Contains(t, results[0].Message, "Would exceed security groups per VPC limit in vpc-aaa")
	assert.Equal(t, 1, ExitCode(results))
}

func TestCheckWarnsNearLimit(t *testing.T) {
	dir := writeProposed(t, proposedConfig)
	ec2Client := &fakeEC2{
		vpcs:             []ec2types.Vpc{{VpcId: aws.String("vpc-aaa"), State: ec2types.VpcStateAvailable}},
		groupsPerVPC:     78,
		groupsPerAccount: 10,
	}
	c := newTestChecker(t, dir, ec2Client, &fakeQuotas{value: 100})

	results, err := c.Check(context.Background())
	require.NoError(t, err)

	// 78 existing + 2 proposed = 80% of 100.
	assert.Equal(t, LevelWarning, results[0].Level)
	assert.InDelta(t, 80.0, results[0].UtilizationPercent, 0.01)
	assert.Equal(t, 2, ExitCode(results))
}

func TestCheckToleratesVPCFailure(t *testing.T) {
	dir := writeProposed(t, proposedConfig)
	ec2Client := &fakeEC2{
		vpcs: []ec2types.Vpc{
			{VpcId: aws.String("vpc-aaa"), State: ec2types.VpcStateAvailable},
			{VpcId: aws.String("vpc-bbb"), State: ec2types.VpcStateAvailable},
		},
		groupsPerVPC:     10,
		groupsPerAccount: 25,
		failVPC:          "vpc-bbb",
		failErr:          errors.New("throttled: RequestLimitExceeded"),
	}
	c := newTestChecker(t, dir, ec2Client, &fakeQuotas{value: 100})

	results, err := c.Check(context.Background())
	require.NoError(t, err)

	// vpc-aaa still reports its two checks, vpc-bbb degrades to a single
	// error-level result, and the account check runs regardless.
	require.Len(t, results, 4)
	assert.Contains(t, results[0].QuotaName, "vpc-aaa")
	assert.Equal(t, LevelOK, results[0].Level)
	assert.Equal(t, "Rules per Security Group", results[1].QuotaName)
	assert.Contains(t, results[2].QuotaName, "vpc-bbb")
	assert.Equal(t, LevelError, results[2].Level)
	assert.Contains(t, results[2].Message, "RequestLimitExceeded")
	assert.Equal(t, "Security Groups per Account", results[3].QuotaName)
	assert.Equal(t, 1, ExitCode(results))
}

func TestCheckRestrictsToRequestedVPC(t *testing.T) {
	dir := writeProposed(t, proposedConfig)
	ec2Client := &fakeEC2{groupsPerVPC: 5, groupsPerAccount: 5}
	c, err := New(context.Background(), "123456789012",
		WithAccountDir(dir),
		WithVPCID("vpc-custom"),
		WithGuardrails(testGuardrails()),
		WithClients(ec2Client, &fakeQuotas{value: 100}, &fakeSTS{account: "123456789012"}),
	)
	require.NoError(t, err)

	results, err := c.Check(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, ec2Client.describeVpcsCalls)
	assert.Contains(t, results[0].QuotaName, "vpc-custom")
}

func TestQuotaLimitFallsBackOnUnknownQuota(t *testing.T) {
	dir := writeProposed(t, proposedConfig)
	ec2Client := &fakeEC2{
		vpcs:             []ec2types.Vpc{{VpcId: aws.String("vpc-aaa"), State: ec2types.VpcStateAvailable}},
		groupsPerVPC:     5,
		groupsPerAccount: 5,
	}
	quotas := &fakeQuotas{err: &sqtypes.NoSuchResourceException{Message: aws.String("no such quota")}}
	c := newTestChecker(t, dir, ec2Client, quotas)

	results, err := c.Check(context.Background())
	require.NoError(t, err)

	// Guardrails limits take over when the live quota is unavailable.
	assert.Equal(t, 60, results[0].QuotaLimit)
}

func TestQuotaLimitFallsBackOnAPIError(t *testing.T) {
	dir := writeProposed(t, proposedConfig)
	ec2Client := &fakeEC2{
		vpcs:             []ec2types.Vpc{{VpcId: aws.String("vpc-aaa"), State: ec2types.VpcStateAvailable}},
		groupsPerVPC:     5,
		groupsPerAccount: 5,
	}
	c := newTestChecker(t, dir, ec2Client, &fakeQuotas{err: errors.New("throttled")})

	results, err := c.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 60, results[0].QuotaLimit)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name    string
		results []Result
		want    int
	}{
		{"empty", nil, 0},
		{"all ok", []Result{{Level: LevelOK}}, 0},
		{"warning", []Result{{Level: LevelOK}, {Level: LevelWarning}}, 2},
		{"error wins", []Result{{Level: LevelWarning}, {Level: LevelError}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.results))
		})
	}
}

func TestReportRenderText(t *testing.T) {
	r := Report{
		AccountID: "123456789012",
		Region:    "us-west-2",
		VPCID:     "vpc-aaa",
		Results: []Result{
			{QuotaName: "Security Groups per VPC (vpc-aaa)", Level: LevelError, Message: "Would exceed security groups per VPC limit in vpc-aaa", CurrentUsage: 99, ProposedUsage: 101, QuotaLimit: 100},
			{QuotaName: "Security Groups per Account", Level: LevelOK, Message: "Security groups per account usage is within limits"},
		},
		Verbose: true,
	}

	var buf bytes.Buffer
	require.NoError(t, r.RenderText(&buf))

	out := buf.String()
	assert.Contains(t, out, "📋 Account: 123456789012")
	assert.Contains(t, out, "🏠 VPC: vpc-aaa")
	assert.Contains(t, out, "❌ Quota Violations:")
	assert.Contains(t, out, "Current: 99, After: 101, Limit: 100")
	assert.Contains(t, out, "✅ Quota Checks Passed:")
	assert.Contains(t, out, "Total checks: 2")
	assert.Contains(t, out, "❌ Quota checks failed - limits would be exceeded")
}

func TestReportRenderJSON(t *testing.T) {
	r := Report{
		AccountID: "123456789012",
		Region:    "us-west-2",
		Results: []Result{
			{QuotaName: "Security Groups per Account", Level: LevelWarning, Message: "Approaching limit"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, r.RenderJSON(&buf))

	var out struct {
		AccountID string   `json:"account_id"`
		Region    string   `json:"region"`
		VPCID     string   `json:"vpc_id,omitempty"`
		Checks    []Result `json:"quota_checks"`
		Summary   struct {
			TotalChecks int `json:"total_checks"`
			Errors      int `json:"errors"`
			Warnings    int `json:"warnings"`
			ExitCode    int `json:"exit_code"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	assert.Equal(t, "us-west-2", out.Region)
	require.Len(t, out.Checks, 1)
	assert.Equal(t, 1, out.Summary.Warnings)
	assert.Equal(t, 2, out.Summary.ExitCode)
	// Omitted VPC id should not appear in the payload.
	assert.NotContains(t, buf.String(), "vpc_id")
}
