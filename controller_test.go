package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zalando-incubator/ec2-lb-stack/stack"
)

func parse(t *testing.T, args ...string) (*options, string) {
	t.Helper()
	opts := &options{}
	command, err := newApp(opts).Parse(args)
	require.NoError(t, err)
	return opts, command
}

func TestParseCommands(t *testing.T) {
	for _, ti := range []struct {
		args    []string
		command string
		check   func(*testing.T, *options)
	}{
		{
			[]string{"synth"},
			commandSynth,
			func(t *testing.T, o *options) {
				assert.Equal(t, string(stack.FormatJSON), o.synthFormat)
				assert.Empty(t, o.synthOutput)
			},
		},
		{
			[]string{"synth", "--format=yaml", "--output=template.yaml"},
			commandSynth,
			func(t *testing.T, o *options) {
				assert.Equal(t, string(stack.FormatYAML), o.synthFormat)
				assert.Equal(t, "template.yaml", o.synthOutput)
			},
		},
		{
			[]string{"deploy", "--wait", "--discover-zones"},
			commandDeploy,
			func(t *testing.T, o *options) {
				assert.True(t, o.deployWait)
				assert.True(t, o.discoverZones)
				assert.Equal(t, defaultWaitTimeout, o.waitTimeout)
				assert.Equal(t, defaultPollInterval, o.pollInterval)
			},
		},
		{
			[]string{"--wait-timeout=5m", "--poll-interval=2s", "destroy", "--wait"},
			commandDestroy,
			func(t *testing.T, o *options) {
				assert.True(t, o.destroyWait)
				assert.Equal(t, 5*time.Minute, o.waitTimeout)
				assert.Equal(t, 2*time.Second, o.pollInterval)
			},
		},
		{
			[]string{"--debug", "--metrics-address=:7979", "describe"},
			commandDescribe,
			func(t *testing.T, o *options) {
				assert.True(t, o.debug)
				assert.Equal(t, ":7979", o.metricsAddress)
			},
		},
	} {
		t.Run(ti.command, func(t *testing.T) {
			opts, command := parse(t, ti.args...)
			assert.Equal(t, ti.command, command)
			ti.check(t, opts)
		})
	}
}

func TestParseRejectsUnknownValues(t *testing.T) {
	for _, args := range [][]string{
		{"synth", "--format=toml"},
		{"--machine-image=windows", "synth"},
		{"launch"},
	} {
		_, err := newApp(&options{}).Parse(args)
		assert.Error(t, err, "%v", args)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	opts, _ := parse(t, "synth")
	cfg, err := loadConfig(opts)
	require.NoError(t, err)

	if diff := cmp.Diff(stack.DefaultConfig(), cfg); diff != "" {
		t.Errorf("unexpected config (-want +got):\n%s", diff)
	}
}

func TestLoadConfigLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
stackName: from-file
region: eu-west-1
keyName: file-key
subnetCidrMask: 26
`), 0o600))

	opts, _ := parse(t,
		"--config-file", path,
		"--stack-name", "from-flag",
		"--availability-zone", "eu-west-1b",
		"--availability-zone", "eu-west-1c",
		"--instance-type", "t3.small",
		"--machine-image", "amazon-linux-2023",
		"--vpc-cidr", "172.16.0.0/16",
		"deploy",
	)
	cfg, err := loadConfig(opts)
	require.NoError(t, err)

	want := stack.DefaultConfig()
	want.StackName = "from-flag"
	want.Region = "eu-west-1"
	want.KeyName = "file-key"
	want.SubnetCIDRMask = 26
	want.AvailabilityZones = []string{"eu-west-1b", "eu-west-1c"}
	want.InstanceType = "t3.small"
	want.MachineImage = stack.AmazonLinux2023
	want.VPCCIDR = "172.16.0.0/16"

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("unexpected config (-want +got):\n%s", diff)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	opts, _ := parse(t, "--config-file", filepath.Join(t.TempDir(), "missing.yaml"), "synth")
	_, err := loadConfig(opts)
	assert.Error(t, err)
}

func TestEnvars(t *testing.T) {
	t.Setenv("EC2_LB_STACK_KEY_NAME", "from-env")
	t.Setenv("EC2_LB_STACK_REGION", "ap-south-1")

	opts, _ := parse(t, "--region", "eu-north-1", "synth")
	assert.Equal(t, "from-env", opts.keyName)
	assert.Equal(t, "eu-north-1", opts.region)
}

func TestRunSynthToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.json")
	opts, _ := parse(t, "synth", "--output", path)

	require.NoError(t, runSynth(stack.DefaultConfig(), opts))
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"MyLoadBalancerListener"`)
}

func TestValidateOptions(t *testing.T) {
	for _, ti := range []struct {
		args    []string
		wantErr string
	}{
		{[]string{"deploy"}, ""},
		{[]string{"--poll-interval=0s", "deploy"}, "--poll-interval must be positive"},
		{[]string{"--poll-interval=-5s", "destroy"}, "--poll-interval must be positive"},
		{[]string{"--wait-timeout=0s", "deploy"}, "--wait-timeout must be positive"},
	} {
		opts, _ := parse(t, ti.args...)
		err := validateOptions(opts)
		if ti.wantErr == "" {
			assert.NoError(t, err, "%v", ti.args)
			continue
		}
		assert.ErrorContains(t, err, ti.wantErr, "%v", ti.args)
	}
}
