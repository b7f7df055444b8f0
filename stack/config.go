package stack

import (
	"errors"
	"fmt"
	"net/netip"
	"os"

	"github.com/ghodss/yaml"
	"github.com/zalando-incubator/ec2-lb-stack/bootstrap"
)

// AmazonLinuxGeneration selects the machine image family of the instances.
type AmazonLinuxGeneration string

const (
	AmazonLinux2    AmazonLinuxGeneration = "amazon-linux-2"
	AmazonLinux2023 AmazonLinuxGeneration = "amazon-linux-2023"
)

var machineImageParameterPaths = map[AmazonLinuxGeneration]string{
	AmazonLinux2:    "/aws/service/ami-amazon-linux-latest/amzn2-ami-hvm-x86_64-gp2",
	AmazonLinux2023: "/aws/service/ami-amazon-linux-latest/al2023-ami-kernel-default-x86_64",
}

// SSMParameterPath returns the public SSM parameter holding the latest image
// ID of the generation, or an empty string for an unknown generation.
func (g AmazonLinuxGeneration) SSMParameterPath() string {
	return machineImageParameterPaths[g]
}

const (
	DefaultStackName      = "MyEc2Stack"
	DefaultRegion         = "us-east-1"
	DefaultVPCCIDR        = "10.0.0.0/16"
	DefaultSubnetCIDRMask = 24
	DefaultInstanceType   = "t3.micro"
	DefaultMachineImage   = AmazonLinux2
	DefaultKeyName        = "Chris2"
	DefaultListenerPort   = 80

	// MaxAvailabilityZones is the number of zones the network spans.
	MaxAvailabilityZones = 2
)

var (
	ErrTooFewAvailabilityZones   = errors.New("at least two availability zones are required")
	ErrDuplicateAvailabilityZone = errors.New("availability zones must be distinct")
	ErrInvalidVPCCIDR            = errors.New("invalid VPC CIDR block")
	ErrSubnetMaskDoesNotFit      = errors.New("subnet CIDR mask does not fit into the VPC CIDR block")
	ErrUnknownMachineImage       = errors.New("unknown machine image generation")
	ErrMissingStackName          = errors.New("stack name must not be empty")
	ErrInvalidStackName          = errors.New("stack name must start with a letter and contain only letters, digits and hyphens")
	ErrMissingRegion             = errors.New("region must not be empty")
	ErrInvalidListenerPort       = errors.New("listener port must be between 1 and 65535")
)

// Config is the deployment context of the topology.
type Config struct {
	StackName         string                `json:"stackName,omitempty"`
	Region            string                `json:"region,omitempty"`
	AvailabilityZones []string              `json:"availabilityZones,omitempty"`
	VPCCIDR           string                `json:"vpcCidr,omitempty"`
	SubnetCIDRMask    int                   `json:"subnetCidrMask,omitempty"`
	InstanceType      string                `json:"instanceType,omitempty"`
	MachineImage      AmazonLinuxGeneration `json:"machineImage,omitempty"`
	KeyName           string                `json:"keyName,omitempty"`
	ListenerPort      int                   `json:"listenerPort,omitempty"`
	RuntimeSetupURL   string                `json:"runtimeSetupUrl,omitempty"`
}

// DefaultConfig returns the configuration of the reference deployment.
func DefaultConfig() Config {
	return Config{
		StackName:       DefaultStackName,
		Region:          DefaultRegion,
		VPCCIDR:         DefaultVPCCIDR,
		SubnetCIDRMask:  DefaultSubnetCIDRMask,
		InstanceType:    DefaultInstanceType,
		MachineImage:    DefaultMachineImage,
		KeyName:         DefaultKeyName,
		ListenerPort:    DefaultListenerPort,
		RuntimeSetupURL: bootstrap.DefaultRuntimeSetupURL,
	}
}

// LoadConfigFile reads a YAML or JSON file and overlays it on base. Fields
// missing from the file keep the value from base.
func LoadConfigFile(path string, base Config) (Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	return ParseConfig(buf, base)
}

// ParseConfig decodes a YAML or JSON document and overlays it on base.
func ParseConfig(buf []byte, base Config) (Config, error) {
	cfg := base
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return base, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Zones returns the configured availability zones, or the first two zones
// of the region when none are configured.
func (c Config) Zones() []string {
	if len(c.AvailabilityZones) > 0 {
		return c.AvailabilityZones
	}
	return []string{c.Region + "a", c.Region + "b"}
}

// ParameterName is the key the load balancer DNS name is published under.
func (c Config) ParameterName() string {
	return "/" + c.StackName + "/LoadBalancerDnsName"
}

// WebServer returns the bootstrap configuration of the instances.
func (c Config) WebServer() bootstrap.WebServer {
	w := bootstrap.DefaultWebServer()
	if c.RuntimeSetupURL != "" {
		w.RuntimeSetupURL = c.RuntimeSetupURL
	}
	return w
}

// Validate checks the constraints CloudFormation would otherwise reject at
// apply time. Build does not call it.
func (c Config) Validate() error {
	if c.StackName == "" {
		return ErrMissingStackName
	}
	if !validStackName(c.StackName) {
		return fmt.Errorf("%w: %q", ErrInvalidStackName, c.StackName)
	}
	if c.Region == "" {
		return ErrMissingRegion
	}

	zones := c.Zones()
	if len(zones) < MaxAvailabilityZones {
		return fmt.Errorf("%w: got %d", ErrTooFewAvailabilityZones, len(zones))
	}
	seen := make(map[string]struct{}, len(zones))
	for _, z := range zones {
		if _, ok := seen[z]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateAvailabilityZone, z)
		}
		seen[z] = struct{}{}
	}

	prefix, err := netip.ParsePrefix(c.VPCCIDR)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidVPCCIDR, c.VPCCIDR, err)
	}
	if !prefix.Addr().Is4() {
		return fmt.Errorf("%w %q: not an IPv4 block", ErrInvalidVPCCIDR, c.VPCCIDR)
	}
	if prefix != prefix.Masked() {
		return fmt.Errorf("%w %q: host bits are set, use %s", ErrInvalidVPCCIDR, c.VPCCIDR, prefix.Masked())
	}
	if c.SubnetCIDRMask < prefix.Bits() || c.SubnetCIDRMask > prefix.Addr().BitLen() {
		return fmt.Errorf("%w: /%d in %s", ErrSubnetMaskDoesNotFit, c.SubnetCIDRMask, c.VPCCIDR)
	}
	if c.SubnetCIDRMask-prefix.Bits() < 1 {
		return fmt.Errorf("%w: /%d in %s leaves room for fewer than %d subnets", ErrSubnetMaskDoesNotFit, c.SubnetCIDRMask, c.VPCCIDR, MaxAvailabilityZones)
	}

	if c.MachineImage.SSMParameterPath() == "" {
		return fmt.Errorf("%w: %q", ErrUnknownMachineImage, c.MachineImage)
	}
	if c.ListenerPort < 1 || c.ListenerPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidListenerPort, c.ListenerPort)
	}
	return nil
}
