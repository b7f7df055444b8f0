package stack

import (
	cloudformation "github.com/mweagle/go-cloudformation"
)

const templateDescription = "Two EC2 instances behind an internet-facing Application Load Balancer"

// Build assembles the template described by cfg. The result only depends on
// cfg: building twice from the same configuration yields the same template.
//
// Build does not validate cfg, CloudFormation rejects an invalid topology
// when the template is applied. Use Config.Validate for an early check.
func Build(cfg Config) (*cloudformation.Template, error) {
	t := cloudformation.NewTemplate()
	t.Description = templateDescription
	t.Parameters = map[string]*cloudformation.Parameter{
		machineImageParameterID: {
			Type:        "AWS::SSM::Parameter::Value<AWS::EC2::Image::Id>",
			Description: "SSM parameter holding the image ID of the instances",
			Default:     cfg.MachineImage.SSMParameterPath(),
		},
	}

	zones := cfg.Zones()
	if len(zones) > MaxAvailabilityZones {
		zones = zones[:MaxAvailabilityZones]
	}

	subnets, err := addNetwork(t, cfg, zones)
	if err != nil {
		return nil, err
	}

	addLoadBalancer(t, cfg, subnets)

	instances := make([]instance, 0, len(subnets))
	for i, subnet := range subnets {
		inst := newInstance(t, cfg, instanceID(i+1), subnet)
		allowFromLoadBalancer(t, cfg, inst)
		instances = append(instances, inst)
	}

	addTargetGroup(t, cfg, instances)
	addListener(t, cfg)
	addDNSNameParameter(t, cfg)

	t.Outputs = map[string]*cloudformation.Output{
		OutputLoadBalancerDNSName: {
			Description: "DNS name of the load balancer",
			Value:       cloudformation.GetAtt(loadBalancerID, "DNSName").String(),
		},
		OutputTargetGroupARN: {
			Description: "The ARN of the target group",
			Value:       cloudformation.Ref(targetGroupID).String(),
		},
	}
	return t, nil
}
