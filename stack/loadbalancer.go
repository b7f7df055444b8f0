package stack

import (
	cloudformation "github.com/mweagle/go-cloudformation"
)

const (
	loadBalancerSchemeInternetFacing = "internet-facing"
	loadBalancerTypeApplication      = "application"
	targetTypeInstance               = "instance"
	protocolHTTP                     = "HTTP"
	actionTypeForward                = "forward"
)

// addLoadBalancer adds the internet-facing load balancer spanning subnets
// and its security group. The security group accepts the listener port from
// everywhere and allows all outbound traffic.
func addLoadBalancer(t *cloudformation.Template, cfg Config, subnets []publicSubnet) {
	t.AddResource(loadBalancerSGID, &cloudformation.EC2SecurityGroup{
		GroupDescription: cloudformation.String("Automatically created Security Group for ELB " + pathName(cfg.StackName, loadBalancerID)),
		VPCID:            cloudformation.Ref(vpcID).String(),
		SecurityGroupEgress: &cloudformation.EC2SecurityGroupEgressPropertyList{
			{
				CidrIP:      cloudformation.String(anyIPv4),
				Description: cloudformation.String("Allow all outbound traffic by default"),
				IPProtocol:  cloudformation.String(allProtocols),
			},
		},
		SecurityGroupIngress: &cloudformation.EC2SecurityGroupIngressPropertyList{
			{
				CidrIP:      cloudformation.String(anyIPv4),
				Description: cloudformation.String("Allow from anyone on the listener port"),
				IPProtocol:  cloudformation.String("tcp"),
				FromPort:    cloudformation.Integer(int64(cfg.ListenerPort)),
				ToPort:      cloudformation.Integer(int64(cfg.ListenerPort)),
			},
		},
	})

	subnetRefs := make([]cloudformation.Stringable, 0, len(subnets))
	for _, s := range subnets {
		subnetRefs = append(subnetRefs, s.ref())
	}

	lb := t.AddResource(loadBalancerID, &cloudformation.ElasticLoadBalancingV2LoadBalancer{
		Scheme:         cloudformation.String(loadBalancerSchemeInternetFacing),
		Type:           cloudformation.String(loadBalancerTypeApplication),
		SecurityGroups: cloudformation.StringList(cloudformation.GetAtt(loadBalancerSGID, "GroupId").String()),
		Subnets:        cloudformation.StringList(subnetRefs...),
		LoadBalancerAttributes: &cloudformation.ElasticLoadBalancingV2LoadBalancerLoadBalancerAttributeList{
			{
				Key:   cloudformation.String("deletion_protection.enabled"),
				Value: cloudformation.String("false"),
			},
		},
		Tags: &cloudformation.TagList{
			{
				Key:   cloudformation.String("StackName"),
				Value: cloudformation.Ref("AWS::StackName").String(),
			},
		},
	})
	// an internet-facing load balancer requires the gateway to be attached
	lb.DependsOn = []string{gatewayAttachmentID}
	for _, s := range subnets {
		lb.DependsOn = append(lb.DependsOn, defaultRouteID(s.logicalID))
	}
}

// addTargetGroup adds the target group registering every instance by ID.
func addTargetGroup(t *cloudformation.Template, cfg Config, instances []instance) {
	targets := make(cloudformation.ElasticLoadBalancingV2TargetGroupTargetDescriptionList, 0, len(instances))
	for _, inst := range instances {
		targets = append(targets, cloudformation.ElasticLoadBalancingV2TargetGroupTargetDescription{
			ID: inst.ref(),
		})
	}

	t.AddResource(targetGroupID, &cloudformation.ElasticLoadBalancingV2TargetGroup{
		Port:       cloudformation.Integer(int64(cfg.WebServer().Port)),
		Protocol:   cloudformation.String(protocolHTTP),
		TargetType: cloudformation.String(targetTypeInstance),
		Targets:    &targets,
		VPCID:      cloudformation.Ref(vpcID).String(),
	})
}

// addListener adds the single listener forwarding to the target group.
func addListener(t *cloudformation.Template, cfg Config) {
	t.AddResource(listenerID, &cloudformation.ElasticLoadBalancingV2Listener{
		DefaultActions: &cloudformation.ElasticLoadBalancingV2ListenerActionList{
			{
				Type:           cloudformation.String(actionTypeForward),
				TargetGroupArn: cloudformation.Ref(targetGroupID).String(),
			},
		},
		LoadBalancerArn: cloudformation.Ref(loadBalancerID).String(),
		Port:            cloudformation.Integer(int64(cfg.ListenerPort)),
		Protocol:        cloudformation.String(protocolHTTP),
	})
}

// addDNSNameParameter publishes the load balancer DNS name in the SSM
// parameter store.
func addDNSNameParameter(t *cloudformation.Template, cfg Config) {
	t.AddResource(dnsNameParameterID, &cloudformation.SSMParameter{
		Name:  cloudformation.String(cfg.ParameterName()),
		Type:  cloudformation.String("String"),
		Value: cloudformation.GetAtt(loadBalancerID, "DNSName").String(),
	})
}
