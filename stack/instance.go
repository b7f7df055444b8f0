package stack

import (
	cloudformation "github.com/mweagle/go-cloudformation"
)

// instance is an EC2 instance added to the template.
type instance struct {
	logicalID       string
	securityGroupID string
	subnet          publicSubnet
}

func (i instance) ref() *cloudformation.StringExpr {
	return cloudformation.Ref(i.logicalID).String()
}

func (i instance) securityGroup() *cloudformation.StringExpr {
	return cloudformation.GetAtt(i.securityGroupID, "GroupId").String()
}

// newInstance adds one instance placed in subnet together with its own
// security group. SSH and the web server port are open to every IPv4
// source.
func newInstance(t *cloudformation.Template, cfg Config, id string, subnet publicSubnet) instance {
	inst := instance{
		logicalID:       id,
		securityGroupID: instanceSecurityGroupID(id),
		subnet:          subnet,
	}
	web := cfg.WebServer()

	t.AddResource(inst.securityGroupID, &cloudformation.EC2SecurityGroup{
		GroupDescription: cloudformation.String(pathName(cfg.StackName, id, "InstanceSecurityGroup")),
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
				Description: cloudformation.String("Allow SSH access from anywhere"),
				IPProtocol:  cloudformation.String("tcp"),
				FromPort:    cloudformation.Integer(sshPort),
				ToPort:      cloudformation.Integer(sshPort),
			},
			{
				CidrIP:      cloudformation.String(anyIPv4),
				Description: cloudformation.String("Allow HTTP access from anywhere"),
				IPProtocol:  cloudformation.String("tcp"),
				FromPort:    cloudformation.Integer(int64(web.Port)),
				ToPort:      cloudformation.Integer(int64(web.Port)),
			},
		},
		Tags: &cloudformation.TagList{
			{Key: cloudformation.String(nameTag), Value: cloudformation.String(pathName(cfg.StackName, id))},
		},
	})

	res := t.AddResource(id, &cloudformation.EC2Instance{
		AvailabilityZone: cloudformation.String(subnet.zone),
		ImageID:          cloudformation.Ref(machineImageParameterID).String(),
		InstanceType:     cloudformation.String(cfg.InstanceType),
		KeyName:          cloudformation.String(cfg.KeyName),
		SecurityGroupIDs: cloudformation.StringList(inst.securityGroup()),
		SubnetID:         subnet.ref(),
		UserData:         cloudformation.Base64(cloudformation.String(web.Script().String())),
		Tags: &cloudformation.TagList{
			{Key: cloudformation.String(nameTag), Value: cloudformation.String(pathName(cfg.StackName, id))},
		},
	})
	// an instance in a public subnet needs its default route to reach the
	// runtime repository while bootstrapping
	res.DependsOn = []string{defaultRouteID(subnet.logicalID)}

	return inst
}

// allowFromLoadBalancer opens the web server port of the instance to the
// load balancer security group.
func allowFromLoadBalancer(t *cloudformation.Template, cfg Config, inst instance) {
	port := int64(cfg.WebServer().Port)
	t.AddResource(instanceIngressFromLoadBalancerID(inst.logicalID, int(port)), &cloudformation.EC2SecurityGroupIngress{
		GroupID:               inst.securityGroup(),
		SourceSecurityGroupID: cloudformation.GetAtt(loadBalancerSGID, "GroupId").String(),
		IPProtocol:            cloudformation.String("tcp"),
		FromPort:              cloudformation.Integer(port),
		ToPort:                cloudformation.Integer(port),
		Description:           cloudformation.String("Load balancer to target"),
	})
}
