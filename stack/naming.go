package stack

import (
	"fmt"
	"regexp"
	"strconv"
)

// Logical IDs of the template resources.
const (
	vpcID                   = "MyVpc"
	internetGatewayID       = "MyVpcIGW"
	gatewayAttachmentID     = "MyVpcVPCGW"
	loadBalancerID          = "MyLoadBalancer"
	loadBalancerSGID        = "LoadBalancerSecurityGroup"
	targetGroupID           = "MyTargetGroup"
	listenerID              = "MyLoadBalancerListener"
	dnsNameParameterID      = "LoadBalancerDnsName"
	machineImageParameterID = "MachineImageParameter"

	instanceIDPrefix = "MyInstance"
	publicSubnetName = "PublicSubnet"
)

// Outputs of the template.
const (
	OutputLoadBalancerDNSName = "LoadBalancerDNSName"
	OutputTargetGroupARN      = "TargetGroupARN"
)

const (
	nameTag = "Name"

	maxStackNameLen = 128

	anyIPv4      = "0.0.0.0/0"
	allProtocols = "-1"
	sshPort      = 22
)

var stackNameRegex = regexp.MustCompile("^[A-Za-z][A-Za-z0-9-]*$")

// validStackName reports whether CloudFormation accepts name as a stack
// name. The name is also the first element of the SSM parameter path.
func validStackName(name string) bool {
	return len(name) <= maxStackNameLen && stackNameRegex.MatchString(name)
}

func subnetID(n int) string {
	return vpcID + publicSubnetName + strconv.Itoa(n)
}

func routeTableID(subnet string) string {
	return subnet + "RouteTable"
}

func routeTableAssociationID(subnet string) string {
	return subnet + "RouteTableAssociation"
}

func defaultRouteID(subnet string) string {
	return subnet + "DefaultRoute"
}

func instanceID(n int) string {
	return instanceIDPrefix + strconv.Itoa(n)
}

func instanceSecurityGroupID(instance string) string {
	return instance + "InstanceSecurityGroup"
}

func instanceIngressFromLoadBalancerID(instance string, port int) string {
	return fmt.Sprintf("%sFromLoadBalancer%d", instanceSecurityGroupID(instance), port)
}

// pathName is the value of the Name tag, "<stack>/<construct>".
func pathName(stackName string, parts ...string) string {
	name := stackName
	for _, p := range parts {
		name += "/" + p
	}
	return name
}
