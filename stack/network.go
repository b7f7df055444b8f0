package stack

import (
	"fmt"
	"net"

	"github.com/apparentlymart/go-cidr/cidr"
	cloudformation "github.com/mweagle/go-cloudformation"
)

// publicSubnet is a subnet added to the template.
type publicSubnet struct {
	logicalID string
	zone      string
	cidr      string
}

// ref returns the subnet ID.
func (s publicSubnet) ref() *cloudformation.StringExpr {
	return cloudformation.Ref(s.logicalID).String()
}

// addNetwork adds the VPC, the internet gateway and one public subnet per
// zone. Every subnet gets its own route table with a default route through
// the internet gateway.
func addNetwork(t *cloudformation.Template, cfg Config, zones []string) ([]publicSubnet, error) {
	t.AddResource(vpcID, &cloudformation.EC2VPC{
		CidrBlock: cloudformation.String(cfg.VPCCIDR),
		Tags: &cloudformation.TagList{
			{Key: cloudformation.String(nameTag), Value: cloudformation.String(pathName(cfg.StackName, vpcID))},
		},
	})
	t.AddResource(internetGatewayID, &cloudformation.EC2InternetGateway{
		Tags: &cloudformation.TagList{
			{Key: cloudformation.String(nameTag), Value: cloudformation.String(pathName(cfg.StackName, vpcID))},
		},
	})
	t.AddResource(gatewayAttachmentID, &cloudformation.EC2VPCGatewayAttachment{
		VPCID:             cloudformation.Ref(vpcID).String(),
		InternetGatewayID: cloudformation.Ref(internetGatewayID).String(),
	})

	subnets := make([]publicSubnet, 0, len(zones))
	for i, zone := range zones {
		cidr, err := subnetCIDR(cfg.VPCCIDR, cfg.SubnetCIDRMask, i)
		if err != nil {
			return nil, err
		}
		s := publicSubnet{logicalID: subnetID(i + 1), zone: zone, cidr: cidr}

		t.AddResource(s.logicalID, &cloudformation.EC2Subnet{
			VPCID:               cloudformation.Ref(vpcID).String(),
			AvailabilityZone:    cloudformation.String(zone),
			CidrBlock:           cloudformation.String(cidr),
			MapPublicIPOnLaunch: cloudformation.Bool(true),
			Tags: &cloudformation.TagList{
				{Key: cloudformation.String(nameTag), Value: cloudformation.String(pathName(cfg.StackName, vpcID, publicSubnetName+fmt.Sprint(i+1)))},
			},
		})
		t.AddResource(routeTableID(s.logicalID), &cloudformation.EC2RouteTable{
			VPCID: cloudformation.Ref(vpcID).String(),
		})
		t.AddResource(routeTableAssociationID(s.logicalID), &cloudformation.EC2SubnetRouteTableAssociation{
			RouteTableID: cloudformation.Ref(routeTableID(s.logicalID)).String(),
			SubnetID:     s.ref(),
		})
		route := t.AddResource(defaultRouteID(s.logicalID), &cloudformation.EC2Route{
			RouteTableID:         cloudformation.Ref(routeTableID(s.logicalID)).String(),
			DestinationCidrBlock: cloudformation.String(anyIPv4),
			GatewayID:            cloudformation.Ref(internetGatewayID).String(),
		})
		// the route can only be created once the gateway is attached
		route.DependsOn = []string{gatewayAttachmentID}

		subnets = append(subnets, s)
	}
	return subnets, nil
}

// subnetCIDR returns the index-th block of size mask inside the IPv4 block
// vpcCIDR.
func subnetCIDR(vpcCIDR string, mask, index int) (string, error) {
	_, base, err := net.ParseCIDR(vpcCIDR)
	if err != nil {
		return "", fmt.Errorf("invalid VPC CIDR block %q: %w", vpcCIDR, err)
	}
	if base.IP.To4() == nil {
		return "", fmt.Errorf("VPC CIDR block %q is not an IPv4 block", vpcCIDR)
	}
	bits, _ := base.Mask.Size()
	if mask < bits || mask > 32 {
		return "", fmt.Errorf("subnet mask /%d does not fit into %s", mask, base)
	}

	subnet, err := cidr.Subnet(base, mask-bits, index)
	if err != nil {
		return "", fmt.Errorf("%s has no room for %d subnets of size /%d: %w", base, index+1, mask, err)
	}
	return subnet.String(), nil
}
