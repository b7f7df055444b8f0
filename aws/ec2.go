package aws

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// AvailabilityZones returns the names of the available zones of the region, sorted.
func (a *Adapter) AvailabilityZones(ctx context.Context) ([]string, error) {
	resp, err := a.ec2.DescribeAvailabilityZones(ctx, &ec2.DescribeAvailabilityZonesInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("state"), Values: []string{string(ec2types.AvailabilityZoneStateAvailable)}},
			{Name: aws.String("zone-type"), Values: []string{"availability-zone"}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe availability zones: %w", err)
	}

	zones := make([]string, 0, len(resp.AvailabilityZones))
	for _, z := range resp.AvailabilityZones {
		if z.State != ec2types.AvailabilityZoneStateAvailable {
			continue
		}
		zones = append(zones, aws.ToString(z.ZoneName))
	}
	sort.Strings(zones)
	return zones, nil
}
