package aws_test

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zalando-incubator/ec2-lb-stack/aws"
	awsmock "github.com/zalando-incubator/ec2-lb-stack/internal/aws/mock"
)

func TestAvailabilityZones(t *testing.T) {
	m := &awsmock.EC2API{}
	m.On("DescribeAvailabilityZones", mock.Anything, mock.MatchedBy(func(in *ec2.DescribeAvailabilityZonesInput) bool {
		return len(in.Filters) == 2 && *in.Filters[0].Name == "state"
	}), mock.Anything).Return(&ec2.DescribeAvailabilityZonesOutput{
		AvailabilityZones: []ec2types.AvailabilityZone{
			{ZoneName: s("us-east-1c"), State: ec2types.AvailabilityZoneStateAvailable},
			{ZoneName: s("us-east-1a"), State: ec2types.AvailabilityZoneStateAvailable},
			{ZoneName: s("us-east-1e"), State: ec2types.AvailabilityZoneStateImpaired},
		},
	}, nil)

	a := aws.NewAdapterWithClients(&awsmock.CloudFormationAPI{}, &awsmock.SSMAPI{}, &awsmock.ELBV2API{}, m, "us-east-1")
	zones, err := a.AvailabilityZones(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"us-east-1a", "us-east-1c"}, zones)
	assert.Equal(t, "us-east-1", a.Region())
}

func TestAvailabilityZonesError(t *testing.T) {
	m := &awsmock.EC2API{}
	m.On("DescribeAvailabilityZones", mock.Anything, mock.Anything, mock.Anything).
		Return((*ec2.DescribeAvailabilityZonesOutput)(nil), errDummy)

	a := aws.NewAdapterWithClients(&awsmock.CloudFormationAPI{}, &awsmock.SSMAPI{}, &awsmock.ELBV2API{}, m, "us-east-1")
	_, err := a.AvailabilityZones(context.Background())
	assert.ErrorIs(t, err, errDummy)
}
