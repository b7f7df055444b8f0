package aws_test

import (
	"context"
	"testing"

	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbv2types "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zalando-incubator/ec2-lb-stack/aws"
	awsmock "github.com/zalando-incubator/ec2-lb-stack/internal/aws/mock"
)

func i32(v int32) *int32 { return &v }

func TestTargetHealth(t *testing.T) {
	m := &awsmock.ELBV2API{}
	m.On("DescribeTargetHealth", mock.Anything, mock.MatchedBy(func(in *elbv2.DescribeTargetHealthInput) bool {
		return *in.TargetGroupArn == "arn:tg"
	}), mock.Anything).Return(&elbv2.DescribeTargetHealthOutput{
		TargetHealthDescriptions: []elbv2types.TargetHealthDescription{
			{
				Target:       &elbv2types.TargetDescription{Id: s("i-1"), Port: i32(80)},
				TargetHealth: &elbv2types.TargetHealth{State: elbv2types.TargetHealthStateEnumHealthy},
			},
			{
				Target: &elbv2types.TargetDescription{Id: s("i-2"), Port: i32(80)},
				TargetHealth: &elbv2types.TargetHealth{
					State:  elbv2types.TargetHealthStateEnumUnhealthy,
					Reason: elbv2types.TargetHealthReasonEnumFailedHealthChecks,
				},
			},
		},
	}, nil)

	a := aws.NewAdapterWithClients(&awsmock.CloudFormationAPI{}, &awsmock.SSMAPI{}, m, &awsmock.EC2API{}, "us-east-1")
	got, err := a.TargetHealth(context.Background(), "arn:tg")
	require.NoError(t, err)

	assert.Equal(t, []aws.TargetHealth{
		{ID: "i-1", Port: 80, State: "healthy"},
		{ID: "i-2", Port: 80, State: "unhealthy", Reason: "Target.FailedHealthChecks"},
	}, got)
	assert.True(t, got[0].IsHealthy())
	assert.False(t, got[1].IsHealthy())
}

func TestTargetHealthError(t *testing.T) {
	m := &awsmock.ELBV2API{}
	m.On("DescribeTargetHealth", mock.Anything, mock.Anything, mock.Anything).
		Return((*elbv2.DescribeTargetHealthOutput)(nil), errDummy)

	a := aws.NewAdapterWithClients(&awsmock.CloudFormationAPI{}, &awsmock.SSMAPI{}, m, &awsmock.EC2API{}, "us-east-1")
	_, err := a.TargetHealth(context.Background(), "arn:tg")
	assert.ErrorIs(t, err, errDummy)
}
