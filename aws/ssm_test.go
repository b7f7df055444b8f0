package aws_test

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zalando-incubator/ec2-lb-stack/aws"
	awsmock "github.com/zalando-incubator/ec2-lb-stack/internal/aws/mock"
)

func TestGetParameter(t *testing.T) {
	m := &awsmock.SSMAPI{}
	m.On("GetParameter", mock.Anything, mock.MatchedBy(func(in *ssm.GetParameterInput) bool {
		return *in.Name == "/MyEc2Stack/LoadBalancerDnsName"
	}), mock.Anything).Return(&ssm.GetParameterOutput{
		Parameter: &ssmtypes.Parameter{Value: s("web-123.us-east-1.elb.amazonaws.com")},
	}, nil)

	a := aws.NewAdapterWithClients(&awsmock.CloudFormationAPI{}, m, &awsmock.ELBV2API{}, &awsmock.EC2API{}, "us-east-1")
	v, err := a.GetParameter(context.Background(), "/MyEc2Stack/LoadBalancerDnsName")
	require.NoError(t, err)
	assert.Equal(t, "web-123.us-east-1.elb.amazonaws.com", v)
}

func TestGetParameterErrors(t *testing.T) {
	for _, ti := range []struct {
		name   string
		output *ssm.GetParameterOutput
		err    error
		want   error
	}{
		{"not found", (*ssm.GetParameterOutput)(nil), &ssmtypes.ParameterNotFound{}, aws.ErrParameterNotFound},
		{"empty response", &ssm.GetParameterOutput{}, nil, aws.ErrParameterNotFound},
		{"other error", (*ssm.GetParameterOutput)(nil), errDummy, errDummy},
	} {
		t.Run(ti.name, func(t *testing.T) {
			m := &awsmock.SSMAPI{}
			m.On("GetParameter", mock.Anything, mock.Anything, mock.Anything).Return(ti.output, ti.err)

			a := aws.NewAdapterWithClients(&awsmock.CloudFormationAPI{}, m, &awsmock.ELBV2API{}, &awsmock.EC2API{}, "us-east-1")
			_, err := a.GetParameter(context.Background(), "/web/LoadBalancerDnsName")
			assert.ErrorIs(t, err, ti.want)
		})
	}
}
