// Package mock provides testify mocks of the AWS clients used by the aws package.
package mock

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/zalando-incubator/ec2-lb-stack/aws"

	"github.com/stretchr/testify/mock"
)

// CloudFormationAPI is a mock implementation of [aws.CloudFormationAPI]
type CloudFormationAPI struct {
	mock.Mock
}

var _ aws.CloudFormationAPI = &CloudFormationAPI{}

func (m *CloudFormationAPI) DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error) {
	args := m.Called(ctx, params, optFns)
	return args.Get(0).(*cloudformation.DescribeStacksOutput), args.Error(1)
}

func (m *CloudFormationAPI) CreateStack(ctx context.Context, params *cloudformation.CreateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error) {
	args := m.Called(ctx, params, optFns)
	return args.Get(0).(*cloudformation.CreateStackOutput), args.Error(1)
}

func (m *CloudFormationAPI) UpdateStack(ctx context.Context, params *cloudformation.UpdateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error) {
	args := m.Called(ctx, params, optFns)
	return args.Get(0).(*cloudformation.UpdateStackOutput), args.Error(1)
}

func (m *CloudFormationAPI) DeleteStack(ctx context.Context, params *cloudformation.DeleteStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error) {
	args := m.Called(ctx, params, optFns)
	return args.Get(0).(*cloudformation.DeleteStackOutput), args.Error(1)
}

// SSMAPI is a mock implementation of [aws.SSMAPI]
type SSMAPI struct {
	mock.Mock
}

var _ aws.SSMAPI = &SSMAPI{}

func (m *SSMAPI) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	args := m.Called(ctx, params, optFns)
	return args.Get(0).(*ssm.GetParameterOutput), args.Error(1)
}

// ELBV2API is a mock implementation of [aws.ELBV2API]
type ELBV2API struct {
	mock.Mock
}

var _ aws.ELBV2API = &ELBV2API{}

func (m *ELBV2API) DescribeTargetHealth(ctx context.Context, params *elbv2.DescribeTargetHealthInput, optFns ...func(*elbv2.Options)) (*elbv2.DescribeTargetHealthOutput, error) {
	args := m.Called(ctx, params, optFns)
	return args.Get(0).(*elbv2.DescribeTargetHealthOutput), args.Error(1)
}

// EC2API is a mock implementation of [aws.EC2API]
type EC2API struct {
	mock.Mock
}

var _ aws.EC2API = &EC2API{}

func (m *EC2API) DescribeAvailabilityZones(ctx context.Context, params *ec2.DescribeAvailabilityZonesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeAvailabilityZonesOutput, error) {
	args := m.Called(ctx, params, optFns)
	return args.Get(0).(*ec2.DescribeAvailabilityZonesOutput), args.Error(1)
}
