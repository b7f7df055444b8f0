package aws

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/linki/instrumented_http"
	log "github.com/sirupsen/logrus"
)

// An Adapter can be used to deploy the stack and obtain information about it from Amazon Web Services.
type Adapter struct {
	cloudformation CloudFormationAPI
	ssm            SSMAPI
	elbv2          ELBV2API
	ec2            EC2API

	region string
}

const (
	// DefaultMaxRetries is the number of attempts of every AWS API call.
	DefaultMaxRetries = 3
	// DefaultStackTimeoutInMinutes bounds the creation of a stack on the CloudFormation side.
	DefaultStackTimeoutInMinutes = 30
)

var (
	// ErrStackNotFound is used to signal that a given CF stack was not found.
	ErrStackNotFound = errors.New("stack not found")
	// ErrStackFailed is used to signal that a given CF stack ended in a failed or rolled back state.
	ErrStackFailed = errors.New("stack operation failed")
	// ErrNoUpdateNeeded is used to signal that an update would not change the stack.
	ErrNoUpdateNeeded = errors.New("no updates are to be performed")
	// ErrParameterNotFound is used to signal that a given SSM parameter does not exist.
	ErrParameterNotFound = errors.New("parameter not found")
	// ErrInvalidPollInterval is used to signal that a wait was requested with a non-positive poll interval.
	ErrInvalidPollInterval = errors.New("poll interval must be positive")
)

// NewAdapter returns a new Adapter for region. Credentials are resolved by the default chain of the SDK.
// Every API call goes through an instrumented HTTP client.
func NewAdapter(ctx context.Context, region string) (*Adapter, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithRetryMaxAttempts(DefaultMaxRetries),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	cfg.HTTPClient = instrumentedHTTPClient(cfg.HTTPClient)
	log.Debugf("loaded AWS configuration for region %s", cfg.Region)

	return NewAdapterWithClients(
		cloudformation.NewFromConfig(cfg),
		ssm.NewFromConfig(cfg),
		elbv2.NewFromConfig(cfg),
		ec2.NewFromConfig(cfg),
		cfg.Region,
	), nil
}

// instrumentedHTTPClient wraps the transport of the SDK client, keeping its
// TLS settings such as a custom CA bundle.
func instrumentedHTTPClient(sdkClient aws.HTTPClient) *http.Client {
	next := &http.Client{}
	if b, ok := sdkClient.(*awshttp.BuildableClient); ok {
		next.Transport = b.GetTransport()
		next.Timeout = b.GetTimeout()
	}
	return instrumented_http.NewClient(next, nil)
}

// NewAdapterWithClients returns an Adapter using the given clients.
func NewAdapterWithClients(cf CloudFormationAPI, ssmClient SSMAPI, elb ELBV2API, ec2Client EC2API, region string) *Adapter {
	return &Adapter{
		cloudformation: cf,
		ssm:            ssmClient,
		elbv2:          elb,
		ec2:            ec2Client,
		region:         region,
	}
}

// Region returns the region the adapter talks to.
func (a *Adapter) Region() string {
	return a.region
}
