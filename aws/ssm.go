package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// GetParameter returns the value of the SSM parameter name.
func (a *Adapter) GetParameter(ctx context.Context, name string) (string, error) {
	resp, err := a.ssm.GetParameter(ctx, &ssm.GetParameterInput{
		Name: aws.String(name),
	})
	if err != nil {
		var notFound *ssmtypes.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", fmt.Errorf("%w: %s", ErrParameterNotFound, name)
		}
		return "", fmt.Errorf("failed to get parameter %q: %w", name, err)
	}
	if resp.Parameter == nil {
		return "", fmt.Errorf("%w: %s", ErrParameterNotFound, name)
	}
	return aws.ToString(resp.Parameter.Value), nil
}
