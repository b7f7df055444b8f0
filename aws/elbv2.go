package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbv2types "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"
)

// TargetHealth is the health of one target registered in a target group.
type TargetHealth struct {
	ID     string
	Port   int32
	State  string
	Reason string
}

// IsHealthy returns true if the load balancer routes traffic to the target.
func (t TargetHealth) IsHealthy() bool {
	return t.State == string(elbv2types.TargetHealthStateEnumHealthy)
}

// TargetHealth returns the health of every target registered in the target group.
func (a *Adapter) TargetHealth(ctx context.Context, targetGroupARN string) ([]TargetHealth, error) {
	resp, err := a.elbv2.DescribeTargetHealth(ctx, &elbv2.DescribeTargetHealthInput{
		TargetGroupArn: aws.String(targetGroupARN),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe target health of %q: %w", targetGroupARN, err)
	}

	result := make([]TargetHealth, 0, len(resp.TargetHealthDescriptions))
	for _, d := range resp.TargetHealthDescriptions {
		th := TargetHealth{}
		if d.Target != nil {
			th.ID = aws.ToString(d.Target.Id)
			th.Port = aws.ToInt32(d.Target.Port)
		}
		if d.TargetHealth != nil {
			th.State = string(d.TargetHealth.State)
			th.Reason = string(d.TargetHealth.Reason)
		}
		result = append(result, th)
	}
	return result, nil
}
