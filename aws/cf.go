package aws

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	// These keys must match the Outputs section of the stack template.
	outputLoadBalancerDNSName = "LoadBalancerDNSName"
	outputTargetGroupARN      = "TargetGroupARN"

	// ManagedByTag is set on every stack created by the adapter.
	ManagedByTag   = "managed-by"
	managedByValue = "ec2-lb-stack"

	noUpdatesMessage = "No updates are to be performed"
	notExistMessage  = "does not exist"
)

// Stack is a simple wrapper around a CloudFormation Stack.
type Stack struct {
	name         string
	id           string
	status       string
	statusReason string
	outputs      map[string]string
	tags         map[string]string
}

func (s *Stack) Name() string {
	return s.name
}

func (s *Stack) ID() string {
	return s.id
}

func (s *Stack) Status() string {
	return s.status
}

func (s *Stack) StatusReason() string {
	return s.statusReason
}

// Output returns the value of the output key and whether the stack has it.
func (s *Stack) Output(key string) (string, bool) {
	v, ok := s.outputs[key]
	return v, ok
}

// OutputKeys returns the sorted keys of all outputs.
func (s *Stack) OutputKeys() []string {
	keys := make([]string, 0, len(s.outputs))
	for k := range s.outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Stack) DNSName() string {
	return s.outputs[outputLoadBalancerDNSName]
}

func (s *Stack) TargetGroupARN() string {
	return s.outputs[outputTargetGroupARN]
}

func (s *Stack) Tags() map[string]string {
	return s.tags
}

// IsInProgress returns true while CloudFormation is still working on the stack.
func (s *Stack) IsInProgress() bool {
	return strings.HasSuffix(s.status, "_IN_PROGRESS")
}

// IsComplete returns true if the last create or update of the stack succeeded.
func (s *Stack) IsComplete() bool {
	switch cftypes.StackStatus(s.status) {
	case cftypes.StackStatusCreateComplete,
		cftypes.StackStatusUpdateComplete,
		cftypes.StackStatusImportComplete:
		return true
	}
	return false
}

// IsFailed returns true if the stack ended in a failed or rolled back state.
func (s *Stack) IsFailed() bool {
	if s.IsInProgress() {
		return false
	}
	return strings.HasSuffix(s.status, "_FAILED") || strings.Contains(s.status, "ROLLBACK")
}

// StackSpec describes the stack EnsureStack converges to.
type StackSpec struct {
	Name             string
	TemplateBody     string
	Tags             map[string]string
	TimeoutInMinutes int32
}

// EnsureStack creates the stack if it does not exist yet and updates it
// otherwise. It returns the stack ID. ErrNoUpdateNeeded is returned when the
// stack already matches the spec.
func (a *Adapter) EnsureStack(ctx context.Context, spec StackSpec) (string, error) {
	existing, err := a.GetStack(ctx, spec.Name)
	switch {
	case errors.Is(err, ErrStackNotFound):
		log.Infof("creating stack %q", spec.Name)
		return createStack(ctx, a.cloudformation, spec)
	case err != nil:
		return "", err
	}

	if existing.IsInProgress() {
		return existing.ID(), fmt.Errorf("stack %q is busy with %s", spec.Name, existing.Status())
	}
	log.Infof("updating stack %q in state %s", spec.Name, existing.Status())
	return updateStack(ctx, a.cloudformation, spec)
}

// DeleteStack deletes the stack with the given name.
func (a *Adapter) DeleteStack(ctx context.Context, name string) error {
	log.Infof("deleting stack %q", name)
	_, err := a.cloudformation.DeleteStack(ctx, &cloudformation.DeleteStackInput{
		StackName:          aws.String(name),
		ClientRequestToken: aws.String(uuid.NewString()),
	})
	if err != nil {
		return fmt.Errorf("failed to delete stack %q: %w", name, err)
	}
	return nil
}

// GetStack returns the stack with the given name or ID.
func (a *Adapter) GetStack(ctx context.Context, name string) (*Stack, error) {
	resp, err := a.cloudformation.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(name),
	})
	if err != nil {
		if isStackNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrStackNotFound, name)
		}
		return nil, fmt.Errorf("failed to describe stack %q: %w", name, err)
	}
	if len(resp.Stacks) < 1 {
		return nil, fmt.Errorf("%w: %s", ErrStackNotFound, name)
	}
	return mapToStack(resp.Stacks[0]), nil
}

// WaitForStack polls the stack every interval until CloudFormation is done
// with it. A stack ending in a failed state yields ErrStackFailed, a deleted
// stack yields ErrStackNotFound. The interval must be positive.
func (a *Adapter) WaitForStack(ctx context.Context, name string, interval time.Duration) (*Stack, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPollInterval, interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s, err := a.GetStack(ctx, name)
		if err != nil {
			return nil, err
		}
		switch {
		case s.IsInProgress():
			log.Debugf("stack %q is %s", name, s.Status())
		case cftypes.StackStatus(s.Status()) == cftypes.StackStatusDeleteComplete:
			if reason := s.StatusReason(); reason != "" {
				log.Warnf("stack %q was deleted: %s", name, reason)
				return s, fmt.Errorf("%w: %s was deleted: %s", ErrStackNotFound, name, reason)
			}
			return s, fmt.Errorf("%w: %s was deleted", ErrStackNotFound, name)
		case s.IsFailed():
			return s, fmt.Errorf("%w: stack %q is %s: %s", ErrStackFailed, name, s.Status(), s.StatusReason())
		default:
			log.Infof("stack %q is %s", name, s.Status())
			return s, nil
		}

		select {
		case <-ctx.Done():
			return s, ctx.Err()
		case <-ticker.C:
		}
	}
}

func createStack(ctx context.Context, svc CloudFormationAPI, spec StackSpec) (string, error) {
	timeout := spec.TimeoutInMinutes
	if timeout <= 0 {
		timeout = DefaultStackTimeoutInMinutes
	}
	params := &cloudformation.CreateStackInput{
		StackName:          aws.String(spec.Name),
		TemplateBody:       aws.String(spec.TemplateBody),
		OnFailure:          cftypes.OnFailureDelete,
		TimeoutInMinutes:   aws.Int32(timeout),
		ClientRequestToken: aws.String(uuid.NewString()),
		Tags:               cfTags(spec.Tags),
	}

	resp, err := svc.CreateStack(ctx, params)
	if err != nil {
		var exists *cftypes.AlreadyExistsException
		if errors.As(err, &exists) {
			return spec.Name, fmt.Errorf("stack %q was created concurrently: %w", spec.Name, err)
		}
		return spec.Name, fmt.Errorf("failed to create stack %q: %w", spec.Name, err)
	}
	return aws.ToString(resp.StackId), nil
}

func updateStack(ctx context.Context, svc CloudFormationAPI, spec StackSpec) (string, error) {
	params := &cloudformation.UpdateStackInput{
		StackName:          aws.String(spec.Name),
		TemplateBody:       aws.String(spec.TemplateBody),
		ClientRequestToken: aws.String(uuid.NewString()),
		Tags:               cfTags(spec.Tags),
	}

	resp, err := svc.UpdateStack(ctx, params)
	if err != nil {
		if isNoUpdates(err) {
			return spec.Name, ErrNoUpdateNeeded
		}
		return spec.Name, fmt.Errorf("failed to update stack %q: %w", spec.Name, err)
	}
	return aws.ToString(resp.StackId), nil
}

// cfTags converts tags to CloudFormation tags sorted by key and adds the
// managed-by tag.
func cfTags(tags map[string]string) []cftypes.Tag {
	merged := map[string]string{ManagedByTag: managedByValue}
	for k, v := range tags {
		merged[k] = v
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]cftypes.Tag, 0, len(keys))
	for _, k := range keys {
		result = append(result, cftypes.Tag{Key: aws.String(k), Value: aws.String(merged[k])})
	}
	return result
}

func mapToStack(s cftypes.Stack) *Stack {
	outputs := make(map[string]string, len(s.Outputs))
	for _, o := range s.Outputs {
		outputs[aws.ToString(o.OutputKey)] = aws.ToString(o.OutputValue)
	}
	tags := make(map[string]string, len(s.Tags))
	for _, t := range s.Tags {
		tags[aws.ToString(t.Key)] = aws.ToString(t.Value)
	}
	return &Stack{
		name:         aws.ToString(s.StackName),
		id:           aws.ToString(s.StackId),
		status:       string(s.StackStatus),
		statusReason: aws.ToString(s.StackStatusReason),
		outputs:      outputs,
		tags:         tags,
	}
}

func isStackNotExist(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && strings.Contains(apiErr.ErrorMessage(), notExistMessage)
}

func isNoUpdates(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && strings.Contains(apiErr.ErrorMessage(), noUpdatesMessage)
}
