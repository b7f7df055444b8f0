package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/zalando-incubator/ec2-lb-stack/aws"
	"github.com/zalando-incubator/ec2-lb-stack/problem"
	"github.com/zalando-incubator/ec2-lb-stack/stack"
)

// stackAdapter is implemented by *aws.Adapter.
type stackAdapter interface {
	EnsureStack(ctx context.Context, spec aws.StackSpec) (string, error)
	DeleteStack(ctx context.Context, name string) error
	GetStack(ctx context.Context, name string) (*aws.Stack, error)
	WaitForStack(ctx context.Context, name string, interval time.Duration) (*aws.Stack, error)
	GetParameter(ctx context.Context, name string) (string, error)
	TargetHealth(ctx context.Context, targetGroupARN string) ([]aws.TargetHealth, error)
	AvailabilityZones(ctx context.Context) ([]string, error)
}

type worker struct {
	adapter      stackAdapter
	metrics      *metrics
	pollInterval time.Duration
	waitTimeout  time.Duration
}

func newWorker(adapter stackAdapter, m *metrics, pollInterval, waitTimeout time.Duration) *worker {
	return &worker{
		adapter:      adapter,
		metrics:      m,
		pollInterval: pollInterval,
		waitTimeout:  waitTimeout,
	}
}

func synth(cfg stack.Config, format stack.Format, out io.Writer) error {
	body, err := stack.Synthesize(cfg, format)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, body+"\n")
	return err
}

func (w *worker) deploy(ctx context.Context, cfg stack.Config, wait, discoverZones bool) (err error) {
	defer func() {
		w.metrics.observe(commandDeploy, err)
		if errors.Is(err, aws.ErrNoUpdateNeeded) {
			err = nil
		}
	}()

	if discoverZones && len(cfg.AvailabilityZones) == 0 {
		zones, zerr := w.adapter.AvailabilityZones(ctx)
		if zerr != nil {
			return zerr
		}
		if len(zones) < stack.MaxAvailabilityZones {
			return fmt.Errorf("%w: region %s has %d available", stack.ErrTooFewAvailabilityZones, cfg.Region, len(zones))
		}
		cfg.AvailabilityZones = zones[:stack.MaxAvailabilityZones]
		log.Infof("using availability zones %v", cfg.AvailabilityZones)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	body, err := stack.Synthesize(cfg, stack.FormatJSON)
	if err != nil {
		return err
	}

	stackID, err := w.adapter.EnsureStack(ctx, aws.StackSpec{
		Name:         cfg.StackName,
		TemplateBody: body,
	})
	if errors.Is(err, aws.ErrNoUpdateNeeded) {
		log.Infof("stack %q is up to date", cfg.StackName)
		return err
	}
	if err != nil {
		return err
	}
	log.Infof("stack %q submitted", stackID)

	if !wait {
		return nil
	}
	s, err := w.wait(ctx, stackID)
	if err != nil {
		return err
	}
	log.Infof("load balancer DNS name is %s", s.DNSName())
	return nil
}

func (w *worker) destroy(ctx context.Context, cfg stack.Config, wait bool) (err error) {
	defer func() { w.metrics.observe(commandDestroy, err) }()

	s, err := w.adapter.GetStack(ctx, cfg.StackName)
	if errors.Is(err, aws.ErrStackNotFound) {
		log.Infof("stack %q does not exist", cfg.StackName)
		return nil
	}
	if err != nil {
		return err
	}

	if err := w.adapter.DeleteStack(ctx, cfg.StackName); err != nil {
		return err
	}
	if !wait {
		return nil
	}
	// a deleted stack can only be described by its ID
	_, err = w.wait(ctx, s.ID())
	if errors.Is(err, aws.ErrStackNotFound) {
		log.Infof("stack %q deleted", cfg.StackName)
		return nil
	}
	return err
}

func (w *worker) wait(ctx context.Context, name string) (*aws.Stack, error) {
	ctx, cancel := context.WithTimeout(ctx, w.waitTimeout)
	defer cancel()

	start := time.Now()
	defer func() { w.metrics.waited(time.Since(start)) }()
	return w.adapter.WaitForStack(ctx, name, w.pollInterval)
}

// describe prints the state of the deployed topology. Every problem found is
// reported before it fails.
func (w *worker) describe(ctx context.Context, cfg stack.Config, out io.Writer) (err error) {
	defer func() { w.metrics.observe(commandDescribe, err) }()

	s, err := w.adapter.GetStack(ctx, cfg.StackName)
	if err != nil {
		return err
	}
	problems := &problem.List{}

	fmt.Fprintf(out, "Stack:    %s\n", s.Name())
	fmt.Fprintf(out, "Status:   %s\n", s.Status())
	if !s.IsComplete() {
		problems.Add("stack %q is %s: %s", s.Name(), s.Status(), s.StatusReason())
	}

	dnsName := s.DNSName()
	if dnsName == "" {
		problems.Add("stack %q has no load balancer DNS name output", s.Name())
	}
	fmt.Fprintf(out, "DNS name: %s\n", dnsName)

	published, err := w.adapter.GetParameter(ctx, cfg.ParameterName())
	if err != nil {
		problems.Add("%w", err)
	} else if published != dnsName {
		problems.Add("parameter %s holds %q, the load balancer is %q", cfg.ParameterName(), published, dnsName)
	}
	fmt.Fprintf(out, "%s: %s\n", cfg.ParameterName(), published)

	w.describeTargets(ctx, s, out, problems)
	return problems.Err()
}

func (w *worker) describeTargets(ctx context.Context, s *aws.Stack, out io.Writer, problems *problem.List) {
	arn := s.TargetGroupARN()
	if arn == "" {
		problems.Add("stack %q has no target group output", s.Name())
		return
	}

	targets, err := w.adapter.TargetHealth(ctx, arn)
	if err != nil {
		problems.Add("%w", err)
		return
	}

	unhealthy := 0
	for _, t := range targets {
		fmt.Fprintf(out, "Target:   %s:%d %s %s\n", t.ID, t.Port, t.State, t.Reason)
		if !t.IsHealthy() {
			unhealthy++
			problems.Add("target %s is %s: %s", t.ID, t.State, t.Reason)
		}
	}
	w.metrics.unhealthyTargets.Set(float64(unhealthy))
	if len(targets) == 0 {
		problems.Add("target group %s has no registered targets", arn)
	}
}
