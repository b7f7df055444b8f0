package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	log "github.com/sirupsen/logrus"
	"github.com/zalando-incubator/ec2-lb-stack/aws"
	"github.com/zalando-incubator/ec2-lb-stack/stack"
)

const (
	defaultWaitTimeout  = 30 * time.Minute
	defaultPollInterval = 15 * time.Second

	commandSynth    = "synth"
	commandDeploy   = "deploy"
	commandDestroy  = "destroy"
	commandDescribe = "describe"
)

var version = "dev"

// options holds the command line. Empty values leave the corresponding
// field of the configuration untouched.
type options struct {
	configFile        string
	stackName         string
	region            string
	availabilityZones []string
	keyName           string
	instanceType      string
	machineImage      string
	vpcCIDR           string
	subnetCIDRMask    int
	waitTimeout       time.Duration
	pollInterval      time.Duration
	metricsAddress    string
	debug             bool

	synthFormat   string
	synthOutput   string
	deployWait    bool
	discoverZones bool
	destroyWait   bool
}

func newApp(opts *options) *kingpin.Application {
	app := kingpin.New("ec2-lb-stack", "Deploys two EC2 web servers behind an internet-facing application load balancer.")
	app.Version(version)
	app.DefaultEnvars()

	app.Flag("config-file", "YAML or JSON file with the stack configuration. Flags take precedence over it.").
		StringVar(&opts.configFile)
	app.Flag("stack-name", "Name of the CloudFormation stack. Default: "+stack.DefaultStackName).
		StringVar(&opts.stackName)
	app.Flag("region", "AWS region to deploy to. Default: "+stack.DefaultRegion).
		StringVar(&opts.region)
	app.Flag("availability-zone", "Availability zone of a public subnet, repeat for every zone. Defaults to zones a and b of the region.").
		StringsVar(&opts.availabilityZones)
	app.Flag("key-name", "Name of the EC2 key pair installed on the instances. Default: "+stack.DefaultKeyName).
		StringVar(&opts.keyName)
	app.Flag("instance-type", "EC2 instance type. Default: "+stack.DefaultInstanceType).
		StringVar(&opts.instanceType)
	app.Flag("machine-image", "Machine image generation of the instances.").
		EnumVar(&opts.machineImage, string(stack.AmazonLinux2), string(stack.AmazonLinux2023))
	app.Flag("vpc-cidr", "CIDR block of the VPC. Default: "+stack.DefaultVPCCIDR).
		StringVar(&opts.vpcCIDR)
	app.Flag("subnet-cidr-mask", fmt.Sprintf("Prefix length of every public subnet. Default: %d", stack.DefaultSubnetCIDRMask)).
		IntVar(&opts.subnetCIDRMask)
	app.Flag("wait-timeout", "Maximum time to wait for a stack operation to finish.").
		Default(defaultWaitTimeout.String()).DurationVar(&opts.waitTimeout)
	app.Flag("poll-interval", "Interval between two stack status requests while waiting.").
		Default(defaultPollInterval.String()).DurationVar(&opts.pollInterval)
	app.Flag("metrics-address", "Address to serve Prometheus metrics on while a command runs, disabled if empty.").
		StringVar(&opts.metricsAddress)
	app.Flag("debug", "Enables debug logging.").
		BoolVar(&opts.debug)

	synth := app.Command(commandSynth, "Renders the CloudFormation template without accessing AWS.")
	synth.Flag("format", "Template format.").Default(string(stack.FormatJSON)).
		EnumVar(&opts.synthFormat, string(stack.FormatJSON), string(stack.FormatYAML))
	synth.Flag("output", "File to write the template to instead of stdout.").
		StringVar(&opts.synthOutput)

	deploy := app.Command(commandDeploy, "Creates or updates the stack.")
	deploy.Flag("wait", "Waits until the stack operation finished.").
		BoolVar(&opts.deployWait)
	deploy.Flag("discover-zones", "Uses the first two available zones of the region when no zone is configured.").
		BoolVar(&opts.discoverZones)

	destroy := app.Command(commandDestroy, "Deletes the stack.")
	destroy.Flag("wait", "Waits until the stack is deleted.").
		BoolVar(&opts.destroyWait)

	app.Command(commandDescribe, "Prints the stack status, the published load balancer DNS name and the target health.")

	return app
}

// loadConfig layers the configuration file and the flags on the defaults.
func loadConfig(opts *options) (stack.Config, error) {
	cfg := stack.DefaultConfig()
	if opts.configFile != "" {
		var err error
		cfg, err = stack.LoadConfigFile(opts.configFile, cfg)
		if err != nil {
			return cfg, err
		}
	}

	if opts.stackName != "" {
		cfg.StackName = opts.stackName
	}
	if opts.region != "" {
		cfg.Region = opts.region
	}
	if len(opts.availabilityZones) > 0 {
		cfg.AvailabilityZones = opts.availabilityZones
	}
	if opts.keyName != "" {
		cfg.KeyName = opts.keyName
	}
	if opts.instanceType != "" {
		cfg.InstanceType = opts.instanceType
	}
	if opts.machineImage != "" {
		cfg.MachineImage = stack.AmazonLinuxGeneration(opts.machineImage)
	}
	if opts.vpcCIDR != "" {
		cfg.VPCCIDR = opts.vpcCIDR
	}
	if opts.subnetCIDRMask != 0 {
		cfg.SubnetCIDRMask = opts.subnetCIDRMask
	}
	return cfg, nil
}

// validateOptions rejects values kingpin accepts but the commands cannot use.
func validateOptions(opts *options) error {
	if opts.pollInterval <= 0 {
		return fmt.Errorf("--poll-interval must be positive, got %s", opts.pollInterval)
	}
	if opts.waitTimeout <= 0 {
		return fmt.Errorf("--wait-timeout must be positive, got %s", opts.waitTimeout)
	}
	return nil
}

func waitForTerminationSignals(signals ...os.Signal) chan os.Signal {
	c := make(chan os.Signal, 1)
	signal.Notify(c, signals...)
	return c
}

func main() {
	opts := &options{}
	command := kingpin.MustParse(newApp(opts).Parse(os.Args[1:]))

	if opts.debug {
		log.SetLevel(log.DebugLevel)
	}
	if err := validateOptions(opts); err != nil {
		log.Fatal(err)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		log.Fatal(err)
	}
	log.Debugf("configuration: %+v", cfg)

	if command == commandSynth {
		if err := runSynth(cfg, opts); err != nil {
			log.Fatal(err)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sig := <-waitForTerminationSignals(syscall.SIGTERM, syscall.SIGINT)
		log.Infof("received %s, shutting down", sig)
		cancel()
	}()

	m := newMetrics()
	if opts.metricsAddress != "" {
		go m.serve(opts.metricsAddress)
	}

	adapter, err := aws.NewAdapter(ctx, cfg.Region)
	if err != nil {
		log.Fatal(err)
	}

	w := newWorker(adapter, m, opts.pollInterval, opts.waitTimeout)
	switch command {
	case commandDeploy:
		err = w.deploy(ctx, cfg, opts.deployWait, opts.discoverZones)
	case commandDestroy:
		err = w.destroy(ctx, cfg, opts.destroyWait)
	case commandDescribe:
		err = w.describe(ctx, cfg, os.Stdout)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func runSynth(cfg stack.Config, opts *options) error {
	var out io.Writer = os.Stdout
	if opts.synthOutput != "" {
		f, err := os.Create(opts.synthOutput)
		if err != nil {
			return fmt.Errorf("failed to create %q: %w", opts.synthOutput, err)
		}
		defer f.Close()
		out = f
	}
	return synth(cfg, stack.Format(opts.synthFormat), out)
}
