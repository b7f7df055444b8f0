// Package aws provides some higher level Amazon Web Services abstractions for access to common resources.
// The exported Adapter deploys CloudFormation stacks and reads back what they published: SSM parameters,
// target health of ELBv2 aka ALB target groups and the availability zones of the EC2 region.
package aws
