// Package stack assembles the CloudFormation template of the load balanced
// EC2 topology: a VPC with one public subnet per availability zone, an
// internet-facing Application Load Balancer, one instance per subnet
// registered in a single target group, an HTTP listener and an SSM
// parameter publishing the load balancer DNS name.
//
// The package only describes resources. CloudFormation resolves the
// dependency graph, validates the properties and creates the resources.
package stack
