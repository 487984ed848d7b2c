// Package provisioning tracks whether the strip has network credentials.
//
// An external tool (a setup app, or an installer copying a file) writes
// the broker address and login to a YAML file:
//
//	broker:
//	  host: "10.0.0.5"
//	  port: 1883
//	username: "strip-kitchen"
//	password: "..."
//
// FileProvisioner.Wait blocks until that file exists and is valid,
// watching the directory with fsnotify, and the lifecycle controller moves
// to the provisioned state when it returns. A factory reset calls Reset,
// which deletes the file.
package provisioning
