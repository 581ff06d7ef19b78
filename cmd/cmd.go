// Package cmd provides the commands of line-forwarder
package cmd

import (
	"github.com/relex/gotils/config"
)

func init() {
	config.AddParentCmdWithArgs("", "line-forwarder follows log files and ships formatted lines to a TCP collector", &rootCmd, rootCmd.preRun, rootCmd.postRun)
	config.AddCmdWithArgs("run ...", "Run forwarder", &runCmd, runCmd.run)
}

// Execute parses the command line and runs the specified command
func Execute() {
	// trigger init

	config.Execute()
}
