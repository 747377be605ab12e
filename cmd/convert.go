package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tol-stack/tol-stack/stack"
)

var convertFile string

// convertCmd validates a stack definition and re-emits it as canonical YAML.
// Output is written to stdout for piping.
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Validate a stack definition and write canonical YAML to stdout",
	Run: func(cmd *cobra.Command, args []string) {
		spec, err := stack.LoadStackSpec(convertFile)
		if err != nil {
			logrus.Fatalf("Load failed: %v", err)
		}
		if err := spec.Validate(); err != nil {
			logrus.Fatalf("Invalid stack definition: %v", err)
		}
		if err := spec.Dump(os.Stdout); err != nil {
			logrus.Fatalf("Write failed: %v", err)
		}
	},
}

func init() {
	convertCmd.Flags().StringVarP(&convertFile, "file", "f", "",
		"YAML stack definition to convert")
	if err := convertCmd.MarkFlagRequired("file"); err != nil {
		logrus.Fatalf("flag registration: %v", err)
	}
}
