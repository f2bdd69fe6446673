// Package config provides environment-variable-to-flag binding for the CLI
// and the on-disk config.json loader.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "compressarr"

// BindEnv overrides any flag on command that was not explicitly set on the
// command line with the value of its COMPRESSARR_<FLAG_NAME> environment
// variable, if one is set.
func BindEnv(command *cobra.Command) error {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvPrefix(envPrefix)

	var errs []string
	command.Flags().VisitAll(func(f *pflag.Flag) {
		name := strings.ReplaceAll(f.Name, "-", "_")
		if f.Changed || !v.IsSet(name) {
			return
		}
		if err := command.Flags().Set(f.Name, fmt.Sprintf("%v", v.Get(name))); err != nil {
			errs = append(errs, err.Error())
		}
	})

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("error mapping environment variables to flags: %s", strings.Join(errs, "; "))
}
