package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/clarete/rulepeg"
)

const envPrefix = "rulepeg"

// checkEnvironmentVariables sets the flags of `command` that weren't
// given in the command line from RULEPEG_<COMMAND>_<FLAG> or, for
// any command, RULEPEG_<FLAG>
func checkEnvironmentVariables(command *cobra.Command) error {
	var errs []string

	scoped := viper.New()
	scoped.SetEnvPrefix(fmt.Sprintf("%s_%s", envPrefix, command.Name()))
	scoped.AutomaticEnv()

	global := viper.New()
	global.SetEnvPrefix(envPrefix)
	global.AutomaticEnv()

	command.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			return
		}
		configName := strings.ReplaceAll(f.Name, "-", "_")
		for _, v := range []*viper.Viper{scoped, global} {
			if !v.IsSet(configName) {
				continue
			}
			if err := command.Flags().Set(f.Name, fmt.Sprintf("%v", v.Get(configName))); err != nil {
				errs = append(errs, err.Error())
			}
			return
		}
	})

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("error mapping environment variables to command flags: %s", strings.Join(errs, "; "))
}

// loadConfig reads the parser settings from the file at `path`, if
// any, and from RULEPEG_PARSER_* environment variables.  The file
// uses the same keys as the settings:
//
//	parser:
//	  memoize: false
//	  max_depth: 128
func loadConfig(cfg *rulepeg.Config, path string) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("can't read config file: %w", err)
		}
	}

	var errs []error
	for _, key := range cfg.Keys() {
		if !v.IsSet(key) {
			continue
		}
		if err := cfg.Parse(key, fmt.Sprintf("%v", v.Get(key))); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
