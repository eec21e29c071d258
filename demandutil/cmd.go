/*
Copyright © 2026 the PlanWise authors.
This file is part of PlanWise.

PlanWise is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

PlanWise is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with PlanWise.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package demandutil provides the command-line interface to the demand
// satisfaction engine.
package demandutil

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/lnashier/viper"
	"github.com/planwise/demand"
	"github.com/planwise/demand/gdalgrid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

// newStore returns the store grids are read from and written to.
var newStore = func() demand.Store {
	return gdalgrid.Store{CreationOptions: Cfg.GetStringSlice("CreationOptions")}
}

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel sets the verbosity of the diagnostics written to
              standard error: panic, fatal, error, warn, info or debug.`,
			shorthand:  "l",
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Scenario",
			usage: `
              Scenario is the path to a TOML file giving the Target,
              Population and Facilities of a run. When it is set, no
              positional arguments are accepted.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{satisfyCmd.Flags()},
		},
		{
			name: "CreationOptions",
			usage: `
              CreationOptions are additional GeoTIFF creation options
              (for example COMPRESS=LZW) for the target grid. The target
              is always tiled with the block size of the population grid.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{satisfyCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("PLANWISE")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case []string:
				set.StringSliceP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(aggregateCmd)
	Root.AddCommand(satisfyCmd)
	Root.AddCommand(infoCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets up logging.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("planwise: problem reading configuration file: %v", err)
		}
	}
	level, err := logrus.ParseLevel(Cfg.GetString("LogLevel"))
	if err != nil {
		return &demand.ArgumentError{Reason: fmt.Sprintf("invalid log level %q", Cfg.GetString("LogLevel"))}
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "planwise",
	Short: "Facility catchment demand tools.",
	Long: `planwise computes how much population demand is covered by facility
catchments. Population grids must hold Float32 samples and facility masks
Byte samples with a nodata value of 0. Masks must have the pixel size and
block size of the population grid and start on one of its block boundaries.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'PLANWISE_var' where 'var'
is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "PlanWise demand v%s\n", demand.Version)
	},
	DisableAutoGenTag: true,
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate POPULATION MASK...",
	Short: "Count the population under facility masks.",
	Long: `aggregate prints, one per line and in argument order, the population
of POPULATION covered by each MASK. Capacities are not taken into account.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 2 {
			return &demand.ArgumentError{Reason: "usage: " + cmd.UseLine()}
		}
		d := newDownloads(context.TODO())
		defer d.Close()
		a := demand.NewAggregator(newStore())
		a.Resolve = d.maybeDownload
		pops, err := a.Populations(args[0], args[1:])
		if err != nil {
			return err
		}
		for _, p := range pops {
			fmt.Fprintln(cmd.OutOrStdout(), int64(p))
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var satisfyCmd = &cobra.Command{
	Use:   "satisfy TARGET POPULATION MASK CAPACITY [MASK CAPACITY]...",
	Short: "Compute the demand left unsatisfied by a sequence of facilities.",
	Long: `satisfy copies POPULATION to TARGET, lets each facility absorb up to
CAPACITY people under its MASK in argument order, stores the total
unsatisfied demand in the PLANWISE:UNSATISFIED_DEMAND metadata of TARGET and
prints it.

If TARGET already exists, nothing is computed: the total stored in it is
printed, whatever the other arguments are.

Arguments starting with '-' (such as negative capacities) must follow a '--'
separator, otherwise they are read as flags.`,
	Example: `planwise satisfy out.tif data/populations/REGIONID.tif \
    data/isochrones/REGIONID/POLYGONID1.tif 500 \
    data/isochrones/REGIONID/POLYGONID2.tif 800`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := newStore()
		sc, err := satisfyScenario(Cfg.GetString("Scenario"), args, store.Exists)
		if err != nil {
			return err
		}
		d := newDownloads(context.TODO())
		defer d.Close()
		s := demand.NewSatisfier(store)
		s.Resolve = d.maybeDownload
		r, err := s.Run(sc.Target, sc.Population, sc.Facilities)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), r.Total)
		return nil
	},
	DisableAutoGenTag: true,
}

// ToolArgs returns the arguments that run command with args as its
// positional arguments only. Nothing in args is parsed as a flag.
func ToolArgs(command string, args []string) []string {
	return append([]string{command, "--"}, args...)
}

var infoCmd = &cobra.Command{
	Use:   "info GRID...",
	Short: "Describe grids.",
	Long: `info prints the size, block layout, sample type, nodata value and
extent of each GRID, and any stored unsatisfied demand.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := newStore()
		for _, path := range args {
			g, err := store.Open(path)
			if err != nil {
				return err
			}
			info := g.Info()
			b := info.Bounds()
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", path, info)
			fmt.Fprintf(cmd.OutOrStdout(), "  extent: (%g, %g) - (%g, %g)\n", b.Min.X, b.Min.Y, b.Max.X, b.Max.Y)
			if v, ok := g.Metadata(demand.MetadataDomain, demand.DemandKey); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s:%s=%s\n", demand.MetadataDomain, demand.DemandKey, v)
			}
			if err := g.Close(); err != nil {
				return err
			}
		}
		return nil
	},
	DisableAutoGenTag: true,
}
