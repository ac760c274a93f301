// Command goquad runs policies on the simulated quadruped environment
// and reports episodic statistics.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/goquad/environment/envconfig"
	"github.com/samuelfneumann/goquad/environment/quadruped"
	"github.com/samuelfneumann/goquad/experiment"
	"github.com/samuelfneumann/goquad/experiment/trackers"
)

var (
	configFile string
	dataDir    string
	steps      uint
	seed       uint64
	policyName string
	render     bool
	footPath   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "goquad",
		Short: "simulated quadruped locomotion environment",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".goquad",
		"directory for tracked experiment data")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a policy on the quadruped environment",
		RunE:  run,
	}
	runCmd.Flags().StringVar(&configFile, "config", "",
		"environment config YAML (defaults used when empty)")
	runCmd.Flags().UintVar(&steps, "steps", 5000,
		"total environment steps to run")
	runCmd.Flags().Uint64Var(&seed, "seed",
		uint64(time.Now().UnixNano()), "random seed")
	runCmd.Flags().StringVar(&policyName, "policy", "sine",
		"policy to run: random, stand, or sine")
	runCmd.Flags().BoolVar(&render, "render", false,
		"pace the simulation to wall-clock time")
	runCmd.Flags().StringVar(&footPath, "footpath", "",
		"write a PNG of the traced foot paths to this file")

	configCmd := &cobra.Command{
		Use:   "config [file]",
		Short: "write the default environment config to a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return envconfig.DefaultConfig().Save(args[0])
		},
	}

	rootCmd.AddCommand(runCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	config := envconfig.DefaultConfig()
	if configFile != "" {
		var err error
		if config, err = envconfig.Load(configFile); err != nil {
			return err
		}
	}
	config.Render = render
	if footPath != "" {
		config.DrawFootPath = true
	}

	env, _, err := config.Create(seed)
	if err != nil {
		return err
	}

	var policy experiment.Policy
	switch policyName {
	case "random":
		policy = experiment.NewUniformRandom(env, seed)
	case "stand":
		policy = experiment.NewConstant(
			mat.NewVecDense(quadruped.NumMotors, nil))
	case "sine":
		policy = experiment.NewSinusoid(quadruped.NumMotors, 0.4, 30)
	default:
		return fmt.Errorf("run: no such policy %q", policyName)
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("run: %v", err)
	}

	returns := trackers.NewReturn(filepath.Join(dataDir, "returns.bin"))
	lengths := trackers.NewEpisodeLength(
		filepath.Join(dataDir, "lengths.bin"))

	exp := experiment.NewOnline(env, policy, steps, returns, lengths)
	exp.Run()
	exp.Save()

	episodeReturns := returns.EpisodeReturns()
	if len(episodeReturns) == 0 {
		log.Println("no episode finished within the requested steps")
		return nil
	}

	fmt.Printf("episodes: %v\n", len(episodeReturns))
	fmt.Println(asciigraph.Plot(episodeReturns,
		asciigraph.Height(10),
		asciigraph.Caption("episodic return")))

	if footPath != "" {
		q, ok := env.(*quadruped.Quadruped)
		if !ok {
			return fmt.Errorf("run: environment cannot trace foot paths")
		}
		if err := q.SaveFootPath(footPath); err != nil {
			return err
		}
		fmt.Printf("foot path written to %v\n", footPath)
	}
	return nil
}
