// cmd/root.go
package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ltemacsim/ltemacsim/channel"
	"github.com/ltemacsim/ltemacsim/mobility"
	_ "github.com/ltemacsim/ltemacsim/plugin"
	sim "github.com/ltemacsim/ltemacsim/sim"
	"github.com/ltemacsim/ltemacsim/traffic"
)

var (
	bandwidthMHz float64
	numFrames    int
	cpType       string
	scheduler    string
	seed         int64
	logLevel     string
	configPath   string
	outPath      string

	globalMaxBytes int64
	perUEMaxBytes  int64
	ttlMs          int64
	pfAlpha        float64
	pfAvgFloor     float64

	ueIDsFlag string

	mobilityName     string
	channelName      string
	trafficName      string
	areaMeters       float64
	velocityMinMS    float64
	velocityMaxMS    float64
	pauseMs          float64
	packetRatePerSec float64
	minPacketBytes   int
	maxPacketBytes   int
	bsHeightM        float64
	bsFrequencyGHz   float64
	bsTxPowerDBm     float64
	bsAntennaGainDB  float64

	includeCatBoostStub bool
)

var rootCmd = &cobra.Command{
	Use:   "cellsim",
	Short: "Discrete-event simulator of an LTE eNodeB downlink MAC scheduler",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	registerRunFlags(runCmd)
	registerRunFlags(compareCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(compareCmd)
}

func registerRunFlags(c *cobra.Command) {
	c.Flags().Float64Var(&bandwidthMHz, "bandwidth-mhz", 10, "Cell bandwidth in MHz: one of 1.4, 3, 5, 10, 15, 20")
	c.Flags().IntVar(&numFrames, "num-frames", 100, "Simulation horizon in 10ms frames")
	c.Flags().StringVar(&cpType, "cp-type", "normal", "Cyclic prefix type: normal or extended")
	c.Flags().Int64Var(&seed, "seed", 1, "Master RNG seed")
	c.Flags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")
	c.Flags().StringVar(&configPath, "config", "", "Path to a scenario YAML file; replaces the flag-built scenario (the area, velocity, pause and bs-* flags still apply)")
	c.Flags().StringVar(&outPath, "out", "", "Path to write the JSON results document; stdout if empty")

	c.Flags().Int64Var(&globalMaxBytes, "buffer-global-max-bytes", 10_000_000, "Downlink buffer cap shared across all UEs")
	c.Flags().Int64Var(&perUEMaxBytes, "buffer-per-ue-max-bytes", 2_000_000, "Downlink buffer cap per UE")
	c.Flags().Int64Var(&ttlMs, "packet-ttl-ms", 1000, "Default packet TTL in milliseconds")
	c.Flags().Float64Var(&pfAlpha, "pf-alpha", 0.2, "Proportional-fair EMA smoothing factor")
	c.Flags().Float64Var(&pfAvgFloor, "pf-avg-floor", 1e-6, "Proportional-fair average-throughput floor")

	c.Flags().StringVar(&ueIDsFlag, "ue-ids", "1,2", "Comma-separated UE IDs to register")

	c.Flags().StringVar(&mobilityName, "mobility", "random_walk", "Mobility model: random_walk, random_waypoint, random_direction, gauss_markov")
	c.Flags().StringVar(&channelName, "channel", "uma", "Channel model: rma, uma, umi")
	c.Flags().StringVar(&trafficName, "traffic", "poisson", "Traffic model: poisson, on_off, mmpp")
	c.Flags().Float64Var(&areaMeters, "area-meters", 500, "UEs are confined to [-area, area] on both axes")
	c.Flags().Float64Var(&velocityMinMS, "velocity-min-ms", 0.5, "Minimum UE speed in m/s")
	c.Flags().Float64Var(&velocityMaxMS, "velocity-max-ms", 3, "Maximum UE speed in m/s")
	c.Flags().Float64Var(&pauseMs, "pause-ms", 2000, "Pause duration for waypoint/direction mobility, in ms")
	c.Flags().Float64Var(&packetRatePerSec, "packet-rate", 50, "Traffic generator packet rate per second per UE")
	c.Flags().IntVar(&minPacketBytes, "packet-min-bytes", 200, "Minimum generated packet size in bytes")
	c.Flags().IntVar(&maxPacketBytes, "packet-max-bytes", 1500, "Maximum generated packet size in bytes")
	c.Flags().Float64Var(&bsHeightM, "bs-height-m", 0, "Base-station antenna height in meters; 0 uses the channel model's default")
	c.Flags().Float64Var(&bsFrequencyGHz, "bs-frequency-ghz", 2.1, "Carrier frequency in GHz")
	c.Flags().Float64Var(&bsTxPowerDBm, "bs-tx-power-dbm", 46, "Base-station transmit power in dBm")
	c.Flags().Float64Var(&bsAntennaGainDB, "bs-antenna-gain-db", 15, "Base-station antenna gain in dB")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one scheduling policy to completion and print its aggregate report",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		spec, err := resolveScenario()
		if err != nil {
			logrus.Fatalf("Failed to resolve scenario: %v", err)
		}

		s, err := buildSimulator(spec)
		if err != nil {
			logrus.Fatalf("Failed to build simulator: %v", err)
		}

		logrus.Infof("Starting run scheduler=%s bandwidth=%vMHz frames=%d ues=%d",
			spec.Policy.Scheduler, spec.Grid.BandwidthMHz, spec.Grid.NumFrames, len(s.UEs))
		report := s.Run()
		logrus.Info("Run complete.")

		if outPath != "" {
			if err := sim.SaveJSON(report, outPath); err != nil {
				logrus.Fatalf("Failed to save report: %v", err)
			}
			logrus.Infof("Report written to %s", outPath)
			return
		}
		printReportSummary(spec.Policy.Scheduler, report)
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run round_robin, best_cqi and proportional_fair back to back and compare their reports",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		spec, err := resolveScenario()
		if err != nil {
			logrus.Fatalf("Failed to resolve scenario: %v", err)
		}

		names := []string{"round_robin", "best_cqi", "proportional_fair"}
		if includeCatBoostStub {
			names = append(names, "catboost-stub")
		}

		ueIDs, err := parseUEIDs(spec)
		if err != nil {
			logrus.Fatalf("Failed to parse UE IDs: %v", err)
		}

		configs := make([]sim.SimulationConfig, 0, len(names))
		for _, name := range names {
			cfg := baseConfig(spec)
			cfg.Policy.Scheduler = name
			configs = append(configs, cfg)
		}

		comparison, err := sim.RunComparison(configs, ueIDs, func(s *sim.Simulator) {
			wireCollaborators(s, spec)
		})
		if err != nil {
			logrus.Fatalf("Comparison run failed: %v", err)
		}
		logrus.Info("Comparison complete.")

		if outPath != "" {
			if err := sim.SaveJSON(comparison, outPath); err != nil {
				logrus.Fatalf("Failed to save comparison report: %v", err)
			}
			logrus.Infof("Comparison report written to %s", outPath)
			return
		}
		for _, name := range names {
			printReportSummary(name, comparison.Results[name])
		}
	},
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

func printReportSummary(name string, report sim.Report) {
	fmt.Printf("=== %s ===\n", name)
	fmt.Printf("num_ttis=%d jain_overall=%.4f\n", report.NumTTIs, report.JainOverall)
	for ueID, perFrame := range report.PerUEThroughputMbpsPerFrame {
		var sum float64
		for _, v := range perFrame {
			sum += v
		}
		avg := 0.0
		if len(perFrame) > 0 {
			avg = sum / float64(len(perFrame))
		}
		fmt.Printf("  ue=%d avg_throughput_mbps=%.4f\n", ueID, avg)
	}
}

// resolveScenario builds a ScenarioSpec from flags, then replaces it
// wholesale with a YAML file's contents when --config is given.
func resolveScenario() (*ScenarioSpec, error) {
	spec := &ScenarioSpec{
		Grid: sim.GridConfig{
			BandwidthMHz: bandwidthMHz,
			NumFrames:    numFrames,
			CPType:       cpType,
		},
		Buffer: sim.BufferConfig{
			GlobalMaxBytes: globalMaxBytes,
			PerUEMaxBytes:  perUEMaxBytes,
			DefaultTTLMs:   ttlMs,
		},
		Policy:           sim.PolicyConfig{Scheduler: scheduler},
		PF:               sim.PFConfig{Alpha: pfAlpha, AvgFloor: pfAvgFloor},
		Seed:             seed,
		Mobility:         mobilityName,
		Channel:          channelName,
		Traffic:          trafficName,
		PacketRatePerSec: packetRatePerSec,
		MinPacketBytes:   minPacketBytes,
		MaxPacketBytes:   maxPacketBytes,
	}

	if configPath == "" {
		return spec, nil
	}
	return LoadScenarioSpec(configPath)
}

func baseConfig(spec *ScenarioSpec) sim.SimulationConfig {
	return sim.SimulationConfig{
		Grid:   spec.Grid,
		Buffer: spec.Buffer,
		Policy: spec.Policy,
		PF:     spec.PF,
		Seed:   spec.Seed,
	}
}

func parseUEIDs(spec *ScenarioSpec) ([]int, error) {
	if len(spec.UEs) > 0 {
		ids := make([]int, 0, len(spec.UEs))
		for _, u := range spec.UEs {
			ids = append(ids, u.ID)
		}
		return ids, nil
	}
	parts := strings.Split(ueIDsFlag, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid UE id %q: %w", p, err)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no UE ids given")
	}
	return ids, nil
}

// buildSimulator constructs and fully wires a Simulator from spec: grid,
// buffer, policy and RNG come from NewSimulator; mobility, channel and
// traffic collaborators are wired in afterward since they live in separate
// packages the core never imports.
func buildSimulator(spec *ScenarioSpec) (*sim.Simulator, error) {
	ueIDs, err := parseUEIDs(spec)
	if err != nil {
		return nil, err
	}
	s, err := sim.NewSimulator(baseConfig(spec), ueIDs)
	if err != nil {
		return nil, err
	}
	wireCollaborators(s, spec)
	return s, nil
}

func wireCollaborators(s *sim.Simulator, spec *ScenarioSpec) {
	bounds := mobility.Bounds{XMin: -areaMeters, XMax: areaMeters, YMin: -areaMeters, YMax: areaMeters}
	velocity := mobility.VelocityRange{Min: velocityMinMS, Max: velocityMaxMS}
	s.SetMobility(mobility.NewModel(spec.Mobility, bounds, velocity, pauseMs))

	bsParams := channel.BSParams{
		HeightM:       bsHeightM,
		FrequencyGHz:  bsFrequencyGHz,
		TxPowerDBm:    bsTxPowerDBm,
		AntennaGainDB: bsAntennaGainDB,
		BandwidthMHz:  spec.Grid.BandwidthMHz,
	}
	s.SetChannel(channel.NewModel(spec.Channel, bsParams, 1.5))

	defaultTraffic := traffic.NewModel(spec.Traffic, spec.PacketRatePerSec, spec.MinPacketBytes, spec.MaxPacketBytes)
	s.SetDefaultTrafficModel(defaultTraffic)

	for _, u := range spec.UEs {
		ue := s.UE(u.ID)
		if ue == nil {
			continue
		}
		ue.Position = [2]float64{u.X, u.Y}
		if u.Traffic != "" {
			s.SetTrafficModel(u.ID, traffic.NewModel(u.Traffic, u.PacketRate, u.MinSizeBytes, u.MaxSizeBytes))
		}
	}
}

func init() {
	runCmd.Flags().StringVar(&scheduler, "scheduler", "round_robin", "Scheduling policy: round_robin, best_cqi, proportional_fair, or catboost-stub")
	compareCmd.Flags().BoolVar(&includeCatBoostStub, "include-catboost-stub", false, "Also run the catboost-stub plugin policy")
}
