package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/akmonengine/strand"
	"github.com/akmonengine/strand/filament"
	"github.com/akmonengine/strand/internal/config"
	"github.com/akmonengine/strand/internal/scene"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configFile string
	steps      int
	dt         float64
	plot       bool
	snapshot   string
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242")).Width(18)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "strand",
		Short:        "filament and rigid body simulation",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (toml)")

	runCmd := &cobra.Command{
		Use:   "run [scene.yaml]",
		Short: "simulate a scene",
		Args:  cobra.ExactArgs(1),
		RunE:  runScene,
	}
	runCmd.Flags().IntVar(&steps, "steps", 0, "number of steps (overrides config)")
	runCmd.Flags().Float64Var(&dt, "dt", 0, "timestep (overrides config)")
	runCmd.Flags().BoolVar(&plot, "plot", false, "plot the tip height of the first filament")
	runCmd.Flags().StringVar(&snapshot, "snapshot", "", "write the final rigid state to this yaml file")

	inspectCmd := &cobra.Command{
		Use:   "inspect [scene.yaml]",
		Short: "build a scene and print its content",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectScene,
	}

	rootCmd.AddCommand(runCmd, inspectCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configFile == "" {
		return config.Default(), nil
	}
	return config.Load(configFile)
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// newWorld builds the host world, its solver and the dynamics world from the config
func newWorld(cfg *config.Config, log *zap.Logger) (*strand.World, *strand.DynamicsWorld) {
	host := strand.NewWorld(strand.WorldConfig{
		Gravity:  cfg.World.GravityVec(),
		Substeps: cfg.World.Substeps,
		Workers:  cfg.World.Workers,
		CellSize: cfg.World.CellSize,
		NumCells: cfg.World.NumCells,
	})
	solver := filament.NewDefaultSolver(
		filament.WithGravity(cfg.Solver.GravityVec(cfg.World)),
		filament.WithIterations(cfg.Solver.Iterations),
		filament.WithTimeScale(cfg.Solver.TimeScale),
		filament.WithWorkers(cfg.Solver.Workers),
		filament.WithSolverLogger(log.Named("solver")),
	)
	world := strand.NewDynamicsWorld(host, solver,
		strand.WithLogger(log.Named("world")),
		strand.WithSubsteps(cfg.World.Substeps),
	)
	return host, world
}

func setup(path string) (*config.Config, *zap.Logger, *strand.World, *strand.DynamicsWorld, *scene.Built, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("logger: %w", err)
	}

	s, err := scene.Load(path)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	host, world := newWorld(cfg, log)
	built, err := s.Build(world)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	log.Info("scene loaded",
		zap.String("scene", path),
		zap.Int("rigid_bodies", len(host.Bodies)),
		zap.Int("filaments", world.NumBodies()))

	return cfg, log, host, world, built, nil
}

func runScene(cmd *cobra.Command, args []string) error {
	cfg, log, host, world, built, err := setup(args[0])
	if err != nil {
		return err
	}
	defer log.Sync()
	defer world.Close()

	if steps > 0 {
		cfg.Run.Steps = steps
	}
	if dt > 0 {
		cfg.Run.Dt = dt
	}

	var tracked *filament.Body
	if len(built.Order) > 0 {
		tracked = built.Filaments[built.Order[0]]
	}
	heights := make([]float64, 0, cfg.Run.Steps)

	for range cfg.Run.Steps {
		world.Step(cfg.Run.Dt)
		if tracked != nil {
			heights = append(heights, tracked.Tip().Y())
		}
	}
	log.Info("simulation done",
		zap.Int("steps", cfg.Run.Steps),
		zap.Float64("time", float64(cfg.Run.Steps)*cfg.Run.Dt))

	out := cmd.OutOrStdout()
	printSummary(out, cfg, host, world)

	if plot && len(heights) > 0 {
		fmt.Fprintln(out, asciigraph.Plot(heights,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%v tip height", tracked.Id)),
		))
	}

	if snapshot != "" {
		return writeSnapshot(world, snapshot)
	}
	return nil
}

func inspectScene(cmd *cobra.Command, args []string) error {
	cfg, log, host, world, _, err := setup(args[0])
	if err != nil {
		return err
	}
	defer log.Sync()
	defer world.Close()

	printSummary(cmd.OutOrStdout(), cfg, host, world)

	s := &scene.Snapshot{}
	world.Serialize(s)
	return s.WriteYAML(cmd.OutOrStdout())
}

func writeSnapshot(world *strand.DynamicsWorld, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer f.Close()

	s := &scene.Snapshot{}
	world.Serialize(s)
	return s.WriteYAML(f)
}

func printSummary(w io.Writer, cfg *config.Config, host *strand.World, world *strand.DynamicsWorld) {
	row := func(label string, value any) string {
		return labelStyle.Render(label) + valueStyle.Render(fmt.Sprint(value))
	}

	lines := []string{
		titleStyle.Render("strand"),
		row("rigid bodies", len(host.Bodies)),
		row("filaments", world.NumBodies()),
		row("substeps", world.Substeps()),
		row("solver time scale", world.Solver().TimeScale()),
		row("dt", cfg.Run.Dt),
	}
	for _, body := range world.Bodies() {
		tip := body.Tip()
		lines = append(lines, row(fmt.Sprintf("%v tip", body.Id), fmt.Sprintf("(%.3f, %.3f, %.3f)", tip.X(), tip.Y(), tip.Z())))
	}

	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
}
