package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog"
	"github.com/san-kum/coastkit/internal/carbonate"
	"github.com/san-kum/coastkit/internal/config"
	"github.com/san-kum/coastkit/internal/dashboard"
	"github.com/san-kum/coastkit/internal/plot"
	"github.com/san-kum/coastkit/internal/sediment"
	"github.com/san-kum/coastkit/internal/server"
	"github.com/san-kum/coastkit/internal/storage"
	"github.com/san-kum/coastkit/internal/tui"
	"github.com/san-kum/coastkit/internal/wave"
	"github.com/spf13/cobra"
)

var (
	configFile string
	dataDir    string
	logLevel   string
	preset     string
	saveReport bool

	// wave
	variable  string
	timeIndex int
	timeDim   string
	pngOut    string
	spectrum  bool
	width     int
	height    int

	// sediment
	velocity float64
	d50      float64

	// carbonate
	alkalinity  float64
	dic         float64
	temperature float64
	salinity    float64

	// shoreline
	rate  float64
	years int

	// serve
	addr        string
	maxUploadMB int64

	// sample
	steps  int
	nlat   int
	nlon   int
	period float64

	// config init
	force bool
)

var log zerolog.Logger

func main() {
	rootCmd := &cobra.Command{
		Use:           "coastkit [file.nc]",
		Short:         "coastal and ocean engineering toolkit",
		Long:          "Wave dataset viewer, sediment transport, carbonate chemistry and shoreline retreat calculators.\nWithout a subcommand the terminal dashboard starts; a NetCDF path opens it on the wave module.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log = newLogger(logLevel)
			return nil
		},
		RunE: runDashboard,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&dataDir, "data", config.DefaultDataDir, "report archive directory")
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&preset, "preset", "", "use named input preset")
	pf.BoolVar(&saveReport, "save", false, "archive the result")

	waveCmd := &cobra.Command{
		Use:   "wave [file.nc]",
		Short: "plot one variable of a NetCDF dataset at one time step",
		Args:  cobra.ExactArgs(1),
		RunE:  runWave,
	}
	waveCmd.Flags().StringVar(&variable, "var", "", "variable to plot (default first data variable)")
	waveCmd.Flags().IntVar(&timeIndex, "time", 0, "time index")
	waveCmd.Flags().StringVar(&timeDim, "time-dim", "time", "name of the time dimension")
	waveCmd.Flags().StringVar(&pngOut, "png", "", "write the plot to a PNG (or .svg) file")
	waveCmd.Flags().BoolVar(&spectrum, "spectrum", false, "plot the power spectrum of the spatial-mean series")
	waveCmd.Flags().IntVar(&width, "width", config.DefaultPlotWidth, "PNG width in pixels")
	waveCmd.Flags().IntVar(&height, "height", config.DefaultPlotHeight, "PNG height in pixels")

	sedimentCmd := &cobra.Command{
		Use:   "sediment",
		Short: "bedload transport rate",
		Args:  cobra.NoArgs,
		RunE:  runSediment,
	}
	sedimentCmd.Flags().Float64Var(&velocity, "velocity", config.DefaultVelocity, "flow velocity (m/s)")
	sedimentCmd.Flags().Float64Var(&d50, "d50", config.DefaultD50, "median grain size D50 (mm)")

	carbonateCmd := &cobra.Command{
		Use:   "carbonate",
		Short: "CO2SYS aragonite saturation state",
		Args:  cobra.NoArgs,
		RunE:  runCarbonate,
	}
	carbonateCmd.Flags().Float64Var(&alkalinity, "ta", config.DefaultAlkalinity, "total alkalinity (µmol/kg)")
	carbonateCmd.Flags().Float64Var(&dic, "dic", config.DefaultDIC, "dissolved inorganic carbon (µmol/kg)")
	carbonateCmd.Flags().Float64Var(&temperature, "temp", config.DefaultTemperature, "temperature (°C)")
	carbonateCmd.Flags().Float64Var(&salinity, "sal", config.DefaultSalinity, "salinity")

	shorelineCmd := &cobra.Command{
		Use:   "shoreline",
		Short: "linear shoreline retreat projection",
		Args:  cobra.NoArgs,
		RunE:  runShoreline,
	}
	shorelineCmd.Flags().Float64Var(&rate, "rate", config.DefaultRate, "erosion rate (m/year)")
	shorelineCmd.Flags().IntVar(&years, "years", config.DefaultYears, "years to project (1-100)")
	shorelineCmd.Flags().StringVar(&pngOut, "png", "", "write the projection chart to a PNG (or .svg) file")
	shorelineCmd.Flags().IntVar(&width, "width", config.DefaultPlotWidth, "PNG width in pixels")
	shorelineCmd.Flags().IntVar(&height, "height", config.DefaultPlotHeight, "PNG height in pixels")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the web dashboard",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")
	serveCmd.Flags().Int64Var(&maxUploadMB, "max-upload", config.DefaultMaxUploadMB, "upload limit in MB")

	sampleCmd := &cobra.Command{
		Use:   "sample [file.nc]",
		Short: "write a demo wave dataset",
		Args:  cobra.ExactArgs(1),
		RunE:  runSample,
	}
	defaults := wave.DefaultSampleOptions()
	sampleCmd.Flags().IntVar(&steps, "steps", defaults.Steps, "time steps")
	sampleCmd.Flags().IntVar(&nlat, "lat", defaults.Lat, "latitude cells")
	sampleCmd.Flags().IntVar(&nlon, "lon", defaults.Lon, "longitude cells")
	sampleCmd.Flags().Float64Var(&period, "period", defaults.Period, "swell period in time steps")

	presetsCmd := &cobra.Command{
		Use:   "presets [module]",
		Short: "list input presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "list archived results",
		Args:  cobra.NoArgs,
		RunE:  listHistory,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage the config file",
	}
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the current settings as a yaml config",
		Args:  cobra.MaximumNArgs(1),
		RunE:  initConfig,
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	configCmd.AddCommand(initCmd)

	exportCmd := &cobra.Command{
		Use:   "export [id]",
		Short: "export an archived result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportReport,
	}

	rootCmd.AddCommand(waveCmd, sedimentCmd, carbonateCmd, shorelineCmd, serveCmd, sampleCmd, presetsCmd, historyCmd, configCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, plot.Failure.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

// loadConfig layers defaults, the config file, a preset and the global
// flags, in that order. Command flags are applied by the caller.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		log.Debug().Str("file", configFile).Msg("config loaded")
	}

	if preset != "" {
		p := config.FindPreset(preset)
		if p == nil {
			var all []string
			for _, m := range config.Modules() {
				all = append(all, config.ListPresets(m)...)
			}
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, all)
		}
		cfg.Apply(p)
		log.Debug().Str("preset", preset).Str("module", p.Module).Msg("preset applied")
	}

	if cmd.Flags().Changed("data") {
		cfg.DataDir = dataDir
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	} else if cfg.LogLevel != "" {
		log = newLogger(cfg.LogLevel)
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (*storage.Store, error) {
	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	var st *storage.Store
	if saveReport {
		if st, err = openStore(cfg); err != nil {
			return err
		}
	}
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	return tui.Run(cfg, st, path)
}

func runWave(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("time-dim") {
		cfg.Wave.TimeDim = timeDim
	}
	if cmd.Flags().Changed("width") {
		cfg.Wave.PlotWidth = width
	}
	if cmd.Flags().Changed("height") {
		cfg.Wave.PlotHeight = height
	}

	start := time.Now()
	req := dashboard.WaveRequest{
		Path:      args[0],
		Variable:  variable,
		TimeIndex: timeIndex,
		TimeDim:   cfg.Wave.TimeDim,
	}
	var p *dashboard.Panel
	if spectrum {
		p = dashboard.WaveSpectrum(req)
	} else {
		p = dashboard.Wave(req)
	}
	log.Debug().Str("file", args[0]).Dur("elapsed", time.Since(start)).Msg("dataset read")
	if len(p.Variables) > 0 {
		fmt.Println(plot.Subtle.Render("Variables in dataset: " + strings.Join(p.Variables, ", ")))
	}
	return finish(cfg, p)
}

func runSediment(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("velocity") {
		cfg.Sediment.Velocity = velocity
	}
	if cmd.Flags().Changed("d50") {
		cfg.Sediment.D50 = d50
	}
	return finish(cfg, dashboard.Sediment(sediment.Input{
		Velocity: cfg.Sediment.Velocity,
		D50:      cfg.Sediment.D50,
	}))
}

func runCarbonate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("ta") {
		cfg.Carbonate.Alkalinity = alkalinity
	}
	if cmd.Flags().Changed("dic") {
		cfg.Carbonate.DIC = dic
	}
	if cmd.Flags().Changed("temp") {
		cfg.Carbonate.Temperature = temperature
	}
	if cmd.Flags().Changed("sal") {
		cfg.Carbonate.Salinity = salinity
	}
	c := cfg.Carbonate
	return finish(cfg, dashboard.Carbonate(carbonate.Input{
		Alkalinity:  c.Alkalinity,
		DIC:         c.DIC,
		Temperature: c.Temperature,
		Salinity:    c.Salinity,
	}))
}

func runShoreline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("rate") {
		cfg.Shoreline.Rate = rate
	}
	if cmd.Flags().Changed("years") {
		cfg.Shoreline.Years = years
	}
	if cmd.Flags().Changed("width") {
		cfg.Wave.PlotWidth = width
	}
	if cmd.Flags().Changed("height") {
		cfg.Wave.PlotHeight = height
	}
	return finish(cfg, dashboard.Shoreline(cfg.Shoreline.Rate, cfg.Shoreline.Years))
}

// finish prints the panel, writes the optional PNG and archives the result
// when --save is set. A failed calculation becomes the command error.
func finish(cfg *config.Config, p *dashboard.Panel) error {
	printPanel(p)
	if p.Failed() {
		return p.Err()
	}

	if pngOut != "" && p.Figure != nil {
		if err := writeFigure(pngOut, p.Figure, cfg.Wave.PlotWidth, cfg.Wave.PlotHeight); err != nil {
			return fmt.Errorf("failed to render plot: %w", err)
		}
		log.Info().Str("file", pngOut).Msg("plot written")
	}

	if saveReport {
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		id, err := st.Save(p.Report())
		if err != nil {
			return err
		}
		fmt.Printf("saved: %s\n", id)
	}
	return nil
}

func printPanel(p *dashboard.Panel) {
	fmt.Println(plot.Title.Render(p.Title))
	for _, m := range p.Messages {
		switch m.Level {
		case dashboard.LevelSuccess:
			fmt.Println(plot.Success.Render(m.Text))
		case dashboard.LevelWarning:
			fmt.Println(plot.Warning.Render(m.Text))
		case dashboard.LevelError:
			fmt.Println(plot.Failure.Render(m.Text))
		default:
			fmt.Println(m.Text)
		}
	}
	for _, m := range p.Metrics {
		fmt.Println(plot.Metric(m.Label, m.Value))
	}
	if p.Figure != nil {
		fmt.Println()
		fmt.Println(plot.Terminal(p.Figure, 80, 16))
	}
}

// writeFigure picks SVG for a .svg path and PNG otherwise.
func writeFigure(path string, f *plot.Figure, w, h int) error {
	render := plot.PNG
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		render = plot.SVG
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(out, f, w, h); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = addr
	}
	if cmd.Flags().Changed("max-upload") {
		cfg.Server.MaxUploadMB = maxUploadMB
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.New(cfg, log).Run(ctx)
}

func runSample(cmd *cobra.Command, args []string) error {
	opts := wave.SampleOptions{Steps: steps, Lat: nlat, Lon: nlon, Period: period}
	if err := wave.WriteSample(args[0], opts); err != nil {
		return err
	}
	cells := int64(opts.Steps * opts.Lat * opts.Lon)
	fmt.Printf("wrote %s (%s cells per variable)\n", args[0], dashboard.Count(cells))
	return nil
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := "coastkit.yaml"
	if len(args) > 0 {
		path = args[0]
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Init(path, cfg, force); err != nil {
		return err
	}
	fmt.Println(plot.Success.Render("wrote " + path))
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	modules := config.Modules()
	if len(args) > 0 {
		if config.Presets[args[0]] == nil {
			return fmt.Errorf("unknown module: %s (available: %v)", args[0], modules)
		}
		modules = args[:1]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODULE\tPRESET\tDESCRIPTION")
	for _, m := range modules {
		for _, name := range config.ListPresets(m) {
			fmt.Fprintf(w, "%s\t%s\t%s\n", m, name, config.GetPreset(m, name).Description)
		}
	}
	return w.Flush()
}

func listHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	reports, err := storage.New(cfg.DataDir).List()
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Println("no saved results")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODULE\tTIME\tSUMMARY")
	for _, r := range reports {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			r.ID,
			r.Module,
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Summary,
		)
	}
	return w.Flush()
}

func exportReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st := storage.New(cfg.DataDir)
	if err := st.Export(os.Stdout, args[0]); err != nil {
		return err
	}

	series, err := st.LoadSeries(args[0])
	if err != nil || series == nil || len(series.Y) < 2 {
		return nil
	}
	fmt.Fprintln(os.Stderr, asciigraph.Plot(series.Y,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(series.YName+" vs "+series.XName),
	))
	return nil
}
