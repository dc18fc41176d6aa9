package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/axisim/axilite"
	"github.com/sarchlab/axisim/axilite/master"
	"github.com/sarchlab/axisim/axilite/observer"
	"github.com/sarchlab/axisim/datarecording"
	"github.com/sarchlab/axisim/monitoring"
	"github.com/sarchlab/axisim/platform"
	"github.com/sarchlab/axisim/sim"
	"github.com/sarchlab/axisim/tracing"
	"github.com/sarchlab/axisim/wiring"
	"github.com/sarchlab/axisim/workload"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// RunOptions configures one simulation run.
type RunOptions struct {
	NumOps      int
	Seed        int64
	AddrSpace   uint64
	Timeout     int64
	AddrWidth   int
	DataWidth   int
	FreqMHz     float64
	MissResp    uint8
	Record      string
	VCD         string
	Monitor     bool
	Port        int
	OpenBrowser bool
	Debug       bool
}

// Summary is the outcome of a run.
type Summary struct {
	Report        workload.Report
	Cycles        uint64
	AvgLatency    float64
	Violations    uint64
	SlaveWrites   uint64
	SlaveReads    uint64
	SlaveAbandons uint64
	SlaveBusy     uint64
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a random workload against a simulated slave",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts, err := runOptionsFromFlags(cmd)
		if err != nil {
			return err
		}

		summary, err := Run(opts)
		if err != nil {
			return err
		}

		printSummary(cmd.OutOrStdout(), summary)

		if !summary.Report.OK() {
			return fmt.Errorf("%d reads disagreed with the writes",
				len(summary.Report.Mismatches))
		}

		return nil
	},
}

func init() {
	f := runCmd.Flags()
	f.Int("ops", 1000, "number of operations to issue")
	f.Int64("seed", 1, "random seed")
	f.Uint64("addr-space", 4096, "size in bytes of the region accessed")
	f.Int64("timeout", -1, "cycles a phase may wait, -1 for no limit")
	f.Int("addr-width", 32, "address width in bits")
	f.Int("data-width", 32, "data width in bits")
	f.Float64("freq-mhz", 1000, "clock frequency in MHz")
	f.Uint8("miss-resp", uint8(axilite.RespSlvErr),
		"response to reads of unwritten addresses")
	f.String("record", "", "record tasks and transfers into this sqlite file")
	f.String("vcd", "", "dump the wires into this VCD file")
	f.Bool("monitor", false, "serve the monitoring web page")
	f.Int("port", 0, "port of the monitoring server, 0 for any")
	f.Bool("open-browser", false, "open the monitoring page in a browser")

	rootCmd.AddCommand(runCmd)
}

func runOptionsFromFlags(cmd *cobra.Command) (RunOptions, error) {
	f := cmd.Flags()
	opts := RunOptions{}

	var err error
	get := func(fn func() error) {
		if err == nil {
			err = fn()
		}
	}

	get(func() (e error) { opts.NumOps, e = f.GetInt("ops"); return })
	get(func() (e error) { opts.Seed, e = f.GetInt64("seed"); return })
	get(func() (e error) { opts.AddrSpace, e = f.GetUint64("addr-space"); return })
	get(func() (e error) { opts.Timeout, e = f.GetInt64("timeout"); return })
	get(func() (e error) { opts.AddrWidth, e = f.GetInt("addr-width"); return })
	get(func() (e error) { opts.DataWidth, e = f.GetInt("data-width"); return })
	get(func() (e error) { opts.FreqMHz, e = f.GetFloat64("freq-mhz"); return })
	get(func() (e error) { opts.MissResp, e = f.GetUint8("miss-resp"); return })
	get(func() (e error) { opts.Record, e = f.GetString("record"); return })
	get(func() (e error) { opts.VCD, e = f.GetString("vcd"); return })
	get(func() (e error) { opts.Monitor, e = f.GetBool("monitor"); return })
	get(func() (e error) { opts.Port, e = f.GetInt("port"); return })
	get(func() (e error) { opts.OpenBrowser, e = f.GetBool("open-browser"); return })
	get(func() (e error) { opts.Debug, e = f.GetBool("debug"); return })

	return opts, err
}

func (o RunOptions) validate() error {
	if o.NumOps < 0 {
		return fmt.Errorf("ops must not be negative, got %d", o.NumOps)
	}

	if o.Timeout < -1 {
		return fmt.Errorf("timeout must be -1 or a cycle count, got %d",
			o.Timeout)
	}

	if o.AddrWidth < 1 || o.AddrWidth > 64 {
		return fmt.Errorf("addr-width must be in [1, 64], got %d", o.AddrWidth)
	}

	if o.DataWidth < 1 || o.DataWidth > 64 {
		return fmt.Errorf("data-width must be in [1, 64], got %d", o.DataWidth)
	}

	if o.AddrSpace < 4 {
		return fmt.Errorf("addr-space must hold one word, got %d", o.AddrSpace)
	}

	if o.FreqMHz <= 0 {
		return fmt.Errorf("freq-mhz must be positive, got %g", o.FreqMHz)
	}

	resp := axilite.Resp(o.MissResp)
	if resp.IsOkay() || resp > axilite.RespDecErr {
		return fmt.Errorf("miss-resp must be 1, 2 or 3, got %d", o.MissResp)
	}

	return nil
}

func (o RunOptions) timeout() axilite.Timeout {
	if o.Timeout < 0 {
		return axilite.Unbounded
	}

	return axilite.Cycles(uint64(o.Timeout))
}

// Run builds a platform, drives it with a random workload, and reports what
// happened.
func Run(opts RunOptions) (Summary, error) {
	if err := opts.validate(); err != nil {
		return Summary{}, err
	}

	p := platform.MakeBuilder().
		WithBusConfig(axilite.BusConfig{
			AddrWidth: opts.AddrWidth,
			DataWidth: opts.DataWidth,
		}).
		WithFreq(sim.Freq(opts.FreqMHz) * sim.MHz).
		WithMissResp(axilite.Resp(opts.MissResp)).
		Build("Sys")

	latency := tracing.NewTotalTimeTracer(p.Clock, tracing.AllTasks)
	tracing.CollectTrace(p.Master, latency)

	busy := tracing.NewBusyTimeTracer(p.Clock, tracing.AllTasks)
	tracing.CollectTrace(p.Slave, busy)

	if opts.Debug {
		attachLogging(p)
	}

	var closeRecord func()
	if opts.Record != "" {
		closeRecord = attachRecorder(p, opts.Record)
	}

	vcd, closeVCD, err := attachVCD(p.Wires, opts.VCD)
	if err != nil {
		return Summary{}, err
	}

	builder := workload.MakeRandomBuilder().
		WithSeed(opts.Seed).
		WithNumOps(opts.NumOps).
		WithAddrSpace(opts.AddrSpace).
		WithTimeout(opts.timeout())

	var monitor *monitoring.Monitor
	if opts.Monitor {
		monitor, err = startMonitor(p, opts)
		if err != nil {
			return Summary{}, err
		}

		builder = builder.WithProgressBar(
			monitor.CreateProgressBar("Random Workload", uint64(opts.NumOps)))
	}

	w := builder.Build()

	runErr := p.Run(func(m *master.Comp) error { return w.Run(m) })

	if vcd != nil {
		if err := vcd.Flush(); err != nil {
			log.WithError(err).Error("writing the VCD file failed")
		}

		closeVCD()
	}

	if closeRecord != nil {
		closeRecord()
	}

	if runErr != nil {
		return Summary{}, runErr
	}

	slaveStats := p.Slave.Stats()

	return Summary{
		Report:        w.Report(),
		Cycles:        p.Clock.CurrentCycle(),
		AvgLatency:    latency.AverageCycles(),
		Violations:    p.Observer.Stats().Violations,
		SlaveWrites:   slaveStats.Writes,
		SlaveReads:    slaveStats.Reads,
		SlaveAbandons: slaveStats.Abandoned,
		SlaveBusy:     busy.BusyCycles(),
	}, nil
}

func attachLogging(p *platform.Platform) {
	logger := log.StandardLogger()

	tracer := tracing.NewLogTracer(logger, p.Clock, tracing.AllTasks)
	tracing.CollectTrace(p.Master, tracer)
	tracing.CollectTrace(p.Slave, tracer)

	p.Observer.AcceptHook(observer.NewLogHook(logger))
	p.Engine.AcceptHook(sim.NewEventLogger(logger))
}

// attachRecorder returns a function that writes out the tasks still in
// flight and closes the database.
func attachRecorder(p *platform.Platform, path string) func() {
	recorder := datarecording.New(path)

	tracer := tracing.NewDBTracer(p.Clock, recorder)
	tracing.CollectTrace(p.Master, tracer)
	tracing.CollectTrace(p.Slave, tracer)

	p.Observer.AcceptHook(observer.NewRecordingHook(recorder))

	return func() {
		tracer.Terminate()

		if err := recorder.Close(); err != nil {
			log.WithError(err).Error("closing the record database failed")
		}
	}
}

func attachVCD(
	wires *wiring.WireSet,
	path string,
) (*wiring.VCDWriter, func(), error) {
	if path == "" {
		return nil, nil, nil
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating VCD file: %w", err)
	}

	closeFile := func() {
		if err := file.Close(); err != nil {
			log.WithError(err).Error("closing the VCD file failed")
		}
	}

	return wires.VCD(file, "axil"), closeFile, nil
}

func startMonitor(
	p *platform.Platform,
	opts RunOptions,
) (*monitoring.Monitor, error) {
	monitor := monitoring.NewMonitor().WithPortNumber(opts.Port)
	monitor.RegisterEngine(p.Engine)
	monitor.RegisterClock(p.Clock)
	monitor.RegisterWires(p.Wires)
	monitor.RegisterStore(p.Slave.Name(), p.Store)

	for _, c := range p.Components() {
		monitor.RegisterComponent(c)
	}

	url, err := monitor.StartServer()
	if err != nil {
		return nil, err
	}

	if opts.OpenBrowser {
		if err := monitoring.OpenInBrowser(url); err != nil {
			log.WithError(err).Warn("cannot open the browser")
		}
	}

	return monitor, nil
}

func printSummary(out io.Writer, s Summary) {
	fmt.Fprintf(out, "%s\n", s.Report)
	fmt.Fprintf(out, "cycles=%d avg_latency=%.2f violations=%d\n",
		s.Cycles, s.AvgLatency, s.Violations)
	fmt.Fprintf(out, "slave: writes=%d reads=%d abandoned=%d busy=%d\n",
		s.SlaveWrites, s.SlaveReads, s.SlaveAbandons, s.SlaveBusy)

	for _, m := range s.Report.Mismatches {
		fmt.Fprintf(out, "mismatch %s\n", m)
	}

	log.WithFields(log.Fields{
		"writes":     s.Report.Writes,
		"reads":      s.Report.Reads,
		"timeouts":   s.Report.Timeouts,
		"mismatches": len(s.Report.Mismatches),
		"cycles":     s.Cycles,
	}).Info("simulation finished")
}
