package common

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cheggaaa/pb"
	"github.com/nspcc-dev/seqtree/cmd/seqtree-lens/config"
	loggerconfig "github.com/nspcc-dev/seqtree/cmd/seqtree-lens/config/logger"
	metricsconfig "github.com/nspcc-dev/seqtree/cmd/seqtree-lens/config/metrics"
	storeconfig "github.com/nspcc-dev/seqtree/cmd/seqtree-lens/config/store"
	"github.com/nspcc-dev/seqtree/misc"
	"github.com/nspcc-dev/seqtree/pkg/local_object_storage/seqtree"
	"github.com/nspcc-dev/seqtree/pkg/local_object_storage/seqtree/codec"
	storcommon "github.com/nspcc-dev/seqtree/pkg/local_object_storage/seqtree/common"
	"github.com/nspcc-dev/seqtree/pkg/metrics"
	"github.com/nspcc-dev/seqtree/pkg/util/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

const (
	flagConfig     = "config"
	flagPath       = "path"
	flagRange      = "range"
	flagID         = "id"
	flagOut        = "out"
	flagNoProgress = "no-progress"
	flagMetrics    = "metrics-file"
)

// environment is the state shared by commands.
type environment struct {
	cfg *config.Config
	log *zap.Logger

	metricsFile string
	registry    *prometheus.Registry
	metrics     *metrics.StoreMetrics
}

var env = environment{
	log: zap.NewNop(),
}

// Logger returns the logger configured for the running command.
func Logger() *zap.Logger {
	return env.log
}

// Errf returns formatted error in errFmt format if err is not nil.
func Errf(errFmt string, err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf(errFmt, err)
}

// AddConfigFlags adds persistent flags with the path to the configuration
// file and the metrics file overriding the configured one.
func AddConfigFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP(flagConfig, "c", "", "Path to the configuration file (YAML or JSON)")
	cmd.PersistentFlags().String(flagMetrics, "", "File to write Prometheus metrics to in text format")
}

// Init reads configuration and prepares the logger and metrics. It is run
// before every command.
func Init(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString(flagConfig)

	var opts []config.Option
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}

	c, err := config.New(opts...)
	if err != nil {
		return err
	}

	var prm logger.Prm

	err = prm.SetLevelString(loggerconfig.Level(c))
	if err != nil {
		return Errf("invalid logger level: %w", err)
	}

	err = prm.SetEncoding(loggerconfig.Encoding(c))
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(&prm)
	if err != nil {
		return Errf("could not create logger: %w", err)
	}

	env.cfg = c
	env.log = log
	env.metricsFile, _ = cmd.Flags().GetString(flagMetrics)
	if env.metricsFile == "" {
		env.metricsFile = metricsconfig.Textfile(c)
	}

	env.registry, env.metrics = nil, nil
	if env.metricsFile != "" {
		env.registry = prometheus.NewRegistry()
		env.metrics = metrics.NewStoreMetrics(env.registry)
		metrics.RegisterVersion(env.registry, misc.Version)
	}

	return nil
}

// Finalize writes collected metrics if it is configured. It is run after
// every successful command.
func Finalize(*cobra.Command) error {
	_ = env.log.Sync()

	if env.registry == nil {
		return nil
	}

	return Errf("could not write metrics: %w",
		prometheus.WriteToTextfile(env.metricsFile, env.registry))
}

// AddPathFlag adds the flag with the root directory of a tree. The
// "store.path" configuration value is used if the flag is missing.
func AddPathFlag(cmd *cobra.Command, v *string) {
	cmd.Flags().StringVar(v, flagPath, "", "Path to the tree root directory")
}

// AddRangeFlag adds the flag with the range of a tree.
func AddRangeFlag(cmd *cobra.Command, v *uint64) {
	cmd.Flags().Uint64Var(v, flagRange, 0, "Maximum number of children of a directory")
}

// AddIDFlag adds the flag with an object id.
func AddIDFlag(cmd *cobra.Command, v *uint64) {
	cmd.Flags().Uint64Var(v, flagID, 0, "Object identifier")
	_ = cmd.MarkFlagRequired(flagID)
}

// AddOutputFileFlag adds the flag with the output file path.
func AddOutputFileFlag(cmd *cobra.Command, v *string) {
	cmd.Flags().StringVar(v, flagOut, "", "File to save the object data to, standard output by default")
}

// AddNoProgressFlag adds the flag disabling progress bars.
func AddNoProgressFlag(cmd *cobra.Command, v *bool) {
	cmd.Flags().BoolVar(v, flagNoProgress, false, "Do not show progress bar")
}

// StorePrm groups the parameters of a tree opened by a command.
type StorePrm struct {
	Path     string
	Range    uint64
	ReadOnly bool
}

func (p StorePrm) resolve() (StorePrm, []seqtree.Option, error) {
	c := env.cfg
	if c == nil {
		var err error
		c, err = config.New()
		if err != nil {
			return p, nil, err
		}
	}

	if p.Path == "" {
		var err error
		p.Path, err = storeconfig.Path(c)
		if err != nil {
			return p, nil, err
		}
	}
	if p.Path == "" {
		return p, nil, errors.New("tree path is not set")
	}
	if p.Range == 0 {
		p.Range = storeconfig.Range(c)
	}

	perm, err := storeconfig.Perm(c)
	if err != nil {
		return p, nil, err
	}

	opts := []seqtree.Option{
		seqtree.WithLogger(env.log),
		seqtree.WithPerm(perm),
		seqtree.WithReadOnly(p.ReadOnly),
		seqtree.WithRange(p.Range),
		seqtree.WithReadCache(storeconfig.ReadCache(c)),
	}
	if env.metrics != nil {
		opts = append(opts, seqtree.WithMetrics(env.metrics))
	}

	return p, opts, nil
}

// OpenStore opens the existing tree of raw objects.
func OpenStore(prm StorePrm) (*seqtree.Cache[[]byte], error) {
	prm, opts, err := prm.resolve()
	if err != nil {
		return nil, err
	}

	c, err := seqtree.Open(prm.Path, codec.Raw{}, opts...)
	if err != nil {
		return nil, Errf("could not open tree: %w", err)
	}

	return c, nil
}

// OpenOrCreateStore opens the tree or creates it if the directory is missing.
func OpenOrCreateStore(prm StorePrm) (*seqtree.Cache[[]byte], error) {
	prm, opts, err := prm.resolve()
	if err != nil {
		return nil, err
	}

	c, err := seqtree.Open(prm.Path, codec.Raw{}, opts...)
	switch {
	case err == nil:
		return c, nil
	case errors.Is(err, storcommon.ErrRangeUnknown):
		return nil, Errf("could not open tree, set the range: %w", err)
	case !errors.Is(err, fs.ErrNotExist):
		return nil, Errf("could not open tree: %w", err)
	}

	if prm.Range == 0 {
		return nil, errors.New("range is required to create a tree")
	}

	c, err = seqtree.New(filepath.Dir(prm.Path), filepath.Base(prm.Path), prm.Range, codec.Raw{}, opts...)
	if err != nil {
		return nil, Errf("could not create tree: %w", err)
	}

	return c, nil
}

// NewProgressBar returns a started progress bar for n steps written to the
// command error output. Nil is returned if disabled or the output is not a
// terminal, all methods of the returned Progress are safe then.
func NewProgressBar(cmd *cobra.Command, n int, disabled bool) *Progress {
	if disabled || n <= 1 {
		return nil
	}

	f, ok := cmd.ErrOrStderr().(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}

	bar := pb.New(n)
	bar.Output = f
	bar.ShowSpeed = true
	bar.Start()

	return &Progress{bar: bar}
}

// Progress wraps a progress bar.
type Progress struct {
	bar *pb.ProgressBar
}

// Increment advances the bar by one step.
func (p *Progress) Increment() {
	if p != nil {
		p.bar.Increment()
	}
}

// Finish stops the bar.
func (p *Progress) Finish() {
	if p != nil {
		p.bar.Finish()
	}
}

// ProxyReader wraps r so that reading advances the bar by the number of read
// bytes.
func ProxyReader(cmd *cobra.Command, r io.Reader, size int64, disabled bool) (io.Reader, *Progress) {
	if disabled || size <= 0 {
		return r, nil
	}

	f, ok := cmd.ErrOrStderr().(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return r, nil
	}

	bar := pb.New64(size)
	bar.Output = f
	bar.SetUnits(pb.U_BYTES)
	bar.Start()

	return bar.NewProxyReader(r), &Progress{bar: bar}
}

// Workers returns the configured number of routines for parallel checks.
func Workers() int {
	if env.cfg == nil {
		return storeconfig.WorkersDefault
	}
	return storeconfig.Workers(env.cfg)
}
