package internal

import (
	"fmt"

	"github.com/goplus/llbrew/formula"
	"github.com/goplus/llbrew/internal/env"
	"github.com/goplus/llbrew/internal/formula/repo"
	"github.com/goplus/llbrew/pkgs/hostenv"
	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"
)

var (
	configFile string
	envFile    string
	formulaDir string
	prefix     string
	verbose    bool

	// workspaceDir overrides the build workspace, used by tests.
	workspaceDir string

	conf *env.Config
)

var rootCmd = &cobra.Command{
	Use:   "llbrew",
	Short: "llbrew compiles formulas into build plans",
	Long: `llbrew turns a declarative formula, the options you pick and a snapshot
of the host into an ordered build plan, and can carry the plan out.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Config file (default is <UserConfigDir>/llbrew/config.yml)")
	pf.StringVar(&envFile, "env", "", "Host snapshot file used instead of probing the host")
	pf.StringVar(&formulaDir, "formula-dir", "", "Directory of local formulas")
	pf.StringVar(&prefix, "prefix", "", "Install prefix")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		file, err := env.ConfigFile()
		if err != nil {
			return err
		}
		configFile = file
	}
	c, err := env.LoadConfig(configFile)
	if err != nil {
		return err
	}
	conf = c
	if prefix != "" {
		conf.Prefix = prefix
	}
	if formulaDir != "" {
		conf.FormulaDir = formulaDir
	}

	level := logLevels[conf.LogLevel]
	if verbose {
		level = log.Ldebug
	}
	log.SetOutputLevel(level)
	log.Debugf("config %s: prefix=%s formula_dir=%s", configFile, conf.Prefix, conf.FormulaDir)
	return nil
}

var logLevels = map[string]int{
	"debug": log.Ldebug,
	"info":  log.Linfo,
	"warn":  log.Lwarn,
	"error": log.Lerror,
}

func openStore() (*repo.Store, error) {
	dir := conf.FormulaDir
	if dir == "" {
		d, err := repo.DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get formula dir: %w", err)
		}
		dir = d
	}
	return repo.New(dir), nil
}

func hostEnv() (*hostenv.Snapshot, error) {
	if envFile != "" {
		snap, err := hostenv.LoadSnapshot(envFile, nil)
		if err != nil {
			return nil, err
		}
		if snap.Root == "" {
			snap.Root = conf.Prefix
		}
		return snap, nil
	}
	return hostenv.Detect(conf.Prefix)
}

// load returns the formula named by args[0] and the request made of the
// remaining arguments.
func load(args []string) (*formula.Descriptor, formula.Request, error) {
	store, err := openStore()
	if err != nil {
		return nil, formula.Request{}, err
	}
	desc, err := store.Load(args[0])
	if err != nil {
		return nil, formula.Request{}, err
	}
	req, err := formula.ParseRequest(args[1:])
	if err != nil {
		return nil, formula.Request{}, err
	}
	return desc, req, nil
}
