// Command logjuicer trains a baseline model from a set of known-good
// log sources and reports anomalous lines in a target against it.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/logjuicer/logjuicer-go/internal/config"
	"github.com/logjuicer/logjuicer-go/internal/errmode"
	"github.com/logjuicer/logjuicer-go/internal/log"
	"github.com/logjuicer/logjuicer-go/internal/model"
	"github.com/logjuicer/logjuicer-go/internal/store"
)

const configFilename = "logjuicer.yaml"

// crawlerConcurrency is the HTTP-directory crawler's default worker
// pool size (SPEC_FULL.md §5: "a small worker pool (default 4)").
const crawlerConcurrency = 4

// maybeNetContext builds the cache/crawler context remote Content
// needs, but only when the disk cache is opted into via LOGJUICER_CACHE
// (§4.10/§6: "Cache is opt-in via environment flag"). Returns a nil
// NetContext, a no-op cleanup, and no error when the flag is unset;
// resolveContent then refuses any http(s):// path outright.
func maybeNetContext() (*model.NetContext, func() error, error) {
	if os.Getenv("LOGJUICER_CACHE") == "" {
		return nil, func() error { return nil }, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return nil, nil, fmt.Errorf("resolving user cache dir: %w", err)
	}
	return model.NewNetContext(filepath.Join(dir, "logjuicer"), crawlerConcurrency, http.DefaultClient)
}

// resolveContent classifies path as a remote URL or a local
// file/directory, per §6's input kinds (a)-(c).
func resolveContent(path string, net *model.NetContext) (model.Content, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		if net == nil {
			return model.Content{}, fmt.Errorf("%s is a remote source; set LOGJUICER_CACHE to enable fetching it", path)
		}
		return model.FromURL(path, net)
	}
	return model.FromPath(path)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 1 {
		printUsage()
		return fmt.Errorf("no command provided")
	}

	switch args[0] {
	case "index":
		return runIndex(args[1:])
	case "check-model":
		return runCheckModel(args[1:])
	case "report":
		return runReport(args[1:])
	case "report-errors":
		return runReportErrors(args[1:])
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func printUsage() {
	fmt.Println("logjuicer - log anomaly detector")
	fmt.Println("Usage:")
	fmt.Println("  logjuicer index -model <path> -target <name> <baseline>...")
	fmt.Println("  logjuicer check-model -model <path> [-max-age <duration>]")
	fmt.Println("  logjuicer report -model <path> <target>")
	fmt.Println("  logjuicer report-errors <target>")
}

func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(configFilename); err != nil {
		return config.Default(), nil
	}
	return config.Load(configFilename)
}

func targetFilter(cfg *config.Config, targetName string) (*model.TargetConfig, error) {
	compiled, err := cfg.ForTarget(targetName).Compile()
	if err != nil {
		return nil, fmt.Errorf("compiling target config: %w", err)
	}
	return model.NewTargetConfig(
		patternsOf(compiled.Includes),
		patternsOf(compiled.Excludes),
		compiled.IgnorePatterns,
		compiled.DefaultExcludes,
	)
}

func patternsOf(res []*regexp.Regexp) []string {
	out := make([]string, len(res))
	for i, re := range res {
		out[i] = re.String()
	}
	return out
}

func runIndex(args []string) error {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	modelPath := fs.String("model", "logjuicer.model", "path to write the trained model")
	targetName := fs.String("target", "default", "named target config section to apply")
	if err := fs.Parse(args); err != nil {
		return err
	}
	baselinePaths := fs.Args()
	if len(baselinePaths) == 0 {
		return fmt.Errorf("index requires at least one baseline path")
	}

	logger := log.FromEnv("INDEX")
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	filter, err := targetFilter(cfg, *targetName)
	if err != nil {
		return err
	}

	net, closeNet, err := maybeNetContext()
	if err != nil {
		return fmt.Errorf("setting up content cache: %w", err)
	}
	defer closeNet()

	var baselines []model.Content
	for _, p := range baselinePaths {
		c, err := resolveContent(p, net)
		if err != nil {
			return fmt.Errorf("resolving baseline %s: %w", p, err)
		}
		baselines = append(baselines, c)
	}

	logger.Infof("training over %d baseline(s)", len(baselines))
	m, err := model.Train(filter, baselines)
	if err != nil {
		return fmt.Errorf("training model: %w", err)
	}

	if err := store.Save(*modelPath, m); err != nil {
		return fmt.Errorf("saving model: %w", err)
	}
	logger.Infof("wrote %s with %d index(es)", *modelPath, len(m.Indexes))
	return nil
}

func runCheckModel(args []string) error {
	fs := flag.NewFlagSet("check-model", flag.ExitOnError)
	modelPath := fs.String("model", "logjuicer.model", "path to the trained model")
	maxAge := fs.Duration("max-age", 0, "reject the model if older than this duration (0 disables the age check)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := store.Check(*modelPath, *maxAge, time.Now()); err != nil {
		return fmt.Errorf("model check failed: %w", err)
	}
	fmt.Println("model is valid")
	return nil
}

func runReport(args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	modelPath := fs.String("model", "logjuicer.model", "path to the trained model")
	targetName := fs.String("target", "default", "named target config section to apply")
	if err := fs.Parse(args); err != nil {
		return err
	}
	targetPaths := fs.Args()
	if len(targetPaths) != 1 {
		return fmt.Errorf("report requires exactly one target path")
	}

	logger := log.FromEnv("REPORT")
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	filter, err := targetFilter(cfg, *targetName)
	if err != nil {
		return err
	}

	m, err := store.Load(*modelPath)
	if err != nil {
		return fmt.Errorf("loading model: %w", err)
	}

	net, closeNet, err := maybeNetContext()
	if err != nil {
		return fmt.Errorf("setting up content cache: %w", err)
	}
	defer closeNet()

	target, err := resolveContent(targetPaths[0], net)
	if err != nil {
		return fmt.Errorf("resolving target: %w", err)
	}

	logger.Infof("reporting on %s", target)
	report, err := m.Report(filter, target)
	if err != nil {
		return fmt.Errorf("running report: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	logger.Infof("found %d anomalies across %d line(s)", report.TotalAnomalyCount, report.TotalLineCount)
	return nil
}

// runReportErrors runs the baseline-free alternate report mode: it
// flags lines matching the error vocabulary or completed multi-line
// traces instead of comparing against a trained model.
func runReportErrors(args []string) error {
	fs := flag.NewFlagSet("report-errors", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	targetPaths := fs.Args()
	if len(targetPaths) != 1 {
		return fmt.Errorf("report-errors requires exactly one target path")
	}

	logger := log.FromEnv("REPORT-ERRORS")
	net, closeNet, err := maybeNetContext()
	if err != nil {
		return fmt.Errorf("setting up content cache: %w", err)
	}
	defer closeNet()

	target, err := resolveContent(targetPaths[0], net)
	if err != nil {
		return fmt.Errorf("resolving target: %w", err)
	}

	report, err := errmode.Run(target)
	if err != nil {
		return fmt.Errorf("running error-mode report: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	var anomalyCount int
	for _, lr := range report.LogReports {
		anomalyCount += len(lr.Anomalies)
	}
	logger.Infof("found %d anomalies across %d line(s)", anomalyCount, report.TotalLineCount)
	return nil
}
