// Command storelink drives the installer pipeline against a fixture
// dependency graph, standing in for the host application spec.md §6
// otherwise assumes (a resolver, a fetcher, and a place to persist
// customdata.Bag between runs).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"

	"github.com/storelinkhq/storelink/pkg/config"
	"github.com/storelinkhq/storelink/pkg/customdata"
	"github.com/storelinkhq/storelink/pkg/hostfixture"
	"github.com/storelinkhq/storelink/pkg/installer"
	"github.com/storelinkhq/storelink/pkg/logging"
	"github.com/storelinkhq/storelink/pkg/project"
	"github.com/storelinkhq/storelink/pkg/report"
)

var (
	fixturePath string
	dryRun      bool
	verbosity   int
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "storelink",
		Short: "content-addressed node_modules linker",
	}
	root.PersistentFlags().StringVar(&fixturePath, "fixture", "", "path to a fixture dependency graph (JSON)")
	root.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity")
	root.AddCommand(newInstallCmd())
	return root
}

func newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "materialise and link every package in the fixture graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(context.Background())
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "record what would be done without touching disk")
	return cmd
}

func runInstall(ctx context.Context) error {
	logging.SetupLogger(verbosity)

	if fixturePath == "" {
		return fmt.Errorf("--fixture is required")
	}
	graph, err := hostfixture.Load(fixturePath)
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}

	bag, err := loadPersistedBag()
	if err != nil {
		return err
	}

	rep := report.New(os.Stdout)
	proj := &project.Project{
		Cwd:           cwd,
		Configuration: cfg,
		CustomData:    bag,
	}

	var opts []installer.Option
	if dryRun {
		opts = append(opts, installer.DryRun())
	}
	inst := installer.New(ctx, proj, rep, 10, opts...)

	resolved, err := graph.Resolve()
	if err != nil {
		return err
	}

	for _, r := range resolved {
		if _, err := inst.Materialise(ctx, r.Package, r.Fetch); err != nil {
			return fmt.Errorf("materialising %s: %w", r, err)
		}
		if _, err := inst.AttachDependencies(ctx, r.Package).Wait(ctx); err != nil {
			return fmt.Errorf("attaching dependencies for %s: %w", r, err)
		}
	}

	finalBag, gc, err := inst.Finalise(ctx)
	if err != nil {
		return err
	}

	if dryRun {
		for _, op := range inst.DryRunLog() {
			fmt.Println(op)
		}
		return nil
	}

	if err := persistBag(finalBag); err != nil {
		return err
	}

	fmt.Printf("installed %d packages, removed %d stale store entries\n", len(resolved), len(gc.RemovedSlugs))
	return nil
}

func bagStatePath() (string, error) {
	return xdg.StateFile("storelink/customdata.json")
}

func loadPersistedBag() (*customdata.Bag, error) {
	path, err := bagStatePath()
	if err != nil {
		return customdata.New(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return customdata.New(), nil
	}

	var persisted struct {
		Key string         `json:"key"`
		Bag customdata.Bag `json:"bag"`
	}
	if err := json.Unmarshal(data, &persisted); err != nil || persisted.Key != customdata.Key() {
		return customdata.New(), nil
	}
	return &persisted.Bag, nil
}

func persistBag(bag *customdata.Bag) error {
	path, err := bagStatePath()
	if err != nil {
		return err
	}
	data, err := json.Marshal(struct {
		Key string         `json:"key"`
		Bag *customdata.Bag `json:"bag"`
	}{Key: customdata.Key(), Bag: bag})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
