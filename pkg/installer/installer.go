// Package installer is storelink's pipeline: materialise each package
// (extracting HARD packages into the content-addressed store or
// recording SOFT packages at their workspace path), attach its
// dependencies as a symlink farm once materialisation completes, and
// finalise by garbage-collecting whatever the store no longer needs.
// See pkg/asyncwork for how materialise/attach are chained per
// locator, and pkg/storepath for the path algebra the pipeline builds
// on.
package installer

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/storelinkhq/storelink/pkg/asyncwork"
	"github.com/storelinkhq/storelink/pkg/customdata"
	"github.com/storelinkhq/storelink/pkg/fsops"
	"github.com/storelinkhq/storelink/pkg/logging"
	"github.com/storelinkhq/storelink/pkg/project"
)

// Name is the identifier this installer advertises as
// project.Configuration's "nodeLinker" value; AttachDependencies only
// acts, and Finalise only keeps the referenced store entries (rather
// than removing the whole store), when the host's configuration names
// it.
const Name = "storelink"

// MaterialiseResult is Materialise's return value.
type MaterialiseResult struct {
	// PackageLocation is the on-disk path the package now lives at:
	// its fetch result's real path for SOFT, its store entry for HARD.
	PackageLocation string
	// BuildDirective is nil for SOFT packages (no extraction is
	// performed) and always non-nil for HARD.
	BuildDirective *project.BuildDirective
}

// GCReport summarises what Finalise's store garbage collection did.
type GCReport struct {
	RemovedSlugs []string
	KeptSlugs    []string
}

// Installer drives one install's materialise/attach/finalise pipeline
// against a single project.Project. It is not safe for reuse across
// installs - construct a new Installer (and a fresh asyncwork.Table)
// per run.
type Installer struct {
	name    string
	project *project.Project
	report  project.Report
	fsys    fsops.FS
	table   *asyncwork.Table
	log     zerolog.Logger

	dryRun bool

	mu     sync.Mutex
	dryOps []string
}

// Option configures an Installer at construction time.
type Option func(*Installer)

// DryRun makes materialisation and link-farm construction record the
// operations they would perform (retrievable via DryRunLog) instead of
// executing them. CustomData is still computed fully, so a caller can
// preview what an install would do.
func DryRun() Option {
	return func(i *Installer) { i.dryRun = true }
}

// WithFS overrides the filesystem implementation; production code
// should never need this (fsops.NewOS is the default), but tests
// substitute an afero-backed fixture.
func WithFS(fsys fsops.FS) Option {
	return func(i *Installer) { i.fsys = fsys }
}

// New constructs an Installer for p, scheduling work through a new
// asyncwork.Table capped at concurrency concurrent factories (10 in
// production use, per spec's concurrency model). It replaces
// p.CustomData with a fresh, empty Bag, so data persisted by a prior
// install is never carried into this one.
func New(ctx context.Context, p *project.Project, report project.Report, concurrency int64, opts ...Option) *Installer {
	p.CustomData = customdata.New()
	i := &Installer{
		name:    Name,
		project: p,
		report:  report,
		fsys:    fsops.NewOS(),
		table:   asyncwork.New(ctx, concurrency),
		log:     logging.GetLogger("core.installer"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// isActiveLinker reports whether the host's configuration names this
// installer as the project's active node linker (spec.md §6). Attach,
// and Finalise's choice between selective GC and removing the whole
// store, are both gated on this.
func (i *Installer) isActiveLinker() bool {
	v, ok := i.project.Configuration.Get("nodeLinker")
	return ok && v == i.name
}

// DryRunLog returns every operation recorded while DryRun is set, in
// the order they were scheduled. Empty when DryRun is not set.
func (i *Installer) DryRunLog() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]string, len(i.dryOps))
	copy(out, i.dryOps)
	return out
}

func (i *Installer) recordDryRun(entry string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.dryOps = append(i.dryOps, entry)
}
