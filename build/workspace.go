// Package build owns the workspace: the set of documents under analysis,
// the shared identifier space and global index, and the phased build
// pipeline (construct, link, implicit generalization, validate) with
// cooperative cancellation between documents and phases.
package build

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kerml-go/kerml/errors"
	"github.com/kerml-go/kerml/eval"
	"github.com/kerml-go/kerml/implicit"
	"github.com/kerml-go/kerml/logger"
	"github.com/kerml-go/kerml/meta"
	"github.com/kerml-go/kerml/scope"
	"github.com/kerml-go/kerml/stdlib"
	"github.com/kerml-go/kerml/syntax"
)

// Workspace holds the documents of one analysis session. It is not safe
// for concurrent use: builds and readers take turns by design.
type Workspace struct {
	opts    Options
	checks  map[string]bool
	ids     *meta.IDAllocator
	ctor    *meta.Constructor
	library *stdlib.Library

	index    *scope.GlobalIndex
	resolver *scope.Resolver
	engine   *implicit.Engine

	docs       map[string]*meta.Document
	order      []string
	parseDiags map[string][]syntax.Diagnostic

	log *zap.SugaredLogger
}

// NewWorkspace creates a workspace and loads the configured standard
// library into its identifier space.
func NewWorkspace(opts Options) (*Workspace, error) {
	checks, err := opts.checkSet()
	if err != nil {
		return nil, err
	}

	ids := meta.NewIDAllocator()
	variant := opts.StdlibVariant
	if variant == "" {
		variant = stdlib.VariantStandard
	}
	library, err := stdlib.Load(variant, ids, opts.StdlibDir)
	if err != nil {
		return nil, errors.Wrap(err, "loading standard library")
	}

	w := &Workspace{
		opts:       opts,
		checks:     checks,
		ids:        ids,
		ctor:       meta.NewConstructor(ids),
		library:    library,
		index:      scope.NewGlobalIndex(),
		docs:       make(map[string]*meta.Document),
		parseDiags: make(map[string][]syntax.Diagnostic),
		log:        logger.ComponentLogger("build.workspace"),
	}
	w.resolver = scope.NewResolver(w.index, opts.Standalone)
	w.engine = implicit.NewEngine(ids, library, opts.ImplicitEvenIfIndirect)
	return w, nil
}

// SetDocument parses source and (re)constructs the document's metamodel.
// Existing documents are rebuilt in place, preserving element identities.
func (w *Workspace) SetDocument(uri, source string) *meta.Document {
	root, diags := syntax.Parse(source)

	existing := w.docs[uri]
	if existing != nil {
		existing.BeginRebuild()
	}
	doc := w.ctor.BuildDocument(uri, root, existing)
	doc.ReportAll(diags)
	doc.AttachComments()

	if existing == nil {
		w.order = append(w.order, uri)
	}
	w.docs[uri] = doc
	w.parseDiags[uri] = diags
	return doc
}

// RemoveDocument discards a document from the workspace
func (w *Workspace) RemoveDocument(uri string) {
	if _, ok := w.docs[uri]; !ok {
		return
	}
	delete(w.docs, uri)
	delete(w.parseDiags, uri)
	for i, u := range w.order {
		if u == uri {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

// Document returns a document by URI, or nil
func (w *Workspace) Document(uri string) *meta.Document { return w.docs[uri] }

// Documents returns the workspace documents in insertion order
func (w *Workspace) Documents() []*meta.Document {
	out := make([]*meta.Document, 0, len(w.order))
	for _, uri := range w.order {
		out = append(out, w.docs[uri])
	}
	return out
}

// Library returns the loaded standard library
func (w *Workspace) Library() *stdlib.Library { return w.library }

// Resolver returns the workspace resolver. Valid after a build.
func (w *Workspace) Resolver() *scope.Resolver { return w.resolver }

// Evaluator returns an expression evaluator over the linked workspace
func (w *Workspace) Evaluator() *eval.Evaluator { return eval.New(w.resolver) }

// Result reports the outcome of one build pass.
type Result struct {
	// Documents lists the processed documents in dependency order.
	Documents []*meta.Document
	// Completed counts documents that finished every phase; on
	// cancellation the remainder keep their partial state.
	Completed int
	Elapsed   time.Duration
}

// ErrorCount sums error-severity diagnostics across the batch
func (r *Result) ErrorCount() int {
	n := 0
	for _, doc := range r.Documents {
		for _, d := range doc.Diagnostics {
			if d.Severity == syntax.SeverityError {
				n++
			}
		}
	}
	return n
}

// Build runs the full pipeline over every document: reset, index, link,
// implicit generalization, validation. Cancellation is checked between
// documents and phases; documents already processed keep their state, and
// a later build completes the rest.
func (w *Workspace) Build(ctx context.Context) (*Result, error) {
	start := time.Now()

	docs := w.dependencyOrder()
	result := &Result{Documents: docs}

	// reset phase: drop previous link/validation findings and implied
	// relationships so the pipeline is idempotent
	for _, doc := range docs {
		doc.BeginRebuild()
		doc.ReportAll(w.parseDiags[doc.URI])
	}

	if !w.opts.Standalone {
		indexed := append(append([]*meta.Document{}, docs...), w.library.Documents()...)
		w.index.Rebuild(indexed)
	}

	phases := []struct {
		name string
		run  func(doc *meta.Document)
	}{
		{"link", w.linkDocument},
		{"implicit", w.engine.Apply},
		{"validate", w.validateDocument},
	}

	for i, doc := range docs {
		for _, phase := range phases {
			if err := ctx.Err(); err != nil {
				w.log.Infow("build canceled",
					logger.FieldDocument, doc.URI,
					logger.FieldPhase, phase.name,
					logger.FieldCount, result.Completed)
				result.Elapsed = time.Since(start)
				return result, errors.Wrapf(errors.ErrCanceled, "build canceled during %s", phase.name)
			}
			phase.run(doc)
		}
		result.Completed = i + 1
	}

	result.Elapsed = time.Since(start)
	w.log.Debugw("build finished",
		logger.FieldBatchSize, len(docs),
		logger.FieldDurationMS, result.Elapsed.Milliseconds(),
		logger.FieldDiagnostics, result.ErrorCount())
	return result, nil
}

// dependencyOrder sorts documents so that documents whose root packages
// are imported by others come first. Import cycles fall back to insertion
// order; linking tolerates them.
func (w *Workspace) dependencyOrder() []*meta.Document {
	// root package names per document
	providers := make(map[string]string) // root name -> uri
	for _, uri := range w.order {
		for _, m := range w.docs[uri].Root.Members() {
			if m.Name != "" {
				providers[m.Name] = uri
			}
		}
	}

	deps := make(map[string]map[string]bool)
	for _, uri := range w.order {
		deps[uri] = make(map[string]bool)
		w.docs[uri].Walk(func(e *meta.Element) {
			imp := e.Import()
			if imp == nil || imp.Target == nil {
				return
			}
			first, _, _ := strings.Cut(imp.Target.Name(), "::")
			if provider, ok := providers[first]; ok && provider != uri {
				deps[uri][provider] = true
			}
		})
	}

	var out []*meta.Document
	visited := make(map[string]bool)
	var visit func(uri string)
	visit = func(uri string) {
		if visited[uri] {
			return
		}
		visited[uri] = true
		for _, dep := range w.order {
			if deps[uri][dep] {
				visit(dep)
			}
		}
		out = append(out, w.docs[uri])
	}
	for _, uri := range w.order {
		visit(uri)
	}
	return out
}

// linkDocument resolves every reference in the document and records
// linking failures as diagnostics. Unresolved references behave as absent
// downstream; linking never aborts the build.
func (w *Workspace) linkDocument(doc *meta.Document) {
	doc.Walk(func(e *meta.Element) {
		for _, rel := range e.Heritage() {
			cap := rel.Relationship()
			if cap == nil || cap.Target == nil {
				continue
			}
			if _, err := cap.Target.Resolve(w.resolver); err != nil {
				doc.Report(linkDiagnostic(rel, cap.Target.Name(), err))
			}
		}
		if imp := e.Import(); imp != nil && imp.Target != nil {
			if _, err := imp.Target.Resolve(w.resolver); err != nil {
				doc.Report(linkDiagnostic(e, imp.Target.Name(), err))
			}
		}
		if alias := e.Alias(); alias != nil && alias.Target != nil {
			if _, err := alias.Target.Resolve(w.resolver); err != nil {
				doc.Report(linkDiagnostic(e, alias.Target.Name(), err))
			}
		}
	})
}

func linkDiagnostic(e *meta.Element, name string, err error) syntax.Diagnostic {
	code := syntax.CodeLinking
	if errors.Is(err, scope.ErrAmbiguous) {
		code = syntax.CodeAmbiguous
	}
	return syntax.Errorf(code, elementRange(e), "cannot resolve %q: %s", name, err)
}

func elementRange(e *meta.Element) syntax.Range {
	if e.Node != nil {
		return e.Node.Range
	}
	return syntax.Range{}
}
