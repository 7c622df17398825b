// Package stdlib embeds and loads the standard model library: the packages
// that implicit generalization and the evaluator's builtin functions resolve
// against. The library ships inside the binary; a local directory with the
// same manifest layout can override it.
package stdlib

import (
	"embed"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/kerml-go/kerml/errors"
	"github.com/kerml-go/kerml/logger"
	"github.com/kerml-go/kerml/meta"
	"github.com/kerml-go/kerml/scope"
	"github.com/kerml-go/kerml/syntax"
)

//go:embed lib/manifest.toml lib/*.kerml
var embedded embed.FS

// Variant selects which library the workspace loads.
type Variant string

const (
	// VariantNone analyzes without a library; implicit generalization and
	// builtin functions are unavailable.
	VariantNone Variant = "none"
	// VariantStandard loads the embedded library.
	VariantStandard Variant = "standard"
	// VariantLocal loads a library from a directory on disk.
	VariantLocal Variant = "local"
)

// ParseVariant validates a variant name from configuration.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case VariantNone, VariantStandard, VariantLocal:
		return Variant(s), nil
	case "":
		return VariantStandard, nil
	}
	return "", errors.Newf("unknown stdlib variant %q (none, standard, local)", s)
}

// Manifest describes the library's packages in dependency order.
type Manifest struct {
	Schema   int               `toml:"schema"`
	Packages []ManifestPackage `toml:"package"`
}

// ManifestPackage is one library package entry.
type ManifestPackage struct {
	Name        string `toml:"name"`
	File        string `toml:"file"`
	Description string `toml:"description"`
}

// Library holds the loaded, linked library documents. It serves qualified
// lookups for implicit generalization and evaluator builtins. The zero-value
// (or VariantNone) library answers every lookup with nil.
type Library struct {
	variant   Variant
	documents []*meta.Document
	index     *scope.GlobalIndex
	resolver  *scope.Resolver

	// resolved qualified names; the library is immutable once loaded
	cache map[string]*meta.Element

	log *zap.SugaredLogger
}

// Load loads the library for the given variant using the workspace's ID
// allocator, so library and user elements share one identity space. dir is
// only consulted for VariantLocal.
func Load(variant Variant, ids *meta.IDAllocator, dir string) (*Library, error) {
	lib := &Library{
		variant: variant,
		cache:   make(map[string]*meta.Element),
		log:     logger.ComponentLogger("stdlib"),
	}
	switch variant {
	case VariantNone:
		return lib, nil
	case VariantStandard:
		sub, err := fs.Sub(embedded, "lib")
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return lib, lib.loadFS(sub, ids)
	case VariantLocal:
		if dir == "" {
			return nil, errors.New("local stdlib variant requires a directory")
		}
		return lib, lib.loadFS(os.DirFS(dir), ids)
	}
	return nil, errors.Newf("unknown stdlib variant %q", variant)
}

func (l *Library) loadFS(fsys fs.FS, ids *meta.IDAllocator) error {
	raw, err := fs.ReadFile(fsys, "manifest.toml")
	if err != nil {
		return errors.Wrap(err, "reading library manifest")
	}
	var manifest Manifest
	if err := toml.Unmarshal(raw, &manifest); err != nil {
		return errors.Wrap(err, "parsing library manifest")
	}
	if len(manifest.Packages) == 0 {
		return errors.New("library manifest lists no packages")
	}

	ctor := meta.NewConstructor(ids)
	for _, pkg := range manifest.Packages {
		source, err := fs.ReadFile(fsys, pkg.File)
		if err != nil {
			return errors.Wrapf(err, "reading library package %s", pkg.Name)
		}
		root, diags := syntax.Parse(string(source))
		doc := ctor.BuildDocument("kerml:stdlib/"+pkg.File, root, nil)
		doc.ReportAll(diags)
		doc.AttachComments()
		if doc.HasErrors() {
			return errors.AssertionFailedf(
				"library package %s has %d syntax errors", pkg.Name, len(doc.Diagnostics))
		}
		l.documents = append(l.documents, doc)
	}

	l.index = scope.NewGlobalIndex()
	l.index.Rebuild(l.documents)
	l.resolver = scope.NewResolver(l.index, false)
	for _, doc := range l.documents {
		doc.Walk(func(e *meta.Element) {
			meta.ResolveHeritage(e, l.resolver)
			if imp := e.Import(); imp != nil && imp.Target != nil {
				_, _ = imp.Target.Resolve(l.resolver)
			}
		})
	}

	l.log.Debugw("standard library loaded",
		logger.FieldCount, len(l.documents),
		"variant", string(l.variant))
	return nil
}

// Variant reports which library was loaded.
func (l *Library) Variant() Variant { return l.variant }

// Documents returns the library documents, in manifest order. The workspace
// indexes them alongside user documents so models can reference library
// names directly.
func (l *Library) Documents() []*meta.Document { return l.documents }

// LibraryType resolves a qualified library name, or nil when the library is
// not loaded or the element is missing. It implements the lookup interface
// of the implicit-generalization engine.
func (l *Library) LibraryType(qualifiedName string, _ *meta.Element) *meta.Element {
	if l.resolver == nil {
		return nil
	}
	if found, ok := l.cache[qualifiedName]; ok {
		return found
	}
	found, err := l.resolver.ResolveName(qualifiedName, nil)
	if err != nil {
		found = nil
	}
	l.cache[qualifiedName] = found
	return found
}

// Function resolves a function by library package and name, for evaluator
// builtin dispatch.
func (l *Library) Function(pkg, name string) *meta.Element {
	e := l.LibraryType(pkg+"::"+name, nil)
	if e == nil || e.Kind != meta.KindFunction {
		return nil
	}
	return e
}
