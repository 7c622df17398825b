package meta

import (
	"github.com/kerml-go/kerml/syntax"
)

// Document is one parsed source file: a root namespace, its diagnostics, and
// the build generation used to stamp derived caches.
type Document struct {
	// URI identifies the document in the workspace (file path or synthetic
	// name for library/test documents)
	URI string

	// Root is the document root namespace. Exactly one per document; the
	// ownership forest of all elements in the document is rooted here.
	Root *Element

	// Syntax is the parsed concrete syntax tree the document was built from
	Syntax *syntax.Node

	// Generation is incremented on every rebuild of this document; derived
	// caches stamped with an older generation recompute on access
	Generation uint64

	// Diagnostics collected over the whole pipeline: parse, linking,
	// implicit generalization, validation
	Diagnostics []syntax.Diagnostic

	// commentsAttached marks that the comment-attachment pass ran, so it
	// runs at most once per build
	commentsAttached bool
}

// Report appends a diagnostic to the document
func (d *Document) Report(diag syntax.Diagnostic) {
	d.Diagnostics = append(d.Diagnostics, diag)
}

// ReportAll appends a batch of diagnostics
func (d *Document) ReportAll(diags []syntax.Diagnostic) {
	d.Diagnostics = append(d.Diagnostics, diags...)
}

// HasErrors reports whether any error-severity diagnostic is present
func (d *Document) HasErrors() bool {
	for _, diag := range d.Diagnostics {
		if diag.Severity == syntax.SeverityError {
			return true
		}
	}
	return false
}

// BeginRebuild bumps the document generation, clears diagnostics, resets
// derived caches on every element, and drops implied relationships so the
// implicit-generalization pass can re-run. Elements themselves are reused in
// place to preserve identity for caches and cross-references.
func (d *Document) BeginRebuild() {
	d.Generation++
	d.Diagnostics = nil
	d.commentsAttached = false
	if d.Root != nil {
		resetTree(d.Root)
	}
}

func resetTree(e *Element) {
	e.ResetDerived()
	e.RemoveImplied(RoleHeritage)
	for _, child := range e.AllOwned() {
		resetTree(child)
	}
}

// Walk visits every element in the document's ownership tree, owner before
// owned, in role order.
func (d *Document) Walk(visit func(*Element)) {
	if d.Root == nil {
		return
	}
	walkTree(d.Root, visit)
}

func walkTree(e *Element, visit func(*Element)) {
	visit(e)
	for _, child := range e.AllOwned() {
		walkTree(child, visit)
	}
}

// AttachComments runs the comment-attachment pass: free-floating block
// comments become annotations on the nearest following sibling element, or
// on their owner when trailing. Idempotent per build.
func (d *Document) AttachComments() {
	if d.commentsAttached || d.Root == nil {
		return
	}
	d.commentsAttached = true
	attachComments(d.Root)
}

func attachComments(owner *Element) {
	members := owner.Members()
	var pending []*Element

	for _, m := range members {
		if m.Kind == KindComment || m.Kind == KindDoc {
			pending = append(pending, m)
			continue
		}
		for _, note := range pending {
			m.Annotate(Annotation{
				Kind:    note.Kind,
				Text:    noteText(note),
				Range:   noteRange(note),
				Leading: true,
			})
		}
		pending = nil
		attachComments(m)
	}

	// trailing notes annotate the owner itself
	for _, note := range pending {
		owner.Annotate(Annotation{
			Kind:    note.Kind,
			Text:    noteText(note),
			Range:   noteRange(note),
			Leading: false,
		})
	}
}

// noteText returns the comment body. Annotation elements wrap the comment
// syntax node; programmatic documents may carry the body in Name instead.
func noteText(note *Element) string {
	if note.Node != nil {
		return note.Node.Text
	}
	return note.Name
}

func noteRange(note *Element) syntax.Range {
	if note.Node != nil {
		return note.Node.Range
	}
	return syntax.Range{}
}
