// Package scope implements name resolution for the analysis engine: local
// members, inherited members with redefinition hiding, import closure, alias
// transparency, visibility filtering, and the workspace-global root index.
package scope

import (
	"go.uber.org/zap"

	"github.com/kerml-go/kerml/logger"
	"github.com/kerml-go/kerml/meta"
)

// GlobalIndex is the workspace-wide index of root-namespace-level elements.
// It exists so most lookups resolve in time independent of workspace size:
// the index is consulted only as a fallback when local, inherited, and
// imported scopes produced nothing.
//
// Entries cover elements visible from the root: public named direct children
// of each document root, plus public members of anonymous public direct
// children (one level, matching the reachable-from-root rule).
//
// The index is computed once per workspace build and rebuilt whenever
// workspace membership changes or a document is rebuilt.
type GlobalIndex struct {
	byName map[string][]*meta.Element
	log    *zap.SugaredLogger
}

// NewGlobalIndex creates an empty index
func NewGlobalIndex() *GlobalIndex {
	return &GlobalIndex{
		byName: make(map[string][]*meta.Element),
		log:    logger.ComponentLogger("scope.index"),
	}
}

// Rebuild repopulates the index from the given documents
func (g *GlobalIndex) Rebuild(docs []*meta.Document) {
	g.byName = make(map[string][]*meta.Element)
	for _, doc := range docs {
		g.addDocument(doc)
	}
	g.log.Debugw("global index rebuilt",
		logger.FieldCount, len(g.byName),
		logger.FieldTotalCount, len(docs))
}

func (g *GlobalIndex) addDocument(doc *meta.Document) {
	if doc.Root == nil {
		return
	}
	for _, m := range doc.Root.Members() {
		if m.Visibility != meta.VisibilityPublic {
			continue
		}
		if name := m.EffectiveName(); name != "" {
			g.add(name, m)
			continue
		}
		// unnamed public direct child of a root namespace: its own public
		// named members are reachable from the root
		for _, inner := range m.Members() {
			if inner.Visibility != meta.VisibilityPublic {
				continue
			}
			if name := inner.EffectiveName(); name != "" {
				g.add(name, inner)
			}
		}
	}
}

func (g *GlobalIndex) add(name string, e *meta.Element) {
	g.byName[name] = append(g.byName[name], e)
}

// Lookup returns all root-visible elements with the given name
func (g *GlobalIndex) Lookup(name string) []*meta.Element {
	return g.byName[name]
}
