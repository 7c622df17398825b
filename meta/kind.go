// Package meta implements the metamodel layer of the analysis engine: typed
// elements wrapping concrete syntax nodes 1:1, ownership links, first-class
// relationship elements, and lazily computed derived properties.
package meta

// ElementKind identifies the metamodel kind of an element
type ElementKind string

const (
	KindNamespace  ElementKind = "namespace" // document root
	KindPackage    ElementKind = "package"
	KindClassifier ElementKind = "classifier"
	KindClass      ElementKind = "class"
	KindDataType   ElementKind = "datatype"
	KindStruct     ElementKind = "struct"
	KindAssoc      ElementKind = "assoc"
	KindBehavior   ElementKind = "behavior"
	KindFunction   ElementKind = "function"
	KindFeature    ElementKind = "feature"
	KindConnector  ElementKind = "connector"
	KindStep       ElementKind = "step"
	KindExpression ElementKind = "expression"
	KindAlias      ElementKind = "alias"
	KindImport     ElementKind = "import"
	KindComment    ElementKind = "comment"
	KindDoc        ElementKind = "doc"

	// Relationship kinds are element kinds too: relationships are
	// first-class owned elements.
	KindSpecialization ElementKind = "specialization"
	KindSubsetting     ElementKind = "subsetting"
	KindRedefinition   ElementKind = "redefinition"
	KindTyping         ElementKind = "typing"
	KindConjugation    ElementKind = "conjugation"
	KindDisjoining     ElementKind = "disjoining"
	KindFeaturing      ElementKind = "featuring"
)

// classifierForKeyword maps declaration keywords to element kinds
var classifierForKeyword = map[string]ElementKind{
	"classifier": KindClassifier,
	"class":      KindClass,
	"datatype":   KindDataType,
	"struct":     KindStruct,
	"assoc":      KindAssoc,
	"behavior":   KindBehavior,
	"function":   KindFunction,
}

// featureForKeyword maps feature declaration keywords to element kinds.
// Most feature keywords share KindFeature; the declaration keyword itself is
// retained on the element for the implicit-generalization selectors.
var featureForKeyword = map[string]ElementKind{
	"feature":   KindFeature,
	"part":      KindFeature,
	"attribute": KindFeature,
	"item":      KindFeature,
	"port":      KindFeature,
	"action":    KindStep,
	"step":      KindStep,
	"connector": KindConnector,
	"expr":      KindExpression,
}

// IsType reports whether elements of this kind carry type capabilities
func (k ElementKind) IsType() bool {
	switch k {
	case KindClassifier, KindClass, KindDataType, KindStruct, KindAssoc,
		KindBehavior, KindFunction, KindFeature, KindConnector, KindStep,
		KindExpression:
		return true
	}
	return false
}

// IsFeature reports whether elements of this kind carry feature capabilities
func (k ElementKind) IsFeature() bool {
	switch k {
	case KindFeature, KindConnector, KindStep, KindExpression:
		return true
	}
	return false
}

// IsRelationship reports whether elements of this kind are relationship edges
func (k ElementKind) IsRelationship() bool {
	switch k {
	case KindSpecialization, KindSubsetting, KindRedefinition, KindTyping,
		KindConjugation, KindDisjoining, KindFeaturing, KindImport:
		return true
	}
	return false
}

// IsNamespace reports whether elements of this kind can own members
func (k ElementKind) IsNamespace() bool {
	return k == KindNamespace || k == KindPackage || k.IsType()
}

// RelKind identifies the subkind of a relationship element, used when
// filtering specializations
type RelKind string

const (
	RelSpecialization RelKind = "specialization"
	RelSubsetting     RelKind = "subsetting"
	RelRedefinition   RelKind = "redefinition"
	RelTyping         RelKind = "typing"
	RelConjugation    RelKind = "conjugation"
	RelDisjoining     RelKind = "disjoining"
	RelFeaturing      RelKind = "featuring"
	RelImport         RelKind = "import"
)

// IsGeneralization reports whether the relationship subkind contributes to
// the supertype closure (ancestors walk)
func (r RelKind) IsGeneralization() bool {
	switch r {
	case RelSpecialization, RelSubsetting, RelRedefinition, RelTyping:
		return true
	}
	return false
}

// relKindForHeritage maps heritage clause keywords to relationship subkinds
var relKindForHeritage = map[string]RelKind{
	"specializes": RelSpecialization,
	"subsets":     RelSubsetting,
	"redefines":   RelRedefinition,
	"typing":      RelTyping,
	"conjugates":  RelConjugation,
	"disjoint":    RelDisjoining,
}

// elementKindForRel maps relationship subkinds to element kinds
var elementKindForRel = map[RelKind]ElementKind{
	RelSpecialization: KindSpecialization,
	RelSubsetting:     KindSubsetting,
	RelRedefinition:   KindRedefinition,
	RelTyping:         KindTyping,
	RelConjugation:    KindConjugation,
	RelDisjoining:     KindDisjoining,
	RelFeaturing:      KindFeaturing,
}

// Visibility of a member for scope resolution
type Visibility int

const (
	VisibilityPublic Visibility = iota
	VisibilityProtected
	VisibilityPrivate
)

// ParseVisibility maps a source keyword to a visibility; default is public
func ParseVisibility(s string) Visibility {
	switch s {
	case "private":
		return VisibilityPrivate
	case "protected":
		return VisibilityProtected
	default:
		return VisibilityPublic
	}
}

func (v Visibility) String() string {
	switch v {
	case VisibilityPrivate:
		return "private"
	case VisibilityProtected:
		return "protected"
	default:
		return "public"
	}
}

// MoreRestrictive returns the more restrictive of two visibilities.
// Membership visibility combines with element visibility this way.
func MoreRestrictive(a, b Visibility) Visibility {
	if a > b {
		return a
	}
	return b
}

// Role partitions owned children by syntactic role. Insertion order within a
// role is preserved independently of other roles.
type Role string

const (
	RoleMember       Role = "member"
	RoleImport       Role = "import"
	RoleHeritage     Role = "heritage"
	RoleAnnotation   Role = "annotation"
	RoleValue        Role = "value"
	RoleMultiplicity Role = "multiplicity"
)
