// Package lexicon holds the closed vocabularies recognised in chat reports.
//
// Every table is written in the folded form produced by the sanitizer
// (lowercase ASCII, diacritics removed), in both Portuguese and English.
// Order is significant: extractors honour the declared order for priority
// and for leftmost-first alternation.
package lexicon

import "wbtracker/internal/domain"

// Synonym maps one spelling to its canonical value.
type Synonym[T any] struct {
	Term  string
	Value T
}

// Locations maps every accepted permutation to its canonical code.
var Locations = []Synonym[domain.Location]{
	// Dark Warriors' Fortress
	{"dwf", domain.LocationDWF},
	{"dfw", domain.LocationDWF},
	{"wdf", domain.LocationDWF},
	{"wfd", domain.LocationDWF},
	{"fdw", domain.LocationDWF},
	{"fwd", domain.LocationDWF},
	// East Lava Maze
	{"elm", domain.LocationELM},
	{"eml", domain.LocationELM},
	{"lem", domain.LocationELM},
	{"lme", domain.LocationELM},
	{"mel", domain.LocationELM},
	{"mle", domain.LocationELM},
	// Red Dragon Isle
	{"rdi", domain.LocationRDI},
	{"rid", domain.LocationRDI},
	{"dir", domain.LocationRDI},
	{"dri", domain.LocationRDI},
	{"ird", domain.LocationRDI},
	{"idr", domain.LocationRDI},
}

// StatusGroup is one status category with its phrases.
type StatusGroup struct {
	Status  domain.Status
	Phrases []string
}

// Statuses are listed in extraction priority order.
var Statuses = []StatusGroup{
	{domain.StatusBeamActive, []string{
		"beam ativa",
		"beam de pe",
		"beam on",
		"fazer a beam",
		"fazer beam",
	}},
	{domain.StatusBeamed, []string{
		"beamed",
		"beamd",
		"beam feita",
		"fizemos a beam",
		"fizemos beam",
		"fiz a beam",
		"fiz beam",
	}},
	{domain.StatusBroken, []string{
		"quebrado",
		"quebrad",
		"broken",
		"broke",
		"break",
		"breaked",
		"breakd",
		"quebrou",
		"quebrada",
		"quebrei",
		"quebramos",
	}},
	{domain.StatusEmpty, []string{"empty", "empt", "emp"}},
	{domain.StatusDown, []string{"caiu", "cai", "acabou", "acabo", "over", "down"}},
}

// StatusPhrases flattens Statuses preserving order.
func StatusPhrases() []string {
	var out []string
	for _, g := range Statuses {
		out = append(out, g.Phrases...)
	}
	return out
}

// ResourceGroup is one supply category with its synonyms.
type ResourceGroup struct {
	Resource domain.Resource
	Terms    []string
}

var ResourceTerms = []ResourceGroup{
	{domain.ResourceConstruction, []string{"c", "cons", "construct", "construction", "construcao"}},
	{domain.ResourceFarming, []string{"f", "farm", "farming", "agricultura"}},
	{domain.ResourceHerblore, []string{"h", "herb", "herblore", "herbologia"}},
	{domain.ResourceSmithing, []string{"s", "smith", "smithing", "metalurgia"}},
	{domain.ResourceMining, []string{"m", "mine", "mining", "mineracao"}},
}

// ResourceLetters are the single letters allowed in a resource cluster.
const ResourceLetters = "cfhsm"

var Hostility = []string{"pk", "pks", "pker", "pkers", "sapk", "pkfc"}

var Alliance = []string{
	"alianca",
	"ally",
	"aly",
	"allied",
	"aliado",
	"aliada",
	"wbu",
	"kpk",
}

// validWorlds is the closed whitelist of game worlds.
var validWorlds = map[int]struct{}{}

func init() {
	for _, w := range []int{
		1, 2, 4, 5, 6, 9, 10, 12, 14, 15, 16, 18, 21, 22, 23, 24, 25, 26, 27, 28, 30,
		31, 32, 35, 36, 37, 39, 40, 42, 44, 45, 46, 48, 49, 50, 51, 52, 53, 54, 56,
		58, 59, 60, 62, 63, 64, 65, 66, 67, 68, 69, 70, 71, 72, 73, 74, 76, 77, 78,
		79, 82, 83, 84, 85, 86, 87, 88, 89, 91, 92, 96, 98, 99, 100, 103, 104, 105,
		106, 114, 115, 116, 117, 119, 123, 124, 134, 137, 138, 139, 140, 252, 257,
		258, 259,
	} {
		validWorlds[w] = struct{}{}
	}
}

// ValidWorld reports whether w is a real game world.
func ValidWorld(w int) bool {
	_, ok := validWorlds[w]
	return ok
}
