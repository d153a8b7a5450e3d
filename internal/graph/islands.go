package graph

import "strings"

// Island is the static metadata of one spatial group.
type Island struct {
	Symbol string
	Name   string
	AKA    string
	Suffix string
	// Icon is relative to the browsing application's static root.
	Icon string
}

var islands = map[string]Island{
	"A": {Symbol: "A", Name: "Always Loaded", Icon: "all_icon.png"},
	"B": {Symbol: "B", Name: "Boiler", AKA: "Book Assembly", Suffix: "Island", Icon: "boiler_icon.png"},
	"G": {Symbol: "G", Name: "Garden", AKA: "Survey", Suffix: "Island", Icon: "garden_icon.png"},
	"J": {Symbol: "J", Name: "Jungle", Suffix: "Island", Icon: "jungle_icon.png"},
	"K": {Symbol: "K", Name: "K'veer", Suffix: "Age", Icon: "kveer_icon.png"},
	"O": {Symbol: "O", Name: "Gehn's Office", AKA: "233", Suffix: "Age", Icon: "233_icon.png"},
	"P": {Symbol: "P", Name: "Prison", Suffix: "Island", Icon: "prison_icon.png"},
	"R": {Symbol: "R", Name: "Rebel", AKA: "Tay", Suffix: "Island", Icon: "rebel_icon.png"},
	"T": {Symbol: "T", Name: "Temple", Suffix: "Island", Icon: "temple_icon.png"},
}

// LookupIsland returns the reference metadata for symbol. Unknown symbols
// yield an entry named after the symbol and ok=false.
func LookupIsland(symbol string) (Island, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	island, ok := islands[symbol]
	if !ok {
		return Island{Symbol: symbol, Name: symbol}, false
	}
	if island.Icon != "" {
		island.Icon = "images/" + island.Icon
	}
	return island, true
}

// Title renders the display title, e.g. "(B) Boiler (AKA Book Assembly) Island".
func (i Island) Title() string {
	title := "(" + i.Symbol + ") " + i.Name
	if i.AKA != "" {
		title += " (AKA " + i.AKA + ")"
	}
	if i.Suffix != "" {
		title += " " + i.Suffix
	}
	return title
}
