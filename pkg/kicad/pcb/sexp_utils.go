package pcb

import (
	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/sexp"
	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/sexp/kicadsexp"
)

// Local shorthands for the shared S-expression helpers

var (
	findNode      = sexp.FindNode
	findAllNodes  = sexp.FindAllNodes
	getListItems  = sexp.GetListItems
	getString     = sexp.GetString
	getFloat      = sexp.GetFloat
	getInt        = sexp.GetInt
	getNodeName   = sexp.GetNodeName
	getPosition   = sexp.GetPosition
	getPositionXY = sexp.GetPositionXY
	getTriplet    = sexp.GetTriplet
	hasSymbol     = sexp.HasSymbol
	nodeLine      = sexp.NodeLine
)

// childCount returns the number of elements of a list node
func childCount(s kicadsexp.Sexp) int {
	return len(sexp.SexpToSlice(s))
}

// parseLayer reads (layer NAME); NAME may be a symbol or a quoted string
func parseLayer(node kicadsexp.Sexp) (Layer, error) {
	name, err := getString(node, 1)
	if err != nil {
		return LayerNone, malformed("layer cannot be parsed: %v", err)
	}
	return ParseLayerName(name), nil
}
