package vis

import "strings"

// Faction palette. CV and PCC get fixed colors so operators can read a mixed
// graph at a glance; role nodes are yellow, everything else neutral gray.
const (
	ColorCV      = "#d32f2f"
	ColorPCC     = "#0d47a1"
	ColorFuncao  = "#fdd835"
	ColorDefault = "#607d8b"
)

var edgeColors = map[string]string{
	"PERTENCE_A":       "#9e9e9e",
	"EXERCE":           ColorFuncao,
	"FUNCAO_DA_FACCAO": ColorFuncao,
	"CO_FACCAO":        "#aa9424",
	"CO_FUNCAO":        "#546e7a",
}

const edgeColorDefault = "#b0bec5"

// ColorForNode resolves the display color from the node's type and label.
// Spelling of type values varies across database revisions ("faccao",
// "facção", "funcao", "função"), so matching is substring-based.
func ColorForNode(nodeType, label string) string {
	t := strings.ToLower(nodeType)
	l := strings.ToUpper(label)

	if strings.Contains(t, "func") {
		return ColorFuncao
	}
	if strings.Contains(t, "facc") {
		if strings.Contains(l, "CV") {
			return ColorCV
		}
		if strings.Contains(l, "PCC") {
			return ColorPCC
		}
	}
	if strings.Contains(l, "CV") {
		return ColorCV
	}
	if strings.Contains(l, "PCC") {
		return ColorPCC
	}
	return ColorDefault
}

// ColorForEdge picks the edge color: faction membership wins over the
// relation palette, role relations stay yellow regardless.
func ColorForEdge(relation, sourceLabel, targetLabel string) string {
	color, ok := edgeColors[relation]
	if !ok {
		color = edgeColorDefault
	}

	a := strings.ToUpper(sourceLabel)
	b := strings.ToUpper(targetLabel)
	if strings.Contains(a, "CV") || strings.Contains(b, "CV") {
		color = ColorCV
	} else if strings.Contains(a, "PCC") || strings.Contains(b, "PCC") {
		color = ColorPCC
	}

	if relation == "EXERCE" || relation == "FUNCAO_DA_FACCAO" {
		color = ColorFuncao
	}
	return color
}
