package board

import (
	"fmt"
	"math"
	"sort"

	"github.com/inkboard/inkboard/client-go/internal/typeid"
)

// TemplateFunc generates a fresh set of elements. Every box it creates
// shares one group id so the set can be dragged together.
type TemplateFunc func() []Element

var templates = map[string]TemplateFunc{
	"kanban":    Kanban,
	"flowchart": Flowchart,
	"mindmap":   MindMap,
	"swot":      SWOT,
	"retro":     Retro,
}

// TemplateNames lists the available templates in sorted order.
func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Template generates the named template.
func Template(name string) ([]Element, error) {
	gen, ok := templates[name]
	if !ok {
		return nil, fmt.Errorf("unknown template %q", name)
	}
	return gen(), nil
}

func box(group string, x, y, w, h float64, text string) Element {
	return Element{
		ID:      typeid.NewElementID(),
		Type:    ElementBox,
		X:       x,
		Y:       y,
		Width:   w,
		Height:  h,
		Text:    text,
		GroupID: group,
	}
}

func arrow(group, from, to string) Element {
	return Element{
		ID:      typeid.NewElementID(),
		Type:    ElementArrow,
		From:    from,
		To:      to,
		GroupID: group,
	}
}

// Kanban lays out To-Do, In Progress and Done columns with three card
// slots each.
func Kanban() []Element {
	group := typeid.NewGroupID()
	var elems []Element
	for i, col := range []string{"To-Do", "In Progress", "Done"} {
		fi := float64(i)
		elems = append(elems, box(group, 100+fi*280, 80, 240, 50, col))
		for j := range 3 {
			elems = append(elems, box(group, 110+fi*280, 150+float64(j)*80, 220, 60, fmt.Sprintf("Task %d", j+1)))
		}
	}
	return elems
}

func Flowchart() []Element {
	group := typeid.NewGroupID()
	start := box(group, 350, 50, 140, 50, "Start")
	process := box(group, 350, 150, 140, 50, "Process A")
	decision := box(group, 350, 260, 140, 50, "Condition?")
	yes := box(group, 180, 370, 140, 50, "Path A")
	no := box(group, 520, 370, 140, 50, "Path B")
	end := box(group, 350, 470, 140, 50, "End")

	return []Element{
		start, process, decision, yes, no, end,
		arrow(group, start.ID, process.ID),
		arrow(group, process.ID, decision.ID),
		arrow(group, decision.ID, yes.ID),
		arrow(group, decision.ID, no.ID),
		arrow(group, yes.ID, end.ID),
		arrow(group, no.ID, end.ID),
	}
}

// MindMap places five branches on a circle of radius 200 around a central
// idea, each connected by an arrow.
func MindMap() []Element {
	const cx, cy, r = 400.0, 280.0, 200.0

	group := typeid.NewGroupID()
	center := box(group, cx-80, cy-30, 160, 60, "Main Idea")
	elems := []Element{center}

	branches := []string{"Idea A", "Idea B", "Idea C", "Idea D", "Idea E"}
	for i, text := range branches {
		angle := float64(i)/float64(len(branches))*math.Pi*2 - math.Pi/2
		b := box(group, cx+r*math.Cos(angle)-65, cy+r*math.Sin(angle)-25, 130, 50, text)
		elems = append(elems, b, arrow(group, center.ID, b.ID))
	}
	return elems
}

func SWOT() []Element {
	group := typeid.NewGroupID()
	var elems []Element
	for i, label := range []string{"Strengths", "Weaknesses", "Opportunities", "Threats"} {
		row, col := float64(i/2), float64(i%2)
		elems = append(elems, box(group, 150+col*300, 100+row*220, 260, 180, label))
	}
	return elems
}

func Retro() []Element {
	group := typeid.NewGroupID()
	var elems []Element
	for i, col := range []string{"Went Well", "Improve", "Action Items"} {
		fi := float64(i)
		elems = append(elems, box(group, 80+fi*280, 60, 240, 50, col))
		for j := range 4 {
			elems = append(elems, box(group, 90+fi*280, 130+float64(j)*80, 220, 60, ""))
		}
	}
	return elems
}
