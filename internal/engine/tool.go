package engine

import "fmt"

// Tool is the active input tool. ToolNone disables pointer handling.
type Tool int

const (
	ToolNone Tool = iota
	ToolPencil
	ToolHighlighter
	ToolEraser
	ToolShape
	ToolText
	ToolLasso
	ToolPan
	ToolLaser
)

var toolNames = map[Tool]string{
	ToolNone:        "none",
	ToolPencil:      "pencil",
	ToolHighlighter: "highlighter",
	ToolEraser:      "eraser",
	ToolShape:       "shape",
	ToolText:        "text",
	ToolLasso:       "lasso",
	ToolPan:         "pan",
	ToolLaser:       "laser",
}

func (t Tool) String() string {
	if name, ok := toolNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tool(%d)", int(t))
}

// ParseTool maps a tool name to a Tool.
func ParseTool(name string) (Tool, error) {
	for t, n := range toolNames {
		if n == name {
			return t, nil
		}
	}
	return ToolNone, fmt.Errorf("unknown tool %q", name)
}

// inks reports whether the tool lays down a stroke.
func (t Tool) inks() bool {
	return t == ToolPencil || t == ToolHighlighter || t == ToolShape
}
