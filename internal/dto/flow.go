package dto

// Flow is the decoded form of a flow file.
// It uses "mapstructure" tags so YAML and JSON documents decode through the same path.
type Flow struct {
	Name     string            `mapstructure:"name"`
	Entry    string            `mapstructure:"entry" validate:"required"`
	Personas map[string]string `mapstructure:"personas"`
	Options  FlowOptions       `mapstructure:"options"`
	Nodes    []FlowNode        `mapstructure:"nodes" validate:"required,min=1,dive"`
	Edges    []FlowEdge        `mapstructure:"edges" validate:"dive"`
	Routes   []FlowRoute       `mapstructure:"routes" validate:"dive"`
}

type FlowOptions struct {
	DiacriticFolding bool `mapstructure:"diacritic_folding"`
}

// FlowNode is a stage voiced by the reply generator.
// Reply, when set, is returned verbatim and the generator is not called.
type FlowNode struct {
	Name    string `mapstructure:"name" validate:"required"`
	Persona string `mapstructure:"persona"`
	Prompt  string `mapstructure:"prompt" validate:"required_without=Reply"`
	Reply   string `mapstructure:"reply"`
}

type FlowEdge struct {
	From string `mapstructure:"from" validate:"required"`
	To   string `mapstructure:"to" validate:"required"`
}

// FlowRoute is a keyword-routed conditional edge.
type FlowRoute struct {
	From    string     `mapstructure:"from" validate:"required"`
	Default string     `mapstructure:"default" validate:"required"`
	Rules   []FlowRule `mapstructure:"rules" validate:"dive"`
}

type FlowRule struct {
	Match string `mapstructure:"match" validate:"required"`
	To    string `mapstructure:"to" validate:"required"`
}
