package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

// hclScenario is the HCL form of a scenario:
//
//	name        = "Corridor"
//	description = "One crate in a corridor"
//	layout      = ["######", "#@.O.#", "######"]
//	moves       = ">>>"
//
//	messages {
//	  welcome = "Push the crate to the end."
//	}
type hclScenario struct {
	Name        string       `hcl:"name"`
	Description string       `hcl:"description"`
	Layout      []string     `hcl:"layout"`
	Moves       string       `hcl:"moves,optional"`
	Wide        bool         `hcl:"wide,optional"`
	Messages    *hclMessages `hcl:"messages,block"`
}

type hclMessages struct {
	Welcome    string `hcl:"welcome"`
	Moved      string `hcl:"moved,optional"`
	Blocked    string `hcl:"blocked,optional"`
	ScriptDone string `hcl:"script_done,optional"`
}

// decodeHCLFile parses and decodes a single HCL scenario file
func decodeHCLFile(path string) (*engine.ScenarioConfig, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %s", path, diags.Error())
	}

	var s hclScenario
	diags = gohcl.DecodeBody(file.Body, nil, &s)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %s", path, diags.Error())
	}

	config := &engine.ScenarioConfig{
		Name:        s.Name,
		Description: s.Description,
		Layout:      s.Layout,
		Moves:       s.Moves,
		Wide:        s.Wide,
	}
	if s.Messages != nil {
		config.Messages = engine.ScenarioMessages{
			Welcome:    s.Messages.Welcome,
			Moved:      s.Messages.Moved,
			Blocked:    s.Messages.Blocked,
			ScriptDone: s.Messages.ScriptDone,
		}
	}
	return config, nil
}
