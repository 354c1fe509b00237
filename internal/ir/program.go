package ir

// Program is a finished circuit handed to lowering and to diagnostic viewers.
//
// The graph and the debug correlation travel together so a viewer can render
// nodes annotated with source locations after the compiling process exits.
type Program struct {
	ID          string     `json:"id"` // UUIDv7, assigned by the compiler
	Name        string     `json:"name"`
	DataType    string     `json:"data_type"` // Logical type of the circuit values
	Params      Params     `json:"params"`
	Graph       Graph      `json:"graph"`
	Debug       *DebugInfo `json:"debug,omitempty"`
	ContentHash string     `json:"content_hash"` // See ProgramHash
	IRVersion   string     `json:"ir_version"`
}

// Inputs returns the ids of all input nodes in creation order.
func (p *Program) Inputs() []NodeID {
	var ids []NodeID
	for _, n := range p.Graph.Nodes {
		if n.Operation.IsInput() {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// Outputs returns the ids of all output nodes in creation order.
func (p *Program) Outputs() []NodeID {
	return p.Graph.NodesWith(OpOutput)
}
