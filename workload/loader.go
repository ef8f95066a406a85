package workload

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadConversationNodes reads a JSON array of ConversationNode from path.
// Grounded on original_source's load_local_dataset helper (utils.py),
// which reads a pre-extracted local copy of a dataset rather than
// fetching one live — there is no Go equivalent of the HF `datasets`
// library in the retrieval pack, so this package takes the same
// already-extracted-to-disk shape the original falls back to.
func LoadConversationNodes(path string) ([]ConversationNode, error) {
	var nodes []ConversationNode
	if err := loadJSON(path, &nodes); err != nil {
		return nil, fmt.Errorf("workload: loading conversation nodes: %w", err)
	}
	return nodes, nil
}

// LoadInstructionRecords reads a JSON array of InstructionRecord from path.
func LoadInstructionRecords(path string) ([]InstructionRecord, error) {
	var records []InstructionRecord
	if err := loadJSON(path, &records); err != nil {
		return nil, fmt.Errorf("workload: loading instruction records: %w", err)
	}
	return records, nil
}

func loadJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
