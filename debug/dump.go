package debug

import (
	jsoniter "github.com/json-iterator/go"

	"wisp/chunk"
	"wisp/value"
)

// chunkDump is the JSON-friendly shape of a compiled chunk, used by the CLI's
// -json flag as an alternative to the text disassembly.
type chunkDump struct {
	Name      string         `json:"name"`
	Code      []byte         `json:"code"`
	Lines     []int          `json:"lines"`
	Constants []constantDump `json:"constants"`
}

type constantDump struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

func kindName(k value.Kind) string {
	switch k {
	case value.KindNil:
		return "nil"
	case value.KindBool:
		return "bool"
	case value.KindNumber:
		return "number"
	default:
		return "obj"
	}
}

// DumpJSON marshals name's chunk into its JSON representation using
// json-iterator's standard-library-compatible configuration.
func DumpJSON(c *chunk.Chunk, name string) ([]byte, error) {
	dump := chunkDump{Name: name, Code: c.Code, Lines: c.Lines}
	for _, v := range c.Constants {
		dump.Constants = append(dump.Constants, constantDump{Kind: kindName(v.Kind()), Value: v.String()})
	}
	return jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(dump, "", "  ")
}
