package jack

import (
	_ "embed"
	"encoding/json"
)

//go:embed stdlib.json
var content string

// StandardLibraryABI holds the signatures of the nand2tetris OS classes (Math, String,
// Array, Output, Screen, Keyboard, Memory, Sys) keyed by class name then by subroutine
// name. No statement bodies are shipped: the only thing the lowering pass needs from an
// OS call is its SubroutineType (function/method/constructor), so that call sites compile
// correctly without the caller having to provide the OS source alongside their own classes.
var StandardLibraryABI = map[string]map[string]Subroutine{}

func init() {
	if err := json.Unmarshal([]byte(content), &StandardLibraryABI); err != nil {
		panic("jack: malformed embedded stdlib.json: " + err.Error())
	}
}
