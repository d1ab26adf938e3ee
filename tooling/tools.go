package tooling

import "period-tracker/domain"

// Known style tools. Every tool runs from the source directory.
var knownTools = map[string]domain.Tool{
	"gofmt": {
		Name:         "gofmt",
		Bin:          "gofmt",
		FixArgs:      []string{"-l", "-w", "."},
		CheckArgs:    []string{"-l", "."},
		FailOnOutput: true,
	},
	"goimports": {
		Name:         "goimports",
		Bin:          "goimports",
		FixArgs:      []string{"-l", "-w", "."},
		CheckArgs:    []string{"-l", "."},
		FailOnOutput: true,
	},
	"gofumpt": {
		Name:         "gofumpt",
		Bin:          "gofumpt",
		FixArgs:      []string{"-l", "-w", "."},
		CheckArgs:    []string{"-l", "."},
		FailOnOutput: true,
	},
	"golangci-lint": {
		Name:      "golangci-lint",
		Bin:       "golangci-lint",
		FixArgs:   []string{"run", "--fix", "./..."},
		CheckArgs: []string{"run", "./..."},
	},
	"govet": {
		Name:      "govet",
		Bin:       "go",
		CheckArgs: []string{"vet", "./..."},
	},
}
