// Package identifykind classifies a frozen source tree as a library or
// an executable by inspecting its build manifest, the Go-domain
// successor to the original Cargo/CMake-sniffing tool.
package identifykind

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jra3/harvest/internal/frozenfs"
	"github.com/jra3/harvest/internal/id"
	"github.com/jra3/harvest/internal/ir"
	"github.com/jra3/harvest/internal/tool"
	"github.com/jra3/harvest/internal/tools/loadsource"
)

// Kind is the classification IdentifyKind produces.
type Kind int

const (
	// KindLibrary has a root go.mod and no root main.go declaring
	// package main.
	KindLibrary Kind = iota
	// KindExecutable has a root main.go with a "package main" line;
	// whether it defines func main is not checked.
	KindExecutable
)

func (k Kind) String() string {
	switch k {
	case KindExecutable:
		return "Executable"
	default:
		return "Library"
	}
}

// ProjectKind is the Representation IdentifyKind produces.
type ProjectKind struct {
	Kind Kind
}

func (ProjectKind) Name() string { return "kind_and_name" }

func (p ProjectKind) String() string { return p.Kind.String() }

func (ProjectKind) Materialize(path string) error { return nil }

// IdentifyKind is the Tool that inspects a RawSource's go.mod / main
// package layout to determine ProjectKind.
type IdentifyKind struct{}

// New constructs an IdentifyKind tool.
func New() *IdentifyKind {
	return &IdentifyKind{}
}

func (*IdentifyKind) Name() string { return "identify_kind" }

// ErrNoProjectKind is returned when the build manifest doesn't give
// enough information to classify the project.
var ErrNoProjectKind = errors.New("identifykind: could not determine project kind")

func (*IdentifyKind) Run(ctx tool.RunContext, inputs []id.Id) (ir.Representation, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("identifykind: expected exactly 1 input, got %d", len(inputs))
	}
	raw, ok := ir.Get[loadsource.RawSource](ctx.IRSnapshot, inputs[0])
	if !ok {
		return nil, errors.New("identifykind: no RawSource representation found in IR for declared input")
	}

	entry, ok := raw.Dir().GetEntry("main.go")
	if ok {
		if file, ok := frozenfs.AsFile(entry); ok {
			data, err := file.Bytes()
			if err != nil {
				return nil, fmt.Errorf("read main.go: %w", err)
			}
			for _, line := range strings.Split(string(data), "\n") {
				if strings.HasPrefix(strings.TrimSpace(line), "package main") {
					ctx.Reporter.Logf("found package main in main.go")
					return ProjectKind{Kind: KindExecutable}, nil
				}
			}
		}
	}

	if _, ok := raw.Dir().GetEntry("go.mod"); ok {
		ctx.Reporter.Logf("found go.mod with no package main at root: classifying as library")
		return ProjectKind{Kind: KindLibrary}, nil
	}

	return nil, ErrNoProjectKind
}
