package frozenfs

import "strings"

// componentKind classifies a single path component the way the original
// path-component walk distinguishes Normal from CurDir/ParentDir/RootDir.
type componentKind int

const (
	componentNormal componentKind = iota
	componentCurDir
	componentParentDir
)

func classifyComponent(c string) componentKind {
	switch c {
	case ".":
		return componentCurDir
	case "..":
		return componentParentDir
	default:
		return componentNormal
	}
}

// splitPathComponents splits a slash-separated path into its non-empty
// components and reports whether the path had a leading "/".
func splitPathComponents(p string) (components []string, absolute bool) {
	absolute = strings.HasPrefix(p, "/")
	trimmed := strings.TrimPrefix(p, "/")
	if trimmed == "" {
		return nil, absolute
	}
	parts := strings.Split(trimmed, "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	return out, absolute
}

// freezeComponents validates a path for Freezer.Freeze: every component
// must be an ordinary name (no absolute prefix, no "." or "..", no empty
// segment from a doubled slash).
func freezeComponents(p string) ([]string, error) {
	if p == "" {
		return nil, ErrInvalidInput
	}
	if strings.HasPrefix(p, "/") {
		return nil, ErrInvalidInput
	}
	parts := strings.Split(p, "/")
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return nil, ErrInvalidInput
		}
	}
	return parts, nil
}
