// Package fault defines the structured errors raised by the evaluation core.
//
// Every failure in the core is a synchronous precondition violation: none is
// retried and none is downgraded. Callers branch on Code with errors.As or
// the Is* helpers.
package fault

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Code categorizes an evaluation failure.
type Code string

const (
	// CodeStructure indicates entry-name sets differ between two trees.
	CodeStructure Code = "E201"

	// CodeKind indicates an entry's kind disagrees between two trees.
	CodeKind Code = "E202"

	// CodeSupport indicates distributions disagree on their support.
	CodeSupport Code = "E203"

	// CodeAxis indicates plate or elimination axis identities differ.
	CodeAxis Code = "E204"

	// CodeContamination indicates a foreign elimination axis inside an entry.
	CodeContamination Code = "E205"

	// CodeInvariant indicates an internal-consistency failure in the
	// planner or reducer.
	CodeInvariant Code = "E206"

	// CodeMissingEntry indicates an elimination axis without a log-prob entry.
	CodeMissingEntry Code = "E207"

	// CodeShape indicates a malformed tensor.
	CodeShape Code = "E208"
)

var codeNames = map[Code]string{
	CodeStructure:     "STRUCTURE_MISMATCH",
	CodeKind:          "KIND_MISMATCH",
	CodeSupport:       "SUPPORT_MISMATCH",
	CodeAxis:          "AXIS_MISMATCH",
	CodeContamination: "AXIS_CONTAMINATION",
	CodeInvariant:     "INVARIANT",
	CodeMissingEntry:  "MISSING_ENTRY",
	CodeShape:         "SHAPE",
}

// Name returns the symbolic name of the code.
func (c Code) Name() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return "UNKNOWN"
}

// Error is a structured evaluation failure.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Path locates the nesting level, outermost first (e.g. "groups/obs").
	Path string

	// Name is the offending entry name, if any.
	Name string

	// Axis describes the offending axis, if any.
	Axis string

	// OnlyInTarget lists names present only in the target side.
	OnlyInTarget []string

	// OnlyInOther lists names present only in the proposal/data side.
	OnlyInOther []string

	// Details contains additional context.
	Details map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s", e.Code, e.Code.Name(), e.Message)

	var ctx []string
	if e.Path != "" {
		ctx = append(ctx, "path="+e.Path)
	}
	if e.Name != "" {
		ctx = append(ctx, "name="+e.Name)
	}
	if e.Axis != "" {
		ctx = append(ctx, "axis="+e.Axis)
	}
	if len(ctx) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(ctx, ", "))
	}
	return b.String()
}

// CodeOf returns the code of err, or "" if err is not an *Error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) Code {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// IsStructural reports whether err is a name-set or kind mismatch.
func IsStructural(err error) bool {
	c := CodeOf(err)
	return c == CodeStructure || c == CodeKind || c == CodeMissingEntry
}

// IsSupport reports whether err is a support mismatch.
func IsSupport(err error) bool {
	return CodeOf(err) == CodeSupport
}

// IsAxis reports whether err concerns axis identity or contamination.
func IsAxis(err error) bool {
	c := CodeOf(err)
	return c == CodeAxis || c == CodeContamination
}

// IsInvariant reports whether err is an internal-consistency failure.
func IsInvariant(err error) bool {
	return CodeOf(err) == CodeInvariant
}

// NameMismatch reports the symmetric difference of two name sets.
// Returns nil if the sets agree.
func NameMismatch(path string, target, other []string) *Error {
	onlyT := minus(target, other)
	onlyO := minus(other, target)
	if len(onlyT) == 0 && len(onlyO) == 0 {
		return nil
	}
	return &Error{
		Code:         CodeStructure,
		Message:      fmt.Sprintf("entry names differ: %v only in target, %v only in proposal+data", onlyT, onlyO),
		Path:         path,
		OnlyInTarget: onlyT,
		OnlyInOther:  onlyO,
	}
}

// NewExtraNamesError reports names present on the proposal side but absent
// from the target. The target may hold names the proposal lacks, so only
// one direction is checked.
func NewExtraNamesError(path string, names []string) *Error {
	extra := minus(names, nil)
	return &Error{
		Code:        CodeStructure,
		Message:     fmt.Sprintf("entries %v present in proposal but not in target", extra),
		Path:        path,
		OnlyInOther: extra,
	}
}

// NewKindError reports an entry whose kind disagrees between two sides.
func NewKindError(path, name, targetKind, otherKind string) *Error {
	return &Error{
		Code:    CodeKind,
		Message: fmt.Sprintf("entry is %s in target but %s in proposal+data", targetKind, otherKind),
		Path:    path,
		Name:    name,
		Details: map[string]string{"target_kind": targetKind, "other_kind": otherKind},
	}
}

// NewSupportError reports differing supports for a shared name.
func NewSupportError(path, name, targetSupport, proposalSupport string) *Error {
	return &Error{
		Code:    CodeSupport,
		Message: fmt.Sprintf("support differs: target %q, proposal %q", targetSupport, proposalSupport),
		Path:    path,
		Name:    name,
		Details: map[string]string{"target_support": targetSupport, "proposal_support": proposalSupport},
	}
}

// NewAxisError reports an axis identity mismatch.
func NewAxisError(name, axis, message string) *Error {
	return &Error{Code: CodeAxis, Message: message, Name: name, Axis: axis}
}

// NewContaminationError reports a foreign elimination axis in an entry.
func NewContaminationError(name, axis string) *Error {
	return &Error{
		Code:    CodeContamination,
		Message: "entry carries an elimination axis owned by another entry",
		Name:    name,
		Axis:    axis,
	}
}

// NewInvariantError reports an internal-consistency failure.
func NewInvariantError(format string, args ...any) *Error {
	return &Error{Code: CodeInvariant, Message: fmt.Sprintf(format, args...)}
}

// NewMissingEntryError reports an elimination axis declared for a name
// that has no log-prob entry.
func NewMissingEntryError(name string) *Error {
	return &Error{
		Code:    CodeMissingEntry,
		Message: "elimination axis declared for a name with no log-prob entry",
		Name:    name,
	}
}

// NewShapeError reports a malformed tensor.
func NewShapeError(format string, args ...any) *Error {
	return &Error{Code: CodeShape, Message: fmt.Sprintf(format, args...)}
}

// JoinPath appends name to a slash-separated nesting path.
func JoinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "/" + name
}

// minus returns the sorted, de-duplicated names of a that are not in b.
func minus(a, b []string) []string {
	in := make(map[string]struct{}, len(b))
	for _, s := range b {
		in[s] = struct{}{}
	}
	set := make(map[string]struct{})
	for _, s := range a {
		if _, ok := in[s]; !ok {
			set[s] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
