// Package prompt builds the text sent to the inference service.
package prompt

// Modifier clauses appended by Compose, in application order.
const (
	CodeOnlyClause       = " and only generate the code in the output"
	VerboseCommentClause = " and annotate the code with verbose and explanative comments"
	ConciseCommentClause = " and annotate the code with concise but explanative comments"
)

// Modifiers is the fixed set of boolean switches that alter a prompt.
// Verbose only has an effect together with CommentCode.
type Modifiers struct {
	CodeOnly    bool
	CommentCode bool
	Verbose     bool
}

// Compose appends the clauses selected by mods to base. The order is fixed:
// the code-only clause first, then the comment clause. With no modifiers set
// base is returned unchanged.
func Compose(base string, mods Modifiers) string {
	if mods.CodeOnly {
		base += CodeOnlyClause
	}
	return base + commentClause(mods)
}

func commentClause(mods Modifiers) string {
	if !mods.CommentCode {
		return ""
	}
	if mods.Verbose {
		return VerboseCommentClause
	}
	return ConciseCommentClause
}
