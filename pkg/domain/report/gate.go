package report

import (
	"iter"

	"github.com/incidenthq/api/pkg/domain/rbac"
)

// VisibleComments filters a comment list by the principal's visibility,
// preserving order. The returned sequence is lazy and restartable: it
// holds no state between iterations and may be materialized any number
// of times. Filtering an already-filtered list removes nothing further.
func VisibleComments(p rbac.Principal, r *Report, comments []*Comment) iter.Seq[*Comment] {
	return func(yield func(*Comment) bool) {
		for _, c := range comments {
			if !CanReadComment(p, r, c) {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}

// CollectVisibleComments materializes VisibleComments into a slice.
func CollectVisibleComments(p rbac.Principal, r *Report, comments []*Comment) []*Comment {
	out := make([]*Comment, 0, len(comments))
	for c := range VisibleComments(p, r, comments) {
		out = append(out, c)
	}
	return out
}
