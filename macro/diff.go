package macro

import "github.com/pmezard/go-difflib/difflib"

// Unified renders a unified diff between a file's current contents and
// its generated replacement.
func Unified(path string, before, after []byte) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: path,
		ToFile:   path + " (generated)",
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(diff)
}
