package analyzer

import errorsv1 "gopkg.in/src-d/go-errors.v1"

// KindIncludeCycle fires when an Include statement's canonical path is
// already on the current include stack.
var KindIncludeCycle = errorsv1.NewKind("include cycle detected at %q")
