package depends

import (
	"github.com/junioryono/depends/internal/reflection"
)

// In marks a struct as a parameter object. A handler or producer taking a
// single struct with embedded In gets every exported field filled
// individually: annotated fields are resolved, fields of a host-supplied
// type receive the host value.
//
// Supported field tags:
//   - `depends:"-"` - the field is left alone
//   - `depends:"optional"` - the field keeps its zero value when its
//     descriptor has no producer bound
//
// Example:
//
//	type ProfileParams struct {
//	    depends.In
//
//	    User    CurrentUser
//	    Flags   FeatureFlags `depends:"optional"`
//	    Request *http.Request
//	}
//
//	func showProfile(w http.ResponseWriter, p ProfileParams) { ... }
//
// The In struct must be embedded anonymously:
//
//	type ProfileParams struct {
//	    depends.In  // ✓ Correct - anonymous embedding
//	    // ...
//	}
//
//	type ProfileParams struct {
//	    In depends.In  // ✗ Wrong - named field
//	    // ...
//	}
type In = reflection.In
