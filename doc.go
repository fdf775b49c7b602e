// Package depends adds request-scoped dependency injection to existing Go
// routers. Handlers declare what they need through the types of their
// parameters; small producer functions supply those values, producers can
// depend on other producers, and each producer runs at most once per request.
//
// # Overview
//
// depends is not a container. There is nothing to register up front other
// than the routes themselves. The library provides:
//   - Provider descriptors (Depends[T]) that point at a producer function
//   - Parameter annotations through the Annotated interface
//   - Nested producers resolved depth-first
//   - A per-request cache, so shared producers run once per request
//   - An override table per router, for swapping producers in tests
//   - Adapters for chi, net/http, gin, echo and fiber
//
// # Descriptors and Annotated Types
//
// A descriptor says how to produce a value. A parameter type points at its
// descriptor by implementing Annotated:
//
//	type DB struct{ *sql.DB }
//
//	var DBDep = depends.On[DB](openDB)
//
//	func (DB) Dependency() depends.Descriptor { return DBDep }
//
//	type CurrentUser struct{ *User }
//
//	var CurrentUserDep = depends.On[CurrentUser](loadUser)
//
//	func (CurrentUser) Dependency() depends.Descriptor { return CurrentUserDep }
//
//	func loadUser(db DB, r *http.Request) (CurrentUser, error) { ... }
//
// Descriptors can be declared first and bound later, which breaks import
// cycles between packages:
//
//	var CacheDep = depends.Declare[Cache]()
//
//	func init() { CacheDep.Bind(newRedisCache) }
//
// # Handlers
//
// Pass plain functions to the adapter's registration methods. Parameters of
// an annotated type are injected, parameters of a type the router supplies
// (http.ResponseWriter, *http.Request, context.Context, *gin.Context, ...)
// receive the request values:
//
//	r := chi.NewRouter()
//	r.Get("/me", func(w http.ResponseWriter, user CurrentUser) {
//	    json.NewEncoder(w).Encode(user)
//	})
//
// Any other parameter type is rejected when the route is registered.
//
// # Parameter Objects (In)
//
// For handlers with many dependencies, use a struct with embedded depends.In:
//
//	type Params struct {
//	    depends.In
//
//	    DB    DB
//	    User  CurrentUser
//	    Flags Flags `depends:"optional"`
//	}
//
// # Per-request Cache
//
// Within one request a producer runs once, however many parameters and
// nested producers reach it. The cache lives in a Scope that the adapter
// creates per request and closes when the request ends. Producers may return
// a cleanup function, which runs when the scope closes:
//
//	func openTx(db DB) (Tx, func() error, error)
//
// # Overrides
//
// Each router owns an override table:
//
//	router.Overrides().Set(loadUser, func() CurrentUser { return testUser })
//
// Overrides are looked up once: a replacement that is itself overridden
// is not followed.
//
// # Validation
//
// Injector.Validate walks every registered handler and reports unbound
// descriptors, invalid producers and cycles before the first request.
//
// # Error Handling
//
// Errors returned by producers and handlers are passed through unmodified
// to the router's error path. depends has its own error types for the
// problems it detects:
//   - ParameterError: a parameter cannot be injected nor supplied
//   - SignatureError: a handler or producer has an unsupported shape
//   - UnboundProducerError: a descriptor was resolved before Bind
//   - TypeMismatchError: a producer result does not fit its descriptor
//   - CircularDependencyError: a producer depends on itself
//   - DisposalError: cleanups failed when a scope closed
package depends
