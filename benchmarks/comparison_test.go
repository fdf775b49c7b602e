// Package benchmarks compares per-request resolution in depends with the
// container libraries dig and do.
//
// Run benchmarks with: go test -bench=. -benchmem ./benchmarks/
package benchmarks

import (
	"context"
	"testing"

	"github.com/junioryono/depends"
	"github.com/samber/do/v2"
	"go.uber.org/dig"
)

// =============================================================================
// Shared Test Types
// =============================================================================

// Simple service with no dependencies
type Logger struct {
	Name string
}

func NewLogger() *Logger {
	return &Logger{Name: "logger"}
}

type Config struct {
	Value string
}

func NewConfig() *Config {
	return &Config{Value: "config"}
}

// Service with 2 dependencies
type Database struct {
	Logger *Logger
	Config *Config
}

func NewDatabase(logger *Logger, config *Config) *Database {
	return &Database{Logger: logger, Config: config}
}

// Service with 3 dependencies
type Cache struct {
	Logger   *Logger
	Config   *Config
	Database *Database
}

func NewCache(logger *Logger, config *Config, db *Database) *Cache {
	return &Cache{Logger: logger, Config: config, Database: db}
}

type Dep5 struct {
	Value int
}

func NewDep5() *Dep5 {
	return &Dep5{Value: 5}
}

// Service with 5 dependencies (complex)
type UserService struct {
	Logger   *Logger
	Config   *Config
	Database *Database
	Cache    *Cache
	Dep5     *Dep5
}

func NewUserService(logger *Logger, config *Config, db *Database, cache *Cache, dep5 *Dep5) *UserService {
	return &UserService{Logger: logger, Config: config, Database: db, Cache: cache, Dep5: dep5}
}

// Descriptors for depends. The constructors above are the producers.
var (
	loggerDep      = depends.On[*Logger](NewLogger)
	configDep      = depends.On[*Config](NewConfig)
	databaseDep    = depends.On[*Database](NewDatabase)
	cacheDep       = depends.On[*Cache](NewCache)
	dep5Dep        = depends.On[*Dep5](NewDep5)
	userServiceDep = depends.On[*UserService](NewUserService)
)

func (Logger) Dependency() depends.Descriptor      { return loggerDep }
func (Config) Dependency() depends.Descriptor      { return configDep }
func (Database) Dependency() depends.Descriptor    { return databaseDep }
func (Cache) Dependency() depends.Descriptor       { return cacheDep }
func (Dep5) Dependency() depends.Descriptor        { return dep5Dep }
func (UserService) Dependency() depends.Descriptor { return userServiceDep }

func newDig() *dig.Container {
	c := dig.New()
	c.Provide(NewLogger)
	c.Provide(NewConfig)
	c.Provide(NewDatabase)
	c.Provide(NewCache)
	c.Provide(NewDep5)
	c.Provide(NewUserService)
	return c
}

func newDo() *do.RootScope {
	injector := do.New()
	do.Provide(injector, func(i do.Injector) (*Logger, error) { return NewLogger(), nil })
	do.Provide(injector, func(i do.Injector) (*Config, error) { return NewConfig(), nil })
	do.Provide(injector, func(i do.Injector) (*Database, error) {
		logger := do.MustInvoke[*Logger](i)
		config := do.MustInvoke[*Config](i)
		return NewDatabase(logger, config), nil
	})
	do.Provide(injector, func(i do.Injector) (*Cache, error) {
		logger := do.MustInvoke[*Logger](i)
		config := do.MustInvoke[*Config](i)
		db := do.MustInvoke[*Database](i)
		return NewCache(logger, config, db), nil
	})
	do.Provide(injector, func(i do.Injector) (*Dep5, error) { return NewDep5(), nil })
	do.Provide(injector, func(i do.Injector) (*UserService, error) {
		logger := do.MustInvoke[*Logger](i)
		config := do.MustInvoke[*Config](i)
		db := do.MustInvoke[*Database](i)
		cache := do.MustInvoke[*Cache](i)
		dep5 := do.MustInvoke[*Dep5](i)
		return NewUserService(logger, config, db, cache, dep5), nil
	})
	return injector
}

// =============================================================================
// Registration Benchmarks
// =============================================================================

func BenchmarkRegister_Depends(b *testing.B) {
	handler := func(u *UserService, c *Cache) {}

	b.ReportAllocs()
	for b.Loop() {
		injector := depends.NewInjector()
		if _, err := injector.Prepare(handler); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRegister_Dig(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		_ = newDig()
	}
}

func BenchmarkRegister_Do(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		newDo().Shutdown()
	}
}

// =============================================================================
// Per-Request Benchmarks (Fresh Cache Every Iteration)
// =============================================================================
// Every producer runs once per request, so each library starts from an
// empty cache on each iteration.

func BenchmarkRequest_Complex_Depends(b *testing.B) {
	injector := depends.NewInjector()
	h, err := injector.Prepare(func(u *UserService) {})
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()

	b.ReportAllocs()
	for b.Loop() {
		scope := injector.NewScope(ctx)
		if err := h.Call(scope); err != nil {
			b.Fatal(err)
		}
		_ = scope.Close()
	}
}

func BenchmarkRequest_Complex_Dig(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		c := newDig()
		if err := c.Invoke(func(u *UserService) {}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRequest_Complex_Do(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		injector := newDo()
		_ = do.MustInvoke[*UserService](injector)
		injector.Shutdown()
	}
}

// =============================================================================
// Cached Resolution Benchmarks (Warm Cache)
// =============================================================================

func BenchmarkResolve_Cached_Depends(b *testing.B) {
	injector := depends.NewInjector()
	scope := injector.NewScope(context.Background())
	defer scope.Close()

	// Warm up
	if _, err := userServiceDep.From(scope); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	for b.Loop() {
		_, _ = userServiceDep.From(scope)
	}
}

func BenchmarkResolve_Cached_Dig(b *testing.B) {
	c := newDig()

	// Warm up
	c.Invoke(func(u *UserService) {})

	b.ReportAllocs()
	for b.Loop() {
		c.Invoke(func(u *UserService) {})
	}
}

func BenchmarkResolve_Cached_Do(b *testing.B) {
	injector := newDo()
	defer injector.Shutdown()

	// Warm up
	do.MustInvoke[*UserService](injector)

	b.ReportAllocs()
	for b.Loop() {
		_ = do.MustInvoke[*UserService](injector)
	}
}

// TestEquivalentGraphs checks the three setups build the same object graph.
func TestEquivalentGraphs(t *testing.T) {
	injector := depends.NewInjector()
	scope := injector.NewScope(context.Background())
	defer scope.Close()

	fromDepends, err := userServiceDep.From(scope)
	if err != nil {
		t.Fatal(err)
	}
	if fromDepends.Cache.Logger != fromDepends.Logger {
		t.Error("depends: logger not shared within the request")
	}

	var fromDig *UserService
	if err := newDig().Invoke(func(u *UserService) { fromDig = u }); err != nil {
		t.Fatal(err)
	}

	fromDo := do.MustInvoke[*UserService](newDo())

	for name, u := range map[string]*UserService{"depends": fromDepends, "dig": fromDig, "do": fromDo} {
		if u.Dep5.Value != 5 || u.Database.Config.Value != "config" {
			t.Errorf("%s: unexpected graph %+v", name, u)
		}
	}
}
