// Package testutil holds the annotated types, producers and HTTP helpers
// shared by the adapter tests.
package testutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/junioryono/depends"
)

// Common test errors
var (
	ErrTest    = errors.New("test error")
	ErrCleanup = errors.New("cleanup error")
)

// Answer is injected from ProduceAnswer.
type Answer int

var AnswerDep = depends.On[Answer](ProduceAnswer)

func (Answer) Dependency() depends.Descriptor { return AnswerDep }

func ProduceAnswer() Answer { return 42 }

// Counter is injected from ProduceCounter, which always yields 1. Tests that
// count calls override it with a CountingProducer.
type Counter int

var CounterDep = depends.On[Counter](ProduceCounter)

func (Counter) Dependency() depends.Descriptor { return CounterDep }

func ProduceCounter() Counter { return 1 }

// Greeting depends on Answer and Counter.
type Greeting string

var GreetingDep = depends.On[Greeting](ProduceGreeting)

func (Greeting) Dependency() depends.Descriptor { return GreetingDep }

func ProduceGreeting(a Answer, c Counter) Greeting {
	return Greeting(fmt.Sprintf("answer=%d count=%d", a, c))
}

// Path is produced from the request.
type Path string

var PathDep = depends.On[Path](ProducePath)

func (Path) Dependency() depends.Descriptor { return PathDep }

func ProducePath(r *http.Request) Path { return Path(r.URL.Path) }

// Failing is produced by a producer that always returns ErrTest.
type Failing int

var FailingDep = depends.On[Failing](ProduceFailing)

func (Failing) Dependency() depends.Descriptor { return FailingDep }

func ProduceFailing() (Failing, error) { return 0, ErrTest }

// Params is a parameter object over the fixtures.
type Params struct {
	depends.In

	Answer   Answer
	Greeting Greeting
	Request  *http.Request
}
