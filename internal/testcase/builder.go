package testcase

import (
	"time"

	"proctor/internal/action"
	"proctor/internal/function"
	"proctor/internal/testcontext"
)

// Builder assembles a test case fluently:
//
//	tc := testcase.NewBuilder("HelloTest").
//		Author("Alice").
//		Variable("user", "Alice").
//		WithEndpoints(endpoints).
//		Send("hello", "<Hello>${user}</Hello>", nil).
//		Receive("hello", time.Second, map[string]string{"Hello": "${user}"}).
//		Build(globals, nil)
type Builder struct {
	tc          TestCase
	endpoints   action.EndpointLookup
	dataSources action.DataSourceLookup
}

// NewBuilder starts a test case named name.
func NewBuilder(name string) *Builder {
	return &Builder{tc: TestCase{Name: name, Meta: MetaInfo{Status: StatusDraft}}}
}

func (b *Builder) Author(author string) *Builder {
	b.tc.Meta.Author = author
	return b
}

func (b *Builder) Status(status Status) *Builder {
	b.tc.Meta.Status = status
	return b
}

func (b *Builder) CreationDate(date time.Time) *Builder {
	b.tc.Meta.CreationDate = date
	return b
}

func (b *Builder) LastUpdated(by string, on time.Time) *Builder {
	b.tc.Meta.LastUpdatedBy = by
	b.tc.Meta.LastUpdatedOn = on
	return b
}

func (b *Builder) Description(description string) *Builder {
	b.tc.Description = description
	return b
}

func (b *Builder) Source(path string) *Builder {
	b.tc.Source = path
	return b
}

// Variable declares a test case variable, resolved when the test starts.
func (b *Builder) Variable(name, value string) *Builder {
	b.tc.Variables = append(b.tc.Variables, Variable{Name: name, Value: value})
	return b
}

// WithEndpoints sets the endpoints used by Send and Receive.
func (b *Builder) WithEndpoints(endpoints action.EndpointLookup) *Builder {
	b.endpoints = endpoints
	return b
}

// WithDataSources sets the data sources used by SQL.
func (b *Builder) WithDataSources(dataSources action.DataSourceLookup) *Builder {
	b.dataSources = dataSources
	return b
}

// Action appends any action to the action chain.
func (b *Builder) Action(a action.Action) *Builder {
	b.tc.Actions = append(b.tc.Actions, a)
	return b
}

// Finally appends an action to the finally chain.
func (b *Builder) Finally(a action.Action) *Builder {
	b.tc.Finally = append(b.tc.Finally, a)
	return b
}

func (b *Builder) Echo(message string) *Builder {
	return b.Action(&action.Echo{Message: message})
}

func (b *Builder) Fail(message string) *Builder {
	return b.Action(&action.Fail{Message: message})
}

func (b *Builder) Sleep(d time.Duration) *Builder {
	return b.Action(&action.Sleep{Duration: d})
}

// CreateVariable appends a create-variables action for a single variable.
func (b *Builder) CreateVariable(name, value string) *Builder {
	return b.Action(&action.CreateVariables{Variables: map[string]string{name: value}})
}

func (b *Builder) TraceVariables(names ...string) *Builder {
	return b.Action(&action.TraceVariables{Names: names})
}

func (b *Builder) Template(variableName, text string) *Builder {
	return b.Action(&action.Template{Variable: variableName, Template: text})
}

func (b *Builder) Send(endpointName, payload string, headers map[string]string) *Builder {
	return b.Action(&action.Send{
		Endpoint:  endpointName,
		Payload:   payload,
		Headers:   headers,
		Endpoints: b.endpoints,
	})
}

// Receive appends a receive action validating the given payload paths.
func (b *Builder) Receive(endpointName string, timeout time.Duration, validate map[string]string) *Builder {
	return b.Action(&action.Receive{
		Endpoint:  endpointName,
		Timeout:   timeout,
		Validate:  validate,
		Endpoints: b.endpoints,
	})
}

func (b *Builder) SQL(dataSource string, statements ...string) *Builder {
	return b.Action(&action.SQL{
		DataSource:  dataSource,
		Statements:  statements,
		DataSources: b.dataSources,
	})
}

// Build creates the test case with a fresh context.
func (b *Builder) Build(globals *testcontext.GlobalVariables, registry *function.Registry) *TestCase {
	tc := New(b.tc.Name, globals, registry)
	tc.Description = b.tc.Description
	tc.Meta = b.tc.Meta
	tc.Source = b.tc.Source
	tc.Variables = append([]Variable(nil), b.tc.Variables...)
	tc.Actions = append([]action.Action(nil), b.tc.Actions...)
	tc.Finally = append([]action.Action(nil), b.tc.Finally...)
	return tc
}
