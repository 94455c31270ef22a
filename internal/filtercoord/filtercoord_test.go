package filtercoord

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.helics.dev/corehub/internal/filtercatalog"
	"go.helics.dev/corehub/internal/filterop"
	"go.helics.dev/corehub/internal/ident"
	"go.helics.dev/corehub/internal/message"
)

func TestOrderedSourceFilters(t *testing.T) {
	c := New()
	delay1 := filtercatalog.NewDelay()
	require.NoError(t, delay1.SetString("delay", "1.25s"))
	delay2 := filtercatalog.NewDelay()
	require.NoError(t, delay2.SetString("delay", "1.25s"))

	c.AttachSourceOperator(ident.NewGlobalHandle(ident.NewFederateID(1), ident.NewInterfaceHandle(1)), delay1.Operator())
	c.AttachSourceOperator(ident.NewGlobalHandle(ident.NewFederateID(1), ident.NewInterfaceHandle(2)), delay2.Operator())

	res := c.ProcessSource(message.Message{Source: "port1", Destination: "port2", Time: 0})
	require.True(t, res.Keep)
	require.Equal(t, 2.5, res.Primary.Time)
}

func TestRerouteWithCondition(t *testing.T) {
	c := New()
	reroute := filtercatalog.NewReroute()
	require.NoError(t, reroute.SetString("newdestination", "port3"))
	require.NoError(t, reroute.SetString("condition", "end"))

	c.AttachSourceOperator(ident.NewGlobalHandle(ident.NewFederateID(1), ident.NewInterfaceHandle(1)), reroute.Operator())

	res := c.ProcessSource(message.Message{Source: "port1", Destination: "endpt2", Payload: make([]byte, 500)})
	require.True(t, res.Keep)
	require.Equal(t, "port3", res.Primary.Destination)
	require.Equal(t, "port1", res.Primary.Source)
	require.Len(t, res.Primary.Payload, 500)
}

func TestRerouteNoConditionMatchPassesThrough(t *testing.T) {
	c := New()
	reroute := filtercatalog.NewReroute()
	require.NoError(t, reroute.SetString("newdestination", "port3"))
	require.NoError(t, reroute.SetString("condition", "test"))

	c.AttachSourceOperator(ident.NewGlobalHandle(ident.NewFederateID(1), ident.NewInterfaceHandle(1)), reroute.Operator())

	res := c.ProcessSource(message.Message{Source: "port1", Destination: "port2"})
	require.True(t, res.Keep)
	require.Equal(t, "port2", res.Primary.Destination)

	res2 := c.ProcessSource(message.Message{Source: "port1", Destination: "test324525"})
	require.True(t, res2.Keep)
	require.Equal(t, "port3", res2.Primary.Destination)
}

func TestCloningSourceFilterKeepsPrimary(t *testing.T) {
	c := New()
	clone := filtercatalog.NewClone()
	require.NoError(t, clone.SetString("delivery", "cm"))

	c.AttachSourceCloner(ident.NewGlobalHandle(ident.NewFederateID(1), ident.NewInterfaceHandle(1)), clone.Cloner())

	res := c.ProcessSource(message.Message{Source: "src", Destination: "dest", Payload: make([]byte, 500)})
	require.True(t, res.Keep)
	require.Equal(t, "dest", res.Primary.Destination, "primary message unaffected by cloning filter")
	require.Len(t, res.Clones, 1)
	require.Equal(t, "cm", res.Clones[0].Destination)
	require.Equal(t, "dest", res.Clones[0].OriginalDestination)
}

func TestTimeClampOnDecrease(t *testing.T) {
	c := New()
	var clampedFrom, clampedTo float64
	var clamped bool
	c.SetTimeClampLogger(func(from, to float64) {
		clamped = true
		clampedFrom, clampedTo = from, to
	})

	op := filterop.NewRetimeOp(func(t float64) float64 { return t - 1 })
	h := ident.NewGlobalHandle(ident.NewFederateID(1), ident.NewInterfaceHandle(1))
	c.AttachSourceOperator(h, op)

	res := c.ProcessSource(message.Message{Time: 5})
	require.True(t, res.Keep)
	require.Equal(t, 5.0, res.Primary.Time, "time must never decrease across a filter transformation")
	require.True(t, clamped)
	require.Equal(t, 5.0, clampedFrom)
	require.Equal(t, 4.0, clampedTo)
}

func TestCloseFilterIsIdempotent(t *testing.T) {
	c := New()
	delay := filtercatalog.NewDelay()
	require.NoError(t, delay.SetString("delay", "1s"))
	h := ident.NewGlobalHandle(ident.NewFederateID(1), ident.NewInterfaceHandle(1))
	c.AttachSourceOperator(h, delay.Operator())

	res := c.ProcessSource(message.Message{Time: 0})
	require.Equal(t, 1.0, res.Primary.Time)

	c.CloseFilter(h)
	res = c.ProcessSource(message.Message{Time: 0})
	require.True(t, res.Keep)
	require.Equal(t, 0.0, res.Primary.Time, "disconnected filter must act as identity")

	// Calling CloseFilter again must not panic or change behavior.
	c.CloseFilter(h)
	res = c.ProcessSource(message.Message{Time: 0})
	require.Equal(t, 0.0, res.Primary.Time)
}

func TestDestinationCloningAndPrimaryFilter(t *testing.T) {
	c := New()
	clone := filtercatalog.NewClone()
	require.NoError(t, clone.SetString("delivery", "monitor"))
	c.AttachDestCloner(ident.NewGlobalHandle(ident.NewFederateID(1), ident.NewInterfaceHandle(1)), clone.Cloner())

	delay := filtercatalog.NewDelay()
	require.NoError(t, delay.SetString("delay", "1s"))
	c.SetDestOperator(ident.NewGlobalHandle(ident.NewFederateID(1), ident.NewInterfaceHandle(2)), delay.Operator())

	res := c.ProcessDestination(message.Message{Destination: "dest", Time: 0})
	require.True(t, res.Keep)
	require.Equal(t, 1.0, res.Primary.Time)
	require.Len(t, res.Clones, 1)
	require.Equal(t, "monitor", res.Clones[0].Destination)
}
