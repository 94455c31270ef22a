// Package action defines the ActionMessage command frame that flows
// between cores and brokers, and its length-prefixed wire codec.
//
// ActionMessage generalizes the teacher's clipboard-protocol Message: where
// that carried a single clipboard Item, an ActionMessage carries one of a
// fixed set of control, topology, data-plane, or query commands addressed
// by (source, dest) federate/handle pairs, per spec §6.
package action

import (
	"fmt"

	"go.helics.dev/corehub/internal/ident"
	"go.helics.dev/corehub/internal/message"
)

// Code identifies the command an ActionMessage carries. Codes are grouped
// into disjoint, non-overlapping ranges so a receiver can classify a frame
// (and decide its priority band) from the code alone, without a lookup
// table.
type Code int32

// Control-plane commands: connection lifecycle and loop control. These
// travel in the broker-base event loop's priority band, except CMD_TICK,
// which the tick timer emits into the normal band.
const (
	CmdIgnore               Code = 0
	CmdProtocol             Code = 1
	CmdTick                 Code = 2
	CmdStop                 Code = 3
	CmdTerminateImmediately Code = 4
	CmdDisconnect           Code = 5
)

// Topology commands: route and connection table maintenance. Also
// priority-band.
const (
	CmdNewRoute              Code = 100
	CmdRemoveRoute           Code = 101
	CmdConnectionInformation Code = 102
	CmdBrokerAck             Code = 103
	CmdInit                  Code = 104
	CmdRequestPorts          Code = 105
	CmdPortDefinitions       Code = 106
	CmdCloseReceiver         Code = 107
)

// Data-plane commands: message delivery and filter-return variants.
// Normal-band.
const (
	CmdMessage           Code = 200
	CmdFilterResult      Code = 201 // source-side filter return (process_filter_return)
	CmdDestFilterResult  Code = 202 // destination-side filter return
)

// Query commands: the read-only introspection surface. Normal-band.
const (
	CmdQuery      Code = 300
	CmdQueryReply Code = 301
)

// topologyBase and the following band boundaries split the Code space into
// the four ranges named in spec §6. Anything at or above dataBase is
// normal-band, as is CMD_TICK; everything else below is priority-band.
const (
	topologyBase = 100
	dataBase     = 200
	queryBase    = 300
)

// IsPriority reports whether a command belongs in the broker-base event
// loop's priority band (control other than CMD_TICK, or topology) rather
// than the normal band (CMD_TICK, data-plane or query).
func (c Code) IsPriority() bool { return c < dataBase && c != CmdTick }

func (c Code) String() string {
	switch c {
	case CmdIgnore:
		return "CMD_IGNORE"
	case CmdProtocol:
		return "CMD_PROTOCOL"
	case CmdTick:
		return "CMD_TICK"
	case CmdStop:
		return "CMD_STOP"
	case CmdTerminateImmediately:
		return "CMD_TERMINATE_IMMEDIATELY"
	case CmdDisconnect:
		return "CMD_DISCONNECT"
	case CmdNewRoute:
		return "CMD_NEW_ROUTE"
	case CmdRemoveRoute:
		return "CMD_REMOVE_ROUTE"
	case CmdConnectionInformation:
		return "CMD_CONNECTION_INFORMATION"
	case CmdBrokerAck:
		return "CMD_BROKER_ACK"
	case CmdInit:
		return "CMD_INIT"
	case CmdRequestPorts:
		return "CMD_REQUEST_PORTS"
	case CmdPortDefinitions:
		return "CMD_PORT_DEFINITIONS"
	case CmdCloseReceiver:
		return "CMD_CLOSE_RECEIVER"
	case CmdMessage:
		return "CMD_MESSAGE"
	case CmdFilterResult:
		return "CMD_FILTER_RESULT"
	case CmdDestFilterResult:
		return "CMD_DEST_FILTER_RESULT"
	case CmdQuery:
		return "CMD_QUERY"
	case CmdQueryReply:
		return "CMD_QUERY_REPLY"
	default:
		return fmt.Sprintf("CMD_UNKNOWN(%d)", int32(c))
	}
}

// Flag bits carried on ActionMessage.Flags. These are distinct from
// message.Message's flag bits (which describe the delivered payload, not
// the command frame carrying it).
const (
	// FlagError marks a CMD_TICK whose underlying async I/O service loop
	// needs restarting before the tick is rescheduled.
	FlagError uint16 = 1 << iota
	// FlagIsClone marks a CMD_MESSAGE as a cloning filter's copy, so a
	// receiver can tell it apart from the primary it was cloned from.
	FlagIsClone
)

// Message is one ActionMessage: a command plus its addressing and
// payload, per spec §6's field list.
type Message struct {
	Action       Code
	SourceID     ident.FederateID
	SourceHandle ident.InterfaceHandle
	DestID       ident.FederateID
	DestHandle   ident.InterfaceHandle
	MessageID    message.ID
	Flags        uint16
	Time         float64
	Name         string
	Payload      []byte
	ExtraData    []byte
}

// HasFlag reports whether bit is set on the frame's flag word.
func (m Message) HasFlag(bit uint16) bool { return m.Flags&bit != 0 }

func (m Message) String() string {
	return fmt.Sprintf("ActionMessage{%s src=%s/%s dst=%s/%s mid=%d t=%g}",
		m.Action, m.SourceID, m.SourceHandle, m.DestID, m.DestHandle, m.MessageID, m.Time)
}
