package zwnode

import (
	"fmt"

	"github.com/OpenZWave/open-zwave-sub002/zwcc"
	"github.com/OpenZWave/open-zwave-sub002/zwframe"
	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
)

// protocolInfoCapabilityListening is the listening-device bit of a
// GetNodeProtocolInfo response's capability byte, per the teacher's
// ZWGetNodeProtocolInfoResponse (Capabilities.Listening = body[0]&0x80).
const protocolInfoCapabilityListening uint8 = 0x80

// protocolInfoCapabilityRouting is the routing-slave bit of the same byte;
// the teacher left this byte's remaining bits as a TODO, so this is a
// judgment call grounded on the common capability-byte layout the original
// library's Node.h security/basic-type enums imply (bit 6, immediately
// below Listening).
const protocolInfoCapabilityRouting uint8 = 0x40

// GetNodeProtocolInfo builds the ProtocolInfo stage's request, grounded on
// the teacher's zWGetNodeProtocolInfo (FuncGetNodeProtocolInfo, single
// target-node byte, response-only - ZWSendData's callback machinery does
// not apply here).
func GetNodeProtocolInfo(nodeID uint8) *zwmessage.Message {
	m := zwmessage.New(zwmessage.FuncGetNodeProtocolInfo, nodeID, zwframe.TypeRequest, true, false)
	m.AppendByte(nodeID)
	return m
}

// ParseNodeProtocolInfo decodes a GetNodeProtocolInfo response body (6
// bytes, per the teacher's ZWGetNodeProtocolInfoResponse) into the node's
// protocol-level fields.
func ParseNodeProtocolInfo(n *Node, body []uint8) error {
	if len(body) != 6 {
		return fmt.Errorf("zwnode: GetNodeProtocolInfo response wrong length: %d", len(body))
	}

	n.mutex.Lock()
	defer n.mutex.Unlock()

	n.Listening = body[0]&protocolInfoCapabilityListening != 0
	n.Routing = body[0]&protocolInfoCapabilityRouting != 0
	n.Security = body[1]
	n.Version = body[2]
	n.Basic = body[3]
	n.Generic = body[4]
	n.Specific = body[5]
	if !n.Listening {
		n.awake = false
	}
	return nil
}

// RequestNodeInfo builds the NodeInfo stage's request, grounded on the
// teacher's zWRequestNodeInfo (FuncRequestNodeInfo, single target-node
// byte; the NIF itself arrives later as an unsolicited ApplicationUpdate).
func RequestNodeInfo(nodeID uint8) *zwmessage.Message {
	m := zwmessage.New(zwmessage.FuncRequestNodeInfo, nodeID, zwframe.TypeRequest, true, false)
	m.AppendByte(nodeID)
	return m
}

// ApplicationUpdateStateNodeInfo is the status byte an ApplicationUpdate
// frame carries when it delivers a NIF, per the teacher's
// message.ZWApplicationUpdateStateReceived.
const ApplicationUpdateStateNodeInfo uint8 = 0x84

// commandClassMark separates supported command classes (before the mark)
// from controlled command classes (after it) in a NIF body, per the
// teacher's device.CommandClassMark.
const commandClassMark uint8 = 0xef

// ApplyNodeInfo parses a NIF delivered via ApplicationUpdate and installs
// CommandClass instances for every supported class, recording controlled
// (after-mark) classes separately per §4.7's dispatch rule. body is the
// ApplicationUpdate payload after its 3-byte status/node/length header:
// basic, generic, specific device class bytes followed by the class list.
func ApplyNodeInfo(n *Node, body []uint8) error {
	if len(body) < 3 {
		return fmt.Errorf("zwnode: NIF body too short: %d", len(body))
	}

	n.mutex.Lock()
	defer n.mutex.Unlock()

	n.Basic = body[0]
	n.Generic = body[1]
	n.Specific = body[2]

	n.Supported = make(map[uint8]zwcc.CommandClass)
	n.Controlled = make(map[uint8]bool)

	afterMark := false
	for _, classID := range body[3:] {
		if !afterMark && classID == commandClassMark {
			afterMark = true
			continue
		}
		if afterMark {
			n.Controlled[classID] = true
			continue
		}
		cc, ok := zwcc.New(classID)
		if !ok {
			// An unregistered class is skipped: it gets no entry in
			// Supported or ClassVersions, so it is not persisted either.
			continue
		}
		n.Supported[classID] = cc
		n.ClassVersions[classID] = 1
		cc.CreateVars(n.ID, 1, n.Store)
	}
	return nil
}
