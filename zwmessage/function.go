// Package zwmessage defines the Z-Wave Serial API function IDs and the
// Message type: a typed, mutable-until-Finalize wrapper over a zwframe.Frame
// that carries target node, callback ID, expected-reply descriptor and
// send-attempt bookkeeping for the transaction engine.
package zwmessage

/*
Copyright (C) 2017 Jan Kasiak

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Function IDs, per spec §6 "Relevant function IDs".
const (
	FuncSerialAPIGetInitData        uint8 = 0x02
	FuncApplicationCommandHandler   uint8 = 0x04
	FuncGetControllerCapabilities   uint8 = 0x05
	FuncSerialAPIGetCapabilities    uint8 = 0x07
	FuncSerialAPISoftReset          uint8 = 0x08
	FuncZWSendData                  uint8 = 0x13
	FuncGetVersion                  uint8 = 0x15
	FuncMemoryGetID                 uint8 = 0x20
	FuncGetNodeProtocolInfo         uint8 = 0x41
	FuncApplicationUpdate           uint8 = 0x49
	FuncSetLearnMode                uint8 = 0x50
	FuncRequestNetworkUpdate        uint8 = 0x53
	FuncSetSUCNodeID                uint8 = 0x54
	FuncGetSUCNodeID                uint8 = 0x56
	FuncRequestNodeInfo             uint8 = 0x60
	FuncIsFailedNodeID              uint8 = 0x61
	FuncRemoveFailedNodeID          uint8 = 0x62
	FuncReplaceFailedNodeID         uint8 = 0x63

	// Network-management function IDs in the 0x40-0x4d range used by
	// controller commands (§4.10), beyond FuncGetNodeProtocolInfo above.
	FuncAssignReturnRoute        uint8 = 0x46
	FuncDeleteReturnRoute        uint8 = 0x47
	FuncRequestNodeNeighborUpdate uint8 = 0x48
	FuncAddNodeToNetwork         uint8 = 0x4a
	FuncRemoveNodeFromNetwork    uint8 = 0x4b
	FuncCreateNewPrimary         uint8 = 0x4c
	FuncControllerChange         uint8 = 0x4d
)

// TransmitOption bits for ZWSendData, §6.
const (
	TransmitOptionACK       uint8 = 0x01
	TransmitOptionLowPower  uint8 = 0x02
	TransmitOptionAutoRoute uint8 = 0x04
	TransmitOptionNoRoute   uint8 = 0x10
	TransmitOptionExplore   uint8 = 0x20
)

// TransmitComplete status codes, echoed in the ZWSendData callback.
const (
	TransmitCompleteOK      uint8 = 0x00
	TransmitCompleteNoACK   uint8 = 0x01
	TransmitCompleteFail    uint8 = 0x02
	TransmitCompleteNotIdle uint8 = 0x03
	TransmitCompleteNoRoute uint8 = 0x04
)

// IsValidNodeID reports whether nodeID is in the usable 1..232 range; 0xFF
// is broadcast and 0 is never a valid node ID.
func IsValidNodeID(nodeID uint8) bool {
	return nodeID > 0 && nodeID < 233
}

// BroadcastNodeID is the reserved "all nodes" address.
const BroadcastNodeID uint8 = 0xff
