package zwdriver

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/OpenZWave/open-zwave-sub002/zwframe"
	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
	"github.com/OpenZWave/open-zwave-sub002/zwnotify"
	"github.com/OpenZWave/open-zwave-sub002/zwpersist"
)

// bootstrap request builders: plain response-only Messages with no
// application payload, grounded on the teacher's GetVersionRequest/
// MemoryGetIDRequest/SerialAPIGetCapabilitiesRequest/
// SerialAPIGetInitDataRequest (message/message_request.go), none of which
// carry a callback - they are answered by a single RESPONSE frame.
func getVersionRequest() *zwmessage.Message {
	return zwmessage.New(zwmessage.FuncGetVersion, 0, zwframe.TypeRequest, true, false)
}

func memoryGetIDRequest() *zwmessage.Message {
	return zwmessage.New(zwmessage.FuncMemoryGetID, 0, zwframe.TypeRequest, true, false)
}

func serialAPIGetCapabilitiesRequest() *zwmessage.Message {
	return zwmessage.New(zwmessage.FuncSerialAPIGetCapabilities, 0, zwframe.TypeRequest, true, false)
}

func serialAPIGetInitDataRequest() *zwmessage.Message {
	return zwmessage.New(zwmessage.FuncSerialAPIGetInitData, 0, zwframe.TypeRequest, true, false)
}

// memoryGetID is the parsed MemoryGetID response: home ID and the
// controller's own node ID, grounded on message.MemoryGetIDResponse
// (HomeID = big-endian body[0:4], NodeID = body[4]).
type memoryGetID struct {
	HomeID uint32
	NodeID uint8
}

func parseMemoryGetID(body []byte) (memoryGetID, error) {
	if len(body) != 5 {
		return memoryGetID{}, fmt.Errorf("zwdriver: MemoryGetID response wrong length: %d", len(body))
	}
	return memoryGetID{HomeID: binary.BigEndian.Uint32(body[0:4]), NodeID: body[4]}, nil
}

// initData is the parsed SerialAPIGetInitData response's node bitmap,
// grounded on message.SerialAPIGetInitDataResponse (29-byte, 232-bit node
// bitmap starting at body[3]).
type initData struct {
	Version uint8
	Nodes   []uint8
}

func parseInitData(body []byte) (initData, error) {
	if len(body) < 3+29 {
		return initData{}, fmt.Errorf("zwdriver: SerialAPIGetInitData response too short: %d", len(body))
	}
	if body[2] != 29 {
		return initData{}, fmt.Errorf("zwdriver: SerialAPIGetInitData bad bitmask length: %d", body[2])
	}

	out := initData{Version: body[0]}
	for i, b := range body[3 : 3+29] {
		for bit := uint(0); bit < 8; bit++ {
			if b&(1<<bit) != 0 {
				out.Nodes = append(out.Nodes, uint8(1+i*8+int(bit)))
			}
		}
	}
	return out, nil
}

// blockingSubmit submits msg to the engine and waits for its Outcome. Must
// only be called from the driver task, before run's main select loop starts
// (i.e. from initialize) - it is the Initialize-time equivalent of
// api.ZWAPI's BlockingRequest, generalized onto the async engine by driving
// a private select loop over the same inbox the driver task alone reads.
func (d *Driver) blockingSubmit(msg *zwmessage.Message) (*zwframe.Frame, error) {
	outcome, err := d.Engine.Submit(msg)
	if err != nil {
		return nil, err
	}

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case o := <-outcome:
			if o.Err != nil {
				return nil, o.Err
			}
			return o.Response, nil
		case ev := <-d.inbox:
			d.handleEvent(ev)
		case now := <-ticker.C:
			d.Engine.Tick(now)
		case <-d.exit:
			return nil, errCancelled
		}
	}
}

// loadPersistedState reads cfg.StatePath (if set) and returns the decoded
// document, but only when its HomeID matches the network Initialize just
// discovered - a state file left over from a different controller is
// ignored rather than misapplied to this one. Any read/decode failure is
// logged and treated the same as "no file": discovery proceeds from
// scratch rather than failing Open over a stale or corrupt cache.
func (d *Driver) loadPersistedState(homeID uint32) *zwpersist.Document {
	if d.cfg.StatePath == "" {
		return nil
	}
	doc, found, err := zwpersist.Load(d.cfg.StatePath, zwpersist.JSONSerializer{})
	if err != nil {
		d.log.Warnf("zwdriver: loading persisted state from %s: %v", d.cfg.StatePath, err)
		return nil
	}
	if !found || doc.HomeID != homeID {
		return nil
	}
	return doc
}

// initialize runs the Initialize handshake: capabilities, version, home/own
// node ID, then the node bitmap, grounded on the teacher's api.ZWAPI.Initialize
// sequence (GetVersion/MemoryGetID/SerialAPIGetCapabilities/SerialAPIGetInitData)
// generalized onto blockingSubmit. Called from Open, before run's main select
// loop is driving anything else.
func (d *Driver) initialize() error {
	if _, err := d.blockingSubmit(serialAPIGetCapabilitiesRequest()); err != nil {
		return fmt.Errorf("zwdriver: SerialAPIGetCapabilities: %w", err)
	}

	if _, err := d.blockingSubmit(getVersionRequest()); err != nil {
		return fmt.Errorf("zwdriver: GetVersion: %w", err)
	}

	memFrame, err := d.blockingSubmit(memoryGetIDRequest())
	if err != nil {
		return fmt.Errorf("zwdriver: MemoryGetID: %w", err)
	}
	mem, err := parseMemoryGetID(memFrame.Payload)
	if err != nil {
		return err
	}

	initFrame, err := d.blockingSubmit(serialAPIGetInitDataRequest())
	if err != nil {
		return fmt.Errorf("zwdriver: SerialAPIGetInitData: %w", err)
	}
	init, err := parseInitData(initFrame.Payload)
	if err != nil {
		return err
	}

	d.setReady(mem.HomeID, mem.NodeID)

	restored := d.loadPersistedState(mem.HomeID)

	for _, nodeID := range init.Nodes {
		if nodeID == mem.NodeID {
			continue
		}
		n, created := d.Nodes.GetOrCreate(nodeID, d.onValueChange)
		if !created {
			continue
		}
		d.Bus.Post(zwnotify.Notification{Type: zwnotify.NodeAdded, NodeID: nodeID})
		d.beginNodeStage(n)
	}

	// Persisted records only ever enrich a node the live bitmap already
	// reported - discovery still drives every node through its stages, the
	// same way the teacher's Node::ReadXML seeds a freshly constructed node
	// before the network confirms or corrects it, never the other way round.
	if restored != nil {
		zwpersist.RestoreKnown(restored, d.Nodes)
	}

	d.Bus.Drain()
	d.Bus.Post(zwnotify.Notification{Type: zwnotify.DriverReady, NodeID: mem.NodeID})
	d.Bus.Drain()
	return nil
}
