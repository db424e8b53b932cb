package zwcc

import "fmt"

const (
	ClassMultiInstance uint8 = 0x60
	ClassMultiChannel  uint8 = 0x60 // shares a class ID with MultiInstance; distinguished by command
	ClassMultiCommand  uint8 = 0x8f

	cmdMultiInstanceEncap uint8 = 0x06
	cmdMultiChannelEncap  uint8 = 0x0d
	cmdMultiCommandEncap  uint8 = 0x01
)

// SubFrame is one application command recovered from an encapsulation
// envelope, addressed to a specific instance or endpoint.
type SubFrame struct {
	ClassID  uint8
	Instance uint8 // v1 multi-instance, 0 if not applicable
	Endpoint uint8 // v2 multi-channel destination endpoint, 0 if not applicable
	Body     []byte
}

// Unwrap inspects an ApplicationCommandHandler payload (class ID + body)
// and, if it is a recognized encapsulation envelope, returns the SubFrame(s)
// inside it. A non-encapsulated payload is returned unchanged as a single
// SubFrame so callers can treat both uniformly.
func Unwrap(classID uint8, body []byte) ([]SubFrame, error) {
	switch classID {
	case ClassMultiInstance: // also ClassMultiChannel; same wire class ID
		return unwrapMultiInstanceOrChannel(body)
	case ClassMultiCommand:
		return unwrapMultiCommand(body)
	default:
		return []SubFrame{{ClassID: classID, Body: body}}, nil
	}
}

func unwrapMultiInstanceOrChannel(body []byte) ([]SubFrame, error) {
	if len(body) < 1 {
		return nil, fmt.Errorf("zwcc: empty multi-instance/multi-channel envelope")
	}
	switch body[0] {
	case cmdMultiInstanceEncap:
		if len(body) < 3 {
			return nil, fmt.Errorf("zwcc: multi-instance envelope too short")
		}
		instance := body[1]
		innerClass := body[2]
		return []SubFrame{{ClassID: innerClass, Instance: instance, Body: body[3:]}}, nil

	case cmdMultiChannelEncap:
		if len(body) < 4 {
			return nil, fmt.Errorf("zwcc: multi-channel envelope too short")
		}
		// body[1] is the source endpoint (always 0 from a node's own
		// perspective when addressing the controller); body[2] is the
		// destination endpoint this report came from.
		endpoint := body[2] & 0x7f
		innerClass := body[3]
		return []SubFrame{{ClassID: innerClass, Endpoint: endpoint, Body: body[4:]}}, nil

	default:
		return nil, fmt.Errorf("zwcc: unrecognized multi-instance/multi-channel command 0x%02x", body[0])
	}
}

// unwrapMultiCommand decodes a Multi Command Encap frame: a command byte,
// a sub-frame count, then that many length-prefixed sub-frames. Each
// sub-frame is bounds-checked against the remaining bytes; a sub-frame
// whose declared length would run past the envelope is dropped along with
// the rest of the batch rather than panicking on a malformed device.
func unwrapMultiCommand(body []byte) ([]SubFrame, error) {
	if len(body) < 2 || body[0] != cmdMultiCommandEncap {
		return nil, fmt.Errorf("zwcc: malformed multi-command envelope")
	}
	count := int(body[1])
	rest := body[2:]

	var frames []SubFrame
	for i := 0; i < count; i++ {
		if len(rest) < 1 {
			return frames, fmt.Errorf("zwcc: multi-command envelope truncated after %d of %d sub-frames", i, count)
		}
		length := int(rest[0])
		if 1+length > len(rest) {
			return frames, fmt.Errorf("zwcc: multi-command sub-frame %d length %d exceeds remaining envelope", i, length)
		}
		sub := rest[1 : 1+length]
		if len(sub) >= 1 {
			frames = append(frames, SubFrame{ClassID: sub[0], Body: sub[1:]})
		}
		rest = rest[1+length:]
	}
	return frames, nil
}
