package zwcc

import (
	"encoding/binary"
	"fmt"

	"github.com/OpenZWave/open-zwave-sub002/zwmessage"
	"github.com/OpenZWave/open-zwave-sub002/zwvalue"
)

const ClassConfiguration uint8 = 0x70

const (
	configurationSet    uint8 = 0x04
	configurationGet    uint8 = 0x05
	configurationReport uint8 = 0x06
)

// ConfigurationClass exposes a node's vendor-defined configuration
// parameters: a flat uint8-keyed table of 1/2/4-byte signed values, whose
// meaning is entirely device-specific.
type ConfigurationClass struct {
	Base
}

func init() {
	Register(ClassConfiguration, func(classID uint8) CommandClass { return &ConfigurationClass{Base: NewBase(classID)} })
}

func (c *ConfigurationClass) CreateVars(nodeID uint8, instance uint8, store *zwvalue.Store) {}

func (c *ConfigurationClass) Get(nodeID uint8, parameter uint8) *zwmessage.Message {
	return NewSendData(nodeID, c.ClassID(), []uint8{configurationGet, parameter}, true)
}

// set builds a Configuration Set for a 1/2/4-byte signed parameter value;
// size must be one of 1, 2, 4.
func (c *ConfigurationClass) set(nodeID uint8, parameter uint8, size uint8, value int32) (*zwmessage.Message, error) {
	switch size {
	case 1:
		return NewSendData(nodeID, c.ClassID(), []uint8{configurationSet, parameter, 1, uint8(int8(value))}, false), nil
	case 2:
		buf := make([]byte, 2)
		binary.BigEndian.PutUint16(buf, uint16(int16(value)))
		return NewSendData(nodeID, c.ClassID(), append([]uint8{configurationSet, parameter, 2}, buf...), false), nil
	case 4:
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, uint32(value))
		return NewSendData(nodeID, c.ClassID(), append([]uint8{configurationSet, parameter, 4}, buf...), false), nil
	default:
		return nil, fmt.Errorf("zwcc: configuration set size must be 1, 2 or 4, got %d", size)
	}
}

func (c *ConfigurationClass) SetBool(nodeID uint8, parameter uint8, value bool) (*zwmessage.Message, error) {
	v := int32(0)
	if value {
		v = 1
	}
	return c.set(nodeID, parameter, 1, v)
}

func (c *ConfigurationClass) SetByte(nodeID uint8, parameter uint8, value int8) (*zwmessage.Message, error) {
	return c.set(nodeID, parameter, 1, int32(value))
}

func (c *ConfigurationClass) SetShort(nodeID uint8, parameter uint8, value int16) (*zwmessage.Message, error) {
	return c.set(nodeID, parameter, 2, int32(value))
}

func (c *ConfigurationClass) SetInt(nodeID uint8, parameter uint8, value int32) (*zwmessage.Message, error) {
	return c.set(nodeID, parameter, 4, value)
}

func (c *ConfigurationClass) HandleMsg(payload []byte, instance uint8, nodeID uint8, store *zwvalue.Store) (bool, error) {
	if len(payload) < 3 || payload[0] != configurationReport {
		return false, nil
	}
	parameter := payload[1]
	size := payload[2] & 0x7
	if int(size) < 1 || 3+int(size) > len(payload) {
		return true, fmt.Errorf("zwcc: Configuration Report bad size field: %d", size)
	}
	data := payload[3 : 3+size]

	var value int32
	switch size {
	case 1:
		value = int32(int8(data[0]))
	case 2:
		value = int32(int16(binary.BigEndian.Uint16(data)))
	case 4:
		value = int32(binary.BigEndian.Uint32(data))
	default:
		return true, fmt.Errorf("zwcc: Configuration Report unsupported size: %d", size)
	}

	id := zwvalue.ID{NodeID: nodeID, CommandClass: c.ClassID(), Instance: instance, Index: parameter}
	store.Create(id, zwvalue.KindInt, zwvalue.GenreStatic, fmt.Sprintf("Parameter %d", parameter), "", false, zwvalue.Value{})
	if _, err := store.Commit(id, zwvalue.Value{Kind: zwvalue.KindInt, Int: value}); err != nil {
		return true, err
	}
	return true, nil
}
