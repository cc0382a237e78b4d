// Package h5 implements the framing primitives of the Bluetooth Three-Wire
// UART (H5) transport: the packet header codec and SLIP byte-stuffing.
//
// The package is pure and side-effect free. It never panics on malformed
// input; callers get an error back.
package h5

import "fmt"

// Kind identifies the payload carried by an H5 frame.
type Kind uint8

// Packet kinds, per the Three-Wire UART packet type field.
const (
	KindAck            Kind = 0x0
	KindHciCommand     Kind = 0x1
	KindAclData        Kind = 0x2
	KindSyncData       Kind = 0x3
	KindHciEvent       Kind = 0x4
	KindReset          Kind = 0x5
	KindVendorSpecific Kind = 0xE
	KindLinkControl    Kind = 0xF
)

// String implements fmt.Stringer for log lines.
func (k Kind) String() string {
	switch k {
	case KindAck:
		return "Ack"
	case KindHciCommand:
		return "HciCommand"
	case KindAclData:
		return "AclData"
	case KindSyncData:
		return "SyncData"
	case KindHciEvent:
		return "HciEvent"
	case KindReset:
		return "Reset"
	case KindVendorSpecific:
		return "VendorSpecific"
	case KindLinkControl:
		return "LinkControl"
	default:
		return fmt.Sprintf("Kind(%#x)", uint8(k))
	}
}

// Packet is a decoded H5 frame.
type Packet struct {
	Seq      uint8
	Ack      uint8
	Reliable bool
	Kind     Kind
	Payload  []byte
}

// Sentinel is the SLIP delimiter byte that brackets every H5 frame on the wire.
const Sentinel byte = 0xC0

// Link-control payload patterns. The third byte of Config/ConfigRsp carries
// the configuration field described by ConfigField.
var (
	syncPayload      = []byte{0x01, 0x7E}
	syncRspPayload   = []byte{0x02, 0x7D}
	configFirstBytes = [2]byte{0x03, 0xFC}
	configRspBytes   = [2]byte{0x04, 0x7B}

	// Wakeup/Woken/Sleep are recognized for logging only; the core never
	// generates or acts on them (see Non-goals).
	wakeupPayload = []byte{0x05, 0xFA}
	wokenPayload  = []byte{0x06, 0xF9}
	sleepPayload  = []byte{0x07, 0x78}
)

// LinkControlType classifies a decoded link-control payload.
type LinkControlType int

// Recognized link-control payload types.
const (
	LinkControlUnknown LinkControlType = iota
	LinkControlSync
	LinkControlSyncRsp
	LinkControlConfig
	LinkControlConfigRsp
	LinkControlWakeup
	LinkControlWoken
	LinkControlSleep
)

// String implements fmt.Stringer.
func (t LinkControlType) String() string {
	switch t {
	case LinkControlSync:
		return "SYNC"
	case LinkControlSyncRsp:
		return "SYNC_RESP"
	case LinkControlConfig:
		return "CONFIG"
	case LinkControlConfigRsp:
		return "CONFIG_RESP"
	case LinkControlWakeup:
		return "WAKEUP"
	case LinkControlWoken:
		return "WOKEN"
	case LinkControlSleep:
		return "SLEEP"
	default:
		return "UNKNOWN"
	}
}

// ClassifyLinkControl identifies which link-control pattern a payload
// matches by exact prefix. It returns LinkControlUnknown for anything else.
func ClassifyLinkControl(payload []byte) LinkControlType {
	if len(payload) < 2 {
		return LinkControlUnknown
	}
	switch {
	case payload[0] == syncPayload[0] && payload[1] == syncPayload[1]:
		return LinkControlSync
	case payload[0] == syncRspPayload[0] && payload[1] == syncRspPayload[1]:
		return LinkControlSyncRsp
	case payload[0] == configFirstBytes[0] && payload[1] == configFirstBytes[1]:
		return LinkControlConfig
	case payload[0] == configRspBytes[0] && payload[1] == configRspBytes[1]:
		return LinkControlConfigRsp
	case payload[0] == wakeupPayload[0] && payload[1] == wakeupPayload[1]:
		return LinkControlWakeup
	case payload[0] == wokenPayload[0] && payload[1] == wokenPayload[1]:
		return LinkControlWoken
	case payload[0] == sleepPayload[0] && payload[1] == sleepPayload[1]:
		return LinkControlSleep
	default:
		return LinkControlUnknown
	}
}

// ConfigField packs the sliding-window-size / OOF / data-integrity / version
// fields the core exchanges in Config and ConfigRsp payloads.
type ConfigField uint8

// NewConfigField builds a ConfigField from its component fields.
func NewConfigField(windowSize uint8, oof, dataIntegrity bool, version uint8) ConfigField {
	var c ConfigField
	c |= ConfigField(windowSize & 0x07)
	if oof {
		c |= 1 << 3
	}
	if dataIntegrity {
		c |= 1 << 4
	}
	c |= ConfigField(version&0x07) << 5
	return c
}

// WindowSize returns the sliding-window-size bits (0-2).
func (c ConfigField) WindowSize() uint8 { return uint8(c) & 0x07 }

// OutOfFrame returns the out-of-frame flag (bit 3).
func (c ConfigField) OutOfFrame() bool { return c&(1<<3) != 0 }

// DataIntegrity returns the data-integrity-type flag (bit 4).
func (c ConfigField) DataIntegrity() bool { return c&(1<<4) != 0 }

// Version returns the version bits (5-7).
func (c ConfigField) Version() uint8 { return uint8(c>>5) & 0x07 }

// DefaultConfigField is the configuration field the core always sends:
// window size 1 (the only size this implementation honors regardless of
// what is negotiated), no OOF, no data integrity check, version 0.
const DefaultConfigField = ConfigField(1)

// SyncPacketPayload returns the payload bytes for a Sync link-control packet.
func SyncPacketPayload() []byte { return append([]byte(nil), syncPayload...) }

// SyncRspPacketPayload returns the payload bytes for a SyncRsp link-control packet.
func SyncRspPacketPayload() []byte { return append([]byte(nil), syncRspPayload...) }

// ConfigPacketPayload returns the payload bytes for a Config link-control packet.
func ConfigPacketPayload(cfg ConfigField) []byte {
	return []byte{configFirstBytes[0], configFirstBytes[1], byte(cfg)}
}

// ConfigRspPacketPayload returns the payload bytes for a ConfigRsp link-control packet.
func ConfigRspPacketPayload(cfg ConfigField) []byte {
	return []byte{configRspBytes[0], configRspBytes[1], byte(cfg)}
}
