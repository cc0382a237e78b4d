package transport

import (
	"github.com/nordic-semi/h5link/pkg/h5"
)

// dispatchFrame is the inbound path for one complete SLIP-delimited frame
// handed up by the reassembler. It mirrors processPacket in the original
// H5 transport: unwrap SLIP and the H5 header, settle the ack field against
// any outstanding reliable send, then route the payload by packet kind and
// current link state.
func (t *H5Transport) dispatchFrame(raw []byte) {
	body, err := h5.SlipDecode(raw)
	if err != nil {
		t.counters.ErrorIncr()
		t.log(LogError, "slip decode: %v", err)
		return
	}

	payload, seq, ack, reliable, kind, err := h5.Decode(body)
	if err != nil {
		t.counters.ErrorIncr()
		t.log(LogError, "frame decode: %v", err)
		return
	}

	t.log(LogDebug, "rx %s seq=%d ack=%d reliable=%v", kind, seq, ack, reliable)
	t.settleAck(ack)

	switch kind {
	case h5.KindLinkControl:
		t.dispatchLinkControl(payload)
	case h5.KindAck:
		// Pure ack packets carry no payload of their own; settleAck above
		// already did the only work they cause.
	default:
		t.dispatchPayload(payload, seq, reliable, kind)
	}
}

// settleAck advances txSeq and wakes a blocked Send when ack confirms the
// one outstanding reliable frame. An ack equal to txSeq is a re-ack of the
// previous frame and is ignored; any other value means the peer's idea of
// txSeq has diverged from ours, an irrecoverable desync that drops the link
// back to Reset (§4.3, §7).
func (t *H5Transport) settleAck(ack uint8) {
	tx, _ := t.seqAck.snapshot()
	switch {
	case ack == tx:
	case ack == (tx+1)&0x07:
		t.seqAck.advanceTx()
		t.ackWake.notify()
	default:
		t.exit.setIrrecoverableSyncError()
		t.wake.notify()
	}
}

func (t *H5Transport) dispatchLinkControl(payload []byte) {
	ct := h5.ClassifyLinkControl(payload)
	s := t.state()

	switch ct {
	case h5.LinkControlSync:
		switch s {
		case StateUninitialized:
			_ = t.sendControlPacket(h5.SyncRspPacketPayload())
		case StateActive:
			// A peer-sent Sync while Active means the peer has reset and
			// wants to renegotiate (§4.4, REDESIGN FLAGS): the link drops
			// back to Reset rather than failing outright. A Send waiting
			// on an ack sees ErrCanceled, not ErrTimeout.
			t.exit.setSyncReceived()
			t.wake.notify()
			t.ackWake.notify()
		}

	case h5.LinkControlSyncRsp:
		if s == StateUninitialized {
			t.exit.setSyncRspReceived()
			t.wake.notify()
		}

	case h5.LinkControlConfig:
		if s == StateInitialized {
			t.exit.setSyncConfigReceived()
			_ = t.sendControlPacket(h5.ConfigRspPacketPayload(h5.DefaultConfigField))
			t.exit.setSyncConfigRspSent()
			t.wake.notify()
		}

	case h5.LinkControlConfigRsp:
		if s == StateInitialized {
			t.exit.setSyncConfigRspReceived()
			t.wake.notify()
		}

	default:
		t.log(LogDebug, "ignoring link control packet %s in state %s", ct, s)
	}
}

// dispatchPayload handles a non-control frame: in this transport that is
// always the one reliable vendor-specific payload a consumer sends and
// receives once the link is Active (§4.1, §4.3 Non-goals: no ACL/ad-hoc
// HCI framing beyond pass-through).
func (t *H5Transport) dispatchPayload(payload []byte, seq uint8, reliable bool, kind h5.Kind) {
	if !reliable {
		t.log(LogDebug, "dropping non-reliable %s payload outside Non-goals", kind)
		return
	}

	if t.state() != StateActive {
		t.exit.setIrrecoverableSyncError()
		t.wake.notify()
		return
	}

	_, rx := t.seqAck.snapshot()
	switch {
	case seq == rx:
		t.seqAck.advanceRx()
		t.counters.IncomingIncr()
		_ = t.sendAck()

		if t.dataCb != nil {
			t.runOnWorkerGoroutine(func() { t.dataCb(payload) })
		}

	case seq == (rx+7)&0x07:
		// Duplicate of the last accepted frame: the peer didn't see our
		// previous ack. Resend it without delivering the payload again.
		_ = t.sendAck()

	default:
		// Any other seq means the peer's idea of rxAck has diverged from
		// ours — an irrecoverable desync (§4.3, h5_transport.cpp:278-288).
		t.exit.setIrrecoverableSyncError()
		t.wake.notify()
	}
}

// sendControlPacket frames and sends a non-reliable link-control payload.
// Control packets always carry seq 0 and the current rxAck, matching
// sendControlPacket in the original source.
func (t *H5Transport) sendControlPacket(payload []byte) error {
	_, rx := t.seqAck.snapshot()
	frame, err := h5.Encode(payload, 0, rx, false, false, h5.KindLinkControl)
	if err != nil {
		return err
	}
	return t.sendRaw(frame)
}

// sendAck sends a standalone, non-reliable ack packet carrying the current
// rxAck value.
func (t *H5Transport) sendAck() error {
	_, rx := t.seqAck.snapshot()
	frame, err := h5.Encode(nil, 0, rx, false, false, h5.KindAck)
	if err != nil {
		return err
	}
	return t.sendRaw(frame)
}

// sendRaw SLIP-encodes frame and hands it to the lower transport.
func (t *H5Transport) sendRaw(frame []byte) error {
	if err := t.lower.Send(h5.SlipEncode(frame)); err != nil {
		return err
	}
	t.counters.OutgoingIncr()
	return nil
}
