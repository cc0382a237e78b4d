package transport

import (
	"time"

	"github.com/nordic-semi/h5link/pkg/h5"
)

// Send transmits payload as one reliable vendor-specific frame and blocks
// until it is acknowledged, the link drops out of Active, or the
// retransmission budget (PacketRetransmissions attempts, counting the
// first) is spent without an ack (§4.5, REDESIGN FLAGS). Only one Send may
// be outstanding at a time: the window size this link negotiates is
// always 1.
func (t *H5Transport) Send(payload []byte) error {
	t.ackMu.Lock()
	defer t.ackMu.Unlock()

	if t.state() != StateActive {
		return ErrInvalidState
	}

	txBefore, _ := t.seqAck.snapshot()
	frame, err := h5.Encode(payload, txBefore, t.currentRxAck(), true, false, h5.KindVendorSpecific)
	if err != nil {
		return err
	}

	for attempt := 0; attempt < PacketRetransmissions; attempt++ {
		if err := t.sendRaw(frame); err != nil {
			return ErrInternal
		}

		if ok, canceled := t.waitAckOrTimeout(txBefore, t.retransmissionTimeout); ok {
			return nil
		} else if canceled {
			return ErrCanceled
		}
		t.log(LogDebug, "send: no ack for seq=%d, attempt %d/%d", txBefore, attempt+1, PacketRetransmissions)
	}
	return ErrTimeout
}

func (t *H5Transport) currentRxAck() uint8 {
	_, rx := t.seqAck.snapshot()
	return rx
}

// waitAckOrTimeout blocks until the pending send is acknowledged (ok=true),
// the link leaves Active for a reason other than the timeout (canceled=true,
// §4.4 activeCriteria), or timeout elapses (both false).
func (t *H5Transport) waitAckOrTimeout(txBefore uint8, timeout time.Duration) (ok, canceled bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		tx, _ := t.seqAck.snapshot()
		if tx != txBefore {
			return true, false
		}
		if t.state() != StateActive {
			return false, true
		}

		select {
		case <-t.ackWake:
		case <-timer.C:
			return false, false
		}
	}
}
